// Package platform defines interfaces and data types used to talk to the
// JFrog Platform: AppTrust application versions, the Access administration
// API (OIDC providers, identity mappings, projects, roles) and the
// Artifactory registry surface (docker tags, AQL search).
package platform

import (
	"context"
	"time"
)

// Version release statuses reported by AppTrust. Versions carrying one of the
// PROD statuses form the production set considered by rollback.
const (
	ReleaseStatusTrusted  = "TRUSTED_RELEASE"
	ReleaseStatusReleased = "RELEASED"
)

// VersionInfo is a single entry of an application's version list.
type VersionInfo struct {
	// Version is the SemVer-ish version string.
	Version string
	// Tag is the mutable tag currently attached to the version ("latest",
	// "quarantine", ...). Empty when the version carries no tag.
	Tag string
	// ReleaseStatus is the AppTrust release status, upper-cased.
	ReleaseStatus string
	// Created is when the version was created; zero when the API omitted it.
	Created time.Time
}

// BuildSource identifies a build that produced an application version.
type BuildSource struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// VersionDetail is the full record of a single application version.
type VersionDetail struct {
	Version string
	Tag     string
	// Builds lists the source builds recorded for this version, most
	// significant first.
	Builds []BuildSource
}

// Artifact is one artifact inside a version's content listing.
type Artifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Releasable is one deliverable package recorded in a version's content.
type Releasable struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	PackageType string `json:"package_type"`
}

// VersionContent is the content listing of an application version.
type VersionContent struct {
	Artifacts   []Artifact   `json:"artifacts"`
	Releasables []Releasable `json:"releasables"`
}

// Promotion records one stage promotion of a version.
type Promotion struct {
	Stage   string    `json:"stage"`
	Created time.Time `json:"created"`
}

// VersionPatch describes a partial update of an application version. Only
// non-nil fields are sent.
type VersionPatch struct {
	// Tag replaces the version tag; an empty string clears it.
	Tag *string
	// Properties replaces the values of the given property keys. The API
	// expects arrays of strings per key.
	Properties map[string][]string
	// DeleteProperties removes the given property keys entirely.
	DeleteProperties []string
}

// OIDCProvider is an OIDC integration configured on the platform.
type OIDCProvider struct {
	Name string
}

// IdentityMapping is one OIDC identity mapping. The Access API has shipped
// several shapes for mappings, so the full decoded object is retained for
// matching alongside the extracted identifier.
type IdentityMapping struct {
	// ID is the mapping identifier (id, _id or name, whichever the API
	// returned). Empty when none could be extracted.
	ID string
	// Raw is the decoded mapping object as returned by the API.
	Raw map[string]any
}

// Role is a project-scoped role.
type Role struct {
	Name string `json:"name"`
}

// AQLItem is one result row of an AQL search.
type AQLItem struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
	Name string `json:"name"`
}

// AppTrust is the abstraction over the AppTrust application-versions API.
type AppTrust interface {
	// ListApplications returns the application keys of a project.
	ListApplications(ctx context.Context, projectKey string) ([]string, error)
	// ListVersions returns up to limit versions of an application, most
	// recently created first.
	ListVersions(ctx context.Context, appKey string, limit int) ([]VersionInfo, error)
	// GetVersion fetches the detail record of a single version.
	GetVersion(ctx context.Context, appKey, version string) (*VersionDetail, error)
	// GetVersionContent fetches the content listing (artifacts, releasables)
	// of a version.
	GetVersionContent(ctx context.Context, appKey, version string) (*VersionContent, error)
	// GetVersionPromotions lists the stage promotions recorded for a version.
	GetVersionPromotions(ctx context.Context, appKey, version string) ([]Promotion, error)
	// PatchVersion applies a partial update (tag and/or properties).
	PatchVersion(ctx context.Context, appKey, version string, patch VersionPatch) error
	// DeleteVersion removes a version permanently.
	DeleteVersion(ctx context.Context, appKey, version string) error
}

// Access is the abstraction over the Access administration API.
type Access interface {
	// ListOIDCProviders returns all configured OIDC providers.
	ListOIDCProviders(ctx context.Context) ([]OIDCProvider, error)
	// ListIdentityMappings returns the identity mappings of a provider,
	// probing the known endpoint variants. A provider without mappings (or
	// whose endpoints all answer 404) yields an empty slice, not an error.
	ListIdentityMappings(ctx context.Context, provider string) ([]IdentityMapping, error)
	// DeleteIdentityMapping deletes a mapping, trying the known endpoint
	// variants in order.
	DeleteIdentityMapping(ctx context.Context, provider string, mapping IdentityMapping) error
	// ListProjectRoles returns the roles of a project.
	ListProjectRoles(ctx context.Context, projectKey string) ([]Role, error)
	// DeleteProjectRole deletes a project-scoped role.
	DeleteProjectRole(ctx context.Context, projectKey, roleName string) error
	// GetProject returns nil when the project exists and ErrNotFound when it
	// does not.
	GetProject(ctx context.Context, projectKey string) error
	// DeleteProject deletes a project.
	DeleteProject(ctx context.Context, projectKey string) error
}

// Registry is the abstraction over the Artifactory registry surface.
type Registry interface {
	// ListDockerTags lists the tags of an image inside a docker repository.
	// A missing image yields an empty slice, not an error.
	ListDockerTags(ctx context.Context, repoKey, image string) ([]string, error)
	// DeleteDockerImage deletes a single image tag.
	DeleteDockerImage(ctx context.Context, repoKey, image, tag string) error
	// SearchAQL runs an AQL items.find query and returns the result rows.
	SearchAQL(ctx context.Context, query string) ([]AQLItem, error)
}

// Client bundles all platform API surfaces used by the service.
type Client interface {
	AppTrust
	Access
	Registry
}
