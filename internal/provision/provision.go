// Package provision reconciles platform-side provisioning state for a
// project: OIDC identity mappings and project-scoped roles. Discovery reports
// what exists, cleanup removes what references the project.
package provision

import (
	"context"
	"fmt"
	"strings"

	"bookverse/pkg/logger"
	"bookverse/pkg/platform"

	"go.uber.org/zap"
)

// builtinRoles are platform-managed roles that must never be deleted.
var builtinRoles = map[string]struct{}{
	"Developer":         {},
	"Contributor":       {},
	"Viewer":            {},
	"Release Manager":   {},
	"Security Manager":  {},
	"Application Admin": {},
	"Project Admin":     {},
}

// IsBuiltinRole reports whether name is a platform-managed role.
func IsBuiltinRole(name string) bool {
	_, ok := builtinRoles[name]

	return ok
}

// RelatedMapping is an identity mapping that references the project.
type RelatedMapping struct {
	// Provider is the OIDC provider the mapping belongs to.
	Provider string
	// Mapping is the mapping itself.
	Mapping platform.IdentityMapping
}

// MappingReport summarizes identity mapping discovery.
type MappingReport struct {
	// Providers is the number of OIDC providers inspected.
	Providers int
	// TotalMappings counts all mappings across providers.
	TotalMappings int
	// Related lists the mappings referencing the project.
	Related []RelatedMapping
}

// CleanupReport summarizes a cleanup run.
type CleanupReport struct {
	// Attempted is the number of deletions considered.
	Attempted int
	// Deleted is the number of successful deletions. Always zero in dry-run.
	Deleted int
	// Errors collects per-item failure descriptions; cleanup continues past
	// individual failures.
	Errors []string
}

// Reconciler inspects and cleans project-scoped provisioning state.
type Reconciler struct {
	client     platform.Access
	projectKey string
	dryRun     bool
}

// New constructs a Reconciler for the given project.
func New(client platform.Access, projectKey string, dryRun bool) *Reconciler {
	return &Reconciler{client: client, projectKey: projectKey, dryRun: dryRun}
}

// flattenStrings walks an arbitrary decoded JSON value and yields every
// string it contains.
func flattenStrings(value any, out *[]string) {
	switch v := value.(type) {
	case string:
		*out = append(*out, v)
	case map[string]any:
		for _, inner := range v {
			flattenStrings(inner, out)
		}
	case []any:
		for _, inner := range v {
			flattenStrings(inner, out)
		}
	}
}

// referencesProject reports whether any string inside the mapping object
// contains the project key (case-insensitive). Mappings carry the project in
// varying fields (claims, descriptions, role names), so the whole object is
// searched.
func referencesProject(raw map[string]any, projectKey string) bool {
	target := strings.ToLower(projectKey)
	var values []string
	flattenStrings(raw, &values)
	for _, s := range values {
		if strings.Contains(strings.ToLower(s), target) {
			return true
		}
	}

	return false
}

// DiscoverMappings lists every provider's identity mappings and reports the
// ones referencing the project.
func (r *Reconciler) DiscoverMappings(ctx context.Context) (MappingReport, error) {
	providers, err := r.client.ListOIDCProviders(ctx)
	if err != nil {
		return MappingReport{}, fmt.Errorf("could not list oidc providers: %w", err)
	}

	report := MappingReport{Providers: len(providers)}
	for _, provider := range providers {
		mappings, err := r.client.ListIdentityMappings(ctx, provider.Name)
		if err != nil {
			return MappingReport{}, fmt.Errorf("could not list mappings of %q: %w", provider.Name, err)
		}
		report.TotalMappings += len(mappings)

		for _, m := range mappings {
			if referencesProject(m.Raw, r.projectKey) {
				report.Related = append(report.Related, RelatedMapping{Provider: provider.Name, Mapping: m})
			}
		}
	}

	return report, nil
}

// CleanupMappings deletes every identity mapping referencing the project.
// Individual failures are collected rather than aborting the run.
func (r *Reconciler) CleanupMappings(ctx context.Context) (CleanupReport, error) {
	discovery, err := r.DiscoverMappings(ctx)
	if err != nil {
		return CleanupReport{}, err
	}

	var report CleanupReport
	for _, related := range discovery.Related {
		report.Attempted++
		if r.dryRun {
			logger.Info(ctx, "dry-run: would delete identity mapping",
				zap.String("provider", related.Provider),
				zap.String("mapping", related.Mapping.ID))

			continue
		}

		if err := r.client.DeleteIdentityMapping(ctx, related.Provider, related.Mapping); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("mapping %q under %q: %v", related.Mapping.ID, related.Provider, err))

			continue
		}
		report.Deleted++
		logger.Info(ctx, "deleted identity mapping",
			zap.String("provider", related.Provider),
			zap.String("mapping", related.Mapping.ID))
	}

	return report, nil
}

// DiscoverRoles lists the project's roles.
func (r *Reconciler) DiscoverRoles(ctx context.Context) ([]platform.Role, error) {
	roles, err := r.client.ListProjectRoles(ctx, r.projectKey)
	if err != nil {
		return nil, fmt.Errorf("could not list project roles: %w", err)
	}

	return roles, nil
}

// CleanupRoles deletes project-scoped roles. Built-in roles are always kept;
// when rolePrefix is non-empty only roles starting with it are considered.
func (r *Reconciler) CleanupRoles(ctx context.Context, rolePrefix string) (CleanupReport, error) {
	roles, err := r.DiscoverRoles(ctx)
	if err != nil {
		return CleanupReport{}, err
	}

	var report CleanupReport
	for _, role := range roles {
		name := strings.TrimSpace(role.Name)
		if name == "" || IsBuiltinRole(name) {
			continue
		}
		if rolePrefix != "" && !strings.HasPrefix(name, rolePrefix) {
			continue
		}

		report.Attempted++
		if r.dryRun {
			logger.Info(ctx, "dry-run: would delete project role", zap.String("role", name))

			continue
		}

		if err := r.client.DeleteProjectRole(ctx, r.projectKey, name); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("role %q: %v", name, err))

			continue
		}
		report.Deleted++
		logger.Info(ctx, "deleted project role", zap.String("role", name))
	}

	return report, nil
}
