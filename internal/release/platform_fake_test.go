package release

import (
	"context"

	"bookverse/pkg/platform"
)

// fakePlatform implements the platform client interfaces with overridable
// function fields. Unset operations return zero values.
type fakePlatform struct {
	listVersions   func(ctx context.Context, appKey string, limit int) ([]platform.VersionInfo, error)
	getVersion     func(ctx context.Context, appKey, version string) (*platform.VersionDetail, error)
	listDockerTags func(ctx context.Context, repoKey, image string) ([]string, error)
	searchAQL      func(ctx context.Context, query string) ([]platform.AQLItem, error)
	patchVersion   func(ctx context.Context, appKey, version string, patch platform.VersionPatch) error
}

func (f *fakePlatform) ListVersions(ctx context.Context, appKey string, limit int) ([]platform.VersionInfo, error) {
	if f.listVersions == nil {
		return nil, nil
	}

	return f.listVersions(ctx, appKey, limit)
}

func (f *fakePlatform) GetVersion(ctx context.Context, appKey, version string) (*platform.VersionDetail, error) {
	if f.getVersion == nil {
		return nil, nil
	}

	return f.getVersion(ctx, appKey, version)
}

func (f *fakePlatform) ListDockerTags(ctx context.Context, repoKey, image string) ([]string, error) {
	if f.listDockerTags == nil {
		return nil, nil
	}

	return f.listDockerTags(ctx, repoKey, image)
}

func (f *fakePlatform) SearchAQL(ctx context.Context, query string) ([]platform.AQLItem, error) {
	if f.searchAQL == nil {
		return nil, nil
	}

	return f.searchAQL(ctx, query)
}

func (f *fakePlatform) PatchVersion(ctx context.Context, appKey, version string, patch platform.VersionPatch) error {
	if f.patchVersion == nil {
		return nil
	}

	return f.patchVersion(ctx, appKey, version, patch)
}

func (f *fakePlatform) ListApplications(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakePlatform) GetVersionContent(context.Context, string, string) (*platform.VersionContent, error) {
	return nil, nil
}

func (f *fakePlatform) GetVersionPromotions(context.Context, string, string) ([]platform.Promotion, error) {
	return nil, nil
}

func (f *fakePlatform) DeleteVersion(context.Context, string, string) error { return nil }

func (f *fakePlatform) ListOIDCProviders(context.Context) ([]platform.OIDCProvider, error) {
	return nil, nil
}

func (f *fakePlatform) ListIdentityMappings(context.Context, string) ([]platform.IdentityMapping, error) {
	return nil, nil
}

func (f *fakePlatform) DeleteIdentityMapping(context.Context, string, platform.IdentityMapping) error {
	return nil
}

func (f *fakePlatform) ListProjectRoles(context.Context, string) ([]platform.Role, error) {
	return nil, nil
}

func (f *fakePlatform) DeleteProjectRole(context.Context, string, string) error { return nil }

func (f *fakePlatform) GetProject(context.Context, string) error { return nil }

func (f *fakePlatform) DeleteProject(context.Context, string) error { return nil }

func (f *fakePlatform) DeleteDockerImage(context.Context, string, string, string) error { return nil }

var _ platform.Client = (*fakePlatform)(nil)
