package release

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"bookverse/pkg/logger"
	"bookverse/pkg/platform"
	"bookverse/pkg/serrors"

	"go.uber.org/zap"
)

// recentVersionLimit bounds how far back version planning looks when the most
// recent version is not a plain SemVer.
const recentVersionLimit = 50

// Plan is the set of identifiers computed for one release of an application.
type Plan struct {
	// ApplicationKey is the application the plan was computed for.
	ApplicationKey string `json:"application_key"`
	// AppVersion is the next application version.
	AppVersion string `json:"app_version"`
	// BuildNumber is the next build number.
	BuildNumber string `json:"build_number"`
	// PackageTags maps package name to its next tag.
	PackageTags map[string]string `json:"package_tags"`
}

// ImageTag returns the default image tag, which follows the build number.
func (p Plan) ImageTag() string { return p.BuildNumber }

// Planner computes next versions by inspecting the platform and falling back
// to the version map seeds. Seeds are always bumped before use so a seed value
// itself is never reused for artifacts that may already exist.
type Planner struct {
	client     platform.Client
	versionMap *VersionMap
	projectKey string
}

// NewPlanner constructs a Planner for the given project.
func NewPlanner(client platform.Client, versionMap *VersionMap, projectKey string) *Planner {
	return &Planner{
		client:     client,
		versionMap: versionMap,
		projectKey: projectKey,
	}
}

// Plan computes the next application version, build number and the tags of
// the requested packages in one pass.
func (p *Planner) Plan(ctx context.Context, appKey string, packages []string) (Plan, error) {
	appVersion, err := p.NextApplicationVersion(ctx, appKey)
	if err != nil {
		return Plan{}, err
	}

	buildNumber, err := p.NextBuildNumber(ctx, appKey)
	if err != nil {
		return Plan{}, err
	}

	tags := make(map[string]string, len(packages))
	for _, name := range packages {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := p.NextPackageTag(ctx, appKey, name)
		if err != nil {
			return Plan{}, err
		}
		tags[name] = tag
	}

	return Plan{
		ApplicationKey: appKey,
		AppVersion:     appVersion,
		BuildNumber:    buildNumber,
		PackageTags:    tags,
	}, nil
}

// NextApplicationVersion returns the next application version. The most
// recently created version wins when it is a plain SemVer; otherwise the
// highest SemVer among recent versions is bumped, and as a last resort the
// map seed is bumped. A platform read failure degrades to the seed path.
func (p *Planner) NextApplicationVersion(ctx context.Context, appKey string) (string, error) {
	versions, err := p.client.ListVersions(ctx, appKey, recentVersionLimit)
	if err != nil {
		logger.Warn(ctx, "could not list versions, falling back to seed",
			zap.String("application", appKey), zap.Error(err))
		versions = nil
	}

	if len(versions) > 0 && IsStrictSemver(versions[0].Version) {
		return BumpPatch(versions[0].Version)
	}

	values := make([]string, 0, len(versions))
	for _, v := range versions {
		values = append(values, v.Version)
	}
	if latest := MaxStrict(values); latest != "" {
		return BumpPatch(latest)
	}

	entry := p.versionMap.Application(appKey)
	if entry == nil || !IsStrictSemver(entry.Seeds.Application) {
		return "", serrors.With(serrors.ErrBadRequest, "no valid application seed for %q", appKey)
	}

	// bump the seed so the seed value itself is never reused
	return BumpPatch(entry.Seeds.Application)
}

// NextBuildNumber returns the next build number, derived from the first build
// source recorded on the latest version, falling back to the build seed.
func (p *Planner) NextBuildNumber(ctx context.Context, appKey string) (string, error) {
	versions, err := p.client.ListVersions(ctx, appKey, 1)
	if err != nil {
		logger.Warn(ctx, "could not list versions, falling back to build seed",
			zap.String("application", appKey), zap.Error(err))
		versions = nil
	}

	if len(versions) > 0 {
		detail, err := p.client.GetVersion(ctx, appKey, versions[0].Version)
		if err != nil {
			logger.Warn(ctx, "could not get version detail",
				zap.String("application", appKey),
				zap.String("version", versions[0].Version),
				zap.Error(err))
		}
		if detail != nil && len(detail.Builds) > 0 && IsStrictSemver(detail.Builds[0].Number) {
			return BumpPatch(detail.Builds[0].Number)
		}
	}

	entry := p.versionMap.Application(appKey)
	if entry == nil || !IsStrictSemver(entry.Seeds.Build) {
		return "", serrors.With(serrors.ErrBadRequest, "no valid build seed for %q", appKey)
	}

	return BumpPatch(entry.Seeds.Build)
}

// pathVersionRe extracts a plain X.Y.Z path segment from artifact paths such
// as "web/assets/1.6.14".
var pathVersionRe = regexp.MustCompile(`(?:^|/)(\d+\.\d+\.\d+)(?:/|$)`)

// NextPackageTag returns the next tag for a package of an application. Docker
// packages consult the registry tag list, generic packages scan artifact
// paths via AQL. When nothing is published yet the package seed is bumped.
func (p *Planner) NextPackageTag(ctx context.Context, appKey, packageName string) (string, error) {
	entry := p.versionMap.Application(appKey)
	if entry == nil {
		return "", serrors.With(serrors.ErrNotFound, "application %q not found in version map", appKey)
	}
	pkg := entry.Package(packageName)
	if pkg == nil {
		return "", serrors.With(serrors.ErrNotFound, "package %q not found in version map for %q", packageName, appKey)
	}
	if !IsStrictSemver(pkg.Seed) {
		return "", serrors.With(serrors.ErrBadRequest, "no valid seed for package %s/%s", appKey, packageName)
	}

	var existing []string
	switch pkg.Type {
	case "docker":
		tags, err := p.client.ListDockerTags(ctx, p.repoKey(appKey, "docker"), packageName)
		if err != nil {
			logger.Warn(ctx, "could not list docker tags, falling back to seed",
				zap.String("package", packageName), zap.Error(err))
		}
		for _, tag := range tags {
			if IsStrictSemver(tag) {
				existing = append(existing, tag)
			}
		}
	case "generic":
		query := fmt.Sprintf(`items.find({"repo":%q,"type":"file"}).include("name","path","actual_sha1")`,
			p.repoKey(appKey, "generic"))
		items, err := p.client.SearchAQL(ctx, query)
		if err != nil {
			logger.Warn(ctx, "could not search artifacts, falling back to seed",
				zap.String("package", packageName), zap.Error(err))
		}
		for _, item := range items {
			if m := pathVersionRe.FindStringSubmatch(item.Path); m != nil {
				existing = append(existing, m[1])
			}
		}
	}

	if latest := MaxStrict(existing); latest != "" {
		return BumpPatch(latest)
	}

	return BumpPatch(pkg.Seed)
}

// repoKey builds the internal non-production repository key for a service,
// e.g. "bookverse-web-internal-docker-nonprod-local".
func (p *Planner) repoKey(appKey, packageType string) string {
	service := strings.TrimPrefix(appKey, p.projectKey+"-")

	return fmt.Sprintf("%s-%s-internal-%s-nonprod-local", p.projectKey, service, packageType)
}
