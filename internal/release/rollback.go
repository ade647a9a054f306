package release

import (
	"context"
	"sort"
	"strings"

	"bookverse/pkg/logger"
	"bookverse/pkg/platform"
	"bookverse/pkg/serrors"

	"go.uber.org/zap"
)

// Well-known tags and backup property keys used by the rollback flow.
const (
	QuarantineTag = "quarantine"
	LatestTag     = "latest"

	// backupBeforeQuarantine preserves the tag a version carried before it
	// was quarantined, so the rollback can be undone manually.
	backupBeforeQuarantine = "original_tag_before_quarantine"
	// backupBeforeLatest preserves the tag of the successor version before it
	// takes over "latest".
	backupBeforeLatest = "original_tag_before_latest"
)

// RollbackResult describes what a rollback did (or would do in dry-run).
type RollbackResult struct {
	// Target is the quarantined version.
	Target string
	// HadLatest reports whether the target carried the "latest" tag.
	HadLatest bool
	// NewLatest is the version that took over "latest", empty when no
	// successor was available or the target was not latest.
	NewLatest string
	// DryRun reports whether the platform was actually mutated.
	DryRun bool
}

// Rollbacker quarantines production versions and reassigns the "latest" tag.
// The flow is stateless: every decision derives from the current platform
// state, so interrupted runs can simply be repeated.
type Rollbacker struct {
	client platform.AppTrust
	dryRun bool
}

// NewRollbacker constructs a Rollbacker. With dryRun set, intended changes
// are logged but nothing is patched.
func NewRollbacker(client platform.AppTrust, dryRun bool) *Rollbacker {
	return &Rollbacker{client: client, dryRun: dryRun}
}

// prodVersions fetches the application's versions and filters them to the
// production set (RELEASED or TRUSTED_RELEASE), sorted by SemVer descending.
func (r *Rollbacker) prodVersions(ctx context.Context, appKey string) ([]platform.VersionInfo, error) {
	versions, err := r.client.ListVersions(ctx, appKey, 1000)
	if err != nil {
		return nil, err
	}

	prod := make([]platform.VersionInfo, 0, len(versions))
	for _, v := range versions {
		switch strings.ToUpper(v.ReleaseStatus) {
		case platform.ReleaseStatusTrusted, platform.ReleaseStatusReleased:
			prod = append(prod, v)
		}
	}

	values := make([]string, 0, len(prod))
	for _, v := range prod {
		values = append(values, v.Version)
	}
	order := map[string]int{}
	for i, v := range SortSemverDesc(values) {
		if _, ok := order[v]; !ok {
			order[v] = i
		}
	}
	rank := func(v string) int {
		if r, ok := order[v]; ok {
			return r
		}

		// non-semver versions sort last
		return len(prod)
	}

	// stable sort by semver-desc rank, keeping original order for duplicates
	sort.SliceStable(prod, func(i, j int) bool {
		return rank(prod[i].Version) < rank(prod[j].Version)
	})

	return prod, nil
}

// pickNextLatest picks the successor for "latest": the highest non-quarantined
// version excluding the target. On exact SemVer duplicates the trusted release
// wins over the plain released one.
func pickNextLatest(sorted []platform.VersionInfo, exclude string) *platform.VersionInfo {
	candidates := make(map[string][]platform.VersionInfo)
	var orderedUnique []string
	for _, v := range sorted {
		if v.Version == exclude || v.Tag == QuarantineTag {
			continue
		}
		if _, seen := candidates[v.Version]; !seen {
			orderedUnique = append(orderedUnique, v.Version)
		}
		candidates[v.Version] = append(candidates[v.Version], v)
	}

	for _, version := range orderedUnique {
		group := candidates[version]
		for _, c := range group {
			if c.ReleaseStatus == platform.ReleaseStatusTrusted {
				return &c
			}
		}

		return &group[0]
	}

	return nil
}

// backupTagThenPatch stores the current tag under backupKey and replaces the
// tag, in a single patch so the backup and the change are atomic.
func (r *Rollbacker) backupTagThenPatch(ctx context.Context,
	appKey, version, backupKey, newTag, currentTag string) error {
	if r.dryRun {
		logger.Info(ctx, "dry-run: would patch version",
			zap.String("application", appKey),
			zap.String("version", version),
			zap.String("backup_property", backupKey),
			zap.String("backup_value", currentTag),
			zap.String("new_tag", newTag))

		return nil
	}

	return r.client.PatchVersion(ctx, appKey, version, platform.VersionPatch{
		Tag:        &newTag,
		Properties: map[string][]string{backupKey: {currentTag}},
	})
}

// Rollback quarantines targetVersion in production. The current tag is backed
// up first. When the target carried "latest", the highest remaining
// non-quarantined version takes over the tag, with its own tag backed up.
func (r *Rollbacker) Rollback(ctx context.Context, appKey, targetVersion string) (RollbackResult, error) {
	result := RollbackResult{Target: targetVersion, DryRun: r.dryRun}

	prod, err := r.prodVersions(ctx, appKey)
	if err != nil {
		return result, err
	}

	var target *platform.VersionInfo
	for i := range prod {
		if prod[i].Version == targetVersion {
			target = &prod[i]

			break
		}
	}
	if target == nil {
		return result, serrors.With(serrors.ErrNotFound,
			"target version %q not found in production set of %q", targetVersion, appKey)
	}

	result.HadLatest = target.Tag == LatestTag

	if err := r.backupTagThenPatch(ctx,
		appKey, targetVersion, backupBeforeQuarantine, QuarantineTag, target.Tag); err != nil {
		return result, err
	}
	logger.Info(ctx, "quarantined version",
		zap.String("application", appKey),
		zap.String("version", targetVersion),
		zap.Bool("had_latest", result.HadLatest),
		zap.Bool("dry_run", r.dryRun))

	if !result.HadLatest {
		return result, nil
	}

	next := pickNextLatest(prod, targetVersion)
	if next == nil {
		logger.Warn(ctx, "no successor for latest, tag unassigned until next promotion",
			zap.String("application", appKey))

		return result, nil
	}

	if err := r.backupTagThenPatch(ctx,
		appKey, next.Version, backupBeforeLatest, LatestTag, next.Tag); err != nil {
		return result, err
	}
	result.NewLatest = next.Version
	logger.Info(ctx, "reassigned latest",
		zap.String("application", appKey),
		zap.String("version", next.Version),
		zap.Bool("dry_run", r.dryRun))

	return result, nil
}
