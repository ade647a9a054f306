// Package cleanup removes faulty artifacts from the platform: application
// versions referencing a bad image tag, non-SemVer docker images and, as the
// final step of a teardown, the project itself.
package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookverse/pkg/logger"
	"bookverse/pkg/platform"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default parallelism for version scanning, matching what the platform API
// tolerates comfortably.
const (
	defaultAppWorkers     = 3
	defaultVersionWorkers = 5
)

// FaultyVersion is an application version whose releasables reference the
// target tag.
type FaultyVersion struct {
	// AppKey is the owning application.
	AppKey string
	// Version is the faulty version.
	Version string
	// ReleaseStatus is the version's release status at scan time.
	ReleaseStatus string
	// Created is when the version was created.
	Created time.Time
	// Releasables lists the offending releasables as "name:version".
	Releasables []string
	// Stages lists the stages the version was promoted through, in order.
	Stages []string
}

// VersionScannerOptions tune a VersionScanner. Zero worker counts fall back
// to the defaults.
type VersionScannerOptions struct {
	// AppWorkers is the number of applications scanned concurrently.
	AppWorkers int
	// VersionWorkers is the number of versions scanned concurrently per application.
	VersionWorkers int
	// DryRun disables deletion.
	DryRun bool
}

// VersionScanner finds and deletes application versions that contain a faulty
// docker releasable.
type VersionScanner struct {
	client         platform.AppTrust
	projectKey     string
	appWorkers     int
	versionWorkers int
	dryRun         bool
}

// NewVersionScanner constructs a VersionScanner.
func NewVersionScanner(client platform.AppTrust, projectKey string, opts VersionScannerOptions) *VersionScanner {
	if opts.AppWorkers <= 0 {
		opts.AppWorkers = defaultAppWorkers
	}
	if opts.VersionWorkers <= 0 {
		opts.VersionWorkers = defaultVersionWorkers
	}

	return &VersionScanner{
		client:         client,
		projectKey:     projectKey,
		appWorkers:     opts.AppWorkers,
		versionWorkers: opts.VersionWorkers,
		dryRun:         opts.DryRun,
	}
}

// scanVersion checks a single version's releasables for the target tag.
func (s *VersionScanner) scanVersion(ctx context.Context,
	appKey string,
	info platform.VersionInfo,
	targetTag string) (*FaultyVersion, error) {
	content, err := s.client.GetVersionContent(ctx, appKey, info.Version)
	if err != nil {
		// a version without readable content cannot be judged; skip it
		logger.Warn(ctx, "could not get version content",
			zap.String("application", appKey),
			zap.String("version", info.Version),
			zap.Error(err))

		return nil, nil
	}

	var offending []string
	for _, r := range content.Releasables {
		if r.Version == targetTag && r.PackageType == "docker" {
			offending = append(offending, fmt.Sprintf("%s:%s", r.Name, r.Version))
		}
	}
	if len(offending) == 0 {
		return nil, nil
	}

	var stages []string
	promotions, err := s.client.GetVersionPromotions(ctx, appKey, info.Version)
	if err != nil {
		logger.Warn(ctx, "could not get version promotions",
			zap.String("application", appKey),
			zap.String("version", info.Version),
			zap.Error(err))
	}
	for _, p := range promotions {
		stages = append(stages, p.Stage)
	}

	return &FaultyVersion{
		AppKey:        appKey,
		Version:       info.Version,
		ReleaseStatus: info.ReleaseStatus,
		Created:       info.Created,
		Releasables:   offending,
		Stages:        stages,
	}, nil
}

// scanApplication scans all versions of one application in parallel.
func (s *VersionScanner) scanApplication(ctx context.Context, appKey, targetTag string) ([]FaultyVersion, error) {
	versions, err := s.client.ListVersions(ctx, appKey, 1000)
	if err != nil {
		return nil, fmt.Errorf("could not list versions of %q: %w", appKey, err)
	}

	var mu sync.Mutex
	var faulty []FaultyVersion

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.versionWorkers)
	for _, info := range versions {
		g.Go(func() error {
			fv, err := s.scanVersion(gctx, appKey, info, targetTag)
			if err != nil {
				return err
			}
			if fv != nil {
				mu.Lock()
				faulty = append(faulty, *fv)
				mu.Unlock()
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return faulty, nil
}

// Scan searches the given applications (or all applications of the project
// when apps is empty) for versions whose docker releasables carry targetTag.
func (s *VersionScanner) Scan(ctx context.Context, apps []string, targetTag string) ([]FaultyVersion, error) {
	if len(apps) == 0 {
		discovered, err := s.client.ListApplications(ctx, s.projectKey)
		if err != nil {
			return nil, fmt.Errorf("could not list applications: %w", err)
		}
		apps = discovered
	}

	var mu sync.Mutex
	var all []FaultyVersion

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.appWorkers)
	for _, appKey := range apps {
		g.Go(func() error {
			faulty, err := s.scanApplication(gctx, appKey, targetTag)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, faulty...)
			mu.Unlock()

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return all, nil
}

// Purge deletes the given faulty versions and returns how many were removed.
// In dry-run mode nothing is deleted. Individual failures are logged and
// counted but do not abort the run.
func (s *VersionScanner) Purge(ctx context.Context, faulty []FaultyVersion) (int, error) {
	deleted := 0
	for _, fv := range faulty {
		if s.dryRun {
			logger.Info(ctx, "dry-run: would delete version",
				zap.String("application", fv.AppKey),
				zap.String("version", fv.Version),
				zap.Strings("releasables", fv.Releasables))

			continue
		}

		if err := s.client.DeleteVersion(ctx, fv.AppKey, fv.Version); err != nil {
			logger.Error(ctx, "could not delete version",
				zap.String("application", fv.AppKey),
				zap.String("version", fv.Version),
				zap.Error(err))

			continue
		}
		deleted++
		logger.Info(ctx, "deleted faulty version",
			zap.String("application", fv.AppKey),
			zap.String("version", fv.Version))
	}

	if !s.dryRun && deleted < len(faulty) {
		return deleted, fmt.Errorf("deleted %d of %d faulty versions", deleted, len(faulty))
	}

	return deleted, nil
}
