package cleanup

import (
	"context"
	"sync"
	"testing"

	"bookverse/pkg/platform"

	"github.com/stretchr/testify/require"
)

// fakeAppTrust implements platform.AppTrust backed by in-memory fixtures.
type fakeAppTrust struct {
	mu sync.Mutex

	apps       []string
	versions   map[string][]platform.VersionInfo
	content    map[string]*platform.VersionContent // keyed "app@version"
	promotions map[string][]platform.Promotion     // keyed "app@version"

	deleted []string
}

func (f *fakeAppTrust) ListApplications(context.Context, string) ([]string, error) {
	return f.apps, nil
}

func (f *fakeAppTrust) ListVersions(_ context.Context, appKey string, _ int) ([]platform.VersionInfo, error) {
	return f.versions[appKey], nil
}

func (f *fakeAppTrust) GetVersion(context.Context, string, string) (*platform.VersionDetail, error) {
	return nil, nil
}

func (f *fakeAppTrust) GetVersionContent(_ context.Context, appKey, version string) (*platform.VersionContent, error) {
	if c, ok := f.content[appKey+"@"+version]; ok {
		return c, nil
	}

	return &platform.VersionContent{}, nil
}

func (f *fakeAppTrust) GetVersionPromotions(_ context.Context, appKey, version string) ([]platform.Promotion, error) {
	return f.promotions[appKey+"@"+version], nil
}

func (f *fakeAppTrust) PatchVersion(context.Context, string, string, platform.VersionPatch) error {
	return nil
}

func (f *fakeAppTrust) DeleteVersion(_ context.Context, appKey, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, appKey+"@"+version)

	return nil
}

var _ platform.AppTrust = (*fakeAppTrust)(nil)

func faultyContent(names ...string) *platform.VersionContent {
	c := &platform.VersionContent{}
	for _, name := range names {
		c.Releasables = append(c.Releasables, platform.Releasable{
			Name:        name,
			Version:     "180-1",
			PackageType: "docker",
		})
	}

	return c
}

func TestVersionScanner_Scan(t *testing.T) {
	client := &fakeAppTrust{
		apps: []string{"bookverse-web", "bookverse-checkout"},
		versions: map[string][]platform.VersionInfo{
			"bookverse-web": {
				{Version: "1.4.0", ReleaseStatus: "RELEASED"},
				{Version: "1.3.0", ReleaseStatus: "RELEASED"},
			},
			"bookverse-checkout": {
				{Version: "2.0.0", ReleaseStatus: "TRUSTED_RELEASE"},
			},
		},
		promotions: map[string][]platform.Promotion{
			"bookverse-web@1.4.0": {{Stage: "bookverse-DEV"}, {Stage: "bookverse-QA"}},
		},
		content: map[string]*platform.VersionContent{
			"bookverse-web@1.4.0": faultyContent("web"),
			"bookverse-checkout@2.0.0": {
				Releasables: []platform.Releasable{
					// same version string but not docker, must not match
					{Name: "checkout-cfg", Version: "180-1", PackageType: "generic"},
					{Name: "checkout-api", Version: "2.0.0", PackageType: "docker"},
				},
			},
		},
	}
	s := NewVersionScanner(client, "bookverse", VersionScannerOptions{})

	faulty, err := s.Scan(context.Background(), nil, "180-1")
	require.NoError(t, err)
	require.Len(t, faulty, 1)
	require.Equal(t, "bookverse-web", faulty[0].AppKey)
	require.Equal(t, "1.4.0", faulty[0].Version)
	require.Equal(t, []string{"web:180-1"}, faulty[0].Releasables)
	require.Equal(t, []string{"bookverse-DEV", "bookverse-QA"}, faulty[0].Stages)
}

func TestVersionScanner_Scan_explicitApps(t *testing.T) {
	client := &fakeAppTrust{
		versions: map[string][]platform.VersionInfo{
			"bookverse-web": {{Version: "1.0.0"}},
		},
		content: map[string]*platform.VersionContent{
			"bookverse-web@1.0.0": faultyContent("web"),
		},
	}
	s := NewVersionScanner(client, "bookverse", VersionScannerOptions{AppWorkers: 2, VersionWorkers: 2})

	faulty, err := s.Scan(context.Background(), []string{"bookverse-web"}, "180-1")
	require.NoError(t, err)
	require.Len(t, faulty, 1)
}

func TestVersionScanner_Purge(t *testing.T) {
	client := &fakeAppTrust{}
	s := NewVersionScanner(client, "bookverse", VersionScannerOptions{})

	faulty := []FaultyVersion{
		{AppKey: "bookverse-web", Version: "1.4.0"},
		{AppKey: "bookverse-checkout", Version: "2.0.0"},
	}

	deleted, err := s.Purge(context.Background(), faulty)
	require.NoError(t, err)
	require.Equal(t, 2, deleted)
	require.ElementsMatch(t, []string{"bookverse-web@1.4.0", "bookverse-checkout@2.0.0"}, client.deleted)
}

func TestVersionScanner_Purge_dryRun(t *testing.T) {
	client := &fakeAppTrust{}
	s := NewVersionScanner(client, "bookverse", VersionScannerOptions{DryRun: true})

	deleted, err := s.Purge(context.Background(), []FaultyVersion{{AppKey: "a", Version: "1.0.0"}})
	require.NoError(t, err)
	require.Zero(t, deleted)
	require.Empty(t, client.deleted)
}
