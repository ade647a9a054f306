package release

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionMap_lookup(t *testing.T) {
	m := testVersionMap(t)

	app := m.Application(" bookverse-web ")
	require.NotNil(t, app)
	require.Equal(t, "2.7.20", app.Seeds.Application)

	pkg := app.Package("web")
	require.NotNil(t, pkg)
	require.Equal(t, "docker", pkg.Type)

	require.Nil(t, m.Application("bookverse-unknown"))
	require.Nil(t, app.Package("unknown"))
}

func TestVersionMap_EnsureSeeds(t *testing.T) {
	m := &VersionMap{Applications: []Application{
		{Key: "bookverse-checkout", Packages: []Package{{Type: "docker", Name: "checkout-api"}}},
		{Key: "bookverse-web", Seeds: Seeds{Application: "1.2.3", Build: "4.5.6"}},
	}}

	m.EnsureSeeds()

	for _, app := range m.Applications {
		require.True(t, IsStrictSemver(app.Seeds.Application), app.Key)
		require.True(t, IsStrictSemver(app.Seeds.Build), app.Key)
		for _, pkg := range app.Packages {
			require.True(t, IsStrictSemver(pkg.Seed), pkg.Name)
		}
	}

	// existing seeds survive
	require.Equal(t, "1.2.3", m.Applications[1].Seeds.Application)
	require.Equal(t, "4.5.6", m.Applications[1].Seeds.Build)
}

func TestVersionMap_writeAndLoadRoundTrip(t *testing.T) {
	m := testVersionMap(t)
	path := filepath.Join(t.TempDir(), "config", "version-map.yaml")

	require.NoError(t, WriteVersionMap(path, m))

	loaded, err := LoadVersionMap(path)
	require.NoError(t, err)
	require.Equal(t, m, loaded)

	_, err = LoadVersionMap(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
