package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBumpPatch(t *testing.T) {
	out, err := BumpPatch("1.2.3")
	require.NoError(t, err)
	require.Equal(t, "1.2.4", out)

	out, err = BumpPatch(" 0.0.0 ")
	require.NoError(t, err)
	require.Equal(t, "0.0.1", out)

	_, err = BumpPatch("1.2")
	require.Error(t, err)
	_, err = BumpPatch("1.2.3-rc.1")
	require.Error(t, err)
	_, err = BumpPatch("v1.2.3")
	require.Error(t, err)
}

func TestMaxStrict(t *testing.T) {
	require.Equal(t, "2.10.0", MaxStrict([]string{"1.9.9", "2.10.0", "2.9.9", "not-a-version"}))
	require.Equal(t, "", MaxStrict([]string{"v1.0.0", "1.0", "garbage"}))
	require.Equal(t, "", MaxStrict(nil))
}

func TestSortSemverDesc(t *testing.T) {
	sorted := SortSemverDesc([]string{"1.0.0", "2.0.0-rc.1", "2.0.0", "garbage", "v1.5.0"})
	require.Equal(t, []string{"2.0.0", "2.0.0-rc.1", "v1.5.0", "1.0.0"}, sorted)
}

func TestSortSemverDesc_prereleasePrecedence(t *testing.T) {
	sorted := SortSemverDesc([]string{"1.0.0-alpha", "1.0.0-alpha.1", "1.0.0-beta", "1.0.0"})
	require.Equal(t, []string{"1.0.0", "1.0.0-beta", "1.0.0-alpha.1", "1.0.0-alpha"}, sorted)
}
