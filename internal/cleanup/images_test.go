package cleanup

import (
	"context"
	"testing"

	"bookverse/pkg/platform"

	"github.com/stretchr/testify/require"
)

// fakeRegistry implements platform.Registry with in-memory tag fixtures keyed
// "repoKey/image".
type fakeRegistry struct {
	tags    map[string][]string
	deleted []string
}

func (f *fakeRegistry) ListDockerTags(_ context.Context, repoKey, image string) ([]string, error) {
	return f.tags[repoKey+"/"+image], nil
}

func (f *fakeRegistry) DeleteDockerImage(_ context.Context, repoKey, image, tag string) error {
	f.deleted = append(f.deleted, repoKey+"/"+image+":"+tag)

	return nil
}

func (f *fakeRegistry) SearchAQL(context.Context, string) ([]platform.AQLItem, error) {
	return nil, nil
}

var _ platform.Registry = (*fakeRegistry)(nil)

func TestFaultyTags(t *testing.T) {
	tags := []string{"1.4.0", "180-1", "latest", "181-3", "2.0.0"}

	require.Equal(t, []string{"180-1", "181-3"}, faultyTags(tags, ""))
	require.Equal(t, []string{"180-1"}, faultyTags(tags, "180-1"))
	// a SemVer target is never faulty
	require.Empty(t, faultyTags(tags, "1.4.0"))
	// a target not present in the repo matches nothing
	require.Empty(t, faultyTags(tags, "999-9"))
}

func TestImagesForService(t *testing.T) {
	require.Equal(t, []string{"web"}, imagesForService("web"))
	require.Equal(t,
		[]string{"checkout", "checkout-worker", "checkout-migrations"},
		imagesForService("checkout"))
}

func TestImageCleaner_Clean(t *testing.T) {
	client := &fakeRegistry{
		tags: map[string][]string{
			"bookverse-web-internal-docker-nonprod-local/web": {"1.4.0", "180-1"},
			"bookverse-web-internal-docker-prod-local/web":    {"1.4.0"},
		},
	}
	c := NewImageCleaner(client, "bookverse", false)

	report, err := c.Clean(context.Background(), []string{"web"}, "")
	require.NoError(t, err)
	require.Len(t, report.Found, 1)
	require.Equal(t, FaultyImage{
		Repository: "bookverse-web-internal-docker-nonprod-local",
		Image:      "web",
		Tag:        "180-1",
	}, report.Found[0])
	require.Equal(t, 1, report.Deleted)
	require.Equal(t, []string{"bookverse-web-internal-docker-nonprod-local/web:180-1"}, client.deleted)
}

func TestImageCleaner_Clean_checkoutExtraImages(t *testing.T) {
	client := &fakeRegistry{
		tags: map[string][]string{
			"bookverse-checkout-internal-docker-nonprod-local/checkout":            {"180-1"},
			"bookverse-checkout-internal-docker-nonprod-local/checkout-worker":     {"180-1"},
			"bookverse-checkout-internal-docker-nonprod-local/checkout-migrations": {"2.0.0"},
		},
	}
	c := NewImageCleaner(client, "bookverse", false)

	report, err := c.Clean(context.Background(), []string{"checkout"}, "180-1")
	require.NoError(t, err)
	require.Len(t, report.Found, 2)
	require.Equal(t, 2, report.Deleted)
	require.ElementsMatch(t, []string{
		"bookverse-checkout-internal-docker-nonprod-local/checkout:180-1",
		"bookverse-checkout-internal-docker-nonprod-local/checkout-worker:180-1",
	}, client.deleted)
}

func TestImageCleaner_Clean_dryRun(t *testing.T) {
	client := &fakeRegistry{
		tags: map[string][]string{
			"bookverse-web-internal-docker-nonprod-local/web": {"180-1"},
		},
	}
	c := NewImageCleaner(client, "bookverse", true)

	report, err := c.Clean(context.Background(), []string{"web"}, "")
	require.NoError(t, err)
	require.Len(t, report.Found, 1)
	require.Zero(t, report.Deleted)
	require.Empty(t, client.deleted)
}
