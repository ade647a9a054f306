package cleanup

import (
	"context"
	"fmt"
	"regexp"

	"bookverse/pkg/logger"
	"bookverse/pkg/platform"

	"go.uber.org/zap"
)

// environments whose internal docker repositories are scanned.
var repoEnvironments = []string{"nonprod", "prod"}

var (
	semverTagRe      = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	buildNumberTagRe = regexp.MustCompile(`^\d+-\d+$`)
)

// FaultyImage identifies one docker image tag marked for deletion.
type FaultyImage struct {
	Repository string
	Image      string
	Tag        string
}

// ImageReport summarizes an image cleanup run.
type ImageReport struct {
	// Found lists the faulty tags discovered.
	Found []FaultyImage
	// Deleted is the number of tags actually removed. Always zero in dry-run.
	Deleted int
}

// ImageCleaner removes docker image tags that escaped the SemVer tagging
// convention, typically raw build-number tags like "180-1".
type ImageCleaner struct {
	client     platform.Registry
	projectKey string
	dryRun     bool
}

// NewImageCleaner constructs an ImageCleaner.
func NewImageCleaner(client platform.Registry, projectKey string, dryRun bool) *ImageCleaner {
	return &ImageCleaner{client: client, projectKey: projectKey, dryRun: dryRun}
}

// imagesForService returns the image names published by a service. Most
// services publish a single image named after themselves; checkout also ships
// worker and migrations images.
func imagesForService(service string) []string {
	images := []string{service}
	if service == "checkout" {
		images = append(images, "checkout-worker", "checkout-migrations")
	}

	return images
}

// faultyTags filters tags down to the ones that should be deleted. With a
// targetTag set, only that exact tag is considered and only when it is not a
// valid SemVer; otherwise every build-number tag qualifies.
func faultyTags(tags []string, targetTag string) []string {
	if targetTag != "" {
		for _, tag := range tags {
			if tag == targetTag && !semverTagRe.MatchString(tag) {
				return []string{tag}
			}
		}

		return nil
	}

	var out []string
	for _, tag := range tags {
		if buildNumberTagRe.MatchString(tag) {
			out = append(out, tag)
		}
	}

	return out
}

// Clean scans the docker repositories of the given services across both
// environments and deletes faulty tags. Individual deletion failures are
// logged and reflected in the report instead of aborting.
func (c *ImageCleaner) Clean(ctx context.Context, services []string, targetTag string) (ImageReport, error) {
	var report ImageReport

	for _, service := range services {
		for _, env := range repoEnvironments {
			repoKey := fmt.Sprintf("%s-%s-internal-docker-%s-local", c.projectKey, service, env)

			for _, image := range imagesForService(service) {
				tags, err := c.client.ListDockerTags(ctx, repoKey, image)
				if err != nil {
					return report, fmt.Errorf("could not list tags of %s/%s: %w", repoKey, image, err)
				}

				for _, tag := range faultyTags(tags, targetTag) {
					report.Found = append(report.Found, FaultyImage{Repository: repoKey, Image: image, Tag: tag})

					if c.dryRun {
						logger.Info(ctx, "dry-run: would delete image",
							zap.String("repository", repoKey),
							zap.String("image", image),
							zap.String("tag", tag))

						continue
					}

					if err := c.client.DeleteDockerImage(ctx, repoKey, image, tag); err != nil {
						logger.Error(ctx, "could not delete image",
							zap.String("repository", repoKey),
							zap.String("image", image),
							zap.String("tag", tag),
							zap.Error(err))

						continue
					}
					report.Deleted++
					logger.Info(ctx, "deleted faulty image",
						zap.String("repository", repoKey),
						zap.String("image", image),
						zap.String("tag", tag))
				}
			}
		}
	}

	return report, nil
}
