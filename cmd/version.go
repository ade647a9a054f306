package main

import (
	"fmt"
	"os"
	"strings"

	"bookverse/internal/config"
	"bookverse/internal/release"
	"bookverse/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// envVarName turns a package name into an environment variable suffix,
// e.g. "web-assets" becomes "WEB_ASSETS".
func envVarName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			return r
		default:
			return '_'
		}
	}, name)

	return mapped
}

// exportPlanToGitHubEnv appends the plan's identifiers to the file named by
// GITHUB_ENV so later workflow steps can consume them.
func exportPlanToGitHubEnv(plan release.Plan) error {
	path := os.Getenv("GITHUB_ENV")
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open GITHUB_ENV file: %w", err)
	}
	defer f.Close()

	lines := []string{
		"APP_VERSION=" + plan.AppVersion,
		"BUILD_NUMBER=" + plan.BuildNumber,
		"IMAGE_TAG=" + plan.ImageTag(),
	}
	for name, tag := range plan.PackageTags {
		lines = append(lines, "DOCKER_TAG_"+envVarName(name)+"="+tag)
	}

	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return fmt.Errorf("could not write GITHUB_ENV file: %w", err)
	}

	return nil
}

func versionPlanCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Computes the next application version, build number and package tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, _ := cmd.Flags().GetString("app")
			packages, _ := cmd.Flags().GetStringSlice("packages")
			mapPath, _ := cmd.Flags().GetString("map")
			githubEnv, _ := cmd.Flags().GetBool("github-env")

			versionMap, err := release.LoadVersionMap(mapPath)
			if err != nil {
				return fmt.Errorf("could not load version map: %w", err)
			}

			planner := release.NewPlanner(getPlatform(cfg), versionMap, cfg.JFrog.ProjectKey)
			plan, err := planner.Plan(ctx, app, packages)
			if err != nil {
				return fmt.Errorf("could not compute version plan: %w", err)
			}

			if githubEnv {
				if err := exportPlanToGitHubEnv(plan); err != nil {
					logger.Warn(ctx, "could not export plan", zap.Error(err))
				}
			}

			return printJSON(plan)
		},
	}

	cmd.Flags().String("app", "", "Application key, e.g. bookverse-web")
	cmd.Flags().StringSlice("packages", nil, "Package names to compute tags for")
	cmd.Flags().String("map", "config/version-map.yaml", "Version map file path")
	cmd.Flags().Bool("github-env", false, "Export the plan to GITHUB_ENV when running in CI")
	_ = cmd.MarkFlagRequired("app")

	return cmd
}

func versionSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fills in missing version seeds in the version map",
		RunE: func(cmd *cobra.Command, args []string) error {
			mapPath, _ := cmd.Flags().GetString("map")

			versionMap, err := release.LoadVersionMap(mapPath)
			if err != nil {
				return fmt.Errorf("could not load version map: %w", err)
			}

			versionMap.EnsureSeeds()
			if err := release.WriteVersionMap(mapPath, versionMap); err != nil {
				return fmt.Errorf("could not write version map: %w", err)
			}

			return printJSON(versionMap)
		},
	}

	cmd.Flags().String("map", "config/version-map.yaml", "Version map file path")

	return cmd
}

func versionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Version planning against the platform",
	}
	cmd.AddCommand(versionPlanCommand(cfg), versionSeedCommand())

	return cmd
}
