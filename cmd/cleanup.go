package main

import (
	"fmt"

	"bookverse/internal/cleanup"
	"bookverse/internal/config"

	"github.com/spf13/cobra"
)

func cleanupVersionsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Finds application versions referencing a faulty image tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tag, _ := cmd.Flags().GetString("tag")
			apps, _ := cmd.Flags().GetStringSlice("apps")
			purge, _ := cmd.Flags().GetBool("purge")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			scanner := cleanup.NewVersionScanner(getPlatform(cfg), cfg.JFrog.ProjectKey, cleanup.VersionScannerOptions{
				AppWorkers:     cfg.Cleanup.AppWorkers,
				VersionWorkers: cfg.Cleanup.VersionWorkers,
				DryRun:         dryRun,
			})
			faulty, err := scanner.Scan(ctx, apps, tag)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if err := printJSON(faulty); err != nil {
				return err
			}

			if purge {
				deleted, err := scanner.Purge(ctx, faulty)
				if err != nil {
					return fmt.Errorf("purge incomplete: %w", err)
				}

				return printJSON(map[string]int{"deleted": deleted})
			}

			return nil
		},
	}

	cmd.Flags().String("tag", "", "Faulty image tag, e.g. 180-1")
	cmd.Flags().StringSlice("apps", nil, "Application keys to scan (default: all project applications)")
	cmd.Flags().Bool("purge", false, "Delete the versions found")
	cmd.Flags().Bool("dry-run", false, "Report without deleting")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}

func cleanupImagesCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Deletes docker image tags that escaped the SemVer convention",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, _ := cmd.Flags().GetStringSlice("services")
			tag, _ := cmd.Flags().GetString("tag")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			cleaner := cleanup.NewImageCleaner(getPlatform(cfg), cfg.JFrog.ProjectKey, dryRun)
			report, err := cleaner.Clean(cmd.Context(), services, tag)
			if err != nil {
				return fmt.Errorf("image cleanup failed: %w", err)
			}

			return printJSON(report)
		},
	}

	cmd.Flags().StringSlice("services", nil, "Service names whose repositories are scanned")
	cmd.Flags().String("tag", "", "Specific tag to delete (default: all build-number tags)")
	cmd.Flags().Bool("dry-run", false, "Report without deleting")
	_ = cmd.MarkFlagRequired("services")

	return cmd
}

func cleanupProjectCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Tears down the project: identity mappings, roles, then the project itself",
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm, _ := cmd.Flags().GetString("confirm")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			teardown := cleanup.NewTeardown(getPlatform(cfg), cfg.JFrog.ProjectKey, dryRun)
			report, err := teardown.Run(cmd.Context(), confirm)
			if err != nil {
				return fmt.Errorf("teardown failed: %w", err)
			}

			return printJSON(report)
		},
	}

	cmd.Flags().String("confirm", "", fmt.Sprintf("Must be %q to proceed", cleanup.ConfirmToken))
	cmd.Flags().Bool("dry-run", false, "Report without deleting")

	return cmd
}

func cleanupCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Removes faulty artifacts from the platform",
	}
	cmd.AddCommand(
		cleanupVersionsCommand(cfg),
		cleanupImagesCommand(cfg),
		cleanupProjectCommand(cfg),
	)

	return cmd
}
