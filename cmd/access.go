package main

import (
	"fmt"

	"bookverse/internal/config"
	"bookverse/internal/provision"

	"github.com/spf13/cobra"
)

func oidcCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oidc",
		Short: "Reconciles OIDC identity mappings referencing the project",
	}

	discover := &cobra.Command{
		Use:   "discover",
		Short: "Lists identity mappings referencing the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			reconciler := provision.New(getPlatform(cfg), cfg.JFrog.ProjectKey, false)
			report, err := reconciler.DiscoverMappings(cmd.Context())
			if err != nil {
				return fmt.Errorf("mapping discovery failed: %w", err)
			}

			return printJSON(report)
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Deletes identity mappings referencing the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			reconciler := provision.New(getPlatform(cfg), cfg.JFrog.ProjectKey, dryRun)
			report, err := reconciler.CleanupMappings(cmd.Context())
			if err != nil {
				return fmt.Errorf("mapping cleanup failed: %w", err)
			}

			return printJSON(report)
		},
	}
	cleanupCmd.Flags().Bool("dry-run", false, "Report without deleting")

	cmd.AddCommand(discover, cleanupCmd)

	return cmd
}

func rolesCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Reconciles the project's custom roles",
	}

	discover := &cobra.Command{
		Use:   "discover",
		Short: "Lists the project's roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			reconciler := provision.New(getPlatform(cfg), cfg.JFrog.ProjectKey, false)
			roles, err := reconciler.DiscoverRoles(cmd.Context())
			if err != nil {
				return fmt.Errorf("role discovery failed: %w", err)
			}

			return printJSON(roles)
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Deletes custom roles (built-in roles are skipped)",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			reconciler := provision.New(getPlatform(cfg), cfg.JFrog.ProjectKey, dryRun)
			report, err := reconciler.CleanupRoles(cmd.Context(), prefix)
			if err != nil {
				return fmt.Errorf("role cleanup failed: %w", err)
			}

			return printJSON(report)
		},
	}
	cleanupCmd.Flags().String("prefix", "", "Only delete roles with this name prefix")
	cleanupCmd.Flags().Bool("dry-run", false, "Report without deleting")

	cmd.AddCommand(discover, cleanupCmd)

	return cmd
}
