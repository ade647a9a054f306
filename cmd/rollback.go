package main

import (
	"fmt"

	"bookverse/internal/config"
	"bookverse/internal/release"

	"github.com/spf13/cobra"
)

func rollbackCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Quarantines a released version and reassigns the latest tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _ := cmd.Flags().GetString("app")
			version, _ := cmd.Flags().GetString("version")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			rollbacker := release.NewRollbacker(getPlatform(cfg), dryRun)
			result, err := rollbacker.Rollback(cmd.Context(), app, version)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}

			return printJSON(result)
		},
	}

	cmd.Flags().String("app", "", "Application key, e.g. bookverse-web")
	cmd.Flags().String("version", "", "Version to roll back")
	cmd.Flags().Bool("dry-run", false, "Report what would change without patching anything")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("version")

	return cmd
}
