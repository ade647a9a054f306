package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bookverse/internal/config"
	"bookverse/pkg/github"
	"bookverse/pkg/github/ghapi"

	"github.com/spf13/cobra"
)

func dispatchCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Sends a repository_dispatch event to the configured repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			eventType, _ := cmd.Flags().GetString("event-type")
			rawPayload, _ := cmd.Flags().GetString("payload")
			validate, _ := cmd.Flags().GetBool("validate")

			var clientPayload map[string]any
			if rawPayload != "" {
				if err := json.Unmarshal([]byte(rawPayload), &clientPayload); err != nil {
					return fmt.Errorf("invalid payload: %w", err)
				}
			}

			dispatcher := ghapi.New(&http.Client{Timeout: cfg.JFrog.Timeout}, cfg.GitHub.Token)
			if err := dispatcher.Dispatch(cmd.Context(), github.Dispatch{
				Owner:         cfg.GitHub.Owner,
				Repo:          cfg.GitHub.Repo,
				EventType:     eventType,
				ClientPayload: clientPayload,
				DryRun:        validate,
			}); err != nil {
				return fmt.Errorf("dispatch failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "dispatched")

			return nil
		},
	}

	cmd.Flags().String("event-type", "", "repository_dispatch event type")
	cmd.Flags().String("payload", "", "client_payload as a JSON object")
	cmd.Flags().Bool("validate", false, "Mark the payload as a dry run so workflows only verify the wiring")
	_ = cmd.MarkFlagRequired("event-type")

	return cmd
}
