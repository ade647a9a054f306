package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"bookverse/internal/config"
	"bookverse/internal/gate"
	"bookverse/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func gateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Promotion gate helpers",
	}

	cmd.AddCommand(gateSummarizeCommand(cfg), gatePipelineCommand(cfg))

	return cmd
}

// parseJobStatuses decodes "job1:status1,job2:status2" flag values.
func parseJobStatuses(raw string) []gate.PipelineJob {
	var jobs []gate.PipelineJob
	for _, item := range strings.Split(raw, ",") {
		key, status, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok || key == "" {
			continue
		}
		jobs = append(jobs, gate.PipelineJob{Key: key, Status: strings.TrimSpace(status)})
	}

	return jobs
}

func gatePipelineCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Renders an accurate CI pipeline summary for a workflow run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			service, _ := cmd.Flags().GetString("service")
			appVersion, _ := cmd.Flags().GetString("app-version")
			buildName, _ := cmd.Flags().GetString("build-name")
			buildNumber, _ := cmd.Flags().GetString("build-number")
			commit, _ := cmd.Flags().GetString("commit")
			branch, _ := cmd.Flags().GetString("branch")
			rawJobs, _ := cmd.Flags().GetString("jobs")
			currentStage, _ := cmd.Flags().GetString("current-stage")
			targetStage, _ := cmd.Flags().GetString("target-stage")
			promotionFailed, _ := cmd.Flags().GetBool("promotion-failed")
			dockerImage, _ := cmd.Flags().GetString("docker-image")
			dockerTag, _ := cmd.Flags().GetString("docker-tag")
			evidence, _ := cmd.Flags().GetBool("evidence-collected")
			buildInfo, _ := cmd.Flags().GetBool("build-info-published")
			githubSummary, _ := cmd.Flags().GetBool("github-summary")
			outputFile, _ := cmd.Flags().GetString("output")

			report := gate.PipelineReport{
				Service:            service,
				AppVersion:         appVersion,
				BuildName:          buildName,
				BuildNumber:        buildNumber,
				Commit:             commit,
				Branch:             branch,
				Jobs:               parseJobStatuses(rawJobs),
				CurrentStage:       currentStage,
				TargetStage:        targetStage,
				PromotionFailed:    promotionFailed,
				DockerImage:        dockerImage,
				DockerTag:          dockerTag,
				EvidenceCollected:  evidence,
				BuildInfoPublished: buildInfo,
			}
			if cmd.Flags().Changed("coverage") {
				coverage, _ := cmd.Flags().GetFloat64("coverage")
				report.Coverage = &coverage
			}

			summary := gate.NewSummarizer(cfg.JFrog.ProjectKey).RenderPipeline(report)
			fmt.Fprintln(cmd.OutOrStdout(), summary)

			if githubSummary {
				written, err := gate.WriteGitHubSummary(summary)
				if err != nil {
					logger.Warn(ctx, "could not write step summary", zap.Error(err))
				} else if !written {
					logger.Warn(ctx, "GITHUB_STEP_SUMMARY not set, skipping")
				}
			}

			if outputFile != "" {
				if err := os.WriteFile(outputFile, []byte(summary), 0o644); err != nil {
					return fmt.Errorf("could not write output file: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().String("service", "", "Service name, e.g. inventory")
	cmd.Flags().String("app-version", "", "Application version")
	cmd.Flags().String("build-name", "", "Build name")
	cmd.Flags().String("build-number", "", "Build number")
	cmd.Flags().String("commit", "", "Commit hash")
	cmd.Flags().String("branch", "main", "Git branch")
	cmd.Flags().String("jobs", "", "Job statuses as job1:status1,job2:status2")
	cmd.Flags().String("current-stage", "", "Current lifecycle stage")
	cmd.Flags().String("target-stage", "", "Target stage of the promotion, if any")
	cmd.Flags().Bool("promotion-failed", false, "Mark the promotion as blocked by policies")
	cmd.Flags().String("docker-image", "", "Docker image name")
	cmd.Flags().String("docker-tag", "", "Docker image tag")
	cmd.Flags().Float64("coverage", 0, "Test coverage percentage")
	cmd.Flags().Bool("evidence-collected", true, "Whether evidence collection succeeded")
	cmd.Flags().Bool("build-info-published", true, "Whether build info publication succeeded")
	cmd.Flags().Bool("github-summary", false, "Append the summary to GITHUB_STEP_SUMMARY")
	cmd.Flags().String("output", "", "Also write the summary to this file")
	_ = cmd.MarkFlagRequired("service")

	return cmd
}

func gateSummarizeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Renders a promotion failure payload into a remediation summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			failureFile, _ := cmd.Flags().GetString("failure-file")
			fromStdin, _ := cmd.Flags().GetBool("stdin")
			githubSummary, _ := cmd.Flags().GetBool("github-summary")
			outputFile, _ := cmd.Flags().GetString("output")

			var data []byte
			var err error
			switch {
			case failureFile != "":
				data, err = os.ReadFile(failureFile)
			case fromStdin:
				data, err = io.ReadAll(cmd.InOrStdin())
			default:
				return fmt.Errorf("either --failure-file or --stdin is required")
			}
			if err != nil {
				return fmt.Errorf("could not read failure payload: %w", err)
			}

			failure, err := gate.ParseFailure(data)
			if err != nil {
				return fmt.Errorf("could not parse failure payload: %w", err)
			}

			summary := gate.NewSummarizer(cfg.JFrog.ProjectKey).Render(failure)
			fmt.Fprintln(cmd.OutOrStdout(), summary)

			if githubSummary {
				written, err := gate.WriteGitHubSummary(summary)
				if err != nil {
					logger.Warn(ctx, "could not write step summary", zap.Error(err))
				} else if !written {
					logger.Warn(ctx, "GITHUB_STEP_SUMMARY not set, skipping")
				}
			}

			if outputFile != "" {
				if err := os.WriteFile(outputFile, []byte(summary), 0o644); err != nil {
					return fmt.Errorf("could not write output file: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().String("failure-file", "", "Path to a file containing the promotion failure JSON")
	cmd.Flags().Bool("stdin", false, "Read the promotion failure JSON from stdin")
	cmd.Flags().Bool("github-summary", false, "Append the summary to GITHUB_STEP_SUMMARY")
	cmd.Flags().String("output", "", "Also write the summary to this file")

	return cmd
}
