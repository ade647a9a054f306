package gate

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// PipelineJob is one CI job and its reported outcome.
type PipelineJob struct {
	// Key identifies the job, e.g. "build-test-publish".
	Key string
	// Status is the reported outcome ("success", "failed", "warning", ...).
	Status string
}

// PipelineReport carries everything the pipeline summary renders. Optional
// fields degrade to explicit "Not Available" markers rather than silently
// disappearing, so a summary never hides a reporting gap.
type PipelineReport struct {
	Service     string
	AppVersion  string
	BuildName   string
	BuildNumber string
	Commit      string
	Branch      string

	Jobs []PipelineJob

	CurrentStage string
	TargetStage  string
	// PromotionFailed forces the promotion job and the overall status to
	// FAILED even when the workflow reported the job green.
	PromotionFailed bool

	DockerImage string
	DockerTag   string
	// Coverage is the test coverage percentage; nil means not reported.
	Coverage *float64

	EvidenceCollected  bool
	BuildInfoPublished bool
}

// promotionJobKey is the job whose status is overridden when a promotion
// gate blocked the pipeline.
const promotionJobKey = "create-promote"

// unassignedStage is the lifecycle position of a version that was never
// promoted.
const unassignedStage = "Unassigned"

// stageOrder returns the lifecycle stages in promotion order.
func stageOrder(projectKey string) []string {
	return []string{
		unassignedStage,
		projectKey + "-DEV",
		projectKey + "-QA",
		projectKey + "-STAGING",
		"PROD",
	}
}

// titleCase upper-cases the first letter of every word, matching how service
// names are displayed in summary headings.
func titleCase(s string) string {
	prev := ' '
	return strings.Map(func(r rune) rune {
		mapped := r
		if prev == ' ' || prev == '-' || prev == '_' {
			mapped = unicode.ToUpper(r)
		}
		prev = r

		return mapped
	}, s)
}

// jobStatusLine derives the icon and detail text for one job. A promotion
// failure overrides whatever the workflow reported for the promotion job,
// which otherwise shows green even though the version never moved.
func jobStatusLine(job PipelineJob, promotionFailed bool) (string, string) {
	if promotionFailed && job.Key == promotionJobKey {
		return "❌", "FAILED - Promotion blocked by policy violations"
	}

	status := strings.ToLower(job.Status)
	switch {
	case strings.Contains(status, "success") || strings.Contains(status, "completed"):
		return "✅", job.Status
	case strings.Contains(status, "warning"):
		return "⚠️", job.Status
	default:
		return "❌", job.Status
	}
}

// lifecyclePath renders the stage progression with the current position
// marked, completed stages struck through and a blocked target flagged.
func lifecyclePath(stages []string, currentStage, targetStage string, promotionFailed bool) string {
	currentIdx := 0
	for i, stage := range stages {
		if stage == currentStage {
			currentIdx = i

			break
		}
	}

	parts := make([]string, 0, len(stages))
	for i, stage := range stages {
		switch {
		case i < currentIdx:
			parts = append(parts, "~~"+stage+"~~")
		case i == currentIdx:
			parts = append(parts, "**"+stage+"** 📍")
		case stage == targetStage && promotionFailed:
			parts = append(parts, "🚫 "+stage)
		case i == currentIdx+1:
			parts = append(parts, "⏭️ "+stage)
		default:
			parts = append(parts, stage)
		}
	}

	return strings.Join(parts, " → ")
}

// dockerInfo formats the image reference, falling back to the service name
// when only a tag is known.
func dockerInfo(service, image, tag string) string {
	switch {
	case image != "" && tag != "":
		return fmt.Sprintf("`%s:%s`", image, tag)
	case tag != "":
		return fmt.Sprintf("`%s:%s`", service, tag)
	case image != "":
		return fmt.Sprintf("`%s`", image)
	default:
		return "'Not Available' ⚠️"
	}
}

// failedJobs lists the keys of jobs whose status reports a failure.
func failedJobs(jobs []PipelineJob) []string {
	var failed []string
	for _, job := range jobs {
		if strings.Contains(strings.ToLower(job.Status), "failed") {
			failed = append(failed, job.Key)
		}
	}

	return failed
}

// RenderPipeline produces the Markdown pipeline summary for a CI run. Unlike
// the raw workflow annotations it reports the promotion job as failed when a
// gate blocked it, tracks the stage lifecycle position, and never prints an
// image reference it cannot substantiate.
func (s *Summarizer) RenderPipeline(r PipelineReport) string {
	currentStage := r.CurrentStage
	if currentStage == "" {
		currentStage = unassignedStage
	}

	failed := failedJobs(r.Jobs)
	overall := "✅ SUCCESS"
	if len(failed) > 0 || r.PromotionFailed {
		overall = "❌ FAILED"
	}

	commit := r.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# 🚀 CI/CD Pipeline Summary - %s\n\n", titleCase(r.Service))
	b.WriteString("## 📊 Pipeline Overview\n\n")
	fmt.Fprintf(&b, "- **Service:** %s\n", r.Service)
	fmt.Fprintf(&b, "- **Version:** %s\n", orUnknown(r.AppVersion))
	fmt.Fprintf(&b, "- **Build:** %s #%s\n", orUnknown(r.BuildName), orUnknown(r.BuildNumber))
	fmt.Fprintf(&b, "- **Commit:** `%s`\n", orUnknown(commit))
	fmt.Fprintf(&b, "- **Branch:** %s\n", orUnknown(r.Branch))
	fmt.Fprintf(&b, "- **Status:** %s\n", overall)
	fmt.Fprintf(&b, "- **Timestamp:** %s\n", s.now().UTC().Format(time.RFC3339))

	b.WriteString("\n## 🔄 Job Execution Status\n")
	for i, job := range r.Jobs {
		icon, detail := jobStatusLine(job, r.PromotionFailed)
		fmt.Fprintf(&b, "- **Job %d (%s):** %s %s\n", i+1, job.Key, icon, detail)
	}

	fmt.Fprintf(&b, "\n## 🛤️ Stage Lifecycle Path\n\n%s\n\n**Current Stage:** %s\n",
		lifecyclePath(s.stageOrder, currentStage, r.TargetStage, r.PromotionFailed), currentStage)
	if r.TargetStage != "" {
		if r.PromotionFailed {
			fmt.Fprintf(&b, "**Failed Target:** %s (blocked by policies)\n", r.TargetStage)
		} else {
			fmt.Fprintf(&b, "**Target Stage:** %s\n", r.TargetStage)
		}
	}

	coverage := "'Not Available'"
	if r.Coverage != nil {
		coverage = fmt.Sprintf("%g%%", *r.Coverage)
	}
	evidence := "❌ Failed"
	if r.EvidenceCollected {
		evidence = "✅ Completed"
	}
	buildInfo := "❌ Failed"
	if r.BuildInfoPublished {
		buildInfo = "✅ Success"
	}

	b.WriteString("\n## 📦 Artifacts & Quality Metrics\n\n")
	fmt.Fprintf(&b, "- **Test Coverage:** %s\n", coverage)
	b.WriteString("- **Docker Images:**\n")
	fmt.Fprintf(&b, "  - 📦 %s: %s\n", r.Service, dockerInfo(r.Service, r.DockerImage, r.DockerTag))
	fmt.Fprintf(&b, "- **Evidence Collection:** %s\n", evidence)
	fmt.Fprintf(&b, "- **Build Info Publication:** %s\n", buildInfo)

	switch {
	case r.PromotionFailed:
		b.WriteString(`
## 🎯 Immediate Actions Required

1. **Review Policy Failures:** Check the promotion failure details below
2. **Resolve Violations:** Address each failed policy requirement
3. **Retry Promotion:** Re-run promotion workflow once issues are fixed
4. **Verify Evidence:** Ensure all required evidence is properly collected

⚠️ **Important:** The promotion failure is expected behavior - the system is protecting quality gates.
`)
	case len(failed) > 0:
		fmt.Fprintf(&b, `
## 🎯 Next Steps

**Failed Jobs:** %s

1. **Review Logs:** Check failed job logs for specific error details
2. **Fix Issues:** Address the root causes of job failures
3. **Retry Pipeline:** Re-run the workflow once issues are resolved
4. **Contact Support:** Reach out to platform team if assistance is needed
`, strings.Join(failed, ", "))
	default:
		fmt.Fprintf(&b, `
## 🎯 Next Steps

✅ **Pipeline completed successfully!**

1. **Application Version:** %s is ready in %s
2. **Promotion:** Use the Promote workflow to advance to next stage
3. **Monitoring:** Check application health in %s environment
`, orUnknown(r.AppVersion), currentStage, currentStage)
	}

	b.WriteString(`
## 🔗 Resources & Support

- **Build Artifacts:** Available in JFrog Artifactory
- **AppTrust Console:** Monitor application versions and evidence
- **Platform Documentation:** https://docs.bookverse.com/
- **Support:** Contact #platform-support for assistance
`)

	return b.String()
}
