package gate

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Summarizer renders promotion failures and pipeline runs into Markdown job
// summaries.
type Summarizer struct {
	stages     map[string]StageInfo
	stageOrder []string
	now        func() time.Time
}

// NewSummarizer constructs a Summarizer for the given project.
func NewSummarizer(projectKey string) *Summarizer {
	return &Summarizer{
		stages:     stageGuidance(projectKey),
		stageOrder: stageOrder(projectKey),
		now:        time.Now,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}

	return s
}

func gateLine(b *strings.Builder, label string, g *GateResult, defaultStage string) {
	if g == nil {
		return
	}

	decision := orUnknown(g.Decision)
	evalID := g.EvalID
	if evalID == "" {
		evalID = "N/A"
	}
	stage := g.Stage
	if stage == "" {
		stage = defaultStage
	}
	emoji := "❌"
	if decision == "pass" {
		emoji = "✅"
	}
	fmt.Fprintf(b, "- **%s %s Gate:** %s %s (ID: %s)\n", stage, label, emoji, strings.ToUpper(decision), evalID)
}

func (s *Summarizer) writeGuidance(b *strings.Builder, policies []string) {
	for _, policy := range policies {
		g := GuidanceFor(policy)

		fmt.Fprintf(b, "\n### 🚨 %s\n\n", policy)
		fmt.Fprintf(b, "**Issue:** %s\n\n", g.Description)
		if g.RequiredEvidence != "" {
			fmt.Fprintf(b, "**Required Evidence:** %s\n\n", g.RequiredEvidence)
		}
		b.WriteString("**Actions to Fix:**\n")
		for i, action := range g.Actions {
			fmt.Fprintf(b, "%d. %s\n", i+1, action)
		}
		fmt.Fprintf(b, "\n📖 **Documentation:** %s\n", g.DocsLink)
	}
}

func (s *Summarizer) writeStageInfo(b *strings.Builder, sourceStage, targetStage string) {
	b.WriteString("\n## 📊 Stage Transition Information\n\n")

	fmt.Fprintf(b, "### Source Stage: %s\n", sourceStage)
	if info, ok := s.stages[sourceStage]; ok {
		fmt.Fprintf(b, "- **Purpose:** %s\n", info.Description)
		fmt.Fprintf(b, "- **Typical Evidence:** %s\n", strings.Join(info.TypicalEvidence, ", "))
		if len(info.ExitRequirements) > 0 {
			fmt.Fprintf(b, "- **Exit Requirements:** %s\n", strings.Join(info.ExitRequirements, ", "))
		}
	}

	fmt.Fprintf(b, "\n### Target Stage: %s\n", targetStage)
	if info, ok := s.stages[targetStage]; ok {
		fmt.Fprintf(b, "- **Purpose:** %s\n", info.Description)
		if len(info.EntryRequirements) > 0 {
			fmt.Fprintf(b, "- **Entry Requirements:** %s\n", strings.Join(info.EntryRequirements, ", "))
		}
	}
}

// Render produces the full Markdown summary for a promotion failure.
func (s *Summarizer) Render(f *Failure) string {
	appKey := orUnknown(f.ApplicationKey)
	version := orUnknown(f.Version)
	sourceStage := orUnknown(f.SourceStage)
	targetStage := orUnknown(f.TargetStage)
	promotionType := f.PromotionType
	if promotionType == "" {
		promotionType = "move"
	}
	message := f.Message
	if message == "" {
		message = "Promotion failed due to policy violations"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# 🚨 Promotion Failed: %s v%s\n\n", appKey, version)
	b.WriteString("## 📋 Promotion Summary\n\n")
	fmt.Fprintf(&b, "- **Application:** %s\n", appKey)
	fmt.Fprintf(&b, "- **Version:** %s\n", version)
	fmt.Fprintf(&b, "- **Source Stage:** %s\n", sourceStage)
	fmt.Fprintf(&b, "- **Target Stage:** %s\n", targetStage)
	fmt.Fprintf(&b, "- **Promotion Type:** %s\n", promotionType)
	b.WriteString("- **Status:** ❌ **FAILED**\n")
	fmt.Fprintf(&b, "- **Timestamp:** %s\n", s.now().UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "\n## ❌ Failure Details\n\n%s\n\n**Evaluation Results:**\n", message)

	gateLine(&b, "Exit", f.Evaluations.ExitGate, sourceStage)
	gateLine(&b, "Entry", f.Evaluations.EntryGate, targetStage)
	if entry := f.Evaluations.EntryGate; entry != nil && entry.Explanation != "" {
		fmt.Fprintf(&b, "- **Failure Reason:** %s\n", entry.Explanation)
	}

	if policies := f.FailedPolicies(); len(policies) > 0 {
		fmt.Fprintf(&b, "\n## 🔧 Required Actions\n\n"+
			"The following %d policies failed and must be addressed before promotion can succeed:\n",
			len(policies))
		s.writeGuidance(&b, policies)
	}

	s.writeStageInfo(&b, sourceStage, targetStage)

	b.WriteString(`
## 🎯 Next Steps

1. **Review Failed Policies:** Address each failed policy listed above
2. **Collect Evidence:** Ensure all required evidence is properly generated and uploaded
3. **Verify Compliance:** Check AppTrust console for evidence validation
4. **Retry Promotion:** Once all issues are resolved, retry the promotion

## 🔗 Useful Links

- **AppTrust Console:** Check evidence and policy status
- **Build Pipeline:** Re-run builds if evidence generation failed
- **Platform Documentation:** https://docs.bookverse.com/
- **Support:** Contact #platform-support for assistance

---

**⚠️ Important:** This is an application-level failure that is part of the normal quality gate process. The system is working correctly by preventing promotion until all requirements are met.
`)

	return b.String()
}

// WriteGitHubSummary appends the summary to the file named by the
// GITHUB_STEP_SUMMARY environment variable. Returns false without error when
// the variable is unset, which is the case outside CI.
func WriteGitHubSummary(summary string) (bool, error) {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("could not open step summary: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("\n" + summary + "\n"); err != nil {
		return false, fmt.Errorf("could not write step summary: %w", err)
	}

	return true, nil
}
