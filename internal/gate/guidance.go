package gate

// Guidance is the remediation advice attached to one policy.
type Guidance struct {
	Description      string
	RequiredEvidence string
	Actions          []string
	DocsLink         string
}

// StageInfo describes a lifecycle stage for the summary's stage section.
type StageInfo struct {
	Description       string
	TypicalEvidence   []string
	EntryRequirements []string
	ExitRequirements  []string
}

var policyGuidance = map[string]Guidance{
	"BookVerse QA Entry Gate - Evidence Required": {
		Description:      "Requires evidence of successful DEV stage completion",
		RequiredEvidence: "DEV.Exit AppTrust Gate Certification",
		Actions: []string{
			"Ensure the application completed all DEV stage requirements",
			"Verify DEV stage exit gate evaluation passed",
			"Check AppTrust for DEV.Exit certification evidence",
			"If missing, complete DEV stage testing and validation",
		},
		DocsLink: "https://docs.bookverse.com/quality-gates/dev-completion",
	},
	"BookVerse QA Entry Gate - SBOM Required": {
		Description:      "Requires Software Bill of Materials (SBOM) evidence",
		RequiredEvidence: "CycloneDX SBOM from build pipeline",
		Actions: []string{
			"Check if SBOM was generated during the build process",
			"Verify build pipeline includes SBOM generation step",
			"Ensure SBOM is properly uploaded to AppTrust",
			"Re-run build if SBOM generation failed",
		},
		DocsLink: "https://docs.bookverse.com/security/sbom-requirements",
	},
	"BookVerse QA Entry - Custom Integration Tests": {
		Description:      "Requires custom integration test evidence",
		RequiredEvidence: "Integration test results and coverage",
		Actions: []string{
			"Run the complete integration test suite",
			"Ensure all integration tests pass",
			"Upload test results to evidence collection system",
			"Verify test coverage meets minimum requirements",
		},
		DocsLink: "https://docs.bookverse.com/testing/integration-tests",
	},
	"BookVerse QA Entry - STAGING Check (Demo Failure)": {
		Description:      "Demo policy - checks for inappropriate STAGING evidence",
		RequiredEvidence: "STAGING evidence should NOT exist at QA entry",
		Actions: []string{
			"This is a demo policy designed to fail",
			"No action needed - this demonstrates policy evaluation",
			"In real scenarios, this would check staging prerequisites",
			"Contact platform team if you see this in production",
		},
		DocsLink: "https://docs.bookverse.com/demo/policy-scenarios",
	},
	"BookVerse QA Entry - Prod Readiness (Demo Failure)": {
		Description:      "Demo policy - checks for production readiness evidence",
		RequiredEvidence: "Production readiness evidence (not expected at QA)",
		Actions: []string{
			"This is a demo policy designed to fail",
			"No action needed - this demonstrates policy evaluation",
			"Production readiness is evaluated later in the lifecycle",
			"Contact platform team if you see this in production",
		},
		DocsLink: "https://docs.bookverse.com/demo/policy-scenarios",
	},
}

var genericGuidance = Guidance{
	Description: "Policy violation detected",
	Actions: []string{
		"Review the policy requirements in AppTrust console",
		"Check what evidence is required for this policy",
		"Ensure all required evidence is properly uploaded",
		"Contact the platform team if you need assistance",
	},
	DocsLink: "https://docs.bookverse.com/policies/overview",
}

// GuidanceFor returns the remediation guidance for a policy, falling back to
// generic advice for policies without a dedicated entry.
func GuidanceFor(policy string) Guidance {
	if g, ok := policyGuidance[policy]; ok {
		return g
	}

	return genericGuidance
}

// stageGuidance builds the per-stage descriptions. Stage names carry the
// project key prefix except PROD, which is global.
func stageGuidance(projectKey string) map[string]StageInfo {
	return map[string]StageInfo{
		projectKey + "-DEV": {
			Description:      "Development stage for initial testing and validation",
			TypicalEvidence:  []string{"Build artifacts", "Unit tests", "Security scans"},
			ExitRequirements: []string{"All tests pass", "Security scan clean", "Code review complete"},
		},
		projectKey + "-QA": {
			Description:       "Quality assurance stage for comprehensive testing",
			TypicalEvidence:   []string{"Integration tests", "Performance tests", "SBOM"},
			EntryRequirements: []string{"DEV stage complete", "Evidence collection", "Policy compliance"},
		},
		projectKey + "-STAGING": {
			Description:       "Staging environment for final validation",
			TypicalEvidence:   []string{"E2E tests", "Load tests", "UAT results"},
			EntryRequirements: []string{"QA stage complete", "Full test coverage", "Performance validation"},
		},
		"PROD": {
			Description:       "Production stage for live deployment",
			TypicalEvidence:   []string{"Production readiness", "Deployment checklist", "Monitoring setup"},
			EntryRequirements: []string{"All previous stages complete", "Production readiness", "Approval workflows"},
		},
	}
}
