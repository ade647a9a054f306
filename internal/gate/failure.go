// Package gate interprets promotion policy failures and renders actionable
// job summaries for CI, including remediation guidance per violated policy.
package gate

import (
	"encoding/json"
	"regexp"
	"strings"

	"bookverse/pkg/serrors"
)

// GateResult is the outcome of a single gate evaluation.
type GateResult struct {
	Decision    string `json:"decision"`
	EvalID      string `json:"eval_id"`
	Stage       string `json:"stage"`
	Explanation string `json:"explanation"`
}

// Evaluations groups the exit and entry gate outcomes of one promotion.
type Evaluations struct {
	ExitGate  *GateResult `json:"exit_gate"`
	EntryGate *GateResult `json:"entry_gate"`
}

// Failure is the promotion failure payload emitted by the platform when a
// version is rejected at a lifecycle gate.
type Failure struct {
	ApplicationKey string      `json:"application_key"`
	Version        string      `json:"version"`
	SourceStage    string      `json:"source_stage"`
	TargetStage    string      `json:"target_stage"`
	PromotionType  string      `json:"promotion_type"`
	Message        string      `json:"message"`
	Evaluations    Evaluations `json:"evaluations"`
}

// ParseFailure decodes a promotion failure payload.
func ParseFailure(data []byte) (*Failure, error) {
	var f Failure
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid failure payload: %s", err)
	}

	return &f, nil
}

// explanations name violated policies in square brackets, e.g.
// "violated policies: [Policy A], [Policy B]".
var policyNameRe = regexp.MustCompile(`\[([^\]]+)\]`)

// FailedPolicies extracts the policy names from a failed entry gate
// explanation. Returns nil when the entry gate passed or names no policies.
func (f *Failure) FailedPolicies() []string {
	entry := f.Evaluations.EntryGate
	if entry == nil || entry.Decision != "fail" {
		return nil
	}

	_, after, found := strings.Cut(entry.Explanation, "violated policies:")
	if !found {
		return nil
	}

	var policies []string
	for _, m := range policyNameRe.FindAllStringSubmatch(after, -1) {
		policies = append(policies, m[1])
	}

	return policies
}
