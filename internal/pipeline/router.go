// Package pipeline contains the orchestration core: the routing decision,
// the retry executor wrapping each stage, and the per-file orchestrator.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dbsmedya/gopipeline/internal/advisor"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/quality"
)

// Decision is the terminal routing classification for a file.
type Decision string

// Routing decisions.
const (
	DecisionAbort   Decision = "ABORT"
	DecisionClean   Decision = "CLEAN"
	DecisionProceed Decision = "PROCEED"
)

// Routing thresholds. Below abortBelow the file is rejected; above
// cleanUpper it skips cleaning entirely; the band between gets cleaned.
const (
	abortBelow = 60
	cleanUpper = 80
)

// decisionWindow is how much of the advisor's response is scanned for an
// explicit decision token.
const decisionWindow = 500

const routingPrompt = `Quality Score: %d/100
Issues Detected: %s

Standard Rules:
- Score < 60: ABORT pipeline
- Score 60-80: CLEAN data and proceed
- Score > 80: PROCEED directly (skip cleaning)

Your task: Analyze this specific case and decide: ABORT, CLEAN, or PROCEED.
Consider the types of issues, their severity, and business impact.

IMPORTANT: Start your response with "Decision: [ABORT|CLEAN|PROCEED]" on the first line.`

// Router maps a quality score and issue list to a routing decision.
// With a nil advisor client it applies the fixed thresholds directly;
// with one it may consult the advisor, whose answer can diverge from the
// thresholds but whose absence or garbage always degrades to them.
type Router struct {
	advisor advisor.Client
	logger  *logger.Logger
}

// NewRouter creates a router. A nil client disables advisory routing.
func NewRouter(client advisor.Client, log *logger.Logger) *Router {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Router{
		advisor: client,
		logger:  log,
	}
}

// Decide returns the routing decision for a scored quality pass.
func (r *Router) Decide(ctx context.Context, score int, issues []quality.Issue) Decision {
	// Unambiguous cases never need the advisor
	if r.advisor == nil || (score == 100 && len(issues) == 0) {
		decision := thresholdDecision(score)
		r.logThreshold("Rule-based decision", decision, score)
		return decision
	}

	issuesJSON, _ := json.MarshalIndent(issues, "", "  ")
	response, err := r.advisor.Generate(ctx, fmt.Sprintf(routingPrompt, score, issuesJSON))
	if err != nil {
		r.logger.Warnf("Advisor routing failed, using thresholds: %v", err)
		decision := thresholdDecision(score)
		r.logThreshold("Fallback decision", decision, score)
		return decision
	}

	r.logger.Infof("Advisor routing response: %.200s", response)

	if decision, ok := parseDecision(response); ok {
		return decision
	}

	// No recognized token is never a silent failure
	decision := thresholdDecision(score)
	r.logThreshold("Fallback decision (no token in advisor response)", decision, score)
	return decision
}

// parseDecision scans the leading window of a response for an explicit
// decision marker. PROCEED is checked first so that a response discussing
// several options resolves the way the original marker format intends.
func parseDecision(response string) (Decision, bool) {
	window := response
	if len(window) > decisionWindow {
		window = window[:decisionWindow]
	}
	window = strings.ToUpper(window)

	switch {
	case strings.Contains(window, "DECISION: PROCEED"):
		return DecisionProceed, true
	case strings.Contains(window, "DECISION: CLEAN"):
		return DecisionClean, true
	case strings.Contains(window, "DECISION: ABORT"):
		return DecisionAbort, true
	}
	return "", false
}

// thresholdDecision applies the fixed score thresholds.
func thresholdDecision(score int) Decision {
	switch {
	case score < abortBelow:
		return DecisionAbort
	case score <= cleanUpper:
		return DecisionClean
	default:
		return DecisionProceed
	}
}

func (r *Router) logThreshold(prefix string, decision Decision, score int) {
	switch decision {
	case DecisionAbort:
		r.logger.Infof("%s: ABORT (score %d < %d)", prefix, score, abortBelow)
	case DecisionClean:
		r.logger.Infof("%s: CLEAN (score %d in %d-%d)", prefix, score, abortBelow, cleanUpper)
	default:
		r.logger.Infof("%s: PROCEED (score %d > %d)", prefix, score, cleanUpper)
	}
}
