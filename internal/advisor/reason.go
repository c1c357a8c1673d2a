package advisor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const reasonPrompt = `You are an expert data engineer agent. Analyze the following context and answer the question.

Context:
%s

Question: %s

Provide a concise, actionable response based on best practices.`

// Reason asks the advisor to analyze a situation and answer a question,
// using the standard data-engineer prompt shape. A nil client returns an
// empty response without error.
func Reason(ctx context.Context, c Client, situation, question string) (string, error) {
	if c == nil {
		return "", nil
	}
	return c.Generate(ctx, fmt.Sprintf(reasonPrompt, situation, question))
}

// claimedScorePattern matches score claims like "85/100", "85%" or
// "85 score" in lowercased assessment text.
var claimedScorePattern = regexp.MustCompile(`(\d{1,3})\s*(?:/100|%|score)`)

// ParseClaimedScore extracts the first score the advisor claims in its
// assessment text. Used for comparison logging only; the rule-based score
// always wins.
func ParseClaimedScore(text string) (int, bool) {
	m := claimedScorePattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
