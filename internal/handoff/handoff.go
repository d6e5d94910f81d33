// Package handoff decides when a conversation should be routed to a human.
//
// Rules are evaluated in a fixed order and the first match wins: low
// confidence, no supporting context, an explicit escalation request, then
// a complexity heuristic. The order matters because the reasons differ in
// urgency and the reported reason drives operator triage.
package handoff

import (
	"fmt"
	"strings"
)

const (
	// DefaultConfidenceThreshold is the score below which answers always
	// hand off.
	DefaultConfidenceThreshold = 0.6

	// DefaultComplexityThreshold is the score below which answers to
	// complex-looking questions hand off.
	DefaultComplexityThreshold = 0.8

	// minComplexityIndicators is how many complexity markers a question
	// needs before the complexity rule applies.
	minComplexityIndicators = 2
)

// escalationKeywords are explicit requests for a human or sensitive topics.
var escalationKeywords = []string{
	"speak to human", "talk to person", "human agent",
	"escalate", "complaint", "cancel", "refund", "billing",
	"legal", "urgent", "emergency",
}

// complexityIndicators hint at a technical problem the bot is unlikely to
// resolve.
var complexityIndicators = []string{
	"doesn't work", "still broken", "tried everything",
	"error code", "system down", "can't access",
}

// Decision is the outcome of a handoff evaluation.
type Decision struct {
	Required bool
	Reason   string
}

// Policy evaluates handoff rules against a finished exchange.
type Policy struct {
	confidenceThreshold float64
	complexityThreshold float64
}

// NewPolicy creates a Policy. Thresholds outside (0, 1] fall back to the
// defaults.
func NewPolicy(confidenceThreshold, complexityThreshold float64) *Policy {
	if confidenceThreshold <= 0 || confidenceThreshold > 1 {
		confidenceThreshold = DefaultConfidenceThreshold
	}
	if complexityThreshold <= 0 || complexityThreshold > 1 {
		complexityThreshold = DefaultComplexityThreshold
	}
	return &Policy{
		confidenceThreshold: confidenceThreshold,
		complexityThreshold: complexityThreshold,
	}
}

// Evaluate applies the rules in order and returns the first matching
// decision.
func (p *Policy) Evaluate(question string, confidence float64, contextCount int) Decision {
	if confidence < p.confidenceThreshold {
		return Decision{Required: true, Reason: fmt.Sprintf("Low confidence score: %.2f", confidence)}
	}

	if contextCount == 0 {
		return Decision{Required: true, Reason: "No relevant information found in knowledge base"}
	}

	lower := strings.ToLower(question)
	for _, keyword := range escalationKeywords {
		if strings.Contains(lower, keyword) {
			return Decision{Required: true, Reason: "User requested human assistance"}
		}
	}

	indicators := 0
	for _, indicator := range complexityIndicators {
		if strings.Contains(lower, indicator) {
			indicators++
		}
	}
	if indicators >= minComplexityIndicators && confidence < p.complexityThreshold {
		return Decision{Required: true, Reason: "Complex technical issue detected"}
	}

	return Decision{}
}
