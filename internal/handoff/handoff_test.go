package handoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	policy := NewPolicy(0.6, 0.8)

	tests := []struct {
		name         string
		question     string
		confidence   float64
		contextCount int
		wantRequired bool
		wantReason   string
	}{
		{
			name:         "confident answer with context",
			question:     "When is the fee deadline?",
			confidence:   0.9,
			contextCount: 3,
		},
		{
			name:         "low confidence",
			question:     "When is the fee deadline?",
			confidence:   0.45,
			contextCount: 3,
			wantRequired: true,
			wantReason:   "Low confidence score: 0.45",
		},
		{
			name:         "no context",
			question:     "When is the fee deadline?",
			confidence:   0.9,
			contextCount: 0,
			wantRequired: true,
			wantReason:   "No relevant information found in knowledge base",
		},
		{
			name:         "explicit escalation request",
			question:     "I want to speak to human about this",
			confidence:   0.95,
			contextCount: 2,
			wantRequired: true,
			wantReason:   "User requested human assistance",
		},
		{
			name:         "refund request",
			question:     "How do I get a refund for my course fee?",
			confidence:   0.95,
			contextCount: 2,
			wantRequired: true,
			wantReason:   "User requested human assistance",
		},
		{
			name:         "complex issue below complexity threshold",
			question:     "The portal doesn't work and I get error code 500",
			confidence:   0.75,
			contextCount: 2,
			wantRequired: true,
			wantReason:   "Complex technical issue detected",
		},
		{
			name:         "complex issue but high confidence",
			question:     "The portal doesn't work and I get error code 500",
			confidence:   0.85,
			contextCount: 2,
		},
		{
			name:         "single complexity indicator is not enough",
			question:     "The portal doesn't work today",
			confidence:   0.75,
			contextCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := policy.Evaluate(tt.question, tt.confidence, tt.contextCount)
			assert.Equal(t, tt.wantRequired, decision.Required)
			assert.Equal(t, tt.wantReason, decision.Reason)
		})
	}
}

// Low confidence outranks everything else, and missing context outranks an
// escalation keyword, so the reported reason is stable.
func TestEvaluate_RuleOrder(t *testing.T) {
	policy := NewPolicy(0.6, 0.8)

	decision := policy.Evaluate("urgent: speak to human now", 0.2, 0)
	assert.True(t, decision.Required)
	assert.Equal(t, "Low confidence score: 0.20", decision.Reason)

	decision = policy.Evaluate("urgent: speak to human now", 0.9, 0)
	assert.True(t, decision.Required)
	assert.Equal(t, "No relevant information found in knowledge base", decision.Reason)
}

func TestNewPolicy_InvalidThresholdsFallBack(t *testing.T) {
	policy := NewPolicy(-1, 2)

	// The defaults kick in: 0.59 is below 0.6.
	decision := policy.Evaluate("question", 0.59, 1)
	assert.True(t, decision.Required)

	decision = policy.Evaluate("question", 0.61, 1)
	assert.False(t, decision.Required)
}
