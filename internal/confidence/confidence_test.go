package confidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func answerOfWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestScore(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name       string
		answer     string
		hasContext bool
		want       float64
	}{
		{
			name:       "moderate length with context",
			answer:     answerOfWords(50),
			hasContext: true,
			want:       1.0, // 0.7 + 0.1 + 0.2
		},
		{
			name:   "moderate length no context",
			answer: answerOfWords(50),
			want:   0.8, // 0.7 + 0.1
		},
		{
			name:   "borderline length",
			answer: answerOfWords(7),
			want:   0.75, // 0.7 + 0.05
		},
		{
			name:   "too short",
			answer: "yes",
			want:   0.6, // 0.7 - 0.1
		},
		{
			name:   "too long",
			answer: answerOfWords(400),
			want:   0.6, // 0.7 - 0.1
		},
		{
			name:   "single hedge",
			answer: "I think the deadline is Friday but check the portal " + answerOfWords(10),
			want:   0.75, // 0.7 + 0.1 - 0.05
		},
		{
			name:   "multiple hedges",
			answer: "I'm not sure, it might be ready, perhaps check back later " + answerOfWords(10),
			want:   0.65, // 0.7 + 0.1 - 3*0.05
		},
		{
			name:       "specificity markers",
			answer:     "First, open settings. Second, follow these steps from the documentation. " + answerOfWords(10),
			hasContext: true,
			want:       1.0, // 0.7 + 0.1 + 0.2 + 0.08, clamped
		},
		{
			name:   "specificity capped",
			answer: "Step 1: first and second, follow these, here's how, according to based on documentation " + answerOfWords(10),
			want:   0.9, // 0.7 + 0.1 + min(0.1, 8*0.02)
		},
		{
			name:   "empty answer",
			answer: "",
			want:   0.6, // 0.7 - 0.1
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.Score(tt.answer, tt.hasContext, false), 1e-9)
		})
	}
}

func TestScore_FallbackBase(t *testing.T) {
	scorer := NewScorer()

	// Rule-based answers start from a much lower base than generated ones.
	assert.InDelta(t, 0.25, scorer.Score(answerOfWords(50), false, true), 1e-9)  // 0.15 + 0.1
	assert.InDelta(t, 0.45, scorer.Score(answerOfWords(50), true, true), 1e-9)   // 0.15 + 0.1 + 0.2
	assert.InDelta(t, 0.05, scorer.Score("sorry", false, true), 1e-9)            // 0.15 - 0.1
	assert.Less(t, scorer.Score(answerOfWords(50), true, true), scorer.Score(answerOfWords(50), true, false))
}

func TestScore_AlwaysInRange(t *testing.T) {
	scorer := NewScorer()

	answers := []string{
		"",
		"no",
		answerOfWords(500),
		"I'm not sure, I don't know, might be, could be, perhaps, I think, probably, I'm not certain",
		answerOfWords(100) + " first second step 1 documentation according to based on",
	}
	for _, answer := range answers {
		for _, hasContext := range []bool{true, false} {
			score := scorer.Score(answer, hasContext, false)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestScore_RoundsToTwoDecimals(t *testing.T) {
	scorer := NewScorer()
	score := scorer.Score(answerOfWords(50), true, false)
	assert.Equal(t, score, Clamp(score))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.3))
	assert.Equal(t, 1.0, Clamp(1.7))
	assert.Equal(t, 0.67, Clamp(0.666666))
	assert.Equal(t, 0.5, Clamp(0.5))
}
