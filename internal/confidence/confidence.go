// Package confidence scores generated answers on a [0, 1] scale.
//
// The score is a heuristic blend of answer length, hedging language,
// whether knowledge-base context backed the answer, and markers of
// specific, actionable content. It feeds the handoff policy: low scores
// route the conversation to a human.
package confidence

import (
	"math"
	"strings"
)

const (
	// baseScore is the starting confidence before adjustments.
	baseScore = 0.7

	// fallbackBaseScore replaces baseScore when no generation backend
	// produced the answer and no extractor claimed it either.
	fallbackBaseScore = 0.15

	// contextBonus applies when retrieved context backed the answer.
	contextBonus = 0.2

	// uncertaintyPenalty applies per hedging phrase found in the answer.
	uncertaintyPenalty = 0.05

	// specificityBonus applies per specificity marker, capped below.
	specificityBonus    = 0.02
	specificityBonusCap = 0.1

	// DefaultScore is the conservative fallback when an answer cannot be
	// scored.
	DefaultScore = 0.5
)

// uncertaintyPhrases are hedges that lower confidence.
var uncertaintyPhrases = []string{
	"i'm not sure", "i don't know", "might be", "could be",
	"perhaps", "i think", "probably", "i'm not certain",
}

// specificityMarkers signal concrete, actionable answers.
var specificityMarkers = []string{
	"step 1", "first", "second", "follow these", "here's how",
	"documentation", "according to", "based on",
}

// Scorer computes answer confidence.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score rates an answer in [0, 1], rounded to two decimals.
//
// Answers of moderate length (10-200 words) earn the full length bonus,
// 5-300 words a reduced one, anything else a penalty. Each hedging phrase
// subtracts a fixed penalty; each specificity marker adds a small bonus up
// to a cap. Context-backed answers get a flat bonus. usedFallback marks
// answers produced without a generation backend; those start from a much
// lower base.
func (s *Scorer) Score(answer string, hasContext, usedFallback bool) float64 {
	score := baseScore
	if usedFallback {
		score = fallbackBaseScore
	}

	words := len(strings.Fields(answer))
	switch {
	case words >= 10 && words <= 200:
		score += 0.1
	case words >= 5 && words <= 300:
		score += 0.05
	default:
		score -= 0.1
	}

	lower := strings.ToLower(answer)
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lower, phrase) {
			score -= uncertaintyPenalty
		}
	}

	if hasContext {
		score += contextBonus
	}

	var specificity float64
	for _, marker := range specificityMarkers {
		if strings.Contains(lower, marker) {
			specificity += specificityBonus
		}
	}
	if specificity > specificityBonusCap {
		specificity = specificityBonusCap
	}
	score += specificity

	return Clamp(score)
}

// Clamp bounds a score to [0, 1] and rounds to two decimals.
func Clamp(score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*100) / 100
}
