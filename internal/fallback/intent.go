package fallback

import "strings"

// Intent classifies what a question is asking for.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentPerformance
	IntentIdentity
	IntentSubjects
	IntentInstitution
	IntentTemporal
	IntentSummary
	IntentFamily
	IntentIdentifier
)

// String returns the intent name for logs.
func (i Intent) String() string {
	switch i {
	case IntentPerformance:
		return "performance"
	case IntentIdentity:
		return "identity"
	case IntentSubjects:
		return "subjects"
	case IntentInstitution:
		return "institution"
	case IntentTemporal:
		return "temporal"
	case IntentSummary:
		return "summary"
	case IntentFamily:
		return "family"
	case IntentIdentifier:
		return "identifier"
	default:
		return "unknown"
	}
}

// intentRule maps trigger words to an intent. Rules are checked in order
// and the first hit wins, so more specific intents come first.
type intentRule struct {
	intent   Intent
	triggers []string
}

var intentRules = []intentRule{
	{IntentPerformance, []string{"mark", "marks", "grade", "grades", "score", "scores", "cgpa", "gpa", "percentage", "result", "performance"}},
	{IntentIdentity, []string{"name", "student", "who", "person"}},
	{IntentSubjects, []string{"subject", "subjects", "course", "courses", "paper", "papers", "module", "modules"}},
	{IntentInstitution, []string{"university", "college", "institution", "school", "where"}},
	{IntentTemporal, []string{"semester", "year", "when", "date", "time", "examination", "exam"}},
	{IntentSummary, []string{"about", "what", "describe", "summary", "summarize", "tell me"}},
	{IntentFamily, []string{"father", "parent", "family"}},
	{IntentIdentifier, []string{"roll", "enrollment", "id", "number"}},
}

// DetectIntent classifies a question by its trigger words.
func DetectIntent(question string) Intent {
	lower := strings.ToLower(strings.TrimSpace(question))
	for _, rule := range intentRules {
		for _, trigger := range rule.triggers {
			if containsWord(lower, trigger) {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}

// containsWord reports whether the text contains the trigger as a whole
// word (or whole phrase, for multi-word triggers).
func containsWord(text, trigger string) bool {
	if strings.Contains(trigger, " ") {
		return strings.Contains(text, trigger)
	}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if w == trigger {
			return true
		}
	}
	return false
}
