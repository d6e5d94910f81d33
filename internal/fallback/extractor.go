package fallback

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Result is a rule-based answer with its own confidence.
type Result struct {
	Response    string
	Confidence  float64
	SourcesUsed int
	Intent      Intent
}

// Chunk is the retrieved content an extractor works on.
type Chunk struct {
	Title   string
	Content string
}

// Extractor produces answers from retrieved chunks without a generation
// backend, by scanning the best chunk line by line for the detected intent.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Respond answers the question from the chunk. The intent decides which
// extraction strategy runs; unknown intents fall back to a free-text
// search over the chunk.
func (e *Extractor) Respond(question string, chunk Chunk) Result {
	intent := DetectIntent(question)
	e.logger.Debug("fallback extraction",
		zap.String("intent", intent.String()),
		zap.String("document", chunk.Title),
	)

	var res Result
	switch intent {
	case IntentPerformance:
		res = extractPerformance(chunk)
	case IntentIdentity:
		res = extractIdentity(chunk)
	case IntentSubjects:
		res = extractSubjects(chunk)
	case IntentInstitution:
		res = extractInstitution(chunk)
	case IntentTemporal:
		res = extractTemporal(chunk)
	case IntentSummary:
		res = summarize(chunk)
	case IntentFamily:
		res = extractFamily(chunk)
	case IntentIdentifier:
		res = extractIdentifiers(chunk)
	default:
		res = searchContent(question, chunk)
	}
	res.Intent = intent
	return res
}

// chunkLines returns non-blank trimmed lines.
func chunkLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func lineHasAny(line string, terms []string) bool {
	lower := strings.ToLower(line)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

var performanceTerms = []string{"mark", "grade", "score", "cgpa", "gpa", "%", "point", "total", "obtained"}
var overallTerms = []string{"total", "cgpa", "gpa", "percentage", "overall"}

func extractPerformance(chunk Chunk) Result {
	var overall, perSubject []string
	for _, line := range chunkLines(chunk.Content) {
		if !lineHasAny(line, performanceTerms) || !hasDigit(line) {
			continue
		}
		if lineHasAny(line, overallTerms) {
			overall = append(overall, line)
		} else {
			perSubject = append(perSubject, line)
		}
		if len(overall)+len(perSubject) >= 8 {
			break
		}
	}

	if len(overall)+len(perSubject) == 0 {
		return Result{
			Response:    fmt.Sprintf("**From %s:**\n\nThis is an academic document, but I could not find the exact marks you asked about. Try asking:\n- What subjects are there?\n- Show me the total marks\n- What is the CGPA?", chunk.Title),
			Confidence:  0.9,
			SourcesUsed: 1,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Academic Performance from %s:**\n\n", chunk.Title)
	if len(overall) > 0 {
		b.WriteString("Overall performance:\n")
		for _, line := range overall {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	if len(perSubject) > 0 {
		b.WriteString("Subject-wise details:\n")
		for i, line := range perSubject {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	b.WriteString("\nAsk about specific subjects or grades for more details.")
	return Result{Response: b.String(), Confidence: 0.9, SourcesUsed: 1}
}

var identityTerms = []string{"name", "student", "roll", "enrollment", "father", "mother"}

func extractIdentity(chunk Chunk) Result {
	var lines []string
	for _, line := range chunkLines(chunk.Content) {
		if lineHasAny(line, identityTerms) && strings.Contains(line, ":") && len(line) > 5 {
			lines = append(lines, line)
			if len(lines) == 6 {
				break
			}
		}
	}

	if len(lines) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("Student information from %s", chunk.Title), lines),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}

	// No labeled lines: look for consecutive upper-case words that could
	// be a printed name.
	if names := upperCaseNamePairs(chunk.Content, 3); len(names) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("Names found in %s", chunk.Title), names),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}

	return Result{
		Response:    fmt.Sprintf("**From %s:**\n\nThis looks like a student document but I could not locate a name field.\n\nThe document starts with: %s", chunk.Title, preview(chunk.Content, 200)),
		Confidence:  0.8,
		SourcesUsed: 1,
	}
}

func upperCaseNamePairs(content string, limit int) []string {
	words := strings.Fields(content)
	var names []string
	for i := 0; i+1 < len(words) && len(names) < limit; i++ {
		if isUpperAlpha(words[i]) && isUpperAlpha(words[i+1]) {
			names = append(names, words[i]+" "+words[i+1])
		}
	}
	return names
}

func isUpperAlpha(w string) bool {
	if len(w) <= 2 {
		return false
	}
	for _, r := range w {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

var subjectKeywords = []string{
	"engineering", "mathematics", "physics", "chemistry", "computer", "science",
	"communication", "management", "economics", "statistics", "programming",
	"software", "hardware", "electronics", "mechanical", "civil", "electrical",
}

var courseCodeRe = regexp.MustCompile(`[A-Z]{2,4}\d{2,4}`)

func extractSubjects(chunk Chunk) Result {
	var subjects []string
	for _, line := range chunkLines(chunk.Content) {
		if lineHasAny(line, subjectKeywords) && len(line) > 10 {
			subjects = append(subjects, line)
			if len(subjects) == 6 {
				break
			}
		}
	}

	if len(subjects) > 0 {
		res := listResponse(fmt.Sprintf("Subjects/courses from %s", chunk.Title), subjects)
		res += "\n\nAsk about marks in specific subjects for detailed performance."
		return Result{Response: res, Confidence: 0.8, SourcesUsed: 1}
	}

	if codes := courseCodeRe.FindAllString(chunk.Content, 8); len(codes) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("Course codes found in %s", chunk.Title), codes),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}

	return Result{
		Response:    fmt.Sprintf("**From %s:**\n\nThis appears to be an academic document:\n\n%s\n\nTry asking: What are the marks? or Show me the performance.", chunk.Title, preview(chunk.Content, 300)),
		Confidence:  0.8,
		SourcesUsed: 1,
	}
}

var institutionTerms = []string{"university", "college", "institute", "school", "road", "address", "www"}

func extractInstitution(chunk Chunk) Result {
	var lines []string
	for _, line := range chunkLines(chunk.Content) {
		if lineHasAny(line, institutionTerms) && len(line) > 5 {
			lines = append(lines, line)
			if len(lines) == 5 {
				break
			}
		}
	}

	if len(lines) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("Institution information from %s", chunk.Title), lines),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}
	return Result{
		Response:    fmt.Sprintf("**Institution information from %s:**\n\nThis is an educational document. Header content:\n\n%s", chunk.Title, preview(chunk.Content, 200)),
		Confidence:  0.8,
		SourcesUsed: 1,
	}
}

var temporalTerms = []string{"semester", "year", "examination", "exam", "date", "202", "201", "session"}

func extractTemporal(chunk Chunk) Result {
	var lines []string
	for _, line := range chunkLines(chunk.Content) {
		if lineHasAny(line, temporalTerms) && len(line) > 5 {
			lines = append(lines, line)
			if len(lines) == 5 {
				break
			}
		}
	}

	if len(lines) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("Time/date information from %s", chunk.Title), lines),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}
	return Result{
		Response:    fmt.Sprintf("**From %s:**\n\nI could not find dated entries. The document starts with:\n\n%s", chunk.Title, preview(chunk.Content, 200)),
		Confidence:  0.8,
		SourcesUsed: 1,
	}
}

func summarize(chunk Chunk) Result {
	docType := "Document"
	titleLower := strings.ToLower(chunk.Title)
	contentLower := strings.ToLower(chunk.Content)
	switch {
	case strings.Contains(titleLower, "marksheet") || strings.Contains(contentLower, "marks"):
		docType = "Academic Marksheet"
	case strings.Contains(titleLower, "transcript"):
		docType = "Academic Transcript"
	case strings.Contains(titleLower, "certificate"):
		docType = "Certificate"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Summary of %s:**\n\nDocument type: %s\n\nKey information:\n", chunk.Title, docType)
	n := 0
	for _, line := range chunkLines(chunk.Content) {
		if len(line) <= 10 {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s\n", n, line)
		if n == 6 {
			break
		}
	}
	b.WriteString("\nYou can ask what the document is about, its main points, or for specific information.")
	return Result{Response: b.String(), Confidence: 0.9, SourcesUsed: 1}
}

var familyTerms = []string{"father", "mother", "parent", "guardian"}

func extractFamily(chunk Chunk) Result {
	var lines []string
	for _, line := range chunkLines(chunk.Content) {
		if lineHasAny(line, familyTerms) && strings.Contains(line, ":") && len(line) > 5 {
			lines = append(lines, line)
			if len(lines) == 3 {
				break
			}
		}
	}

	if len(lines) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("Family information from %s", chunk.Title), lines),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}
	return Result{
		Response:    fmt.Sprintf("**From %s:**\n\nNo family details found. The document starts with:\n\n%s", chunk.Title, preview(chunk.Content, 200)),
		Confidence:  0.8,
		SourcesUsed: 1,
	}
}

var identifierTerms = []string{"roll", "enrollment", "id", "number", "registration"}
var longNumberRe = regexp.MustCompile(`\b\d{6,}\b`)

func extractIdentifiers(chunk Chunk) Result {
	var lines []string
	for _, line := range chunkLines(chunk.Content) {
		if lineHasAny(line, identifierTerms) && strings.Contains(line, ":") && hasDigit(line) {
			lines = append(lines, line)
			if len(lines) == 4 {
				break
			}
		}
	}

	if len(lines) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("ID/registration information from %s", chunk.Title), lines),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}

	if numbers := longNumberRe.FindAllString(chunk.Content, 5); len(numbers) > 0 {
		return Result{
			Response:    listResponse(fmt.Sprintf("Number patterns found in %s", chunk.Title), numbers),
			Confidence:  0.8,
			SourcesUsed: 1,
		}
	}

	return Result{
		Response:    fmt.Sprintf("**From %s:**\n\nNo ID fields found. The document starts with:\n\n%s", chunk.Title, preview(chunk.Content, 200)),
		Confidence:  0.8,
		SourcesUsed: 1,
	}
}

var detailPhrases = []string{"more detailed", "more details", "detailed information", "tell me more", "i want more"}
var contactTerms = []string{"@", "email", "phone", "contact", "+91", "tel"}

// searchContent handles questions with no recognized intent: detail
// requests, profile/contact lookups, then a free word search over the
// chunk's lines.
func searchContent(question string, chunk Chunk) Result {
	lower := strings.ToLower(strings.TrimSpace(question))
	lines := chunkLines(chunk.Content)

	for _, phrase := range detailPhrases {
		if strings.Contains(lower, phrase) {
			var b strings.Builder
			fmt.Fprintf(&b, "**Detailed view of %s:**\n\n%s\n", chunk.Title, preview(chunk.Content, 800))
			b.WriteString("\nAsk specific questions about skills, contact information, education, or projects.")
			return Result{Response: b.String(), Confidence: 0.9, SourcesUsed: 1}
		}
	}

	for _, profile := range []string{"github", "linkedin"} {
		if strings.Contains(lower, profile) {
			var matched []string
			for _, line := range lines {
				if strings.Contains(strings.ToLower(line), profile) {
					matched = append(matched, line)
					if len(matched) == 3 {
						break
					}
				}
			}
			if len(matched) > 0 {
				heading := strings.ToUpper(profile[:1]) + profile[1:]
				return Result{
					Response:    listResponse(fmt.Sprintf("%s information from %s", heading, chunk.Title), matched),
					Confidence:  0.9,
					SourcesUsed: 1,
				}
			}
		}
	}

	if lineHasAny(lower, []string{"email", "contact", "phone"}) {
		var matched []string
		for _, line := range lines {
			if lineHasAny(line, contactTerms) {
				matched = append(matched, line)
				if len(matched) == 4 {
					break
				}
			}
		}
		if len(matched) > 0 {
			return Result{
				Response:    listResponse(fmt.Sprintf("Contact information from %s", chunk.Title), matched),
				Confidence:  0.9,
				SourcesUsed: 1,
			}
		}
	}

	var queryWords []string
	for _, w := range strings.Fields(lower) {
		if len(w) > 2 {
			queryWords = append(queryWords, w)
		}
	}
	var matched []string
	for _, line := range lines {
		if len(line) <= 5 {
			continue
		}
		lineLower := strings.ToLower(line)
		for _, w := range queryWords {
			if strings.Contains(lineLower, w) {
				matched = append(matched, line)
				break
			}
		}
		if len(matched) == 5 {
			break
		}
	}

	if len(matched) > 0 {
		res := listResponse(fmt.Sprintf("Found %q in %s", question, chunk.Title), matched)
		return Result{Response: res, Confidence: 0.8, SourcesUsed: 1}
	}

	return Result{
		Response:    fmt.Sprintf("**About %s:**\n\n%s\n\nTry asking about skills, marks, or contact details.", chunk.Title, preview(chunk.Content, 300)),
		Confidence:  0.8,
		SourcesUsed: 1,
	}
}

func listResponse(heading string, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s:**\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

func preview(content string, n int) string {
	content = strings.TrimSpace(content)
	if len(content) <= n {
		return content
	}
	// Back up to a rune boundary so the cut never splits a character.
	for n > 0 && !utf8.RuneStart(content[n]) {
		n--
	}
	return content[:n] + "..."
}
