package fallback

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// greetingPatterns include common typos seen in real traffic.
var greetingPatterns = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"goog morning", "gud morning", "morning", "evening", "afternoon", "helo", "hii",
}

var greetingResponses = []string{
	"**Hello there!**\n\nHow can I assist you today? Feel free to ask me anything.",
	"**Good to see you!**\n\nWhat can I help you with today?",
	"**Hi!**\n\nReady to help with questions, tasks, or just a conversation. What's on your mind?",
}

var unclearResponses = []string{
	"**I'm not sure what you're looking for.**\n\nCould you ask a specific question? I can help with anything from technical questions to document analysis.",
	"**Let's try that again.**\n\nWhat would you like help with? I can answer questions, solve problems, or just chat.",
	"**I'm ready to help.**\n\nWhat's on your mind? Feel free to ask anything, from simple questions to complex problems.",
}

var helpPhrases = []string{"help", "what can you do", "what are you", "who are you", "capabilities"}
var programmingWords = []string{"code", "programming", "python", "javascript", "html", "css", "sql", "debug", "error"}
var realtimeWords = []string{"weather", "temperature", "time", "date", "today"}
var knowledgeWords = []string{"what", "how", "why", "when", "where", "who", "explain", "tell me"}
var profileWords = []string{"github", "linkedin", "email", "phone", "contact", "link", "website"}

// Responder answers questions when no documents matched at all.
type Responder struct{}

// NewResponder creates a Responder.
func NewResponder() *Responder {
	return &Responder{}
}

// Respond classifies the message and answers from a fixed response bank.
// Variant selection is a stable hash of the message, so the same input
// always gets the same answer.
func (r *Responder) Respond(message string) Result {
	lower := strings.ToLower(strings.TrimSpace(message))

	switch {
	case matchesAnyPhrase(lower, greetingPatterns):
		return noContextResult(pick(greetingResponses, message))

	case matchesAnyPhrase(lower, helpPhrases):
		return noContextResult("**I'm an AI assistant for your documents.**\n\nI can:\n- Answer questions and explain concepts\n- Analyze and summarize uploaded documents\n- Help with programming and technical problems\n- Do quick calculations\n\nJust tell me what you need.")

	case looksLikeMath(message):
		return noContextResult(mathResponse(message))

	case matchesAnyWord(lower, programmingWords):
		return noContextResult("**Programming and code help**\n\nI can assist with writing and debugging code, explaining programming concepts, code review, and troubleshooting errors across languages.\n\nWhat specific programming question do you have?")

	case matchesAnyWord(lower, realtimeWords):
		return noContextResult("**Current information**\n\nI don't have access to real-time data like live weather or the exact time, but I can help with time zone conversions, date calculations, and general seasonal information.")

	case matchesAnyWord(lower, knowledgeWords):
		return noContextResult(fmt.Sprintf("**Knowledge and information**\n\nI'm ready to help answer: %q\n\nI can cover science, technology, history, business, and more. Could you be more specific about what you'd like to know?", message))

	case matchesAnyWord(lower, profileWords):
		return noContextResult(fmt.Sprintf("**Looking for contact or profile information?**\n\nI'd be happy to help find %s. If you upload a resume or document, I can extract specific links and contact details from it.", message))

	case len(lower) <= 4:
		return noContextResult(pick(unclearResponses, message))

	case len(strings.Fields(lower)) > 2:
		return noContextResult(fmt.Sprintf("**Regarding %q:**\n\nI'd be happy to help with this. Could you provide a bit more context or ask a specific question? If you need document analysis, upload a document first.", message))

	default:
		return noContextResult(fmt.Sprintf("**Hi there!**\n\nYou said %q - how can I help you today? I'm good at answering questions, solving problems, explaining concepts, and analyzing documents.", message))
	}
}

func noContextResult(response string) Result {
	return Result{Response: response, Confidence: 0.8, SourcesUsed: 0}
}

func matchesAnyPhrase(lower string, phrases []string) bool {
	for _, p := range phrases {
		if containsWord(lower, p) {
			return true
		}
	}
	return false
}

func matchesAnyWord(lower string, words []string) bool {
	for _, w := range words {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

func looksLikeMath(message string) bool {
	lower := strings.ToLower(message)
	if strings.ContainsAny(message, "+-*/=") {
		return hasDigit(message)
	}
	return containsWord(lower, "calculate") || containsWord(lower, "math") || containsWord(lower, "solve")
}

func mathResponse(message string) string {
	expr := extractMathExpression(message)
	if expr != "" {
		if result, err := evalArithmetic(expr); err == nil {
			return fmt.Sprintf("**Calculation result:**\n\n%s = **%s**", strings.TrimSpace(expr), formatNumber(result))
		}
	}
	return "**Math help**\n\nI can help with calculations. Please provide a clear expression, for example: 15 + 25, or (3 + 4) * 2."
}

// pick selects a stable variant for the message.
func pick(bank []string, message string) string {
	h := fnv.New32a()
	h.Write([]byte(message))
	return bank[int(h.Sum32())%len(bank)]
}
