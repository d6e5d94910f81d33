// Package fallback produces rule-based answers when the generation backend
// is unavailable or returns nothing useful.
//
// With retrieved context, an intent detector routes the question to a
// line-oriented extractor (academic performance, identity, subjects,
// institution, dates, summary, family, identifiers, free search) that
// pulls matching lines out of the best chunk. Without context, a
// conversational responder handles greetings, capability questions,
// arithmetic, programming and general-knowledge prompts.
//
// Extractor answers carry their own confidence in the 0.8-0.9 band; the
// generic apology used when nothing matches scores far lower.
package fallback
