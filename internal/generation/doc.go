// Package generation produces chat completions through an OpenAI-compatible
// backend (via langchaingo).
//
// The backend is guarded by a circuit breaker: repeated failures open the
// circuit and requests fail fast with ErrUnavailable until a recovery
// timeout elapses, after which a single probe request decides whether the
// circuit closes again. Callers treat ErrUnavailable as the signal to use
// the rule-based fallback path.
package generation
