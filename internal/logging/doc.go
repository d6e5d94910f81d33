// Package logging provides structured logging for answerd.
//
// It wraps Zap with context-aware methods that automatically attach
// correlation fields (trace_id, session.id, request.id, document.id)
// extracted from the request context:
//
//	ctx = logging.WithSessionID(ctx, "sess_123")
//	logger.Info(ctx, "response generated", zap.Float64("confidence", c))
//
// Output is JSON by default; use Format "console" for local development.
package logging
