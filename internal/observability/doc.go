// Package observability provides structured logging for the authorizer.
//
// Loggers are zap-based. Every decision log line carries the request ID
// propagated through the context, and token material is never logged.
package observability
