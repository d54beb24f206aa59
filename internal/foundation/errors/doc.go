// Package errors provides foundational, type-safe error primitives used across Smart-Latex.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, detection, tool, compile, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff, user action)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter mapping classified errors to process exit codes
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryCompile, "compiler pass failed").
//		WithSeverity(errors.SeverityFatal).
//		WithContext("tool", "pdflatex").
//		Build()
package errors
