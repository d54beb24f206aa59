package errors

import (
	"errors"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", ".pdfmake").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != ".pdfmake" {
			t.Errorf("expected context file=.pdfmake, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if _, ok := AsClassified(err); !ok {
			t.Error("expected error to be classified")
		}

		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}

		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}

		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Compile errors are fatal but not retryable", func(t *testing.T) {
		err := CompileError("pass failed").Build()

		if !err.IsFatal() {
			t.Error("expected compile error to be fatal")
		}
		if err.IsTransient() {
			t.Error("expected compile error to not be transient")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := WrapError(originalErr, CategoryNetwork, "network failure").
			Warning().
			Retryable().
			WithContext("host", "example.com").
			WithContext("port", 443).
			Build()

		if err.Category() != CategoryNetwork {
			t.Errorf("expected category %s, got %s", CategoryNetwork, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}

		host, _ := err.Context().GetString("host")
		if host != "example.com" {
			t.Errorf("expected host context 'example.com', got %s", host)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		err := NewError(CategoryTemplate, "missing template").Build()

		if err.Severity() != SeverityError {
			t.Errorf("expected default severity %s, got %s", SeverityError, err.Severity())
		}
		if err.RetryStrategy() != RetryNever {
			t.Errorf("expected default retry strategy %s, got %s", RetryNever, err.RetryStrategy())
		}
	})
}

func TestGetSeverityFallback(t *testing.T) {
	if got := GetSeverity(errors.New("plain")); got != SeverityError {
		t.Errorf("expected fallback severity %s, got %s", SeverityError, got)
	}
	if got := GetCategory(errors.New("plain")); got != CategoryInternal {
		t.Errorf("expected fallback category %s, got %s", CategoryInternal, got)
	}
}
