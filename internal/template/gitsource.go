package template

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"

	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
)

// cloneSource shallow-clones a git template source into a temporary
// directory. The returned cleanup removes the checkout; the caller snapshots
// it into the registry first.
func (r *Registry) cloneSource(ctx context.Context, url string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "smartlatex-template-*")
	if err != nil {
		return "", nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create clone directory").Build()
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	start := time.Now()
	err = r.withRetry(ctx, "clone", func() error {
		// A fresh directory per attempt; go-git refuses a non-empty target.
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		_, cloneErr := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:   url,
			Depth: 1,
		})
		if cloneErr != nil {
			return classifyCloneError(url, cloneErr)
		}
		return nil
	})
	r.recorder.ObserveTemplateFetchDuration("git", time.Since(start), err == nil)
	r.recorder.IncTemplateFetch(err == nil)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	slog.Debug("template source cloned", slog.String("url", url), logfields.Dir(dir))
	return dir, cleanup, nil
}

// classifyCloneError wraps go-git failures with categories so the retry
// wrapper can tell permanent failures (auth, not found) from transient ones
// (rate limits, timeouts).
func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") ||
		strings.Contains(l, "invalid username or password") || strings.Contains(l, "authorization failed"):
		return ferrors.WrapError(err, ferrors.CategoryGit, "authentication failed").
			WithContext("url", url).UserAction().Build()
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return ferrors.WrapError(err, ferrors.CategoryGit, "repository not found").
			WithContext("url", url).UserAction().Build()
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		return ferrors.WrapError(err, ferrors.CategoryGit, "rate limited").
			WithContext("url", url).Retryable().Build()
	case strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout"):
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "network timeout").
			WithContext("url", url).Retryable().Build()
	default:
		return ferrors.WrapError(err, ferrors.CategoryGit, "clone failed").
			WithContext("url", url).Build()
	}
}

// withRetry runs fn under the registry's retry policy. Only errors marked
// retryable are re-attempted; context cancellation always wins.
func (r *Registry) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt >= r.policy.MaxRetries {
			return lastErr
		}

		delay := r.policy.Delay(attempt + 1)
		slog.Debug("retrying template operation",
			slog.String("op", op), slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay), logfields.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if classified, ok := ferrors.AsClassified(err); ok {
		return classified.CanRetry()
	}
	return false
}
