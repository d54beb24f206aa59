package template

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
)

const (
	fetchTimeout = 60 * time.Second
	maxRedirects = 5
)

func newFetchClient() *http.Client {
	return &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// download fetches url into dest under the registry's retry policy. Server
// errors and timeouts retry; client errors (404, 403) do not.
func (r *Registry) download(ctx context.Context, url, dest string) error {
	client := newFetchClient()

	start := time.Now()
	err := r.withRetry(ctx, "download", func() error {
		return fetchOnce(ctx, client, url, dest)
	})
	r.recorder.ObserveTemplateFetchDuration("url", time.Since(start), err == nil)
	r.recorder.IncTemplateFetch(err == nil)
	return err
}

func fetchOnce(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "build template request").
			WithContext("url", url).Build()
	}

	resp, err := client.Do(req)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "fetch template archive").
			WithContext("url", url).Retryable().Build()
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return ferrors.NewError(ferrors.CategoryNetwork, "template server error").
			WithContext("url", url).WithContext("status", resp.StatusCode).
			Retryable().Build()
	default:
		return ferrors.NewError(ferrors.CategoryNetwork, "template fetch rejected").
			WithContext("url", url).WithContext("status", resp.StatusCode).
			UserAction().Build()
	}

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "create template archive").
			WithContext("path", dest).Build()
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "download template archive").
			WithContext("url", url).Retryable().Build()
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return ferrors.WrapError(err, ferrors.CategoryStorage, "flush template archive").Build()
	}
	if err := os.Rename(tmp, dest); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "store template archive").Build()
	}
	return nil
}
