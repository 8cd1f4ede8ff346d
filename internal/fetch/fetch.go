// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads remote documents for extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	defaultMaxRetries = 3

	// maxDocumentBytes caps a fetched document at 10 MiB. Extraction is
	// sentence-oriented; anything larger is almost certainly not text.
	maxDocumentBytes = 10 << 20
)

// retryable reports whether the status code is worth another attempt:
// rate limits and transient server errors.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Text downloads the document at url and returns its body as a string.
// Rate-limited and 5xx responses are retried with exponential backoff
// starting at RetryBaseDelay. A response that still fails after the
// retries, or any non-2xx status, is an error.
func Text(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "text/plain, text/*;q=0.9, */*;q=0.1")

	resp, err := doWithRetry(ctx, client, req, defaultMaxRetries)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	if len(body) > maxDocumentBytes {
		return "", fmt.Errorf("fetching %s: document exceeds %d bytes", url, maxDocumentBytes)
	}
	return string(body), nil
}

// doWithRetry executes the request, retrying retryable statuses with
// exponential backoff. The response body is drained and closed before
// each retry. If the context is cancelled during a backoff wait the
// context error is returned. After exhausting retries the last response
// is returned so the caller can inspect it.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
