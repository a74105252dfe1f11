// internal/resolver/httpclient.go
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// httpFetcher is the shared transport for all source clients: per-host rate
// limiting, a short per-call timeout, and a bounded retry on 429 responses.
type httpFetcher struct {
	client  *http.Client
	limiter *RateLimiter
	headers map[string]string
	logger  *zap.Logger
}

func newHTTPFetcher(timeout time.Duration, limiter *RateLimiter, headers map[string]string, logger *zap.Logger) *httpFetcher {
	return &httpFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		headers: headers,
		logger:  logger,
	}
}

// getJSON issues a GET to url and decodes the body into out. Rate-limited
// responses are retried with exponential backoff; every other failure is
// permanent within this call (the cross-pass retry scheduler handles the rest).
func (f *httpFetcher) getJSON(ctx context.Context, url string, out interface{}) error {
	f.limiter.Take()

	op := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		for k, v := range f.headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("execute request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			f.logger.Debug("rate limited by upstream", zap.String("url", url))
			return struct{}{}, fmt.Errorf("rate limited: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, backoff.Permanent(fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body)))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(10*time.Second),
	)
	return err
}
