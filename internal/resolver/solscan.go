// internal/resolver/solscan.go
package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	solscanRateLimit  = 60 // requests per minute on the public tier
	solscanConfidence = 0.85
)

// Solscan exposes several generations of its token-meta endpoint; the public
// one lags the v2 API for fresh mints, so both are tried in order.
var solscanEndpoints = []string{
	"https://api.solscan.io/v2.0/token/meta?token=%s",
	"https://public-api.solscan.io/token/meta?tokenAddress=%s",
}

type solscanResponse struct {
	Name string `json:"name"`
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

// SolscanClient resolves names via the Solscan token-meta endpoints.
type SolscanClient struct {
	endpoints []string
	fetcher   *httpFetcher
	clock     Clock
	logger    *zap.Logger
}

func NewSolscanClient(timeout time.Duration, clock Clock, logger *zap.Logger) *SolscanClient {
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		"Accept":     "application/json",
	}
	return &SolscanClient{
		endpoints: solscanEndpoints,
		fetcher:   newHTTPFetcher(timeout, NewRateLimiter(solscanRateLimit), headers, logger.Named("solscan")),
		clock:     clock,
		logger:    logger.Named("solscan"),
	}
}

func (c *SolscanClient) Source() Source { return SourceSolscan }

func (c *SolscanClient) FetchName(ctx context.Context, address string) *NameResult {
	for _, endpoint := range c.endpoints {
		url := fmt.Sprintf(endpoint, address)

		var response solscanResponse
		if err := c.fetcher.getJSON(ctx, url, &response); err != nil {
			c.logger.Debug("fetch failed", zap.String("token_mint", address), zap.Error(err))
			continue
		}

		raw := response.Name
		if raw == "" {
			raw = response.Data.Name
		}
		name := CleanName(raw)
		if !validName(name) {
			continue
		}
		return &NameResult{
			Name:       name,
			Confidence: solscanConfidence,
			Source:     SourceSolscan,
			ResolvedAt: c.clock.Now(),
		}
	}
	return nil
}
