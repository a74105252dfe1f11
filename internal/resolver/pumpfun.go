// internal/resolver/pumpfun.go
package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	pumpfunBaseURL    = "https://frontend-api.pump.fun/coins/%s"
	pumpfunRateLimit  = 120 // requests per minute
	pumpfunConfidence = 0.9
)

type pumpfunResponse struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// PumpfunClient resolves names via the Pump.fun frontend API. It indexes
// launchpad tokens faster than the block-explorer APIs, so it ranks right
// behind DexScreener in the default cascade order.
type PumpfunClient struct {
	baseURL string
	fetcher *httpFetcher
	clock   Clock
	logger  *zap.Logger
}

func NewPumpfunClient(timeout time.Duration, clock Clock, logger *zap.Logger) *PumpfunClient {
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		"Accept":     "application/json",
	}
	return &PumpfunClient{
		baseURL: pumpfunBaseURL,
		fetcher: newHTTPFetcher(timeout, NewRateLimiter(pumpfunRateLimit), headers, logger.Named("pumpfun")),
		clock:   clock,
		logger:  logger.Named("pumpfun"),
	}
}

func (c *PumpfunClient) Source() Source { return SourcePumpfun }

func (c *PumpfunClient) FetchName(ctx context.Context, address string) *NameResult {
	url := fmt.Sprintf(c.baseURL, address)

	var response pumpfunResponse
	if err := c.fetcher.getJSON(ctx, url, &response); err != nil {
		c.logger.Debug("fetch failed", zap.String("token_mint", address), zap.Error(err))
		return nil
	}

	name := CleanName(response.Name)
	if !validName(name) {
		return nil
	}
	return &NameResult{
		Name:       name,
		Confidence: pumpfunConfidence,
		Source:     SourcePumpfun,
		ResolvedAt: c.clock.Now(),
	}
}
