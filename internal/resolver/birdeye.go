// internal/resolver/birdeye.go
package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	birdeyeBaseURL    = "https://public-api.birdeye.so/public/token_overview?address=%s"
	birdeyeRateLimit  = 60 // requests per minute
	birdeyeConfidence = 0.85
)

type birdeyeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"data"`
}

// BirdeyeClient resolves names via the Birdeye token-overview endpoint.
// Birdeye requires an API key; without one the source is skipped at startup,
// leaving the rest of the cascade intact.
type BirdeyeClient struct {
	baseURL string
	fetcher *httpFetcher
	clock   Clock
	logger  *zap.Logger
}

func NewBirdeyeClient(apiKey string, timeout time.Duration, clock Clock, logger *zap.Logger) *BirdeyeClient {
	headers := map[string]string{
		"X-API-KEY": apiKey,
		"Accept":    "application/json",
	}
	return &BirdeyeClient{
		baseURL: birdeyeBaseURL,
		fetcher: newHTTPFetcher(timeout, NewRateLimiter(birdeyeRateLimit), headers, logger.Named("birdeye")),
		clock:   clock,
		logger:  logger.Named("birdeye"),
	}
}

func (c *BirdeyeClient) Source() Source { return SourceBirdeye }

func (c *BirdeyeClient) FetchName(ctx context.Context, address string) *NameResult {
	url := fmt.Sprintf(c.baseURL, address)

	var response birdeyeResponse
	if err := c.fetcher.getJSON(ctx, url, &response); err != nil {
		c.logger.Debug("fetch failed", zap.String("token_mint", address), zap.Error(err))
		return nil
	}

	name := CleanName(response.Data.Name)
	if !response.Success || !validName(name) {
		return nil
	}
	return &NameResult{
		Name:       name,
		Confidence: birdeyeConfidence,
		Source:     SourceBirdeye,
		ResolvedAt: c.clock.Now(),
	}
}
