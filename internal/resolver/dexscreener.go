// internal/resolver/dexscreener.go
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	dexScreenerBaseURL   = "https://api.dexscreener.com/latest/dex"
	dexScreenerRateLimit = 300 // requests per minute
	dexScreenerConfidence = 0.95
)

// DexScreenerResponse is the token-pairs payload.
type DexScreenerResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []PairInfo `json:"pairs"`
}

// PairInfo describes one trading pair.
type PairInfo struct {
	ChainID       string    `json:"chainId"`
	DexID         string    `json:"dexId"`
	PairAddress   string    `json:"pairAddress"`
	BaseToken     TokenInfo `json:"baseToken"`
	QuoteToken    TokenInfo `json:"quoteToken"`
	PairCreatedAt int64     `json:"pairCreatedAt"`
}

// TokenInfo carries token identity within a pair.
type TokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// DexScreenerClient resolves names via the DexScreener token endpoint. It is
// the most reliable source once a token has been indexed, hence first in the
// default cascade order.
type DexScreenerClient struct {
	baseURL string
	fetcher *httpFetcher
	clock   Clock
	logger  *zap.Logger
}

func NewDexScreenerClient(timeout time.Duration, clock Clock, logger *zap.Logger) *DexScreenerClient {
	return &DexScreenerClient{
		baseURL: dexScreenerBaseURL,
		fetcher: newHTTPFetcher(timeout, NewRateLimiter(dexScreenerRateLimit), nil, logger.Named("dexscreener")),
		clock:   clock,
		logger:  logger.Named("dexscreener"),
	}
}

func (c *DexScreenerClient) Source() Source { return SourceDexScreener }

func (c *DexScreenerClient) FetchName(ctx context.Context, address string) *NameResult {
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, address)

	var response DexScreenerResponse
	if err := c.fetcher.getJSON(ctx, url, &response); err != nil {
		c.logger.Debug("fetch failed", zap.String("token_mint", address), zap.Error(err))
		return nil
	}

	for i := range response.Pairs {
		base := response.Pairs[i].BaseToken
		if !strings.EqualFold(base.Address, address) {
			continue
		}
		name := CleanName(base.Name)
		if !validName(name) {
			continue
		}
		return &NameResult{
			Name:       name,
			Confidence: dexScreenerConfidence,
			Source:     SourceDexScreener,
			ResolvedAt: c.clock.Now(),
		}
	}

	c.logger.Debug("no indexed pair for token", zap.String("token_mint", address))
	return nil
}
