// internal/resolver/cascade.go
package resolver

import (
	"context"

	"go.uber.org/zap"
)

// Cascade orchestrates the configured source clients in a fixed priority
// order. Sources are tried strictly sequentially: once one succeeds, the rest
// are skipped to save latency and API quota. The cascade owns the result
// cache, so resolving the same address twice inside the TTL window issues no
// network calls.
type Cascade struct {
	clients   []SourceClient
	cache     *Cache
	threshold float64
	logger    *zap.Logger
}

// NewCascade builds a cascade over clients, tried in the given order.
func NewCascade(clients []SourceClient, cache *Cache, threshold float64, logger *zap.Logger) *Cascade {
	return &Cascade{
		clients:   clients,
		cache:     cache,
		threshold: threshold,
		logger:    logger.Named("cascade"),
	}
}

// Resolve maps a mint address to a name. The second return value is false
// when every source came up empty; the caller is expected to schedule a
// retry. A miss on the first pass is the normal case for a token younger
// than the indexing lag of the upstream APIs, so it is not logged as an
// error.
func (c *Cascade) Resolve(ctx context.Context, address string) (*NameResult, bool) {
	if cached := c.cache.Get(address); cached != nil {
		c.logger.Debug("cache hit",
			zap.String("token_mint", address),
			zap.String("name", cached.Name))
		return cached, true
	}

	for _, client := range c.clients {
		result := client.FetchName(ctx, address)
		if result == nil {
			continue
		}
		if result.Confidence < c.threshold {
			c.logger.Debug("result below confidence threshold",
				zap.String("token_mint", address),
				zap.String("source", string(client.Source())),
				zap.Float64("confidence", result.Confidence))
			continue
		}
		if IsPlaceholder(result.Name) {
			c.logger.Debug("rejected placeholder name",
				zap.String("token_mint", address),
				zap.String("source", string(client.Source())),
				zap.String("name", result.Name))
			continue
		}

		c.cache.Put(address, result)
		c.logger.Info("name resolved",
			zap.String("token_mint", address),
			zap.String("name", result.Name),
			zap.String("source", string(result.Source)),
			zap.Float64("confidence", result.Confidence))
		return result, true
	}

	c.logger.Debug("all sources exhausted for this pass",
		zap.String("token_mint", address))
	return nil, false
}

// Sources lists the cascade's priority order, for startup logging.
func (c *Cascade) Sources() []Source {
	sources := make([]Source, 0, len(c.clients))
	for _, client := range c.clients {
		sources = append(sources, client.Source())
	}
	return sources
}
