// internal/bot/worker.go
package bot

import (
	"context"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bonkwatch/letsbonk-bot/internal/events"
	"github.com/bonkwatch/letsbonk-bot/internal/listener"
	"github.com/bonkwatch/letsbonk-bot/internal/metrics"
)

// WorkerPool fans candidates from the listener out to a fixed number of
// pipeline workers. Resolution is sequential per candidate inside one worker;
// concurrency only exists across distinct mints.
type WorkerPool struct {
	pipeline  *Pipeline
	bus       *events.Bus
	collector *metrics.Collector
	logger    *zap.Logger
	workers   int
}

// NewWorkerPool builds a pool of the given size. Size is clamped to at
// least one worker.
func NewWorkerPool(pipeline *Pipeline, bus *events.Bus, collector *metrics.Collector, workers int, logger *zap.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		pipeline:  pipeline,
		bus:       bus,
		collector: collector,
		logger:    logger.Named("workers"),
		workers:   workers,
	}
}

// Run consumes candidates until the channel closes or ctx is cancelled.
func (wp *WorkerPool) Run(ctx context.Context, candidates <-chan listener.Candidate) error {
	wp.logger.Info("worker pool started", zap.Int("workers", wp.workers))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < wp.workers; i++ {
		id := i
		g.Go(func() error {
			return wp.work(ctx, id, candidates)
		})
	}
	err := g.Wait()
	wp.logger.Info("worker pool stopped")
	return err
}

func (wp *WorkerPool) work(ctx context.Context, id int, candidates <-chan listener.Candidate) error {
	log := wp.logger.With(zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cand, open := <-candidates:
			if !open {
				return nil
			}
			if !validMint(cand.Address) {
				log.Warn("discarding malformed mint address",
					zap.String("token_mint", cand.Address))
				continue
			}

			wp.collector.TokenDetected()
			_ = wp.bus.Publish(events.TokenDetectedEvent{
				BaseEvent:    events.BaseEvent{EventType: events.TokenDetected, EventTime: cand.DiscoveredAt},
				TokenMint:    cand.Address,
				Signature:    cand.Signature,
				DiscoveredAt: cand.DiscoveredAt,
			})

			log.Debug("processing candidate",
				zap.String("token_mint", cand.Address),
				zap.String("signature", cand.Signature))
			wp.pipeline.Process(ctx, cand.Address, 0)
		}
	}
}

// validMint rejects anything that does not decode to a 32-byte ed25519 key.
func validMint(address string) bool {
	raw, err := base58.Decode(address)
	return err == nil && len(raw) == 32
}
