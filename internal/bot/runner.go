// internal/bot/runner.go
package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bonkwatch/letsbonk-bot/internal/config"
	"github.com/bonkwatch/letsbonk-bot/internal/events"
	"github.com/bonkwatch/letsbonk-bot/internal/listener"
	"github.com/bonkwatch/letsbonk-bot/internal/logger"
	"github.com/bonkwatch/letsbonk-bot/internal/matcher"
	"github.com/bonkwatch/letsbonk-bot/internal/metrics"
	"github.com/bonkwatch/letsbonk-bot/internal/notify"
	"github.com/bonkwatch/letsbonk-bot/internal/resolver"
)

// Runner owns the full bot: listener, worker pool, retry scheduler, event
// bus and the metrics endpoint. Built once from config, torn down when the
// context is cancelled.
type Runner struct {
	cfg       *config.Config
	log       *logger.Logger
	bus       *events.Bus
	collector *metrics.Collector
	cache     *resolver.Cache
	scheduler *resolver.Scheduler
	pipeline  *Pipeline
	listener  *listener.Listener
	pool      *WorkerPool
}

// NewRunner assembles all components. Sources come up in the order listed in
// the config; unknown source names and a keyless birdeye entry are skipped
// with a warning rather than failing startup.
func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	if len(cfg.RPCList) == 0 {
		return nil, errors.New("runner: at least one RPC endpoint is required")
	}

	clock := resolver.SystemClock()
	bus := events.NewBus(log.WithComponent("events"), 256)
	collector := metrics.NewCollector()

	cache := resolver.NewCache(
		time.Duration(cfg.CacheTTL)*time.Second,
		clock,
		log.WithComponent("resolver"),
	)
	collector.RegisterCacheStats(cache.Stats)

	clients := buildSourceClients(cfg, clock, log)
	if len(clients) == 0 {
		return nil, errors.New("runner: no usable name sources configured")
	}

	cascade := resolver.NewCascade(clients, cache, cfg.ConfidenceThreshold, log.WithComponent("resolver"))

	delays := make([]time.Duration, 0, len(cfg.RetryDelays))
	for _, d := range cfg.RetryDelays {
		delays = append(delays, time.Duration(d)*time.Second)
	}

	// The scheduler hands due tasks back to the pipeline; the pipeline is
	// built right after, so the handler resolves it through the runner.
	r := &Runner{cfg: cfg, log: log, bus: bus, collector: collector, cache: cache}
	r.scheduler = resolver.NewScheduler(delays, clock, func(ctx context.Context, task resolver.RetryTask) {
		r.pipeline.HandleRetry(ctx, task)
	}, log.WithComponent("resolver"))

	keywordMatcher := matcher.New(matcher.Config{
		Keywords:   cfg.Keywords,
		Exclusions: cfg.Exclusions,
	}, log.WithComponent("matcher"))

	r.pipeline = NewPipeline(
		cascade,
		r.scheduler,
		keywordMatcher,
		buildNotifier(cfg, log),
		bus,
		collector,
		clock,
		log.WithComponent("bot"),
	)

	lst, err := listener.New(listener.Config{
		RPCURL:          cfg.RPCList[0],
		WebSocketURL:    cfg.WebSocketURL,
		ProgramID:       cfg.ProgramID,
		PollInterval:    time.Duration(cfg.PollInterval) * time.Millisecond,
		FreshnessWindow: time.Duration(cfg.FreshnessWindow) * time.Second,
		BonkSuffixOnly:  cfg.BonkSuffixOnly,
	}, log.WithComponent("listener"))
	if err != nil {
		return nil, err
	}
	r.listener = lst
	r.pool = NewWorkerPool(r.pipeline, bus, collector, cfg.Workers, log.WithComponent("bot"))

	subscribeAuditLog(bus, log.WithComponent("audit"))

	log.WithComponent("bot").Info("runner assembled",
		zap.Strings("sources", sourceNames(cascade.Sources())),
		zap.Float64("confidence_threshold", cfg.ConfidenceThreshold),
		zap.Int("workers", cfg.Workers),
		zap.Int("max_retry_attempts", r.scheduler.MaxAttempts()),
		zap.Strings("keywords", keywordMatcher.Keywords()))
	return r, nil
}

// Run blocks until ctx is cancelled or a component fails hard. Context
// cancellation is the normal shutdown path and is not reported as an error.
func (r *Runner) Run(ctx context.Context) error {
	defer r.bus.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.listener.Run(ctx)
	})
	g.Go(func() error {
		r.scheduler.Run(ctx, time.Duration(r.cfg.SweepInterval)*time.Millisecond)
		return nil
	})
	g.Go(func() error {
		return r.pool.Run(ctx, r.listener.Candidates())
	})
	if r.cfg.MetricsListen != "" {
		g.Go(func() error {
			return r.collector.Serve(ctx, r.cfg.MetricsListen, r.log.WithComponent("metrics"))
		})
	}
	g.Go(func() error {
		return r.housekeeping(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// housekeeping evicts stale cache entries and logs a periodic status line.
func (r *Runner) housekeeping(ctx context.Context) error {
	log := r.log.WithComponent("bot")
	ticker := time.NewTicker(time.Duration(r.cfg.CacheTTL) * time.Second / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			evicted := r.cache.CleanupStale()
			hits, misses := r.cache.Stats()
			scheduled, exhausted := r.scheduler.Stats()
			log.Info("status",
				zap.Int("cache_size", r.cache.Len()),
				zap.Int("cache_evicted", evicted),
				zap.Uint64("cache_hits", hits),
				zap.Uint64("cache_misses", misses),
				zap.Int("retries_pending", r.scheduler.Len()),
				zap.Uint64("retries_scheduled", scheduled),
				zap.Uint64("retries_exhausted", exhausted))
		}
	}
}

// buildSourceClients materializes the cascade in config order.
func buildSourceClients(cfg *config.Config, clock resolver.Clock, log *logger.Logger) []resolver.SourceClient {
	zl := log.WithComponent("resolver")
	timeout := time.Duration(cfg.HTTPTimeout) * time.Second

	clients := make([]resolver.SourceClient, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		switch resolver.Source(name) {
		case resolver.SourceDexScreener:
			clients = append(clients, resolver.NewDexScreenerClient(timeout, clock, zl))
		case resolver.SourcePumpfun:
			clients = append(clients, resolver.NewPumpfunClient(timeout, clock, zl))
		case resolver.SourceSolscan:
			clients = append(clients, resolver.NewSolscanClient(timeout, clock, zl))
		case resolver.SourceBirdeye:
			if cfg.BirdeyeAPIKey == "" {
				zl.Warn("birdeye source configured without an API key, skipping")
				continue
			}
			clients = append(clients, resolver.NewBirdeyeClient(cfg.BirdeyeAPIKey, timeout, clock, zl))
		default:
			zl.Warn("unknown name source in config, skipping", zap.String("source", name))
		}
	}
	return clients
}

// buildNotifier prefers the Discord webhook and falls back to log-only
// delivery when none is configured.
func buildNotifier(cfg *config.Config, log *logger.Logger) notify.Notifier {
	if cfg.WebhookURL != "" {
		return notify.NewDiscordNotifier(
			cfg.WebhookURL,
			time.Duration(cfg.NotifyCooldown)*time.Second,
			log.WithComponent("notify"),
		)
	}
	log.WithComponent("notify").Warn("no webhook configured, alerts go to the log only")
	return notify.NewLogNotifier(log.WithComponent("notify"))
}

// subscribeAuditLog mirrors the pipeline's terminal outcomes into the log
// regardless of which component produced them.
func subscribeAuditLog(bus *events.Bus, zl *zap.Logger) {
	bus.SubscribeFunc(events.KeywordMatched, func(_ context.Context, event events.Event) error {
		if e, ok := event.(events.KeywordMatchedEvent); ok {
			zl.Info("keyword match",
				zap.String("token_mint", e.TokenMint),
				zap.String("name", e.Name),
				zap.String("keyword", e.Keyword))
		}
		return nil
	})
	bus.SubscribeFunc(events.ResolutionExhausted, func(_ context.Context, event events.Event) error {
		if e, ok := event.(events.ResolutionExhaustedEvent); ok {
			zl.Info("gave up on unresolved token",
				zap.String("token_mint", e.TokenMint),
				zap.Int("attempts", e.Attempts))
		}
		return nil
	})
}

func sourceNames(sources []resolver.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return names
}
