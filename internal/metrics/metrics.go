// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector owns the pipeline's prometheus metrics. A fresh registry per
// instance keeps tests independent of global registration state.
type Collector struct {
	registry *prometheus.Registry

	tokensDetected    prometheus.Counter
	namesResolved     *prometheus.CounterVec
	retriesScheduled  prometheus.Counter
	retriesExhausted  prometheus.Counter
	keywordsMatched   prometheus.Counter
	notificationsSent prometheus.Counter
	notifyFailures    prometheus.Counter
	resolveDuration   prometheus.Histogram
}

// NewCollector creates and registers all pipeline metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tokensDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "letsbonk_tokens_detected_total",
			Help: "New mint addresses observed by the listener.",
		}),
		namesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "letsbonk_names_resolved_total",
			Help: "Successful name resolutions by source.",
		}, []string{"source"}),
		retriesScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "letsbonk_retries_scheduled_total",
			Help: "Resolution retries enqueued.",
		}),
		retriesExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "letsbonk_retries_exhausted_total",
			Help: "Addresses permanently left unresolved.",
		}),
		keywordsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "letsbonk_keywords_matched_total",
			Help: "Resolved names that matched a configured keyword.",
		}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "letsbonk_notifications_sent_total",
			Help: "Alerts delivered to the notifier.",
		}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "letsbonk_notification_failures_total",
			Help: "Alert deliveries that failed (not retried).",
		}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "letsbonk_resolve_duration_seconds",
			Help:    "Wall time of one cascade pass.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(
		c.tokensDetected,
		c.namesResolved,
		c.retriesScheduled,
		c.retriesExhausted,
		c.keywordsMatched,
		c.notificationsSent,
		c.notifyFailures,
		c.resolveDuration,
	)
	return c
}

// RegisterCacheStats exposes the name cache's hit/miss counters. The cache is
// built after the collector, so registration is a separate step.
func (c *Collector) RegisterCacheStats(stats func() (hits, misses uint64)) {
	c.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "letsbonk_cache_hits_total",
			Help: "Name cache hits.",
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "letsbonk_cache_misses_total",
			Help: "Name cache misses.",
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

func (c *Collector) TokenDetected()                 { c.tokensDetected.Inc() }
func (c *Collector) NameResolved(source string)     { c.namesResolved.WithLabelValues(source).Inc() }
func (c *Collector) RetryScheduled()                { c.retriesScheduled.Inc() }
func (c *Collector) RetryExhausted()                { c.retriesExhausted.Inc() }
func (c *Collector) KeywordMatched()                { c.keywordsMatched.Inc() }
func (c *Collector) NotificationSent()              { c.notificationsSent.Inc() }
func (c *Collector) NotificationFailed()            { c.notifyFailures.Inc() }
func (c *Collector) ObserveResolve(d time.Duration) { c.resolveDuration.Observe(d.Seconds()) }

// Serve exposes /metrics and /healthz on addr until ctx is done. An empty
// addr disables the listener.
func (c *Collector) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
