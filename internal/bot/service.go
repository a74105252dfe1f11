// internal/bot/service.go
package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bonkwatch/letsbonk-bot/internal/events"
	"github.com/bonkwatch/letsbonk-bot/internal/matcher"
	"github.com/bonkwatch/letsbonk-bot/internal/metrics"
	"github.com/bonkwatch/letsbonk-bot/internal/notify"
	"github.com/bonkwatch/letsbonk-bot/internal/resolver"
)

// Pipeline ties name resolution, keyword matching and alert delivery
// together. One Pipeline serves all workers and the retry scheduler; every
// method is safe for concurrent use.
type Pipeline struct {
	cascade   *resolver.Cascade
	scheduler *resolver.Scheduler
	matcher   *matcher.Matcher
	notifier  notify.Notifier
	bus       *events.Bus
	collector *metrics.Collector
	clock     resolver.Clock
	logger    *zap.Logger

	mu      sync.Mutex
	alerted map[string]struct{} // mints already delivered, never re-alerted
}

// NewPipeline wires the resolution pipeline. The scheduler's handler must be
// pointed back at Process by the caller.
func NewPipeline(
	cascade *resolver.Cascade,
	scheduler *resolver.Scheduler,
	keywordMatcher *matcher.Matcher,
	notifier notify.Notifier,
	bus *events.Bus,
	collector *metrics.Collector,
	clock resolver.Clock,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cascade:   cascade,
		scheduler: scheduler,
		matcher:   keywordMatcher,
		notifier:  notifier,
		bus:       bus,
		collector: collector,
		clock:     clock,
		logger:    logger.Named("pipeline"),
	}
}

// Process runs one resolution pass for a mint. attempt is 0 for the first
// pass right after discovery and the 1-based retry number afterwards. A miss
// schedules the next retry; a hit goes through keyword matching and, on a
// match, alert delivery. Process never returns an error: unresolvable
// addresses are an expected outcome, not a failure.
func (p *Pipeline) Process(ctx context.Context, address string, attempt int) {
	start := p.clock.Now()
	result, ok := p.cascade.Resolve(ctx, address)
	p.collector.ObserveResolve(p.clock.Now().Sub(start))

	if !ok {
		p.scheduleNext(address, attempt)
		return
	}

	p.collector.NameResolved(string(result.Source))
	p.publish(events.NameResolvedEvent{
		BaseEvent:  baseEvent(events.NameResolved, p.clock.Now()),
		TokenMint:  address,
		Name:       result.Name,
		Source:     result.Source,
		Confidence: result.Confidence,
		Attempt:    attempt,
	})

	keyword, matched := p.matcher.Match(result.Name)
	if !matched {
		return
	}

	p.collector.KeywordMatched()
	p.publish(events.KeywordMatchedEvent{
		BaseEvent: baseEvent(events.KeywordMatched, p.clock.Now()),
		TokenMint: address,
		Name:      result.Name,
		Keyword:   keyword,
	})

	p.deliver(ctx, address, *result, keyword)
}

// scheduleNext enqueues the next retry attempt or, once the budget is spent,
// marks the address permanently unresolved. The scheduler owns the budget
// check so its exhaustion counter and the prometheus one stay in step.
func (p *Pipeline) scheduleNext(address string, attempt int) {
	next := attempt + 1
	if p.scheduler.Schedule(address, next) {
		p.collector.RetryScheduled()
		return
	}
	if next > p.scheduler.MaxAttempts() {
		p.collector.RetryExhausted()
		p.publish(events.ResolutionExhaustedEvent{
			BaseEvent: baseEvent(events.ResolutionExhausted, p.clock.Now()),
			TokenMint: address,
			Attempts:  attempt,
		})
	}
}

// deliver sends the alert at most once per mint for the process lifetime.
// Duplicate candidates can reach this point across WS reconnects; only the
// first one gets through.
func (p *Pipeline) deliver(ctx context.Context, address string, result resolver.NameResult, keyword string) {
	p.mu.Lock()
	if p.alerted == nil {
		p.alerted = make(map[string]struct{})
	}
	if _, done := p.alerted[address]; done {
		p.mu.Unlock()
		return
	}
	p.alerted[address] = struct{}{}
	p.mu.Unlock()

	alert := notify.Alert{
		TokenMint:  address,
		Result:     result,
		Keyword:    keyword,
		DetectedAt: p.clock.Now(),
	}

	if err := p.notifier.Notify(ctx, alert); err != nil {
		p.collector.NotificationFailed()
		p.publish(events.NotificationFailedEvent{
			BaseEvent: baseEvent(events.NotificationFailed, p.clock.Now()),
			TokenMint: address,
			Keyword:   keyword,
			Error:     err,
		})
		p.logger.Error("notification delivery failed",
			zap.String("token_mint", address),
			zap.String("keyword", keyword),
			zap.Error(err))
		return
	}

	p.collector.NotificationSent()
	p.publish(events.NotificationSentEvent{
		BaseEvent: baseEvent(events.NotificationSent, p.clock.Now()),
		TokenMint: address,
		Keyword:   keyword,
	})
}

// HandleRetry adapts Process to the scheduler's callback signature.
func (p *Pipeline) HandleRetry(ctx context.Context, task resolver.RetryTask) {
	p.Process(ctx, task.Address, task.Attempt)
}

func (p *Pipeline) publish(event events.Event) {
	if err := p.bus.Publish(event); err != nil {
		p.logger.Debug("event dropped", zap.String("event_type", string(event.Type())))
	}
}

func baseEvent(t events.EventType, now time.Time) events.BaseEvent {
	return events.BaseEvent{EventType: t, EventTime: now}
}
