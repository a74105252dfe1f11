// internal/resolver/retry.go
package resolver

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RetryTask is one pending re-resolution attempt for an address.
type RetryTask struct {
	Address       string
	Attempt       int // 1-based; the attempt this task will perform
	NextAttemptAt time.Time
}

type taskHeap []RetryTask

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].NextAttemptAt.Before(h[j].NextAttemptAt) }
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(RetryTask)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	task := old[n-1]
	*h = old[:n-1]
	return task
}

// RetryHandler re-runs the cascade for a due task. Implemented by the bot
// worker; on another miss it calls Schedule again with task.Attempt + 1.
type RetryHandler func(ctx context.Context, task RetryTask)

// Scheduler re-enqueues unresolved addresses at progressively longer delays
// (default 30s, 2m, 5m). One sweep goroutine drains due tasks on a tick; no
// per-retry goroutines are spawned. Addresses that exhaust the delay table
// are dropped permanently and only counted.
type Scheduler struct {
	mu      sync.Mutex
	tasks   taskHeap
	pending map[string]struct{}
	delays  []time.Duration
	clock   Clock
	handler RetryHandler
	logger  *zap.Logger

	exhausted uint64
	scheduled uint64
}

// NewScheduler builds a scheduler with the given delay table. The table's
// length is the maximum attempt count.
func NewScheduler(delays []time.Duration, clock Clock, handler RetryHandler, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		pending: make(map[string]struct{}),
		delays:  delays,
		clock:   clock,
		handler: handler,
		logger:  logger.Named("retry"),
	}
	heap.Init(&s.tasks)
	return s
}

// Schedule enqueues attempt number `attempt` for address. Returns false when
// the attempt budget is exhausted or the address is already queued; in the
// former case the address is permanently marked unresolved.
func (s *Scheduler) Schedule(address string, attempt int) bool {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(s.delays) {
		atomic.AddUint64(&s.exhausted, 1)
		s.logger.Debug("retry budget exhausted, address left unresolved",
			zap.String("token_mint", address),
			zap.Int("attempts", attempt-1))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, queued := s.pending[address]; queued {
		return false
	}

	delay := s.delays[attempt-1]
	task := RetryTask{
		Address:       address,
		Attempt:       attempt,
		NextAttemptAt: s.clock.Now().Add(delay),
	}
	heap.Push(&s.tasks, task)
	s.pending[address] = struct{}{}
	atomic.AddUint64(&s.scheduled, 1)

	s.logger.Debug("retry scheduled",
		zap.String("token_mint", address),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay))
	return true
}

// Run sweeps the queue until ctx is done.
func (s *Scheduler) Run(ctx context.Context, sweepInterval time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	s.logger.Info("retry scheduler started",
		zap.Int("max_attempts", len(s.delays)),
		zap.Duration("sweep_interval", sweepInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retry scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep pops every due task and hands it to the handler. Exposed so tests can
// drive the scheduler with a fake clock instead of waiting out the delays.
func (s *Scheduler) Sweep(ctx context.Context) int {
	now := s.clock.Now()

	s.mu.Lock()
	var due []RetryTask
	for s.tasks.Len() > 0 && !s.tasks[0].NextAttemptAt.After(now) {
		task := heap.Pop(&s.tasks).(RetryTask)
		delete(s.pending, task.Address)
		due = append(due, task)
	}
	s.mu.Unlock()

	for _, task := range due {
		s.handler(ctx, task)
	}
	return len(due)
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Len()
}

// MaxAttempts returns the attempt budget.
func (s *Scheduler) MaxAttempts() int { return len(s.delays) }

// Stats returns scheduled and exhausted counters.
func (s *Scheduler) Stats() (scheduled, exhausted uint64) {
	return atomic.LoadUint64(&s.scheduled), atomic.LoadUint64(&s.exhausted)
}
