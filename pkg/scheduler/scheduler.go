package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"newshub/pkg/domain"
)

// Runner executes one ingestion cycle
type Runner interface {
	Run(ctx context.Context, dryRun bool) domain.IngestResult
}

// Scheduler triggers periodic ingestion runs. A run that is still going
// when the next tick fires is never doubled up; the tick is skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	running  sync.Mutex // guards against overlapping runs
}

// NewScheduler creates a scheduler over the given runner
func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	if interval == 0 {
		interval = 30 * time.Minute
	}
	return &Scheduler{runner: runner, interval: interval}
}

// Start begins periodic ingestion, running the first cycle immediately
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.worker(ctx)

	lgr.Printf("[INFO] scheduler started with update interval %v", s.interval)
}

// Stop gracefully stops the scheduler, waiting for an in-flight run
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// TriggerNow runs one ingestion cycle on the caller's goroutine. It shares
// the run mutex with the ticker worker, so an on-demand run never overlaps
// a scheduled one; a busy scheduler rejects the trigger instead.
func (s *Scheduler) TriggerNow(ctx context.Context, dryRun bool) (domain.IngestResult, bool) {
	if !s.running.TryLock() {
		return domain.IngestResult{}, false
	}
	defer s.running.Unlock()
	return s.runner.Run(ctx, dryRun), true
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// run immediately on start
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.TryLock() {
		lgr.Printf("[WARN] previous ingestion still running, skipping this cycle")
		return
	}
	defer s.running.Unlock()

	result := s.runner.Run(ctx, false)
	for _, src := range result.Sources {
		if src.Error != "" {
			lgr.Printf("[WARN] source %s failed: %s", src.Source, src.Error)
		}
	}
}
