package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"custodia/internal/archive/models"
	dErrors "custodia/pkg/domain-errors"
)

// RunSweep inspects every non-terminal record once. At most one sweep runs
// at a time; a second invocation fails with a conflict instead of piling on.
func (r *Reconciler) RunSweep(ctx context.Context) (Counters, error) {
	r.mu.Lock()
	if r.sweeping {
		r.mu.Unlock()
		return Counters{}, dErrors.New(dErrors.CodeConflict, "a reconciliation sweep is already running")
	}
	r.sweeping = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.sweeping = false
		r.mu.Unlock()
	}()

	ctx, span := tracer.Start(ctx, "archive.reconcile.sweep")
	defer span.End()

	started := r.clock()
	r.metrics.IncrementReconcileRun("sweep")

	records, err := r.records.List(ctx, models.RecordFilter{Statuses: models.ActiveStatuses()})
	if err != nil {
		return Counters{}, fmt.Errorf("list records for sweep: %w", err)
	}

	var (
		countersMu sync.Mutex
		counters   Counters
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, rec := range records {
		g.Go(func() error {
			_, outcome, err := r.Reconcile(gctx, rec)
			if err != nil {
				r.logger.Warn("reconcile record",
					"record_id", rec.ID, "status", rec.Status, "error", err)
			}
			countersMu.Lock()
			counters.observe(outcome, err)
			countersMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	r.metrics.ObserveSweepDuration(time.Since(started))
	r.logger.Info("reconciliation sweep finished",
		"examined", counters.Examined,
		"updated", counters.Updated,
		"queue_removed", counters.QueueRemoved,
		"exemptions_voided", counters.ExemptionsVoided,
		"files_deleted", counters.FilesDeleted,
		"errors", counters.Errors,
	)
	return counters, ctx.Err()
}

// Sweeper drives periodic sweeps on an interval ticker.
type Sweeper struct {
	reconciler *Reconciler
	interval   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSweeper(reconciler *Reconciler, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger.With("component", "sweeper"),
	}
}

// Start launches the background loop. A non-positive interval disables the
// sweeper entirely; cooperative reconciliation on reads still runs.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.interval <= 0 {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	go s.run(runCtx)

	s.logger.Info("reconciliation sweeper started", "interval", s.interval)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("reconciliation sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.reconciler.RunSweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("scheduled reconciliation sweep", "error", err)
			}
		}
	}
}
