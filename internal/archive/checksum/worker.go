package checksum

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custodia/internal/archive/metrics"
	"custodia/internal/archive/models"
	"custodia/internal/archive/store/work"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

const (
	defaultLease       = 5 * time.Minute
	defaultIdleDelay   = 15 * time.Second
	defaultMaxAttempts = 8
)

// Queue is the consumer-side surface of the deferred checksum queue.
type Queue interface {
	Claim(ctx context.Context, lease time.Duration) (*work.Item, error)
	Complete(ctx context.Context, recordID id.RecordID) error
	Pending(ctx context.Context) (int, error)
}

// Waiter is implemented by queues that can block until work arrives instead
// of sleeping between polls.
type Waiter interface {
	AwaitWork(ctx context.Context, maxWait time.Duration) error
}

// RecordStore is the slice of record persistence the consumer needs.
type RecordStore interface {
	FindByID(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error)
	Execute(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error, mutate func(*models.ArchiveRecord)) (*models.ArchiveRecord, error)
}

// Worker drains the deferred checksum queue. Processing is idempotent:
// records that already carry a digest are completed without recomputation,
// and the digest is written through the record store's single write path so
// a racing consumer loses cleanly.
type Worker struct {
	queue   Queue
	records RecordStore
	engine  *Engine

	logger      *slog.Logger
	metrics     *metrics.Metrics
	clock       func() time.Time
	lease       time.Duration
	idleDelay   time.Duration
	maxAttempts int
}

// WorkerOption configures optional Worker dependencies.
type WorkerOption func(w *Worker)

// WithLogger sets the worker logger.
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithMetrics enables queue and digest metrics.
func WithMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithClock sets the time source for digest write timestamps.
func WithClock(clock func() time.Time) WorkerOption {
	return func(w *Worker) {
		w.clock = clock
	}
}

// WithLease sets how long a claimed item stays invisible to other consumers.
func WithLease(lease time.Duration) WorkerOption {
	return func(w *Worker) {
		w.lease = lease
	}
}

// WithIdleDelay sets how long the worker waits when the queue is empty.
func WithIdleDelay(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.idleDelay = d
	}
}

// WithMaxAttempts caps redeliveries before an item that keeps failing is
// dropped from the queue.
func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		w.maxAttempts = n
	}
}

func NewWorker(queue Queue, records RecordStore, engine *Engine, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:       queue,
		records:     records,
		engine:      engine,
		logger:      slog.Default(),
		clock:       time.Now,
		lease:       defaultLease,
		idleDelay:   defaultIdleDelay,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run claims and processes deferred checksum work until the context ends.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		item, err := w.queue.Claim(ctx, w.lease)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			w.metrics.IncrementQueueClaim("empty")
			w.reportDepth(ctx)
			if err := w.wait(ctx); err != nil {
				return err
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.metrics.IncrementQueueClaim("error")
			w.logger.Warn("claim checksum work", "error", err)
			if err := w.wait(ctx); err != nil {
				return err
			}
			continue
		}

		w.metrics.IncrementQueueClaim("claimed")
		w.process(ctx, item)
	}
}

// wait blocks until more work is likely available. Queues with LISTEN-style
// wakeups cut the idle latency; the rest sleep out the idle delay.
func (w *Worker) wait(ctx context.Context) error {
	if waiter, ok := w.queue.(Waiter); ok {
		if err := waiter.AwaitWork(ctx, w.idleDelay); err != nil {
			w.logger.Warn("await checksum work", "error", err)
		}
		return ctx.Err()
	}

	timer := time.NewTimer(w.idleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// process handles one claimed item. Failures leave the item to lease expiry
// for redelivery; only unrecoverable items are completed without a digest.
func (w *Worker) process(ctx context.Context, item *work.Item) {
	logger := w.logger.With("record_id", item.RecordID, "attempts", item.Attempts)

	record, err := w.records.FindByID(ctx, item.RecordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		logger.Info("dropping checksum work for deleted record")
		w.complete(ctx, item.RecordID, logger)
		return
	}
	if err != nil {
		logger.Warn("load record for checksum", "error", err)
		return
	}

	if record.HasChecksum() {
		// Duplicate delivery; the digest is already recorded.
		w.complete(ctx, item.RecordID, logger)
		return
	}
	if record.Status.IsTerminal() {
		logger.Info("dropping checksum work for terminal record", "status", record.Status)
		w.complete(ctx, item.RecordID, logger)
		return
	}

	sum, err := w.engine.Calculate(ctx, record)
	if err != nil {
		if item.Attempts >= w.maxAttempts {
			logger.Error("giving up on checksum work", "error", err)
			w.complete(ctx, item.RecordID, logger)
			return
		}
		logger.Warn("compute deferred checksum", "error", err)
		return
	}

	now := w.clock()
	_, err = w.records.Execute(ctx, record.ID,
		func(r *models.ArchiveRecord) error {
			return r.CanRecordChecksum()
		},
		func(r *models.ArchiveRecord) {
			r.ApplyChecksum(sum, now)
		})
	switch {
	case dErrors.HasCode(err, dErrors.CodeImmutable):
		// Another consumer won the race.
	case err != nil:
		logger.Warn("record deferred checksum", "error", err)
		return
	default:
		w.metrics.IncrementChecksumComputed()
		logger.Info("recorded deferred checksum")
	}
	w.complete(ctx, item.RecordID, logger)
}

func (w *Worker) complete(ctx context.Context, recordID id.RecordID, logger *slog.Logger) {
	if err := w.queue.Complete(ctx, recordID); err != nil {
		logger.Warn("complete checksum work", "error", err)
	}
}

func (w *Worker) reportDepth(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	depth, err := w.queue.Pending(ctx)
	if err != nil {
		return
	}
	w.metrics.SetQueueDepth(depth)
}
