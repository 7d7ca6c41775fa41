package checksum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custodia/internal/archive/models"
	"custodia/internal/archive/store/record"
	"custodia/internal/archive/store/work"
	"custodia/internal/content"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// staleReadStore serves a stale snapshot on reads while writes go to the
// real store, simulating a consumer racing a faster one.
type staleReadStore struct {
	inner *record.InMemory
	stale *models.ArchiveRecord
}

func (s *staleReadStore) FindByID(context.Context, id.RecordID) (*models.ArchiveRecord, error) {
	return s.stale, nil
}

func (s *staleReadStore) Execute(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error, mutate func(*models.ArchiveRecord)) (*models.ArchiveRecord, error) {
	return s.inner.Execute(ctx, recordID, validate, mutate)
}

type WorkerSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	records *record.InMemory
	queue   *work.InMemory
	source  *content.Memory
	worker  *Worker
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	s.records = record.NewInMemory()
	s.queue = work.NewInMemory(work.WithClock(func() time.Time { return s.now }))
	s.source = content.NewMemory()
	s.worker = NewWorker(s.queue, s.records, NewEngine(s.source),
		WithClock(func() time.Time { return s.now }),
		WithMaxAttempts(3),
	)
}

// archivedRecord stores a record that was executed with a deferred digest.
func (s *WorkerSuite) archivedRecord(fileName string) *models.ArchiveRecord {
	ref, err := id.ManagedRef(id.NewAssetID())
	s.Require().NoError(err)

	rec, err := models.NewRecord(
		id.NewRecordID(), ref, models.AssetTypeDocument,
		fileName, "application/pdf", 512<<20, false,
		models.ReasonOutdated, "", "Archived filing", "",
		"auditor@example.com", s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(rec.Execute(models.Execution{
		Visibility: models.StatusArchivedPublic,
		Actor:      "auditor@example.com",
	}, s.now))
	s.Require().NoError(s.records.CreateIfNoActive(s.ctx, rec))
	return rec
}

func (s *WorkerSuite) claim() *work.Item {
	item, err := s.queue.Claim(s.ctx, time.Minute)
	s.Require().NoError(err)
	return item
}

func (s *WorkerSuite) pending() int {
	n, err := s.queue.Pending(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *WorkerSuite) TestProcessRecordsDigest() {
	data := []byte("deferred body")
	s.source.Put("large.pdf", data)
	rec := s.archivedRecord("large.pdf")
	s.Require().NoError(s.queue.Enqueue(s.ctx, rec.ID))

	s.worker.process(s.ctx, s.claim())

	stored, err := s.records.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(hexDigest(data), stored.FileChecksum)
	s.Equal(0, s.pending(), "completed work leaves the queue")
}

func (s *WorkerSuite) TestProcessIsIdempotent() {
	data := []byte("already hashed")
	s.source.Put("done.pdf", data)
	rec := s.archivedRecord("done.pdf")

	first, err := s.records.Execute(s.ctx, rec.ID,
		func(r *models.ArchiveRecord) error { return r.CanRecordChecksum() },
		func(r *models.ArchiveRecord) { r.ApplyChecksum(hexDigest(data), s.now) })
	s.Require().NoError(err)

	// Duplicate delivery after the digest landed.
	s.Require().NoError(s.queue.Enqueue(s.ctx, rec.ID))
	s.worker.process(s.ctx, s.claim())

	stored, err := s.records.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(first.FileChecksum, stored.FileChecksum)
	s.Equal(first.UpdatedAt, stored.UpdatedAt, "no write happened")
	s.Equal(0, s.pending())
}

func (s *WorkerSuite) TestProcessDropsDeletedRecord() {
	ghost := id.NewRecordID()
	s.Require().NoError(s.queue.Enqueue(s.ctx, ghost))

	s.worker.process(s.ctx, s.claim())

	s.Equal(0, s.pending(), "work for a removed record is dropped")
}

func (s *WorkerSuite) TestProcessDropsTerminalRecord() {
	rec := s.archivedRecord("withdrawn.pdf")
	_, err := s.records.Execute(s.ctx, rec.ID,
		func(r *models.ArchiveRecord) error { return r.CanUnarchive() },
		func(r *models.ArchiveRecord) { r.ApplyUnarchive("auditor@example.com", s.now) })
	s.Require().NoError(err)

	s.Require().NoError(s.queue.Enqueue(s.ctx, rec.ID))
	s.worker.process(s.ctx, s.claim())

	stored, err := s.records.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.False(stored.HasChecksum())
	s.Equal(0, s.pending())
}

func (s *WorkerSuite) TestProcessLeavesFailedWorkForRetry() {
	rec := s.archivedRecord("missing.pdf")
	s.Require().NoError(s.queue.Enqueue(s.ctx, rec.ID))

	s.worker.process(s.ctx, s.claim())

	s.Equal(1, s.pending(), "failed work stays leased for redelivery")
}

func (s *WorkerSuite) TestProcessGivesUpAfterMaxAttempts() {
	rec := s.archivedRecord("never-there.pdf")
	s.Require().NoError(s.queue.Enqueue(s.ctx, rec.ID))

	for range 3 {
		item := s.claim()
		s.worker.process(s.ctx, item)
		s.now = s.now.Add(2 * time.Minute) // let the lease lapse
	}

	s.Equal(0, s.pending(), "exhausted work is dropped")
	stored, err := s.records.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.False(stored.HasChecksum())
}

func (s *WorkerSuite) TestProcessLosesWriteRaceCleanly() {
	data := []byte("raced content")
	s.source.Put("raced.pdf", data)
	rec := s.archivedRecord("raced.pdf")

	stale, err := s.records.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)

	winner := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	_, err = s.records.Execute(s.ctx, rec.ID,
		func(r *models.ArchiveRecord) error { return r.CanRecordChecksum() },
		func(r *models.ArchiveRecord) { r.ApplyChecksum(winner, s.now) })
	s.Require().NoError(err)

	racer := NewWorker(s.queue, &staleReadStore{inner: s.records, stale: stale}, NewEngine(s.source),
		WithClock(func() time.Time { return s.now }))
	s.Require().NoError(s.queue.Enqueue(s.ctx, rec.ID))
	racer.process(s.ctx, s.claim())

	stored, err := s.records.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(winner, stored.FileChecksum, "the first digest stays")
	s.Equal(0, s.pending())
}

func (s *WorkerSuite) TestRunStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.worker.Run(ctx)
	s.ErrorIs(err, context.Canceled)
}

func (s *WorkerSuite) TestClaimOnEmptyQueue() {
	_, err := s.queue.Claim(s.ctx, time.Minute)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
