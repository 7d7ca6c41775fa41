package audit

import (
	"context"
	"time"

	"custodia/internal/archive/models"
	id "custodia/pkg/domain"
	"custodia/pkg/requestcontext"
)

// NoteWriter appends to a record's append-only note trail.
type NoteWriter interface {
	Append(ctx context.Context, note *models.ArchiveNote) error
}

// Publisher ships structured events to an external sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Recorder is the audit trail entry point. Operation notes land on the
// record's append-only trail; structured events go to the stream publisher.
// The note trail is the system of record, the stream is best-effort.
type Recorder struct {
	notes  NoteWriter
	stream Publisher
	clock  func() time.Time
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithStream attaches a stream publisher for structured events. Without one,
// Emit is a no-op and only the note trail is written.
func WithStream(stream Publisher) Option {
	return func(r *Recorder) {
		r.stream = stream
	}
}

// WithClock overrides the timestamp source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

func NewRecorder(notes NoteWriter, opts ...Option) *Recorder {
	r := &Recorder{
		notes: notes,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Note appends text to the record's audit trail and returns the stored note.
func (r *Recorder) Note(ctx context.Context, recordID id.RecordID, text, author string) (*models.ArchiveNote, error) {
	note, err := models.NewNote(id.NewNoteID(), recordID, author, text, r.clock())
	if err != nil {
		return nil, err
	}
	if err := r.notes.Append(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Emit forwards a structured event to the stream publisher. A zero timestamp
// is stamped from the recorder clock; a missing request id is taken from the
// context when middleware populated one.
func (r *Recorder) Emit(ctx context.Context, event Event) error {
	if r.stream == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.clock()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return r.stream.Emit(ctx, event)
}
