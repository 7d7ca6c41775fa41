package service

import (
	"context"

	"custodia/internal/archive/models"
	"custodia/internal/audit"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// AddNote appends a manual note to a record's audit trail. Notes are the one
// permitted addition to a terminal record, so no state guard applies beyond
// the record existing.
func (s *Service) AddNote(ctx context.Context, recordID id.RecordID, text string) (*models.ArchiveNote, error) {
	ctx, span := tracer.Start(ctx, "archive.add_note")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadRecord(ctx, recordID); err != nil {
		return nil, err
	}

	note, err := s.recorder.Note(ctx, recordID, text, actor)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append note")
	}

	s.logAudit(ctx, audit.ActionNoteAdded,
		"record_id", recordID.String(),
	)
	s.incrementOperation("add_note", "success")

	return note, nil
}

// ListNotes returns a record's note trail in creation order.
func (s *Service) ListNotes(ctx context.Context, recordID id.RecordID) ([]*models.ArchiveNote, error) {
	ctx, span := tracer.Start(ctx, "archive.list_notes")
	defer span.End()

	if _, err := s.loadRecord(ctx, recordID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notes")
	}
	return notes, nil
}
