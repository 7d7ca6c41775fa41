package models

import (
	"time"
	"unicode/utf8"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// maxNoteRunes bounds a single note. Long enough for the system-generated
// explanations, short enough that the audit trail stays readable.
const maxNoteRunes = 4000

// ArchiveNote is one append-only entry in a record's audit trail. Notes
// reference their record but are not owned by it: a terminal record still
// accepts notes, and deleting is not possible in any status.
type ArchiveNote struct {
	ID        id.NoteID   `json:"id"`
	RecordID  id.RecordID `json:"record_id"`
	Author    string      `json:"author"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewNote creates a note for the given record. Text is required and
// bounded; author defaults are the caller's concern (the service passes the
// request actor or the system actor).
func NewNote(noteID id.NoteID, recordID id.RecordID, author, text string, now time.Time) (*ArchiveNote, error) {
	if noteID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "note id cannot be nil")
	}
	if recordID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "note requires a record id")
	}
	if author == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "note author cannot be empty")
	}
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "note text cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxNoteRunes {
		return nil, dErrors.Newf(dErrors.CodeValidation, "note text must be %d characters or less", maxNoteRunes)
	}
	return &ArchiveNote{
		ID:        noteID,
		RecordID:  recordID,
		Author:    author,
		Text:      text,
		CreatedAt: now,
	}, nil
}
