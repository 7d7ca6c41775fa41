package note

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custodia/internal/archive/models"
	id "custodia/pkg/domain"
	txcontext "custodia/pkg/platform/tx"
)

// PostgresStore persists audit notes in PostgreSQL. Rows are only ever
// inserted; there is no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed note store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins an ambient transaction when the caller carries one.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append adds a note to its record's trail.
func (s *PostgresStore) Append(ctx context.Context, note *models.ArchiveNote) error {
	query := `
		INSERT INTO archive_notes (id, record_id, author, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(note.ID), uuid.UUID(note.RecordID), note.Author, note.Text, note.CreatedAt)
	if err != nil {
		return fmt.Errorf("append archive note: %w", err)
	}
	return nil
}

// ListByRecord returns the record's notes in chronological order.
func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.ArchiveNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, author, note, created_at
		FROM archive_notes
		WHERE record_id = $1
		ORDER BY created_at, id
	`, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("list archive notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*models.ArchiveNote, 0)
	for rows.Next() {
		var (
			n        models.ArchiveNote
			rawID    uuid.UUID
			rawRecID uuid.UUID
		)
		if err := rows.Scan(&rawID, &rawRecID, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan archive note: %w", err)
		}
		n.ID = id.NoteID(rawID)
		n.RecordID = id.RecordID(rawRecID)
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list archive notes: %w", err)
	}
	return notes, nil
}
