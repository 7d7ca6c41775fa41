package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custodia/internal/archive/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists archive records in PostgreSQL. The
// at-most-one-active-record invariant is enforced by a partial unique index
// on (asset_ref) over the active statuses, so concurrent creates race at the
// database instead of in application code.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, asset_ref, asset_type, status, file_name, mime_type,
	file_size_bytes, is_private, reason, reason_other, public_description,
	internal_notes, file_checksum, classification_date, late_archive,
	prior_void_exists, usage_detected, file_missing, integrity_mismatch,
	modified_after_archive, archived_while_in_use, usage_count_at_archive,
	archived_by, deleted_date, deleted_by, created_at, updated_at`

// CreateIfNoActive inserts the record. The partial unique index rejects the
// insert when the asset reference already holds an active record.
func (s *PostgresStore) CreateIfNoActive(ctx context.Context, rec *models.ArchiveRecord) error {
	query := `
		INSERT INTO archive_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`
	_, err := s.db.ExecContext(ctx, query, insertArgs(rec)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("asset already has an active archive record: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create archive record: %w", err)
	}
	return nil
}

// FindByID loads one record.
func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM archive_records WHERE id = $1`,
		uuid.UUID(recordID))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("archive record not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find archive record: %w", err)
	}
	return rec, nil
}

// FindActiveByAssetRef loads the record occupying the asset's active slot.
func (s *PostgresStore) FindActiveByAssetRef(ctx context.Context, ref id.AssetRef) (*models.ArchiveRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM archive_records WHERE asset_ref = $1 AND status = ANY($2)`,
		ref.Key(), pq.Array(activeStatusStrings()))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no active archive record for asset: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find active archive record: %w", err)
	}
	return rec, nil
}

// HasVoidForAssetRef reports whether the asset ever had a record voided for
// an integrity violation.
func (s *PostgresStore) HasVoidForAssetRef(ctx context.Context, ref id.AssetRef) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM archive_records WHERE asset_ref = $1 AND status = $2)`,
		ref.Key(), string(models.StatusExemptionVoid)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check prior void: %w", err)
	}
	return exists, nil
}

// List returns the matching records, newest first.
func (s *PostgresStore) List(ctx context.Context, filter models.RecordFilter) ([]*models.ArchiveRecord, error) {
	var conds []string
	var args []any
	if len(filter.Statuses) > 0 {
		args = append(args, pq.Array(statusStrings(filter.Statuses)))
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.AssetType != "" {
		args = append(args, string(filter.AssetType))
		conds = append(conds, fmt.Sprintf("asset_type = $%d", len(args)))
	}

	query := `SELECT ` + recordColumns + ` FROM archive_records`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list archive records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ArchiveRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list archive records: %w", err)
	}
	return records, nil
}

// Execute atomically loads a record under a row lock, validates it, applies
// the mutation, and writes the result back. Mutations touching frozen fields
// are rejected and nothing is written.
func (s *PostgresStore) Execute(
	ctx context.Context,
	recordID id.RecordID,
	validate func(*models.ArchiveRecord) error,
	mutate func(*models.ArchiveRecord),
) (*models.ArchiveRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM archive_records WHERE id = $1 FOR UPDATE`,
		uuid.UUID(recordID))
	cur, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("archive record not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load archive record for update: %w", err)
	}

	work := cloneRecord(cur)
	if err := validate(work); err != nil {
		return nil, err
	}
	mutate(work)
	if err := checkFrozenFields(cur, work); err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE archive_records SET
			status = $2,
			file_name = $3,
			mime_type = $4,
			file_size_bytes = $5,
			is_private = $6,
			reason = $7,
			reason_other = $8,
			public_description = $9,
			internal_notes = $10,
			file_checksum = $11,
			classification_date = $12,
			late_archive = $13,
			prior_void_exists = $14,
			usage_detected = $15,
			file_missing = $16,
			integrity_mismatch = $17,
			modified_after_archive = $18,
			archived_while_in_use = $19,
			usage_count_at_archive = $20,
			archived_by = $21,
			deleted_date = $22,
			deleted_by = $23,
			updated_at = $24
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, updateQuery,
		uuid.UUID(work.ID),
		string(work.Status),
		work.FileName,
		work.MimeType,
		work.FileSizeBytes,
		work.IsPrivate,
		string(work.Reason),
		work.ReasonOther,
		work.PublicDescription,
		work.InternalNotes,
		nullString(work.FileChecksum),
		nullTime(work.ClassificationDate),
		work.LateArchive,
		work.PriorVoidExists,
		work.UsageDetected,
		work.FileMissing,
		work.IntegrityMismatch,
		work.ModifiedAfterArchive,
		work.ArchivedWhileInUse,
		work.UsageCountAtArchive,
		work.ArchivedBy,
		nullTime(work.DeletedDate),
		work.DeletedBy,
		work.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update archive record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record update: %w", err)
	}
	return work, nil
}

// Delete removes a record after the validate callback approves it, under a
// row lock so the state cannot change between check and delete.
func (s *PostgresStore) Delete(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM archive_records WHERE id = $1 FOR UPDATE`,
		uuid.UUID(recordID))
	cur, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("archive record not found: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("load archive record for delete: %w", err)
	}
	if err := validate(cur); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM archive_records WHERE id = $1`, uuid.UUID(recordID)); err != nil {
		return fmt.Errorf("delete archive record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record delete: %w", err)
	}
	return nil
}

func insertArgs(rec *models.ArchiveRecord) []any {
	return []any{
		uuid.UUID(rec.ID),
		rec.AssetRef.Key(),
		string(rec.AssetType),
		string(rec.Status),
		rec.FileName,
		rec.MimeType,
		rec.FileSizeBytes,
		rec.IsPrivate,
		string(rec.Reason),
		rec.ReasonOther,
		rec.PublicDescription,
		rec.InternalNotes,
		nullString(rec.FileChecksum),
		nullTime(rec.ClassificationDate),
		rec.LateArchive,
		rec.PriorVoidExists,
		rec.UsageDetected,
		rec.FileMissing,
		rec.IntegrityMismatch,
		rec.ModifiedAfterArchive,
		rec.ArchivedWhileInUse,
		rec.UsageCountAtArchive,
		rec.ArchivedBy,
		nullTime(rec.DeletedDate),
		rec.DeletedBy,
		rec.CreatedAt,
		rec.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ArchiveRecord, error) {
	var (
		rec          models.ArchiveRecord
		rawID        uuid.UUID
		rawRef       string
		rawType      string
		rawStatus    string
		rawReason    string
		checksum     sql.NullString
		classifiedAt sql.NullTime
		deletedAt    sql.NullTime
	)
	err := row.Scan(
		&rawID,
		&rawRef,
		&rawType,
		&rawStatus,
		&rec.FileName,
		&rec.MimeType,
		&rec.FileSizeBytes,
		&rec.IsPrivate,
		&rawReason,
		&rec.ReasonOther,
		&rec.PublicDescription,
		&rec.InternalNotes,
		&checksum,
		&classifiedAt,
		&rec.LateArchive,
		&rec.PriorVoidExists,
		&rec.UsageDetected,
		&rec.FileMissing,
		&rec.IntegrityMismatch,
		&rec.ModifiedAfterArchive,
		&rec.ArchivedWhileInUse,
		&rec.UsageCountAtArchive,
		&rec.ArchivedBy,
		&deletedAt,
		&rec.DeletedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = id.RecordID(rawID)
	ref, err := id.ParseAssetRef(rawRef)
	if err != nil {
		return nil, fmt.Errorf("stored asset_ref is invalid: %w", err)
	}
	rec.AssetRef = ref
	rec.AssetType = models.AssetType(rawType)
	rec.Status = models.Status(rawStatus)
	rec.Reason = models.Reason(rawReason)
	if checksum.Valid {
		rec.FileChecksum = checksum.String
	}
	if classifiedAt.Valid {
		t := classifiedAt.Time
		rec.ClassificationDate = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		rec.DeletedDate = &t
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func activeStatusStrings() []string {
	return statusStrings(models.ActiveStatuses())
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
