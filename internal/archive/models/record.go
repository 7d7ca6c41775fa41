package models

import (
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// ArchiveRecord is the aggregate root for one compliance decision about one
// asset. The record classifies content in place; the content itself is never
// moved, and deleting the record is never how content disappears.
//
// Invariants:
//   - Status transitions follow the validTransitions graph; terminal states
//     accept no operation except the ExemptionVoid withdrawal edge
//   - FileChecksum and ClassificationDate are write-once: set during
//     execution (or by the deferred checksum consumer) and frozen after
//   - ArchivedWhileInUse and UsageCountAtArchive are a snapshot taken at
//     execution and never revised
//   - Manual entries (page/external) carry no file metadata, no checksum,
//     and are exempt from the usage gate and integrity verification
//   - At most one record per asset reference may hold an active status;
//     enforced by the store, not by the aggregate
//
// # Terminal States
//
// ArchivedDeleted and ExemptionVoid reject every state-changing operation.
// The single exception: an ExemptionVoid record can still be withdrawn
// (Unarchive or DeleteFile moves it to ArchivedDeleted), because voiding
// invalidates the exemption, not the decision to retire the content.
// Audit notes remain appendable in every status; they are observations
// about the record, not mutations of it.
//
// # Write-Once Fields
//
// Classification is a statement about an instant: what the content hashed
// to and when the compliance decision was made. Revising either would
// rewrite history, so overwrites fail loudly (ImmutabilityError) instead of
// being silently ignored. The stores enforce the same freeze on their write
// path independently of the aggregate.
type ArchiveRecord struct {
	ID        id.RecordID `json:"id"`
	AssetRef  id.AssetRef `json:"asset_ref"`
	AssetType AssetType   `json:"asset_type"`
	Status    Status      `json:"status"`

	FileName      string `json:"file_name,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	FileSizeBytes int64  `json:"file_size_bytes"`
	IsPrivate     bool   `json:"is_private"`

	Reason            Reason `json:"reason"`
	ReasonOther       string `json:"reason_other,omitempty"`
	PublicDescription string `json:"public_description,omitempty"`
	InternalNotes     string `json:"internal_notes,omitempty"`

	FileChecksum       string     `json:"file_checksum,omitempty"`
	ClassificationDate *time.Time `json:"classification_date,omitempty"`

	// Classification facts, written at execution and never cleared.
	LateArchive     bool `json:"late_archive"`
	PriorVoidExists bool `json:"prior_void_exists"`

	// Operational advisory flags, owned by reconciliation. They describe
	// the asset's current condition, not the compliance decision.
	UsageDetected        bool `json:"usage_detected"`
	FileMissing          bool `json:"file_missing"`
	IntegrityMismatch    bool `json:"integrity_mismatch"`
	ModifiedAfterArchive bool `json:"modified_after_archive"`

	ArchivedWhileInUse  bool `json:"archived_while_in_use"`
	UsageCountAtArchive int  `json:"usage_count_at_archive"`

	ArchivedBy  string     `json:"archived_by"`
	DeletedDate *time.Time `json:"deleted_date,omitempty"`
	DeletedBy   string     `json:"deleted_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord creates a Queued record for a file-based asset. File metadata is
// snapshotted at queue time so later storage changes do not rewrite the
// compliance picture.
func NewRecord(
	recordID id.RecordID,
	assetRef id.AssetRef,
	assetType AssetType,
	fileName string,
	mimeType string,
	fileSizeBytes int64,
	isPrivate bool,
	reason Reason,
	reasonOther string,
	publicDescription string,
	internalNotes string,
	actor string,
	now time.Time,
) (*ArchiveRecord, error) {
	if !assetType.IsFileBased() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "asset type %q cannot be queued: only documents and videos are eligible", assetType)
	}
	if fileSizeBytes < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "file size cannot be negative")
	}
	base, err := newBase(recordID, assetRef, assetType, reason, reasonOther, publicDescription, internalNotes, actor, now)
	if err != nil {
		return nil, err
	}
	base.FileName = fileName
	base.MimeType = mimeType
	base.FileSizeBytes = fileSizeBytes
	base.IsPrivate = isPrivate
	return base, nil
}

// NewManualRecord creates a Queued record for a hand-registered page or
// external resource. Manual entries describe content the platform does not
// hold, so they carry no file metadata.
func NewManualRecord(
	recordID id.RecordID,
	assetRef id.AssetRef,
	assetType AssetType,
	reason Reason,
	reasonOther string,
	publicDescription string,
	internalNotes string,
	actor string,
	now time.Time,
) (*ArchiveRecord, error) {
	if !assetType.IsManual() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "asset type %q is not a manual entry type", assetType)
	}
	return newBase(recordID, assetRef, assetType, reason, reasonOther, publicDescription, internalNotes, actor, now)
}

func newBase(
	recordID id.RecordID,
	assetRef id.AssetRef,
	assetType AssetType,
	reason Reason,
	reasonOther string,
	publicDescription string,
	internalNotes string,
	actor string,
	now time.Time,
) (*ArchiveRecord, error) {
	if recordID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "record id cannot be nil")
	}
	if assetRef.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "asset reference cannot be empty")
	}
	if !reason.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown archive reason: %q", reason)
	}
	if reason.RequiresDetail() && reasonOther == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason detail is required when the reason is other")
	}
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor cannot be empty")
	}
	return &ArchiveRecord{
		ID:                recordID,
		AssetRef:          assetRef,
		AssetType:         assetType,
		Status:            StatusQueued,
		Reason:            reason,
		ReasonOther:       reasonOther,
		PublicDescription: publicDescription,
		InternalNotes:     internalNotes,
		ArchivedBy:        actor,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsManual reports whether the record is a hand-registered entry with no
// physical file behind it.
func (r *ArchiveRecord) IsManual() bool {
	return r.AssetType.IsManual()
}

// IsLegacy reports whether the record was classified before the compliance
// deadline. Meaningful only after execution; a queued record is trivially
// legacy until classified.
func (r *ArchiveRecord) IsLegacy() bool {
	return !r.LateArchive
}

// HasChecksum reports whether a checksum has been recorded. False after
// execution means the hash was deferred to the background consumer.
func (r *ArchiveRecord) HasChecksum() bool {
	return r.FileChecksum != ""
}

// IsClassified reports whether execution has stamped the classification
// instant.
func (r *ArchiveRecord) IsClassified() bool {
	return r.ClassificationDate != nil
}

// guardNotTerminal is the shared rejection for operations that never apply
// to a terminal record.
func (r *ArchiveRecord) guardNotTerminal() error {
	if r.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeTerminalState, "record is %s and accepts no further changes", r.Status)
	}
	return nil
}

// Execution carries everything a successful execution stamps onto the
// record in one step. Checksum is empty when hashing was deferred to the
// background consumer.
type Execution struct {
	Visibility      Status
	Actor           string
	Checksum        string
	ReferenceCount  int
	LateArchive     bool
	PriorVoidExists bool
}

// CanExecute checks that the record can be executed into the given
// visibility. Returns an error if the record is not queued or the
// visibility is not an archived status.
// Use with ApplyExecution in Execute callbacks for proper separation of concerns.
func (r *ArchiveRecord) CanExecute(visibility Status) error {
	if !visibility.IsArchived() {
		return dErrors.New(dErrors.CodeValidation, "visibility must be public or admin")
	}
	if err := r.guardNotTerminal(); err != nil {
		return err
	}
	if r.Status != StatusQueued {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only queued records can be executed, record is %s", r.Status)
	}
	return nil
}

// ApplyExecution transitions the record to its archived status and freezes
// the classification snapshot. Call CanExecute first to validate.
func (r *ArchiveRecord) ApplyExecution(ex Execution, now time.Time) {
	r.Status = ex.Visibility
	r.FileChecksum = ex.Checksum
	classifiedAt := now
	r.ClassificationDate = &classifiedAt
	r.LateArchive = ex.LateArchive
	r.PriorVoidExists = ex.PriorVoidExists
	r.ArchivedWhileInUse = ex.ReferenceCount > 0
	r.UsageCountAtArchive = ex.ReferenceCount
	r.UsageDetected = ex.ReferenceCount > 0
	r.FileMissing = false
	r.ArchivedBy = ex.Actor
	r.UpdatedAt = now
}

// Execute validates and applies execution in one call.
// Prefer CanExecute + ApplyExecution for Execute callback pattern.
func (r *ArchiveRecord) Execute(ex Execution, now time.Time) error {
	if err := r.CanExecute(ex.Visibility); err != nil {
		return err
	}
	r.ApplyExecution(ex, now)
	return nil
}

// ToggledVisibility returns the status a visibility toggle would move to.
// Zero for records that are not currently archived.
func (r *ArchiveRecord) ToggledVisibility() Status {
	switch r.Status {
	case StatusArchivedPublic:
		return StatusArchivedAdmin
	case StatusArchivedAdmin:
		return StatusArchivedPublic
	}
	return ""
}

// CanToggleVisibility checks that the record can flip between public and
// admin visibility.
// Use with ApplyVisibilityToggle in Execute callbacks for proper separation of concerns.
func (r *ArchiveRecord) CanToggleVisibility() error {
	if err := r.guardNotTerminal(); err != nil {
		return err
	}
	if !r.Status.IsArchived() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only archived records can change visibility, record is %s", r.Status)
	}
	return nil
}

// ApplyVisibilityToggle flips the record between public and admin
// visibility. Advisory flags are untouched: they describe the asset, not
// who may see the listing. Call CanToggleVisibility first to validate.
func (r *ArchiveRecord) ApplyVisibilityToggle(now time.Time) {
	r.Status = r.ToggledVisibility()
	r.UpdatedAt = now
}

// ToggleVisibility validates and applies the flip in one call.
// Prefer CanToggleVisibility + ApplyVisibilityToggle for Execute callback pattern.
func (r *ArchiveRecord) ToggleVisibility(now time.Time) error {
	if err := r.CanToggleVisibility(); err != nil {
		return err
	}
	r.ApplyVisibilityToggle(now)
	return nil
}

// canWithdraw is the shared state check for Unarchive and DeleteFile: both
// accept archived records and voided ones (the ExemptionVoid withdrawal
// edge), and nothing else.
func (r *ArchiveRecord) canWithdraw() error {
	if r.Status == StatusArchivedDeleted {
		return dErrors.New(dErrors.CodeTerminalState, "record is already deleted")
	}
	if r.Status == StatusQueued {
		return dErrors.New(dErrors.CodeInvariantViolation, "queued records are removed from the queue, not unarchived")
	}
	return nil
}

// CanUnarchive checks that the record can be withdrawn from the archive.
// Use with ApplyUnarchive in Execute callbacks for proper separation of concerns.
func (r *ArchiveRecord) CanUnarchive() error {
	return r.canWithdraw()
}

// ApplyUnarchive withdraws the public listing. The content itself still
// exists, so the operational advisory flags are cleared along with the
// listing they annotated. Call CanUnarchive first to validate.
func (r *ArchiveRecord) ApplyUnarchive(actor string, now time.Time) {
	r.Status = StatusArchivedDeleted
	r.ClearAdvisoryFlags()
	deletedAt := now
	r.DeletedDate = &deletedAt
	r.DeletedBy = actor
	r.UpdatedAt = now
}

// Unarchive validates and applies the withdrawal in one call.
// Prefer CanUnarchive + ApplyUnarchive for Execute callback pattern.
func (r *ArchiveRecord) Unarchive(actor string, now time.Time) error {
	if err := r.CanUnarchive(); err != nil {
		return err
	}
	r.ApplyUnarchive(actor, now)
	return nil
}

// CanDeleteFile checks that the record's content can be physically removed.
// Use with ApplyFileDeletion in Execute callbacks for proper separation of concerns.
func (r *ArchiveRecord) CanDeleteFile() error {
	return r.canWithdraw()
}

// ApplyFileDeletion marks the record deleted after its content is removed.
// Advisory flags are kept: they explain why the content went away. Call
// CanDeleteFile first to validate.
func (r *ArchiveRecord) ApplyFileDeletion(actor string, now time.Time) {
	r.Status = StatusArchivedDeleted
	deletedAt := now
	r.DeletedDate = &deletedAt
	r.DeletedBy = actor
	r.UpdatedAt = now
}

// DeleteFile validates and applies the deletion in one call.
// Prefer CanDeleteFile + ApplyFileDeletion for Execute callback pattern.
func (r *ArchiveRecord) DeleteFile(actor string, now time.Time) error {
	if err := r.CanDeleteFile(); err != nil {
		return err
	}
	r.ApplyFileDeletion(actor, now)
	return nil
}

// CanVoidExemption checks that the record can be voided for an integrity
// violation. Only executed archives are integrity-checked.
// Use with ApplyExemptionVoid in Execute callbacks for proper separation of concerns.
func (r *ArchiveRecord) CanVoidExemption() error {
	if err := r.guardNotTerminal(); err != nil {
		return err
	}
	if !r.Status.IsArchived() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only archived records can be voided, record is %s", r.Status)
	}
	return nil
}

// ApplyExemptionVoid transitions the record to ExemptionVoid. The record
// stays visible for audit; the asset permanently loses legacy eligibility
// through the prior-void lookup, not through this record. Call
// CanVoidExemption first to validate.
func (r *ArchiveRecord) ApplyExemptionVoid(now time.Time) {
	r.Status = StatusExemptionVoid
	r.UpdatedAt = now
}

// VoidExemption validates and applies the void in one call.
// Prefer CanVoidExemption + ApplyExemptionVoid for Execute callback pattern.
func (r *ArchiveRecord) VoidExemption(now time.Time) error {
	if err := r.CanVoidExemption(); err != nil {
		return err
	}
	r.ApplyExemptionVoid(now)
	return nil
}

// CanRemoveFromQueue checks that the record never left the queue: removal
// is a hard delete, legal only before a compliance decision was executed.
func (r *ArchiveRecord) CanRemoveFromQueue() error {
	if err := r.guardNotTerminal(); err != nil {
		return err
	}
	if r.Status != StatusQueued {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only queued records can be removed from the queue, record is %s", r.Status)
	}
	return nil
}

// CanRecordChecksum validates that the checksum slot is still empty. The
// field is write-once: a second write fails loudly rather than silently
// replacing the stored value. Use with ApplyChecksum in Execute callbacks
// for proper separation of concerns.
func (r *ArchiveRecord) CanRecordChecksum() error {
	if r.FileChecksum != "" {
		return dErrors.New(dErrors.CodeImmutable, "checksum is already recorded and cannot be overwritten")
	}
	return nil
}

// ApplyChecksum stores the digest. Call CanRecordChecksum first to validate.
func (r *ArchiveRecord) ApplyChecksum(sum string, now time.Time) {
	r.FileChecksum = sum
	r.UpdatedAt = now
}

// SetChecksum records the deferred checksum computed by the background
// consumer. Prefer CanRecordChecksum + ApplyChecksum for the Execute
// callback pattern.
func (r *ArchiveRecord) SetChecksum(sum string, now time.Time) error {
	if sum == "" {
		return dErrors.New(dErrors.CodeValidation, "checksum cannot be empty")
	}
	if err := r.CanRecordChecksum(); err != nil {
		return err
	}
	r.ApplyChecksum(sum, now)
	return nil
}

// Inspection captures the facts reconciliation observed about a record's
// backing content and current usage.
type Inspection struct {
	FileMissing          bool
	IntegrityMismatch    bool
	UsageDetected        bool
	ModifiedAfterArchive bool
}

// InspectionChanged reports whether applying ins would alter the record.
// Reconciliation skips the write entirely when nothing changed.
func (r *ArchiveRecord) InspectionChanged(ins Inspection) bool {
	return r.FileMissing != ins.FileMissing ||
		r.IntegrityMismatch != ins.IntegrityMismatch ||
		r.UsageDetected != ins.UsageDetected ||
		r.ModifiedAfterArchive != ins.ModifiedAfterArchive
}

// ApplyInspection rewrites the operational advisory flags from a fresh
// inspection. Classification facts are untouched.
func (r *ArchiveRecord) ApplyInspection(ins Inspection, now time.Time) {
	r.FileMissing = ins.FileMissing
	r.IntegrityMismatch = ins.IntegrityMismatch
	r.UsageDetected = ins.UsageDetected
	r.ModifiedAfterArchive = ins.ModifiedAfterArchive
	r.UpdatedAt = now
}

// ClearAdvisoryFlags resets the operational advisory flags. Classification
// facts (LateArchive, PriorVoidExists) are not advisory and survive.
func (r *ArchiveRecord) ClearAdvisoryFlags() {
	r.UsageDetected = false
	r.FileMissing = false
	r.IntegrityMismatch = false
	r.ModifiedAfterArchive = false
}
