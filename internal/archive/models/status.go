package models

import (
	dErrors "custodia/pkg/domain-errors"
)

// Status is the lifecycle state of an archive record.
type Status string

const (
	// StatusQueued marks a record awaiting execution. The asset keeps its
	// normal behavior; nothing is routed or rewritten yet.
	StatusQueued Status = "queued"

	// StatusArchivedPublic marks an executed archive whose content remains
	// publicly reachable behind the archived label.
	StatusArchivedPublic Status = "archived_public"

	// StatusArchivedAdmin marks an executed archive visible to
	// administrators only.
	StatusArchivedAdmin Status = "archived_admin"

	// StatusArchivedDeleted marks a permanent withdrawal. Terminal.
	StatusArchivedDeleted Status = "archived_deleted"

	// StatusExemptionVoid marks a Legacy record invalidated by a content
	// change after classification. Terminal; kept visible for audit.
	StatusExemptionVoid Status = "exemption_void"
)

// validTransitions is the complete lifecycle graph. Absence means forbidden;
// the two terminal states have no outgoing edges.
var validTransitions = map[Status][]Status{
	StatusQueued:          {StatusArchivedPublic, StatusArchivedAdmin},
	StatusArchivedPublic:  {StatusArchivedAdmin, StatusArchivedDeleted, StatusExemptionVoid},
	StatusArchivedAdmin:   {StatusArchivedPublic, StatusArchivedDeleted, StatusExemptionVoid},
	StatusArchivedDeleted: {},
	StatusExemptionVoid:   {StatusArchivedDeleted},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
// driven by operations. ExemptionVoid can still be withdrawn (Unarchive or
// DeleteFile moves it to ArchivedDeleted) but accepts no other change.
func (s Status) IsTerminal() bool {
	return s == StatusArchivedDeleted || s == StatusExemptionVoid
}

// IsArchived reports whether the record has been executed and not withdrawn.
func (s Status) IsArchived() bool {
	return s == StatusArchivedPublic || s == StatusArchivedAdmin
}

// IsActive reports whether the record occupies the asset's single active
// slot. At most one record per asset reference may be in an active status.
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusArchivedPublic || s == StatusArchivedAdmin
}

// ParseStatus validates a stored status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusQueued, StatusArchivedPublic, StatusArchivedAdmin, StatusArchivedDeleted, StatusExemptionVoid:
		return Status(s), true
	}
	return "", false
}

func (s Status) String() string { return string(s) }

// ActiveStatuses lists the statuses that occupy an asset's active slot, in
// the order the storage layer indexes them.
func ActiveStatuses() []Status {
	return []Status{StatusQueued, StatusArchivedPublic, StatusArchivedAdmin}
}

// ParseVisibility maps the execution visibility parameter onto its archived
// status.
func ParseVisibility(raw string) (Status, error) {
	switch raw {
	case "public":
		return StatusArchivedPublic, nil
	case "admin":
		return StatusArchivedAdmin, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "visibility must be public or admin")
}
