package models

import (
	dErrors "custodia/pkg/domain-errors"
)

// Reason records why an asset was sent to the archive. It is part of the
// compliance decision and surfaces verbatim in reporting.
type Reason string

const (
	ReasonOutdated   Reason = "outdated"
	ReasonSuperseded Reason = "superseded"
	ReasonDuplicate  Reason = "duplicate"
	ReasonLegalOrder Reason = "legal_order"
	ReasonOther      Reason = "other"
)

// IsValid reports whether the value is one of the known reasons.
func (r Reason) IsValid() bool {
	switch r {
	case ReasonOutdated, ReasonSuperseded, ReasonDuplicate, ReasonLegalOrder, ReasonOther:
		return true
	}
	return false
}

// RequiresDetail reports whether the reason must be accompanied by
// free-text explanation. Only ReasonOther carries no meaning on its own.
func (r Reason) RequiresDetail() bool {
	return r == ReasonOther
}

// ParseReason validates a raw string against the known reasons.
func ParseReason(raw string) (Reason, error) {
	r := Reason(raw)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown archive reason: %q", raw)
	}
	return r, nil
}
