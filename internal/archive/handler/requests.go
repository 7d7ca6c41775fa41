package handler

import (
	"net/http"
	"strconv"
	"strings"

	"custodia/internal/archive/models"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	pkgstrings "custodia/pkg/platform/strings"
)

// QueueRequest is the HTTP request body for POST /archive/records.
type QueueRequest struct {
	AssetRef          string `json:"asset_ref"`
	Reason            string `json:"reason"`
	ReasonOther       string `json:"reason_other"`
	PublicDescription string `json:"public_description"`
	InternalNotes     string `json:"internal_notes"`

	// Parsed values (populated by Validate)
	parsedRef    id.AssetRef
	parsedReason models.Reason
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *QueueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.AssetRef = strings.TrimSpace(r.AssetRef)
	if r.AssetRef == "" {
		return dErrors.New(dErrors.CodeValidation, "asset_ref is required")
	}
	ref, err := id.ParseAssetRef(r.AssetRef)
	if err != nil {
		return err
	}
	r.parsedRef = ref

	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	reason, err := models.ParseReason(r.Reason)
	if err != nil {
		return err
	}
	r.parsedReason = reason

	r.ReasonOther = strings.TrimSpace(r.ReasonOther)
	r.PublicDescription = strings.TrimSpace(r.PublicDescription)
	r.InternalNotes = strings.TrimSpace(r.InternalNotes)
	return nil
}

// ParsedAssetRef returns the validated asset reference.
func (r *QueueRequest) ParsedAssetRef() id.AssetRef { return r.parsedRef }

// ParsedReason returns the validated archive reason.
func (r *QueueRequest) ParsedReason() models.Reason { return r.parsedReason }

// RegisterManualRequest is the HTTP request body for
// POST /archive/records/manual.
type RegisterManualRequest struct {
	AssetRef          string `json:"asset_ref"`
	AssetType         string `json:"asset_type"`
	Reason            string `json:"reason"`
	ReasonOther       string `json:"reason_other"`
	PublicDescription string `json:"public_description"`
	InternalNotes     string `json:"internal_notes"`

	// Parsed values (populated by Validate)
	parsedRef    id.AssetRef
	parsedType   models.AssetType
	parsedReason models.Reason
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterManualRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.AssetRef = strings.TrimSpace(r.AssetRef)
	if r.AssetRef == "" {
		return dErrors.New(dErrors.CodeValidation, "asset_ref is required")
	}
	ref, err := id.ParseAssetRef(r.AssetRef)
	if err != nil {
		return err
	}
	r.parsedRef = ref

	r.AssetType = strings.TrimSpace(r.AssetType)
	if r.AssetType == "" {
		return dErrors.New(dErrors.CodeValidation, "asset_type is required")
	}
	assetType, err := models.ParseAssetType(r.AssetType)
	if err != nil {
		return err
	}
	r.parsedType = assetType

	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	reason, err := models.ParseReason(r.Reason)
	if err != nil {
		return err
	}
	r.parsedReason = reason

	r.ReasonOther = strings.TrimSpace(r.ReasonOther)
	r.PublicDescription = strings.TrimSpace(r.PublicDescription)
	r.InternalNotes = strings.TrimSpace(r.InternalNotes)
	return nil
}

// ParsedAssetRef returns the validated asset reference.
func (r *RegisterManualRequest) ParsedAssetRef() id.AssetRef { return r.parsedRef }

// ParsedAssetType returns the validated asset type.
func (r *RegisterManualRequest) ParsedAssetType() models.AssetType { return r.parsedType }

// ParsedReason returns the validated archive reason.
func (r *RegisterManualRequest) ParsedReason() models.Reason { return r.parsedReason }

// ExecuteRequest is the HTTP request body for
// POST /archive/records/{recordID}/execute.
type ExecuteRequest struct {
	Visibility string `json:"visibility"`

	// Parsed values (populated by Validate)
	parsedVisibility models.Status
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ExecuteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Visibility = strings.TrimSpace(r.Visibility)
	if r.Visibility == "" {
		return dErrors.New(dErrors.CodeValidation, "visibility is required")
	}
	visibility, err := models.ParseVisibility(r.Visibility)
	if err != nil {
		return err
	}
	r.parsedVisibility = visibility
	return nil
}

// ParsedVisibility returns the validated target status.
func (r *ExecuteRequest) ParsedVisibility() models.Status { return r.parsedVisibility }

// AddNoteRequest is the HTTP request body for
// POST /archive/records/{recordID}/notes.
type AddNoteRequest struct {
	Text string `json:"text"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AddNoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	return nil
}

// parseRecordFilter builds a record filter from list query parameters:
// status (comma-separated), asset_type, limit, offset.
func parseRecordFilter(r *http.Request) (models.RecordFilter, error) {
	q := r.URL.Query()
	var filter models.RecordFilter

	if raw := q.Get("status"); raw != "" {
		for _, part := range pkgstrings.DedupeAndTrimLower(strings.Split(raw, ",")) {
			status, ok := models.ParseStatus(part)
			if !ok {
				return models.RecordFilter{}, dErrors.Newf(dErrors.CodeValidation, "unknown status: %q", part)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := q.Get("asset_type"); raw != "" {
		assetType, err := models.ParseAssetType(raw)
		if err != nil {
			return models.RecordFilter{}, err
		}
		filter.AssetType = assetType
	}

	var err error
	if filter.Limit, err = parseCount(q.Get("limit"), "limit"); err != nil {
		return models.RecordFilter{}, err
	}
	if filter.Offset, err = parseCount(q.Get("offset"), "offset"); err != nil {
		return models.RecordFilter{}, err
	}
	return filter, nil
}

func parseCount(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s must be a non-negative integer", name)
	}
	return n, nil
}

// parseResolveRef extracts the reference the delivery boundary is asking
// about. Parsing the encoding is left to the service so the resolve surface
// reports unparseable references the same way everywhere.
func parseResolveRef(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("ref"))
	if raw == "" {
		return "", dErrors.New(dErrors.CodeValidation, "ref query parameter is required")
	}
	return raw, nil
}
