// Package httputil maps domain errors onto HTTP responses so handlers stay
// free of status-code tables.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "custodia/pkg/domain-errors"
)

// errorResponse is the wire shape for all error responses.
// error_description is omitted for internal errors so infrastructure details
// never leak to callers; details carries structured fields for codes that
// have them (policy blocks expose reference_count and reason).
type errorResponse struct {
	Code        string         `json:"error"`
	Description string         `json:"error_description,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

type statusMapping struct {
	status   int
	wireCode string
}

var codeMappings = map[dErrors.Code]statusMapping{
	dErrors.CodeValidation:         {http.StatusBadRequest, "validation_failed"},
	dErrors.CodeInvalidInput:       {http.StatusBadRequest, "invalid_input"},
	dErrors.CodeBadRequest:         {http.StatusBadRequest, "bad_request"},
	dErrors.CodeConflict:           {http.StatusConflict, "conflict"},
	dErrors.CodePolicyBlocked:      {http.StatusConflict, "policy_blocked"},
	dErrors.CodeTerminalState:      {http.StatusConflict, "terminal_state"},
	dErrors.CodeImmutable:          {http.StatusConflict, "immutable_field"},
	dErrors.CodeInvariantViolation: {http.StatusConflict, "invariant_violation"},
	dErrors.CodeNotFound:           {http.StatusNotFound, "not_found"},
	dErrors.CodeUnauthorized:       {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeForbidden:          {http.StatusForbidden, "forbidden"},
	dErrors.CodeResource:           {http.StatusBadGateway, "resource_error"},
	dErrors.CodeTimeout:            {http.StatusGatewayTimeout, "timeout"},
	dErrors.CodeInternal:           {http.StatusInternalServerError, "internal_error"},
}

// WriteError renders err as a JSON error response. Unrecognized errors are
// treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""
	if err != nil {
		code = dErrors.CodeOf(err)
		var dErr *dErrors.Error
		if errors.As(err, &dErr) {
			message = dErr.Message
		} else {
			message = err.Error()
		}
	}

	mapping, ok := codeMappings[code]
	if !ok {
		mapping = codeMappings[dErrors.CodeInternal]
	}

	resp := errorResponse{Code: mapping.wireCode}
	if code != dErrors.CodeInternal {
		resp.Description = message
		resp.Details = dErrors.DetailsOf(err)
	}

	WriteJSON(w, mapping.status, resp)
}

// WriteJSON renders v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// Encoding failures after the header is written can only be dropped.
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes a 204 response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Validatable is implemented by request DTOs. Validate checks the decoded
// fields and parses them into domain types, returning a coded error on the
// first problem.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON request body into a fresh T and runs its
// Validate method. On any failure the error response has already been written
// and the second return is false; the handler just returns.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body is not valid JSON"))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
