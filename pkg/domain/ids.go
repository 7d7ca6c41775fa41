// Package domain provides typed identifiers and value types shared across
// services. Typed IDs prevent cross-entity assignment at compile time; parse
// functions enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "custodia/pkg/domain-errors"
)

// RecordID identifies an archive record.
type RecordID uuid.UUID

// NoteID identifies an append-only note on a record.
type NoteID uuid.UUID

// AssetID identifies a managed content asset in the directory.
type AssetID uuid.UUID

// NewRecordID returns a new random record ID.
func NewRecordID() RecordID {
	return RecordID(uuid.New())
}

// NewNoteID returns a new random note ID.
func NewNoteID() NoteID {
	return NoteID(uuid.New())
}

// NewAssetID returns a new random asset ID.
func NewAssetID() AssetID {
	return AssetID(uuid.New())
}

func (id RecordID) String() string { return uuid.UUID(id).String() }
func (id NoteID) String() string   { return uuid.UUID(id).String() }
func (id AssetID) String() string  { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id RecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id NoteID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText implements encoding.TextMarshaler so IDs serialize as UUID
// strings in JSON payloads rather than raw byte arrays.
func (id RecordID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id NoteID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id AssetID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler with the same validation
// as the Parse functions.
func (id *RecordID) UnmarshalText(b []byte) error {
	parsed, err := ParseRecordID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *NoteID) UnmarshalText(b []byte) error {
	parsed, err := ParseNoteID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AssetID) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseRecordID validates and returns a RecordID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RecordID{}, err
	}
	return RecordID(u), nil
}

// ParseNoteID validates and returns a NoteID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseNoteID(s string) (NoteID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return NoteID{}, err
	}
	return NoteID(u), nil
}

// ParseAssetID validates and returns an AssetID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AssetID{}, err
	}
	return AssetID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
