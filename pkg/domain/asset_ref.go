package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "custodia/pkg/domain-errors"
)

// RefKind distinguishes the two resolution paths for an asset reference.
type RefKind string

const (
	// RefKindManaged references content tracked in the asset directory by ID.
	RefKindManaged RefKind = "managed"
	// RefKindExternal references content by raw path or URL (manual entries,
	// pages, external resources).
	RefKindExternal RefKind = "external"
)

const (
	managedRefPrefix  = "asset:"
	externalRefPrefix = "uri:"
	maxExternalRefLen = 2048
)

// AssetRef identifies the content an archive record governs. Exactly one
// resolution path is set: a managed asset ID or a raw URI. The canonical
// Key() encoding is stable and used as the uniqueness key for the
// at-most-one-active-record constraint.
//
// Invariants:
//   - managed refs carry a non-nil asset ID
//   - external refs carry a non-empty URI without control characters,
//     at most 2048 characters after trimming
type AssetRef struct {
	kind    RefKind
	assetID AssetID
	uri     string
}

// ManagedRef builds a reference to a directory-managed asset.
func ManagedRef(assetID AssetID) (AssetRef, error) {
	if assetID.IsNil() {
		return AssetRef{}, dErrors.New(dErrors.CodeInvalidInput, "managed reference requires an asset id")
	}
	return AssetRef{kind: RefKindManaged, assetID: assetID}, nil
}

// ExternalRef builds a reference to content addressed by raw path or URL.
func ExternalRef(uri string) (AssetRef, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return AssetRef{}, dErrors.New(dErrors.CodeInvalidInput, "external reference cannot be empty")
	}
	if len(uri) > maxExternalRefLen {
		return AssetRef{}, dErrors.New(dErrors.CodeInvalidInput, "external reference is too long")
	}
	for _, r := range uri {
		if unicode.IsControl(r) {
			return AssetRef{}, dErrors.New(dErrors.CodeInvalidInput, "external reference contains control characters")
		}
	}
	return AssetRef{kind: RefKindExternal, uri: uri}, nil
}

// ParseAssetRef decodes the canonical encoding produced by Key():
// "asset:<uuid>" for managed references, "uri:<path-or-url>" for external.
func ParseAssetRef(s string) (AssetRef, error) {
	switch {
	case strings.HasPrefix(s, managedRefPrefix):
		raw := s[len(managedRefPrefix):]
		u, err := uuid.Parse(raw)
		if err != nil || u == uuid.Nil {
			return AssetRef{}, dErrors.New(dErrors.CodeInvalidInput, "managed reference must carry a valid asset id")
		}
		return AssetRef{kind: RefKindManaged, assetID: AssetID(u)}, nil
	case strings.HasPrefix(s, externalRefPrefix):
		return ExternalRef(s[len(externalRefPrefix):])
	default:
		return AssetRef{}, dErrors.New(dErrors.CodeInvalidInput, "asset reference must start with asset: or uri:")
	}
}

// Kind returns the resolution path of the reference.
func (r AssetRef) Kind() RefKind { return r.kind }

// IsManaged reports whether the reference resolves through the directory.
func (r AssetRef) IsManaged() bool { return r.kind == RefKindManaged }

// IsZero reports whether the reference is unset.
func (r AssetRef) IsZero() bool { return r.kind == "" }

// AssetID returns the managed asset ID and true for managed references.
func (r AssetRef) AssetID() (AssetID, bool) {
	if r.kind != RefKindManaged {
		return AssetID{}, false
	}
	return r.assetID, true
}

// URI returns the raw URI and true for external references.
func (r AssetRef) URI() (string, bool) {
	if r.kind != RefKindExternal {
		return "", false
	}
	return r.uri, true
}

// Key returns the canonical string encoding. Managed keys lowercase the UUID
// so two spellings of the same asset collide; external keys preserve the URI
// byte-for-byte after the trim applied at construction.
func (r AssetRef) Key() string {
	switch r.kind {
	case RefKindManaged:
		return managedRefPrefix + strings.ToLower(r.assetID.String())
	case RefKindExternal:
		return externalRefPrefix + r.uri
	default:
		return ""
	}
}

func (r AssetRef) String() string { return r.Key() }

// MarshalText serializes the reference in its canonical encoding.
func (r AssetRef) MarshalText() ([]byte, error) { return []byte(r.Key()), nil }

// UnmarshalText parses the canonical encoding with full validation.
func (r *AssetRef) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetRef(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
