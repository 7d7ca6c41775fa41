package models

import (
	dErrors "custodia/pkg/domain-errors"
)

// AssetType categorizes what an archive record points at. Document and
// video are file-based: the content lives in managed storage and can be
// hashed, verified, and physically deleted. Page and external are manual
// entries describing content the platform does not hold.
type AssetType string

const (
	AssetTypeDocument AssetType = "document"
	AssetTypeVideo    AssetType = "video"
	AssetTypePage     AssetType = "page"
	AssetTypeExternal AssetType = "external"
)

// IsValid reports whether the value is one of the known asset types.
func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypeDocument, AssetTypeVideo, AssetTypePage, AssetTypeExternal:
		return true
	}
	return false
}

// IsManual reports whether records of this type are entered by hand.
// Manual entries carry no physical file: no checksum, no integrity
// verification, no usage gate.
func (t AssetType) IsManual() bool {
	return t == AssetTypePage || t == AssetTypeExternal
}

// IsFileBased reports whether records of this type reference content in
// managed storage.
func (t AssetType) IsFileBased() bool {
	return t == AssetTypeDocument || t == AssetTypeVideo
}

// ParseAssetType validates a raw string against the known asset types.
func ParseAssetType(raw string) (AssetType, error) {
	t := AssetType(raw)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown asset type: %q", raw)
	}
	return t, nil
}
