// Package directory exposes the asset catalog the archive classifies. The
// archive never owns asset metadata; it looks assets up here at operation
// boundaries and snapshots what it needs onto its own records.
package directory

import (
	"context"
	"time"

	"custodia/internal/archive/models"
	id "custodia/pkg/domain"
)

// Category is the catalog's own typing of an asset.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryVideo    Category = "video"
	CategoryPage     Category = "page"
	CategoryImage    Category = "image"
	CategoryAudio    Category = "audio"
	CategoryOther    Category = "other"
)

// AssetType maps the category onto an archivable asset type. The second
// return is false for categories the archive never accepts.
func (c Category) AssetType() (models.AssetType, bool) {
	switch c {
	case CategoryDocument:
		return models.AssetTypeDocument, true
	case CategoryVideo:
		return models.AssetTypeVideo, true
	case CategoryPage:
		return models.AssetTypePage, true
	default:
		return "", false
	}
}

// Routable reports whether delivery-boundary link routing applies to this
// category. Images and audio are always served directly.
func (c Category) Routable() bool {
	switch c {
	case CategoryImage, CategoryAudio:
		return false
	default:
		return true
	}
}

// Entry is the catalog's current view of one asset.
type Entry struct {
	Category   Category
	CurrentURI string

	// File metadata, populated for file-based categories.
	FileName  string
	MimeType  string
	SizeBytes int64
	IsPrivate bool

	// ReferenceCount is the number of live content items still pointing at
	// the asset.
	ReferenceCount int

	// ModifiedAt is the catalog's last-modification instant for the asset.
	ModifiedAt time.Time
}

// AssetDirectory resolves assets by reference. Unknown assets wrap
// sentinel.ErrNotFound.
type AssetDirectory interface {
	Lookup(ctx context.Context, ref id.AssetRef) (Entry, error)
}
