// Package content abstracts the media store holding archived file content.
// The archive references content by file name and never owns the bytes;
// external edits and removals happen behind its back, which is what the
// integrity machinery exists to detect.
package content

import (
	"context"
	"io"
)

// Store is the media store surface the archive consumes.
type Store interface {
	// Resolve opens the named content for reading. Missing content wraps
	// sentinel.ErrNotFound. The caller must close the reader.
	Resolve(ctx context.Context, fileName string) (io.ReadCloser, error)

	// Hash streams the named content through SHA-256 and returns the
	// lowercase hex digest. Missing content wraps sentinel.ErrNotFound.
	Hash(ctx context.Context, fileName string) (string, error)

	// Delete permanently removes the named content. Content that is already
	// gone is not an error.
	Delete(ctx context.Context, fileName string) error
}
