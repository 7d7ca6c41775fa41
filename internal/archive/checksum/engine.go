// Package checksum computes and verifies SHA-256 digests of archived
// content. Digests for files under the async threshold are computed inline
// at execution; larger files are deferred to the work queue and picked up by
// a Worker.
package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"custodia/internal/archive/models"
	dErrors "custodia/pkg/domain-errors"
)

// Source resolves a record's backing content for reading. Missing content
// wraps sentinel.ErrNotFound.
type Source interface {
	Resolve(ctx context.Context, fileName string) (io.ReadCloser, error)
}

// Engine streams archived content through SHA-256.
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Calculate returns the lowercase hex digest of the record's content.
// Resolution errors keep their sentinel so callers can tell missing content
// from read failures.
func (e *Engine) Calculate(ctx context.Context, record *models.ArchiveRecord) (string, error) {
	if !record.AssetType.IsFileBased() {
		return "", dErrors.New(dErrors.CodeValidation, "manual entries carry no file content")
	}

	rc, err := e.source.Resolve(ctx, record.FileName)
	if err != nil {
		return "", fmt.Errorf("resolve content: %w", err)
	}
	defer rc.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, rc); err != nil {
		return "", fmt.Errorf("hash %s: %w", record.FileName, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify recomputes the digest and compares it with the stored checksum.
// Records without a stored checksum pass trivially. The check fails closed:
// any resolution or read error counts as unverified.
func (e *Engine) Verify(ctx context.Context, record *models.ArchiveRecord) bool {
	if !record.HasChecksum() {
		return true
	}
	sum, err := e.Calculate(ctx, record)
	if err != nil {
		return false
	}
	return sum == record.FileChecksum
}
