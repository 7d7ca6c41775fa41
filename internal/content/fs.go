package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"custodia/pkg/platform/sentinel"
)

// FSStore serves content from a directory tree. File names are resolved
// relative to the root; names that escape the root are rejected.
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) fullPath(fileName string) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("empty file name: %w", sentinel.ErrNotFound)
	}
	clean := filepath.Clean(fileName)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file name %q escapes content root", fileName)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FSStore) Resolve(_ context.Context, fileName string) (io.ReadCloser, error) {
	full, err := s.fullPath(fileName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("content %s: %w", fileName, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open content %s: %w", fileName, err)
	}
	return f, nil
}

func (s *FSStore) Hash(ctx context.Context, fileName string) (string, error) {
	rc, err := s.Resolve(ctx, fileName)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, rc); err != nil {
		return "", fmt.Errorf("hash content %s: %w", fileName, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (s *FSStore) Delete(_ context.Context, fileName string) error {
	full, err := s.fullPath(fileName)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete content %s: %w", fileName, err)
	}
	return nil
}
