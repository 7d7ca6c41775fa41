package content

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"custodia/pkg/platform/sentinel"
)

// Memory holds content in a map. It backs unit tests and single-node dev
// setups where no media directory is mounted.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Put stores or replaces the named content.
func (m *Memory) Put(fileName string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.files[fileName] = buf
}

// Remove drops the named content without going through Delete, simulating an
// external removal.
func (m *Memory) Remove(fileName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, fileName)
}

func (m *Memory) Resolve(_ context.Context, fileName string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[fileName]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", fileName, sentinel.ErrNotFound)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (m *Memory) Hash(ctx context.Context, fileName string) (string, error) {
	rc, err := m.Resolve(ctx, fileName)
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

func (m *Memory) Delete(_ context.Context, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, fileName)
	return nil
}
