package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MockSource is an in-memory Source for tests.
type MockSource struct {
	Files    map[string][]byte
	ListErr  error
	FetchErr error

	mu      sync.Mutex
	Fetched []string
}

// List returns the mock file names in sorted order.
func (m *MockSource) List(_ context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	names := make([]string, 0, len(m.Files))
	for name := range m.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Fetch writes the mock file contents into destDir and records the
// fetched name.
func (m *MockSource) Fetch(_ context.Context, name, destDir string) (string, error) {
	if m.FetchErr != nil {
		return "", m.FetchErr
	}

	data, ok := m.Files[name]
	if !ok {
		return "", fmt.Errorf("mock source has no file %q", name)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(destDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.Fetched = append(m.Fetched, name)
	m.mu.Unlock()
	return path, nil
}
