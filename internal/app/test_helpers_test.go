package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andyballingall/cmake-format-runner/internal/repo"
	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

type MockManager struct {
	mock.Mock
}

func (m *MockManager) Check(ctx context.Context, req CheckRequest) (runner.ExitStatus, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(runner.ExitStatus)
	return s, args.Error(1)
}

func (m *MockManager) Watch(ctx context.Context, req CheckRequest, readyChan chan<- struct{}) error {
	args := m.Called(ctx, req, readyChan)
	return args.Error(0)
}

// MockGitter is a test mock for the repo.Gitter interface.
type MockGitter struct {
	ChangedFilesFunc func(ctx context.Context, rev repo.Revision, paths []string) ([]repo.Change, error)
}

func (m *MockGitter) ChangedFiles(ctx context.Context, rev repo.Revision, paths []string) ([]repo.Change, error) {
	if m.ChangedFilesFunc != nil {
		return m.ChangedFilesFunc(ctx, rev, paths)
	}
	return nil, nil
}

// safeBuffer is a thread-safe wrapper around bytes.Buffer for use in concurrent tests.
type safeBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// writeTree creates files under a new temp dir and returns the dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}
