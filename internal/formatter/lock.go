package formatter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// Locker serialises rewrites of a single file across runner processes.
type Locker interface {
	// Lock blocks until path is locked or ctx is done. The returned func releases the lock.
	Lock(ctx context.Context, path string) (func(), error)
}

// FlockLocker takes an advisory flock on a sidecar file kept in Dir, one per
// target. Locking a sidecar keeps the lock valid when a formatter replaces
// the target by rename. Sidecars are never removed; unlinking a flocked file
// would let two processes lock different inodes for the same target.
type FlockLocker struct {
	// Dir holds the sidecar files. Empty means DefaultLockDir().
	Dir        string
	RetryDelay time.Duration
}

// DefaultLockDir is a per-user directory for sidecar locks.
func DefaultLockDir() string {
	return filepath.Join(os.TempDir(), "cmake-format-runner-locks-"+strconv.Itoa(os.Getuid()))
}

// LockPath returns the sidecar file that guards path.
func (l FlockLocker) LockPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	dir := l.Dir
	if dir == "" {
		dir = DefaultLockDir()
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(dir, hex.EncodeToString(sum[:16])+".lock"), nil
}

func (l FlockLocker) Lock(ctx context.Context, path string) (func(), error) {
	lockPath, err := l.LockPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, l.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s", path)
	}
	return func() { _ = fl.Unlock() }, nil
}
