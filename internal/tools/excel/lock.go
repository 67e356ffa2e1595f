package excel

import (
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// pathLocks serialises in-process access per canonical file path. The
// document library's load-mutate-save cycle is not safe against concurrent
// invocations on the same file: without this, the last save wins and
// silently discards the other's changes.
var pathLocks sync.Map // canonical path -> *sync.RWMutex

func lockFor(path string) *sync.RWMutex {
	canon, err := filepath.Abs(path)
	if err != nil {
		canon = filepath.Clean(path)
	}
	mu, _ := pathLocks.LoadOrStore(canon, &sync.RWMutex{})
	return mu.(*sync.RWMutex)
}

// withExclusiveLock runs fn while holding both the in-process write lock
// and an advisory OS-level lock on a sidecar lock file, so load→mutate→save
// is atomic with respect to other invocations on the same path, including
// ones in other processes.
func withExclusiveLock(path string, logger *logrus.Logger, fn func() (map[string]any, error)) (map[string]any, error) {
	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	fileLock := flock.New(path + ".lock")
	if err := fileLock.Lock(); err != nil {
		return nil, &WorkbookError{Operation: "lock", Path: path, Cause: err}
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.WithError(err).Warn("Failed to release file lock")
		}
	}()

	return fn()
}

// withSharedLock is the read-side counterpart: concurrent readers proceed
// together but never overlap a mutating invocation.
func withSharedLock(path string, logger *logrus.Logger, fn func() (map[string]any, error)) (map[string]any, error) {
	mu := lockFor(path)
	mu.RLock()
	defer mu.RUnlock()

	fileLock := flock.New(path + ".lock")
	if err := fileLock.RLock(); err != nil {
		return nil, &WorkbookError{Operation: "lock", Path: path, Cause: err}
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.WithError(err).Warn("Failed to release file lock")
		}
	}()

	return fn()
}
