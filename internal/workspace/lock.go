package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrLocked reports that another process holds the requisition lock.
var ErrLocked = errors.New("requisition is locked by another process")

// Lock is an advisory per-requisition lock. It guards the manifest and batch
// directories against a second writer process; it does not survive kill -9,
// in which case the stale file must be removed by hand.
type Lock struct {
	path string
}

// AcquireLock takes the requisition's advisory lock.
func (w *Workspace) AcquireLock(client, req string) (*Lock, error) {
	path := filepath.Join(w.RequisitionDir(client, req), lockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fmt.Fprintf(f, "pid=%s locked_at=%s\n", strconv.Itoa(os.Getpid()), time.Now().Format(time.RFC3339))
	return &Lock{path: path}, nil
}

// Release removes the lock file. Idempotent: releasing an already-released
// lock is a no-op, so it can be both deferred and called on error paths.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
