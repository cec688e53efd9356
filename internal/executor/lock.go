package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"bundlecore/pkg/errors"
)

// ExclusionLock is the named, system-wide mutex of spec §4.7 step 1 and
// §5's shared-resource model: a second acquisition attempt fails fast
// with bundle-already-applying rather than blocking. Backed by a PID
// lock file under dir, the POSIX analogue of a named kernel mutex.
type ExclusionLock struct {
	path string
}

// AcquireExclusionLock acquires the lock for the given scope (per-machine
// or per-user); name disambiguates bundles sharing the same scope root.
func AcquireExclusionLock(dir, name string, perMachine bool) (*ExclusionLock, error) {
	scope := "user"
	if perMachine {
		scope = "machine"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.lock", scope, name))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			if stale, staleErr := isStaleLock(path); staleErr == nil && stale {
				if rmErr := os.Remove(path); rmErr == nil {
					return AcquireExclusionLock(dir, name, perMachine)
				}
			}
			return nil, errors.New(errors.KindLockContention, "bundle-already-applying: %s", path)
		}
		return nil, err
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return nil, err
	}
	return &ExclusionLock{path: path}, nil
}

func isStaleLock(path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	pid, err := strconv.Atoi(string(b))
	if err != nil {
		return true, nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return true, nil
	}
	// On POSIX, signal 0 probes liveness without affecting the process.
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return true, nil
	}
	return false, nil
}

// Release removes the lock file.
func (l *ExclusionLock) Release() error {
	return os.Remove(l.path)
}
