// Package state manages the canonical runtime folder layout under the DB
// path.
package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved runtime directories.
type Paths struct {
	State string
	Crash string
	Tmp   string
}

// PathsVar is set by EnsureStateDirs for packages that need the layout.
var PathsVar Paths

// EnsureStateDirs ensures the runtime folder layout exists under the
// provided DB path. It rejects symlinks and permissive modes, and verifies
// each directory is writable by the process.
func EnsureStateDirs(dbPath string) error {
	statePath := filepath.Join(dbPath, "state")
	crashPath := filepath.Join(statePath, "crash")
	tmpPath := filepath.Join(statePath, "tmp")

	for _, p := range []string{statePath, crashPath, tmpPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("cannot create parent for %s: %w", p, err)
		}
		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", p)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", p)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return fmt.Errorf("path has permissive mode (group/other write): %s", p)
			}
		}
		if err := os.MkdirAll(p, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", p, err)
		}
		tmp, err := os.CreateTemp(p, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", p, err)
		}
		name := tmp.Name()
		_ = tmp.Close()
		_ = os.Remove(name)
	}

	PathsVar = Paths{State: statePath, Crash: crashPath, Tmp: tmpPath}
	return nil
}
