package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the canonical runtime folder layout under the DB path.
type Paths struct {
	Store     string
	State     string
	Retention string
	Crash     string
	Abort     string
	Tmp       string
}

// PathsVar is populated by EnsureStateDirs and read by other packages.
var PathsVar Paths

// EnsureStateDirs ensures the canonical runtime folder layout exists under
// the provided DB path. It verifies paths are not symlinks and have
// restrictive permissions, and that they are writable by the process.
func EnsureStateDirs(dbPath string) error {
	storePath := filepath.Join(dbPath, "store")
	statePath := filepath.Join(dbPath, "state")
	retentionPath := filepath.Join(statePath, "retention")
	crashPath := filepath.Join(statePath, "crash")
	abortPath := filepath.Join(statePath, "abort")
	tmpPath := filepath.Join(statePath, "tmp")

	paths := []string{storePath, retentionPath, crashPath, abortPath, tmpPath}

	for _, p := range paths {
		// ensure parent exists
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("cannot create parent for %s: %w", p, err)
		}

		// if path exists, reject symlinks and non-directories
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

		// create directory if missing
		if err := os.MkdirAll(p, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", p, err)
		}

		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(p, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", p, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	PathsVar = Paths{
		Store:     storePath,
		State:     statePath,
		Retention: retentionPath,
		Crash:     crashPath,
		Abort:     abortPath,
		Tmp:       tmpPath,
	}
	return nil
}
