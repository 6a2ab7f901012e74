package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureStateDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "db")
	if err := EnsureStateDirs(base); err != nil {
		t.Fatalf("EnsureStateDirs: %v", err)
	}

	for name, p := range map[string]string{
		"store":     PathsVar.Store,
		"state":     PathsVar.State,
		"retention": PathsVar.Retention,
		"crash":     PathsVar.Crash,
		"abort":     PathsVar.Abort,
		"tmp":       PathsVar.Tmp,
	} {
		if p == "" {
			t.Fatalf("%s path not populated", name)
		}
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatalf("%s dir missing: %v", name, err)
		}
		if !fi.IsDir() {
			t.Fatalf("%s is not a directory", name)
		}
	}

	// running twice against the same base is fine
	if err := EnsureStateDirs(base); err != nil {
		t.Fatalf("EnsureStateDirs repeat: %v", err)
	}
}
