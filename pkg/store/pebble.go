package store

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"snapfeed/pkg/logger"
)

var db *pebble.DB

var errNotOpen = fmt.Errorf("pebble not opened; call store.Open first")

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	resetPartitionCache()
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	resetPartitionCache()
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// getJSON reads the raw value for key. The second return is false when the
// key does not exist.
func getRaw(key []byte) ([]byte, bool, error) {
	if db == nil {
		return nil, false, errNotOpen
	}
	v, closer, err := db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, true, nil
}
