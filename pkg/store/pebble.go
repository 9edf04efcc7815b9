package store

import (
	"bytes"
	"errors"
	"fmt"

	"chatmesh/pkg/logger"

	"github.com/cockroachdb/pebble"
)

var (
	db     *pebble.DB
	dbPath string
)

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
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
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func errNotOpen() error {
	return fmt.Errorf("pebble not opened; call store.Open first")
}

// getRaw returns a copy of the value under key.
func getRaw(key []byte) ([]byte, error) {
	if db == nil {
		return nil, errNotOpen()
	}
	v, closer, err := db.Get(key)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

func setRaw(key, value []byte) error {
	if db == nil {
		return errNotOpen()
	}
	return db.Set(key, value, pebble.Sync)
}

func deleteRaw(key []byte) error {
	if db == nil {
		return errNotOpen()
	}
	return db.Delete(key, pebble.Sync)
}

// scanPrefix walks all keys starting with prefix in lexical order and calls
// fn with each key/value. Returning false from fn stops the scan.
func scanPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	if db == nil {
		return errNotOpen()
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		if !fn(k, v) {
			break
		}
	}
	return iter.Error()
}

// countPrefix returns the number of keys starting with prefix.
func countPrefix(prefix []byte) (int, error) {
	n := 0
	err := scanPrefix(prefix, func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}
