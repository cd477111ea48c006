// Package storage provides the string key-value media the watchlist and the
// recently-viewed history are persisted in.
package storage

import (
	"errors"
	"fmt"
)

// Medium reads and writes string values under string keys.
type Medium interface {
	// GetItem returns the value stored under key and whether it exists.
	GetItem(key string) (string, bool, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error

	// Close releases the medium's resources.
	Close() error
}

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// ErrClosed is returned by operations on a closed medium
var ErrClosed = errors.New("storage: medium closed")

// Options selects and configures a backend
type Options struct {
	Backend string
	// Path is a directory for file and badger, a database file for sqlite.
	Path string
}

// Open creates the medium described by opts
func Open(opts Options) (Medium, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return NewFileMedium(opts.Path)
	case BackendSQLite:
		return NewSQLiteMedium(opts.Path)
	case BackendBadger:
		return NewBadgerMedium(opts.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
