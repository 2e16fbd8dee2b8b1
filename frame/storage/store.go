// Package storage persists named reference tables in BadgerDB.
package storage

import (
	"errors"

	"github.com/wbrown/janus-indexmatch/frame"
)

// ErrTableNotFound is returned by Get for an unknown table name.
var ErrTableNotFound = errors.New("table not found")

// Store is the interface for named table storage
type Store interface {
	// Write operations
	Put(name string, table *frame.Table) error
	Delete(name string) error

	// Read operations
	Get(name string) (*frame.Table, error)
	List() ([]string, error)

	// Lifecycle
	Close() error
}
