package storage

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/wbrown/janus-indexmatch/frame"
	"github.com/wbrown/janus-indexmatch/frame/annotations"
)

// tablePrefix namespaces table keys inside the badger keyspace.
var tablePrefix = []byte("table/")

var _ Store = (*BadgerStore)(nil)

// BadgerStore implements Store using BadgerDB
type BadgerStore struct {
	db        *badger.DB
	collector *annotations.Collector
}

// NewBadgerStore opens (or creates) a BadgerDB-backed store at path.
// handler may be nil.
func NewBadgerStore(path string, handler annotations.Handler) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs

	// Reference tables are small and read-mostly
	opts.MemTableSize = 16 << 20
	opts.NumCompactors = 2
	opts.ValueThreshold = 1 << 10 // 1KB - store small values in LSM tree

	return openBadger(opts, handler)
}

// NewInMemoryStore creates a store that keeps everything in memory.
func NewInMemoryStore(handler annotations.Handler) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, handler)
}

func openBadger(opts badger.Options, handler annotations.Handler) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{
		db:        db,
		collector: annotations.NewCollector(handler),
	}, nil
}

func tableKey(name string) []byte {
	key := make([]byte, 0, len(tablePrefix)+len(name))
	key = append(key, tablePrefix...)
	return append(key, name...)
}

// Put stores table under name, replacing any previous table.
func (s *BadgerStore) Put(name string, table *frame.Table) error {
	if name == "" {
		return errors.New("table name must not be empty")
	}

	start := time.Now()
	value, err := EncodeTable(table)
	if err != nil {
		return s.backendError("put", name, start, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tableKey(name), value)
	})
	if err != nil {
		return s.backendError("put", name, start, fmt.Errorf("failed to write table %q: %w", name, err))
	}

	if s.collector.Enabled() {
		s.collector.AddTiming(annotations.StoragePut, start, map[string]interface{}{
			"table": name,
			"rows":  table.Len(),
		})
	}
	return nil
}

// Get loads the table stored under name.
func (s *BadgerStore) Get(name string) (*frame.Table, error) {
	start := time.Now()

	var table *frame.Table
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tableKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			t, err := DecodeTable(val)
			if err != nil {
				return err
			}
			table = t
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	if err != nil {
		return nil, s.backendError("get", name, start, fmt.Errorf("failed to read table %q: %w", name, err))
	}

	if s.collector.Enabled() {
		s.collector.AddTiming(annotations.StorageGet, start, map[string]interface{}{
			"table": name,
			"rows":  table.Len(),
		})
	}
	return table, nil
}

// Delete removes the table stored under name. Deleting an unknown name
// returns ErrTableNotFound.
func (s *BadgerStore) Delete(name string) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		key := tableKey(name)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	if err != nil {
		return s.backendError("delete", name, start, fmt.Errorf("failed to delete table %q: %w", name, err))
	}
	return nil
}

// List returns the stored table names in sorted order.
func (s *BadgerStore) List() ([]string, error) {
	start := time.Now()
	var names []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // names live in the keys
		opts.Prefix = tablePrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			names = append(names, string(key[len(tablePrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, s.backendError("list", "", start, fmt.Errorf("failed to list tables: %w", err))
	}

	sort.Strings(names)
	return names, nil
}

// backendError reports err as an ErrorBackend event and returns it.
// A missing table is a caller error and is not reported.
func (s *BadgerStore) backendError(op, name string, start time.Time, err error) error {
	if s.collector.Enabled() {
		s.collector.AddTiming(annotations.ErrorBackend, start, map[string]interface{}{
			"op":    op,
			"table": name,
			"error": err.Error(),
		})
	}
	return err
}

// Close closes the underlying database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
