package store

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
	ErrGraphNotFound = errors.New("graph not found")
)

// Storage is the interface for the underlying key-value store
type Storage interface {
	// Begin starts a new transaction
	Begin(writable bool) (Transaction, error)

	// Close closes the storage
	Close() error

	// Sync flushes writes to disk
	Sync() error
}

// Transaction represents a database transaction with snapshot isolation
type Transaction interface {
	// Get retrieves a value by key
	Get(table Table, key []byte) ([]byte, error)

	// Set stores a key-value pair
	Set(table Table, key, value []byte) error

	// Delete removes a key
	Delete(table Table, key []byte) error

	// Scan iterates over the keys of a table that start with prefix,
	// stopping before end. A nil prefix scans the whole table and a
	// nil end scans to the last matching key.
	Scan(table Table, prefix, end []byte) (Iterator, error)

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error
}

// Iterator iterates over key-value pairs
type Iterator interface {
	// Next advances to the next item
	Next() bool

	// Key returns the current key
	Key() []byte

	// Value returns the current value
	Value() ([]byte, error)

	// Close closes the iterator
	Close() error
}

// Table represents a logical table/column family in the storage
type Table byte

const (
	// Metadata table: hash -> string
	TableID2Str Table = iota

	// Graph triples in insertion order: graph id + sequence -> s p o
	TableTriples

	// Graph membership index: graph id + s p o -> empty
	TableMembers

	// Prefix bindings: graph id + prefix -> namespace
	TablePrefixes

	// Named graphs metadata: graph id -> record
	TableGraphs

	// Total number of tables
	TableCount
)

func (t Table) String() string {
	switch t {
	case TableID2Str:
		return "id2str"
	case TableTriples:
		return "triples"
	case TableMembers:
		return "members"
	case TablePrefixes:
		return "prefixes"
	case TableGraphs:
		return "graphs"
	default:
		return "unknown"
	}
}

// TablePrefix returns a byte prefix for a table to namespace keys
func TablePrefix(table Table) []byte {
	return []byte{byte(table)}
}

// PrefixKey adds a table prefix to a key
func PrefixKey(table Table, key []byte) []byte {
	prefix := TablePrefix(table)
	result := make([]byte, len(prefix)+len(key))
	copy(result, prefix)
	copy(result[len(prefix):], key)
	return result
}
