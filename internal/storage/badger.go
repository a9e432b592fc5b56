package storage

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/pkg/store"
)

// BadgerStorage implements Storage using BadgerDB
type BadgerStorage struct {
	db *badger.DB
}

// Option configures a BadgerStorage.
type Option func(*badger.Options)

// WithLogger routes badger's own log output to a zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *badger.Options) {
		if logger != nil {
			o.Logger = newZapLogger(logger)
		}
	}
}

// InMemory keeps all data in memory. The path is ignored.
func InMemory() Option {
	return func(o *badger.Options) {
		o.Dir = ""
		o.ValueDir = ""
		o.InMemory = true
	}
}

// NewBadgerStorage creates a new BadgerDB-backed storage
func NewBadgerStorage(path string, opts ...Option) (*BadgerStorage, error) {
	options := badger.DefaultOptions(path)
	options.Logger = nil // silent unless WithLogger is given
	for _, opt := range opts {
		opt(&options)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open badger db at %q", path)
	}

	return &BadgerStorage{db: db}, nil
}

// Begin starts a new transaction
func (s *BadgerStorage) Begin(writable bool) (store.Transaction, error) {
	txn := s.db.NewTransaction(writable)
	return &BadgerTransaction{
		txn:      txn,
		writable: writable,
	}, nil
}

// Close closes the storage
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Sync flushes writes to disk
func (s *BadgerStorage) Sync() error {
	return s.db.Sync()
}

// BadgerTransaction implements Transaction using BadgerDB
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

// Get retrieves a value by key
func (t *BadgerTransaction) Get(table store.Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(store.PrefixKey(table, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get from %s", table)
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, errors.Wrapf(err, "read value from %s", table)
	}
	return value, nil
}

// Set stores a key-value pair
func (t *BadgerTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return errors.Wrapf(t.txn.Set(store.PrefixKey(table, key), value), "set in %s", table)
}

// Delete removes a key
func (t *BadgerTransaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return errors.Wrapf(t.txn.Delete(store.PrefixKey(table, key)), "delete from %s", table)
}

// Scan iterates over the keys of a table starting with prefix, up to end
func (t *BadgerTransaction) Scan(table store.Table, prefix, end []byte) (store.Iterator, error) {
	opts := badger.DefaultIteratorOptions
	tablePrefix := store.TablePrefix(table)

	scanPrefix := tablePrefix
	if prefix != nil {
		scanPrefix = store.PrefixKey(table, prefix)
	}
	opts.Prefix = scanPrefix

	var endKey []byte
	if end != nil {
		endKey = store.PrefixKey(table, end)
	}

	return &BadgerIterator{
		it:      t.txn.NewIterator(opts),
		prefix:  tablePrefix,
		seekKey: scanPrefix,
		endKey:  endKey,
	}, nil
}

// Commit commits the transaction
func (t *BadgerTransaction) Commit() error {
	return errors.Wrap(t.txn.Commit(), "commit")
}

// Rollback rolls back the transaction
func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// BadgerIterator implements Iterator using BadgerDB
type BadgerIterator struct {
	it       *badger.Iterator
	prefix   []byte // Table prefix for stripping from keys
	seekKey  []byte
	endKey   []byte
	started  bool
	hasValue bool
}

// Next advances to the next item
func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.seekKey)
		i.started = true
	} else {
		i.it.Next()
	}

	if !i.it.Valid() {
		i.hasValue = false
		return false
	}

	if i.endKey != nil && bytes.Compare(i.it.Item().Key(), i.endKey) >= 0 {
		i.hasValue = false
		return false
	}

	i.hasValue = true
	return true
}

// Key returns the current key (without the table prefix)
func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	key := i.it.Item().KeyCopy(nil)
	return key[len(i.prefix):]
}

// Value returns the current value
func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}
	value, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		return nil, errors.Wrap(err, "read iterator value")
	}
	return value, nil
}

// Close closes the iterator
func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}

// zapLogger adapts zap to badger.Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newZapLogger(logger *zap.Logger) *zapLogger {
	return &zapLogger{sugar: logger.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.sugar.Errorf(trimNewline(format), args...)
}

func (l *zapLogger) Warningf(format string, args ...any) {
	l.sugar.Warnf(trimNewline(format), args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(trimNewline(format), args...)
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.sugar.Debugf(trimNewline(format), args...)
}

// badger terminates most messages with a newline
func trimNewline(format string) string {
	return strings.TrimSuffix(format, "\n")
}
