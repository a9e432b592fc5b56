package store

import (
	"encoding/binary"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

// DefaultBatchSize is the number of triples written per transaction.
const DefaultBatchSize = 5000

// GraphInfo describes a stored graph.
type GraphInfo struct {
	Name    string
	Triples int
	Created time.Time
	Updated time.Time
}

// GraphStore keeps named graphs in a key-value Storage. Triples are read
// back in the order they were first added.
type GraphStore struct {
	storage   Storage
	encoder   TermEncoder
	decoder   TermDecoder
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

// GraphStoreOption configures a GraphStore.
type GraphStoreOption func(*GraphStore)

// WithStoreLogger sets the logger used for write and delete events.
func WithStoreLogger(logger *zap.Logger) GraphStoreOption {
	return func(s *GraphStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBatchSize bounds the number of triples written per transaction.
func WithBatchSize(n int) GraphStoreOption {
	return func(s *GraphStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewGraphStore creates a graph store
func NewGraphStore(storage Storage, encoder TermEncoder, decoder TermDecoder, opts ...GraphStoreOption) *GraphStore {
	s := &GraphStore{
		storage:   storage,
		encoder:   encoder,
		decoder:   decoder,
		logger:    zap.NewNop(),
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying storage
func (s *GraphStore) Close() error {
	return s.storage.Close()
}

// graphRecord is the TableGraphs value: triple count, next sequence
// number, created and updated unix nanoseconds, then the name.
type graphRecord struct {
	count   uint64
	nextSeq uint64
	created int64
	updated int64
	name    string
}

const graphRecordHeader = 32

func (r graphRecord) marshal() []byte {
	buf := make([]byte, graphRecordHeader+len(r.name))
	binary.BigEndian.PutUint64(buf[0:8], r.count)
	binary.BigEndian.PutUint64(buf[8:16], r.nextSeq)
	binary.BigEndian.PutUint64(buf[16:24], uint64(r.created))
	binary.BigEndian.PutUint64(buf[24:32], uint64(r.updated))
	copy(buf[graphRecordHeader:], r.name)
	return buf
}

func unmarshalGraphRecord(buf []byte) (graphRecord, error) {
	if len(buf) < graphRecordHeader {
		return graphRecord{}, errors.Newf("graph record too short: %d bytes", len(buf))
	}
	return graphRecord{
		count:   binary.BigEndian.Uint64(buf[0:8]),
		nextSeq: binary.BigEndian.Uint64(buf[8:16]),
		created: int64(binary.BigEndian.Uint64(buf[16:24])),
		updated: int64(binary.BigEndian.Uint64(buf[24:32])),
		name:    string(buf[graphRecordHeader:]),
	}, nil
}

func (r graphRecord) info() GraphInfo {
	return GraphInfo{
		Name:    r.name,
		Triples: int(r.count),
		Created: time.Unix(0, r.created),
		Updated: time.Unix(0, r.updated),
	}
}

// graphID returns the key prefix shared by all rows of a graph.
func (s *GraphStore) graphID(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("graph name must not be empty")
	}
	encoded, _, err := s.encoder.EncodeTerm(rdf.NewNamedNode(name))
	if err != nil {
		return nil, errors.Wrapf(err, "encode graph name %q", name)
	}
	return s.encoder.EncodeKey(encoded), nil
}

func (s *GraphStore) readRecord(txn Transaction, id []byte) (graphRecord, error) {
	value, err := txn.Get(TableGraphs, id)
	if err != nil {
		return graphRecord{}, err
	}
	return unmarshalGraphRecord(value)
}

// PutGraph stores g under name, replacing any graph already stored there.
// Prefix bindings are kept alongside the triples.
func (s *GraphStore) PutGraph(name string, g *rdf.Graph, prefixes map[string]string) error {
	// Reject unstorable terms before the old graph is dropped.
	for t := range g.All() {
		for _, term := range [3]rdf.Term{t.Subject, t.Predicate, t.Object} {
			if _, _, err := s.encoder.EncodeTerm(term); err != nil {
				return errors.Wrapf(err, "graph %q", name)
			}
		}
	}

	if err := s.DeleteGraph(name); err != nil && !errors.Is(err, ErrGraphNotFound) {
		return err
	}
	if err := s.SetPrefixes(name, prefixes); err != nil {
		return err
	}
	_, err := s.AddTriples(name, g.Triples()...)
	return err
}

// AddTriples appends triples to the named graph, creating it when needed.
// Triples already in the graph are skipped. It returns the number added.
func (s *GraphStore) AddTriples(name string, triples ...*rdf.Triple) (int, error) {
	id, err := s.graphID(name)
	if err != nil {
		return 0, err
	}

	added := 0
	for start := 0; start == 0 || start < len(triples); start += s.batchSize {
		end := min(start+s.batchSize, len(triples))
		n, err := s.addBatch(name, id, triples[start:end])
		added += n
		if err != nil {
			return added, err
		}
	}

	s.logger.Debug("triples stored",
		zap.String("graph", name),
		zap.Int("added", added),
		zap.Int("skipped", len(triples)-added))
	return added, nil
}

func (s *GraphStore) addBatch(name string, id []byte, triples []*rdf.Triple) (int, error) {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	now := s.now().UnixNano()
	record, err := s.readRecord(txn, id)
	switch {
	case errors.Is(err, ErrNotFound):
		record = graphRecord{name: name, created: now}
	case err != nil:
		return 0, err
	}

	added := 0
	for _, t := range triples {
		key, err := s.encodeTriple(txn, t)
		if err != nil {
			return 0, err
		}

		member := append(slices.Clip(id), key...)
		if _, err := txn.Get(TableMembers, member); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return 0, err
		}

		if err := txn.Set(TableMembers, member, nil); err != nil {
			return 0, err
		}
		if err := txn.Set(TableTriples, sequenceKey(id, record.nextSeq), key); err != nil {
			return 0, err
		}
		record.nextSeq++
		record.count++
		added++
	}

	record.updated = now
	if err := txn.Set(TableGraphs, id, record.marshal()); err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func sequenceKey(id []byte, seq uint64) []byte {
	key := make([]byte, len(id)+8)
	copy(key, id)
	binary.BigEndian.PutUint64(key[len(id):], seq)
	return key
}

// encodeTriple encodes the three terms and records their strings.
func (s *GraphStore) encodeTriple(txn Transaction, t *rdf.Triple) ([]byte, error) {
	terms := [3]rdf.Term{t.Subject, t.Predicate, t.Object}
	var encoded [3]EncodedTerm
	for i, term := range terms {
		enc, str, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s", term)
		}
		if err := s.storeString(txn, enc, str); err != nil {
			return nil, err
		}
		encoded[i] = enc
	}
	return s.encoder.EncodeKey(encoded[:]...), nil
}

// storeString stores a string in the id2str table if provided
func (s *GraphStore) storeString(txn Transaction, encoded EncodedTerm, str *string) error {
	if str == nil {
		return nil
	}

	// The hash portion of the encoded term is the key
	key := encoded[1:]
	if _, err := txn.Get(TableID2Str, key); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return txn.Set(TableID2Str, key, []byte(*str))
}

// SetPrefixes replaces the prefix bindings stored with the named graph.
func (s *GraphStore) SetPrefixes(name string, prefixes map[string]string) error {
	id, err := s.graphID(name)
	if err != nil {
		return err
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	old, err := s.scanKeys(txn, TablePrefixes, id)
	if err != nil {
		return err
	}
	for _, key := range old {
		if err := txn.Delete(TablePrefixes, key); err != nil {
			return err
		}
	}
	for prefix, ns := range prefixes {
		key := append(slices.Clip(id), prefix...)
		if err := txn.Set(TablePrefixes, key, []byte(ns)); err != nil {
			return err
		}
	}
	return txn.Commit()
}

// Graph reads the named graph and its prefix bindings.
func (s *GraphStore) Graph(name string) (*rdf.Graph, map[string]string, error) {
	id, err := s.graphID(name)
	if err != nil {
		return nil, nil, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, nil, err
	}
	defer txn.Rollback()

	if _, err := s.readRecord(txn, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, errors.Wrapf(ErrGraphNotFound, "%q", name)
		}
		return nil, nil, err
	}

	g := rdf.NewGraph()
	cache := make(map[EncodedTerm]rdf.Term)
	it, err := txn.Scan(TableTriples, id, nil)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()

	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, nil, err
		}
		t, err := s.decodeTriple(txn, value, cache)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "graph %q", name)
		}
		g.Add(t)
	}

	prefixes, err := s.prefixes(txn, id)
	if err != nil {
		return nil, nil, err
	}
	return g, prefixes, nil
}

func (s *GraphStore) prefixes(txn Transaction, id []byte) (map[string]string, error) {
	it, err := txn.Scan(TablePrefixes, id, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	prefixes := make(map[string]string)
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		prefixes[string(it.Key()[len(id):])] = string(value)
	}
	return prefixes, nil
}

func (s *GraphStore) decodeTriple(txn Transaction, key []byte, cache map[EncodedTerm]rdf.Term) (*rdf.Triple, error) {
	if len(key) != EncodedTripleSize {
		return nil, errors.Newf("triple key has %d bytes, want %d", len(key), EncodedTripleSize)
	}
	var terms [3]rdf.Term
	for i := range terms {
		var encoded EncodedTerm
		copy(encoded[:], key[i*len(encoded):])
		term, err := s.decodeTerm(txn, encoded, cache)
		if err != nil {
			return nil, err
		}
		terms[i] = term
	}
	return rdf.NewTriple(terms[0], terms[1], terms[2]), nil
}

func (s *GraphStore) decodeTerm(txn Transaction, encoded EncodedTerm, cache map[EncodedTerm]rdf.Term) (rdf.Term, error) {
	if term, ok := cache[encoded]; ok {
		return term, nil
	}

	var str *string
	if s.decoder.NeedsLookup(encoded) {
		value, err := txn.Get(TableID2Str, encoded[1:])
		if err != nil {
			return nil, errors.Wrap(err, "lookup term string")
		}
		v := string(value)
		str = &v
	}

	term, err := s.decoder.DecodeTerm(encoded, str)
	if err != nil {
		return nil, err
	}
	cache[encoded] = term
	return term, nil
}

// Contains reports whether the named graph holds t.
func (s *GraphStore) Contains(name string, t *rdf.Triple) (bool, error) {
	id, err := s.graphID(name)
	if err != nil {
		return false, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	var encoded [3]EncodedTerm
	for i, term := range [3]rdf.Term{t.Subject, t.Predicate, t.Object} {
		if encoded[i], _, err = s.encoder.EncodeTerm(term); err != nil {
			return false, err
		}
	}

	member := append(slices.Clip(id), s.encoder.EncodeKey(encoded[:]...)...)
	_, err = txn.Get(TableMembers, member)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Info describes the named graph.
func (s *GraphStore) Info(name string) (GraphInfo, error) {
	id, err := s.graphID(name)
	if err != nil {
		return GraphInfo{}, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return GraphInfo{}, err
	}
	defer txn.Rollback()

	record, err := s.readRecord(txn, id)
	if errors.Is(err, ErrNotFound) {
		return GraphInfo{}, errors.Wrapf(ErrGraphNotFound, "%q", name)
	}
	if err != nil {
		return GraphInfo{}, err
	}
	return record.info(), nil
}

// Graphs lists the stored graphs sorted by name.
func (s *GraphStore) Graphs() ([]GraphInfo, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(TableGraphs, nil, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var infos []GraphInfo
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		record, err := unmarshalGraphRecord(value)
		if err != nil {
			return nil, err
		}
		infos = append(infos, record.info())
	}

	slices.SortFunc(infos, func(a, b GraphInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos, nil
}

// DeleteGraph removes the named graph with its prefixes. Term strings
// stay in the id2str table since other graphs may share them.
func (s *GraphStore) DeleteGraph(name string) error {
	id, err := s.graphID(name)
	if err != nil {
		return err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return err
	}
	if _, err := s.readRecord(txn, id); err != nil {
		txn.Rollback()
		if errors.Is(err, ErrNotFound) {
			return errors.Wrapf(ErrGraphNotFound, "%q", name)
		}
		return err
	}

	var rows []tableKey
	for _, table := range []Table{TableTriples, TableMembers, TablePrefixes} {
		keys, err := s.scanKeys(txn, table, id)
		if err != nil {
			txn.Rollback()
			return err
		}
		for _, key := range keys {
			rows = append(rows, tableKey{table, key})
		}
	}
	txn.Rollback()

	// The graph record goes last so a partial delete can be retried.
	for batch := range slices.Chunk(rows, s.batchSize) {
		if err := s.deleteRows(batch); err != nil {
			return err
		}
	}
	if err := s.deleteRows([]tableKey{{TableGraphs, id}}); err != nil {
		return err
	}

	s.logger.Debug("graph deleted", zap.String("graph", name), zap.Int("rows", len(rows)))
	return nil
}

type tableKey struct {
	table Table
	key   []byte
}

func (s *GraphStore) deleteRows(rows []tableKey) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for _, row := range rows {
		if err := txn.Delete(row.table, row.key); err != nil {
			return err
		}
	}
	return txn.Commit()
}

func (s *GraphStore) scanKeys(txn Transaction, table Table, prefix []byte) ([][]byte, error) {
	it, err := txn.Scan(table, prefix, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var keys [][]byte
	for it.Next() {
		keys = append(keys, it.Key())
	}
	return keys, nil
}
