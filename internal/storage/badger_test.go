package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aleksaelezovic/tortoise/internal/encoding"
	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/store"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

func newTestStorage(t *testing.T) *BadgerStorage {
	t.Helper()
	storage, err := NewBadgerStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func newTestGraphStore(t *testing.T, opts ...store.GraphStoreOption) *store.GraphStore {
	t.Helper()
	return store.NewGraphStore(newTestStorage(t), encoding.NewTermEncoder(), encoding.NewTermDecoder(), opts...)
}

func ex(local string) *rdf.NamedNode {
	return rdf.NewNamedNode("http://example.org/" + local)
}

// assertSameTriples checks order as well as content.
func assertSameTriples(t *testing.T, want, got []*rdf.Triple) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equals(got[i]), "triple %d: got %s, want %s", i, got[i], want[i])
	}
}

func TestBadgerTransaction_GetSetDelete(t *testing.T) {
	storage := newTestStorage(t)

	txn, err := storage.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(store.TableID2Str, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())

	txn, err = storage.Begin(false)
	require.NoError(t, err)
	value, err := txn.Get(store.TableID2Str, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	_, err = txn.Get(store.TableGraphs, []byte("k"))
	assert.ErrorIs(t, err, store.ErrNotFound, "tables are separate key spaces")
	assert.ErrorIs(t, txn.Set(store.TableID2Str, []byte("x"), nil), store.ErrTransactionRO)
	assert.ErrorIs(t, txn.Delete(store.TableID2Str, []byte("k")), store.ErrTransactionRO)
	require.NoError(t, txn.Rollback())

	txn, err = storage.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Delete(store.TableID2Str, []byte("k")))
	require.NoError(t, txn.Commit())

	txn, err = storage.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback()
	_, err = txn.Get(store.TableID2Str, []byte("k"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBadgerTransaction_Scan(t *testing.T) {
	storage := newTestStorage(t)

	txn, err := storage.Begin(true)
	require.NoError(t, err)
	for _, k := range []string{"a1", "a2", "a3", "b1"} {
		require.NoError(t, txn.Set(store.TableTriples, []byte(k), []byte("v"+k)))
	}
	require.NoError(t, txn.Set(store.TableMembers, []byte("a9"), nil))
	require.NoError(t, txn.Commit())

	scan := func(prefix, end []byte) []string {
		txn, err := storage.Begin(false)
		require.NoError(t, err)
		defer txn.Rollback()
		it, err := txn.Scan(store.TableTriples, prefix, end)
		require.NoError(t, err)
		defer it.Close()

		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			value, err := it.Value()
			require.NoError(t, err)
			assert.Equal(t, "v"+string(it.Key()), string(value))
		}
		return keys
	}

	assert.Equal(t, []string{"a1", "a2", "a3", "b1"}, scan(nil, nil))
	assert.Equal(t, []string{"a1", "a2", "a3"}, scan([]byte("a"), nil))
	assert.Equal(t, []string{"a1", "a2"}, scan([]byte("a"), []byte("a3")))
	assert.Empty(t, scan([]byte("c"), nil))
}

func TestBadgerStorage_InMemory(t *testing.T) {
	storage, err := NewBadgerStorage("", InMemory())
	require.NoError(t, err)
	defer storage.Close()

	txn, err := storage.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Set(store.TableID2Str, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
}

func TestBadgerStorage_Logger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	storage, err := NewBadgerStorage(t.TempDir(), WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	require.NotZero(t, logs.Len(), "badger reports opening and closing")
	for _, entry := range logs.All() {
		assert.Equal(t, "badger", entry.LoggerName)
	}
}

func TestGraphStore_PutAndGet(t *testing.T) {
	gs := newTestGraphStore(t)

	input := `
@prefix ex: <http://example.org/> .
ex:alice ex:name "Alice" ;
    ex:age 42 ;
    ex:knows [ ex:name "Bob"@en ] , ( 1 2.5 ) .
ex:c ex:p "a literal that is too long to inline", true, "1.0e0"^^ex:num .
`
	g, err := turtle.ParseString(input)
	require.NoError(t, err)
	require.NoError(t, gs.PutGraph("people", g, map[string]string{"ex": "http://example.org/"}))

	got, prefixes, err := gs.Graph("people")
	require.NoError(t, err)
	assert.True(t, g.Equals(got), "blank node scopes survive storage")
	assertSameTriples(t, g.Triples(), got.Triples())
	assert.Equal(t, map[string]string{"ex": "http://example.org/"}, prefixes)

	info, err := gs.Info("people")
	require.NoError(t, err)
	assert.Equal(t, "people", info.Name)
	assert.Equal(t, g.Len(), info.Triples)
	assert.WithinDuration(t, time.Now(), info.Created, time.Minute)
}

func TestGraphStore_PutReplaces(t *testing.T) {
	gs := newTestGraphStore(t)

	first := rdf.NewGraphFromTriples(
		rdf.NewTriple(ex("a"), ex("p"), ex("b")),
		rdf.NewTriple(ex("a"), ex("p"), ex("c")),
	)
	second := rdf.NewGraphFromTriples(rdf.NewTriple(ex("x"), ex("p"), ex("y")))

	require.NoError(t, gs.PutGraph("g", first, map[string]string{"ex": "http://example.org/"}))
	require.NoError(t, gs.PutGraph("g", second, nil))

	got, prefixes, err := gs.Graph("g")
	require.NoError(t, err)
	assert.True(t, second.Equals(got))
	assert.Empty(t, prefixes)
}

func TestGraphStore_AddTriplesSkipsDuplicates(t *testing.T) {
	gs := newTestGraphStore(t, store.WithBatchSize(2))

	t1 := rdf.NewTriple(ex("a"), ex("p"), ex("b"))
	t2 := rdf.NewTriple(ex("a"), ex("p"), rdf.NewIntegerLiteral(7))
	t3 := rdf.NewTriple(ex("c"), ex("p"), rdf.NewLiteral("x"))

	n, err := gs.AddTriples("g", t1, t2, t1, t3, t2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = gs.AddTriples("g", t3)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, _, err := gs.Graph("g")
	require.NoError(t, err)
	assertSameTriples(t, []*rdf.Triple{t1, t2, t3}, got.Triples())

	ok, err := gs.Contains("g", t2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = gs.Contains("g", rdf.NewTriple(ex("z"), ex("p"), ex("b")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphStore_GraphsAndDelete(t *testing.T) {
	gs := newTestGraphStore(t, store.WithBatchSize(1))

	triple := rdf.NewTriple(ex("a"), ex("p"), ex("b"))
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := gs.AddTriples(name, triple)
		require.NoError(t, err)
	}

	infos, err := gs.Graphs()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "mid", infos[1].Name)
	assert.Equal(t, "zeta", infos[2].Name)
	assert.Equal(t, 1, infos[0].Triples)

	require.NoError(t, gs.DeleteGraph("mid"))
	infos, err = gs.Graphs()
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	_, _, err = gs.Graph("mid")
	assert.ErrorIs(t, err, store.ErrGraphNotFound)
	assert.ErrorIs(t, gs.DeleteGraph("mid"), store.ErrGraphNotFound)
	_, err = gs.Info("mid")
	assert.ErrorIs(t, err, store.ErrGraphNotFound)

	got, _, err := gs.Graph("alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len(), "other graphs are untouched")
}

func TestGraphStore_EmptyGraph(t *testing.T) {
	gs := newTestGraphStore(t)
	require.NoError(t, gs.PutGraph("empty", rdf.NewGraph(), nil))

	got, _, err := gs.Graph("empty")
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestGraphStore_RejectsFormulas(t *testing.T) {
	gs := newTestGraphStore(t)
	original := rdf.NewGraphFromTriples(rdf.NewTriple(ex("a"), ex("p"), ex("b")))
	require.NoError(t, gs.PutGraph("g", original, nil))

	withFormula := rdf.NewGraphFromTriples(
		rdf.NewTriple(ex("a"), ex("says"), rdf.NewFormula(original.Clone())),
	)
	err := gs.PutGraph("g", withFormula, nil)
	assert.ErrorIs(t, err, encoding.ErrFormulaNotStorable)

	got, _, err := gs.Graph("g")
	require.NoError(t, err)
	assert.True(t, original.Equals(got), "a rejected put leaves the old graph in place")
}

func TestGraphStore_EmptyName(t *testing.T) {
	gs := newTestGraphStore(t)
	_, err := gs.AddTriples("", rdf.NewTriple(ex("a"), ex("p"), ex("b")))
	assert.Error(t, err)
}

func TestGraphStore_Persistence(t *testing.T) {
	dir := t.TempDir()

	storage, err := NewBadgerStorage(dir)
	require.NoError(t, err)
	gs := store.NewGraphStore(storage, encoding.NewTermEncoder(), encoding.NewTermDecoder())
	triple := rdf.NewTriple(ex("a"), ex("p"), rdf.NewLiteralWithLanguage("hi", "en"))
	_, err = gs.AddTriples("g", triple)
	require.NoError(t, err)
	require.NoError(t, gs.Close())

	storage, err = NewBadgerStorage(dir)
	require.NoError(t, err)
	gs = store.NewGraphStore(storage, encoding.NewTermEncoder(), encoding.NewTermDecoder())
	defer gs.Close()

	got, _, err := gs.Graph("g")
	require.NoError(t, err)
	assertSameTriples(t, []*rdf.Triple{triple}, got.Triples())
}
