package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// Key prefixes for different data types
const (
	prefixVertex   = byte(0x01) // vid -> Marshal(vertex)
	prefixEdge     = byte(0x02) // edge key -> Marshal(edge)
	prefixTagIndex = byte(0x03) // tag | vid -> empty
	prefixOutgoing = byte(0x04) // edge key (starts with src) -> empty
	prefixIncoming = byte(0x05) // dst | edge key -> empty
)

// BadgerEngine is a persistent Engine backed by BadgerDB.
//
// Vertices and edges are stored with the value package's MessagePack codec,
// so every value kind (dates, geography, nested maps) survives a restart
// unchanged. Secondary indexes make tag scans and adjacency lookups prefix
// iterations instead of full scans.
//
// Key Layout:
//   - Vertices: 0x01 + vid -> vertex
//   - Edges: 0x02 + src | dst | type | rank -> edge
//   - Tag Index: 0x03 + tag | vid -> empty
//   - Outgoing Index: 0x04 + src | dst | type | rank -> empty
//   - Incoming Index: 0x05 + dst | src | dst | type | rank -> empty
//
// Each | is a uvarint length prefix, so components never run into each other.
//
// Example:
//
//	engine, err := storage.NewBadgerEngine("./data/graph")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	engine.CreateVertex(value.NewVertex(value.Int(1),
//		value.Tag{Name: "player", Props: value.Map{"name": value.String("Tim")}}))
type BadgerEngine struct {
	db     *badger.DB
	log    *logrus.Entry
	mu     sync.RWMutex
	closed bool
}

// BadgerOptions configures the BadgerDB engine.
type BadgerOptions struct {
	// DataDir is the directory for storing data files. Ignored when InMemory
	// is set.
	DataDir string

	// InMemory keeps everything in RAM. Data is lost on Close.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool

	// LowMemory shrinks memtables and caches.
	LowMemory bool

	// Logger receives BadgerDB's internal logging. Nil silences it.
	Logger *logrus.Entry
}

// NewBadgerEngine opens (or creates) a persistent engine in dataDir.
func NewBadgerEngine(dataDir string) (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{DataDir: dataDir})
}

// NewBadgerEngineInMemory creates an in-memory BadgerDB for testing.
func NewBadgerEngineInMemory() (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{InMemory: true})
}

// NewBadgerEngineWithOptions creates a BadgerEngine with custom configuration.
//
// Configuration Trade-offs:
//   - SyncWrites=true: slower writes but nothing is lost on power failure
//   - LowMemory=true: less RAM, more compaction
//   - InMemory=true: fastest, data lost on shutdown
func NewBadgerEngineWithOptions(opts BadgerOptions) (*BadgerEngine, error) {
	dir := opts.DataDir
	if opts.InMemory {
		dir = ""
	}
	badgerOpts := badger.DefaultOptions(dir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites)

	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(opts.Logger)
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	if opts.LowMemory {
		badgerOpts = badgerOpts.
			WithMemTableSize(16 << 20).
			WithValueLogFileSize(64 << 20).
			WithNumMemtables(2).
			WithNumLevelZeroTables(2).
			WithNumLevelZeroTablesStall(4).
			WithBlockCacheSize(32 << 20).
			WithIndexCacheSize(16 << 20)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	log := logrus.WithField("component", "storage.badger")
	log.WithFields(logrus.Fields{
		"dir":       dir,
		"in_memory": opts.InMemory,
	}).Debug("badger engine opened")

	return &BadgerEngine{db: db, log: log}, nil
}

// ============================================================================
// Key encoding helpers
// ============================================================================

func prefixed(prefix byte, parts ...[]byte) []byte {
	out := []byte{prefix}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func tagIndexPrefix(tag string) []byte {
	return appendPart([]byte{prefixTagIndex}, []byte(tag))
}

func adjacencyPrefix(prefix byte, vid []byte) []byte {
	return appendPart([]byte{prefix}, vid)
}

func encodeVertex(v *value.Vertex) ([]byte, error) {
	data, err := value.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vertex: %w", err)
	}
	return data, nil
}

func decodeVertex(data []byte) (*value.Vertex, error) {
	raw, err := value.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	v, ok := raw.(*value.Vertex)
	if !ok {
		return nil, fmt.Errorf("%w: stored record is %s, not a vertex", ErrInvalidData, value.TypeOf(raw))
	}
	return v, nil
}

func encodeEdge(e *value.Edge) ([]byte, error) {
	data, err := value.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode edge: %w", err)
	}
	return data, nil
}

func decodeEdge(data []byte) (*value.Edge, error) {
	raw, err := value.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	e, ok := raw.(*value.Edge)
	if !ok {
		return nil, fmt.Errorf("%w: stored record is %s, not an edge", ErrInvalidData, value.TypeOf(raw))
	}
	return e, nil
}

func (b *BadgerEngine) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrStorageClosed
	}
	return nil
}

// exists reports whether key is present in txn.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

func getVertexInTxn(txn *badger.Txn, vid []byte) (*value.Vertex, error) {
	item, err := txn.Get(prefixed(prefixVertex, vid))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v *value.Vertex
	err = item.Value(func(val []byte) error {
		var decodeErr error
		v, decodeErr = decodeVertex(val)
		return decodeErr
	})
	return v, err
}

func getEdgeInTxn(txn *badger.Txn, ek []byte) (*value.Edge, error) {
	item, err := txn.Get(prefixed(prefixEdge, ek))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var e *value.Edge
	err = item.Value(func(val []byte) error {
		var decodeErr error
		e, decodeErr = decodeEdge(val)
		return decodeErr
	})
	return e, err
}

// scanKeys collects the suffixes of every key under prefix.
func scanKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		out = append(out, key[len(prefix):])
	}
	return out
}

// ============================================================================
// Vertex operations
// ============================================================================

// CreateVertex stores a new vertex and its tag index entries.
func (b *BadgerEngine) CreateVertex(v *value.Vertex) error {
	if err := checkVertex(v); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return createVertexInTxn(txn, v)
	})
}

func createVertexInTxn(txn *badger.Txn, v *value.Vertex) error {
	vid, _ := vidBytes(v.VID)
	key := prefixed(prefixVertex, vid)
	found, err := exists(txn, key)
	if err != nil {
		return err
	}
	if found {
		return ErrAlreadyExists
	}
	return putVertexInTxn(txn, vid, v)
}

func putVertexInTxn(txn *badger.Txn, vid []byte, v *value.Vertex) error {
	data, err := encodeVertex(v)
	if err != nil {
		return err
	}
	if err := txn.Set(prefixed(prefixVertex, vid), data); err != nil {
		return err
	}
	for _, t := range v.Tags {
		if err := txn.Set(prefixed(prefixTagIndex, appendPart(nil, []byte(t.Name)), vid), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// GetVertex loads a vertex by id.
func (b *BadgerEngine) GetVertex(vid value.Value) (*value.Vertex, error) {
	id, err := vidBytes(vid)
	if err != nil {
		return nil, err
	}
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var v *value.Vertex
	err = b.db.View(func(txn *badger.Txn) error {
		var getErr error
		v, getErr = getVertexInTxn(txn, id)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVertex replaces a stored vertex and rebuilds its tag index entries.
func (b *BadgerEngine) UpdateVertex(v *value.Vertex) error {
	if err := checkVertex(v); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	vid, _ := vidBytes(v.VID)
	return b.db.Update(func(txn *badger.Txn) error {
		old, err := getVertexInTxn(txn, vid)
		if err != nil {
			return err
		}
		for _, t := range old.Tags {
			if err := txn.Delete(prefixed(prefixTagIndex, appendPart(nil, []byte(t.Name)), vid)); err != nil {
				return err
			}
		}
		return putVertexInTxn(txn, vid, v)
	})
}

// DeleteVertex removes a vertex, its index entries and every edge touching it.
func (b *BadgerEngine) DeleteVertex(vid value.Value) error {
	id, err := vidBytes(vid)
	if err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		old, err := getVertexInTxn(txn, id)
		if err != nil {
			return err
		}
		for _, t := range old.Tags {
			if err := txn.Delete(prefixed(prefixTagIndex, appendPart(nil, []byte(t.Name)), id)); err != nil {
				return err
			}
		}

		// Outgoing index suffixes are already edge keys once the prefix
		// byte is restored.
		outPrefix := adjacencyPrefix(prefixOutgoing, id)
		for _, rest := range scanKeys(txn, outPrefix) {
			ek := append(appendPart(nil, id), rest...)
			if err := deleteEdgeInTxn(txn, ek); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		for _, ek := range scanKeys(txn, adjacencyPrefix(prefixIncoming, id)) {
			if err := deleteEdgeInTxn(txn, ek); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		return txn.Delete(prefixed(prefixVertex, id))
	})
}

// ============================================================================
// Edge operations
// ============================================================================

// CreateEdge stores a new edge. Both endpoints must exist.
func (b *BadgerEngine) CreateEdge(e *value.Edge) error {
	if err := checkEdge(e); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return createEdgeInTxn(txn, e)
	})
}

func createEdgeInTxn(txn *badger.Txn, e *value.Edge) error {
	ek, _ := encodeEdgeKey(KeyOf(e))
	found, err := exists(txn, prefixed(prefixEdge, ek))
	if err != nil {
		return err
	}
	if found {
		return ErrAlreadyExists
	}

	src, _ := vidBytes(e.Src)
	dst, _ := vidBytes(e.Dst)
	for _, vid := range [][]byte{src, dst} {
		found, err := exists(txn, prefixed(prefixVertex, vid))
		if err != nil {
			return err
		}
		if !found {
			return ErrInvalidEdge
		}
	}

	data, err := encodeEdge(e)
	if err != nil {
		return err
	}
	if err := txn.Set(prefixed(prefixEdge, ek), data); err != nil {
		return err
	}
	if err := txn.Set(prefixed(prefixOutgoing, ek), []byte{}); err != nil {
		return err
	}
	return txn.Set(prefixed(prefixIncoming, appendPart(nil, dst), ek), []byte{})
}

// GetEdge loads an edge by key.
func (b *BadgerEngine) GetEdge(key EdgeKey) (*value.Edge, error) {
	ek, err := encodeEdgeKey(key)
	if err != nil {
		return nil, err
	}
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var e *value.Edge
	err = b.db.View(func(txn *badger.Txn) error {
		var getErr error
		e, getErr = getEdgeInTxn(txn, ek)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEdge replaces the properties of a stored edge.
func (b *BadgerEngine) UpdateEdge(e *value.Edge) error {
	if err := checkEdge(e); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	ek, _ := encodeEdgeKey(KeyOf(e))
	return b.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, prefixed(prefixEdge, ek))
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		data, err := encodeEdge(e)
		if err != nil {
			return err
		}
		return txn.Set(prefixed(prefixEdge, ek), data)
	})
}

// DeleteEdge removes an edge and its adjacency entries.
func (b *BadgerEngine) DeleteEdge(key EdgeKey) error {
	ek, err := encodeEdgeKey(key)
	if err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return deleteEdgeInTxn(txn, ek)
	})
}

func deleteEdgeInTxn(txn *badger.Txn, ek []byte) error {
	e, err := getEdgeInTxn(txn, ek)
	if err != nil {
		return err
	}
	dst, _ := vidBytes(e.Dst)
	if err := txn.Delete(prefixed(prefixOutgoing, ek)); err != nil {
		return err
	}
	if err := txn.Delete(prefixed(prefixIncoming, appendPart(nil, dst), ek)); err != nil {
		return err
	}
	return txn.Delete(prefixed(prefixEdge, ek))
}

// ============================================================================
// Query operations
// ============================================================================

// VerticesByTag returns the vertices carrying tag, ordered by id.
func (b *BadgerEngine) VerticesByTag(tag string) ([]*value.Vertex, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var out []*value.Vertex
	err := b.db.View(func(txn *badger.Txn) error {
		for _, vid := range scanKeys(txn, tagIndexPrefix(tag)) {
			v, err := getVertexInTxn(txn, vid)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortVertices(out)
	return out, nil
}

// OutgoingEdges returns the edges leaving vid, ordered by key.
func (b *BadgerEngine) OutgoingEdges(vid value.Value) ([]*value.Edge, error) {
	id, err := vidBytes(vid)
	if err != nil {
		return nil, err
	}
	src := appendPart(nil, id)
	return b.edgesUnder(adjacencyPrefix(prefixOutgoing, id), func(rest []byte) []byte {
		return append(append([]byte{}, src...), rest...)
	})
}

// IncomingEdges returns the edges arriving at vid, ordered by key.
func (b *BadgerEngine) IncomingEdges(vid value.Value) ([]*value.Edge, error) {
	id, err := vidBytes(vid)
	if err != nil {
		return nil, err
	}
	return b.edgesUnder(adjacencyPrefix(prefixIncoming, id), func(rest []byte) []byte { return rest })
}

func (b *BadgerEngine) edgesUnder(prefix []byte, edgeKey func(rest []byte) []byte) ([]*value.Edge, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var out []*value.Edge
	err := b.db.View(func(txn *badger.Txn) error {
		for _, rest := range scanKeys(txn, prefix) {
			e, err := getEdgeInTxn(txn, edgeKey(rest))
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEdges(out)
	return out, nil
}

// AllVertices returns every vertex, ordered by id.
func (b *BadgerEngine) AllVertices() ([]*value.Vertex, error) {
	var out []*value.Vertex
	err := b.iterate(prefixVertex, func(val []byte) error {
		v, err := decodeVertex(val)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortVertices(out)
	return out, nil
}

// AllEdges returns every edge, ordered by key.
func (b *BadgerEngine) AllEdges() ([]*value.Edge, error) {
	var out []*value.Edge
	err := b.iterate(prefixEdge, func(val []byte) error {
		e, err := decodeEdge(val)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEdges(out)
	return out, nil
}

func (b *BadgerEngine) iterate(prefix byte, fn func(val []byte) error) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.db.View(func(txn *badger.Txn) error {
		p := []byte{prefix}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// ============================================================================
// Bulk operations
// ============================================================================

// BulkCreateVertices stores all vertices in one transaction, or none.
func (b *BadgerEngine) BulkCreateVertices(vs []*value.Vertex) error {
	for _, v := range vs {
		if err := checkVertex(v); err != nil {
			return err
		}
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, v := range vs {
			if err := createVertexInTxn(txn, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.log.WithField("vertices", len(vs)).Debug("bulk vertex load")
	}
	return err
}

// BulkCreateEdges stores all edges in one transaction, or none.
func (b *BadgerEngine) BulkCreateEdges(es []*value.Edge) error {
	for _, e := range es {
		if err := checkEdge(e); err != nil {
			return err
		}
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, e := range es {
			if err := createEdgeInTxn(txn, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.log.WithField("edges", len(es)).Debug("bulk edge load")
	}
	return err
}

// ============================================================================
// Stats and lifecycle
// ============================================================================

// VertexCount returns the number of vertices.
func (b *BadgerEngine) VertexCount() (int64, error) {
	return b.count(prefixVertex)
}

// EdgeCount returns the number of edges.
func (b *BadgerEngine) EdgeCount() (int64, error) {
	return b.count(prefixEdge)
}

func (b *BadgerEngine) count(prefix byte) (int64, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	var n int64
	err := b.db.View(func(txn *badger.Txn) error {
		n = int64(len(scanKeys(txn, []byte{prefix})))
		return nil
	})
	return n, err
}

// Sync flushes pending writes to disk.
func (b *BadgerEngine) Sync() error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	return b.db.Sync()
}

// Close closes the database. Calling Close twice is a no-op.
func (b *BadgerEngine) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.log.Debug("badger engine closed")
	return b.db.Close()
}

var _ Engine = (*BadgerEngine)(nil)
