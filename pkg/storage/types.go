// Package storage keeps the vertices and edges that expressions read through
// a GraphContext.
//
// Two engines implement Engine:
//   - MemoryEngine: maps guarded by a RWMutex, for tests and small graphs
//   - BadgerEngine: persistent storage in BadgerDB, records encoded with the
//     value msgpack codec
//
// Source adapts either engine to the expression package's VertexSource and
// EdgeSource, and LoadGraph fills an engine from a YAML or JSON document.
//
// Example Usage:
//
//	engine := storage.NewMemoryEngine()
//	defer engine.Close()
//
//	_ = engine.CreateVertex(value.NewVertex(value.String("p1"),
//		value.Tag{Name: "player", Props: value.Map{"name": value.String("Tim")}}))
//
//	ctx := expression.NewGraphContext(nil, storage.NewSource(engine), storage.NewSource(engine))
//	ctx.SetVertexID(value.String("p1"))
//	name, _ := expression.Evaluate(expression.NewTagProperty("player", "name"), ctx)
//
// ELI12:
//
// The evaluator knows how to read a person's name off a card, but not where
// the cards are kept. Storage is the card box. You ask it for card "p1" and
// it hands you the card, or tells you there is no such card.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidData   = errors.New("invalid data")
	ErrInvalidEdge   = errors.New("invalid edge: source or destination vertex not found")
	ErrStorageClosed = errors.New("storage closed")
)

// EdgeKey identifies an edge: two edges with the same endpoints and type
// are told apart by their rank.
type EdgeKey struct {
	Src      value.Value
	Dst      value.Value
	EdgeType string
	Rank     int64
}

// KeyOf returns the key of e.
func KeyOf(e *value.Edge) EdgeKey {
	return EdgeKey{Src: e.Src, Dst: e.Dst, EdgeType: e.EdgeType, Rank: e.Ranking}
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%s->%s@%s:%d", k.Src, k.Dst, k.EdgeType, k.Rank)
}

// Engine stores vertices and edges. Implementations are safe for concurrent
// use and never hand out their internal copies.
type Engine interface {
	// Vertex operations
	CreateVertex(v *value.Vertex) error
	GetVertex(vid value.Value) (*value.Vertex, error)
	UpdateVertex(v *value.Vertex) error
	DeleteVertex(vid value.Value) error

	// Edge operations
	CreateEdge(e *value.Edge) error
	GetEdge(key EdgeKey) (*value.Edge, error)
	UpdateEdge(e *value.Edge) error
	DeleteEdge(key EdgeKey) error

	// Query operations
	VerticesByTag(tag string) ([]*value.Vertex, error)
	OutgoingEdges(vid value.Value) ([]*value.Edge, error)
	IncomingEdges(vid value.Value) ([]*value.Edge, error)
	AllVertices() ([]*value.Vertex, error)
	AllEdges() ([]*value.Edge, error)

	// Bulk operations (for loading)
	BulkCreateVertices(vs []*value.Vertex) error
	BulkCreateEdges(es []*value.Edge) error

	// Lifecycle
	Close() error

	// Stats
	VertexCount() (int64, error)
	EdgeCount() (int64, error)
}

// ============================================================================
// Key encoding
// ============================================================================

// vidBytes encodes a vertex id. Only INT and STRING ids are accepted so that
// the encoding is canonical.
func vidBytes(vid value.Value) ([]byte, error) {
	switch vid.(type) {
	case value.Int, value.String:
	default:
		return nil, fmt.Errorf("%w: vertex id must be INT or STRING, got %s", ErrInvalidID, value.TypeOf(vid))
	}
	if s, ok := vid.(value.String); ok && s == "" {
		return nil, fmt.Errorf("%w: empty vertex id", ErrInvalidID)
	}
	return value.Marshal(vid)
}

// vidString is the map key used by MemoryEngine.
func vidString(vid value.Value) (string, error) {
	b, err := vidBytes(vid)
	return string(b), err
}

// appendPart appends a length-prefixed component, so that keys built from
// several components never collide.
func appendPart(dst, part []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(part)))
	return append(dst, part...)
}

// encodeEdgeKey renders a key as src | dst | type | rank.
func encodeEdgeKey(k EdgeKey) ([]byte, error) {
	if k.EdgeType == "" {
		return nil, fmt.Errorf("%w: empty edge type", ErrInvalidID)
	}
	src, err := vidBytes(k.Src)
	if err != nil {
		return nil, err
	}
	dst, err := vidBytes(k.Dst)
	if err != nil {
		return nil, err
	}
	out := appendPart(nil, src)
	out = appendPart(out, dst)
	out = appendPart(out, []byte(k.EdgeType))
	return binary.BigEndian.AppendUint64(out, uint64(k.Rank)), nil
}

// copyVertex returns a copy that shares no maps or slices with v.
func copyVertex(v *value.Vertex) *value.Vertex {
	out := &value.Vertex{VID: v.VID, Props: copyProps(v.Props)}
	for _, t := range v.Tags {
		out.Tags = append(out.Tags, value.Tag{Name: t.Name, Props: copyProps(t.Props)})
	}
	return out
}

func copyEdge(e *value.Edge) *value.Edge {
	out := *e
	out.Props = copyProps(e.Props)
	return &out
}

func copyProps(m value.Map) value.Map {
	if m == nil {
		return nil
	}
	out := make(value.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func checkVertex(v *value.Vertex) error {
	if v == nil {
		return ErrInvalidData
	}
	_, err := vidBytes(v.VID)
	return err
}

func checkEdge(e *value.Edge) error {
	if e == nil {
		return ErrInvalidData
	}
	_, err := encodeEdgeKey(KeyOf(e))
	return err
}
