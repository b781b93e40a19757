package storage

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// MemoryEngine is a thread-safe in-memory graph store.
//
// Use Cases:
//   - Unit testing (no disk I/O, fast cleanup)
//   - Evaluating expressions over a graph document loaded by the CLI
//   - Small graphs that fit entirely in RAM
//
// Vertices and edges are copied on the way in and on the way out, so callers
// may mutate what they pass or receive.
//
// Example:
//
//	engine := storage.NewMemoryEngine()
//	defer engine.Close()
//
//	engine.BulkCreateVertices([]*value.Vertex{
//		value.NewVertex(value.String("p1"), value.Tag{Name: "player"}),
//		value.NewVertex(value.String("t1"), value.Tag{Name: "team"}),
//	})
//	engine.CreateEdge(&value.Edge{Src: value.String("p1"), Dst: value.String("t1"), EdgeType: "serve"})
//
//	out, _ := engine.OutgoingEdges(value.String("p1"))
//	fmt.Printf("p1 serves %d teams\n", len(out))
type MemoryEngine struct {
	mu       sync.RWMutex
	vertices map[string]*value.Vertex
	edges    map[string]*value.Edge

	// Indexes, keyed by encoded vertex id and encoded edge key
	byTag    map[string]map[string]struct{}
	outgoing map[string]map[string]struct{}
	incoming map[string]map[string]struct{}

	log    *logrus.Entry
	closed bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		vertices: make(map[string]*value.Vertex),
		edges:    make(map[string]*value.Edge),
		byTag:    make(map[string]map[string]struct{}),
		outgoing: make(map[string]map[string]struct{}),
		incoming: make(map[string]map[string]struct{}),
		log:      logrus.WithField("component", "storage.memory"),
	}
}

func addIndex(idx map[string]map[string]struct{}, key, member string) {
	if idx[key] == nil {
		idx[key] = make(map[string]struct{})
	}
	idx[key][member] = struct{}{}
}

func dropIndex(idx map[string]map[string]struct{}, key, member string) {
	delete(idx[key], member)
	if len(idx[key]) == 0 {
		delete(idx, key)
	}
}

// ============================================================================
// Vertices
// ============================================================================

// CreateVertex stores a new vertex.
//
// Returns:
//   - ErrInvalidData if v is nil
//   - ErrInvalidID if the id is not a non-empty STRING or an INT
//   - ErrAlreadyExists if a vertex with this id exists
//   - ErrStorageClosed if the engine is closed
func (m *MemoryEngine) CreateVertex(v *value.Vertex) error {
	if err := checkVertex(v); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	return m.createVertexUnlocked(v)
}

func (m *MemoryEngine) createVertexUnlocked(v *value.Vertex) error {
	id, _ := vidString(v.VID)
	if _, exists := m.vertices[id]; exists {
		return ErrAlreadyExists
	}
	m.vertices[id] = copyVertex(v)
	for _, t := range v.Tags {
		addIndex(m.byTag, t.Name, id)
	}
	return nil
}

// GetVertex returns a copy of the vertex with the given id.
func (m *MemoryEngine) GetVertex(vid value.Value) (*value.Vertex, error) {
	id, err := vidString(vid)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	v, ok := m.vertices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyVertex(v), nil
}

// UpdateVertex replaces a stored vertex, tags included.
func (m *MemoryEngine) UpdateVertex(v *value.Vertex) error {
	if err := checkVertex(v); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	id, _ := vidString(v.VID)
	old, ok := m.vertices[id]
	if !ok {
		return ErrNotFound
	}
	for _, t := range old.Tags {
		dropIndex(m.byTag, t.Name, id)
	}
	m.vertices[id] = copyVertex(v)
	for _, t := range v.Tags {
		addIndex(m.byTag, t.Name, id)
	}
	return nil
}

// DeleteVertex removes a vertex and every edge touching it.
func (m *MemoryEngine) DeleteVertex(vid value.Value) error {
	id, err := vidString(vid)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	v, ok := m.vertices[id]
	if !ok {
		return ErrNotFound
	}
	for ek := range m.outgoing[id] {
		m.deleteEdgeUnlocked(ek)
	}
	for ek := range m.incoming[id] {
		m.deleteEdgeUnlocked(ek)
	}
	for _, t := range v.Tags {
		dropIndex(m.byTag, t.Name, id)
	}
	delete(m.vertices, id)
	return nil
}

// ============================================================================
// Edges
// ============================================================================

// CreateEdge stores a new edge. Both endpoints must exist.
func (m *MemoryEngine) CreateEdge(e *value.Edge) error {
	if err := checkEdge(e); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	return m.createEdgeUnlocked(e)
}

func (m *MemoryEngine) createEdgeUnlocked(e *value.Edge) error {
	ek, _ := encodeEdgeKey(KeyOf(e))
	key := string(ek)
	if _, exists := m.edges[key]; exists {
		return ErrAlreadyExists
	}
	src, _ := vidString(e.Src)
	dst, _ := vidString(e.Dst)
	if m.vertices[src] == nil || m.vertices[dst] == nil {
		return ErrInvalidEdge
	}
	m.edges[key] = copyEdge(e)
	addIndex(m.outgoing, src, key)
	addIndex(m.incoming, dst, key)
	return nil
}

// GetEdge returns a copy of the edge with the given key.
func (m *MemoryEngine) GetEdge(key EdgeKey) (*value.Edge, error) {
	ek, err := encodeEdgeKey(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	e, ok := m.edges[string(ek)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEdge(e), nil
}

// UpdateEdge replaces the properties of a stored edge.
func (m *MemoryEngine) UpdateEdge(e *value.Edge) error {
	if err := checkEdge(e); err != nil {
		return err
	}
	ek, _ := encodeEdgeKey(KeyOf(e))
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	if _, ok := m.edges[string(ek)]; !ok {
		return ErrNotFound
	}
	m.edges[string(ek)] = copyEdge(e)
	return nil
}

// DeleteEdge removes an edge.
func (m *MemoryEngine) DeleteEdge(key EdgeKey) error {
	ek, err := encodeEdgeKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	if _, ok := m.edges[string(ek)]; !ok {
		return ErrNotFound
	}
	m.deleteEdgeUnlocked(string(ek))
	return nil
}

func (m *MemoryEngine) deleteEdgeUnlocked(key string) {
	e, ok := m.edges[key]
	if !ok {
		return
	}
	src, _ := vidString(e.Src)
	dst, _ := vidString(e.Dst)
	dropIndex(m.outgoing, src, key)
	dropIndex(m.incoming, dst, key)
	delete(m.edges, key)
}

// ============================================================================
// Queries
// ============================================================================

// VerticesByTag returns the vertices carrying tag, ordered by id.
func (m *MemoryEngine) VerticesByTag(tag string) ([]*value.Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	out := make([]*value.Vertex, 0, len(m.byTag[tag]))
	for id := range m.byTag[tag] {
		out = append(out, copyVertex(m.vertices[id]))
	}
	sortVertices(out)
	return out, nil
}

// OutgoingEdges returns the edges leaving vid, ordered by key.
func (m *MemoryEngine) OutgoingEdges(vid value.Value) ([]*value.Edge, error) {
	return m.adjacent(vid, m.outgoing)
}

// IncomingEdges returns the edges arriving at vid, ordered by key.
func (m *MemoryEngine) IncomingEdges(vid value.Value) ([]*value.Edge, error) {
	return m.adjacent(vid, m.incoming)
}

func (m *MemoryEngine) adjacent(vid value.Value, idx map[string]map[string]struct{}) ([]*value.Edge, error) {
	id, err := vidString(vid)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	out := make([]*value.Edge, 0, len(idx[id]))
	for key := range idx[id] {
		out = append(out, copyEdge(m.edges[key]))
	}
	sortEdges(out)
	return out, nil
}

// AllVertices returns every vertex, ordered by id.
func (m *MemoryEngine) AllVertices() ([]*value.Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	out := make([]*value.Vertex, 0, len(m.vertices))
	for _, v := range m.vertices {
		out = append(out, copyVertex(v))
	}
	sortVertices(out)
	return out, nil
}

// AllEdges returns every edge, ordered by key.
func (m *MemoryEngine) AllEdges() ([]*value.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	out := make([]*value.Edge, 0, len(m.edges))
	for _, e := range m.edges {
		out = append(out, copyEdge(e))
	}
	sortEdges(out)
	return out, nil
}

// sortVertices orders by id using the value total order.
func sortVertices(vs []*value.Vertex) {
	sort.Slice(vs, func(i, j int) bool { return value.Less(vs[i].VID, vs[j].VID) })
}

// sortEdges orders by (src, dst, type, rank).
func sortEdges(es []*value.Edge) {
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if c := value.Compare(a.Src, b.Src); c != 0 {
			return c < 0
		}
		if c := value.Compare(a.Dst, b.Dst); c != 0 {
			return c < 0
		}
		if a.EdgeType != b.EdgeType {
			return a.EdgeType < b.EdgeType
		}
		return a.Ranking < b.Ranking
	})
}

// ============================================================================
// Bulk operations and lifecycle
// ============================================================================

// BulkCreateVertices stores all vertices or none.
func (m *MemoryEngine) BulkCreateVertices(vs []*value.Vertex) error {
	for _, v := range vs {
		if err := checkVertex(v); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		id, _ := vidString(v.VID)
		if _, dup := seen[id]; dup {
			return ErrAlreadyExists
		}
		if _, exists := m.vertices[id]; exists {
			return ErrAlreadyExists
		}
		seen[id] = struct{}{}
	}
	for _, v := range vs {
		if err := m.createVertexUnlocked(v); err != nil {
			return err
		}
	}
	m.log.WithField("vertices", len(vs)).Debug("bulk vertex load")
	return nil
}

// BulkCreateEdges stores all edges or none.
func (m *MemoryEngine) BulkCreateEdges(es []*value.Edge) error {
	for _, e := range es {
		if err := checkEdge(e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	seen := make(map[string]struct{}, len(es))
	for _, e := range es {
		ek, _ := encodeEdgeKey(KeyOf(e))
		if _, dup := seen[string(ek)]; dup {
			return ErrAlreadyExists
		}
		if _, exists := m.edges[string(ek)]; exists {
			return ErrAlreadyExists
		}
		src, _ := vidString(e.Src)
		dst, _ := vidString(e.Dst)
		if m.vertices[src] == nil || m.vertices[dst] == nil {
			return ErrInvalidEdge
		}
		seen[string(ek)] = struct{}{}
	}
	for _, e := range es {
		if err := m.createEdgeUnlocked(e); err != nil {
			return err
		}
	}
	m.log.WithField("edges", len(es)).Debug("bulk edge load")
	return nil
}

// VertexCount returns the number of vertices.
func (m *MemoryEngine) VertexCount() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrStorageClosed
	}
	return int64(len(m.vertices)), nil
}

// EdgeCount returns the number of edges.
func (m *MemoryEngine) EdgeCount() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrStorageClosed
	}
	return int64(len(m.edges)), nil
}

// Close drops all data. Further calls return ErrStorageClosed.
func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.vertices, m.edges = nil, nil
	m.byTag, m.outgoing, m.incoming = nil, nil, nil
	return nil
}

var _ Engine = (*MemoryEngine)(nil)
