package expression

import (
	"errors"
	"sync"

	"github.com/orneryd/nornicexpr/pkg/cache"
	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// ============================================================================
// Capability interfaces
// ============================================================================

// VariableReader resolves variables. A missing variable is reported with an
// error matching ErrUndefinedVariable.
type VariableReader interface {
	Variable(name string) (value.Value, error)
}

// VariableWriter binds variables. The last write wins.
type VariableWriter interface {
	SetVariable(name string, v value.Value)
}

// GraphAccess exposes the graph entities in scope. CurrentVertex and
// CurrentEdge return nil with a nil error when nothing is in scope.
type GraphAccess interface {
	CurrentVertex() (*value.Vertex, error)
	CurrentEdge() (*value.Edge, error)
	NamedPath(name string) (*value.Path, bool)
}

// FunctionAccess exposes the function registry.
type FunctionAccess interface {
	Functions() *functions.Registry
}

// CacheAccess exposes the regex and temporal literal cache.
type CacheAccess interface {
	Cache() *cache.LiteralCache
}

// Context is everything the evaluator needs from its environment. It also
// satisfies functions.Env so it can be handed to function bodies.
type Context interface {
	VariableReader
	VariableWriter
	GraphAccess
	FunctionAccess
	CacheAccess
}

// EndpointAccess is implemented by contexts that can resolve the endpoints
// of the current edge ($^ and $$).
type EndpointAccess interface {
	SourceVertex() (*value.Vertex, error)
	DestVertex() (*value.Vertex, error)
}

// InputReader is implemented by contexts with a current input row ($-).
type InputReader interface {
	Input(name string) (value.Value, error)
}

// VersionedReader is implemented by contexts that keep every write of a
// variable.
type VersionedReader interface {
	VariableVersion(name string, version int) (value.Value, error)
}

// DefaultCacheSize bounds the literal cache created lazily by a context.
const DefaultCacheSize = 256

var defaultRegistry = sync.OnceValue(func() *functions.Registry {
	return functions.NewRegistry(nil)
})

// DefaultRegistry returns the shared registry of built-in functions used by
// contexts created without one.
func DefaultRegistry() *functions.Registry { return defaultRegistry() }

func undefinedVariable(name string) error {
	return newError(ErrorUndefinedVariable, "%s", name)
}

// ============================================================================
// BasicContext
// ============================================================================

// BasicContext is a variable scope with optional graph entities. Child
// scopes read through to their parent and share its registry and cache.
//
// A context is owned by one evaluation at a time and is not safe for
// concurrent use.
type BasicContext struct {
	parent   *BasicContext
	outer    VariableReader // variable reads fall through to this scope
	vars     map[string]value.Value
	vertex   *value.Vertex
	edge     *value.Edge
	src, dst *value.Vertex
	paths    map[string]*value.Path
	registry *functions.Registry
	cache    *cache.LiteralCache
}

// NewBasicContext returns an empty scope. A nil registry selects
// DefaultRegistry.
func NewBasicContext(reg *functions.Registry) *BasicContext {
	return &BasicContext{registry: reg}
}

// NewChild returns a nested scope. Writes to the child never reach the
// parent.
func (c *BasicContext) NewChild() *BasicContext {
	return &BasicContext{parent: c, outer: c}
}

func (c *BasicContext) Variable(name string) (value.Value, error) {
	if v, ok := c.vars[name]; ok {
		return v, nil
	}
	if c.outer != nil {
		return c.outer.Variable(name)
	}
	return nil, undefinedVariable(name)
}

func (c *BasicContext) SetVariable(name string, v value.Value) {
	if c.vars == nil {
		c.vars = make(map[string]value.Value)
	}
	c.vars[name] = v
}

// SetVariables binds every entry of vars.
func (c *BasicContext) SetVariables(vars map[string]value.Value) {
	for k, v := range vars {
		c.SetVariable(k, v)
	}
}

// SetVertex puts v in scope as the current vertex.
func (c *BasicContext) SetVertex(v *value.Vertex) { c.vertex = v }

// SetEdge puts e in scope as the current edge.
func (c *BasicContext) SetEdge(e *value.Edge) { c.edge = e }

// SetEndpoints sets the vertices read by $^ and $$.
func (c *BasicContext) SetEndpoints(src, dst *value.Vertex) { c.src, c.dst = src, dst }

// SetPath binds a named path.
func (c *BasicContext) SetPath(name string, p *value.Path) {
	if c.paths == nil {
		c.paths = make(map[string]*value.Path)
	}
	c.paths[name] = p
}

// SetCache replaces the literal cache, e.g. to share one across scopes.
func (c *BasicContext) SetCache(lc *cache.LiteralCache) { c.cache = lc }

func (c *BasicContext) CurrentVertex() (*value.Vertex, error) {
	for s := c; s != nil; s = s.parent {
		if s.vertex != nil {
			return s.vertex, nil
		}
	}
	return nil, nil
}

func (c *BasicContext) CurrentEdge() (*value.Edge, error) {
	for s := c; s != nil; s = s.parent {
		if s.edge != nil {
			return s.edge, nil
		}
	}
	return nil, nil
}

func (c *BasicContext) SourceVertex() (*value.Vertex, error) {
	for s := c; s != nil; s = s.parent {
		if s.src != nil {
			return s.src, nil
		}
	}
	return nil, nil
}

func (c *BasicContext) DestVertex() (*value.Vertex, error) {
	for s := c; s != nil; s = s.parent {
		if s.dst != nil {
			return s.dst, nil
		}
	}
	return nil, nil
}

func (c *BasicContext) NamedPath(name string) (*value.Path, bool) {
	for s := c; s != nil; s = s.parent {
		if p, ok := s.paths[name]; ok {
			return p, true
		}
	}
	return nil, false
}

func (c *BasicContext) Functions() *functions.Registry {
	for s := c; s != nil; s = s.parent {
		if s.registry != nil {
			return s.registry
		}
	}
	return DefaultRegistry()
}

// Cache returns the scope's literal cache, creating it at the root scope on
// first use.
func (c *BasicContext) Cache() *cache.LiteralCache {
	root := c
	for s := c; s != nil; s = s.parent {
		if s.cache != nil {
			return s.cache
		}
		root = s
	}
	root.cache = cache.NewLiteralCache(DefaultCacheSize, 0)
	return root.cache
}

// ============================================================================
// QueryContext
// ============================================================================

// QueryContext keeps every write of a variable so that earlier versions
// stay readable through VersionedVariable nodes.
type QueryContext struct {
	*BasicContext
	versions map[string][]value.Value
}

// NewQueryContext returns an empty versioned scope.
func NewQueryContext(reg *functions.Registry) *QueryContext {
	return &QueryContext{BasicContext: NewBasicContext(reg), versions: make(map[string][]value.Value)}
}

// SetVariable appends a new version of name.
func (q *QueryContext) SetVariable(name string, v value.Value) {
	q.versions[name] = append(q.versions[name], v)
}

// SetVariables appends a new version of every entry of vars.
func (q *QueryContext) SetVariables(vars map[string]value.Value) {
	for k, v := range vars {
		q.SetVariable(k, v)
	}
}

// NewChild returns a nested scope whose variable reads see the latest
// versions of q.
func (q *QueryContext) NewChild() *BasicContext {
	return &BasicContext{parent: q.BasicContext, outer: q}
}

// Variable returns the latest version of name.
func (q *QueryContext) Variable(name string) (value.Value, error) {
	if hist := q.versions[name]; len(hist) > 0 {
		return hist[len(hist)-1], nil
	}
	return q.BasicContext.Variable(name)
}

// VariableVersion reads one version of name: 0 is the latest, -1 the one
// before it, and a positive n the n-th write.
func (q *QueryContext) VariableVersion(name string, version int) (value.Value, error) {
	hist := q.versions[name]
	i := len(hist) - 1 + version
	if version > 0 {
		i = version - 1
	}
	if i < 0 || i >= len(hist) {
		if len(hist) == 0 && version == 0 {
			return q.BasicContext.Variable(name)
		}
		return nil, newError(ErrorUndefinedVariable, "%s{%d}", name, version)
	}
	return hist[i], nil
}

// Versions returns how many times name was written.
func (q *QueryContext) Versions(name string) int { return len(q.versions[name]) }

// ============================================================================
// RowContext
// ============================================================================

// RowReader gives positional access to an encoded row.
type RowReader interface {
	Field(i int) (value.Value, error)
	ColumnIndex(name string) (int, bool)
}

// RowContext layers the current input row ahead of a QueryContext. Columns
// resolve from the row map first, then from the RowReader.
type RowContext struct {
	*QueryContext
	row    map[string]value.Value
	reader RowReader
}

// NewRowContext returns a row scope over q. A nil q starts a fresh
// QueryContext with the default registry.
func NewRowContext(q *QueryContext) *RowContext {
	if q == nil {
		q = NewQueryContext(nil)
	}
	return &RowContext{QueryContext: q}
}

// SetRow replaces the current row map.
func (r *RowContext) SetRow(row map[string]value.Value) { r.row = row }

// SetRowReader replaces the current row reader.
func (r *RowContext) SetRowReader(rr RowReader) { r.reader = rr }

// Input reads a column of the current row.
func (r *RowContext) Input(name string) (value.Value, error) {
	if v, ok := r.row[name]; ok {
		return v, nil
	}
	if r.reader != nil {
		if i, ok := r.reader.ColumnIndex(name); ok {
			v, err := r.reader.Field(i)
			if err != nil {
				return nil, sourceError("row field "+name, err)
			}
			return v, nil
		}
	}
	return nil, newError(ErrorUndefinedVariable, "$-.%s", name)
}

// NewChild returns a nested scope whose variable reads see the row columns
// and the query variables of r.
func (r *RowContext) NewChild() *BasicContext {
	return &BasicContext{parent: r.BasicContext, outer: r}
}

// Variable resolves row columns before query variables.
func (r *RowContext) Variable(name string) (value.Value, error) {
	v, err := r.Input(name)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrUndefinedVariable) {
		return nil, err
	}
	return r.QueryContext.Variable(name)
}

// ============================================================================
// GraphContext
// ============================================================================

// VertexSource loads vertices by id. A missing vertex is reported with
// found == false, not an error.
type VertexSource interface {
	LookupVertex(vid value.Value) (v *value.Vertex, found bool, err error)
}

// EdgeSource loads edges by key.
type EdgeSource interface {
	LookupEdge(src, dst value.Value, edgeType string, rank int64) (e *value.Edge, found bool, err error)
}

type edgeKey struct {
	src, dst value.Value
	edgeType string
	rank     int64
}

// lazy holds a value fetched at most once.
type lazy[T any] struct {
	loaded bool
	val    T
	err    error
}

func (l *lazy[T]) get(load func() (T, error)) (T, error) {
	if !l.loaded {
		l.val, l.err = load()
		l.loaded = true
	}
	return l.val, l.err
}

// GraphContext resolves the current vertex and edge lazily from a source,
// by id and key. Each entity is fetched at most once per SetVertexID or
// SetEdgeKey call. Endpoints of an edge set through SetEdge are looked up
// on every read.
type GraphContext struct {
	*BasicContext
	vertices VertexSource
	edges    EdgeSource

	vid  value.Value
	ekey *edgeKey

	vertex   lazy[*value.Vertex]
	edge     lazy[*value.Edge]
	src, dst lazy[*value.Vertex]
}

// NewGraphContext returns a context reading from vertices and edges. A nil
// base starts a fresh BasicContext with the default registry.
func NewGraphContext(base *BasicContext, vertices VertexSource, edges EdgeSource) *GraphContext {
	if base == nil {
		base = NewBasicContext(nil)
	}
	return &GraphContext{BasicContext: base, vertices: vertices, edges: edges}
}

// SetVertexID selects the current vertex by id.
func (g *GraphContext) SetVertexID(vid value.Value) {
	g.vid = vid
	g.vertex = lazy[*value.Vertex]{}
}

// SetEdgeKey selects the current edge by key.
func (g *GraphContext) SetEdgeKey(src, dst value.Value, edgeType string, rank int64) {
	g.ekey = &edgeKey{src: src, dst: dst, edgeType: edgeType, rank: rank}
	g.edge = lazy[*value.Edge]{}
	g.src = lazy[*value.Vertex]{}
	g.dst = lazy[*value.Vertex]{}
}

func (g *GraphContext) loadVertex(vid value.Value) (*value.Vertex, error) {
	if g.vertices == nil {
		return nil, nil
	}
	v, found, err := g.vertices.LookupVertex(vid)
	if err != nil {
		return nil, sourceError("vertex "+vid.String(), err)
	}
	if !found {
		return nil, nil
	}
	return v, nil
}

func (g *GraphContext) CurrentVertex() (*value.Vertex, error) {
	if g.vid == nil {
		return g.BasicContext.CurrentVertex()
	}
	return g.vertex.get(func() (*value.Vertex, error) { return g.loadVertex(g.vid) })
}

func (g *GraphContext) CurrentEdge() (*value.Edge, error) {
	if g.ekey == nil {
		return g.BasicContext.CurrentEdge()
	}
	return g.edge.get(func() (*value.Edge, error) {
		if g.edges == nil {
			return nil, nil
		}
		k := g.ekey
		e, found, err := g.edges.LookupEdge(k.src, k.dst, k.edgeType, k.rank)
		if err != nil {
			return nil, sourceError("edge "+k.edgeType, err)
		}
		if !found {
			return nil, nil
		}
		return e, nil
	})
}

func (g *GraphContext) endpoint(slot *lazy[*value.Vertex], pick func(*value.Edge) value.Value, fallback func() (*value.Vertex, error)) (*value.Vertex, error) {
	e, err := g.CurrentEdge()
	if err != nil {
		return nil, err
	}
	if e == nil {
		return fallback()
	}
	if g.ekey == nil {
		return g.loadVertex(pick(e))
	}
	return slot.get(func() (*value.Vertex, error) { return g.loadVertex(pick(e)) })
}

// SourceVertex loads the source vertex of the current edge.
func (g *GraphContext) SourceVertex() (*value.Vertex, error) {
	return g.endpoint(&g.src, func(e *value.Edge) value.Value { return e.Src }, g.BasicContext.SourceVertex)
}

// DestVertex loads the destination vertex of the current edge.
func (g *GraphContext) DestVertex() (*value.Vertex, error) {
	return g.endpoint(&g.dst, func(e *value.Edge) value.Value { return e.Dst }, g.BasicContext.DestVertex)
}
