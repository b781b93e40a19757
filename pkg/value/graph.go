package value

import (
	"math"
	"strconv"
	"strings"
)

// Geography is a point on the earth given in degrees.
//
// Equality and hashing use the bit pattern of each coordinate after
// canonicalising NaN and negative zero, so two independently computed NaNs
// (or 0.0 and -0.0) denote the same point.
type Geography struct {
	Latitude  float64
	Longitude float64
}

// earthRadiusMeters is the IUGG mean earth radius.
const earthRadiusMeters = 6371008.8

// String renders the point as WKT, longitude first.
func (g Geography) String() string {
	return "POINT(" + strconv.FormatFloat(g.Longitude, 'g', -1, 64) + " " +
		strconv.FormatFloat(g.Latitude, 'g', -1, 64) + ")"
}

// Valid reports whether the coordinates are finite and within range.
func (g Geography) Valid() bool {
	return !math.IsNaN(g.Latitude) && !math.IsNaN(g.Longitude) &&
		g.Latitude >= -90 && g.Latitude <= 90 && g.Longitude >= -180 && g.Longitude <= 180
}

// Distance returns the great-circle distance to other in metres using the
// haversine formula.
func (g Geography) Distance(other Geography) float64 {
	lat1, lat2 := g.Latitude*math.Pi/180, other.Latitude*math.Pi/180
	dLat := lat2 - lat1
	dLon := (other.Longitude - g.Longitude) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// ============================================================================
// Graph entities
// ============================================================================

// Tag is a named property group attached to a vertex (a label with its own
// properties).
type Tag struct {
	Name  string
	Props Map
}

// Vertex is a graph node. VID is usually an Int or a String.
type Vertex struct {
	VID   Value
	Tags  []Tag
	Props Map
}

// NewVertex returns a vertex with the given id and tags.
func NewVertex(vid Value, tags ...Tag) *Vertex {
	return &Vertex{VID: vid, Tags: tags}
}

// Tag returns the tag with the given name.
func (v *Vertex) Tag(name string) (Tag, bool) {
	if v == nil {
		return Tag{}, false
	}
	for _, t := range v.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// HasTag reports whether the vertex carries the named tag.
func (v *Vertex) HasTag(name string) bool {
	_, ok := v.Tag(name)
	return ok
}

// TagNames returns the tag names in declaration order.
func (v *Vertex) TagNames() []string {
	if v == nil {
		return nil
	}
	names := make([]string, len(v.Tags))
	for i, t := range v.Tags {
		names[i] = t.Name
	}
	return names
}

// Property looks up prop on the named tag. The second result reports
// whether the tag exists, the third whether the property exists on it.
func (v *Vertex) Property(tag, prop string) (Value, bool, bool) {
	t, ok := v.Tag(tag)
	if !ok {
		return nil, false, false
	}
	val, ok := t.Props[prop]
	return val, true, ok
}

// PropertyAny looks up prop in the vertex-level properties, then in each tag
// in declaration order.
func (v *Vertex) PropertyAny(prop string) (Value, bool) {
	if v == nil {
		return nil, false
	}
	if val, ok := v.Props[prop]; ok {
		return val, true
	}
	for _, t := range v.Tags {
		if val, ok := t.Props[prop]; ok {
			return val, true
		}
	}
	return nil, false
}

// AllProperties merges tag properties (later tags win) and vertex-level
// properties (which win over tags) into one map.
func (v *Vertex) AllProperties() Map {
	out := Map{}
	if v == nil {
		return out
	}
	for _, t := range v.Tags {
		for k, val := range t.Props {
			out[k] = val
		}
	}
	for k, val := range v.Props {
		out[k] = val
	}
	return out
}

// String renders the vertex as ("vid" :tag{...} {...}).
func (v *Vertex) String() string {
	if v == nil {
		return "()"
	}
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(nested(v.VID))
	for _, t := range v.Tags {
		sb.WriteString(" :")
		sb.WriteString(t.Name)
		sb.WriteString(t.Props.String())
	}
	if len(v.Props) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(v.Props.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Edge is a directed, typed relationship between two vertex ids. Ranking
// distinguishes parallel edges of the same type.
type Edge struct {
	Src      Value
	Dst      Value
	EdgeType string
	Ranking  int64
	Props    Map
}

// Property looks up a property on the edge.
func (e *Edge) Property(name string) (Value, bool) {
	if e == nil {
		return nil, false
	}
	val, ok := e.Props[name]
	return val, ok
}

// String renders the edge as [:type "src"->"dst" @rank {...}].
func (e *Edge) String() string {
	if e == nil {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteString("[:")
	sb.WriteString(e.EdgeType)
	sb.WriteByte(' ')
	sb.WriteString(nested(e.Src))
	sb.WriteString("->")
	sb.WriteString(nested(e.Dst))
	sb.WriteString(" @")
	sb.WriteString(strconv.FormatInt(e.Ranking, 10))
	sb.WriteByte(' ')
	sb.WriteString(e.Props.String())
	sb.WriteByte(']')
	return sb.String()
}

// Step is one hop of a path: the traversed edge and the vertex it reaches.
type Step struct {
	Dst  *Vertex
	Edge *Edge
}

// Path is a start vertex followed by zero or more steps.
type Path struct {
	Src   *Vertex
	Steps []Step
}

// Length returns the number of steps.
func (p *Path) Length() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// Vertices returns the start vertex followed by each step's destination.
func (p *Path) Vertices() []*Vertex {
	if p == nil {
		return nil
	}
	out := make([]*Vertex, 0, len(p.Steps)+1)
	out = append(out, p.Src)
	for _, s := range p.Steps {
		out = append(out, s.Dst)
	}
	return out
}

// Edges returns the traversed edges in order.
func (p *Path) Edges() []*Edge {
	if p == nil {
		return nil
	}
	out := make([]*Edge, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Edge
	}
	return out
}

// String renders the path as <(src)-[edge]->(dst)...>.
func (p *Path) String() string {
	if p == nil {
		return "<>"
	}
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(p.Src.String())
	for _, s := range p.Steps {
		sb.WriteByte('-')
		sb.WriteString(s.Edge.String())
		sb.WriteString("->")
		sb.WriteString(s.Dst.String())
	}
	sb.WriteByte('>')
	return sb.String()
}

// ============================================================================
// Set
// ============================================================================

// Set is a mathematical set of values, stored as a sorted slice without
// duplicates. The sort order is Compare, so iteration, hashing and
// comparison all see the same canonical snapshot.
type Set struct {
	items []Value
}

// NewSet builds a set from vals, dropping duplicates.
func NewSet(vals ...Value) *Set {
	s := &Set{items: make([]Value, 0, len(vals))}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// search returns the insertion index of v and whether v is present.
func (s *Set) search(v Value) (int, bool) {
	lo, hi := 0, len(s.items)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if Compare(s.items[mid], v) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(s.items) && Equal(s.items[lo], v)
}

// Add inserts v and reports whether it was new. Sets must not be modified
// once they have been handed to an evaluator.
func (s *Set) Add(v Value) bool {
	i, found := s.search(v)
	if found {
		return false
	}
	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = v
	return true
}

// Contains reports whether v is a member.
func (s *Set) Contains(v Value) bool {
	if s == nil {
		return false
	}
	_, found := s.search(v)
	return found
}

// Len returns the cardinality.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the members in sorted order. The slice is shared; callers
// must not modify it.
func (s *Set) Items() []Value {
	if s == nil {
		return nil
	}
	return s.items
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	out := &Set{items: make([]Value, len(s.Items()))}
	copy(out.items, s.Items())
	return out
}

// String renders the set as {a, b, c} in sorted order.
func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range s.Items() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(nested(v))
	}
	sb.WriteByte('}')
	return sb.String()
}

// ============================================================================
// DataSet
// ============================================================================

// DataSet is a nested tabular result: named columns and row-major values.
type DataSet struct {
	ColNames []string
	Rows     [][]Value
}

// NewDataSet returns an empty data set with the given columns.
func NewDataSet(cols ...string) *DataSet {
	return &DataSet{ColNames: cols}
}

// Append adds a row. The row length must match the column count.
func (d *DataSet) Append(row ...Value) bool {
	if len(row) != len(d.ColNames) {
		return false
	}
	d.Rows = append(d.Rows, row)
	return true
}

// Column returns the index of the named column.
func (d *DataSet) Column(name string) (int, bool) {
	for i, c := range d.ColNames {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// String renders the data set as a small pipe-separated table.
func (d *DataSet) String() string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(strings.Join(d.ColNames, "|"))
	for _, row := range d.Rows {
		sb.WriteByte('\n')
		for i, v := range row {
			if i > 0 {
				sb.WriteByte('|')
			}
			sb.WriteString(nested(v))
		}
	}
	return sb.String()
}
