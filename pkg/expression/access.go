package expression

import (
	"github.com/orneryd/nornicexpr/pkg/value"
)

// Reserved edge property names, readable on every edge.
const (
	EdgeSrcKey  = "_src"
	EdgeDstKey  = "_dst"
	EdgeTypeKey = "_type"
	EdgeRankKey = "_rank"
)

func evalProperty(n *Property, ctx Context) (value.Value, error) {
	if l, ok := n.Object.(*Label); ok {
		return evalTagProperty(ctx, l.Name, n.Name)
	}
	owner, err := Evaluate(n.Object, ctx)
	if err != nil {
		return nil, err
	}
	return propertyOf(owner, n.Name)
}

// propertyOf reads name from owner. Missing keys yield Null(UNKNOWN_PROP).
func propertyOf(owner value.Value, name string) (value.Value, error) {
	switch x := owner.(type) {
	case value.Map:
		if v, ok := x[name]; ok {
			return v, nil
		}
		return value.UnknownPropValue, nil
	case *value.Vertex:
		if v, ok := x.PropertyAny(name); ok {
			return v, nil
		}
		return value.UnknownPropValue, nil
	case *value.Edge:
		if v, ok := edgeProperty(x, name); ok {
			return v, nil
		}
		return value.UnknownPropValue, nil
	case value.Date, value.Time, value.DateTime, value.Duration, value.Geography:
		if v, ok := componentOf(x, name); ok {
			return v, nil
		}
		return value.UnknownPropValue, nil
	case value.Null:
		return x, nil
	case value.Empty, nil:
		return value.NullValue, nil
	}
	return nil, typeError("cannot read property %q of %s", name, value.TypeOf(owner))
}

func edgeProperty(e *value.Edge, name string) (value.Value, bool) {
	if e == nil {
		return nil, false
	}
	switch name {
	case EdgeSrcKey:
		return e.Src, true
	case EdgeDstKey:
		return e.Dst, true
	case EdgeTypeKey:
		return value.String(e.EdgeType), true
	case EdgeRankKey:
		return value.Int(e.Ranking), true
	}
	return e.Property(name)
}

// componentOf reads a named component of a temporal or geography value.
func componentOf(v value.Value, name string) (value.Value, bool) {
	switch x := v.(type) {
	case value.Date:
		switch name {
		case "year":
			return value.Int(x.Year), true
		case "month":
			return value.Int(x.Month), true
		case "day":
			return value.Int(x.Day), true
		}
	case value.Time:
		switch name {
		case "hour":
			return value.Int(x.Hour), true
		case "minute":
			return value.Int(x.Minute), true
		case "second":
			return value.Int(x.Second), true
		case "microsecond":
			return value.Int(x.Microsecond), true
		}
	case value.DateTime:
		if c, ok := componentOf(x.Date, name); ok {
			return c, true
		}
		return componentOf(x.Time, name)
	case value.Duration:
		switch name {
		case "months":
			return value.Int(x.Months), true
		case "seconds":
			return value.Int(x.Seconds), true
		case "microseconds":
			return value.Int(x.Microseconds), true
		}
	case value.Geography:
		switch name {
		case "latitude":
			return value.Float(x.Latitude), true
		case "longitude":
			return value.Float(x.Longitude), true
		}
	}
	return nil, false
}

// ============================================================================
// Graph accessors
// ============================================================================

// tagPropertyOf reads tag.prop from v.
func tagPropertyOf(v *value.Vertex, tag, prop string) (value.Value, error) {
	val, hasTag, hasProp := v.Property(tag, prop)
	if !hasTag {
		return nil, newError(ErrorLabelNotFound, "vertex %s has no tag %q", v.VID, tag)
	}
	if !hasProp {
		return nil, newError(ErrorPropertyNotFound, "%s.%s", tag, prop)
	}
	return val, nil
}

func evalTagProperty(ctx Context, tag, prop string) (value.Value, error) {
	v, err := ctx.CurrentVertex()
	if err != nil {
		return lookup(nil, err)
	}
	if v == nil {
		return nil, newError(ErrorLabelNotFound, "%s.%s: no vertex in scope", tag, prop)
	}
	return tagPropertyOf(v, tag, prop)
}

func evalEdgeProperty(ctx Context, edgeType, prop string) (value.Value, error) {
	e, err := ctx.CurrentEdge()
	if err != nil {
		return lookup(nil, err)
	}
	if e == nil {
		return nil, newError(ErrorLabelNotFound, "%s.%s: no edge in scope", edgeType, prop)
	}
	if edgeType != "" && edgeType != "*" && edgeType != e.EdgeType {
		return nil, newError(ErrorLabelNotFound, "edge type %q does not match %q", edgeType, e.EdgeType)
	}
	if v, ok := edgeProperty(e, prop); ok {
		return v, nil
	}
	return nil, newError(ErrorPropertyNotFound, "%s.%s", e.EdgeType, prop)
}

func evalEndpointProperty(ctx Context, src bool, tag, prop string) (value.Value, error) {
	sym := "$$"
	if src {
		sym = "$^"
	}
	ea, ok := ctx.(EndpointAccess)
	if !ok {
		return nil, newError(ErrorLabelNotFound, "%s.%s.%s: context has no edge endpoints", sym, tag, prop)
	}
	var (
		v   *value.Vertex
		err error
	)
	if src {
		v, err = ea.SourceVertex()
	} else {
		v, err = ea.DestVertex()
	}
	if err != nil {
		return lookup(nil, err)
	}
	if v == nil {
		return nil, newError(ErrorLabelNotFound, "%s.%s.%s: no vertex in scope", sym, tag, prop)
	}
	return tagPropertyOf(v, tag, prop)
}

// ============================================================================
// Subscripts and slices
// ============================================================================

// normIndex maps a possibly negative index into [0, n).
func normIndex(i int64, n int) (int, bool) {
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, false
	}
	return int(i), true
}

func evalSubscript(n *Subscript, ctx Context) (value.Value, error) {
	coll, err := Evaluate(n.Collection, ctx)
	if err != nil {
		return nil, err
	}
	idx, err := Evaluate(n.Index, ctx)
	if err != nil {
		return nil, err
	}
	if v, ok := propagateNull(coll, idx); ok {
		return v, nil
	}

	switch x := coll.(type) {
	case value.List:
		if i, ok := idx.(value.Int); ok {
			if p, ok := normIndex(int64(i), len(x)); ok {
				return x[p], nil
			}
			return value.NullValue, nil
		}
	case value.String:
		if i, ok := idx.(value.Int); ok {
			runes := []rune(string(x))
			if p, ok := normIndex(int64(i), len(runes)); ok {
				return value.String(runes[p]), nil
			}
			return value.NullValue, nil
		}
	case value.Map, *value.Vertex, *value.Edge, value.Date, value.Time, value.DateTime, value.Duration, value.Geography:
		if key, ok := idx.(value.String); ok {
			return propertyOf(coll, string(key))
		}
	}
	return nil, typeError("cannot index %s with %s", value.TypeOf(coll), value.TypeOf(idx))
}

// sliceBounds resolves [lo, hi) against length n. Negative bounds count from
// the end; out-of-range bounds are clamped.
func sliceBounds(lo, hi *int64, n int) (int, int) {
	clamp := func(b *int64, def int) int {
		if b == nil {
			return def
		}
		i := *b
		if i < 0 {
			i += int64(n)
		}
		return int(min(max(i, 0), int64(n)))
	}
	start, end := clamp(lo, 0), clamp(hi, n)
	if start > end {
		start = end
	}
	return start, end
}

func evalBound(node Node, ctx Context) (*int64, value.Value, error) {
	if node == nil {
		return nil, nil, nil
	}
	v, err := Evaluate(node, ctx)
	if err != nil {
		return nil, nil, err
	}
	if isNullish(v) {
		return nil, v, nil
	}
	i, ok := v.(value.Int)
	if !ok {
		return nil, nil, typeError("slice bound must be INT, got %s", value.TypeOf(v))
	}
	b := int64(i)
	return &b, nil, nil
}

func evalRange(n *Range, ctx Context) (value.Value, error) {
	coll, err := Evaluate(n.Collection, ctx)
	if err != nil {
		return nil, err
	}
	lo, loNull, err := evalBound(n.Start, ctx)
	if err != nil {
		return nil, err
	}
	hi, hiNull, err := evalBound(n.End, ctx)
	if err != nil {
		return nil, err
	}
	if v, ok := propagateNull(coll); ok {
		return v, nil
	}
	if loNull != nil || hiNull != nil {
		return value.NullValue, nil
	}

	switch x := coll.(type) {
	case value.List:
		start, end := sliceBounds(lo, hi, len(x))
		return append(value.List{}, x[start:end]...), nil
	case value.String:
		runes := []rune(string(x))
		start, end := sliceBounds(lo, hi, len(runes))
		return value.String(runes[start:end]), nil
	}
	return nil, typeError("cannot slice %s", value.TypeOf(coll))
}

// ============================================================================
// Paths
// ============================================================================

func evalPath(n *PathExpr, ctx Context) (value.Value, error) {
	if len(n.Items) == 0 {
		p, ok := ctx.NamedPath(n.Name)
		if !ok {
			return nil, newError(ErrorUndefinedVariable, "path %s", n.Name)
		}
		return p, nil
	}
	items, err := EvaluateBatch(n.Items, ctx)
	if err != nil {
		return nil, err
	}
	if len(items)%2 == 0 {
		return nil, typeError("path must start and end with a vertex, got %d items", len(items))
	}
	start, ok := items[0].(*value.Vertex)
	if !ok {
		return nil, typeError("path item 1 must be VERTEX, got %s", value.TypeOf(items[0]))
	}
	p := &value.Path{Src: start}
	for i := 1; i < len(items); i += 2 {
		e, ok := items[i].(*value.Edge)
		if !ok {
			return nil, typeError("path item %d must be EDGE, got %s", i+1, value.TypeOf(items[i]))
		}
		dst, ok := items[i+1].(*value.Vertex)
		if !ok {
			return nil, typeError("path item %d must be VERTEX, got %s", i+2, value.TypeOf(items[i+1]))
		}
		p.Steps = append(p.Steps, value.Step{Dst: dst, Edge: e})
	}
	return p, nil
}
