package functions

import (
	"github.com/orneryd/nornicexpr/pkg/value"
)

func vertexArg(fn string, args []value.Value, i int) (*value.Vertex, error) {
	if v, ok := args[i].(*value.Vertex); ok && v != nil {
		return v, nil
	}
	return nil, argError(fn, i, "a vertex", args[i])
}

func edgeArg(fn string, args []value.Value, i int) (*value.Edge, error) {
	if e, ok := args[i].(*value.Edge); ok && e != nil {
		return e, nil
	}
	return nil, argError(fn, i, "an edge", args[i])
}

func pathArg(fn string, args []value.Value, i int) (*value.Path, error) {
	if p, ok := args[i].(*value.Path); ok && p != nil {
		return p, nil
	}
	return nil, argError(fn, i, "a path", args[i])
}

// edgeFn builds a strict accessor over a single edge argument.
func edgeFn(name string, get func(*value.Edge) value.Value) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		e, err := edgeArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return get(e), nil
	})
}

func vertexOrNull(v *value.Vertex) value.Value {
	if v == nil {
		return value.NullValue
	}
	return v
}

func tagNames(_ Env, args []value.Value) (value.Value, error) {
	v, err := vertexArg("tags", args, 0)
	if err != nil {
		return nil, err
	}
	names := v.TagNames()
	out := make(value.List, len(names))
	for i, n := range names {
		out[i] = value.String(n)
	}
	return out, nil
}

func registerGraph(r *Registry) {
	r.add(Descriptor{
		Name: "id", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Identifier of a vertex",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			v, err := vertexArg("id", args, 0)
			if err != nil {
				return nil, err
			}
			return v.VID, nil
		}),
	})
	r.add(Descriptor{
		Name: "tags", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Tag names of a vertex, in attachment order",
		Body:        strict(tagNames),
	})
	r.add(Descriptor{
		Name: "labels", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Alias of tags",
		Body:        strict(tagNames),
	})
	r.add(Descriptor{
		Name: "properties", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "All properties of a vertex, edge or map as a map",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case *value.Vertex:
				if x != nil {
					return x.AllProperties(), nil
				}
			case *value.Edge:
				if x != nil {
					return value.ToMap(x.Props), nil
				}
			case value.Map:
				return value.ToMap(x), nil
			}
			return nil, argError("properties", 0, "a vertex, edge or map", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "type", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Type name of an edge",
		Body:        edgeFn("type", func(e *value.Edge) value.Value { return value.String(e.EdgeType) }),
	})
	r.add(Descriptor{
		Name: "src", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Source vertex id of an edge",
		Body:        edgeFn("src", func(e *value.Edge) value.Value { return e.Src }),
	})
	r.add(Descriptor{
		Name: "dst", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Destination vertex id of an edge",
		Body:        edgeFn("dst", func(e *value.Edge) value.Value { return e.Dst }),
	})
	r.add(Descriptor{
		Name: "rank", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Ranking of an edge",
		Body:        edgeFn("rank", func(e *value.Edge) value.Value { return value.Int(e.Ranking) }),
	})
	r.add(Descriptor{
		Name: "nodes", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Vertices of a path, source first",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			p, err := pathArg("nodes", args, 0)
			if err != nil {
				return nil, err
			}
			vs := p.Vertices()
			out := make(value.List, len(vs))
			for i, v := range vs {
				out[i] = vertexOrNull(v)
			}
			return out, nil
		}),
	})
	r.add(Descriptor{
		Name: "relationships", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Edges of a path in step order",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			p, err := pathArg("relationships", args, 0)
			if err != nil {
				return nil, err
			}
			es := p.Edges()
			out := make(value.List, len(es))
			for i, e := range es {
				if e == nil {
					out[i] = value.NullValue
					continue
				}
				out[i] = e
			}
			return out, nil
		}),
	})
	r.add(Descriptor{
		Name: "startnode", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "First vertex of a path, or the source id of an edge",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case *value.Path:
				if x != nil {
					return vertexOrNull(x.Src), nil
				}
			case *value.Edge:
				if x != nil {
					return x.Src, nil
				}
			}
			return nil, argError("startnode", 0, "a path or edge", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "endnode", Category: CategoryGraph, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Last vertex of a path, or the destination id of an edge",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case *value.Path:
				if x != nil {
					if len(x.Steps) == 0 {
						return vertexOrNull(x.Src), nil
					}
					return vertexOrNull(x.Steps[len(x.Steps)-1].Dst), nil
				}
			case *value.Edge:
				if x != nil {
					return x.Dst, nil
				}
			}
			return nil, argError("endnode", 0, "a path or edge", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "distance", Category: CategoryGraph, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Great-circle distance in metres between two points",
		Examples:    []string{`distance(point1, point2)`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			a, ok := args[0].(value.Geography)
			if !ok {
				return nil, argError("distance", 0, "a geography point", args[0])
			}
			b, ok := args[1].(value.Geography)
			if !ok {
				return nil, argError("distance", 1, "a geography point", args[1])
			}
			if !a.Valid() || !b.Valid() {
				return value.OutOfRangeValue, nil
			}
			return floatResult(a.Distance(b)), nil
		}),
	})
}
