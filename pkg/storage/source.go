package storage

import (
	"errors"

	"github.com/orneryd/nornicexpr/pkg/expression"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// Source adapts an Engine to the lookups a GraphContext performs. Missing
// records become found == false so the evaluator can report them as
// unknown labels rather than storage failures.
type Source struct {
	engine Engine
}

// NewSource wraps engine.
func NewSource(engine Engine) *Source {
	return &Source{engine: engine}
}

// LookupVertex loads the vertex with the given id.
func (s *Source) LookupVertex(vid value.Value) (*value.Vertex, bool, error) {
	v, err := s.engine.GetVertex(vid)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// LookupEdge loads the edge with the given key.
func (s *Source) LookupEdge(src, dst value.Value, edgeType string, rank int64) (*value.Edge, bool, error) {
	e, err := s.engine.GetEdge(EdgeKey{Src: src, Dst: dst, EdgeType: edgeType, Rank: rank})
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// Context returns a GraphContext reading from the wrapped engine.
func (s *Source) Context(base *expression.BasicContext) *expression.GraphContext {
	return expression.NewGraphContext(base, s, s)
}

var (
	_ expression.VertexSource = (*Source)(nil)
	_ expression.EdgeSource   = (*Source)(nil)
)
