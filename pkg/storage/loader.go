// Graph documents.
//
// LoadGraph fills an Engine from a YAML (or JSON) document and SaveGraph
// writes one back. Property values use the same notation as literals in
// expression documents, so typed values survive the round trip:
//
//	vertices:
//	  - vid: p1
//	    tags:
//	      - name: player
//	        props: {name: Tim, age: 42, born: {lit: "1976-04-25", type: date}}
//	  - vid: t1
//	    tags: [{name: team, props: {name: Spurs}}]
//	edges:
//	  - {src: p1, dst: t1, type: serve, rank: 0, props: {start_year: 1997}}
//
// A vertex without a vid is given a random UUID string.
//
// ELI12:
//
// A graph document is a packing list for the card box: every card, what is
// written on it and which cards point at which. LoadGraph unpacks the list
// into the box, SaveGraph writes the box back out as a list.

package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/nornicexpr/pkg/expression"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// GraphDocument is the serialized form of a whole graph.
type GraphDocument struct {
	Vertices []VertexDocument `yaml:"vertices,omitempty"`
	Edges    []EdgeDocument   `yaml:"edges,omitempty"`
}

// VertexDocument is one vertex in a GraphDocument.
type VertexDocument struct {
	VID   *yaml.Node    `yaml:"vid,omitempty"`
	Tags  []TagDocument `yaml:"tags,omitempty"`
	Props *yaml.Node    `yaml:"props,omitempty"`
}

// TagDocument is one tag of a vertex.
type TagDocument struct {
	Name  string     `yaml:"name"`
	Props *yaml.Node `yaml:"props,omitempty"`
}

// EdgeDocument is one edge in a GraphDocument.
type EdgeDocument struct {
	Src   *yaml.Node `yaml:"src"`
	Dst   *yaml.Node `yaml:"dst"`
	Type  string     `yaml:"type"`
	Rank  int64      `yaml:"rank,omitempty"`
	Props *yaml.Node `yaml:"props,omitempty"`
}

// LoadStats reports what LoadGraph stored.
type LoadStats struct {
	Vertices int
	Edges    int
}

// LoadGraphFile reads a graph document from path into engine.
func LoadGraphFile(engine Engine, path string) (LoadStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadStats{}, fmt.Errorf("reading graph file: %w", err)
	}
	stats, err := LoadGraph(engine, data)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

// LoadGraph parses a graph document and stores it with the bulk operations:
// all vertices first, then all edges.
func LoadGraph(engine Engine, data []byte) (LoadStats, error) {
	var doc GraphDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return LoadStats{}, fmt.Errorf("%w: decoding graph document: %v", ErrInvalidData, err)
	}
	vertices, edges, err := doc.Graph()
	if err != nil {
		return LoadStats{}, err
	}
	if err := engine.BulkCreateVertices(vertices); err != nil {
		return LoadStats{}, fmt.Errorf("creating vertices: %w", err)
	}
	if err := engine.BulkCreateEdges(edges); err != nil {
		return LoadStats{Vertices: len(vertices)}, fmt.Errorf("creating edges: %w", err)
	}
	stats := LoadStats{Vertices: len(vertices), Edges: len(edges)}
	logrus.WithFields(logrus.Fields{
		"vertices": stats.Vertices,
		"edges":    stats.Edges,
	}).Info("graph loaded")
	return stats, nil
}

// Graph converts the document to vertices and edges.
func (d *GraphDocument) Graph() ([]*value.Vertex, []*value.Edge, error) {
	vertices := make([]*value.Vertex, 0, len(d.Vertices))
	for i, vd := range d.Vertices {
		v, err := vd.vertex()
		if err != nil {
			return nil, nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		vertices = append(vertices, v)
	}
	edges := make([]*value.Edge, 0, len(d.Edges))
	for i, ed := range d.Edges {
		e, err := ed.edge()
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d: %w", i, err)
		}
		edges = append(edges, e)
	}
	return vertices, edges, nil
}

func (vd VertexDocument) vertex() (*value.Vertex, error) {
	var vid value.Value = value.String(uuid.NewString())
	if vd.VID != nil {
		var err error
		if vid, err = decodeID(vd.VID); err != nil {
			return nil, err
		}
	}
	props, err := decodeProps(vd.Props)
	if err != nil {
		return nil, err
	}
	v := &value.Vertex{VID: vid, Props: props}
	for _, td := range vd.Tags {
		if td.Name == "" {
			return nil, fmt.Errorf("%w: tag without a name", ErrInvalidData)
		}
		tp, err := decodeProps(td.Props)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", td.Name, err)
		}
		v.Tags = append(v.Tags, value.Tag{Name: td.Name, Props: tp})
	}
	return v, nil
}

func (ed EdgeDocument) edge() (*value.Edge, error) {
	if ed.Src == nil || ed.Dst == nil {
		return nil, fmt.Errorf("%w: edge needs src and dst", ErrInvalidData)
	}
	src, err := decodeID(ed.Src)
	if err != nil {
		return nil, err
	}
	dst, err := decodeID(ed.Dst)
	if err != nil {
		return nil, err
	}
	props, err := decodeProps(ed.Props)
	if err != nil {
		return nil, err
	}
	return &value.Edge{Src: src, Dst: dst, EdgeType: ed.Type, Ranking: ed.Rank, Props: props}, nil
}

// decodeID reads a vertex id. Ids are INT or STRING, so date-like scalars
// stay strings.
func decodeID(y *yaml.Node) (value.Value, error) {
	if y.Kind == yaml.ScalarNode && y.ShortTag() == "!!int" {
		return expression.DecodeValue(y)
	}
	if y.Kind == yaml.ScalarNode && y.ShortTag() != "!!null" {
		return value.String(y.Value), nil
	}
	return nil, fmt.Errorf("%w: line %d: vertex id must be a string or integer", ErrInvalidID, y.Line)
}

func decodeProps(y *yaml.Node) (value.Map, error) {
	if y == nil {
		return nil, nil
	}
	v, err := expression.DecodeValue(y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if value.IsNull(v) {
		return nil, nil
	}
	m, ok := v.(value.Map)
	if !ok {
		return nil, fmt.Errorf("%w: line %d: props must be a mapping", ErrInvalidData, y.Line)
	}
	return m, nil
}

// ============================================================================
// Export
// ============================================================================

// SaveGraphFile writes every vertex and edge in engine to path.
func SaveGraphFile(engine Engine, path string) error {
	var buf bytes.Buffer
	if err := SaveGraph(engine, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing graph file: %w", err)
	}
	return nil
}

// SaveGraph writes every vertex and edge in engine as a graph document.
// Output is ordered by vertex id and edge key, so equal graphs produce equal
// documents.
func SaveGraph(engine Engine, w io.Writer) error {
	doc, err := ExportGraph(engine)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding graph document: %w", err)
	}
	return enc.Close()
}

// ExportGraph builds a GraphDocument from the contents of engine.
func ExportGraph(engine Engine) (*GraphDocument, error) {
	vertices, err := engine.AllVertices()
	if err != nil {
		return nil, fmt.Errorf("listing vertices: %w", err)
	}
	edges, err := engine.AllEdges()
	if err != nil {
		return nil, fmt.Errorf("listing edges: %w", err)
	}

	doc := &GraphDocument{}
	for _, v := range vertices {
		vd := VertexDocument{}
		if vd.VID, err = expression.EncodeValue(v.VID); err != nil {
			return nil, err
		}
		if vd.Props, err = encodeProps(v.Props); err != nil {
			return nil, fmt.Errorf("vertex %s: %w", v.VID, err)
		}
		for _, t := range v.Tags {
			tp, err := encodeProps(t.Props)
			if err != nil {
				return nil, fmt.Errorf("vertex %s tag %s: %w", v.VID, t.Name, err)
			}
			vd.Tags = append(vd.Tags, TagDocument{Name: t.Name, Props: tp})
		}
		doc.Vertices = append(doc.Vertices, vd)
	}
	for _, e := range edges {
		ed := EdgeDocument{Type: e.EdgeType, Rank: e.Ranking}
		if ed.Src, err = expression.EncodeValue(e.Src); err != nil {
			return nil, err
		}
		if ed.Dst, err = expression.EncodeValue(e.Dst); err != nil {
			return nil, err
		}
		if ed.Props, err = encodeProps(e.Props); err != nil {
			return nil, fmt.Errorf("edge %s: %w", KeyOf(e), err)
		}
		doc.Edges = append(doc.Edges, ed)
	}
	return doc, nil
}

func encodeProps(m value.Map) (*yaml.Node, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return expression.EncodeValue(m)
}
