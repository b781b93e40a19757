package expression

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicexpr/pkg/value"
)

func fixtureVertex() *value.Vertex {
	return &value.Vertex{
		VID: value.String("p1"),
		Tags: []value.Tag{{
			Name:  "player",
			Props: value.Map{"name": value.String("Tim"), "age": value.Int(42)},
		}},
	}
}

func fixtureEdge() *value.Edge {
	return &value.Edge{
		Src:      value.String("p1"),
		Dst:      value.String("t1"),
		EdgeType: "serve",
		Props:    value.Map{"start_year": value.Int(1997)},
	}
}

func fixtureContext() *BasicContext {
	ctx := NewBasicContext(nil)
	ctx.SetVariables(map[string]value.Value{
		"n":    value.Int(7),
		"name": value.String("Tim Duncan"),
		"nums": value.List{value.Int(1), value.Int(2), value.Int(3)},
		"m":    value.Map{"a": value.Int(1)},
	})
	ctx.SetVertex(fixtureVertex())
	ctx.SetEdge(fixtureEdge())
	return ctx
}

// render prints a result with its type so golden output is unambiguous.
func render(v value.Value) string {
	switch x := v.(type) {
	case value.Null:
		if x.Kind == value.NullPlain {
			return "NULL"
		}
		return "NULL(" + x.Kind.String() + ")"
	case value.String:
		return "STRING " + strconv.Quote(string(x))
	}
	return value.TypeOf(v).String() + " " + v.String()
}

func TestGoldenScenarios(t *testing.T) {
	data, err := os.ReadFile("testdata/scenarios.yaml")
	require.NoError(t, err)
	nodes, err := DecodeAll(data)
	require.NoError(t, err)

	var sb strings.Builder
	for _, n := range nodes {
		v, err := Evaluate(n, fixtureContext())
		if err != nil {
			fmt.Fprintf(&sb, "%s !! %v\n", n, err)
			continue
		}
		fmt.Fprintf(&sb, "%s => %s\n", n, render(v))
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "scenarios", []byte(sb.String()))
}
