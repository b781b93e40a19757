package expression

import (
	"sort"

	"github.com/orneryd/nornicexpr/pkg/functions"
)

// Walk calls fn for node and its descendants in pre-order. Returning false
// from fn skips the children of that node.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, c := range node.Children() {
		Walk(c, fn)
	}
}

// Variables returns the sorted, de-duplicated names of the variables and
// named paths node reads.
func Variables(node Node) []string {
	seen := make(map[string]struct{})
	Walk(node, func(n Node) bool {
		switch x := n.(type) {
		case *Variable:
			seen[x.Name] = struct{}{}
		case *VersionedVariable:
			seen[x.Name] = struct{}{}
		case *PathExpr:
			if len(x.Items) == 0 {
				seen[x.Name] = struct{}{}
			}
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CanEvaluate reports whether node can be folded to a constant: it reads no
// variables, rows or graph entities and calls only pure functions of the
// default registry.
func CanEvaluate(node Node) bool {
	return CanEvaluateWith(node, DefaultRegistry())
}

// CanEvaluateWith is CanEvaluate against a specific registry.
func CanEvaluateWith(node Node, reg *functions.Registry) bool {
	ok := true
	Walk(node, func(n Node) bool {
		if !ok {
			return false
		}
		switch x := n.(type) {
		case *Variable, *VersionedVariable, *InputProperty,
			*TagProperty, *EdgeProperty, *SrcProperty, *DstProperty:
			ok = false
		case *Property:
			if _, isLabel := x.Object.(*Label); isLabel {
				ok = false
			}
		case *PathExpr:
			if len(x.Items) == 0 {
				ok = false
			}
		case *FunctionCall:
			if !reg.IsPure(x.Name) {
				ok = false
			}
		}
		return ok
	})
	return ok
}
