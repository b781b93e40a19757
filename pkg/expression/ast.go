// Package expression provides the expression AST and the tree-walking
// evaluator of the NornicExpr query layer.
//
// An expression is an immutable tree of Node values. Evaluate walks the tree
// against a Context, which resolves variables, the current graph entities,
// functions and the literal cache. The evaluator itself is stateless: the
// same tree may be evaluated concurrently against different contexts.
//
// Node kinds:
//
//	Literal, Variable, VersionedVariable, Property, TagProperty,
//	EdgeProperty, SrcProperty, DstProperty, InputProperty, Binary, Unary,
//	FunctionCall, Aggregate, ListExpr, MapExpr, Case, Cast, Subscript,
//	Range, PathExpr, Label
//
// Example:
//
//	// (10 + 5) * 2
//	expr := expression.NewBinary(expression.OpMul,
//		expression.NewBinary(expression.OpAdd,
//			expression.NewLiteral(value.Int(10)),
//			expression.NewLiteral(value.Int(5))),
//		expression.NewLiteral(value.Int(2)))
//
//	ctx := expression.NewBasicContext(nil)
//	result, err := expression.Evaluate(expr, ctx) // Int(30)
//
// Trees are usually built by a query planner. Tools and tests can also
// describe them as YAML or JSON documents, see Decode.
//
// ELI12:
//
// An expression is a recipe written as a tree. The leaves are ingredients
// (numbers, names of variables, properties of a person in the graph). The
// branches are steps ("add these", "is this bigger than that?"). The
// evaluator starts at the leaves, cooks its way up, and hands you the
// finished dish at the root.
package expression

import (
	"strconv"
	"strings"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// NodeKind identifies the concrete type of a Node.
type NodeKind int

const (
	KindLiteral NodeKind = iota
	KindVariable
	KindVersionedVariable
	KindProperty
	KindTagProperty
	KindEdgeProperty
	KindSrcProperty
	KindDstProperty
	KindInputProperty
	KindBinary
	KindUnary
	KindFunctionCall
	KindAggregate
	KindList
	KindMap
	KindCase
	KindCast
	KindSubscript
	KindRange
	KindPath
	KindLabel
)

var nodeKindNames = [...]string{
	KindLiteral:           "Literal",
	KindVariable:          "Variable",
	KindVersionedVariable: "VersionedVariable",
	KindProperty:          "Property",
	KindTagProperty:       "TagProperty",
	KindEdgeProperty:      "EdgeProperty",
	KindSrcProperty:       "SrcProperty",
	KindDstProperty:       "DstProperty",
	KindInputProperty:     "InputProperty",
	KindBinary:            "Binary",
	KindUnary:             "Unary",
	KindFunctionCall:      "FunctionCall",
	KindAggregate:         "Aggregate",
	KindList:              "List",
	KindMap:               "Map",
	KindCase:              "Case",
	KindCast:              "Cast",
	KindSubscript:         "Subscript",
	KindRange:             "Range",
	KindPath:              "Path",
	KindLabel:             "Label",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "NodeKind(" + strconv.Itoa(int(k)) + ")"
}

// Node is an expression tree node. Nodes are immutable once built and own
// their children.
type Node interface {
	Kind() NodeKind
	// Children returns the direct sub-expressions in evaluation order.
	Children() []Node
	// String renders the expression in query syntax.
	String() string
}

// ============================================================================
// Operators
// ============================================================================

// BinaryOp is a two-operand operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpXor
	OpContains
	OpStartsWith
	OpEndsWith
	OpRegexMatch
	OpIn
	OpNotIn
	OpConcat
)

var binaryOpSymbols = [...]string{
	OpAdd:        "+",
	OpSub:        "-",
	OpMul:        "*",
	OpDiv:        "/",
	OpMod:        "%",
	OpPow:        "**",
	OpEq:         "==",
	OpNe:         "!=",
	OpLt:         "<",
	OpLe:         "<=",
	OpGt:         ">",
	OpGe:         ">=",
	OpAnd:        "AND",
	OpOr:         "OR",
	OpXor:        "XOR",
	OpContains:   "CONTAINS",
	OpStartsWith: "STARTS WITH",
	OpEndsWith:   "ENDS WITH",
	OpRegexMatch: "=~",
	OpIn:         "IN",
	OpNotIn:      "NOT IN",
	OpConcat:     "||",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return "BinaryOp(" + strconv.Itoa(int(op)) + ")"
}

// ParseBinaryOp resolves an operator symbol. Keywords are case-insensitive
// and "=" and "<>" are accepted as aliases of "==" and "!=".
func ParseBinaryOp(s string) (BinaryOp, bool) {
	s = strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	switch s {
	case "=":
		return OpEq, true
	case "<>":
		return OpNe, true
	}
	for op, sym := range binaryOpSymbols {
		if sym == s {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// UnaryOp is a one-operand operator.
type UnaryOp int

const (
	OpPlus UnaryOp = iota
	OpMinus
	OpNot
	OpIsNull
	OpIsNotNull
	OpIsEmpty
	OpIsNotEmpty
)

var unaryOpSymbols = [...]string{
	OpPlus:       "+",
	OpMinus:      "-",
	OpNot:        "NOT",
	OpIsNull:     "IS NULL",
	OpIsNotNull:  "IS NOT NULL",
	OpIsEmpty:    "IS EMPTY",
	OpIsNotEmpty: "IS NOT EMPTY",
}

func (op UnaryOp) String() string {
	if op >= 0 && int(op) < len(unaryOpSymbols) {
		return unaryOpSymbols[op]
	}
	return "UnaryOp(" + strconv.Itoa(int(op)) + ")"
}

// Postfix reports whether the operator is written after its operand.
func (op UnaryOp) Postfix() bool { return op >= OpIsNull }

// ParseUnaryOp resolves a unary operator symbol (case-insensitive).
func ParseUnaryOp(s string) (UnaryOp, bool) {
	s = strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	for op, sym := range unaryOpSymbols {
		if sym == s {
			return UnaryOp(op), true
		}
	}
	return 0, false
}

// ============================================================================
// Leaves
// ============================================================================

// Literal is a constant value.
type Literal struct {
	Value value.Value
}

func NewLiteral(v value.Value) *Literal { return &Literal{Value: v} }

func (*Literal) Kind() NodeKind   { return KindLiteral }
func (*Literal) Children() []Node { return nil }
func (n *Literal) String() string { return renderLiteral(n.Value) }

func renderLiteral(v value.Value) string {
	switch x := v.(type) {
	case nil:
		return value.EmptyValue.String()
	case value.String:
		return strconv.Quote(string(x))
	case value.Date:
		return "date(" + strconv.Quote(x.String()) + ")"
	case value.Time:
		return "time(" + strconv.Quote(x.String()) + ")"
	case value.DateTime:
		return "datetime(" + strconv.Quote(x.String()) + ")"
	case value.Duration:
		return "duration(" + strconv.Quote(x.String()) + ")"
	}
	return v.String()
}

// Variable reads a named variable from the context.
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable { return &Variable{Name: name} }

func (*Variable) Kind() NodeKind   { return KindVariable }
func (*Variable) Children() []Node { return nil }
func (n *Variable) String() string { return n.Name }

// VersionedVariable reads a specific version of a variable, written
// name{version}. Version 0 is the latest write; negative versions count
// back from it; positive versions are absolute (1 is the first write).
type VersionedVariable struct {
	Name    string
	Version int
}

func NewVersionedVariable(name string, version int) *VersionedVariable {
	return &VersionedVariable{Name: name, Version: version}
}

func (*VersionedVariable) Kind() NodeKind   { return KindVersionedVariable }
func (*VersionedVariable) Children() []Node { return nil }
func (n *VersionedVariable) String() string {
	return n.Name + "{" + strconv.Itoa(n.Version) + "}"
}

// Label is a bare tag or edge type name. On its own it evaluates to its
// name; as the owner of a Property it selects a tag of the current vertex.
type Label struct {
	Name string
}

func NewLabel(name string) *Label { return &Label{Name: name} }

func (*Label) Kind() NodeKind   { return KindLabel }
func (*Label) Children() []Node { return nil }
func (n *Label) String() string { return n.Name }

// ============================================================================
// Property access
// ============================================================================

// Property reads Name from the value of Object: a map key, a vertex or edge
// property, or a component of a temporal or geography value.
type Property struct {
	Object Node
	Name   string
}

func NewProperty(object Node, name string) *Property {
	return &Property{Object: object, Name: name}
}

func (*Property) Kind() NodeKind     { return KindProperty }
func (n *Property) Children() []Node { return []Node{n.Object} }
func (n *Property) String() string   { return n.Object.String() + "." + n.Name }

// TagProperty reads tag.prop on the current vertex.
type TagProperty struct {
	Tag  string
	Name string
}

func NewTagProperty(tag, name string) *TagProperty { return &TagProperty{Tag: tag, Name: name} }

func (*TagProperty) Kind() NodeKind   { return KindTagProperty }
func (*TagProperty) Children() []Node { return nil }
func (n *TagProperty) String() string { return n.Tag + "." + n.Name }

// EdgeProperty reads edge_type.prop on the current edge. An empty or "*"
// EdgeType matches any edge.
type EdgeProperty struct {
	EdgeType string
	Name     string
}

func NewEdgeProperty(edgeType, name string) *EdgeProperty {
	return &EdgeProperty{EdgeType: edgeType, Name: name}
}

func (*EdgeProperty) Kind() NodeKind   { return KindEdgeProperty }
func (*EdgeProperty) Children() []Node { return nil }
func (n *EdgeProperty) String() string {
	t := n.EdgeType
	if t == "" {
		t = "*"
	}
	return t + "." + n.Name
}

// SrcProperty reads $^.tag.prop on the source vertex of the current edge.
type SrcProperty struct {
	Tag  string
	Name string
}

func NewSrcProperty(tag, name string) *SrcProperty { return &SrcProperty{Tag: tag, Name: name} }

func (*SrcProperty) Kind() NodeKind   { return KindSrcProperty }
func (*SrcProperty) Children() []Node { return nil }
func (n *SrcProperty) String() string { return "$^." + n.Tag + "." + n.Name }

// DstProperty reads $$.tag.prop on the destination vertex of the current
// edge.
type DstProperty struct {
	Tag  string
	Name string
}

func NewDstProperty(tag, name string) *DstProperty { return &DstProperty{Tag: tag, Name: name} }

func (*DstProperty) Kind() NodeKind   { return KindDstProperty }
func (*DstProperty) Children() []Node { return nil }
func (n *DstProperty) String() string { return "$$." + n.Tag + "." + n.Name }

// InputProperty reads $-.col from the current input row.
type InputProperty struct {
	Name string
}

func NewInputProperty(name string) *InputProperty { return &InputProperty{Name: name} }

func (*InputProperty) Kind() NodeKind   { return KindInputProperty }
func (*InputProperty) Children() []Node { return nil }
func (n *InputProperty) String() string { return "$-." + n.Name }

// ============================================================================
// Operators and calls
// ============================================================================

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func NewBinary(op BinaryOp, left, right Node) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func (*Binary) Kind() NodeKind     { return KindBinary }
func (n *Binary) Children() []Node { return []Node{n.Left, n.Right} }
func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

// Unary applies Op to Operand.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func NewUnary(op UnaryOp, operand Node) *Unary { return &Unary{Op: op, Operand: operand} }

func (*Unary) Kind() NodeKind     { return KindUnary }
func (n *Unary) Children() []Node { return []Node{n.Operand} }
func (n *Unary) String() string {
	switch {
	case n.Op.Postfix():
		return n.Operand.String() + " " + n.Op.String()
	case n.Op == OpNot:
		return "NOT " + n.Operand.String()
	}
	return n.Op.String() + n.Operand.String()
}

// FunctionCall invokes a registered function.
type FunctionCall struct {
	Name string
	Args []Node
}

func NewFunctionCall(name string, args ...Node) *FunctionCall {
	return &FunctionCall{Name: name, Args: args}
}

func (*FunctionCall) Kind() NodeKind     { return KindFunctionCall }
func (n *FunctionCall) Children() []Node { return n.Args }
func (n *FunctionCall) String() string   { return n.Name + "(" + joinNodes(n.Args) + ")" }

// Aggregate folds the list produced by Arg with an aggregate function.
type Aggregate struct {
	Func     string
	Arg      Node
	Distinct bool
}

func NewAggregate(fn string, arg Node, distinct bool) *Aggregate {
	return &Aggregate{Func: fn, Arg: arg, Distinct: distinct}
}

func (*Aggregate) Kind() NodeKind     { return KindAggregate }
func (n *Aggregate) Children() []Node { return []Node{n.Arg} }
func (n *Aggregate) String() string {
	if n.Distinct {
		return n.Func + "(DISTINCT " + n.Arg.String() + ")"
	}
	return n.Func + "(" + n.Arg.String() + ")"
}

// ============================================================================
// Constructors
// ============================================================================

// ListExpr builds a list from its items.
type ListExpr struct {
	Items []Node
}

func NewList(items ...Node) *ListExpr { return &ListExpr{Items: items} }

func (*ListExpr) Kind() NodeKind     { return KindList }
func (n *ListExpr) Children() []Node { return n.Items }
func (n *ListExpr) String() string   { return "[" + joinNodes(n.Items) + "]" }

// MapEntry is one key of a MapExpr.
type MapEntry struct {
	Key   string
	Value Node
}

// MapExpr builds a map. Entries are evaluated in order; a repeated key keeps
// the last value.
type MapExpr struct {
	Entries []MapEntry
}

func NewMap(entries ...MapEntry) *MapExpr { return &MapExpr{Entries: entries} }

func (*MapExpr) Kind() NodeKind { return KindMap }
func (n *MapExpr) Children() []Node {
	out := make([]Node, len(n.Entries))
	for i, e := range n.Entries {
		out[i] = e.Value
	}
	return out
}
func (n *MapExpr) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range n.Entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Key)
		sb.WriteString(": ")
		sb.WriteString(e.Value.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// WhenClause is one WHEN ... THEN ... branch of a Case.
type WhenClause struct {
	When Node
	Then Node
}

// Case is a CASE expression. With a nil Subject each When must evaluate to
// a Bool (searched CASE); otherwise each When is compared to Subject
// (simple CASE). Default may be nil.
type Case struct {
	Subject Node
	Whens   []WhenClause
	Default Node
}

func (*Case) Kind() NodeKind { return KindCase }
func (n *Case) Children() []Node {
	var out []Node
	if n.Subject != nil {
		out = append(out, n.Subject)
	}
	for _, w := range n.Whens {
		out = append(out, w.When, w.Then)
	}
	if n.Default != nil {
		out = append(out, n.Default)
	}
	return out
}
func (n *Case) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if n.Subject != nil {
		sb.WriteByte(' ')
		sb.WriteString(n.Subject.String())
	}
	for _, w := range n.Whens {
		sb.WriteString(" WHEN ")
		sb.WriteString(w.When.String())
		sb.WriteString(" THEN ")
		sb.WriteString(w.Then.String())
	}
	if n.Default != nil {
		sb.WriteString(" ELSE ")
		sb.WriteString(n.Default.String())
	}
	sb.WriteString(" END")
	return sb.String()
}

// Cast converts Operand to Target.
type Cast struct {
	Operand Node
	Target  value.DataType
}

func NewCast(operand Node, target value.DataType) *Cast {
	return &Cast{Operand: operand, Target: target}
}

func (*Cast) Kind() NodeKind     { return KindCast }
func (n *Cast) Children() []Node { return []Node{n.Operand} }
func (n *Cast) String() string {
	return "CAST(" + n.Operand.String() + " AS " + n.Target.String() + ")"
}

// Subscript indexes a list (by position, negative from the end), a map or a
// graph entity (by key).
type Subscript struct {
	Collection Node
	Index      Node
}

func NewSubscript(collection, index Node) *Subscript {
	return &Subscript{Collection: collection, Index: index}
}

func (*Subscript) Kind() NodeKind     { return KindSubscript }
func (n *Subscript) Children() []Node { return []Node{n.Collection, n.Index} }
func (n *Subscript) String() string {
	return n.Collection.String() + "[" + n.Index.String() + "]"
}

// Range slices a list or string over [Start, End). Either bound may be nil.
type Range struct {
	Collection Node
	Start      Node
	End        Node
}

func NewRange(collection, start, end Node) *Range {
	return &Range{Collection: collection, Start: start, End: end}
}

func (*Range) Kind() NodeKind { return KindRange }
func (n *Range) Children() []Node {
	out := []Node{n.Collection}
	if n.Start != nil {
		out = append(out, n.Start)
	}
	if n.End != nil {
		out = append(out, n.End)
	}
	return out
}
func (n *Range) String() string {
	var lo, hi string
	if n.Start != nil {
		lo = n.Start.String()
	}
	if n.End != nil {
		hi = n.End.String()
	}
	return n.Collection.String() + "[" + lo + ".." + hi + "]"
}

// PathExpr either names a path held by the context (Items empty) or
// assembles one from alternating vertex and edge items.
type PathExpr struct {
	Name  string
	Items []Node
}

func NewNamedPath(name string) *PathExpr { return &PathExpr{Name: name} }

func NewPath(items ...Node) *PathExpr { return &PathExpr{Items: items} }

func (*PathExpr) Kind() NodeKind     { return KindPath }
func (n *PathExpr) Children() []Node { return n.Items }
func (n *PathExpr) String() string {
	if len(n.Items) == 0 {
		return n.Name
	}
	return "PATH(" + joinNodes(n.Items) + ")"
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
