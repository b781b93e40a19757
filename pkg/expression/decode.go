// Expression documents.
//
// Decode reads an expression tree from YAML or JSON (JSON is a subset of
// YAML). A bare scalar is a literal and a bare sequence is a list; every
// other node is a mapping whose leading key selects its kind:
//
//	{lit: 42}                          literal (scalars, sequences, mappings)
//	{lit: "2024-02-29", type: date}    typed literal, converted on decode
//	{lit: null, kind: NaN}             null of a specific kind
//	{var: x}  {var: x, version: -1}    variable, versioned variable
//	{label: player}                    label
//	{prop: name, of: <node>}           property of a value
//	{prop: name, tag: player}          tag property of the current vertex
//	{prop: degree, edge: follow}       property of the current edge
//	{prop: name, src: player}          $^.player.name
//	{prop: name, dst: player}          $$.player.name
//	{input: col}                       $-.col
//	{op: "+", left: <node>, right: <node>}
//	{op: "IS NULL", arg: <node>}
//	{call: lower, args: [<node>...]}
//	{agg: count, arg: <node>, distinct: true}
//	{list: [<node>...]}
//	{map: {key: <node>...}}
//	{case: [{when: <node>, then: <node>}...], subject: <node>, else: <node>}
//	{cast: <node>, to: int}
//	{index: <node>, of: <node>}
//	{slice: <node>, start: <node>, end: <node>}
//	{path: p}  {path: [<node>...]}
//
// Example:
//
//	node, err := expression.Decode([]byte(`
//	op: "*"
//	left: {op: "+", left: 10, right: 5}
//	right: 2
//	`))
//	// node.String() == "((10 + 5) * 2)"
//
// Encode writes a tree back in the same format.

package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// Decode parses an expression document.
func Decode(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Kind: ErrorEncoding, Message: "decode expression", Cause: err}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, newError(ErrorEncoding, "empty expression document")
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return nil, newError(ErrorEncoding, "empty expression document")
	}
	return decodeNode(root)
}

// DecodeAll parses a document holding a sequence of expressions.
func DecodeAll(data []byte) ([]Node, error) {
	node, err := Decode(data)
	if err != nil {
		return nil, err
	}
	list, ok := node.(*ListExpr)
	if !ok {
		return []Node{node}, nil
	}
	return list.Items, nil
}

func decodeError(y *yaml.Node, format string, args ...any) error {
	return &Error{Kind: ErrorEncoding, Message: fmt.Sprintf("line %d: ", y.Line) + fmt.Sprintf(format, args...)}
}

// fields indexes the keys of a mapping node.
type fields map[string]*yaml.Node

func mappingFields(y *yaml.Node) (fields, error) {
	f := make(fields, len(y.Content)/2)
	for i := 0; i+1 < len(y.Content); i += 2 {
		k := y.Content[i]
		if k.Kind != yaml.ScalarNode {
			return nil, decodeError(k, "mapping keys must be scalars")
		}
		f[k.Value] = y.Content[i+1]
	}
	return f, nil
}

func (f fields) str(y *yaml.Node, key string) (string, error) {
	n, ok := f[key]
	if !ok {
		return "", decodeError(y, "missing %q", key)
	}
	if n.Kind != yaml.ScalarNode {
		return "", decodeError(n, "%q must be a scalar", key)
	}
	return n.Value, nil
}

func (f fields) node(y *yaml.Node, key string) (Node, error) {
	n, ok := f[key]
	if !ok {
		return nil, decodeError(y, "missing %q", key)
	}
	return decodeNode(n)
}

func (f fields) optional(key string) (Node, error) {
	n, ok := f[key]
	if !ok {
		return nil, nil
	}
	return decodeNode(n)
}

func decodeNodes(y *yaml.Node) ([]Node, error) {
	if y.Kind != yaml.SequenceNode {
		return nil, decodeError(y, "expected a sequence")
	}
	out := make([]Node, len(y.Content))
	for i, c := range y.Content {
		n, err := decodeNode(c)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func decodeNode(y *yaml.Node) (Node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return decodeNode(y.Alias)
	case yaml.ScalarNode:
		v, err := scalarValue(y)
		if err != nil {
			return nil, err
		}
		return NewLiteral(v), nil
	case yaml.SequenceNode:
		items, err := decodeNodes(y)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case yaml.MappingNode:
	default:
		return nil, decodeError(y, "unexpected node")
	}

	f, err := mappingFields(y)
	if err != nil {
		return nil, err
	}
	switch {
	case f["op"] != nil:
		return decodeOperator(y, f)
	case f["call"] != nil:
		name, err := f.str(y, "call")
		if err != nil {
			return nil, err
		}
		var args []Node
		if a, ok := f["args"]; ok {
			if args, err = decodeNodes(a); err != nil {
				return nil, err
			}
		}
		return NewFunctionCall(name, args...), nil
	case f["agg"] != nil:
		name, err := f.str(y, "agg")
		if err != nil {
			return nil, err
		}
		arg, err := f.node(y, "arg")
		if err != nil {
			return nil, err
		}
		distinct := false
		if d, ok := f["distinct"]; ok {
			if err := d.Decode(&distinct); err != nil {
				return nil, decodeError(d, "distinct must be a boolean")
			}
		}
		return NewAggregate(name, arg, distinct), nil
	case f["case"] != nil:
		return decodeCase(y, f)
	case f["cast"] != nil:
		operand, err := f.node(y, "cast")
		if err != nil {
			return nil, err
		}
		to, err := f.str(y, "to")
		if err != nil {
			return nil, err
		}
		dt, ok := value.ParseDataType(to)
		if !ok {
			return nil, decodeError(f["to"], "unknown type %q", to)
		}
		return NewCast(operand, dt), nil
	case f["index"] != nil:
		idx, err := f.node(y, "index")
		if err != nil {
			return nil, err
		}
		of, err := f.node(y, "of")
		if err != nil {
			return nil, err
		}
		return NewSubscript(of, idx), nil
	case f["slice"] != nil:
		coll, err := f.node(y, "slice")
		if err != nil {
			return nil, err
		}
		start, err := f.optional("start")
		if err != nil {
			return nil, err
		}
		end, err := f.optional("end")
		if err != nil {
			return nil, err
		}
		return NewRange(coll, start, end), nil
	case f["prop"] != nil:
		return decodeProperty(y, f)
	case f["var"] != nil:
		name, err := f.str(y, "var")
		if err != nil {
			return nil, err
		}
		if v, ok := f["version"]; ok {
			var version int
			if err := v.Decode(&version); err != nil {
				return nil, decodeError(v, "version must be an integer")
			}
			return NewVersionedVariable(name, version), nil
		}
		return NewVariable(name), nil
	case f["lit"] != nil:
		v, err := decodeLiteral(y, f)
		if err != nil {
			return nil, err
		}
		return NewLiteral(v), nil
	case f["label"] != nil:
		name, err := f.str(y, "label")
		if err != nil {
			return nil, err
		}
		return NewLabel(name), nil
	case f["input"] != nil:
		name, err := f.str(y, "input")
		if err != nil {
			return nil, err
		}
		return NewInputProperty(name), nil
	case f["list"] != nil:
		items, err := decodeNodes(f["list"])
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case f["map"] != nil:
		m := f["map"]
		if m.Kind != yaml.MappingNode {
			return nil, decodeError(m, "map must be a mapping")
		}
		entries := make([]MapEntry, 0, len(m.Content)/2)
		for i := 0; i+1 < len(m.Content); i += 2 {
			n, err := decodeNode(m.Content[i+1])
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: m.Content[i].Value, Value: n})
		}
		return NewMap(entries...), nil
	case f["path"] != nil:
		p := f["path"]
		if p.Kind == yaml.ScalarNode {
			return NewNamedPath(p.Value), nil
		}
		items, err := decodeNodes(p)
		if err != nil {
			return nil, err
		}
		return NewPath(items...), nil
	}
	return nil, decodeError(y, "unrecognised expression mapping")
}

func decodeOperator(y *yaml.Node, f fields) (Node, error) {
	sym, err := f.str(y, "op")
	if err != nil {
		return nil, err
	}
	if _, unary := f["arg"]; unary {
		op, ok := ParseUnaryOp(sym)
		if !ok {
			return nil, decodeError(f["op"], "unknown unary operator %q", sym)
		}
		arg, err := f.node(y, "arg")
		if err != nil {
			return nil, err
		}
		return NewUnary(op, arg), nil
	}
	op, ok := ParseBinaryOp(sym)
	if !ok {
		return nil, decodeError(f["op"], "unknown binary operator %q", sym)
	}
	left, err := f.node(y, "left")
	if err != nil {
		return nil, err
	}
	right, err := f.node(y, "right")
	if err != nil {
		return nil, err
	}
	return NewBinary(op, left, right), nil
}

func decodeProperty(y *yaml.Node, f fields) (Node, error) {
	prop, err := f.str(y, "prop")
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"tag", "edge", "src", "dst"} {
		if _, ok := f[key]; !ok {
			continue
		}
		owner, err := f.str(y, key)
		if err != nil {
			return nil, err
		}
		switch key {
		case "tag":
			return NewTagProperty(owner, prop), nil
		case "edge":
			return NewEdgeProperty(owner, prop), nil
		case "src":
			return NewSrcProperty(owner, prop), nil
		default:
			return NewDstProperty(owner, prop), nil
		}
	}
	of, err := f.node(y, "of")
	if err != nil {
		return nil, err
	}
	return NewProperty(of, prop), nil
}

func decodeCase(y *yaml.Node, f fields) (Node, error) {
	branches := f["case"]
	if branches.Kind != yaml.SequenceNode {
		return nil, decodeError(branches, "case must be a sequence of {when, then}")
	}
	c := &Case{}
	for _, b := range branches.Content {
		if b.Kind != yaml.MappingNode {
			return nil, decodeError(b, "case branch must be a mapping")
		}
		bf, err := mappingFields(b)
		if err != nil {
			return nil, err
		}
		when, err := bf.node(b, "when")
		if err != nil {
			return nil, err
		}
		then, err := bf.node(b, "then")
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, WhenClause{When: when, Then: then})
	}
	var err error
	if c.Subject, err = f.optional("subject"); err != nil {
		return nil, err
	}
	if c.Default, err = f.optional("else"); err != nil {
		return nil, err
	}
	return c, nil
}

// ============================================================================
// Literals
// ============================================================================

func decodeLiteral(y *yaml.Node, f fields) (value.Value, error) {
	v, err := literalValue(f["lit"])
	if err != nil {
		return nil, err
	}
	if k, ok := f["kind"]; ok {
		if !value.IsNull(v) {
			return nil, decodeError(k, "kind applies to null literals only")
		}
		if strings.EqualFold(k.Value, "EMPTY") {
			return value.EmptyValue, nil
		}
		kind, ok := value.ParseNullKind(k.Value)
		if !ok {
			return nil, decodeError(k, "unknown null kind %q", k.Value)
		}
		return value.NewNull(kind), nil
	}
	if t, ok := f["type"]; ok {
		dt, ok := value.ParseDataType(t.Value)
		if !ok {
			return nil, decodeError(t, "unknown type %q", t.Value)
		}
		out, err := value.TryImplicitCast(v, dt)
		if err != nil {
			return nil, decodeError(t, "%v", err)
		}
		if value.IsBadNull(out) {
			return nil, decodeError(y, "cannot read %s as %s", v, dt)
		}
		return out, nil
	}
	return v, nil
}

// literalValue converts plain YAML data to a value.
func literalValue(y *yaml.Node) (value.Value, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return literalValue(y.Alias)
	case yaml.ScalarNode:
		return scalarValue(y)
	case yaml.SequenceNode:
		out := make(value.List, len(y.Content))
		for i, c := range y.Content {
			v, err := literalValue(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		out := make(value.Map, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			v, err := literalValue(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[y.Content[i].Value] = v
		}
		return out, nil
	}
	return nil, decodeError(y, "unexpected literal")
}

// DecodeValue reads a data value, such as a stored property. Sequences and
// mappings nest, and any mapping carrying a "lit" key is a typed literal:
//
//	age: 42
//	born: {lit: "1976-04-25", type: date}
//	tags: [a, b]
func DecodeValue(y *yaml.Node) (value.Value, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return DecodeValue(y.Alias)
	case yaml.SequenceNode:
		out := make(value.List, len(y.Content))
		for i, c := range y.Content {
			v, err := DecodeValue(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		f, err := mappingFields(y)
		if err != nil {
			return nil, err
		}
		if _, ok := f["lit"]; ok {
			return decodeLiteral(y, f)
		}
		out := make(value.Map, len(f))
		for k, c := range f {
			v, err := DecodeValue(c)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
	return literalValue(y)
}

// EncodeValue renders v in the form DecodeValue reads.
func EncodeValue(v value.Value) (*yaml.Node, error) {
	switch x := v.(type) {
	case value.List:
		seq := sequence()
		for _, item := range x {
			y, err := EncodeValue(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, y)
		}
		return seq, nil
	case value.Map:
		if _, ok := x["lit"]; ok {
			return encodeLiteral(v)
		}
		m := mapping()
		for _, k := range x.SortedKeys() {
			y, err := EncodeValue(x[k])
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, str(k), y)
		}
		return m, nil
	}
	return encodeLiteral(v)
}

func scalarValue(y *yaml.Node) (value.Value, error) {
	switch y.ShortTag() {
	case "!!null":
		return value.NullValue, nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, decodeError(y, "%v", err)
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := y.Decode(&i); err != nil {
			return nil, decodeError(y, "%v", err)
		}
		return value.Int(i), nil
	case "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, decodeError(y, "%v", err)
		}
		return value.Float(f), nil
	case "!!timestamp":
		if d, err := value.ParseDate(y.Value); err == nil {
			return d, nil
		}
		if dt, err := value.ParseDateTime(y.Value); err == nil {
			return dt, nil
		}
		return value.String(y.Value), nil
	}
	return value.String(y.Value), nil
}

// ============================================================================
// Encoding
// ============================================================================

// Encode renders node as a YAML expression document readable by Decode.
func Encode(node Node) ([]byte, error) {
	y, err := encodeNode(node)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(y)
	if err != nil {
		return nil, &Error{Kind: ErrorEncoding, Message: "encode expression", Cause: err}
	}
	return out, nil
}

func scalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

func str(s string) *yaml.Node { return scalar("!!str", s) }

func mapping(kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: kv, Style: yaml.FlowStyle}
}

func sequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items, Style: yaml.FlowStyle}
}

func encodeNodes(nodes []Node) ([]*yaml.Node, error) {
	out := make([]*yaml.Node, len(nodes))
	for i, n := range nodes {
		y, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}

func encodeNode(node Node) (*yaml.Node, error) {
	switch n := node.(type) {
	case *Literal:
		return encodeLiteral(n.Value)
	case *Variable:
		return mapping(str("var"), str(n.Name)), nil
	case *VersionedVariable:
		return mapping(str("var"), str(n.Name), str("version"), scalar("!!int", strconv.Itoa(n.Version))), nil
	case *Label:
		return mapping(str("label"), str(n.Name)), nil
	case *Property:
		of, err := encodeNode(n.Object)
		if err != nil {
			return nil, err
		}
		return mapping(str("prop"), str(n.Name), str("of"), of), nil
	case *TagProperty:
		return mapping(str("prop"), str(n.Name), str("tag"), str(n.Tag)), nil
	case *EdgeProperty:
		return mapping(str("prop"), str(n.Name), str("edge"), str(n.EdgeType)), nil
	case *SrcProperty:
		return mapping(str("prop"), str(n.Name), str("src"), str(n.Tag)), nil
	case *DstProperty:
		return mapping(str("prop"), str(n.Name), str("dst"), str(n.Tag)), nil
	case *InputProperty:
		return mapping(str("input"), str(n.Name)), nil
	case *Binary:
		l, err := encodeNode(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := encodeNode(n.Right)
		if err != nil {
			return nil, err
		}
		return mapping(str("op"), str(n.Op.String()), str("left"), l, str("right"), r), nil
	case *Unary:
		arg, err := encodeNode(n.Operand)
		if err != nil {
			return nil, err
		}
		return mapping(str("op"), str(n.Op.String()), str("arg"), arg), nil
	case *FunctionCall:
		args, err := encodeNodes(n.Args)
		if err != nil {
			return nil, err
		}
		return mapping(str("call"), str(n.Name), str("args"), sequence(args...)), nil
	case *Aggregate:
		arg, err := encodeNode(n.Arg)
		if err != nil {
			return nil, err
		}
		return mapping(str("agg"), str(n.Func), str("arg"), arg,
			str("distinct"), scalar("!!bool", strconv.FormatBool(n.Distinct))), nil
	case *ListExpr:
		items, err := encodeNodes(n.Items)
		if err != nil {
			return nil, err
		}
		return mapping(str("list"), sequence(items...)), nil
	case *MapExpr:
		m := mapping()
		for _, e := range n.Entries {
			v, err := encodeNode(e.Value)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, str(e.Key), v)
		}
		return mapping(str("map"), m), nil
	case *Case:
		return encodeCase(n)
	case *Cast:
		operand, err := encodeNode(n.Operand)
		if err != nil {
			return nil, err
		}
		return mapping(str("cast"), operand, str("to"), str(n.Target.String())), nil
	case *Subscript:
		idx, err := encodeNode(n.Index)
		if err != nil {
			return nil, err
		}
		of, err := encodeNode(n.Collection)
		if err != nil {
			return nil, err
		}
		return mapping(str("index"), idx, str("of"), of), nil
	case *Range:
		coll, err := encodeNode(n.Collection)
		if err != nil {
			return nil, err
		}
		m := mapping(str("slice"), coll)
		for _, b := range []struct {
			key  string
			node Node
		}{{"start", n.Start}, {"end", n.End}} {
			if b.node == nil {
				continue
			}
			y, err := encodeNode(b.node)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, str(b.key), y)
		}
		return m, nil
	case *PathExpr:
		if len(n.Items) == 0 {
			return mapping(str("path"), str(n.Name)), nil
		}
		items, err := encodeNodes(n.Items)
		if err != nil {
			return nil, err
		}
		return mapping(str("path"), sequence(items...)), nil
	}
	return nil, newError(ErrorEncoding, "cannot encode %T", node)
}

func encodeCase(n *Case) (*yaml.Node, error) {
	branches := sequence()
	for _, w := range n.Whens {
		when, err := encodeNode(w.When)
		if err != nil {
			return nil, err
		}
		then, err := encodeNode(w.Then)
		if err != nil {
			return nil, err
		}
		branches.Content = append(branches.Content, mapping(str("when"), when, str("then"), then))
	}
	m := mapping(str("case"), branches)
	for _, b := range []struct {
		key  string
		node Node
	}{{"subject", n.Subject}, {"else", n.Default}} {
		if b.node == nil {
			continue
		}
		y, err := encodeNode(b.node)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, str(b.key), y)
	}
	return m, nil
}

func encodeLiteral(v value.Value) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil, value.Empty:
		return mapping(str("lit"), scalar("!!null", "null"), str("kind"), str("EMPTY")), nil
	case value.Null:
		if x.Kind == value.NullPlain {
			return scalar("!!null", "null"), nil
		}
		return mapping(str("lit"), scalar("!!null", "null"), str("kind"), str(x.Kind.String())), nil
	case value.Date, value.Time, value.DateTime, value.Duration, value.Geography:
		return mapping(str("lit"), str(v.String()), str("type"), str(value.TypeOf(v).String())), nil
	case value.String:
		// Quote so that date-like strings are not read back as timestamps.
		s := str(string(x))
		s.Style = yaml.DoubleQuotedStyle
		return s, nil
	}
	y, err := plainValue(v)
	if err != nil {
		return nil, err
	}
	if y.Kind == yaml.ScalarNode {
		return y, nil
	}
	return mapping(str("lit"), y), nil
}

// plainValue renders a value that decodes back through literalValue.
func plainValue(v value.Value) (*yaml.Node, error) {
	switch x := v.(type) {
	case value.Null:
		if x.Kind == value.NullPlain {
			return scalar("!!null", "null"), nil
		}
	case value.Bool:
		return scalar("!!bool", x.String()), nil
	case value.Int:
		return scalar("!!int", x.String()), nil
	case value.Float:
		f := float64(x)
		switch {
		case math.IsNaN(f):
			return scalar("!!float", ".nan"), nil
		case math.IsInf(f, 1):
			return scalar("!!float", ".inf"), nil
		case math.IsInf(f, -1):
			return scalar("!!float", "-.inf"), nil
		}
		return scalar("!!float", x.String()), nil
	case value.String:
		s := str(string(x))
		s.Style = yaml.DoubleQuotedStyle
		return s, nil
	case value.List:
		seq := sequence()
		for _, item := range x {
			y, err := plainValue(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, y)
		}
		return seq, nil
	case value.Map:
		m := mapping()
		for _, k := range x.SortedKeys() {
			y, err := plainValue(x[k])
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, str(k), y)
		}
		return m, nil
	}
	return nil, newError(ErrorEncoding, "cannot encode %s literal", value.TypeOf(v))
}
