package expression

import (
	"errors"

	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// Evaluate computes the value of node against ctx. Children are evaluated
// before their parent, left to right, and the first error aborts the walk.
//
// Errors are always *Error; match them with errors.Is against the package
// sentinels:
//
//	_, err := expression.Evaluate(node, ctx)
//	if errors.Is(err, expression.ErrUndefinedVariable) {
//		// bind the variable and retry
//	}
func Evaluate(node Node, ctx Context) (value.Value, error) {
	switch n := node.(type) {
	case *Literal:
		if n.Value == nil {
			return value.EmptyValue, nil
		}
		return n.Value, nil
	case *Variable:
		return lookup(ctx.Variable(n.Name))
	case *VersionedVariable:
		return evalVersioned(n, ctx)
	case *Label:
		return value.String(n.Name), nil
	case *Property:
		return evalProperty(n, ctx)
	case *TagProperty:
		return evalTagProperty(ctx, n.Tag, n.Name)
	case *EdgeProperty:
		return evalEdgeProperty(ctx, n.EdgeType, n.Name)
	case *SrcProperty:
		return evalEndpointProperty(ctx, true, n.Tag, n.Name)
	case *DstProperty:
		return evalEndpointProperty(ctx, false, n.Tag, n.Name)
	case *InputProperty:
		if in, ok := ctx.(InputReader); ok {
			return lookup(in.Input(n.Name))
		}
		return lookup(ctx.Variable(n.Name))
	case *Binary:
		return evalBinary(n, ctx)
	case *Unary:
		return evalUnary(n, ctx)
	case *FunctionCall:
		return evalCall(n, ctx)
	case *Aggregate:
		return evalAggregate(n, ctx)
	case *ListExpr:
		items, err := EvaluateBatch(n.Items, ctx)
		if err != nil {
			return nil, err
		}
		return value.List(items), nil
	case *MapExpr:
		out := make(value.Map, len(n.Entries))
		for _, e := range n.Entries {
			v, err := Evaluate(e.Value, ctx)
			if err != nil {
				return nil, err
			}
			out[e.Key] = v
		}
		return out, nil
	case *Case:
		return evalCase(n, ctx)
	case *Cast:
		return evalCast(n, ctx)
	case *Subscript:
		return evalSubscript(n, ctx)
	case *Range:
		return evalRange(n, ctx)
	case *PathExpr:
		return evalPath(n, ctx)
	case nil:
		return nil, newError(ErrorInvalidOperation, "nil expression")
	}
	return nil, newError(ErrorInvalidOperation, "unsupported expression %T", node)
}

// EvaluateBatch evaluates nodes in order and returns their values. It stops
// at the first error.
func EvaluateBatch(nodes []Node, ctx Context) ([]value.Value, error) {
	out := make([]value.Value, len(nodes))
	for i, n := range nodes {
		v, err := Evaluate(n, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// lookup normalises the result of a context read.
func lookup(v value.Value, err error) (value.Value, error) {
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, sourceError("lookup", err)
	}
	if v == nil {
		return value.EmptyValue, nil
	}
	return v, nil
}

func evalVersioned(n *VersionedVariable, ctx Context) (value.Value, error) {
	if vr, ok := ctx.(VersionedReader); ok {
		return lookup(vr.VariableVersion(n.Name, n.Version))
	}
	if n.Version == 0 {
		return lookup(ctx.Variable(n.Name))
	}
	return nil, newError(ErrorUndefinedVariable, "%s{%d}: context keeps no versions", n.Name, n.Version)
}

// ============================================================================
// Calls
// ============================================================================

func evalCall(n *FunctionCall, ctx Context) (value.Value, error) {
	reg := ctx.Functions()
	if reg == nil {
		reg = DefaultRegistry()
	}
	d, err := reg.Resolve(n.Name)
	if errors.Is(err, functions.ErrDisabled) {
		return nil, newError(ErrorUndefinedFunction, "%s is disabled", n.Name)
	}
	if err != nil {
		return nil, newError(ErrorUndefinedFunction, "%s", n.Name)
	}
	if err := d.CheckArity(len(n.Args)); err != nil {
		return nil, classify(err)
	}
	args, err := EvaluateBatch(n.Args, ctx)
	if err != nil {
		return nil, err
	}
	out, err := d.Body(ctx, args)
	if err != nil {
		return nil, classify(err)
	}
	if out == nil {
		return value.EmptyValue, nil
	}
	return out, nil
}

func evalAggregate(n *Aggregate, ctx Context) (value.Value, error) {
	if !functions.IsAggregate(n.Func) {
		return nil, newError(ErrorUndefinedFunction, "%s is not an aggregate function", n.Func)
	}
	arg, err := Evaluate(n.Arg, ctx)
	if err != nil {
		return nil, err
	}
	var items []value.Value
	switch x := arg.(type) {
	case value.List:
		items = x
	case *value.Set:
		items = x.Items()
	case value.Null, value.Empty:
	default:
		return nil, typeError("%s requires a list, got %s", n.Func, value.TypeOf(arg))
	}
	out, err := functions.Aggregate(n.Func, n.Distinct, items)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ============================================================================
// Conditionals and casts
// ============================================================================

func evalCase(n *Case, ctx Context) (value.Value, error) {
	var subject value.Value
	if n.Subject != nil {
		var err error
		if subject, err = Evaluate(n.Subject, ctx); err != nil {
			return nil, err
		}
	}
	for _, w := range n.Whens {
		cond, err := Evaluate(w.When, ctx)
		if err != nil {
			return nil, err
		}
		var take bool
		if n.Subject != nil {
			take = !isNullish(subject) && !isNullish(cond) && equalValues(subject, cond)
		} else {
			b, ok := cond.(value.Bool)
			if !ok {
				return nil, typeError("CASE condition must be BOOL, got %s", value.TypeOf(cond))
			}
			take = bool(b)
		}
		if take {
			return Evaluate(w.Then, ctx)
		}
	}
	if n.Default != nil {
		return Evaluate(n.Default, ctx)
	}
	return value.NullValue, nil
}

func evalCast(n *Cast, ctx Context) (value.Value, error) {
	v, err := Evaluate(n.Operand, ctx)
	if err != nil {
		return nil, err
	}
	out, err := value.TryImplicitCast(v, n.Target)
	if err != nil {
		return nil, &Error{Kind: ErrorType, Cause: err}
	}
	if null, ok := out.(value.Null); ok && null.Kind == value.NullBadType {
		return nil, typeError("cannot cast %s to %s", value.TypeOf(v), n.Target)
	}
	return out, nil
}
