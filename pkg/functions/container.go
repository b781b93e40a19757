package functions

import (
	"fmt"

	"github.com/orneryd/nornicexpr/pkg/value"
)

func reverseList(l value.List) value.List {
	out := make(value.List, len(l))
	for i, v := range l {
		out[len(l)-1-i] = v
	}
	return out
}

func keyList(keys []string) value.List {
	out := make(value.List, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return out
}

// rangeBody builds the inclusive integer sequence start, start+step, ... end.
func rangeBody(r *Registry) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		start, err := intArg("range", args, 0)
		if err != nil {
			return nil, err
		}
		end, err := intArg("range", args, 1)
		if err != nil {
			return nil, err
		}
		step := int64(1)
		if len(args) == 3 {
			if step, err = intArg("range", args, 2); err != nil {
				return nil, err
			}
		}
		if step == 0 {
			return nil, fmt.Errorf("%w: range step must not be zero", ErrInvalidArgument)
		}
		if (step > 0 && start > end) || (step < 0 && start < end) {
			return value.List{}, nil
		}

		// Count in uint64 so that extreme bounds cannot overflow.
		var span, stride uint64
		if step > 0 {
			span, stride = uint64(end)-uint64(start), uint64(step)
		} else {
			span, stride = uint64(start)-uint64(end), -uint64(step)
		}
		steps := span / stride
		limit := r.config.MaxCollectionSize()
		if steps >= uint64(limit) {
			return nil, fmt.Errorf("%w: range would produce more than %d elements", ErrInvalidArgument, limit)
		}
		count := steps + 1

		out := make(value.List, 0, count)
		for i, n := uint64(0), start; i < count; i, n = i+1, n+step {
			out = append(out, value.Int(n))
		}
		return out, nil
	})
}

func registerContainer(r *Registry) {
	r.add(Descriptor{
		Name: "size", Category: CategoryContainer, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Number of elements of a list, map or set; byte length of a string",
		Examples:    []string{`size([1, 2, 3]) => 3`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			return value.Length(args[0])
		}),
	})
	r.add(Descriptor{
		Name: "head", Category: CategoryContainer, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "First element of a list, NULL when empty",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			l, err := listArg("head", args, 0)
			if err != nil {
				return nil, err
			}
			if len(l) == 0 {
				return value.NullValue, nil
			}
			return l[0], nil
		}),
	})
	r.add(Descriptor{
		Name: "last", Category: CategoryContainer, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Last element of a list, NULL when empty",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			l, err := listArg("last", args, 0)
			if err != nil {
				return nil, err
			}
			if len(l) == 0 {
				return value.NullValue, nil
			}
			return l[len(l)-1], nil
		}),
	})
	r.add(Descriptor{
		Name: "tail", Category: CategoryContainer, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Every element but the first",
		Examples:    []string{`tail([1, 2, 3]) => [2, 3]`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			l, err := listArg("tail", args, 0)
			if err != nil {
				return nil, err
			}
			if len(l) == 0 {
				return value.List{}, nil
			}
			return append(value.List{}, l[1:]...), nil
		}),
	})
	r.add(Descriptor{
		Name: "keys", Category: CategoryContainer, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Sorted property names of a map, vertex or edge",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case value.Map:
				return keyList(x.SortedKeys()), nil
			case *value.Vertex:
				if x != nil {
					return keyList(x.AllProperties().SortedKeys()), nil
				}
			case *value.Edge:
				if x != nil {
					return keyList(x.Props.SortedKeys()), nil
				}
			}
			return nil, argError("keys", 0, "a map, vertex or edge", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "range", Category: CategoryContainer, MinArity: 2, MaxArity: 3, Pure: true,
		Description: "Integers from start to end inclusive, by step",
		Examples:    []string{`range(1, 5, 2) => [1, 3, 5]`, `range(3, 1, -1) => [3, 2, 1]`},
		Body:        rangeBody(r),
	})
	r.add(Descriptor{
		Name: "reverse_list", Category: CategoryContainer, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Elements of a list in reverse order",
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			l, err := listArg("reverse_list", args, 0)
			if err != nil {
				return nil, err
			}
			return reverseList(l), nil
		}),
	})
	r.add(Descriptor{
		Name: "coalesce", Category: CategoryContainer, MinArity: 1, MaxArity: Variadic, Pure: true,
		Description: "First argument that is neither NULL nor EMPTY",
		Examples:    []string{`coalesce(NULL, 2, 3) => 2`},
		Body: func(_ Env, args []value.Value) (value.Value, error) {
			for _, a := range args {
				if !value.IsNull(a) && !value.IsEmpty(a) {
					return a, nil
				}
			}
			return value.NullValue, nil
		},
	})
}
