package functions

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// digestInput is the byte form fed to cryptographic digests: the UTF-8 bytes
// of a string, the canonical msgpack encoding of anything else.
func digestInput(fn string, v value.Value) ([]byte, error) {
	if s, ok := v.(value.String); ok {
		return []byte(s), nil
	}
	data, err := value.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s cannot encode %s: %v", ErrInvalidArgument, fn, value.TypeOf(v), err)
	}
	return data, nil
}

func digestFn(name string, sum func([]byte) [32]byte) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		data, err := digestInput(name, args[0])
		if err != nil {
			return nil, err
		}
		d := sum(data)
		return value.String(hex.EncodeToString(d[:])), nil
	})
}

func registerHash(r *Registry) {
	r.add(Descriptor{
		Name: "hash", Category: CategoryHash, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "64-bit xxhash of any value; equal values hash equally",
		Examples:    []string{`hash(1.0) = hash(1.0) => true`},
		Body: func(_ Env, args []value.Value) (value.Value, error) {
			return value.Int(int64(value.Hash(args[0]))), nil
		},
	})
	r.add(Descriptor{
		Name: "sha3_256", Category: CategoryHash, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Hex SHA3-256 digest of a string or of a value's canonical encoding",
		Examples:    []string{`sha3_256("")`},
		Body:        digestFn("sha3_256", sha3.Sum256),
	})
	r.add(Descriptor{
		Name: "blake2b_256", Category: CategoryHash, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Hex BLAKE2b-256 digest of a string or of a value's canonical encoding",
		Body:        digestFn("blake2b_256", blake2b.Sum256),
	})
	r.add(Descriptor{
		Name: "uuid", Category: CategoryHash, MinArity: 0, MaxArity: 0,
		Description: "Random version 4 UUID",
		Body: func(Env, []value.Value) (value.Value, error) {
			return value.String(uuid.NewString()), nil
		},
	})
}
