package cel

import (
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// bitwiseFunctions declares the bit operations used to pick flags and
// packed counts out of decoded header fields.
func bitwiseFunctions() cel.EnvOption {
	return cel.Lib(&bitwiseLib{})
}

type bitwiseLib struct{}

// toBits reads an int or uint operand as a raw 64-bit pattern.
func toBits(v ref.Val) (uint64, bool) {
	switch x := v.(type) {
	case types.Int:
		return uint64(x), true
	case types.Uint:
		return uint64(x), true
	}
	return 0, false
}

// fromBits returns Int while the pattern fits, Uint otherwise.
func fromBits(b uint64) ref.Val {
	if b <= uint64(^uint64(0)>>1) {
		return types.Int(b)
	}
	return types.Uint(b)
}

func bitwiseBinary(name string, op func(a, b uint64) uint64) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_dyn_dyn", []*cel.Type{cel.DynType, cel.DynType}, cel.DynType,
			cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				l, ok1 := toBits(lhs)
				r, ok2 := toBits(rhs)
				if !ok1 || !ok2 {
					return types.NewErr("%s arguments must be integers, got %s and %s", name, lhs.Type(), rhs.Type())
				}
				return fromBits(op(l, r))
			}),
		),
	)
}

func shift(name string, op func(v uint64, n uint) uint64) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_dyn_dyn", []*cel.Type{cel.DynType, cel.DynType}, cel.DynType,
			cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				v, ok1 := toBits(lhs)
				n, ok2 := rhs.(types.Int)
				if !ok1 || !ok2 {
					return types.NewErr("%s expects an integer and an int shift, got %s and %s", name, lhs.Type(), rhs.Type())
				}
				if n < 0 || n > 63 {
					return types.NewErr("%s: shift amount %d out of range", name, n)
				}
				return fromBits(op(v, uint(n)))
			}),
		),
	)
}

func (*bitwiseLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		bitwiseBinary("bitAnd", func(a, b uint64) uint64 { return a & b }),
		bitwiseBinary("bitOr", func(a, b uint64) uint64 { return a | b }),
		bitwiseBinary("bitXor", func(a, b uint64) uint64 { return a ^ b }),
		shift("bitShiftLeft", func(v uint64, n uint) uint64 { return v << n }),
		shift("bitShiftRight", func(v uint64, n uint) uint64 { return v >> n }),

		// bitTest(value, index) reports whether bit index (LSB = 0) is set.
		cel.Function("bitTest",
			cel.Overload("bittest_dyn_int", []*cel.Type{cel.DynType, cel.IntType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					v, ok1 := toBits(lhs)
					n, ok2 := rhs.(types.Int)
					if !ok1 || !ok2 {
						return types.NewErr("bitTest expects an integer and an int index")
					}
					if n < 0 || n > 63 {
						return types.NewErr("bitTest: index %d out of range", n)
					}
					return types.Bool(v&(1<<uint(n)) != 0)
				}),
			),
		),
	}
}

func (*bitwiseLib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}
