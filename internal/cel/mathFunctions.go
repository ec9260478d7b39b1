package cel

import (
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// mathFunctions declares the integer helpers layouts need for sizes and
// padding: min, max, align, pad and ceilDiv.
func mathFunctions() cel.EnvOption {
	return cel.Lib(&mathLib{})
}

type mathLib struct{}

func intBinary(name string, op func(a, b int64) ref.Val) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_int_int", []*cel.Type{cel.IntType, cel.IntType}, cel.IntType,
			cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				a, ok1 := lhs.(types.Int)
				b, ok2 := rhs.(types.Int)
				if !ok1 || !ok2 {
					return types.NewErr("arguments to %s must be integers", name)
				}
				return op(int64(a), int64(b))
			}),
		),
	)
}

func (*mathLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		intBinary("min", func(a, b int64) ref.Val { return types.Int(min(a, b)) }),
		intBinary("max", func(a, b int64) ref.Val { return types.Int(max(a, b)) }),

		// align(n, unit) rounds n up to a multiple of unit.
		intBinary("align", func(n, unit int64) ref.Val {
			if unit <= 0 {
				return types.NewErr("align: unit must be positive, got %d", unit)
			}
			return types.Int((n + unit - 1) / unit * unit)
		}),

		// pad(n, unit) is the number of bytes that align n to unit.
		intBinary("pad", func(n, unit int64) ref.Val {
			if unit <= 0 {
				return types.NewErr("pad: unit must be positive, got %d", unit)
			}
			return types.Int((unit - n%unit) % unit)
		}),

		intBinary("ceilDiv", func(a, b int64) ref.Val {
			if b == 0 {
				return types.NewErr("ceilDiv: division by zero")
			}
			return types.Int((a + b - 1) / b)
		}),

		cel.Function("abs",
			cel.Overload("abs_int", []*cel.Type{cel.IntType}, cel.IntType,
				cel.UnaryBinding(func(val ref.Val) ref.Val {
					x, ok := val.(types.Int)
					if !ok {
						return types.NewErr("expected int argument to abs, got %s", val.Type())
					}
					if x < 0 {
						return -x
					}
					return x
				}),
			),
		),
	}
}

func (*mathLib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}
