package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// NewEnvironment creates the CEL environment used for size, count and
// offset expressions over decoded field values.
func NewEnvironment() (*cel.Env, error) {
	opts := []cel.EnvOption{
		cel.CustomTypeAdapter(NewFieldTypeAdapter()),
		cel.StdLib(),

		bitwiseFunctions(),
		mathFunctions(),
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return env, nil
}

// FieldTypeAdapter extends the default adapter with Go's narrow integer
// types, which decoded bit fields and bytes arrive as.
type FieldTypeAdapter struct {
	types.Adapter
}

// NewFieldTypeAdapter creates a FieldTypeAdapter over the default adapter
func NewFieldTypeAdapter() *FieldTypeAdapter {
	return &FieldTypeAdapter{
		Adapter: types.DefaultTypeAdapter,
	}
}

// NativeToValue converts Go native types to CEL values
func (a *FieldTypeAdapter) NativeToValue(value any) ref.Val {
	switch v := value.(type) {
	case int:
		return types.Int(v)
	case int8:
		return types.Int(v)
	case int16:
		return types.Int(v)
	case int32:
		return types.Int(v)
	case uint8:
		return types.Int(v)
	case uint16:
		return types.Int(v)
	case uint32:
		return types.Int(v)
	case float32:
		return types.Double(v)
	default:
		return a.Adapter.NativeToValue(value)
	}
}
