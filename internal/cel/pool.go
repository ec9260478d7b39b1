// pool.go
package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// ExpressionPool caches compiled CEL expressions. It is safe for concurrent use.
type ExpressionPool struct {
	mu          sync.RWMutex
	expressions map[string]cel.Program
	env         *cel.Env
}

// NewExpressionPool creates a new expression pool with a configured CEL environment
func NewExpressionPool() (*ExpressionPool, error) {
	env, err := NewEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create environment: %w", err)
	}
	return NewExpressionPoolWithEnv(env)
}

// NewExpressionPoolWithEnv creates a new expression pool with a custom CEL environment
func NewExpressionPoolWithEnv(env *cel.Env) (*ExpressionPool, error) {
	if env == nil {
		return nil, fmt.Errorf("CEL environment cannot be nil")
	}

	return &ExpressionPool{
		env:         env,
		expressions: make(map[string]cel.Program),
	}, nil
}

// Len returns the number of cached programs.
func (e *ExpressionPool) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.expressions)
}

// GetExpression retrieves or compiles an expression. Every free identifier
// is declared as a dynamic variable.
func (e *ExpressionPool) GetExpression(exprStr string) (cel.Program, error) {
	e.mu.RLock()
	if program, ok := e.expressions[exprStr]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	envOpts := []cel.EnvOption{}
	for _, varName := range extractVariables(exprStr) {
		envOpts = append(envOpts, cel.Variable(varName, cel.DynType))
	}

	extEnv, err := e.env.Extend(envOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to extend environment: %w", err)
	}

	ast, issues := extEnv.Compile(exprStr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression '%s': %w", exprStr, issues.Err())
	}

	program, err := extEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	e.mu.Lock()
	e.expressions[exprStr] = program
	e.mu.Unlock()

	return program, nil
}

// EvaluateExpression evaluates a compiled expression with parameters
func (e *ExpressionPool) EvaluateExpression(program cel.Program, params map[string]any) (any, error) {
	if params == nil {
		params = make(map[string]any)
	}

	activation, err := cel.NewActivation(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create activation: %w", err)
	}

	val, _, err := program.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("expression evaluation error: %w", err)
	}

	return adaptCELResult(val), nil
}

// Evaluate compiles (or reuses) exprStr and evaluates it with params.
func (e *ExpressionPool) Evaluate(exprStr string, params map[string]any) (any, error) {
	program, err := e.GetExpression(exprStr)
	if err != nil {
		return nil, err
	}
	return e.EvaluateExpression(program, params)
}

// adaptCELResult converts CEL result values to Go native types
func adaptCELResult(val any) any {
	switch v := val.(type) {
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.Bool:
		return bool(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	case ref.Val:
		if lister, ok := v.(traits.Lister); ok {
			size := lister.Size().(types.Int)
			result := make([]any, size)
			for i := types.Int(0); i < size; i++ {
				result[i] = adaptCELResult(lister.Get(i))
			}
			return result
		}

		if mapper, ok := v.(traits.Mapper); ok {
			result := make(map[string]any)
			iter := mapper.Iterator()
			for iter.HasNext() == types.True {
				key := iter.Next()
				keyStr, ok := key.Value().(string)
				if !ok {
					keyStr = fmt.Sprintf("%v", key.Value())
				}
				result[keyStr] = adaptCELResult(mapper.Get(key))
			}
			return result
		}

		return v.Value()
	default:
		return v
	}
}

// extractVariables returns the identifiers of expr that need declaring.
// Literals, keywords, member names after a '.', function names before a
// '(' and text inside string quotes are skipped.
func extractVariables(expr string) []string {
	var vars []string
	seen := make(map[string]bool)
	keywords := map[string]bool{
		"true":  true,
		"false": true,
		"null":  true,
		"in":    true,
	}

	var quote byte
	for i := 0; i < len(expr); {
		c := expr[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			i++
			continue
		}
		if !isIdentStart(c) {
			if c >= '0' && c <= '9' {
				// skip numeric literals such as 0x1F or 10u
				for i < len(expr) && isIdentPart(expr[i]) {
					i++
				}
				continue
			}
			i++
			continue
		}

		start := i
		for i < len(expr) && isIdentPart(expr[i]) {
			i++
		}
		word := expr[start:i]
		if keywords[word] || seen[word] || neighbour(expr, start, -1) == '.' || neighbour(expr, i-1, 1) == '(' {
			continue
		}
		seen[word] = true
		vars = append(vars, word)
	}

	return vars
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// neighbour returns the first non-space byte next to expr[i] in direction dir.
func neighbour(expr string, i, dir int) byte {
	for j := i + dir; j >= 0 && j < len(expr); j += dir {
		if expr[j] != ' ' {
			return expr[j]
		}
	}
	return 0
}
