// Package query selects outline nodes with CEL predicates.
package query

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"
)

var (
	// ErrCompile is returned when an expression does not parse or type check.
	ErrCompile = errors.New("compile query")
	// ErrNotPredicate is returned for expressions that cannot yield a bool.
	ErrNotPredicate = errors.New("query must evaluate to a bool")
)

// Env compiles predicates. The value under test is bound to "_".
type Env struct {
	env *cel.Env
}

// NewEnv creates an environment with the common extension libraries.
func NewEnv(opts ...cel.EnvOption) (*Env, error) {
	all := make([]cel.EnvOption, 0, 5+len(opts))
	all = append(all,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	all = append(all, opts...)
	env, err := cel.NewEnv(all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Env{env: env}, nil
}

// Predicate is a compiled boolean expression.
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile parses and checks expr.
func (e *Env) Compile(expr string) (*Predicate, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrCompile, expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q yields %s", ErrNotPredicate, expr, out)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Predicate) String() string { return p.expr }

// Match evaluates the predicate against data. Evaluation errors, such as a
// missing key, and non-bool results count as no match.
func (p *Predicate) Match(data any) bool {
	out, _, err := p.prg.Eval(map[string]any{"_": data})
	if err != nil {
		return false
	}
	b, ok := out.(types.Bool)
	return ok && bool(b)
}

// Filter returns the items whose value matches, in order.
func Filter[T any](p *Predicate, items []T, value func(T) any) []T {
	var out []T
	for _, item := range items {
		if p.Match(value(item)) {
			out = append(out, item)
		}
	}
	return out
}
