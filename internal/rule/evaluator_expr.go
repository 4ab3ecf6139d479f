package rule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule/cache"
)

// ExprEvaluator compiles trees into expr programs and keeps the compiled
// programs, keyed by their source, for reuse. Operands, comparisons and
// truthiness are delegated back to the engine, so results and error kinds
// match Engine.Evaluate.
type ExprEvaluator struct {
	engine   *Engine
	programs *cache.InMemory[*vm.Program]
}

var _ Evaluator = (*ExprEvaluator)(nil)

func NewExprEvaluator(engine *Engine, maxPrograms int) *ExprEvaluator {
	return &ExprEvaluator{
		engine:   engine,
		programs: cache.NewInMemory[*vm.Program](maxPrograms),
	}
}

func (x *ExprEvaluator) Evaluate(n *Node, data map[string]any) (bool, error) {
	src, err := x.Source(n)
	if err != nil {
		return false, err
	}

	program, err := x.programs.GetOrCompute(src, func() (*vm.Program, error) {
		return x.compile(src)
	})
	if err != nil {
		return false, err
	}

	if data == nil {
		data = map[string]any{}
	}
	out, err := expr.Run(program, data)
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			return false, re
		}
		return false, fmt.Errorf("run compiled rule: %w", err)
	}

	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("compiled rule must evaluate to bool (got %T)", out)
	}
	return b, nil
}

// Source renders the tree as expr source. Connectives build a two element
// array before all/any look at it, so both sides always run.
func (x *ExprEvaluator) Source(n *Node) (string, error) {
	var b strings.Builder
	b.WriteString("truthy(")
	if err := x.write(&b, n, nil); err != nil {
		return "", err
	}
	b.WriteString(")")
	return b.String(), nil
}

func (x *ExprEvaluator) write(b *strings.Builder, n *Node, path nodePath) error {
	if len(path) > x.engine.maxDepth {
		return newError("compile", ErrMalformedTree, "tree deeper than %d at %s", x.engine.maxDepth, path.short())
	}
	if n == nil {
		return newError("compile", ErrMalformedTree, "missing node at %s", path.short())
	}

	switch n.Kind {
	case KindOperand:
		if n.Left != nil || n.Right != nil {
			return newError("compile", ErrMalformedTree, "operand %q has children at %s", n.Value, path.short())
		}
		b.WriteString("resolve($env, ")
		b.WriteString(strconv.Quote(n.Value))
		b.WriteString(")")
		return nil
	case KindOperator:
	default:
		return newError("compile", ErrMalformedTree, "unknown node type %q at %s", n.Kind, path.short())
	}

	if n.Left == nil || n.Right == nil {
		return newError("compile", ErrMalformedTree, "operator %q at %s needs two children", n.Value, path.short())
	}

	sym := Symbol(n.Value)
	switch {
	case sym.IsConnective():
		if sym == And {
			b.WriteString("all([truthy(")
		} else {
			b.WriteString("any([truthy(")
		}
		if err := x.write(b, n.Left, path.left()); err != nil {
			return err
		}
		b.WriteString("), truthy(")
		if err := x.write(b, n.Right, path.right()); err != nil {
			return err
		}
		b.WriteString(")], #)")
	case sym.IsComparison():
		b.WriteString("compare(")
		b.WriteString(strconv.Quote(n.Value))
		b.WriteString(", ")
		if err := x.write(b, n.Left, path.left()); err != nil {
			return err
		}
		b.WriteString(", ")
		if err := x.write(b, n.Right, path.right()); err != nil {
			return err
		}
		b.WriteString(")")
	default:
		return newError("compile", ErrUnknownOperator, "%q at %s", n.Value, path.short())
	}
	return nil
}

func (x *ExprEvaluator) compile(src string) (*vm.Program, error) {
	program, err := expr.Compile(src,
		expr.Function("resolve", func(params ...any) (any, error) {
			data, _ := params[0].(map[string]any)
			raw, _ := params[1].(string)
			return Resolve(raw, data), nil
		}),
		expr.Function("compare", func(params ...any) (any, error) {
			sym, _ := params[0].(string)
			return x.engine.apply(Symbol(sym), params[1], params[2])
		}),
		expr.Function("truthy", func(params ...any) (any, error) {
			return Truthy(params[0]), nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("compile rule program: %w", err)
	}
	return program, nil
}
