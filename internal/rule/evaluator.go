package rule

// Evaluator decides a rule tree against a data record.
type Evaluator interface {
	Evaluate(n *Node, data map[string]any) (bool, error)
}

var _ Evaluator = (*Engine)(nil)

// Evaluate walks the tree against data. Both sides of a connective are always
// evaluated, so an error anywhere in the tree is reported.
func (e *Engine) Evaluate(n *Node, data map[string]any) (bool, error) {
	v, err := e.eval(n, data, nil, nil)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// EvaluateWithTrace is Evaluate plus the list of visited nodes. The trace is
// returned even when evaluation fails.
func (e *Engine) EvaluateWithTrace(n *Node, data map[string]any) (bool, *Trace, error) {
	tr := &Trace{}
	v, err := e.eval(n, data, nil, tr)
	if err != nil {
		tr.Error = err.Error()
		return false, tr, err
	}
	tr.Result = Truthy(v)
	return tr.Result, tr, nil
}

func (e *Engine) eval(n *Node, data map[string]any, path nodePath, tr *Trace) (any, error) {
	if len(path) > e.maxDepth {
		return nil, newError("evaluate", ErrMalformedTree, "tree deeper than %d at %s", e.maxDepth, path.short())
	}
	if n == nil {
		return nil, newError("evaluate", ErrMalformedTree, "missing node at %s", path.short())
	}

	switch n.Kind {
	case KindOperand:
		if n.Left != nil || n.Right != nil {
			return nil, newError("evaluate", ErrMalformedTree, "operand %q has children at %s", n.Value, path.short())
		}
		v := Resolve(n.Value, data)
		tr.record(path, n, v)
		return v, nil
	case KindOperator:
	default:
		return nil, newError("evaluate", ErrMalformedTree, "unknown node type %q at %s", n.Kind, path.short())
	}

	if n.Left == nil || n.Right == nil {
		return nil, newError("evaluate", ErrMalformedTree, "operator %q at %s needs two children", n.Value, path.short())
	}
	left, err := e.eval(n.Left, data, path.left(), tr)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right, data, path.right(), tr)
	if err != nil {
		return nil, err
	}

	out, err := e.apply(Symbol(n.Value), left, right)
	if err != nil {
		if re, ok := err.(*Error); ok {
			re.Detail += " at " + path.short()
			return nil, re
		}
		return nil, err
	}
	tr.record(path, n, out)
	return out, nil
}

// apply runs one operator over already evaluated operands.
func (e *Engine) apply(sym Symbol, left, right any) (bool, error) {
	if conn, ok := e.connectives[sym]; ok {
		return conn(Truthy(left), Truthy(right)), nil
	}
	cmp, ok := e.comparisons[sym]
	if !ok {
		return false, newError("evaluate", ErrUnknownOperator, "%q", sym)
	}
	out, err := cmp(left, right)
	if err != nil {
		return false, newError("evaluate", ErrTypeMismatch, "%s: %v", sym, err)
	}
	return out, nil
}
