package rule

import "strings"

// item is a parser stack element: a raw token, or a node already reduced
// from a bracketed group.
type item struct {
	tok  Token
	node *Node
}

func (it item) is(kind TokenKind) bool {
	return it.node == nil && it.tok.Kind == kind
}

func (it item) String() string {
	if it.node != nil {
		return it.node.String()
	}
	return it.tok.Text
}

// CreateRule tokenizes and parses a rule string into a tree.
func (e *Engine) CreateRule(rule string) (*Node, error) {
	return e.Parse(Tokenize(rule))
}

// Parse resolves bracketed groups left to right and then reduces what is left
// on the stack into the root node.
func (e *Engine) Parse(tokens []Token) (*Node, error) {
	if len(tokens) == 0 {
		return nil, newError("parse", ErrEmptyRule, "no tokens")
	}

	stack := make([]item, 0, len(tokens))
	open := 0
	for _, t := range tokens {
		switch t.Kind {
		case TokenLParen:
			open++
			if open > e.maxDepth {
				return nil, newError("parse", ErrTooDeep, "more than %d nested groups", e.maxDepth)
			}
			stack = append(stack, item{tok: t})
		case TokenRParen:
			i := len(stack) - 1
			for i >= 0 && !stack[i].is(TokenLParen) {
				i--
			}
			// Without a matching "(" the whole stack is the group.
			n, err := e.reduce(stack[i+1:], 0)
			if err != nil {
				return nil, err
			}
			if i >= 0 {
				stack = stack[:i]
				open--
			} else {
				stack = stack[:0]
			}
			stack = append(stack, item{node: n})
		default:
			stack = append(stack, item{tok: t})
		}
	}

	root, err := e.reduce(stack, 0)
	if err != nil {
		return nil, err
	}
	if d := Depth(root); d > e.maxDepth {
		return nil, newError("parse", ErrTooDeep, "tree depth %d exceeds %d", d, e.maxDepth)
	}
	return root, nil
}

// reduce collapses a run into one node. OR is split at its first occurrence
// before AND is considered at all, so same-connective chains lean right and
// mixed chains without brackets group OR loosest by position only.
func (e *Engine) reduce(run []item, depth int) (*Node, error) {
	if depth > e.maxDepth {
		return nil, newError("parse", ErrTooDeep, "more than %d chained connectives", e.maxDepth)
	}

	switch len(run) {
	case 0:
		return nil, newError("parse", ErrMalformedComparison, "missing operand")
	case 1:
		if run[0].node != nil {
			return run[0].node, nil
		}
		return Operand(run[0].tok.Text), nil
	}

	for _, conn := range []TokenKind{TokenOr, TokenAnd} {
		idx := indexOf(run, conn)
		if idx < 0 {
			continue
		}
		left, err := e.reduce(run[:idx], depth+1)
		if err != nil {
			return nil, err
		}
		right, err := e.reduce(run[idx+1:], depth+1)
		if err != nil {
			return nil, err
		}
		return Operator(Symbol(conn.String()), left, right), nil
	}

	if len(run) != 3 {
		return nil, newError("parse", ErrMalformedComparison, "expected operand operator operand, got %q", joinRun(run))
	}
	l, op, r := run[0], run[1], run[2]
	if l.node != nil || op.node != nil || r.node != nil {
		return nil, newError("parse", ErrMalformedComparison, "group used inside comparison %q", joinRun(run))
	}
	sym := Symbol(op.tok.Text)
	if !sym.IsComparison() {
		return nil, newError("parse", ErrUnknownOperator, "%q in %q", op.tok.Text, joinRun(run))
	}
	return Operator(sym, Operand(l.tok.Text), Operand(r.tok.Text)), nil
}

func indexOf(run []item, kind TokenKind) int {
	for i, it := range run {
		if it.is(kind) {
			return i
		}
	}
	return -1
}

func joinRun(run []item) string {
	parts := make([]string, len(run))
	for i, it := range run {
		parts[i] = it.String()
	}
	return strings.Join(parts, " ")
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func Depth(n *Node) int {
	if n == nil {
		return 0
	}
	return 1 + max(Depth(n.Left), Depth(n.Right))
}
