package rule

import "fmt"

// CombineRules parses every rule and chains the trees left-deep under the
// connective used most often across all of them; ties go to AND.
//
// The fold adds one level per rule, so the result is held to the same depth
// limit as a parsed rule.
//
// A single rule yields an AND/OR root holding that rule as its left child and
// no right child, unless the engine was built WithStrictCombine.
func (e *Engine) CombineRules(rules []string) (*Node, error) {
	if len(rules) == 0 {
		return nil, newError("combine", ErrNoRulesToCombine, "")
	}
	if len(rules) == 1 && e.strictCombine {
		return nil, newError("combine", ErrSingleRuleCombineNotSupported, "got 1 rule")
	}

	trees := make([]*Node, 0, len(rules))
	counts := map[Symbol]int{}
	for i, r := range rules {
		t, err := e.CreateRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		countConnectives(t, counts)
		trees = append(trees, t)
	}

	sym := And
	if counts[Or] > counts[And] {
		sym = Or
	}

	root := &Node{Kind: KindOperator, Value: string(sym), Left: trees[0]}
	if len(trees) > 1 {
		root = Operator(sym, trees[0], trees[1])
		for _, t := range trees[2:] {
			root = Operator(sym, root, t)
		}
	}
	if d := Depth(root); d > e.maxDepth {
		return nil, newError("combine", ErrTooDeep, "combined tree depth %d exceeds %d", d, e.maxDepth)
	}
	return root, nil
}

// countConnectives only descends through connectives; comparison children are
// always operands in parsed trees.
func countConnectives(n *Node, counts map[Symbol]int) {
	if n == nil || !n.Symbol().IsConnective() {
		return
	}
	counts[n.Symbol()]++
	countConnectives(n.Left, counts)
	countConnectives(n.Right, counts)
}
