package rule

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

const dotGraphName = "Rule"

// ToDOT renders the tree as a Graphviz digraph. Nodes are named n0, n1, ... in
// pre-order and edges are labelled with the side they hang from.
func ToDOT(root *Node) (string, error) {
	if root == nil {
		return "", newError("render", ErrMalformedTree, "nil tree")
	}

	g := gographviz.NewGraph()
	if err := g.SetName(dotGraphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	next := 0
	var walk func(n *Node) (string, error)
	walk = func(n *Node) (string, error) {
		id := fmt.Sprintf("n%d", next)
		next++

		shape := "ellipse"
		if n.Kind == KindOperator {
			shape = "box"
		}
		if err := g.AddNode(dotGraphName, id, map[string]string{
			"label": strconv.Quote(n.Value),
			"shape": shape,
		}); err != nil {
			return "", err
		}

		for _, side := range []struct {
			name  string
			child *Node
		}{{"left", n.Left}, {"right", n.Right}} {
			if side.child == nil {
				continue
			}
			childID, err := walk(side.child)
			if err != nil {
				return "", err
			}
			if err := g.AddEdge(id, childID, true, map[string]string{"label": side.name}); err != nil {
				return "", err
			}
		}
		return id, nil
	}

	if _, err := walk(root); err != nil {
		return "", fmt.Errorf("render dot: %w", err)
	}
	return g.String(), nil
}
