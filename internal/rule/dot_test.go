package rule_test

import (
	"testing"

	"github.com/awalterschulze/gographviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

func TestToDOT_RoundTripsThroughGraphviz(t *testing.T) {
	dot, err := rule.ToDOT(mustRule(t, ruleMarketing))
	require.NoError(t, err)
	assert.Contains(t, dot, "digraph Rule")

	ast, err := gographviz.ParseString(dot)
	require.NoError(t, err)
	g := gographviz.NewGraph()
	require.NoError(t, gographviz.Analyse(ast, g))

	assert.Len(t, g.Nodes.Nodes, 7)
	assert.Len(t, g.Edges.Edges, 6)

	root := g.Nodes.Lookup["n0"]
	require.NotNil(t, root)
	assert.Equal(t, `"AND"`, root.Attrs[gographviz.Attr("label")])
	assert.Equal(t, "box", root.Attrs[gographviz.Attr("shape")])
}

func TestToDOT_SingleRuleCombine(t *testing.T) {
	combined, err := rule.NewEngine().CombineRules([]string{"age > 30"})
	require.NoError(t, err)

	dot, err := rule.ToDOT(combined)
	require.NoError(t, err)

	ast, err := gographviz.ParseString(dot)
	require.NoError(t, err)
	g := gographviz.NewGraph()
	require.NoError(t, gographviz.Analyse(ast, g))
	assert.Len(t, g.Nodes.Nodes, 4)
	assert.Len(t, g.Edges.Edges, 3)
}

func TestToDOT_NilTree(t *testing.T) {
	_, err := rule.ToDOT(nil)
	assert.ErrorIs(t, err, rule.ErrMalformedTree)
}
