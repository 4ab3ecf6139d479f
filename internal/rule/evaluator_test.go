package rule_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

const (
	ruleMarketing = "age > 30 AND department = 'Marketing'"
	ruleMixed     = "(age > 30 AND department = 'Marketing') OR (salary > 20000 OR experience > 5)"
)

type evalCase struct {
	name    string
	rule    string
	data    map[string]any
	want    bool
	wantErr error
}

var evalCases = []evalCase{
	{
		name: "marketing over thirty",
		rule: ruleMarketing,
		data: map[string]any{"age": 35, "department": "Marketing"},
		want: true,
	},
	{
		name: "marketing too young",
		rule: ruleMarketing,
		data: map[string]any{"age": 20, "department": "Marketing"},
		want: false,
	},
	{
		name: "sales rescued by salary",
		rule: ruleMixed,
		data: map[string]any{"age": 35, "department": "Sales", "salary": 60000, "experience": 10},
		want: true,
	},
	{
		name: "nothing matches",
		rule: ruleMixed,
		data: map[string]any{"age": 25, "department": "Sales", "salary": 10000, "experience": 2},
		want: false,
	},
	{
		name: "json decoded numbers",
		rule: "age >= 35 AND salary < 60001",
		data: map[string]any{"age": float64(35), "salary": json.Number("60000")},
		want: true,
	},
	{
		name: "int equals float",
		rule: "score = 7",
		data: map[string]any{"score": 7.0},
		want: true,
	},
	{
		name: "not equal strings",
		rule: "department != 'Sales'",
		data: map[string]any{"department": "Marketing"},
		want: true,
	},
	{
		name: "string ordering",
		rule: "name < 'm'",
		data: map[string]any{"name": "alice"},
		want: true,
	},
	{
		name: "boolean fields",
		rule: "active = verified",
		data: map[string]any{"active": true, "verified": true},
		want: true,
	},
	{
		name: "literal on both sides",
		rule: "5 <= 5",
		want: true,
	},
	{
		name: "bare operand is truthy",
		rule: "active",
		data: map[string]any{"active": true},
		want: true,
	},
	{
		name: "bare operand zero is falsy",
		rule: "count",
		data: map[string]any{"count": 0},
		want: false,
	},
	{
		name: "operand connective",
		rule: "a AND b",
		data: map[string]any{"a": "x", "b": ""},
		want: false,
	},
	{
		name:    "string against number",
		rule:    "department = 5",
		data:    map[string]any{"department": "Sales"},
		wantErr: rule.ErrTypeMismatch,
	},
	{
		name:    "ordering a boolean",
		rule:    "active > 0",
		data:    map[string]any{"active": true},
		wantErr: rule.ErrTypeMismatch,
	},
	{
		name:    "unquoted true is a string",
		rule:    "active = true",
		data:    map[string]any{"active": true},
		wantErr: rule.ErrTypeMismatch,
	},
	{
		name:    "no short circuit on or",
		rule:    "age > 30 OR department > 5",
		data:    map[string]any{"age": 35, "department": "Sales"},
		wantErr: rule.ErrTypeMismatch,
	},
	{
		name:    "null field",
		rule:    "manager = 'bob'",
		data:    map[string]any{"manager": nil},
		wantErr: rule.ErrTypeMismatch,
	},
}

func TestEngine_Evaluate(t *testing.T) {
	e := rule.NewEngine()
	for _, tc := range evalCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := e.CreateRule(tc.rule)
			require.NoError(t, err)

			got, err := e.Evaluate(tree, tc.data)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, "evaluate", rule.Stage(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEngine_Evaluate_SerializedTreeGivesSameVerdict(t *testing.T) {
	e := rule.NewEngine()
	for _, tc := range evalCases {
		if tc.wantErr != nil {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			tree, err := e.CreateRule(tc.rule)
			require.NoError(t, err)
			direct, err := e.Evaluate(tree, tc.data)
			require.NoError(t, err)

			b, err := json.Marshal(tree)
			require.NoError(t, err)
			decoded, err := rule.ParseJSON(b)
			require.NoError(t, err)
			viaJSON, err := e.Evaluate(decoded, tc.data)
			require.NoError(t, err)

			var generic map[string]any
			require.NoError(t, json.Unmarshal(b, &generic))
			fromMap, err := rule.FromMap(generic)
			require.NoError(t, err)
			viaMap, err := e.Evaluate(fromMap, tc.data)
			require.NoError(t, err)

			assert.Equal(t, direct, viaJSON)
			assert.Equal(t, direct, viaMap)
		})
	}
}

func TestEngine_Evaluate_MalformedTrees(t *testing.T) {
	tests := []struct {
		name string
		tree *rule.Node
		want error
	}{
		{name: "nil root", tree: nil, want: rule.ErrMalformedTree},
		{name: "missing right", tree: rule.Operator(rule.And, rule.Operand("a"), nil), want: rule.ErrMalformedTree},
		{name: "operand with child", tree: &rule.Node{Kind: rule.KindOperand, Value: "a", Left: rule.Operand("b")}, want: rule.ErrMalformedTree},
		{name: "unknown kind", tree: &rule.Node{Kind: "leaf", Value: "a"}, want: rule.ErrMalformedTree},
		{name: "unknown operator", tree: rule.Operator("~", rule.Operand("a"), rule.Operand("b")), want: rule.ErrUnknownOperator},
	}

	e := rule.NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(tt.tree, map[string]any{"a": 1, "b": 2})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngine_Evaluate_DepthBound(t *testing.T) {
	tree := rule.Operand("a")
	for i := 0; i < 5; i++ {
		tree = rule.Operator(rule.And, tree, rule.Operand("a"))
	}

	_, err := rule.NewEngine(rule.WithMaxDepth(3)).Evaluate(tree, map[string]any{"a": true})
	assert.ErrorIs(t, err, rule.ErrMalformedTree)

	ok, err := rule.NewEngine().Evaluate(tree, map[string]any{"a": true})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_Evaluate_DeepErrorDetailStaysShort(t *testing.T) {
	tree := rule.Operator(rule.Gt, rule.Operand("'x'"), rule.Operand("1"))
	for i := 0; i < 200; i++ {
		tree = rule.Operator(rule.And, tree, rule.Operand("a"))
	}

	_, err := rule.NewEngine().Evaluate(tree, nil)
	require.ErrorIs(t, err, rule.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "root.(192 steps).left.left.left.left.left.left.left.left")
	assert.Less(t, len(err.Error()), 200)

	_, err = rule.NewExprEvaluator(rule.NewEngine(), 4).Evaluate(rule.Operator(rule.And, tree, nil), nil)
	require.ErrorIs(t, err, rule.ErrMalformedTree)
	assert.Less(t, len(err.Error()), 200)
}

func TestEngine_EvaluateWithTrace(t *testing.T) {
	e := rule.NewEngine()
	tree, err := e.CreateRule(ruleMarketing)
	require.NoError(t, err)

	ok, trace, err := e.EvaluateWithTrace(tree, map[string]any{"age": 35, "department": "Marketing"})
	require.NoError(t, err)
	require.NotNil(t, trace)
	assert.True(t, ok)
	assert.True(t, trace.Result)

	paths := make([]string, len(trace.Steps))
	for i, s := range trace.Steps {
		paths[i] = s.Path
	}
	assert.Equal(t, []string{
		"root.left.left", "root.left.right", "root.left",
		"root.right.left", "root.right.right", "root.right",
		"root",
	}, paths)
	assert.Equal(t, 35, trace.Steps[0].Outcome)
	assert.Equal(t, int64(30), trace.Steps[1].Outcome)
	assert.Equal(t, "Marketing", trace.Steps[4].Outcome)
	assert.Equal(t, true, trace.Steps[6].Outcome)
}

func TestEngine_EvaluateWithTrace_KeepsStepsOnError(t *testing.T) {
	e := rule.NewEngine()
	tree, err := e.CreateRule("age > 30 OR department > 5")
	require.NoError(t, err)

	_, trace, err := e.EvaluateWithTrace(tree, map[string]any{"age": 35, "department": "Sales"})
	require.Error(t, err)
	require.NotNil(t, trace)
	assert.Len(t, trace.Steps, 5)
	assert.Contains(t, trace.Error, "type mismatch")
}

func TestResolve(t *testing.T) {
	data := map[string]any{"age": 35, "30": "thirty"}

	assert.Equal(t, 35, rule.Resolve("age", data))
	assert.Equal(t, "thirty", rule.Resolve("30", data))
	assert.Equal(t, "Marketing", rule.Resolve("'Marketing'", data))
	assert.Equal(t, "", rule.Resolve("''", data))
	assert.Equal(t, int64(42), rule.Resolve("42", data))
	assert.Equal(t, 2.5, rule.Resolve("2.5", data))
	assert.Equal(t, "unknown_field", rule.Resolve("unknown_field", data))
	assert.Equal(t, "'", rule.Resolve("'", data))
}

func TestTruthy(t *testing.T) {
	assert.False(t, rule.Truthy(nil))
	assert.False(t, rule.Truthy(false))
	assert.False(t, rule.Truthy(""))
	assert.False(t, rule.Truthy(0))
	assert.False(t, rule.Truthy(0.0))
	assert.True(t, rule.Truthy(true))
	assert.True(t, rule.Truthy("x"))
	assert.True(t, rule.Truthy(uint8(1)))
	assert.True(t, rule.Truthy([]int{}))
}
