// Tests in this package use the standard testing package and t.Fatalf.

package integration_test

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

type ruleCase struct {
	Name  string         `yaml:"name"`
	Rule  string         `yaml:"rule"`
	Data  map[string]any `yaml:"data"`
	Want  bool           `yaml:"want"`
	Error string         `yaml:"error"`
}

func loadCases(t *testing.T) []ruleCase {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "cases.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var cases []ruleCase
	if err := yaml.Unmarshal(raw, &cases); err != nil {
		t.Fatal(err)
	}
	if len(cases) == 0 {
		t.Fatalf("no cases in testdata")
	}
	return cases
}

func TestRuleCases_BothEvaluators(t *testing.T) {
	engine := rule.NewEngine()
	evaluators := map[string]rule.Evaluator{
		"tree": engine,
		"expr": rule.NewExprEvaluator(engine, 64),
	}

	for _, tc := range loadCases(t) {
		tree, err := engine.CreateRule(tc.Rule)
		if err != nil {
			t.Fatalf("%s: create rule: %v", tc.Name, err)
		}
		for name, ev := range evaluators {
			t.Run(tc.Name+"/"+name, func(t *testing.T) {
				got, err := ev.Evaluate(tree, tc.Data)
				if tc.Error != "" {
					if rule.Code(err) != tc.Error {
						t.Fatalf("expected %s, got %v", tc.Error, err)
					}
					return
				}
				if err != nil {
					t.Fatal(err)
				}
				if got != tc.Want {
					t.Fatalf("expected %v, got %v", tc.Want, got)
				}
			})
		}
	}
}

func TestRuleCases_SurviveSerialization(t *testing.T) {
	engine := rule.NewEngine()
	for _, tc := range loadCases(t) {
		tree, err := engine.CreateRule(tc.Rule)
		if err != nil {
			t.Fatal(err)
		}
		b, err := tree.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		back, err := rule.ParseJSON(b)
		if err != nil {
			t.Fatal(err)
		}
		if !tree.Equal(back) {
			t.Fatalf("%s: tree changed through json: %s vs %s", tc.Name, tree, back)
		}
	}
}
