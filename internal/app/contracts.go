package app

import (
	"context"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

// RuleService is what the transports need from Service.
type RuleService interface {
	CreateRule(ctx context.Context, ruleString string) (*rule.Node, error)
	CombineRules(ctx context.Context, rules []string) (*rule.Node, string, error)
	EvaluateRule(ctx context.Context, tree *rule.Node, data map[string]any) (bool, error)
	EvaluateRuleWithTrace(ctx context.Context, tree *rule.Node, data map[string]any) (bool, *rule.Trace, error)
	EvaluateStored(ctx context.Context, id string, data map[string]any, debug bool) (bool, *rule.Trace, error)
	FetchRules(ctx context.Context, ids []string) ([]*rule.Node, error)
	ValidateRule(ctx context.Context, ruleString string) bool
	RenderRule(ctx context.Context, ruleString string) (string, error)
}

var _ RuleService = (*Service)(nil)
