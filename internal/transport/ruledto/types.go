package ruledto

import "github.com/awmpietro/golang-rule-engine-case/internal/rule"

type CreateRuleRequest struct {
	Rule string `json:"rule"`
}

type CombineRulesRequest struct {
	Rules []string `json:"rules"`
}

// RuleResponse answers create_rule and combine_rules. RuleID is only set for
// combined rules, which are saved.
type RuleResponse struct {
	Message string     `json:"message"`
	Rule    *rule.Node `json:"rule"`
	RuleID  string     `json:"rule_id,omitempty"`
}

// EvaluateRequest carries either an inline tree or the id of a saved one.
type EvaluateRequest struct {
	Rule   *rule.Node     `json:"rule,omitempty"`
	RuleID string         `json:"rule_id,omitempty"`
	Data   map[string]any `json:"data"`
	Debug  bool           `json:"debug,omitempty"`
}

type EvaluateResponse struct {
	Result bool        `json:"result"`
	Trace  *rule.Trace `json:"trace,omitempty"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}

type RenderResponse struct {
	DOT string `json:"dot"`
}

type RulesResponse struct {
	Rules []*rule.Node `json:"rules"`
}

type ErrorResponse struct {
	Error   string      `json:"error"`
	Details string      `json:"details"`
	Trace   *rule.Trace `json:"trace,omitempty"`
}
