package app

import (
	"errors"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
	"github.com/awmpietro/golang-rule-engine-case/internal/store"
)

// Kind codes for failures that do not come from the rule engine itself.
const (
	CodeRuleTooLarge   = "rule_too_large"
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeInternal       = "internal"
)

// ErrorCode names the kind of err as callers see it: the engine's code for
// rule failures, otherwise the code of the service or store sentinel it wraps.
func ErrorCode(err error) string {
	if code := rule.Code(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, ErrRuleTooLarge):
		return CodeRuleTooLarge
	case errors.Is(err, ErrMissingRule), errors.Is(err, ErrMissingRuleID):
		return CodeInvalidRequest
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
