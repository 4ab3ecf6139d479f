package rule

import (
	"errors"
	"fmt"
)

// Sentinel errors for parsing.
var (
	ErrEmptyRule           = errors.New("empty rule")
	ErrMalformedComparison = errors.New("malformed comparison")
	ErrUnknownOperator     = errors.New("unknown operator")
	ErrTooDeep             = errors.New("nesting too deep")
	ErrNotWellFormed       = errors.New("rule string is not well formed")
)

// Sentinel errors for evaluation and decoding.
var (
	ErrMalformedTree = errors.New("malformed tree")
	ErrTypeMismatch  = errors.New("type mismatch")
)

// Sentinel errors for combining.
var (
	ErrNoRulesToCombine              = errors.New("no rules to combine")
	ErrSingleRuleCombineNotSupported = errors.New("single rule combine not supported")
)

// Error carries the stage that detected a failure and a human readable detail.
// Err is always one of the sentinels above.
type Error struct {
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error, format string, args ...any) *Error {
	return &Error{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

var codes = []struct {
	err  error
	code string
}{
	{ErrEmptyRule, "empty_rule"},
	{ErrMalformedComparison, "malformed_comparison"},
	{ErrUnknownOperator, "unknown_operator"},
	{ErrTooDeep, "too_deep"},
	{ErrNotWellFormed, "not_well_formed"},
	{ErrMalformedTree, "malformed_tree"},
	{ErrTypeMismatch, "type_mismatch"},
	{ErrNoRulesToCombine, "no_rules_to_combine"},
	{ErrSingleRuleCombineNotSupported, "single_rule_combine_not_supported"},
}

// Code returns the snake_case kind of a rule error, or "" when err does not
// wrap any of this package's sentinels.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// Stage returns the Op of the first *Error in err's chain.
func Stage(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Op
	}
	return ""
}
