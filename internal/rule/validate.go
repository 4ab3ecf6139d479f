package rule

import (
	"regexp"
	"strings"
)

var (
	validateTokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+|[<>=!]+`)

	recognized = map[string]struct{}{
		"AND": {}, "OR": {}, "=": {}, "!=": {}, ">": {}, "<": {}, ">=": {}, "<=": {},
	}
)

// LooksWellFormed is a cheap advisory check run before parsing. It only
// compares the counts of "(" and ")" (so ")(" passes) and rejects connectives
// or comparison operators that start or end the rule or sit next to another
// one. Passing it does not mean the rule parses.
func LooksWellFormed(rule string) bool {
	if strings.Count(rule, "(") != strings.Count(rule, ")") {
		return false
	}

	tokens := validateTokenRe.FindAllString(rule, -1)
	for i, tok := range tokens {
		if !isRecognized(tok) {
			continue
		}
		if i == 0 || i == len(tokens)-1 {
			return false
		}
		if isRecognized(tokens[i-1]) || isRecognized(tokens[i+1]) {
			return false
		}
	}
	return true
}

func isRecognized(tok string) bool {
	_, ok := recognized[tok]
	return ok
}

// CheckWellFormed is LooksWellFormed returning ErrNotWellFormed on failure.
func CheckWellFormed(rule string) error {
	if !LooksWellFormed(rule) {
		return newError("validate", ErrNotWellFormed, "%q", rule)
	}
	return nil
}
