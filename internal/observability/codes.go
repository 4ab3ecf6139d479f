package observability

import (
	"errors"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

type codedError struct {
	err  error
	code string
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// WithCode attaches the kind code observers report for err. errors.Is and
// errors.As still see the wrapped error.
func WithCode(err error, code string) error {
	if err == nil || code == "" {
		return err
	}
	return &codedError{err: err, code: code}
}

func errorCode(err error) string {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	if code := rule.Code(err); code != "" {
		return code
	}
	return "internal"
}
