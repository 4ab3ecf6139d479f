package ruledto

import (
	"errors"
	"net/http"

	"github.com/awmpietro/golang-rule-engine-case/internal/app"
	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

const (
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidRequest   = app.CodeInvalidRequest
	CodeRuleTooLarge     = app.CodeRuleTooLarge
	CodeNotFound         = app.CodeNotFound
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternal         = app.CodeInternal
)

// ErrorStatus maps an error to its HTTP status and kind code. Codes come
// from app.ErrorCode, the same mapping the service reports to observers.
func ErrorStatus(err error) (int, string) {
	code := app.ErrorCode(err)
	switch code {
	case CodeRuleTooLarge, CodeInvalidRequest:
		return http.StatusBadRequest, code
	case CodeNotFound:
		return http.StatusNotFound, code
	case CodeInternal:
		return http.StatusInternalServerError, code
	}

	switch {
	case errors.Is(err, rule.ErrMalformedTree), errors.Is(err, rule.ErrTypeMismatch):
		return http.StatusUnprocessableEntity, code
	case errors.Is(err, rule.ErrUnknownOperator) && rule.Stage(err) != "parse":
		return http.StatusUnprocessableEntity, code
	default:
		return http.StatusBadRequest, code
	}
}

func ErrorBody(err error, tr *rule.Trace) (int, ErrorResponse) {
	status, code := ErrorStatus(err)
	return status, ErrorResponse{Error: code, Details: err.Error(), Trace: tr}
}
