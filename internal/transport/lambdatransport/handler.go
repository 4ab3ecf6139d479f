package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/awmpietro/golang-rule-engine-case/internal/app"
	"github.com/awmpietro/golang-rule-engine-case/internal/transport/ruledto"
)

type Handler struct {
	svc app.RuleService
}

func NewHandler(svc app.RuleService) *Handler {
	return &Handler{svc: svc}
}

// Handle routes an API Gateway v2 HTTP event by its raw path. A stage prefix
// such as /prod is stripped.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, ruledto.ErrorResponse{Error: ruledto.CodeInvalidJSON, Details: err.Error()}), nil
	}

	method := req.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodPost
	}

	resp := ruledto.Dispatch(ctx, h.svc, ruledto.Request{
		Method: method,
		Path:   routePath(req),
		Query:  query(req),
		Body:   body,
	})
	return jsonResp(resp.Status, resp.Body), nil
}

func routePath(req events.APIGatewayV2HTTPRequest) string {
	path := req.RawPath
	if path == "" {
		path = req.RequestContext.HTTP.Path
	}
	if stage := req.RequestContext.Stage; stage != "" && stage != "$default" {
		path = strings.TrimPrefix(path, "/"+stage)
	}
	return path
}

func query(req events.APIGatewayV2HTTPRequest) url.Values {
	if req.RawQueryString != "" {
		if q, err := url.ParseQuery(req.RawQueryString); err == nil {
			return q
		}
	}
	q := url.Values{}
	for k, v := range req.QueryStringParameters {
		q.Set(k, v)
	}
	return q
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
