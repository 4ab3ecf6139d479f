package ruledto

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/awmpietro/golang-rule-engine-case/internal/app"
	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

// Request is the transport-neutral view of an incoming call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

type Response struct {
	Status int
	Body   any
}

type route struct {
	method string
	handle func(ctx context.Context, svc app.RuleService, req Request) Response
}

var routes = map[string]route{
	"/create_rule":   {method: http.MethodPost, handle: createRule},
	"/combine_rules": {method: http.MethodPost, handle: combineRules},
	"/evaluate_rule": {method: http.MethodPost, handle: evaluateRule},
	"/validate_rule": {method: http.MethodPost, handle: validateRule},
	"/render_rule":   {method: http.MethodPost, handle: renderRule},
	"/rules":         {method: http.MethodGet, handle: fetchRules},
}

// Paths lists every routed path, sorted.
func Paths() []string {
	out := make([]string, 0, len(routes))
	for p := range routes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Dispatch routes req to its use case and shapes the answer.
func Dispatch(ctx context.Context, svc app.RuleService, req Request) Response {
	rt, ok := routes[req.Path]
	if !ok {
		return Response{Status: http.StatusNotFound, Body: ErrorResponse{Error: CodeNotFound, Details: "no route for " + req.Path}}
	}
	if req.Method != rt.method {
		return Response{Status: http.StatusMethodNotAllowed, Body: ErrorResponse{Error: CodeMethodNotAllowed, Details: "method not allowed"}}
	}
	return rt.handle(ctx, svc, req)
}

func createRule(ctx context.Context, svc app.RuleService, req Request) Response {
	var in CreateRuleRequest
	if resp, ok := decode(req.Body, &in); !ok {
		return resp
	}

	tree, err := svc.CreateRule(ctx, in.Rule)
	if err != nil {
		return fail(err, nil)
	}
	return Response{Status: http.StatusOK, Body: RuleResponse{Message: "Rule created successfully", Rule: tree}}
}

func combineRules(ctx context.Context, svc app.RuleService, req Request) Response {
	var in CombineRulesRequest
	if resp, ok := decode(req.Body, &in); !ok {
		return resp
	}

	tree, id, err := svc.CombineRules(ctx, in.Rules)
	if err != nil {
		return fail(err, nil)
	}
	return Response{Status: http.StatusOK, Body: RuleResponse{Message: "Rules combined successfully", Rule: tree, RuleID: id}}
}

func evaluateRule(ctx context.Context, svc app.RuleService, req Request) Response {
	var in EvaluateRequest
	if resp, ok := decode(req.Body, &in); !ok {
		return resp
	}

	var (
		result bool
		tr     *rule.Trace
		err    error
	)
	switch {
	case in.Rule != nil && in.RuleID != "":
		return Response{Status: http.StatusBadRequest, Body: ErrorResponse{Error: CodeInvalidRequest, Details: "send either rule or rule_id, not both"}}
	case in.RuleID != "":
		result, tr, err = svc.EvaluateStored(ctx, in.RuleID, in.Data, in.Debug)
	case in.Debug:
		result, tr, err = svc.EvaluateRuleWithTrace(ctx, in.Rule, in.Data)
	default:
		result, err = svc.EvaluateRule(ctx, in.Rule, in.Data)
	}
	if err != nil {
		return fail(err, tr)
	}
	return Response{Status: http.StatusOK, Body: EvaluateResponse{Result: result, Trace: tr}}
}

func validateRule(ctx context.Context, svc app.RuleService, req Request) Response {
	var in CreateRuleRequest
	if resp, ok := decode(req.Body, &in); !ok {
		return resp
	}
	return Response{Status: http.StatusOK, Body: ValidateResponse{Valid: svc.ValidateRule(ctx, in.Rule)}}
}

func renderRule(ctx context.Context, svc app.RuleService, req Request) Response {
	var in CreateRuleRequest
	if resp, ok := decode(req.Body, &in); !ok {
		return resp
	}

	dot, err := svc.RenderRule(ctx, in.Rule)
	if err != nil {
		return fail(err, nil)
	}
	return Response{Status: http.StatusOK, Body: RenderResponse{DOT: dot}}
}

func fetchRules(ctx context.Context, svc app.RuleService, req Request) Response {
	var ids []string
	for _, raw := range req.Query["ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	trees, err := svc.FetchRules(ctx, ids)
	if err != nil {
		return fail(err, nil)
	}
	return Response{Status: http.StatusOK, Body: RulesResponse{Rules: trees}}
}

// decode reports ok=false with a ready error response when body does not fit
// v. Malformed trees keep their own kind instead of invalid_json.
func decode(body []byte, v any) (Response, bool) {
	if err := json.Unmarshal(body, v); err != nil {
		if rule.Code(err) != "" {
			return fail(err, nil), false
		}
		return Response{Status: http.StatusBadRequest, Body: ErrorResponse{Error: CodeInvalidJSON, Details: err.Error()}}, false
	}
	return Response{}, true
}

func fail(err error, tr *rule.Trace) Response {
	status, body := ErrorBody(err, tr)
	return Response{Status: status, Body: body}
}
