package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/awmpietro/golang-rule-engine-case/internal/observability"
	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
	"github.com/awmpietro/golang-rule-engine-case/internal/store"
)

var (
	ErrRuleTooLarge  = errors.New("rule string too large")
	ErrMissingRule   = errors.New("rule or rule_id is required")
	ErrMissingRuleID = errors.New("at least one rule id is required")
)

const (
	opCreateRule   = "create_rule"
	opCombineRules = "combine_rules"
	opEvaluateRule = "evaluate_rule"
	opEvaluateByID = "evaluate_stored"
	opFetchRules   = "fetch_rules"
	opValidateRule = "validate_rule"
	opRenderRule   = "render_rule"
)

// Engine builds trees from rule strings and evaluates them with a step trace.
type Engine interface {
	CreateRule(ruleString string) (*rule.Node, error)
	CombineRules(rules []string) (*rule.Node, error)
	EvaluateWithTrace(tree *rule.Node, data map[string]any) (bool, *rule.Trace, error)
}

type Cache interface {
	GetOrCompute(ruleString string, fn func() (*rule.Node, error)) (*rule.Node, error)
}

type Service struct {
	engine        Engine
	evaluator     rule.Evaluator
	cache         Cache
	store         store.Store
	observer      observability.Observer
	tracer        *observability.Tracer
	maxRuleLength int
}

type Option func(*Service)

func WithObserver(o observability.Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithTracer(t *observability.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMaxRuleLength bounds the byte length of accepted rule strings; n <= 0
// removes the bound.
func WithMaxRuleLength(n int) Option {
	return func(s *Service) {
		s.maxRuleLength = n
	}
}

// NewService wires the use cases. evaluator answers EvaluateRule; traces
// always come from engine's tree walker.
func NewService(engine Engine, evaluator rule.Evaluator, cache Cache, st store.Store, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		evaluator: evaluator,
		cache:     cache,
		store:     st,
		observer:  observability.Noop{},
		tracer:    observability.NoopTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRule parses (cached) a rule string. The returned tree is the
// caller's to keep.
func (s *Service) CreateRule(ctx context.Context, ruleString string) (tree *rule.Node, err error) {
	_, done := s.begin(ctx, opCreateRule, attribute.Int("rule.length", len(ruleString)))
	defer func() { done(err) }()

	return s.parse(ruleString)
}

// CombineRules merges the rules into one tree and saves it.
func (s *Service) CombineRules(ctx context.Context, rules []string) (tree *rule.Node, id string, err error) {
	ctx, done := s.begin(ctx, opCombineRules, attribute.Int("rules.count", len(rules)))
	defer func() { done(err) }()

	for i, r := range rules {
		if err := s.checkLength(r); err != nil {
			return nil, "", fmt.Errorf("rule %d: %w", i, err)
		}
	}

	tree, err = s.engine.CombineRules(rules)
	if err != nil {
		return nil, "", err
	}

	id, err = s.store.Save(ctx, tree)
	if err != nil {
		return nil, "", fmt.Errorf("save combined rule: %w", err)
	}
	return tree, id, nil
}

func (s *Service) EvaluateRule(ctx context.Context, tree *rule.Node, data map[string]any) (result bool, err error) {
	_, done := s.begin(ctx, opEvaluateRule)
	defer func() { done(err) }()

	if tree == nil {
		return false, ErrMissingRule
	}
	return s.evaluator.Evaluate(tree, data)
}

// EvaluateRuleWithTrace returns the trace even when evaluation fails.
func (s *Service) EvaluateRuleWithTrace(ctx context.Context, tree *rule.Node, data map[string]any) (result bool, tr *rule.Trace, err error) {
	_, done := s.begin(ctx, opEvaluateRule, attribute.Bool("debug", true))
	defer func() { done(err) }()

	if tree == nil {
		return false, nil, ErrMissingRule
	}
	return s.engine.EvaluateWithTrace(tree, data)
}

// EvaluateStored loads a saved tree by id and evaluates it, with a trace
// when debug is set.
func (s *Service) EvaluateStored(ctx context.Context, id string, data map[string]any, debug bool) (result bool, tr *rule.Trace, err error) {
	ctx, done := s.begin(ctx, opEvaluateByID, attribute.String("rule.id", id), attribute.Bool("debug", debug))
	defer func() { done(err) }()

	if id == "" {
		return false, nil, ErrMissingRule
	}
	tree, err := s.store.Get(ctx, id)
	if err != nil {
		return false, nil, fmt.Errorf("load rule %s: %w", id, err)
	}

	if debug {
		return s.engine.EvaluateWithTrace(tree, data)
	}
	result, err = s.evaluator.Evaluate(tree, data)
	return result, nil, err
}

// FetchRules returns saved trees in id order; unknown ids are skipped.
func (s *Service) FetchRules(ctx context.Context, ids []string) (trees []*rule.Node, err error) {
	ctx, done := s.begin(ctx, opFetchRules, attribute.Int("rules.count", len(ids)))
	defer func() { done(err) }()

	if len(ids) == 0 {
		return nil, ErrMissingRuleID
	}
	trees, err = s.store.FetchMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch rules: %w", err)
	}
	return trees, nil
}

func (s *Service) ValidateRule(ctx context.Context, ruleString string) bool {
	_, done := s.begin(ctx, opValidateRule, attribute.Int("rule.length", len(ruleString)))
	defer done(nil)

	return rule.LooksWellFormed(ruleString)
}

// RenderRule parses the rule and renders it as a Graphviz digraph.
func (s *Service) RenderRule(ctx context.Context, ruleString string) (dot string, err error) {
	_, done := s.begin(ctx, opRenderRule, attribute.Int("rule.length", len(ruleString)))
	defer func() { done(err) }()

	tree, err := s.parse(ruleString)
	if err != nil {
		return "", err
	}
	return rule.ToDOT(tree)
}

func (s *Service) parse(ruleString string) (*rule.Node, error) {
	if err := s.checkLength(ruleString); err != nil {
		return nil, err
	}
	if err := rule.CheckWellFormed(ruleString); err != nil {
		return nil, err
	}

	tree, err := s.cache.GetOrCompute(ruleString, func() (*rule.Node, error) {
		return s.engine.CreateRule(ruleString)
	})
	if err != nil {
		return nil, err
	}
	return tree.Clone(), nil
}

func (s *Service) checkLength(ruleString string) error {
	if s.maxRuleLength > 0 && len(ruleString) > s.maxRuleLength {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrRuleTooLarge, len(ruleString), s.maxRuleLength)
	}
	return nil
}

func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op, attrs...)
	return ctx, func(err error) {
		if err != nil {
			err = observability.WithCode(err, ErrorCode(err))
		}
		observability.End(span, err)
		s.observer.ObserveOperation(op, time.Since(start), err)
	}
}
