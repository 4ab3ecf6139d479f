package app

import (
	"fmt"
	"log"

	"github.com/awmpietro/golang-rule-engine-case/internal/config"
	"github.com/awmpietro/golang-rule-engine-case/internal/observability"
	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
	"github.com/awmpietro/golang-rule-engine-case/internal/rule/cache"
	"github.com/awmpietro/golang-rule-engine-case/internal/store"
)

// NewFromConfig builds the service the binaries run: engine and evaluator
// per cfg, the parsed-tree cache, the store (SQLite when StorePath is set),
// latency logging behind the async observer, OTel metrics and spans on the
// global providers. The returned close func flushes and releases all of it.
func NewFromConfig(cfg config.Runtime, logger *log.Logger) (*Service, func() error, error) {
	if logger == nil {
		logger = log.Default()
	}
	engineOpts := []rule.Option{rule.WithMaxDepth(cfg.MaxDepth)}
	if cfg.StrictCombine {
		engineOpts = append(engineOpts, rule.WithStrictCombine())
	}
	engine := rule.NewEngine(engineOpts...)

	var evaluator rule.Evaluator = engine
	if cfg.Evaluator == config.EvaluatorExpr {
		evaluator = rule.NewExprEvaluator(engine, cfg.CacheMaxItems)
	}

	var st store.Store
	if cfg.StorePath != "" {
		sqlite, err := store.NewSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open rule store: %w", err)
		}
		st = sqlite
	} else {
		st = store.NewMemoryStore()
	}

	async := observability.NewAsyncObserver(observability.NewLatencyLogger(logger), cfg.ObsBuffer)
	observers := observability.Multi{async}
	if metrics, err := observability.NewMetrics(nil); err != nil {
		logger.Printf("metrics_disabled error=%q", err.Error())
	} else {
		observers = append(observers, metrics)
	}

	svc := NewService(engine, evaluator, cache.NewInMemory[*rule.Node](cfg.CacheMaxItems), st,
		WithObserver(observers),
		WithTracer(observability.NewTracer(nil)),
		WithMaxRuleLength(cfg.MaxRuleLength),
	)

	closeFn := func() error {
		async.Close()
		if n := async.Dropped(); n > 0 {
			logger.Printf("rule_op_latency_dropped count=%d", n)
		}
		return st.Close()
	}
	return svc, closeFn, nil
}
