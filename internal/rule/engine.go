// internal/rule/engine.go
package rule

type comparison func(left, right any) (bool, error)

type connective func(left, right bool) bool

// Engine parses, combines and evaluates rules. Its tables and options are
// fixed by NewEngine, so one Engine can be shared by any number of goroutines.
type Engine struct {
	comparisons   map[Symbol]comparison
	connectives   map[Symbol]connective
	maxDepth      int
	strictCombine bool
}

type Option func(*Engine)

// WithMaxDepth bounds bracket nesting, connective chains and tree depth.
// Values above DefaultMaxDepth are capped to it.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = min(depth, DefaultMaxDepth)
		}
	}
}

// WithStrictCombine makes CombineRules reject a single input rule instead of
// returning a root with only a left child.
func WithStrictCombine() Option {
	return func(e *Engine) {
		e.strictCombine = true
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		comparisons: map[Symbol]comparison{
			Eq: equals,
			Ne: func(l, r any) (bool, error) {
				eq, err := equals(l, r)
				return !eq, err
			},
			Gt: ordered(func(c int) bool { return c > 0 }),
			Lt: ordered(func(c int) bool { return c < 0 }),
			Ge: ordered(func(c int) bool { return c >= 0 }),
			Le: ordered(func(c int) bool { return c <= 0 }),
		},
		connectives: map[Symbol]connective{
			And: func(l, r bool) bool { return l && r },
			Or:  func(l, r bool) bool { return l || r },
		},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ordered(test func(c int) bool) comparison {
	return func(l, r any) (bool, error) {
		c, err := order(l, r)
		if err != nil {
			return false, err
		}
		return test(c), nil
	}
}
