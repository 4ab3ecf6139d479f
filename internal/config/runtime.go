package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

const (
	EvaluatorTree = "tree"
	EvaluatorExpr = "expr"
)

type Runtime struct {
	HTTPAddr      string `yaml:"http_addr"`
	CacheMaxItems int    `yaml:"cache_max_items"`
	ObsBuffer     int    `yaml:"obs_buffer"`
	MaxRuleLength int    `yaml:"max_rule_length"`
	MaxDepth      int    `yaml:"max_depth"`
	// StorePath selects the SQLite store; empty keeps rules in memory.
	StorePath     string `yaml:"store_path"`
	Evaluator     string `yaml:"evaluator"`
	StrictCombine bool   `yaml:"strict_combine"`
}

func Defaults() Runtime {
	return Runtime{
		HTTPAddr:      ":8080",
		CacheMaxItems: 1024,
		ObsBuffer:     4096,
		MaxRuleLength: 8192,
		MaxDepth:      rule.DefaultMaxDepth,
		Evaluator:     EvaluatorTree,
	}
}

// Load starts from Defaults, applies the YAML file named by RULE_CONFIG_FILE
// when set, then lets environment variables override individual values.
func Load() (Runtime, error) {
	cfg := Defaults()

	if path := os.Getenv("RULE_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Runtime{}, fmt.Errorf("read config file: %w", err)
		}
		if cfg, err = FromYAML(data, cfg); err != nil {
			return Runtime{}, err
		}
	}

	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.CacheMaxItems = getenvInt("RULE_CACHE_MAX_ITEMS", cfg.CacheMaxItems, 1)
	cfg.ObsBuffer = getenvInt("RULE_OBS_BUFFER", cfg.ObsBuffer, 1)
	cfg.MaxRuleLength = getenvInt("RULE_MAX_LENGTH", cfg.MaxRuleLength, 1)
	cfg.MaxDepth = getenvInt("RULE_MAX_DEPTH", cfg.MaxDepth, 1)
	cfg.StorePath = getenv("RULE_STORE_PATH", cfg.StorePath)
	cfg.Evaluator = getenv("RULE_EVALUATOR", cfg.Evaluator)
	cfg.StrictCombine = getenvBool("RULE_STRICT_COMBINE", cfg.StrictCombine)

	if err := cfg.Validate(); err != nil {
		return Runtime{}, err
	}
	return cfg, nil
}

// FromYAML decodes data over base; keys missing from data keep base's values.
func FromYAML(data []byte, base Runtime) (Runtime, error) {
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Runtime{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

func (r Runtime) Validate() error {
	switch r.Evaluator {
	case EvaluatorTree, EvaluatorExpr:
	default:
		return fmt.Errorf("unknown evaluator %q (want %q or %q)", r.Evaluator, EvaluatorTree, EvaluatorExpr)
	}
	for name, v := range map[string]int{
		"cache_max_items": r.CacheMaxItems,
		"obs_buffer":      r.ObsBuffer,
		"max_rule_length": r.MaxRuleLength,
		"max_depth":       r.MaxDepth,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be positive (got %d)", name, v)
		}
	}
	if r.MaxDepth > rule.DefaultMaxDepth {
		return fmt.Errorf("max_depth must be at most %d (got %d)", rule.DefaultMaxDepth, r.MaxDepth)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
