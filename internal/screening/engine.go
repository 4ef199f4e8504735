// Package screening provides the CEL-Go based pre-classification
// screening engine. Screening rules attach compliance risk factors to a
// transfer and can force borderline transfers into review.
package screening

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/harrier/internal/domain"
)

// Engine is the CEL-based screening engine. Rules are evaluated in
// load order so the risk factors they contribute keep a stable order.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled []*CompiledRule
	index    map[string]int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.ScreeningRule
	Program cel.Program
}

// Match is the outcome of one triggered screening rule.
type Match struct {
	RuleID     string
	RuleName   string
	RiskFactor string
	Escalate   bool
}

// NewEngine creates a screening engine with the transfer variables
// available to rule expressions.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("beneficiary_country", cel.StringType),
		cel.Variable("transfer_type", cel.StringType),
		cel.Variable("transfer_channel", cel.StringType),
		cel.Variable("ml_score", cel.DoubleType),
		cel.Variable("velocity_flag", cel.BoolType),
		cel.Variable("amount_anomaly", cel.BoolType),
		cel.Variable("geo_anomaly", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:   env,
		index: make(map[string]int),
	}, nil
}

// ValidateRule compiles a rule without loading it.
func (e *Engine) ValidateRule(cfg *domain.ScreeningRule) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a rule, replacing any previous version
// with the same id.
func (e *Engine) LoadRule(cfg *domain.ScreeningRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	if pos, ok := e.index[cfg.ID]; ok {
		e.compiled[pos] = compiled
		return nil
	}

	e.index[cfg.ID] = len(e.compiled)
	e.compiled = append(e.compiled, compiled)
	return nil
}

// LoadRules compiles and loads multiple rules, skipping disabled ones.
func (e *Engine) LoadRules(configs []*domain.ScreeningRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules clears all existing rules and loads new ones. This
// enables hot-reloading of rules from the database.
func (e *Engine) ReloadRules(configs []*domain.ScreeningRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var compiled []*CompiledRule
	index := make(map[string]int)

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		c, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		index[cfg.ID] = len(compiled)
		compiled = append(compiled, c)
	}

	e.compiled = compiled
	e.index = index
	return nil
}

// Evaluate runs all loaded rules against the transfer and returns the
// matches in rule load order. A rule that fails to evaluate is skipped;
// screening never blocks the pipeline.
func (e *Engine) Evaluate(ctx context.Context, t *domain.Transfer) []Match {
	e.mu.RLock()
	rules := make([]*CompiledRule, len(e.compiled))
	copy(rules, e.compiled)
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	activation := map[string]any{
		"amount":              t.Amount,
		"currency":            t.Currency,
		"beneficiary_country": t.BeneficiaryCountry,
		"transfer_type":       t.TransferType,
		"transfer_channel":    t.TransferChannel,
		"ml_score":            t.MLScore,
		"velocity_flag":       t.VelocityFlag,
		"amount_anomaly":      t.AmountAnomaly,
		"geo_anomaly":         t.GeoAnomaly,
	}

	var matches []Match
	for _, rule := range rules {
		out, _, err := rule.Program.Eval(activation)
		if err != nil {
			continue
		}
		if b, ok := out.(types.Bool); ok && bool(b) {
			matches = append(matches, Match{
				RuleID:     rule.Config.ID,
				RuleName:   rule.Config.Name,
				RiskFactor: rule.Config.RiskFactor,
				Escalate:   rule.Config.Escalate,
			})
		}
	}

	return matches
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// LoadedRules returns the currently loaded rule configurations in load
// order.
func (e *Engine) LoadedRules() []*domain.ScreeningRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.ScreeningRule, 0, len(e.compiled))
	for _, c := range e.compiled {
		rules = append(rules, c.Config)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = nil
	e.index = make(map[string]int)
	return nil
}

func (e *Engine) compileRule(cfg *domain.ScreeningRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{Config: cfg, Program: program}, nil
}
