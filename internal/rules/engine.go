// Package rules evaluates an ordered set of named formulas over decimal
// inputs and turns the non-zero results into ledger lines.
package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/bookscan/internal/domain"
	"github.com/iho/bookscan/internal/formula"
)

// EvaluationError identifies the rule whose formula failed. It aborts
// generation for that single rule-set invocation only.
type EvaluationError struct {
	RuleSet string
	Rule    string
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule set %s: rule %s: %v", e.RuleSet, e.Rule, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Engine resolves rule formulas over a mutable symbol table.
//
// Rules are evaluated in one fixed pass: (order ascending, code ascending).
// This is a deliberate design choice, not a dependency solver. A formula
// referencing a later rule's code sees that rule's placeholder value (0)
// unless the name was supplied as an external input.
type Engine struct{}

// NewEngine creates a rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute evaluates every rule of the set and returns code -> value.
//
// External inputs take precedence as literal values: a rule whose code was
// supplied externally keeps that value unmodified and its formula is never
// evaluated. All other rules evaluate their formula (or stay 0 without
// one), then have their declared polarity applied before the value is
// stored back, so later rules see the signed value.
func (e *Engine) Compute(rs *domain.RuleSet, inputs map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	rules := rs.OrderedRules()

	symbols := make(map[string]decimal.Decimal, len(rules)+len(inputs))
	for _, rule := range rules {
		symbols[rule.Code] = decimal.Zero
	}
	for name, value := range inputs {
		symbols[name] = value
	}

	for _, rule := range rules {
		if _, external := inputs[rule.Code]; external {
			continue
		}

		value := symbols[rule.Code]
		if rule.Formula != "" {
			expr, err := formula.Parse(rule.Formula)
			if err != nil {
				return nil, &EvaluationError{RuleSet: rs.Code, Rule: rule.Code, Err: err}
			}
			value, err = expr.Eval(symbols)
			if err != nil {
				return nil, &EvaluationError{RuleSet: rs.Code, Rule: rule.Code, Err: err}
			}
		}

		symbols[rule.Code] = applyPolarity(rule, value)
	}

	result := make(map[string]decimal.Decimal, len(rules))
	for _, rule := range rules {
		result[rule.Code] = symbols[rule.Code]
	}
	return result, nil
}

// Lines computes the rule set and emits one line per non-zero rule, in
// evaluation order, pairing the rule's target account with its amount.
func (e *Engine) Lines(rs *domain.RuleSet, move *domain.Move, inputs map[string]decimal.Decimal) ([]*domain.Line, error) {
	result, err := e.Compute(rs, inputs)
	if err != nil {
		return nil, err
	}

	var lines []*domain.Line
	for _, rule := range rs.OrderedRules() {
		amount := result[rule.Code]
		if amount.IsZero() {
			continue
		}
		lines = append(lines, &domain.Line{
			MoveID:  move.ID,
			Account: rule.Account,
			Amount:  amount,
		})
	}
	return lines, nil
}

// applyPolarity re-signs a computed value against the rule's declared
// polarity: the magnitude is positive when the target account's own
// polarity matches the declaration, negative otherwise.
func applyPolarity(rule *domain.LineRule, value decimal.Decimal) decimal.Decimal {
	if rule.Polarity == domain.PolarityNone {
		return value
	}

	magnitude := value.Abs()
	if rule.Account != nil && rule.Account.Polarity == rule.Polarity {
		return magnitude
	}
	return magnitude.Neg()
}
