// Package formula is a closed, non-Turing-complete expression language for
// deriving line amounts. It supports decimal literals, named references,
// arithmetic, comparisons and a conditional form (`a if cond else b`).
// There are no loops, no function calls and no host access: names resolve
// only against the symbol table passed to Eval, and every number is an
// exact base-10 decimal.
package formula

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownName    = errors.New("unknown name")
	ErrDivisionByZero = errors.New("division by zero")
)

// Expr is one node of the expression tree.
type Expr interface {
	Eval(symbols map[string]decimal.Decimal) (decimal.Decimal, error)
}

// Literal is an exact decimal constant.
type Literal struct {
	Value decimal.Decimal
}

func (l Literal) Eval(map[string]decimal.Decimal) (decimal.Decimal, error) {
	return l.Value, nil
}

// Ref resolves a name from the symbol table. A missing name is an error,
// never a silent zero.
type Ref struct {
	Name string
}

func (r Ref) Eval(symbols map[string]decimal.Decimal) (decimal.Decimal, error) {
	value, ok := symbols[r.Name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownName, r.Name)
	}
	return value, nil
}

// Unary is arithmetic negation.
type Unary struct {
	Operand Expr
}

func (u Unary) Eval(symbols map[string]decimal.Decimal) (decimal.Decimal, error) {
	value, err := u.Operand.Eval(symbols)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Neg(), nil
}

// Binary applies an arithmetic or comparison operator. Comparisons yield
// decimal 1 or 0.
type Binary struct {
	Op          string
	Left, Right Expr
}

func (b Binary) Eval(symbols map[string]decimal.Decimal) (decimal.Decimal, error) {
	left, err := b.Left.Eval(symbols)
	if err != nil {
		return decimal.Zero, err
	}
	right, err := b.Right.Eval(symbols)
	if err != nil {
		return decimal.Zero, err
	}

	switch b.Op {
	case "+":
		return left.Add(right), nil
	case "-":
		return left.Sub(right), nil
	case "*":
		return left.Mul(right), nil
	case "/":
		if right.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		return left.Div(right), nil
	case "<":
		return boolean(left.Cmp(right) < 0), nil
	case "<=":
		return boolean(left.Cmp(right) <= 0), nil
	case ">":
		return boolean(left.Cmp(right) > 0), nil
	case ">=":
		return boolean(left.Cmp(right) >= 0), nil
	case "==":
		return boolean(left.Cmp(right) == 0), nil
	case "!=":
		return boolean(left.Cmp(right) != 0), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported operator %q", b.Op)
	}
}

// Conditional is the `then if cond else else` form. Only the taken branch
// is evaluated, after the condition.
type Conditional struct {
	Cond, Then, Else Expr
}

func (c Conditional) Eval(symbols map[string]decimal.Decimal) (decimal.Decimal, error) {
	cond, err := c.Cond.Eval(symbols)
	if err != nil {
		return decimal.Zero, err
	}
	if !cond.IsZero() {
		return c.Then.Eval(symbols)
	}
	return c.Else.Eval(symbols)
}

func boolean(v bool) decimal.Decimal {
	if v {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}
