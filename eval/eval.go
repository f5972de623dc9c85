// Package eval implements FormCalc's tree-walking evaluator: operator
// semantics, coercions, and statement execution over a parsed formula
// body. An Evaluator instance is single-threaded per call but holds
// only read references to its caches, so many Evaluators may run
// concurrently against the same engine state.
package eval

import (
	"math"

	"github.com/nexuscrm/formcalc/ast"
	"github.com/nexuscrm/formcalc/cache"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/funcreg"
	"github.com/nexuscrm/formcalc/value"
)

// Evaluator walks one formula's AST against a fixed set of shared,
// read-only caches.
type Evaluator struct {
	formula   string
	variables *cache.Store[value.Value]
	functions *funcreg.Registry
}

func New(formula string, variables *cache.Store[value.Value], functions *funcreg.Registry) *Evaluator {
	return &Evaluator{formula: formula, variables: variables, functions: functions}
}

// Run executes block to completion and returns its Return value, or
// MissingReturn if control falls off the end without one.
func (e *Evaluator) Run(block ast.Block) (value.Value, error) {
	v, ok, err := e.execBlock(block)
	if err != nil {
		return value.NullValue(), e.attribute(err)
	}
	if !ok {
		return value.NullValue(), e.attribute(errors.New(errors.MissingReturn, "", "formula body did not reach a return statement"))
	}
	return v, nil
}

func (e *Evaluator) attribute(err error) error {
	if fe, ok := err.(*errors.FormulaError); ok && fe.Formula == "" {
		return fe.WithFormula(e.formula)
	}
	return err
}

// execBlock runs stmts in order; ok is true iff a Return was reached.
func (e *Evaluator) execBlock(block ast.Block) (value.Value, bool, error) {
	for _, stmt := range block {
		switch s := stmt.(type) {
		case ast.Return:
			v, err := e.evalExpr(s.Expr)
			if err != nil {
				return value.NullValue(), false, err
			}
			return v, true, nil

		case ast.If:
			cond, err := e.evalExpr(s.Cond)
			if err != nil {
				return value.NullValue(), false, err
			}
			if cond.Kind() != value.Boolean {
				return value.NullValue(), false, errors.New(errors.TypeError, "", "if-condition must be Boolean")
			}
			if cond.Bool() {
				return e.execBlock(s.Then)
			}
			if s.Else != nil {
				return e.execBlock(s.Else)
			}
			// no branch taken; continue to next statement in this block
		}
	}
	return value.NullValue(), false, nil
}

func (e *Evaluator) evalExpr(expr ast.Expr) (value.Value, error) {
	switch n := expr.(type) {
	case ast.NumberLit:
		return value.Num(n.Value), nil
	case ast.StringLit:
		return value.Str(n.Value), nil
	case ast.BoolLit:
		return value.Bool(n.Value), nil
	case ast.VarRef:
		v, ok := e.variables.Get(n.Name)
		if !ok {
			return value.NullValue(), errors.New(errors.UnknownIdentifier, "", "unknown identifier "+n.Name)
		}
		return v, nil
	case ast.Unary:
		return e.evalUnary(n)
	case ast.Binary:
		return e.evalBinary(n)
	case ast.Call:
		return e.evalCall(n)
	default:
		return value.NullValue(), errors.New(errors.TypeError, "", "unsupported expression node")
	}
}

func (e *Evaluator) evalUnary(n ast.Unary) (value.Value, error) {
	if n.Op == ast.UnaryNot {
		operand, err := e.evalExpr(n.Expr)
		if err != nil {
			return value.NullValue(), err
		}
		if operand.Kind() != value.Boolean {
			return value.NullValue(), errors.New(errors.TypeError, "", "'!' requires a Boolean operand")
		}
		return value.Bool(!operand.Bool()), nil
	}

	operand, err := e.evalExpr(n.Expr)
	if err != nil {
		return value.NullValue(), err
	}
	if operand.Kind() != value.Number {
		return value.NullValue(), errors.New(errors.TypeError, "", "unary sign requires a Number operand")
	}
	if n.Op == ast.UnaryNeg {
		return value.Num(-operand.Number()), nil
	}
	return value.Num(operand.Number()), nil
}

func (e *Evaluator) evalCall(n ast.Call) (value.Value, error) {
	fn, ok := e.functions.Lookup(n.Name)
	if !ok {
		return value.NullValue(), errors.New(errors.UnknownFunction, "", "unknown function "+n.Name)
	}
	if fn.Arity() != len(n.Args) {
		return value.NullValue(), errors.New(errors.ArityMismatch, "", "function "+n.Name+" expects different argument count")
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalExpr(a)
		if err != nil {
			return value.NullValue(), err
		}
		args[i] = v
	}
	v, err := fn.Execute(args)
	if err != nil {
		return value.NullValue(), err
	}
	return v, nil
}

func isNumericPow(base, exp float64) error {
	if base < 0 && exp != math.Trunc(exp) {
		return errors.New(errors.DomainError, "", "negative base with non-integer exponent")
	}
	return nil
}
