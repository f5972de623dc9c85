package eval

import (
	"math"

	"github.com/nexuscrm/formcalc/ast"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/value"
)

func (e *Evaluator) evalBinary(n ast.Binary) (value.Value, error) {
	switch n.Op {
	case ast.And:
		return e.evalLogical(n, true)
	case ast.Or:
		return e.evalLogical(n, false)
	}

	lhs, err := e.evalExpr(n.LHS)
	if err != nil {
		return value.NullValue(), err
	}
	rhs, err := e.evalExpr(n.RHS)
	if err != nil {
		return value.NullValue(), err
	}

	switch n.Op {
	case ast.Add:
		return evalAdd(lhs, rhs)
	case ast.Sub, ast.Mul, ast.Div, ast.Mod, ast.Pow:
		return evalArith(n.Op, lhs, rhs)
	case ast.Eq, ast.Neq, ast.Lt, ast.Gt, ast.Lte, ast.Gte:
		return evalCompare(n.Op, lhs, rhs)
	default:
		return value.NullValue(), errors.New(errors.TypeError, "", "unsupported operator")
	}
}

// evalLogical short-circuits 'and' (isAnd=true skips on false) and
// 'or' (isAnd=false skips on true) without evaluating the RHS when
// the result is already determined.
func (e *Evaluator) evalLogical(n ast.Binary, isAnd bool) (value.Value, error) {
	lhs, err := e.evalExpr(n.LHS)
	if err != nil {
		return value.NullValue(), err
	}
	if lhs.Kind() != value.Boolean {
		return value.NullValue(), errors.New(errors.TypeError, "", "logical operator requires Boolean operands")
	}
	if isAnd && !lhs.Bool() {
		return value.Bool(false), nil
	}
	if !isAnd && lhs.Bool() {
		return value.Bool(true), nil
	}
	rhs, err := e.evalExpr(n.RHS)
	if err != nil {
		return value.NullValue(), err
	}
	if rhs.Kind() != value.Boolean {
		return value.NullValue(), errors.New(errors.TypeError, "", "logical operator requires Boolean operands")
	}
	return rhs, nil
}

// evalAdd implements '+': numeric-numeric addition, or string
// concatenation when either operand is a String (both sides coerced
// to their display string form).
func evalAdd(lhs, rhs value.Value) (value.Value, error) {
	if lhs.Kind() == value.Number && rhs.Kind() == value.Number {
		return value.Num(lhs.Number() + rhs.Number()), nil
	}
	if lhs.Kind() == value.String || rhs.Kind() == value.String {
		if !concatable(lhs) || !concatable(rhs) {
			return value.NullValue(), errors.New(errors.TypeError, "", "'+' cannot coerce operand to String")
		}
		return value.Str(lhs.ToDisplayString() + rhs.ToDisplayString()), nil
	}
	return value.NullValue(), errors.New(errors.TypeError, "", "'+' requires numeric operands or a String operand")
}

func concatable(v value.Value) bool {
	switch v.Kind() {
	case value.Number, value.String, value.Boolean:
		return true
	default:
		return false
	}
}

func evalArith(op ast.BinaryOp, lhs, rhs value.Value) (value.Value, error) {
	if lhs.Kind() != value.Number || rhs.Kind() != value.Number {
		return value.NullValue(), errors.New(errors.TypeError, "", "arithmetic operator requires Number operands")
	}
	a, b := lhs.Number(), rhs.Number()
	switch op {
	case ast.Sub:
		return value.Num(a - b), nil
	case ast.Mul:
		return value.Num(a * b), nil
	case ast.Div:
		if b == 0 {
			return value.NullValue(), errors.New(errors.DivisionByZero, "", "division by zero")
		}
		return value.Num(a / b), nil
	case ast.Mod:
		if b == 0 {
			return value.NullValue(), errors.New(errors.DivisionByZero, "", "modulo by zero")
		}
		return value.Num(math.Mod(a, b)), nil
	case ast.Pow:
		if err := isNumericPow(a, b); err != nil {
			return value.NullValue(), err
		}
		return value.Num(math.Pow(a, b)), nil
	default:
		return value.NullValue(), errors.New(errors.TypeError, "", "unsupported arithmetic operator")
	}
}

func evalCompare(op ast.BinaryOp, lhs, rhs value.Value) (value.Value, error) {
	if lhs.Kind() != rhs.Kind() {
		return value.NullValue(), errors.New(errors.TypeError, "", "cannot compare mismatched types")
	}
	switch lhs.Kind() {
	case value.Number:
		return value.Bool(compareNum(op, lhs.Number(), rhs.Number())), nil
	case value.String:
		return value.Bool(compareStr(op, lhs.Text(), rhs.Text())), nil
	case value.Boolean:
		switch op {
		case ast.Eq:
			return value.Bool(lhs.Bool() == rhs.Bool()), nil
		case ast.Neq:
			return value.Bool(lhs.Bool() != rhs.Bool()), nil
		default:
			return value.NullValue(), errors.New(errors.TypeError, "", "booleans only support '=' and '<>'")
		}
	default:
		return value.NullValue(), errors.New(errors.TypeError, "", "cannot compare Null values")
	}
}

func compareNum(op ast.BinaryOp, a, b float64) bool {
	switch op {
	case ast.Eq:
		return a == b
	case ast.Neq:
		return a != b
	case ast.Lt:
		return a < b
	case ast.Gt:
		return a > b
	case ast.Lte:
		return a <= b
	case ast.Gte:
		return a >= b
	}
	return false
}

func compareStr(op ast.BinaryOp, a, b string) bool {
	switch op {
	case ast.Eq:
		return a == b
	case ast.Neq:
		return a != b
	case ast.Lt:
		return a < b
	case ast.Gt:
		return a > b
	case ast.Lte:
		return a <= b
	case ast.Gte:
		return a >= b
	}
	return false
}
