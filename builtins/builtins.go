// Package builtins implements FormCalc's canonical built-in function
// library: math, string, date, and formula-lookup functions, each
// registered as a funcreg.Function. All are pure and safe for
// concurrent invocation.
package builtins

import (
	"math"

	"github.com/nexuscrm/formcalc/cache"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/funcreg"
	"github.com/nexuscrm/formcalc/value"
)

// Register installs the full built-in set into reg. results is the
// engine's long-lived result cache; get_output_from reads through it
// directly since built-in registration happens once at engine
// construction while the result cache is written continuously across
// Execute/Clear calls.
func Register(reg *funcreg.Registry, results *cache.Store[value.Value]) {
	reg.Register(funcreg.New("max", 2, biMax))
	reg.Register(funcreg.New("min", 2, biMin))
	reg.Register(funcreg.New("rnd", 2, biRnd))
	reg.Register(funcreg.New("ceil", 1, biCeil))
	reg.Register(funcreg.New("floor", 1, biFloor))
	reg.Register(funcreg.New("exp", 1, biExp))
	reg.Register(funcreg.New("substr", 3, biSubstr))
	reg.Register(funcreg.New("padded_string", 2, biPaddedString))
	reg.Register(funcreg.New("year", 1, biYear))
	reg.Register(funcreg.New("month", 1, biMonth))
	reg.Register(funcreg.New("day", 1, biDay))
	reg.Register(funcreg.New("add_days", 2, biAddDays))
	reg.Register(funcreg.New("get_diff_days", 2, biGetDiffDays))
	reg.Register(funcreg.New("difference_in_months", 2, biDifferenceInMonths))
	reg.Register(funcreg.New("get_output_from", 1, getOutputFrom(results)))
}

func wantNumber(v value.Value) (float64, error) {
	if v.Kind() != value.Number {
		return 0, errors.New(errors.TypeError, "", "expected a Number argument")
	}
	return v.Number(), nil
}

func wantString(v value.Value) (string, error) {
	if v.Kind() != value.String {
		return "", errors.New(errors.TypeError, "", "expected a String argument")
	}
	return v.Text(), nil
}

func biMax(args []value.Value) (value.Value, error) {
	a, err := wantNumber(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	b, err := wantNumber(args[1])
	if err != nil {
		return value.NullValue(), err
	}
	if a >= b {
		return value.Num(a), nil
	}
	return value.Num(b), nil
}

func biMin(args []value.Value) (value.Value, error) {
	a, err := wantNumber(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	b, err := wantNumber(args[1])
	if err != nil {
		return value.NullValue(), err
	}
	if a <= b {
		return value.Num(a), nil
	}
	return value.Num(b), nil
}

// biRnd rounds n to d decimals, half away from zero. The exact
// rounding mode was an open question; see DESIGN.md for the resolution.
func biRnd(args []value.Value) (value.Value, error) {
	n, err := wantNumber(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	d, err := wantNumber(args[1])
	if err != nil {
		return value.NullValue(), err
	}
	mult := math.Pow(10, d)
	scaled := n * mult
	var rounded float64
	if scaled >= 0 {
		rounded = math.Floor(scaled + 0.5)
	} else {
		rounded = math.Ceil(scaled - 0.5)
	}
	return value.Num(rounded / mult), nil
}

func biCeil(args []value.Value) (value.Value, error) {
	n, err := wantNumber(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	return value.Num(math.Ceil(n)), nil
}

func biFloor(args []value.Value) (value.Value, error) {
	n, err := wantNumber(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	return value.Num(math.Floor(n)), nil
}

func biExp(args []value.Value) (value.Value, error) {
	n, err := wantNumber(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	return value.Num(math.Exp(n)), nil
}

func biSubstr(args []value.Value) (value.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	startF, err := wantNumber(args[1])
	if err != nil {
		return value.NullValue(), err
	}
	lenF, err := wantNumber(args[2])
	if err != nil {
		return value.NullValue(), err
	}
	if startF < 0 || lenF < 0 {
		return value.NullValue(), errors.New(errors.DomainError, "", "substr start/len must be non-negative")
	}
	runes := []rune(s)
	start := int(startF)
	length := int(lenF)
	if start > len(runes) {
		start = len(runes)
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}
	return value.Str(string(runes[start:end])), nil
}

func biPaddedString(args []value.Value) (value.Value, error) {
	s, err := wantString(args[0])
	if err != nil {
		return value.NullValue(), err
	}
	wF, err := wantNumber(args[1])
	if err != nil {
		return value.NullValue(), err
	}
	width := int(wF)
	runes := []rune(s)
	if len(runes) >= width {
		return value.Str(s), nil
	}
	pad := make([]rune, width-len(runes))
	for i := range pad {
		pad[i] = '0'
	}
	return value.Str(string(pad) + s), nil
}
