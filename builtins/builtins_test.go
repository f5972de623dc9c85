package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexuscrm/formcalc/cache"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/funcreg"
	"github.com/nexuscrm/formcalc/value"
)

func newRegistry() (*funcreg.Registry, *cache.Store[value.Value]) {
	results := cache.New[value.Value]()
	reg := funcreg.NewRegistry()
	Register(reg, results)
	return reg, results
}

func call(t *testing.T, reg *funcreg.Registry, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	fn, ok := reg.Lookup(name)
	assert.True(t, ok, "function %s not registered", name)
	return fn.Execute(args)
}

func TestBuiltins_MathAndRounding(t *testing.T) {
	reg, _ := newRegistry()

	v, err := call(t, reg, "max", value.Num(3), value.Num(7))
	assert.NoError(t, err)
	assert.Equal(t, 7.0, v.Number())

	v, err = call(t, reg, "min", value.Num(3), value.Num(7))
	assert.NoError(t, err)
	assert.Equal(t, 3.0, v.Number())

	v, err = call(t, reg, "rnd", value.Num(3.14159), value.Num(2))
	assert.NoError(t, err)
	assert.Equal(t, 3.14, v.Number())

	v, err = call(t, reg, "rnd", value.Num(-2.5), value.Num(0))
	assert.NoError(t, err)
	assert.Equal(t, -3.0, v.Number(), "half away from zero on negative input")

	v, err = call(t, reg, "ceil", value.Num(1.2))
	assert.NoError(t, err)
	assert.Equal(t, 2.0, v.Number())

	v, err = call(t, reg, "floor", value.Num(1.8))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v.Number())
}

func TestBuiltins_CaseInsensitiveLookup(t *testing.T) {
	reg, _ := newRegistry()
	_, ok := reg.Lookup("MAX")
	assert.True(t, ok)
	_, ok = reg.Lookup("Max")
	assert.True(t, ok)
}

func TestBuiltins_Substr(t *testing.T) {
	reg, _ := newRegistry()

	v, err := call(t, reg, "substr", value.Str("hello world"), value.Num(0), value.Num(5))
	assert.NoError(t, err)
	assert.Equal(t, "hello", v.Text())

	v, err = call(t, reg, "substr", value.Str("hi"), value.Num(0), value.Num(99))
	assert.NoError(t, err)
	assert.Equal(t, "hi", v.Text())

	_, err = call(t, reg, "substr", value.Str("hi"), value.Num(-1), value.Num(1))
	assert.Error(t, err)
	assert.Equal(t, errors.DomainError, err.(*errors.FormulaError).Kind)
}

func TestBuiltins_PaddedString(t *testing.T) {
	reg, _ := newRegistry()

	v, err := call(t, reg, "padded_string", value.Str("42"), value.Num(5))
	assert.NoError(t, err)
	assert.Equal(t, "00042", v.Text())

	v, err = call(t, reg, "padded_string", value.Str("12345"), value.Num(3))
	assert.NoError(t, err)
	assert.Equal(t, "12345", v.Text())
}

func TestBuiltins_DateFields(t *testing.T) {
	reg, _ := newRegistry()

	v, err := call(t, reg, "year", value.Str("2024-03-15"))
	assert.NoError(t, err)
	assert.Equal(t, 2024.0, v.Number())

	v, err = call(t, reg, "month", value.Str("2024-03-15"))
	assert.NoError(t, err)
	assert.Equal(t, 3.0, v.Number())

	v, err = call(t, reg, "day", value.Str("2024-03-15"))
	assert.NoError(t, err)
	assert.Equal(t, 15.0, v.Number())

	_, err = call(t, reg, "year", value.Str("not-a-date"))
	assert.Error(t, err)
	assert.Equal(t, errors.DateError, err.(*errors.FormulaError).Kind)
}

func TestBuiltins_AddDaysAndDiff(t *testing.T) {
	reg, _ := newRegistry()

	v, err := call(t, reg, "add_days", value.Str("2024-01-31"), value.Num(1))
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-01", v.Text())

	v, err = call(t, reg, "get_diff_days", value.Str("2024-02-01"), value.Str("2024-01-31"))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v.Number())

	v, err = call(t, reg, "difference_in_months", value.Str("2024-03-15"), value.Str("2024-01-20"))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v.Number())
}

func TestBuiltins_GetOutputFrom(t *testing.T) {
	reg, results := newRegistry()
	results.Set("a", value.Num(42))

	v, err := call(t, reg, "get_output_from", value.Str("a"))
	assert.NoError(t, err)
	assert.Equal(t, 42.0, v.Number())

	_, err = call(t, reg, "get_output_from", value.Str("missing"))
	assert.Error(t, err)
	assert.Equal(t, errors.UnknownFormula, err.(*errors.FormulaError).Kind)
}
