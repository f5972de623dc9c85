package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexuscrm/formcalc/builtins"
	"github.com/nexuscrm/formcalc/cache"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/funcreg"
	"github.com/nexuscrm/formcalc/parser"
	"github.com/nexuscrm/formcalc/value"
)

func newTestEvaluator(vars map[string]value.Value) (*Evaluator, *cache.Store[value.Value]) {
	variables := cache.New[value.Value]()
	for k, v := range vars {
		variables.Set(k, v)
	}
	results := cache.New[value.Value]()
	registry := funcreg.NewRegistry()
	builtins.Register(registry, results)
	return New("test", variables, registry), results
}

func run(t *testing.T, src string, vars map[string]value.Value) (value.Value, error) {
	t.Helper()
	block, err := parser.Parse(src)
	assert.NoError(t, err)
	e, _ := newTestEvaluator(vars)
	return e.Run(block)
}

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected float64
	}{
		{"precedence", "return 2 + 2 * 3", 8},
		{"division", "return 10 / 4", 2.5},
		{"mod", "return 10 mod 3", 1},
		{"power right assoc", "return 2 ^ 3 ^ 2", 512}, // 2^(3^2) = 2^9
		{"unary double negative", "return - - 5", 5},
		{"unary minus", "return -5 + 2", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, tt.src, nil)
			assert.NoError(t, err)
			assert.Equal(t, value.Number, v.Kind())
			assert.Equal(t, tt.expected, v.Number())
		})
	}
}

func TestEval_StringConcat(t *testing.T) {
	v, err := run(t, "return 'Hello, ' + name + '!'", map[string]value.Value{"name": value.Str("World")})
	assert.NoError(t, err)
	assert.Equal(t, "Hello, World!", v.Text())
}

func TestEval_NumberConcat(t *testing.T) {
	v, err := run(t, "return 'n=' + 5", nil)
	assert.NoError(t, err)
	assert.Equal(t, "n=5", v.Text())
}

func TestEval_BooleanConcat(t *testing.T) {
	v, err := run(t, "return 'flag=' + true", nil)
	assert.NoError(t, err)
	assert.Equal(t, "flag=true", v.Text())
}

func TestEval_Comparisons(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected bool
	}{
		{"numeric lt", "return 1 < 2", true},
		{"string lex order", "return 'apple' < 'banana'", true},
		{"bool eq", "return true = true", true},
		{"bool neq", "return true <> false", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, tt.src, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, v.Bool())
		})
	}
}

func TestEval_CrossTypeComparisonIsTypeError(t *testing.T) {
	_, err := run(t, "return 1 = 'a'", nil)
	assertKind(t, err, errors.TypeError)
}

func TestEval_BooleanOrderingIsTypeError(t *testing.T) {
	_, err := run(t, "return true < false", nil)
	assertKind(t, err, errors.TypeError)
}

func TestEval_LogicalShortCircuit(t *testing.T) {
	// If short-circuit evaluation didn't happen, calling an unregistered
	// function in the untaken branch would raise UnknownFunction instead
	// of the expected result.
	v, err := run(t, "return false and undefined_fn()", nil)
	assert.NoError(t, err)
	assert.False(t, v.Bool())

	v, err = run(t, "return true or undefined_fn()", nil)
	assert.NoError(t, err)
	assert.True(t, v.Bool())
}

func TestEval_IfElseChain(t *testing.T) {
	v, err := run(t, "if (age >= 18) then return 'Adult' else return 'Minor' end", map[string]value.Value{"age": value.Num(25)})
	assert.NoError(t, err)
	assert.Equal(t, "Adult", v.Text())
}

func TestEval_MissingReturn(t *testing.T) {
	_, err := run(t, "if (false) then return 1 end", nil)
	assertKind(t, err, errors.MissingReturn)
}

func TestEval_DivisionByZero(t *testing.T) {
	_, err := run(t, "return 1 / 0", nil)
	assertKind(t, err, errors.DivisionByZero)
}

func TestEval_ModByZero(t *testing.T) {
	_, err := run(t, "return 1 mod 0", nil)
	assertKind(t, err, errors.DivisionByZero)
}

func TestEval_DomainErrorOnFractionalPowerOfNegative(t *testing.T) {
	_, err := run(t, "return (0-4) ^ 0.5", nil)
	assertKind(t, err, errors.DomainError)
}

func TestEval_UnknownIdentifier(t *testing.T) {
	_, err := run(t, "return missing_var", nil)
	assertKind(t, err, errors.UnknownIdentifier)
}

func TestEval_UnknownFunction(t *testing.T) {
	_, err := run(t, "return not_a_real_fn(1)", nil)
	assertKind(t, err, errors.UnknownFunction)
}

func TestEval_ArityMismatch(t *testing.T) {
	_, err := run(t, "return max(1)", nil)
	assertKind(t, err, errors.ArityMismatch)
}

func TestEval_ErrorCarriesFormulaName(t *testing.T) {
	_, err := run(t, "return 1 / 0", nil)
	fe, ok := err.(*errors.FormulaError)
	assert.True(t, ok)
	assert.Equal(t, "test", fe.Formula)
}

func assertKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	assert.Error(t, err)
	fe, ok := err.(*errors.FormulaError)
	assert.True(t, ok)
	assert.Equal(t, kind, fe.Kind)
}
