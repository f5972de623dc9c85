// Package formcalc is the embeddable façade over FormCalc's formula
// evaluation engine: construct an Engine, set variables, register any
// host functions, submit a batch of named formulas, and read back
// results or errors by name. See engine.Engine for the full contract.
package formcalc

import (
	"github.com/nexuscrm/formcalc/engine"
	"github.com/nexuscrm/formcalc/funcreg"
	"github.com/nexuscrm/formcalc/value"
)

// Re-exported types so embedders need only import this root package
// for the common case.
type (
	Engine       = engine.Engine
	FormulaInput = engine.FormulaInput
	Function     = funcreg.Function
	Value        = value.Value
)

// New constructs an Engine with empty caches and the built-in function
// library pre-registered.
func New() *Engine { return engine.New() }

// Num, Str, and Bool construct Values of each variant, convenience
// re-exports of package value's constructors for callers that only
// import the root package.
func Num(f float64) Value { return value.Num(f) }
func Str(s string) Value  { return value.Str(s) }
func Bool(b bool) Value   { return value.Bool(b) }

// NewFunction adapts a closure into a Function for RegisterFunction.
func NewFunction(name string, arity int, exec func(args []Value) (Value, error)) Function {
	return funcreg.New(name, arity, exec)
}
