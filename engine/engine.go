// Package engine implements FormCalc's batch orchestrator: parsing,
// dependency layering, and layer-parallel evaluation against the
// engine's shared caches.
package engine

import (
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/nexuscrm/formcalc/ast"
	"github.com/nexuscrm/formcalc/builtins"
	"github.com/nexuscrm/formcalc/cache"
	"github.com/nexuscrm/formcalc/depgraph"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/eval"
	"github.com/nexuscrm/formcalc/funcreg"
	"github.com/nexuscrm/formcalc/parser"
	"github.com/nexuscrm/formcalc/value"
)

// FormulaInput is one submitted {name, source} descriptor.
type FormulaInput struct {
	Name   string
	Source string
}

// Engine owns the four shared caches (variables, functions, results,
// errors) and orchestrates batch execution over them. The zero value
// is not usable; construct with New.
type Engine struct {
	variables *cache.Store[value.Value]
	functions *funcreg.Registry
	results   *cache.Store[value.Value]
	errMsgs   *cache.Store[string]

	logger     *log.Logger
	workerPool int // <= 0 means runtime.GOMAXPROCS(0)
}

// New creates an engine with empty caches and a registry pre-populated
// with the built-in function library.
func New() *Engine {
	e := &Engine{
		variables: cache.New[value.Value](),
		functions: funcreg.NewRegistry(),
		results:   cache.New[value.Value](),
		errMsgs:   cache.New[string](),
		logger:    log.New(os.Stderr, "[formcalc] ", log.LstdFlags),
	}
	builtins.Register(e.functions, e.results)
	return e
}

// SetLogger overrides the engine's diagnostic logger.
func (e *Engine) SetLogger(l *log.Logger) { e.logger = l }

// SetWorkerPool bounds intra-layer concurrency; n <= 0 restores the
// default of runtime.GOMAXPROCS(0).
func (e *Engine) SetWorkerPool(n int) { e.workerPool = n }

// SetVariable upserts name into the variable cache.
func (e *Engine) SetVariable(name string, v value.Value) {
	e.variables.Set(name, v)
}

// RegisterFunction upserts fn into the function registry; overwriting
// a built-in is permitted.
func (e *Engine) RegisterFunction(fn funcreg.Function) {
	e.functions.Register(fn)
}

// GetResult returns the most recent successful result for name.
func (e *Engine) GetResult(name string) (value.Value, bool) {
	return e.results.Get(name)
}

// GetErrors returns the error map from the most recent Execute call.
// It reflects only formulas from the last batch; see Clear for how
// this map is reset.
func (e *Engine) GetErrors() map[string]string {
	return e.errMsgs.Snapshot()
}

// Clear drops results and errors but retains variables and registered
// functions. DESIGN.md records the reasoning behind retaining
// variables and functions across Clear.
func (e *Engine) Clear() {
	e.results.Clear()
	e.errMsgs.Clear()
}

func (e *Engine) pool() int {
	if e.workerPool > 0 {
		return e.workerPool
	}
	return runtime.GOMAXPROCS(0)
}

type compiled struct {
	name    string
	block   ast.Block
	parseOK bool
}

// Execute parses, layers, and evaluates batch. It returns a non-nil
// error only for failures affecting the whole batch; individual
// formula failures (including cycles) are recorded in the error map
// and never cause Execute itself to fail.
func (e *Engine) Execute(batch []FormulaInput) error {
	e.errMsgs.Clear()

	if len(batch) == 0 {
		return nil
	}

	names := make(map[string]bool, len(batch))
	for _, f := range batch {
		names[f.Name] = true
	}

	compiledByName := make(map[string]*compiled, len(batch))
	graph := depgraph.New()

	for _, f := range batch {
		block, err := parseFormula(f.Name, f.Source)
		c := &compiled{name: f.Name}
		if err != nil {
			e.recordError(f.Name, err)
		} else {
			c.block = block
			c.parseOK = true
		}
		compiledByName[f.Name] = c

		var deps map[string]bool
		if c.parseOK {
			deps = depgraph.Extract(block)
		}
		graph.AddNode(f.Name, deps, func(n string) bool { return names[n] })
	}

	layers, cycleErrs := depgraph.Layerize(graph)
	for name, cerr := range cycleErrs {
		e.recordError(name, cerr)
	}

	e.logger.Printf("executing batch of %d formulas in %d layers", len(batch), len(layers))

	for i, layer := range layers {
		e.runLayer(i, layer, compiledByName)
	}

	return nil
}

func parseFormula(name, src string) (ast.Block, error) {
	block, err := parser.Parse(src)
	if err != nil {
		if fe, ok := err.(*errors.FormulaError); ok {
			return nil, fe.WithFormula(name)
		}
		return nil, err
	}
	return block, nil
}

func (e *Engine) recordError(name string, err error) {
	e.errMsgs.Set(name, err.Error())
}

type layerOutcome struct {
	name  string
	value value.Value
	err   error
}

func (e *Engine) runLayer(idx int, layer []string, compiledByName map[string]*compiled) {
	sem := make(chan struct{}, e.pool())
	outcomes := make(chan layerOutcome, len(layer))
	var wg sync.WaitGroup

	for _, name := range layer {
		c := compiledByName[name]
		if !c.parseOK {
			continue // already recorded at parse time
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(c *compiled) {
			defer wg.Done()
			defer func() { <-sem }()
			ev := eval.New(c.name, e.variables, e.functions)
			v, err := ev.Run(c.block)
			outcomes <- layerOutcome{name: c.name, value: v, err: err}
		}(c)
	}

	wg.Wait()
	close(outcomes)

	e.logger.Printf("layer %d: %d formulas evaluated", idx, len(layer))

	resultUpdates := make(map[string]value.Value)
	for o := range outcomes {
		if o.err != nil {
			e.recordError(o.name, o.err)
			continue
		}
		resultUpdates[o.name] = o.value
	}
	e.results.SetAll(resultUpdates)
}
