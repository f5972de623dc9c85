package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/parser"
)

func TestExtract_StaticLiteralOnly(t *testing.T) {
	block, err := parser.Parse("return get_output_from('a') + get_output_from('b')")
	assert.NoError(t, err)
	deps := Extract(block)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, deps)
}

func TestExtract_NonLiteralArgNoEdge(t *testing.T) {
	block, err := parser.Parse("return get_output_from(name)")
	assert.NoError(t, err)
	deps := Extract(block)
	assert.Empty(t, deps)
}

func TestExtract_NestedInIf(t *testing.T) {
	block, err := parser.Parse("if (get_output_from('gate')) then return 1 else return get_output_from('fallback') end")
	assert.NoError(t, err)
	deps := Extract(block)
	assert.Equal(t, map[string]bool{"gate": true, "fallback": true}, deps)
}

func TestLayerize_SimpleChain(t *testing.T) {
	g := New()
	names := map[string]bool{"a": true, "b": true, "c": true}
	g.AddNode("a", nil, func(n string) bool { return names[n] })
	g.AddNode("b", nil, func(n string) bool { return names[n] })
	g.AddNode("c", map[string]bool{"a": true, "b": true}, func(n string) bool { return names[n] })

	layers, cycleErrs := Layerize(g)
	assert.Nil(t, cycleErrs)
	assert.Len(t, layers, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, layers[0])
	assert.Equal(t, []string{"c"}, layers[1])
}

func TestLayerize_Cycle(t *testing.T) {
	g := New()
	names := map[string]bool{"a": true, "b": true}
	g.AddNode("a", map[string]bool{"b": true}, func(n string) bool { return names[n] })
	g.AddNode("b", map[string]bool{"a": true}, func(n string) bool { return names[n] })

	layers, cycleErrs := Layerize(g)
	assert.Empty(t, layers)
	assert.Len(t, cycleErrs, 2)
	assert.Equal(t, errors.CycleDetected, cycleErrs["a"].Kind)
	assert.Equal(t, errors.CycleDetected, cycleErrs["b"].Kind)
}

func TestLayerize_DependencyOutsideBatchIsNotAnEdge(t *testing.T) {
	g := New()
	names := map[string]bool{"a": true}
	g.AddNode("a", map[string]bool{"outside": true}, func(n string) bool { return names[n] })

	layers, cycleErrs := Layerize(g)
	assert.Nil(t, cycleErrs)
	assert.Equal(t, []string{"a"}, layers[0])
}

func TestLayerize_DeterministicOrderWithinLayer(t *testing.T) {
	g := New()
	names := map[string]bool{"z": true, "y": true, "x": true}
	g.AddNode("z", nil, func(n string) bool { return names[n] })
	g.AddNode("y", nil, func(n string) bool { return names[n] })
	g.AddNode("x", nil, func(n string) bool { return names[n] })

	layers, _ := Layerize(g)
	assert.Equal(t, []string{"z", "y", "x"}, layers[0])
}
