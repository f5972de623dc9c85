package depgraph

import (
	"sort"
	"strings"

	"github.com/nexuscrm/formcalc/errors"
)

// Graph is the cross-formula dependency DAG for one batch. Edges only
// exist between formulas present in the same batch; a reference to a
// formula outside the batch is resolved directly against the result
// cache at evaluation time and never becomes a graph edge.
type Graph struct {
	names []string           // insertion order, for deterministic tie-breaks
	edges map[string]map[string]bool // name -> set of in-batch names it depends on
}

func New() *Graph {
	return &Graph{edges: make(map[string]map[string]bool)}
}

// AddNode registers a formula and its dependencies. deps not present
// in the batch (checked via inBatch) are dropped from the graph; the
// engine resolves those against the carried-over result cache instead.
func (g *Graph) AddNode(name string, deps map[string]bool, inBatch func(string) bool) {
	if _, exists := g.edges[name]; !exists {
		g.names = append(g.names, name)
	}
	edgeSet := make(map[string]bool, len(deps))
	for dep := range deps {
		if inBatch(dep) {
			edgeSet[dep] = true
		}
	}
	g.edges[name] = edgeSet
}

// Layerize stratifies the graph into layers: each layer is the maximal
// set of remaining nodes with no unresolved in-batch dependency,
// ordered by original insertion sequence for deterministic testing. If
// nodes remain once no layer can be formed, every remaining node is
// reported via the returned cycle errors, keyed by formula name.
func Layerize(g *Graph) (layers [][]string, cycleErrs map[string]*errors.FormulaError) {
	remaining := make(map[string]bool, len(g.names))
	for _, n := range g.names {
		remaining[n] = true
	}

	for len(remaining) > 0 {
		var layer []string
		for _, n := range g.names {
			if !remaining[n] {
				continue
			}
			ready := true
			for dep := range g.edges[n] {
				if remaining[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, n)
			}
		}
		if len(layer) == 0 {
			break // no progress possible: remaining nodes form a cycle
		}
		for _, n := range layer {
			delete(remaining, n)
		}
		layers = append(layers, layer)
	}

	if len(remaining) > 0 {
		cyclic := make([]string, 0, len(remaining))
		for n := range remaining {
			cyclic = append(cyclic, n)
		}
		sort.Strings(cyclic)
		detail := strings.Join(cyclic, ", ")
		cycleErrs = make(map[string]*errors.FormulaError, len(cyclic))
		for _, n := range cyclic {
			cycleErrs[n] = errors.New(errors.CycleDetected, n, "cycle participants: "+detail)
		}
	}

	return layers, cycleErrs
}
