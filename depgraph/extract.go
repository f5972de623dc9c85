// Package depgraph extracts static get_output_from dependencies from
// a formula's AST, builds the cross-formula DAG, and stratifies it
// into parallel-evaluable layers.
package depgraph

import (
	"strings"

	"github.com/nexuscrm/formcalc/ast"
)

// Extract walks block and returns the set of formula names statically
// referenced via get_output_from('<literal>') calls. Calls with a
// non-literal argument contribute no static edge; they are still valid
// at runtime and fail with UnknownFormula if the target is absent.
func Extract(block ast.Block) map[string]bool {
	deps := make(map[string]bool)
	for _, stmt := range block {
		walkStmt(stmt, deps)
	}
	return deps
}

func walkStmt(stmt ast.Stmt, deps map[string]bool) {
	switch s := stmt.(type) {
	case ast.Return:
		walkExpr(s.Expr, deps)
	case ast.If:
		walkExpr(s.Cond, deps)
		for _, st := range s.Then {
			walkStmt(st, deps)
		}
		for _, st := range s.Else {
			walkStmt(st, deps)
		}
	}
}

func walkExpr(expr ast.Expr, deps map[string]bool) {
	switch e := expr.(type) {
	case ast.Unary:
		walkExpr(e.Expr, deps)
	case ast.Binary:
		walkExpr(e.LHS, deps)
		walkExpr(e.RHS, deps)
	case ast.Call:
		if strings.EqualFold(e.Name, "get_output_from") && len(e.Args) == 1 {
			if lit, ok := e.Args[0].(ast.StringLit); ok {
				deps[lit.Value] = true
			}
		}
		for _, arg := range e.Args {
			walkExpr(arg, deps)
		}
	}
}
