package flow

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Predicate is a pure condition over the current flow context.
type Predicate func(ctx *Context) bool

// exprEnv is the variable namespace expression strings evaluate over.
func exprEnv(ctx *Context) map[string]any {
	players := 0
	if ctx.Roster != nil {
		players = ctx.Roster.Count()
	}
	return map[string]any{
		"vars":    ctx.Vars,
		"player":  ctx.Player,
		"players": players,
	}
}

// Expr compiles an expression string into a Predicate. The namespace
// exposes "vars" (the flow variable table), "player" (acting seat),
// and "players" (seat count), e.g. `vars.round < 3`.
//
// Expressions let data-driven definitions carry conditions as strings.
// Compilation failure panics: the source is part of the flow
// definition, and a broken definition is a programmer error caught at
// construction time.
func Expr(src string) Predicate {
	prog := mustCompile(src)
	return func(ctx *Context) bool {
		out, err := vm.Run(prog, exprEnv(ctx))
		if err != nil {
			panic(fmt.Sprintf("expression %q failed: %v", src, err))
		}
		b, ok := out.(bool)
		if !ok {
			panic(fmt.Sprintf("expression %q evaluated to %T, expected bool", src, out))
		}
		return b
	}
}

// ValueExpr compiles an expression string into a value function, for
// Switch values and ForEach sources.
func ValueExpr(src string) func(ctx *Context) any {
	prog := mustCompile(src)
	return func(ctx *Context) any {
		out, err := vm.Run(prog, exprEnv(ctx))
		if err != nil {
			panic(fmt.Sprintf("expression %q failed: %v", src, err))
		}
		return out
	}
}

func mustCompile(src string) *vm.Program {
	prog, err := expr.Compile(src)
	if err != nil {
		panic(fmt.Sprintf("invalid flow expression %q: %v", src, err))
	}
	return prog
}
