package varfuck

import (
	"fmt"

	"github.com/dekarrin/varfuck/internal/constexpr"
	"github.com/dekarrin/varfuck/internal/stack"
)

// Macro is a compile-time-parameterized code template: a name, an ordered
// list of compile-time parameter names (the only kind of compile-time
// parameter this language has is a ConstExpr, so no separate kind tag is
// carried), and a Body built against its declared run-time parameters and
// return sizes. Once Built is set, a Macro's Body is never mutated again;
// it is invoked, not edited.
type Macro struct {
	Name          string
	CompileParams []string
	Body          *stack.Manager
	Built         bool
}

// NewMacro declares a Macro's signature and returns it with a fresh, empty
// Body ready for a Processor to populate by walking the macro's body
// statements.
func NewMacro(name string, compileParams []string, runtimeParams []stack.BinX, returnSizes []*constexpr.ConstExpr) *Macro {
	return &Macro{
		Name:          name,
		CompileParams: compileParams,
		Body:          stack.New(runtimeParams, returnSizes),
	}
}

// MacroInvocation is a deferred application of a Macro: a non-owning
// reference to the target plus one compile-time argument per declared
// compile-time parameter. It implements stack.Invocation so a StackManager
// can hold it in its code list without importing this package.
type MacroInvocation struct {
	Target *Macro
	Args   []*constexpr.ConstExpr

	vParams []*constexpr.ConstExpr
	ret     []*constexpr.ConstExpr
}

// NewInvocation binds args against target's declared compile-time
// parameters, failing with a *TypeError if the argument count disagrees,
// the only compile-time-argument-kind check this language has to perform,
// since ConstExpr is its only compile-time kind.
func NewInvocation(target *Macro, args []*constexpr.ConstExpr) (*MacroInvocation, error) {
	if len(args) != len(target.CompileParams) {
		return nil, &TypeError{Msg: fmt.Sprintf(
			"macro %q takes %d compile-time argument(s) but %d were given",
			target.Name, len(target.CompileParams), len(args),
		)}
	}
	return &MacroInvocation{Target: target, Args: args}, nil
}

// TestParams returns the target macro's declared run-time parameter sizes,
// substituted with this invocation's own compile-time arguments: the
// expected argument sizes a caller's do_call should be comparing against.
func (inv *MacroInvocation) TestParams() []*constexpr.ConstExpr {
	return inv.substituteOwnArgs(sizesOf(inv.Target.Body.Params()))
}

// TestRet returns the target macro's declared return sizes, substituted
// with this invocation's own compile-time arguments.
func (inv *MacroInvocation) TestRet() []*constexpr.ConstExpr {
	return inv.substituteOwnArgs(inv.Target.Body.ReturnSizes())
}

func (inv *MacroInvocation) substituteOwnArgs(exprs []*constexpr.ConstExpr) []*constexpr.ConstExpr {
	out := make([]*constexpr.ConstExpr, len(exprs))
	for i, e := range exprs {
		for j, name := range inv.Target.CompileParams {
			e = e.Replace(name, inv.Args[j])
		}
		out[i] = e
	}
	return out
}

func sizesOf(params []stack.BinX) []*constexpr.ConstExpr {
	out := make([]*constexpr.ConstExpr, len(params))
	for i, p := range params {
		out[i] = p.Size
	}
	return out
}

// SetVParams implements stack.Invocation: it records the caller's actual
// run-time argument sizes, as computed by its do_call, for inspection;
// the equality check against TestParams is recorded at the call site via
// stack.Manager.Compare and performed when the caller's body renders, so this
// is bookkeeping rather than validation.
func (inv *MacroInvocation) SetVParams(sizes []*constexpr.ConstExpr) { inv.vParams = sizes }

// SetRet implements stack.Invocation, recording the caller's actual return
// destination sizes analogously to SetVParams.
func (inv *MacroInvocation) SetRet(sizes []*constexpr.ConstExpr) { inv.ret = sizes }

// Render implements stack.Invocation: it substitutes outer (the enclosing
// macro's fully-or-partially-bound compile-time bindings) into this
// invocation's own compile-time arguments to produce the target macro's
// compile-time-parameter bindings, then renders the target's Body against
// them. Rendering the target's Body re-checks every Comparison that target's
// own do_call/fuck calls recorded, which is how a size mismatch anywhere in
// the call graph surfaces as a *stack.TypeError at the point the mismatched
// binding finally becomes concrete.
func (inv *MacroInvocation) Render(outer map[string]*constexpr.ConstExpr) (string, error) {
	bindings := make(map[string]*constexpr.ConstExpr, len(inv.Target.CompileParams))
	for i, name := range inv.Target.CompileParams {
		bindings[name] = inv.Args[i].ReplaceAll(outer)
	}
	return inv.Target.Body.Render(bindings)
}
