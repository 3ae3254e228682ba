// Package stack implements the symbolic tape-layout engine that backs every
// user macro's body: a one-dimensional tape whose live variables are tracked
// by name, size, and allocation order while every offset and width remains a
// constexpr.ConstExpr rather than a concrete number, so a macro can be built
// once and rendered at every call site with different compile-time
// arguments.
//
// All arithmetic on variable positions is symbolic: Manager never needs to
// know how big a variable actually is until the macro containing it is
// rendered against a fully-bound set of compile-time arguments.
package stack

import (
	"fmt"

	"github.com/dekarrin/varfuck/internal/constexpr"
)

// BinX is a named, fixed-width unsigned variable. Its Size is a ConstExpr
// because a macro's run-time parameter widths are usually expressed in terms
// of that macro's own compile-time parameters and only become concrete
// numbers once the macro is invoked.
type BinX struct {
	Name string
	Size *constexpr.ConstExpr
}

// Invocation is the Manager's view of a deferred macro call: something that
// can be told the actual argument/return sizes the caller computed (so it can
// cross-check them against its target's declaration later) and that can
// render itself to text once the caller's own bindings are known. The
// concrete type (varfuck.MacroInvocation) lives in a different package to
// avoid a stack<->varfuck import cycle; Manager only needs this interface.
type Invocation interface {
	SetVParams(sizes []*constexpr.ConstExpr)
	SetRet(sizes []*constexpr.ConstExpr)
	Render(bindings map[string]*constexpr.ConstExpr) (string, error)
}

type fragKind int

const (
	fragLit fragKind = iota
	fragExpr
	fragInv
)

type fragment struct {
	kind fragKind
	lit  string
	expr *constexpr.ConstExpr
	inv  Invocation
}

// Comparison is a pair of ConstExprs recorded at a size-agreement site
// (do_call's argument/parameter and return/destination checks, Fuck's
// return-slot check) which must compare structurally equal, as ConstExprs,
// once the enclosing macro is rendered against a concrete binding set.
type Comparison struct {
	A, B *constexpr.ConstExpr
	Why  string
}

type varMeta struct {
	size  *constexpr.ConstExpr
	pos   *constexpr.ConstExpr
	order int
}

// Manager is the per-macro symbolic stack-layout tracker described in
// spec.md §4.4: it models a tape whose head starts at the first declared
// parameter (or at offset 0 if there are none), allocates blocks low-to-high
// in strict order, and emits target-ISA/macro-language fragments for every
// cursor movement, copy, move, and scope cleanup it is asked to perform.
type Manager struct {
	totalSize *constexpr.ConstExpr
	cursor    *string // nil means "just past the top"

	scopes      [][]string
	scopeStarts []*constexpr.ConstExpr
	vars        map[string]*varMeta
	order       int

	code        []fragment
	comparisons []Comparison

	params      []BinX
	returnSizes []*constexpr.ConstExpr
}

// New constructs a Manager for a macro declared with the given run-time
// parameters and return sizes. The bottom scope is seeded with the
// parameters (in declaration order) followed by synthetic return-slot
// variables named "0", "1", … one per return size, mirroring the data
// model's lifecycle for StackManager construction.
func New(params []BinX, returnSizes []*constexpr.ConstExpr) *Manager {
	m := &Manager{
		totalSize:   constexpr.Lit(0).RequireNonNegative(),
		vars:        make(map[string]*varMeta),
		params:      append([]BinX(nil), params...),
		returnSizes: append([]*constexpr.ConstExpr(nil), returnSizes...),
	}
	m.scopes = append(m.scopes, nil)
	m.scopeStarts = append(m.scopeStarts, m.totalSize)

	for _, p := range params {
		m.addVar(p, true)
		m.totalSize = m.totalSize.Add(p.Size).RequireNonNegative()
	}
	for i, sz := range returnSizes {
		m.addVar(BinX{Name: fmt.Sprintf("%d", i), Size: sz}, false)
		m.totalSize = m.totalSize.Add(sz).RequireNonNegative()
	}

	top := m.scopes[len(m.scopes)-1]
	if len(top) > 0 {
		c := top[0]
		m.cursor = &c
	}
	return m
}

// Params returns the macro's declared run-time parameters.
func (m *Manager) Params() []BinX { return append([]BinX(nil), m.params...) }

// ReturnSizes returns the macro's declared return-value sizes.
func (m *Manager) ReturnSizes() []*constexpr.ConstExpr {
	return append([]*constexpr.ConstExpr(nil), m.returnSizes...)
}

// TotalSize returns the offset one past the topmost currently-allocated
// variable.
func (m *Manager) TotalSize() *constexpr.ConstExpr { return m.totalSize }

// Cursor returns the variable name the cursor currently rests at, or nil if
// the cursor is at the top of the stack (one past the last variable).
func (m *Manager) Cursor() *string {
	if m.cursor == nil {
		return nil
	}
	c := *m.cursor
	return &c
}

// SizeOf returns the declared size of a live variable, or nil if name is not
// currently live.
func (m *Manager) SizeOf(name string) *constexpr.ConstExpr {
	vm, ok := m.vars[name]
	if !ok {
		return nil
	}
	return vm.size
}

// Has reports whether name is currently a live variable.
func (m *Manager) Has(name string) bool {
	_, ok := m.vars[name]
	return ok
}

func samePos(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *Manager) posOf(name *string) *constexpr.ConstExpr {
	if name == nil {
		return m.totalSize
	}
	return m.vars[*name].pos
}

// orderOf returns the allocation order of name, or a sentinel greater than
// any real order when name is nil (the top of the stack, conceptually
// allocated "after" everything currently live).
func (m *Manager) orderOf(name *string) int {
	if name == nil {
		return m.order + 1
	}
	return m.vars[*name].order
}

func (m *Manager) emitLit(s string) { m.code = append(m.code, fragment{kind: fragLit, lit: s}) }

func (m *Manager) emitExpr(e *constexpr.ConstExpr) {
	m.code = append(m.code, fragment{kind: fragExpr, expr: e})
}

func (m *Manager) emitInv(inv Invocation) { m.code = append(m.code, fragment{kind: fragInv, inv: inv}) }

// EmitLiteral appends raw text directly to the code list, bypassing every
// cursor/variable operation. It exists for built-in macros, whose bodies are
// a fixed call-syntax template (e.g. "implant(" + x + ";" + v + ")") rather
// than something assembled by walking cursor movements.
func (m *Manager) EmitLiteral(s string) { m.emitLit(s) }

// EmitExpr appends a ConstExpr fragment directly to the code list; see
// EmitLiteral.
func (m *Manager) EmitExpr(e *constexpr.ConstExpr) { m.emitExpr(e) }

// Compare records that a and b must be structurally equal ConstExprs once
// the enclosing macro's bindings are fully applied at render time.
func (m *Manager) Compare(a, b *constexpr.ConstExpr, why string) {
	m.comparisons = append(m.comparisons, Comparison{A: a, B: b, Why: why})
}

// Goto emits the fragments moving the cursor from its current position to
// pos (nil meaning the top of the stack), as the signed symbolic distance
// between the two positions followed by the direction character. It is a
// no-op if the cursor is already at pos. Goto fails with a *NameError if pos
// names a variable that is not currently live.
func (m *Manager) Goto(pos *string) error {
	if pos != nil && !m.Has(*pos) {
		return &NameError{Msg: fmt.Sprintf("no such variable defined as %q", *pos)}
	}
	if samePos(m.cursor, pos) {
		return nil
	}
	curPos := m.posOf(m.cursor)
	targetPos := m.posOf(pos)

	if m.cursor == nil || (pos != nil && m.orderOf(pos) < m.orderOf(m.cursor)) {
		dist := curPos.Sub(targetPos).RequireNonNegative()
		m.emitExpr(dist)
		m.emitLit("<")
	} else {
		dist := targetPos.Sub(curPos).RequireNonNegative()
		m.emitExpr(dist)
		m.emitLit(">")
	}
	m.cursor = pos
	return nil
}

// AddSection pushes a fresh lexical scope frame, recording the current
// TotalSize as the frame's restore point for PopSection.
func (m *Manager) AddSection() {
	m.scopes = append(m.scopes, nil)
	m.scopeStarts = append(m.scopeStarts, m.totalSize)
}

// PopSection tears down the top scope: it emits a loop zeroing every cell
// from the scope's start up to the current TotalSize, decrements TotalSize
// back to the scope's start, and removes the scope's variable metadata.
func (m *Manager) PopSection() error {
	n := len(m.scopes)
	scope := m.scopes[n-1]
	start := m.scopeStarts[n-1]

	if err := m.Goto(nil); err != nil {
		return err
	}
	dif := m.totalSize.Sub(start).RequireNonNegative()
	m.emitExpr(dif)
	m.emitLit("repeat(<[-])")

	m.totalSize = start
	m.scopes = m.scopes[:n-1]
	m.scopeStarts = m.scopeStarts[:n-1]
	for _, name := range scope {
		m.DelVar(name)
	}
	return nil
}

func (m *Manager) addVar(v BinX, include bool) {
	m.vars[v.Name] = &varMeta{
		size:  v.Size.RequireNonNegative(),
		pos:   m.totalSize,
		order: m.order,
	}
	m.order++
	if include {
		top := len(m.scopes) - 1
		m.scopes[top] = append(m.scopes[top], v.Name)
	}
}

// AddVar registers v at the current TotalSize, bumps TotalSize by v.Size,
// and, unless include is false (used for synthetic return-slot allocations
// that shouldn't be swept up by an enclosing scope's cleanup), appends its
// name to the current scope. AddVar fails with a *NameError if v.Name is
// empty or already live.
func (m *Manager) AddVar(v BinX, include bool) error {
	if v.Name == "" {
		return &NameError{Msg: "variable names must be complete"}
	}
	if m.Has(v.Name) {
		return &NameError{Msg: fmt.Sprintf("variable names must be non-repeating: %q already declared", v.Name)}
	}
	m.addVar(v, include)
	m.totalSize = m.totalSize.Add(v.Size).RequireNonNegative()
	return nil
}

// DelVar removes name's metadata without emitting any code. It is a no-op if
// name is not live.
func (m *Manager) DelVar(name string) {
	delete(m.vars, name)
}

// ClearVar emits the fragment zeroing exactly size(name) cells at name's
// position, leaving the cursor at name.
func (m *Manager) ClearVar(name string) error {
	if err := m.Goto(&name); err != nil {
		return err
	}
	sz := m.vars[name].size
	m.emitExpr(sz)
	m.emitLit("repeat([-]>)")
	m.emitExpr(sz)
	m.emitLit("<")
	return nil
}

// ClearSize emits the fragment zeroing exactly size cells at the cursor's
// current position, without moving the cursor.
func (m *Manager) ClearSize(size *constexpr.ConstExpr) {
	m.emitExpr(size)
	m.emitLit("repeat([-]>)")
	m.emitExpr(size)
	m.emitLit("<")
}

// LoadVar emits a copy-up: it duplicates name's contents into the next
// size(name) cells above TotalSize, without altering the original variable
// or TotalSize, leaving the cursor at name.
func (m *Manager) LoadVar(name string) error {
	if err := m.Goto(&name); err != nil {
		return err
	}
	vm := m.vars[name]
	dif := m.totalSize.Sub(vm.pos).Sub(constexpr.Lit(1)).RequireNonNegative()
	m.emitLit("copybinx(")
	m.emitExpr(vm.size)
	m.emitLit(";")
	m.emitExpr(dif)
	m.emitLit(")")
	return nil
}

// PushVar emits a move-down: it moves the top size(name) cells down onto
// name's position (destroying what was there), leaving the cursor at the
// top of the stack.
func (m *Manager) PushVar(name string) error {
	vm, ok := m.vars[name]
	if !ok {
		return &NameError{Msg: fmt.Sprintf("no such variable defined as %q", name)}
	}
	if err := m.Goto(nil); err != nil {
		return err
	}
	dif := m.totalSize.Sub(vm.pos).Sub(constexpr.Lit(1)).RequireNonNegative()
	m.emitLit("downbinx(")
	m.emitExpr(vm.size)
	m.emitLit(";")
	m.emitExpr(dif)
	m.emitLit(")")
	return nil
}

func (m *Manager) goUp(size *constexpr.ConstExpr) {
	m.emitExpr(size)
	m.emitLit(">")
}

// DoCall implements the call-site protocol described in spec.md §4.4: it
// loads (or reserves space for) every argument, appends the invocation, and
// then writes every return value into its destination, creating a fresh
// variable for a not-yet-live return name. argNames/retNames use "" for an
// unbound slot (the data model's None). paramSizes/retSizes are the target
// macro's declared sizes: a bound slot records a Comparison between its
// variable's size and the declared size, an unbound slot takes the declared
// size as is, and every slot advances the layout by its declared size.
func (m *Manager) DoCall(inv Invocation, argNames []string, paramSizes []*constexpr.ConstExpr, retNames []string, retSizes []*constexpr.ConstExpr) error {
	if len(argNames) != len(paramSizes) {
		return &TypeError{Msg: fmt.Sprintf("expected %d parameters but got %d", len(paramSizes), len(argNames))}
	}
	base := m.totalSize

	vParams := make([]*constexpr.ConstExpr, len(argNames))
	for i, name := range argNames {
		if name != "" {
			if err := m.LoadVar(name); err != nil {
				return err
			}
			vParams[i] = m.vars[name].size
			m.Compare(vParams[i], paramSizes[i], fmt.Sprintf("argument %d size vs declared parameter size", i))
		} else {
			vParams[i] = paramSizes[i]
		}
		m.totalSize = m.totalSize.Add(paramSizes[i]).RequireNonNegative()
	}
	inv.SetVParams(vParams)

	m.totalSize = base
	if err := m.Goto(nil); err != nil {
		return err
	}
	m.emitInv(inv)

	if len(retNames) != len(retSizes) {
		return &TypeError{Msg: fmt.Sprintf("expected %d return parameters but got %d", len(retSizes), len(retNames))}
	}
	compRet := make([]*constexpr.ConstExpr, len(retNames))
	for i, name := range retNames {
		if name != "" {
			if m.Has(name) {
				if err := m.ClearVar(name); err != nil {
					return err
				}
				if err := m.PushVar(name); err != nil {
					return err
				}
			} else {
				m.addVar(BinX{Name: name, Size: retSizes[i]}, true)
			}
			compRet[i] = m.vars[name].size
		} else {
			compRet[i] = retSizes[i]
			m.ClearSize(retSizes[i])
		}
		m.Compare(compRet[i], retSizes[i], fmt.Sprintf("return %d size vs destination size", i))
		m.totalSize = m.totalSize.Add(retSizes[i]).RequireNonNegative()
		m.goUp(retSizes[i])
	}
	inv.SetRet(compRet)
	return nil
}

// Fuck implements the surface language's `fuck` (return) statement: for each
// i, it moves variable names[i] into the corresponding synthetic return slot
// "i", recording a Comparison between the operand's size and the macro's
// declared return size at that position.
func (m *Manager) Fuck(names []string) error {
	for i, name := range names {
		if name == "" {
			continue
		}
		if !m.Has(name) {
			return &NameError{Msg: fmt.Sprintf("no such variable defined as %q", name)}
		}
		slot := fmt.Sprintf("%d", i)
		if i < len(m.returnSizes) {
			m.Compare(m.vars[name].size, m.returnSizes[i], fmt.Sprintf("fuck operand %d size vs declared return size", i))
		}
		if err := m.LoadVar(name); err != nil {
			return err
		}
		if err := m.ClearVar(slot); err != nil {
			return err
		}
		if err := m.Goto(nil); err != nil {
			return err
		}
		if err := m.PushVar(slot); err != nil {
			return err
		}
	}
	return nil
}

// End closes the bottom scope: every live variable is cleared in reverse
// allocation order; then, if the macro declares any run-time parameters,
// a final block move brings the return slots down to offset 0, so the
// macro's body is a template whose return values always end up at the start
// of its invocation frame regardless of how many parameters preceded them.
func (m *Manager) End() error {
	if len(m.scopes) != 1 {
		return &NameError{Msg: "cannot end macro while scope stack is not sufficiently empty"}
	}
	scope := m.scopes[0]
	m.scopes = nil
	m.scopeStarts = nil

	for i := len(scope) - 1; i >= 0; i-- {
		if err := m.ClearVar(scope[i]); err != nil {
			return err
		}
		if i > 0 {
			if err := m.Goto(&scope[i-1]); err != nil {
				return err
			}
		} else {
			if err := m.Goto(nil); err != nil {
				return err
			}
		}
		m.DelVar(scope[i])
	}

	if len(m.params) == 0 {
		return nil
	}

	retPos := constexpr.Lit(0)
	for _, p := range m.params {
		retPos = retPos.Add(p.Size)
	}
	retSize := constexpr.Lit(0)
	for _, r := range m.returnSizes {
		retSize = retSize.Add(r)
	}

	m.emitExpr(m.totalSize)
	m.emitLit("<")
	dif := retPos.Sub(constexpr.Lit(1)).RequireNonNegative()
	m.emitExpr(retPos)
	m.emitLit(">")
	m.emitLit("downbinx(")
	m.emitExpr(retSize)
	m.emitLit(";")
	m.emitExpr(dif)
	m.emitLit(")")
	m.emitExpr(retPos)
	m.emitLit("<")
	return nil
}

// StartRepeat emits the opening of a compile-time-counted `n repeat( … )`
// block. n need not be ground yet; it is rendered lazily like any other
// ConstExpr fragment.
func (m *Manager) StartRepeat(n *constexpr.ConstExpr) {
	m.emitExpr(n.RequireNonNegative())
	m.emitLit("repeat(")
}

// EndRepeat closes the most recently opened StartRepeat block.
func (m *Manager) EndRepeat() {
	m.emitLit(")")
}

// StartWhile opens a while loop guarded by name: it loads name, reduces its
// block to a single boolean cell, and opens a fresh scope for the loop body
// (popped and re-entered each iteration by the emitted `while(...)`
// built-in, so loop-local allocations never leak between iterations).
func (m *Manager) StartWhile(name string) error {
	m.emitLit("while(")
	if err := m.LoadVar(name); err != nil {
		return err
	}
	if err := m.Goto(nil); err != nil {
		return err
	}
	sz := m.vars[name].size
	m.emitLit("boolbinx(")
	m.emitExpr(sz)
	m.emitLit(")")
	m.emitLit(";")

	m.AddSection()
	bump := constexpr.Lit(2).Add(sz)
	m.totalSize = m.totalSize.Add(bump).RequireNonNegative()
	m.goUp(bump)
	return nil
}

// EndWhile closes the loop body scope opened by StartWhile and closes the
// `while(...)` construct.
func (m *Manager) EndWhile() error {
	if err := m.PopSection(); err != nil {
		return err
	}
	if err := m.Goto(nil); err != nil {
		return err
	}
	m.emitLit(")")
	return nil
}

// StartIf opens an if/else guarded by name: it loads name, reduces it to a
// boolean, and opens the true-branch scope.
func (m *Manager) StartIf(name string) error {
	m.AddSection()
	if err := m.LoadVar(name); err != nil {
		return err
	}
	if err := m.Goto(nil); err != nil {
		return err
	}
	sz := m.vars[name].size
	m.totalSize = m.totalSize.Add(constexpr.Lit(2)).RequireNonNegative()
	m.AddSection()
	m.emitLit("boolbinx(")
	m.emitExpr(sz)
	m.emitLit(")ifel(")
	return nil
}

// ContinueIf closes the true-branch scope and opens the false-branch scope.
func (m *Manager) ContinueIf() error {
	if err := m.PopSection(); err != nil {
		return err
	}
	m.AddSection()
	if err := m.Goto(nil); err != nil {
		return err
	}
	m.emitLit(";")
	return nil
}

// EndIf closes the false-branch scope and the outer guard scope opened by
// StartIf, restoring TotalSize to its value before the if/else began.
func (m *Manager) EndIf() error {
	if err := m.PopSection(); err != nil {
		return err
	}
	if err := m.Goto(nil); err != nil {
		return err
	}
	m.emitLit(")")
	m.totalSize = m.scopeStarts[len(m.scopeStarts)-1]
	return m.PopSection()
}

// Render produces the final macro-language text for this Manager's code
// list: every Comparison is checked (after substituting bindings into both
// sides) before any text is produced, every literal fragment is copied
// verbatim, every ConstExpr fragment is bound and rendered to its decimal
// text, and every Invocation fragment is asked to render itself against the
// same bindings (which recurses into its own target Macro's body).
func (m *Manager) Render(bindings map[string]*constexpr.ConstExpr) (string, error) {
	for _, c := range m.comparisons {
		a := c.A.ReplaceAll(bindings)
		b := c.B.ReplaceAll(bindings)
		if !a.Equal(b) {
			return "", &TypeError{Msg: fmt.Sprintf("%s: expected %s and %s to match", c.Why, a, b)}
		}
	}

	var out []byte
	for _, f := range m.code {
		switch f.kind {
		case fragLit:
			out = append(out, f.lit...)
		case fragExpr:
			s, err := f.expr.ReplaceAll(bindings).RenderString()
			if err != nil {
				return "", err
			}
			out = append(out, s...)
		case fragInv:
			s, err := f.inv.Render(bindings)
			if err != nil {
				return "", err
			}
			out = append(out, s...)
		}
	}
	return string(out), nil
}
