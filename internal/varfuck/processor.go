package varfuck

import (
	"strconv"

	"github.com/dekarrin/varfuck/internal/constexpr"
	"github.com/dekarrin/varfuck/internal/parser"
	"github.com/dekarrin/varfuck/internal/stack"
)

var constExprRewrites = []parser.TailRewrite{{Rule: RuleConstExpr, Tail: RuleConstExprP}}

// Processor walks a cleaned program CST and builds the macro table and entry
// invocation it describes, grounded directly on the reference walker's
// two-pass (catalog signatures, then translate bodies) resolution of
// forward-referenced macros.
type Processor struct {
	macros      map[string]*Macro
	consts      map[string]*constexpr.ConstExpr
	localConsts map[string]*constexpr.ConstExpr
	entry       *MacroInvocation
}

// NewProcessor returns a Processor seeded with the standard built-in macro
// table.
func NewProcessor() *Processor {
	return &Processor{
		macros: Builtins(),
		consts: make(map[string]*constexpr.ConstExpr),
	}
}

// Process walks root (the raw parse result) and populates p's macro table
// and entry invocation. It cleans root itself, so callers should pass the
// parser's direct output.
func (p *Processor) Process(root *parser.CST) error {
	root = parser.Clean(root, constExprRewrites)
	// The grammar's "factor" and "stmt" rules each wrap exactly one
	// alternative; splice them out so the walk below sees what they wrap.
	var unwrap func(c *parser.CST) *parser.CST
	unwrap = func(c *parser.CST) *parser.CST {
		if c.Terminal {
			return c
		}
		if (c.Name == "factor" || c.Name == "stmt") && len(c.Children) == 1 {
			return unwrap(c.Children[0])
		}
		for i, ch := range c.Children {
			c.Children[i] = unwrap(ch)
		}
		return c
	}
	root = unwrap(root)
	if root.Terminal || root.Name != RuleProgram {
		return &SyntaxError{Msg: "not a program"}
	}
	if len(root.Children) == 0 {
		return &SyntaxError{Msg: "a program must end with an entry-point call"}
	}

	defs := root.Children[:len(root.Children)-1]
	entryNode := root.Children[len(root.Children)-1]

	var macroDefs []*parser.CST
	for _, def := range defs {
		switch def.Name {
		case RuleConstDef:
			name, expr, err := p.constDef(def)
			if err != nil {
				return err
			}
			p.consts[name] = expr
		case RuleMacroDef:
			name, mac, err := p.declareMacro(def)
			if err != nil {
				return err
			}
			p.macros[name] = mac
			macroDefs = append(macroDefs, def)
		default:
			return &SyntaxError{Msg: "unexpected top-level construct " + def.Name}
		}
	}

	for _, def := range macroDefs {
		if err := p.buildMacroBody(def); err != nil {
			return err
		}
	}

	inv, _, _, err := p.call(entryNode)
	if err != nil {
		return err
	}
	p.entry = inv
	return nil
}

// Build renders the entry-point invocation with no outer bindings, the way
// the reference driver's build() step invokes the program's root call.
func (p *Processor) Build() (string, error) {
	if p.entry == nil {
		return "", &SyntaxError{Msg: "Process must run before Build"}
	}
	return p.entry.Render(nil)
}

// Macros returns the Processor's macro table (built-ins plus every
// user-defined macro), for callers that want to inspect signatures directly.
func (p *Processor) Macros() map[string]*Macro { return p.macros }

func (p *Processor) constExprFromCST(c *parser.CST) (*constexpr.ConstExpr, error) {
	e, err := p.rawConstExpr(c)
	if err != nil {
		return nil, err
	}
	for name, val := range p.localConsts {
		e = e.Replace(name, val)
	}
	for name, val := range p.consts {
		e = e.Replace(name, val)
	}
	return e, nil
}

func (p *Processor) rawConstExpr(c *parser.CST) (*constexpr.ConstExpr, error) {
	if c.Terminal {
		switch c.Tok.Kind.ID() {
		case ClassNumber.ID():
			n, err := strconv.Atoi(c.Tok.Value)
			if err != nil {
				return nil, &SyntaxError{Msg: "invalid integer literal " + c.Tok.Value}
			}
			return constexpr.Lit(n), nil
		case ClassIdent.ID():
			return constexpr.Ref(c.Tok.Value), nil
		}
		return nil, &SyntaxError{Msg: "unexpected token in constant expression: " + c.Tok.String()}
	}

	switch c.Name {
	case RuleConstExpr:
		if len(c.Children) != 3 {
			return nil, &SyntaxError{Msg: "malformed constant expression"}
		}
		return p.binaryChain(c)
	case RuleUnaryExpr:
		sym := c.Children[0].Tok.Value
		if !constexpr.IsUnaryOp(sym) {
			return nil, &SyntaxError{Msg: "unknown constant-expression operator " + sym}
		}
		operand, err := p.rawConstExpr(c.Children[1])
		if err != nil {
			return nil, err
		}
		return operand.UnaryOp(sym), nil
	case RuleParenExpr:
		return p.rawConstExpr(c.Children[0])
	case RuleCCall:
		name := c.Children[0].Tok.Value
		args := make([]*constexpr.ConstExpr, 0, len(c.Children)-1)
		for _, a := range c.Children[1:] {
			v, err := p.rawConstExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return constexpr.Call(name, args...), nil
	}
	return nil, &SyntaxError{Msg: "unrecognized constant-expression node " + c.Name}
}

// precLevels orders the binary operators from tightest-binding to loosest,
// matching the numeric language constant expressions are written in. The
// cleaner folds an operator chain strictly left to right, which preserves
// token order but not binding strength, so binaryChain re-associates the
// flattened chain level by level. Exponentiation is the one right-associative
// level.
var precLevels = [][]string{
	{"**"},
	{"*", "/"},
	{"+", "-"},
	{"<<", ">>"},
	{"&"},
	{"^"},
	{"|"},
}

func inLevel(sym string, level []string) bool {
	for _, s := range level {
		if s == sym {
			return true
		}
	}
	return false
}

// flattenBinChain unfolds the cleaner's nested (left, op, right) shape back
// into its source-order operand and operator runs. Anything that is not
// another const_expr node (a leaf, a paren_expr, a ccall, a unary_expr)
// is an operand boundary.
func flattenBinChain(c *parser.CST) (terms []*parser.CST, ops []*parser.CST) {
	if !c.Terminal && c.Name == RuleConstExpr && len(c.Children) == 3 {
		terms, ops = flattenBinChain(c.Children[0])
		ops = append(ops, c.Children[1])
		terms = append(terms, c.Children[2])
		return terms, ops
	}
	return []*parser.CST{c}, nil
}

func (p *Processor) binaryChain(c *parser.CST) (*constexpr.ConstExpr, error) {
	termNodes, opNodes := flattenBinChain(c)

	terms := make([]*constexpr.ConstExpr, len(termNodes))
	for i, t := range termNodes {
		e, err := p.rawConstExpr(t)
		if err != nil {
			return nil, err
		}
		terms[i] = e
	}
	ops := make([]string, len(opNodes))
	for i, o := range opNodes {
		ops[i] = o.Tok.Value
		if !constexpr.IsBinaryOp(ops[i]) {
			return nil, &SyntaxError{Msg: "unknown constant-expression operator " + ops[i]}
		}
	}

	for li, level := range precLevels {
		rightAssoc := li == 0
		if rightAssoc {
			for i := len(ops) - 1; i >= 0; i-- {
				if inLevel(ops[i], level) {
					terms[i] = terms[i].BinOp(ops[i], terms[i+1])
					terms = append(terms[:i+1], terms[i+2:]...)
					ops = append(ops[:i], ops[i+1:]...)
				}
			}
			continue
		}
		i := 0
		for i < len(ops) {
			if inLevel(ops[i], level) {
				terms[i] = terms[i].BinOp(ops[i], terms[i+1])
				terms = append(terms[:i+1], terms[i+2:]...)
				ops = append(ops[:i], ops[i+1:]...)
			} else {
				i++
			}
		}
	}
	return terms[0], nil
}

func (p *Processor) constDef(node *parser.CST) (string, *constexpr.ConstExpr, error) {
	name := node.Children[0].Tok.Value
	expr, err := p.constExprFromCST(node.Children[1])
	if err != nil {
		return "", nil, err
	}
	return name, expr, nil
}

func identNames(list *parser.CST) []string {
	out := make([]string, len(list.Children))
	for i, c := range list.Children {
		out[i] = c.Tok.Value
	}
	return out
}

func (p *Processor) constSizeList(list *parser.CST) ([]*constexpr.ConstExpr, error) {
	out := make([]*constexpr.ConstExpr, len(list.Children))
	for i, c := range list.Children {
		e, err := p.constExprFromCST(c)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (p *Processor) binxParams(list *parser.CST) ([]stack.BinX, error) {
	out := make([]stack.BinX, len(list.Children))
	for i, param := range list.Children {
		size, err := p.constExprFromCST(param.Children[1])
		if err != nil {
			return nil, err
		}
		out[i] = stack.BinX{Name: param.Children[0].Tok.Value, Size: size}
	}
	return out, nil
}

// declareMacro catalogs a macro's name and full signature, giving it a fresh
// (still-empty) Body. This is pass one of the two-pass forward-reference
// resolution: a later macro's body may call an earlier-declared one, and an
// earlier one may call one declared after it, as long as every signature is
// cataloged before any body is translated.
func (p *Processor) declareMacro(node *parser.CST) (string, *Macro, error) {
	name := node.Children[0].Tok.Value
	compileParams := identNames(node.Children[1])
	retSizes, err := p.constSizeList(node.Children[2])
	if err != nil {
		return "", nil, err
	}
	params, err := p.binxParams(node.Children[3])
	if err != nil {
		return "", nil, err
	}
	return name, NewMacro(name, compileParams, params, retSizes), nil
}

func (p *Processor) buildMacroBody(node *parser.CST) error {
	name := node.Children[0].Tok.Value
	mac := p.macros[name]
	p.localConsts = make(map[string]*constexpr.ConstExpr)

	if err := p.processBlock(mac, node.Children[4].Children); err != nil {
		return err
	}
	if err := mac.Body.End(); err != nil {
		return err
	}
	mac.Built = true
	return nil
}

func findChild(children []*parser.CST, name string) *parser.CST {
	for _, c := range children {
		if !c.Terminal && c.Name == name {
			return c
		}
	}
	return nil
}

func varListNames(c *parser.CST) []string {
	if c == nil {
		return nil
	}
	return leafNames(c.Children)
}

// leafNames collects variable names from a run of ident leaves, mapping the
// "_" placeholder to the empty string the stack layer treats as an unbound
// slot.
func leafNames(children []*parser.CST) []string {
	out := make([]string, len(children))
	for i, ch := range children {
		if ch.Tok.Value == "_" {
			out[i] = ""
		} else {
			out[i] = ch.Tok.Value
		}
	}
	return out
}

// processBlock walks a sequence of statement nodes, applying each to mac's
// Body in order. Grounded directly on the reference walker's process_block,
// minus its "@" memory-region bracketing around lessbinx calls: this
// implementation's built-ins dispatch natively in the interpreter rather
// than re-expanding bit-exact macro-language text, so no such marker is
// needed to bound the pointer-excursion analysis.
func (p *Processor) processBlock(mac *Macro, stmts []*parser.CST) error {
	for _, stmt := range stmts {
		switch stmt.Name {
		case RuleConstDef:
			name, expr, err := p.constDef(stmt)
			if err != nil {
				return err
			}
			p.localConsts[name] = expr
		case RuleCallStmt:
			if err := p.callStmt(mac, stmt); err != nil {
				return err
			}
		case RuleReturnStmt:
			if err := mac.Body.Fuck(leafNames(stmt.Children)); err != nil {
				return err
			}
		case RuleIfElStmt:
			if err := p.ifelStmt(mac, stmt); err != nil {
				return err
			}
		case RuleLoopStmt:
			if err := p.loopStmt(mac, stmt); err != nil {
				return err
			}
		default:
			return &SyntaxError{Msg: "unexpected statement " + stmt.Name}
		}
	}
	return nil
}

func (p *Processor) callStmt(mac *Macro, stmt *parser.CST) error {
	inv, argNames, retNames, err := p.call(stmt)
	if err != nil {
		return err
	}
	return mac.Body.DoCall(inv, argNames, inv.TestParams(), retNames, inv.TestRet())
}

// call resolves a call_stmt node (used both for in-body calls and the
// program's top-level entry point) into its MacroInvocation plus the
// argument-source and return-destination variable name lists. For the
// top-level entry point, Process discards both lists since there is no
// enclosing macro body to load from or store into.
func (p *Processor) call(node *parser.CST) (*MacroInvocation, []string, []string, error) {
	name := node.Children[0].Tok.Value
	args, err := p.constSizeList(node.Children[1])
	if err != nil {
		return nil, nil, nil, err
	}

	target, ok := p.macros[name]
	if !ok {
		return nil, nil, nil, &NameError{Msg: "the macro " + name + " is undefined"}
	}
	inv, err := NewInvocation(target, args)
	if err != nil {
		return nil, nil, nil, err
	}

	out := findChild(node.Children[2:], RuleOutClause)
	in := findChild(node.Children[2:], RuleInClause)
	return inv, varListNames(in), varListNames(out), nil
}

// ifelStmt mirrors the reference walker's ifel handling: a condition that is
// a bare reference to a live stack variable compiles to a structural
// StartIf/ContinueIf/EndIf; any other condition is assumed to already be a
// 0-or-1-valued compile-time expression and compiles to two
// compile-time-counted repeat blocks, using the condition and its complement
// (1 - condition) as multipliers, since neither branch is pruned at compile
// time even when the condition is a literal.
func (p *Processor) ifelStmt(mac *Macro, stmt *parser.CST) error {
	cond := stmt.Children[0]
	trueStmts := stmt.Children[1].Children
	falseStmts := stmt.Children[2].Children

	if name, ok := liveVarRef(mac, cond); ok {
		if err := mac.Body.StartIf(name); err != nil {
			return err
		}
		if err := p.processBlock(mac, trueStmts); err != nil {
			return err
		}
		if err := mac.Body.ContinueIf(); err != nil {
			return err
		}
		if err := p.processBlock(mac, falseStmts); err != nil {
			return err
		}
		return mac.Body.EndIf()
	}

	expr, err := p.constExprFromCST(cond)
	if err != nil {
		return err
	}
	complement := constexpr.Lit(1).Sub(expr)

	mac.Body.StartRepeat(expr)
	if err := p.processBlock(mac, trueStmts); err != nil {
		return err
	}
	mac.Body.EndRepeat()

	mac.Body.StartRepeat(complement)
	if err := p.processBlock(mac, falseStmts); err != nil {
		return err
	}
	mac.Body.EndRepeat()
	return nil
}

// loopStmt handles both loop forms the grammar shares a single rule for,
// dispatching on the nature of the condition the same way ifelStmt does,
// exactly as the reference walker's while_or_repeat handling works: a
// condition that is a bare reference to a live stack variable compiles to a
// structural while regardless of which keyword introduced it, and anything
// else is a compile-time count unrolled as a repeat.
func (p *Processor) loopStmt(mac *Macro, stmt *parser.CST) error {
	cond := stmt.Children[1]
	body := stmt.Children[2].Children

	if name, ok := liveVarRef(mac, cond); ok {
		if err := mac.Body.StartWhile(name); err != nil {
			return err
		}
		if err := p.processBlock(mac, body); err != nil {
			return err
		}
		return mac.Body.EndWhile()
	}

	count, err := p.constExprFromCST(cond)
	if err != nil {
		return err
	}
	mac.Body.StartRepeat(count)
	if err := p.processBlock(mac, body); err != nil {
		return err
	}
	mac.Body.EndRepeat()
	return nil
}

// liveVarRef reports whether cond is a bare identifier naming a variable
// currently live on mac's Body.
func liveVarRef(mac *Macro, cond *parser.CST) (string, bool) {
	if !cond.Terminal || cond.Tok.Kind.ID() != ClassIdent.ID() {
		return "", false
	}
	name := cond.Tok.Value
	if !mac.Body.Has(name) {
		return "", false
	}
	return name, true
}
