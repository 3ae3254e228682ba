package varfuck

import (
	"github.com/dekarrin/varfuck/internal/grammar"
	"github.com/dekarrin/varfuck/internal/parser"
)

// Rule names produced by Build(), referenced by Processor when it walks the
// resulting CST. Punctuation tokens are all forgotten by Build's parser
// Config, so the CST holds nodes with these names, the single-child "factor"
// and "stmt" wrapper nodes (which Processor.Process splices out), and leaves
// for identifiers, numbers, operators and the while/repeat keyword.
const (
	RuleProgram     = "program"
	RuleConstDef    = "const_def"
	RuleMacroDef    = "macro_def"
	RuleConstParams = "const_params"
	RuleRetSizes    = "ret_sizes"
	RuleParams      = "params"
	RuleParam       = "param"
	RuleCallStmt    = "call_stmt"
	RuleOutClause   = "out_clause"
	RuleInClause    = "in_clause"
	RuleReturnStmt  = "return_stmt"
	RuleIfElStmt    = "ifel_stmt"
	RuleLoopStmt    = "loop_stmt"
	RuleConstExpr   = "const_expr"
	RuleConstExprP  = "const_expr_p"
	RuleParenExpr   = "paren_expr"
	RuleUnaryExpr   = "unary_expr"
	RuleCCall       = "ccall"
	RuleCallArgs    = "call_args"
	RuleBlock       = "block"
)

func kw(word string) grammar.Pattern   { return grammar.ExactPattern(ClassKeyword, word) }
func punct(sym string) grammar.Pattern { return grammar.ExactPattern(ClassPunct, sym) }
func op(sym string) grammar.Pattern    { return grammar.ExactPattern(ClassOp, sym) }

// Build constructs the surface-language Grammar and the parser.Config that
// maps its abstract "ident"/"number" rules onto the lexer's concrete token
// classes and forgets every piece of pure punctuation, the way a hand-built
// grammar bootstrap does directly from constructors rather than from parsed
// EBNF text.
func Build() (*grammar.Grammar, parser.Config) {
	b := grammar.NewBuilder()

	term := func(p grammar.Pattern) grammar.NodeID { return b.Terminal(p) }

	ident := b.Rule("ident")
	number := b.Rule("number")

	// const_expr := factor const_expr_p ;
	// const_expr_p := ("+"|"-") factor const_expr_p | ε ;
	constExpr := b.Rule(RuleConstExpr)
	constExprP := b.Rule(RuleConstExprP)

	parenExpr := b.Rule(RuleParenExpr)
	b.SetRule(RuleParenExpr, b.Concat(term(punct("(")), constExpr, term(punct(")"))))

	ccallArgsTail := b.Concat(term(punct(",")), constExpr)
	ccallArgs := b.Count(b.Concat(constExpr, b.Count(ccallArgsTail, grammar.ZeroOrMany)), grammar.ZeroOrOne)
	ccall := b.Rule(RuleCCall)
	b.SetRule(RuleCCall, b.Concat(ident, term(punct("(")), ccallArgs, term(punct(")"))))

	// factor is declared with a forward Rule() so unary_expr, which recurses
	// into another factor, can reference it before its full alternation is
	// set.
	factor := b.Rule("factor")

	unaryOpTok := b.Alter(term(op("-")), term(op("~")))
	unaryExpr := b.Rule(RuleUnaryExpr)
	b.SetRule(RuleUnaryExpr, b.Concat(unaryOpTok, factor))

	b.SetRule("factor", b.Alter(number, parenExpr, ccall, unaryExpr, ident))

	opTok := b.Alter(
		term(op("**")), term(op("+")), term(op("-")), term(op("*")), term(op("/")),
		term(op("<<")), term(op(">>")), term(op("&")), term(op("|")), term(op("^")),
	)
	b.SetRule(RuleConstExprP, b.Alter(b.Concat(opTok, factor, constExprP), b.Concat()))
	b.SetRule(RuleConstExpr, b.Concat(factor, constExprP))

	// var_item := ident | "_" (an ordinary ident token spelled "_") ;
	varList := b.Count(b.Concat(ident, b.Count(b.Concat(term(punct(",")), ident), grammar.ZeroOrMany)), grammar.ZeroOrOne)

	outClause := b.Rule(RuleOutClause)
	b.SetRule(RuleOutClause, b.Concat(term(op("->")), varList))
	inClause := b.Rule(RuleInClause)
	b.SetRule(RuleInClause, b.Concat(term(op("<-")), varList))

	argList := b.Count(b.Concat(constExpr, b.Count(b.Concat(term(punct(",")), constExpr), grammar.ZeroOrMany)), grammar.ZeroOrOne)
	callArgs := b.Rule(RuleCallArgs)
	b.SetRule(RuleCallArgs, argList)

	callStmt := b.Rule(RuleCallStmt)
	b.SetRule(RuleCallStmt, b.Concat(
		term(kw("call")), ident, term(punct("(")), callArgs, term(punct(")")),
		b.Count(outClause, grammar.ZeroOrOne),
		b.Count(inClause, grammar.ZeroOrOne),
	))

	returnStmt := b.Rule(RuleReturnStmt)
	b.SetRule(RuleReturnStmt, b.Concat(term(kw("fuck")), varList))

	constDef := b.Rule(RuleConstDef)
	b.SetRule(RuleConstDef, b.Concat(term(kw("num")), ident, term(op("=")), constExpr))

	// Statements are declared with a forward Rule() so ifel_stmt/loop_stmt,
	// which recurse into statement lists of their own, can reference the
	// rule before its full alternation (which includes them) is known.
	stmt := b.Rule("stmt")

	// The lexer collapses both ";" and "\n" into the same breaker token, so
	// statement separation has to tolerate runs of them: gap matches any
	// number of breakers (blank lines, a newline after "{"), sep requires at
	// least one (the terminator after a simple statement). Both are pure
	// punctuation and never reach the CST.
	breaker := term(punct(";"))
	gap := b.Count(breaker, grammar.ZeroOrMany)
	sep := b.Count(breaker, grammar.OneOrMany)

	// block wraps a statement run in its own named node so ifel_stmt (which
	// has two such runs back to back) can tell where the first ends and the
	// second begins: every use below shares this single NodeID, so the
	// cleaned CST carries one "block" child per brace pair in source order.
	// The final unterminated statement lets a one-line "{ call x(); }" body
	// end flush against its closing brace.
	block := b.Rule(RuleBlock)
	b.SetRule(RuleBlock, b.Concat(
		gap,
		b.Count(b.Concat(stmt, sep), grammar.ZeroOrMany),
		b.Count(stmt, grammar.ZeroOrOne),
	))

	ifelStmt := b.Rule(RuleIfElStmt)
	b.SetRule(RuleIfElStmt, b.Concat(
		term(kw("if")), term(punct("(")), constExpr, term(punct(")")),
		term(punct("{")), block, term(punct("}")),
		term(kw("else")),
		term(punct("{")), block, term(punct("}")),
	))

	loopKw := b.Alter(term(kw("while")), term(kw("repeat")))
	loopStmt := b.Rule(RuleLoopStmt)
	b.SetRule(RuleLoopStmt, b.Concat(
		loopKw, term(punct("(")), constExpr, term(punct(")")),
		term(punct("{")), block, term(punct("}")),
	))

	b.SetRule("stmt", b.Alter(constDef, callStmt, returnStmt, ifelStmt, loopStmt))

	param := b.Rule(RuleParam)
	b.SetRule(RuleParam, b.Concat(term(kw("num")), ident, term(punct("[")), constExpr, term(punct("]"))))
	paramList := b.Count(b.Concat(param, b.Count(b.Concat(term(punct(",")), param), grammar.ZeroOrMany)), grammar.ZeroOrOne)
	params := b.Rule(RuleParams)
	b.SetRule(RuleParams, paramList)

	constParamList := b.Count(b.Concat(ident, b.Count(b.Concat(term(punct(",")), ident), grammar.ZeroOrMany)), grammar.ZeroOrOne)
	constParams := b.Rule(RuleConstParams)
	b.SetRule(RuleConstParams, constParamList)

	retSizeList := b.Count(b.Concat(constExpr, b.Count(b.Concat(term(punct(",")), constExpr), grammar.ZeroOrMany)), grammar.ZeroOrOne)
	retSizes := b.Rule(RuleRetSizes)
	b.SetRule(RuleRetSizes, retSizeList)

	macroDef := b.Rule(RuleMacroDef)
	b.SetRule(RuleMacroDef, b.Concat(
		term(kw("macro")), ident,
		term(punct("(")), constParams, term(punct(")")),
		term(op("->")), term(punct("(")), retSizes, term(punct(")")),
		term(punct("(")), params, term(punct(")")),
		term(punct("{")), block, term(punct("}")),
	))

	topDef := b.Alter(constDef, macroDef)
	program := b.Rule(RuleProgram)
	b.SetRule(RuleProgram, b.Concat(
		gap,
		b.Count(b.Concat(topDef, gap), grammar.ZeroOrMany),
		callStmt,
		gap,
	))

	g := b.Grammar(program)

	cfg := parser.Config{
		RuleTable: map[string]grammar.Pattern{
			"ident":  grammar.ClassPattern(ClassIdent),
			"number": grammar.ClassPattern(ClassNumber),
		},
		TerminalForget: map[grammar.Pattern]bool{
			punct("("): true, punct(")"): true, punct("["): true, punct("]"): true,
			punct("{"): true, punct("}"): true, punct(","): true, punct(";"): true,
			kw("call"): true, kw("fuck"): true, kw("num"): true, kw("macro"): true,
			kw("if"): true, kw("else"): true, op("="): true,
			op("->"): true, op("<-"): true,
		},
	}
	return g, cfg
}
