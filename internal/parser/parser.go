package parser

import "github.com/dekarrin/varfuck/internal/grammar"

// Config customizes how a Parser maps a Grammar's abstract nodes onto a
// concrete Lexer's vocabulary, and how it renders the resulting CST.
//
// TerminalTable and RuleTable let the same Grammar be reused across surface
// dialects that lex the same shape of token differently: a Terminal node's
// Pattern is looked up in TerminalTable and, if present, the substitute is
// matched instead; a RuleRef whose name appears in RuleTable is matched
// directly against that Pattern rather than recursively expanded, letting an
// abstract rule like "identifier" stand in for what would otherwise be a
// RuleRef with no productions of its own.
//
// TerminalForget and RuleForget name patterns/rules whose successful match
// should not appear as a node in the CST at all: punctuation and the like.
type Config struct {
	TerminalTable  map[grammar.Pattern]grammar.Pattern
	RuleTable      map[string]grammar.Pattern
	TerminalForget map[grammar.Pattern]bool
	RuleForget     map[string]bool

	// MaxDepth bounds recursive descent through RuleRefs before the parser
	// gives up and reports left-recursion. Zero selects a sane default.
	MaxDepth int
}

// Parser matches a single Grammar, built once and reused across any number
// of Parse calls against different Lexers (each call rebuilds the matcher
// tree, since matcher state is per-parse).
type Parser struct {
	g   *grammar.Grammar
	cfg Config
}

// New returns a Parser for g configured by cfg.
func New(g *grammar.Grammar, cfg Config) *Parser {
	return &Parser{g: g, cfg: cfg}
}

// Parse runs the matcher over lex and returns the single leftmost CST whose
// leaves consume the entire token stream, or an error: a *SyntaxError if no
// ordering of grammar alternatives accepts the input or recursion ran away,
// or whatever error lex.Next returned (the surface lexer's LexError, by
// convention).
func (p *Parser) Parse(lex grammar.Lexer) (*CST, error) {
	b := &builder{
		g:     p.g,
		lex:   lex,
		cfg:   p.cfg,
		built: make(map[grammar.NodeID]matcher),
		guard: newRecursionGuard(p.cfg.MaxDepth),
	}
	root := &grammarMatcher{inner: b.matcherFor(p.g.Start)}
	res, ok, err := root.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewSyntaxError("no alternative of the grammar accepts the input")
	}
	if len(res) != 1 {
		return nil, NewSyntaxError("grammar's start rule must be a single named rule")
	}
	return res[0], nil
}

// builder constructs the matcher tree for one Parse call, memoizing one
// matcher instance per grammar.NodeID so that a node reachable from more
// than one parent (including, crucially, a RuleRef cycle back through an
// ancestor) shares the exact same mutable frame-stack state every place it
// is reached from.
type builder struct {
	g     *grammar.Grammar
	lex   grammar.Lexer
	cfg   Config
	built map[grammar.NodeID]matcher
	guard *recursionGuard
}

func (b *builder) matcherFor(id grammar.NodeID) matcher {
	if m, ok := b.built[id]; ok {
		return m
	}
	n := b.g.Node(id)
	switch n.Kind {
	case grammar.KindTerminal:
		m := &literalMatcher{lex: b.lex, pattern: b.resolvePattern(n.Pattern), forget: b.forgetPattern(n.Pattern)}
		b.built[id] = m
		return m

	case grammar.KindRuleRef:
		if pat, ok := b.cfg.RuleTable[n.Name]; ok {
			m := &literalMatcher{lex: b.lex, pattern: pat, forget: b.cfg.RuleForget[n.Name]}
			b.built[id] = m
			return m
		}
		rm := &ruleMatcher{name: n.Name, forget: b.cfg.RuleForget[n.Name], guard: b.guard}
		b.built[id] = rm
		rm.inner = b.matcherFor(n.Spec)
		return rm

	case grammar.KindConcat:
		if len(n.Parts) == 0 {
			m := &epsilonMatcher{}
			b.built[id] = m
			return m
		}
		var chain *concatMatcher
		for i := len(n.Parts) - 1; i >= 0; i-- {
			chain = &concatMatcher{this: b.matcherFor(n.Parts[i]), nextM: chain}
		}
		b.built[id] = chain
		return chain

	case grammar.KindAlter:
		var chain *alterMatcher
		for i := len(n.Parts) - 1; i >= 0; i-- {
			chain = &alterMatcher{this: b.matcherFor(n.Parts[i]), nextM: chain}
		}
		b.built[id] = chain
		return chain

	case grammar.KindCount:
		cm := &countMatcher{inner: b.matcherFor(n.Inner), card: n.Cardinality}
		b.built[id] = cm
		return cm
	}
	panic("parser: unknown grammar node kind")
}

func (b *builder) resolvePattern(p grammar.Pattern) grammar.Pattern {
	if sub, ok := b.cfg.TerminalTable[p]; ok {
		return sub
	}
	return p
}

func (b *builder) forgetPattern(p grammar.Pattern) bool {
	if p.Kind != nil && p.Kind.ID() == grammar.ClassEOF.ID() {
		return true
	}
	return b.cfg.TerminalForget[p]
}
