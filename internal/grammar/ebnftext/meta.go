package ebnftext

import (
	"fmt"
	"strings"

	"github.com/dekarrin/varfuck/internal/grammar"
	"github.com/dekarrin/varfuck/internal/parser"
)

// ReadError reports that grammar source text did not conform to the
// meta-grammar, or that it conformed but named an undeclared rule.
type ReadError struct {
	Msg string
}

func (e *ReadError) Error() string { return fmt.Sprintf("ebnftext: %s", e.Msg) }

var (
	classIdent  = grammar.Class("meta-ident")
	classString = grammar.Class("meta-string")
	classPunct  = grammar.Class("meta-punct")
)

// Rule names of the hand-built meta-grammar, also used as CST node names
// when walking a parsed file in ebnftext.go.
const (
	ruleFile    = "file"
	ruleRuleDef = "rule_def"
	ruleBody    = "body"
	ruleAlt     = "alt"
	ruleTerm    = "term"
	ruleAtom    = "atom"
)

// metaParser recognizes the EBNF-like source format documented in
// ebnftext.go's package comment. It is built once at package init since the
// meta-grammar never varies across calls to Read.
var metaParser = buildMetaParser()

func buildMetaParser() *parser.Parser {
	b := grammar.NewBuilder()
	term := func(p grammar.Pattern) grammar.NodeID { return b.Terminal(p) }
	punct := func(s string) grammar.Pattern { return grammar.ExactPattern(classPunct, s) }

	ident := term(grammar.ClassPattern(classIdent))
	str := term(grammar.ClassPattern(classString))

	// atom := ident | string | "(" body ")" ;
	atom := b.Rule(ruleAtom)
	body := b.Rule(ruleBody)
	b.SetRule(ruleAtom, b.Alter(
		ident,
		str,
		b.Concat(term(punct("(")), body, term(punct(")"))),
	))

	// term := atom ("?" | "*" | "+")? ;
	quant := b.Alter(term(punct("?")), term(punct("*")), term(punct("+")))
	ruleTermID := b.Rule(ruleTerm)
	b.SetRule(ruleTerm, b.Concat(atom, b.Count(quant, grammar.ZeroOrOne)))

	// alt := term* ;
	altID := b.Rule(ruleAlt)
	b.SetRule(ruleAlt, b.Count(ruleTermID, grammar.ZeroOrMany))

	// body := alt ("|" alt)* ;
	b.SetRule(ruleBody, b.Concat(altID, b.Count(b.Concat(term(punct("|")), altID), grammar.ZeroOrMany)))

	// rule_def := ident "::=" body ";" ;
	ruleDefID := b.Rule(ruleRuleDef)
	b.SetRule(ruleRuleDef, b.Concat(ident, term(punct("::=")), body, term(punct(";"))))

	// file := rule_def+ ;
	fileID := b.Rule(ruleFile)
	b.SetRule(ruleFile, b.Count(ruleDefID, grammar.OneOrMany))

	g := b.Grammar(fileID)
	cfg := parser.Config{
		TerminalForget: map[grammar.Pattern]bool{
			punct("("): true, punct(")"): true, punct("::="): true, punct(";"): true,
			punct("|"): true,
		},
	}
	return parser.New(g, cfg)
}

// metaLexer tokenizes EBNF source text for metaParser: identifiers, quoted
// string literals, and the fixed set of meta-grammar punctuation.
type metaLexer struct {
	src []rune
	pos int
}

func newMetaLexer(src string) *metaLexer { return &metaLexer{src: []rune(src)} }

func (l *metaLexer) Mark() int     { return l.pos }
func (l *metaLexer) Reset(pos int) { l.pos = pos }

func (l *metaLexer) peek() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *metaLexer) skipIgnored() {
	for {
		c, ok := l.peek()
		if !ok {
			return
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.pos++
			continue
		}
		if c == '#' {
			for {
				c, ok := l.peek()
				if !ok || c == '\n' {
					break
				}
				l.pos++
			}
			continue
		}
		return
	}
}

const metaIdentChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_0123456789"

func (l *metaLexer) Next() (grammar.Token, error) {
	l.skipIgnored()
	c, ok := l.peek()
	if !ok {
		return grammar.EOF(), nil
	}

	if c == ':' && l.pos+2 < len(l.src) && l.src[l.pos+1] == ':' && l.src[l.pos+2] == '=' {
		l.pos += 3
		return grammar.NewToken(classPunct, "::="), nil
	}
	if strings.ContainsRune("()|?*+;", c) {
		l.pos++
		return grammar.NewToken(classPunct, string(c)), nil
	}
	if c == '"' {
		return l.lexString()
	}
	if strings.ContainsRune(metaIdentChars, c) {
		start := l.pos
		for {
			c, ok := l.peek()
			if !ok || !strings.ContainsRune(metaIdentChars, c) {
				break
			}
			l.pos++
		}
		return grammar.NewToken(classIdent, string(l.src[start:l.pos])), nil
	}
	return grammar.Token{}, &ReadError{Msg: fmt.Sprintf("unrecognized character %q at position %d", c, l.pos)}
}

func (l *metaLexer) lexString() (grammar.Token, error) {
	start := l.pos
	l.pos++ // opening quote
	for {
		c, ok := l.peek()
		if !ok {
			return grammar.Token{}, &ReadError{Msg: "unterminated string literal"}
		}
		if c == '\\' {
			l.pos += 2
			continue
		}
		l.pos++
		if c == '"' {
			break
		}
	}
	return grammar.NewToken(classString, string(l.src[start:l.pos])), nil
}
