// Package ebnftext reads a small EBNF-like grammar source format into an
// internal/grammar.Grammar, the way spec.md's "Grammar source" external
// interface describes. It is itself a client of internal/parser: the
// meta-grammar (rules, alternations, repetition) is a hand-built
// grammar.Grammar, the same way internal/varfuck's own Build bootstraps its
// grammar directly from Builder constructors rather than from parsed text.
//
// Source shape, with the meta-grammar's own rules written in itself:
//
//	rule_def ::= ident "::=" body ";" ;
//	body     ::= alt ( "|" alt )* ;
//	alt      ::= term* ;
//	term     ::= atom ( "?" | "*" | "+" )? ;
//	atom     ::= ident | "literal" | "(" body ")" ;
//
// A bareword atom that names one of the caller-supplied base classes (see
// Read) becomes a Terminal matching that token class directly; any other
// bareword becomes a RuleRef, resolved against the other rule_names declared
// in the same source. A quoted atom becomes a Terminal whose token class is
// decided by the caller's classify function.
package ebnftext

import (
	"fmt"
	"strings"

	"github.com/dekarrin/varfuck/internal/grammar"
	"github.com/dekarrin/varfuck/internal/parser"
)

// Read parses source into a Grammar rooted at startRule.
//
// baseClasses maps a bareword atom name (e.g. "ident", "number") directly
// onto one of the target lexer's token classes rather than treating it as a
// RuleRef; every other bareword atom is resolved against the rule names
// declared in source.
//
// classify decides which token class a quoted literal atom (e.g. "+",
// "->") matches against, since the same literal text can mean different
// things under different lexers' classification schemes.
func Read(source string, startRule string, baseClasses map[string]grammar.TokenClass, classify func(literal string) grammar.TokenClass) (*grammar.Grammar, error) {
	cst, err := metaParser.Parse(newMetaLexer(source))
	if err != nil {
		return nil, err
	}

	r := &reader{
		b:           grammar.NewBuilder(),
		baseClasses: baseClasses,
		classify:    classify,
	}
	if err := r.declareRules(cst); err != nil {
		return nil, err
	}
	if err := r.buildRules(cst); err != nil {
		return nil, err
	}

	if _, ok := r.declared[startRule]; !ok {
		return nil, &ReadError{Msg: fmt.Sprintf("ebnftext: start rule %q was never declared", startRule)}
	}
	return r.b.Grammar(r.b.Rule(startRule)), nil
}

// reader walks the meta-grammar's CST (see meta.go) and emits nodes into b,
// two-pass the way internal/varfuck.Processor catalogs macro signatures
// before building their bodies: every rule_name must be known before any
// body referencing it (including itself, or a rule declared later in the
// file) is built.
type reader struct {
	b           *grammar.Builder
	baseClasses map[string]grammar.TokenClass
	classify    func(string) grammar.TokenClass
	declared    map[string]bool
}

func (r *reader) declareRules(root *parser.CST) error {
	r.declared = make(map[string]bool)
	for _, ruleDef := range root.Children {
		name := ruleDef.Children[0].Tok.Value
		if r.declared[name] {
			return &ReadError{Msg: "ebnftext: rule " + name + " declared more than once"}
		}
		r.declared[name] = true
		r.b.Rule(name)
	}
	return nil
}

func (r *reader) buildRules(root *parser.CST) error {
	for _, ruleDef := range root.Children {
		name := ruleDef.Children[0].Tok.Value
		body, err := r.body(ruleDef.Children[1])
		if err != nil {
			return err
		}
		r.b.SetRule(name, body)
	}
	return nil
}

// body builds a "|"-separated alternation of "alt" nodes. A single
// alternative is returned bare, without an enclosing Alter, so grammars
// with no alternation at a given point don't carry pointless single-branch
// Alter nodes.
func (r *reader) body(node *parser.CST) (grammar.NodeID, error) {
	alts := make([]grammar.NodeID, 0, len(node.Children))
	for _, a := range node.Children {
		id, err := r.alt(a)
		if err != nil {
			return 0, err
		}
		alts = append(alts, id)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return r.b.Alter(alts...), nil
}

// alt builds a concatenation of "term" nodes. A zero-term alt (explicit
// epsilon) is a bare empty Concat.
func (r *reader) alt(node *parser.CST) (grammar.NodeID, error) {
	parts := make([]grammar.NodeID, 0, len(node.Children))
	for _, t := range node.Children {
		id, err := r.term(t)
		if err != nil {
			return 0, err
		}
		parts = append(parts, id)
	}
	return r.b.Concat(parts...), nil
}

// term builds an atom, wrapped in a Count if a quantifier follows it.
func (r *reader) term(node *parser.CST) (grammar.NodeID, error) {
	atomID, err := r.atom(node.Children[0])
	if err != nil {
		return 0, err
	}
	if len(node.Children) == 1 {
		return atomID, nil
	}
	switch node.Children[1].Tok.Value {
	case "?":
		return r.b.Count(atomID, grammar.ZeroOrOne), nil
	case "*":
		return r.b.Count(atomID, grammar.ZeroOrMany), nil
	case "+":
		return r.b.Count(atomID, grammar.OneOrMany), nil
	}
	return 0, &ReadError{Msg: "ebnftext: unknown quantifier " + node.Children[1].Tok.Value}
}

// atom receives the named "atom" CST node, whose single child is either a
// bare ident/string Leaf or a nested "body" node (the parenthesized-group
// case).
func (r *reader) atom(node *parser.CST) (grammar.NodeID, error) {
	inner := node.Children[0]
	if inner.Terminal {
		switch inner.Tok.Kind.ID() {
		case classIdent.ID():
			name := inner.Tok.Value
			if cls, ok := r.baseClasses[name]; ok {
				return r.b.Terminal(grammar.ClassPattern(cls)), nil
			}
			if !r.declared[name] {
				return 0, &ReadError{Msg: "undeclared rule " + name}
			}
			return r.b.Rule(name), nil
		case classString.ID():
			lit := unquote(inner.Tok.Value)
			return r.b.Terminal(grammar.ExactPattern(r.classify(lit), lit)), nil
		}
		return 0, &ReadError{Msg: "unexpected token in atom: " + inner.Tok.String()}
	}
	// Parenthesized group: inner is a nested "body" node.
	return r.body(inner)
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, "\"")
	s = strings.TrimSuffix(s, "\"")
	return strings.ReplaceAll(s, "\\\"", "\"")
}
