// Package parser implements the general EBNF-driven backtracking matcher:
// given an internal/grammar.Grammar and an internal/grammar.Lexer, it
// produces a single leftmost concrete syntax tree (CST) whose leaves
// consume the entire token stream, retrying alternative parses on failure
// rather than predicting which production to take.
package parser

import (
	"strings"

	"github.com/dekarrin/varfuck/internal/grammar"
)

// CST is a node of a concrete syntax tree: either a Terminal leaf wrapping
// the Token that was matched, or a named Nonterminal with an ordered list
// of child CST nodes in source order.
type CST struct {
	// Terminal is true for a leaf node, in which case Tok is populated and
	// Name/Children are not.
	Terminal bool

	// Tok is the matched token; only meaningful when Terminal is true.
	Tok grammar.Token

	// Name is the rule that produced this node; only meaningful when
	// Terminal is false.
	Name string

	// Children are this node's children in source order; only meaningful
	// when Terminal is false.
	Children []*CST
}

// Leaf constructs a terminal CST node.
func Leaf(tok grammar.Token) *CST {
	return &CST{Terminal: true, Tok: tok}
}

// Node constructs a nonterminal CST node.
func Node(name string, children ...*CST) *CST {
	return &CST{Name: name, Children: children}
}

// String renders a tree suitable for line-by-line structural comparison and
// debugging, one child indentation level per line.
func (c *CST) String() string {
	var sb strings.Builder
	c.write(&sb, "")
	return sb.String()
}

func (c *CST) write(sb *strings.Builder, prefix string) {
	if c.Terminal {
		sb.WriteString(prefix)
		sb.WriteString(c.Tok.String())
		sb.WriteString("\n")
		return
	}
	sb.WriteString(prefix)
	sb.WriteString("(")
	sb.WriteString(c.Name)
	sb.WriteString(")\n")
	for _, ch := range c.Children {
		ch.write(sb, prefix+"  ")
	}
}
