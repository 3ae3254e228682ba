package ebnftext_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/grammar"
	"github.com/dekarrin/varfuck/internal/grammar/ebnftext"
	"github.com/dekarrin/varfuck/internal/parser"
)

var (
	identClass = grammar.Class("toy-ident")
	opClass    = grammar.Class("toy-op")
)

// toyLexer splits on whitespace, classifying "+" as an operator and
// everything else as an identifier.
type toyLexer struct {
	words []string
	pos   int
}

func newToyLexer(src string) *toyLexer {
	return &toyLexer{words: strings.Fields(src)}
}

func (l *toyLexer) Mark() int     { return l.pos }
func (l *toyLexer) Reset(pos int) { l.pos = pos }

func (l *toyLexer) Next() (grammar.Token, error) {
	if l.pos >= len(l.words) {
		return grammar.EOF(), nil
	}
	w := l.words[l.pos]
	l.pos++
	if w == "+" {
		return grammar.NewToken(opClass, w), nil
	}
	return grammar.NewToken(identClass, w), nil
}

func TestRead_BuildsGrammarParsingToyExpressions(t *testing.T) {
	source := `expr ::= ident ( "+" ident )* ;`
	g, err := ebnftext.Read(source, "expr",
		map[string]grammar.TokenClass{"ident": identClass},
		func(lit string) grammar.TokenClass { return opClass },
	)
	require.NoError(t, err)

	p := parser.New(g, parser.Config{
		TerminalForget: map[grammar.Pattern]bool{
			grammar.ExactPattern(opClass, "+"): true,
		},
	})

	cst, err := p.Parse(newToyLexer("a + b + c"))
	require.NoError(t, err)
	require.NotNil(t, cst)

	var idents []string
	for _, c := range cst.Children {
		require.True(t, c.Terminal)
		idents = append(idents, c.Tok.Value)
	}
	assert.Equal(t, []string{"a", "b", "c"}, idents)
}

// TestRead_BootstrapGrammarOfRules feeds the reader a grammar describing
// EBNF-ish rule definitions and parses a two-rule token stream with it: the
// result is a "grammar" node with two "rule" children, each holding its four
// tokens in declared order.
func TestRead_BootstrapGrammarOfRules(t *testing.T) {
	source := `grammar ::= rule* ; rule ::= "id" "::=" "id" ";" ;`
	g, err := ebnftext.Read(source, "grammar", nil,
		func(lit string) grammar.TokenClass { return identClass },
	)
	require.NoError(t, err)

	p := parser.New(g, parser.Config{})
	cst, err := p.Parse(newToyLexer("id ::= id ; id ::= id ;"))
	require.NoError(t, err)

	require.Equal(t, "grammar", cst.Name)
	require.Len(t, cst.Children, 2)
	for _, rule := range cst.Children {
		require.Equal(t, "rule", rule.Name)
		require.Len(t, rule.Children, 4)
		var values []string
		for _, tok := range rule.Children {
			require.True(t, tok.Terminal)
			values = append(values, tok.Tok.Value)
		}
		assert.Equal(t, []string{"id", "::=", "id", ";"}, values)
	}
}

func TestRead_UndeclaredStartRuleFails(t *testing.T) {
	_, err := ebnftext.Read(`expr ::= ident ;`, "missing",
		map[string]grammar.TokenClass{"ident": identClass},
		func(lit string) grammar.TokenClass { return opClass },
	)
	require.Error(t, err)
	var rerr *ebnftext.ReadError
	assert.ErrorAs(t, err, &rerr)
}

func TestRead_UndeclaredRuleReferenceFails(t *testing.T) {
	_, err := ebnftext.Read(`expr ::= missing_rule ;`, "expr",
		map[string]grammar.TokenClass{"ident": identClass},
		func(lit string) grammar.TokenClass { return opClass },
	)
	require.Error(t, err)
}

func TestRead_AlternationAndOptionalQuantifier(t *testing.T) {
	// toyLexer classifies any non-"+" word as identClass, so the quoted
	// literals here must be matched as that same class.
	source := `greeting ::= ( "hi" | "hello" ) ident? ;`
	g, err := ebnftext.Read(source, "greeting",
		map[string]grammar.TokenClass{"ident": identClass},
		func(lit string) grammar.TokenClass { return identClass },
	)
	require.NoError(t, err)

	p := parser.New(g, parser.Config{})
	cst, err := p.Parse(newToyLexer("hello"))
	require.NoError(t, err)
	require.NotNil(t, cst)
}
