package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/grammar"
	"github.com/dekarrin/varfuck/internal/parser"
)

// wordLexer splits on whitespace and classifies every token as the same
// "word" class, which is all the toy grammars in this file need.
type wordLexer struct {
	words []string
	pos   int
}

var wordClass = grammar.Class("word")

func newWordLexer(s string) *wordLexer {
	var words []string
	for _, f := range strings.Fields(s) {
		words = append(words, f)
	}
	return &wordLexer{words: words}
}

func (l *wordLexer) Next() (grammar.Token, error) {
	if l.pos >= len(l.words) {
		return grammar.EOF(), nil
	}
	w := l.words[l.pos]
	l.pos++
	return grammar.NewToken(wordClass, w), nil
}

func (l *wordLexer) Mark() int { return l.pos }

func (l *wordLexer) Reset(pos int) { l.pos = pos }

func word(v string) grammar.Pattern {
	return grammar.ExactPattern(wordClass, v)
}

func TestParser_SimpleConcat(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Rule("S")
	b.SetRule("S", b.Concat(b.Terminal(word("a")), b.Terminal(word("b"))))
	g := b.Grammar(s)

	p := parser.New(g, parser.Config{})
	tree, err := p.Parse(newWordLexer("a b"))
	require.NoError(t, err)
	assert.Equal(t, "S", tree.Name)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "a", tree.Children[0].Tok.Value)
	assert.Equal(t, "b", tree.Children[1].Tok.Value)
}

func TestParser_RejectsMismatch(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Rule("S")
	b.SetRule("S", b.Concat(b.Terminal(word("a")), b.Terminal(word("b"))))
	g := b.Grammar(s)

	p := parser.New(g, parser.Config{})
	_, err := p.Parse(newWordLexer("a c"))
	require.Error(t, err)
	var synErr *parser.SyntaxError
	assert.ErrorAs(t, err, &synErr)
}

// TestParser_Backtracking covers S ::= "a" "b" | "a" "c" against "a c":
// the first alternative must be tried and fail on the second token before
// the parser falls back to the second alternative.
func TestParser_Backtracking(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Rule("S")
	alt0 := b.Concat(b.Terminal(word("a")), b.Terminal(word("b")))
	alt1 := b.Concat(b.Terminal(word("a")), b.Terminal(word("c")))
	b.SetRule("S", b.Alter(alt0, alt1))
	g := b.Grammar(s)

	p := parser.New(g, parser.Config{})
	tree, err := p.Parse(newWordLexer("a c"))
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "a", tree.Children[0].Tok.Value)
	assert.Equal(t, "c", tree.Children[1].Tok.Value)
}

// TestParser_BacktrackingThroughRuleBoundary exercises the harder case: the
// alternative that must be retried lives behind a separate named rule
// reached through a Concat, so retrying it requires RuleMatcher to resume
// its inner alternation rather than restart it from scratch.
func TestParser_BacktrackingThroughRuleBoundary(t *testing.T) {
	b := grammar.NewBuilder()
	aRule := b.Rule("A")
	b.SetRule("A", b.Alter(b.Terminal(word("a")), b.Concat(b.Terminal(word("a")), b.Terminal(word("a")))))

	s := b.Rule("S")
	b.SetRule("S", b.Concat(aRule, b.Terminal(word("y"))))
	g := b.Grammar(s)

	p := parser.New(g, parser.Config{})
	tree, err := p.Parse(newWordLexer("a a y"))
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	require.Equal(t, "A", tree.Children[0].Name)
	require.Len(t, tree.Children[0].Children, 2)
	assert.Equal(t, "y", tree.Children[1].Tok.Value)
}

// TestParser_FailedParseRestoresLexerPosition checks the failure-path
// contract every matcher carries: when no alternative accepts the input, all
// attempt frames unwind and the lexer ends up back at the position it held
// before the parse began.
func TestParser_FailedParseRestoresLexerPosition(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Rule("S")
	b.SetRule("S", b.Alter(
		b.Concat(b.Terminal(word("a")), b.Terminal(word("b"))),
		b.Concat(b.Terminal(word("a")), b.Terminal(word("c"))),
	))
	g := b.Grammar(s)

	lex := newWordLexer("a x")
	_, err := parser.New(g, parser.Config{}).Parse(lex)
	require.Error(t, err)
	assert.Equal(t, 0, lex.Mark())
}

func TestParser_Count(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Rule("S")
	b.SetRule("S", b.Count(b.Terminal(word("a")), grammar.ZeroOrMany))
	g := b.Grammar(s)

	p := parser.New(g, parser.Config{})
	tree, err := p.Parse(newWordLexer("a a a"))
	require.NoError(t, err)
	assert.Len(t, tree.Children, 3)
}

func TestParser_ForgetSuppressesNode(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Rule("S")
	b.SetRule("S", b.Concat(b.Terminal(word("(")), b.Terminal(word("a")), b.Terminal(word(")"))))
	g := b.Grammar(s)

	p := parser.New(g, parser.Config{
		TerminalForget: map[grammar.Pattern]bool{
			word("("): true,
			word(")"): true,
		},
	})
	tree, err := p.Parse(newWordLexer("( a )"))
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "a", tree.Children[0].Tok.Value)
}

func TestClean_UnrollsRightRecursiveTail(t *testing.T) {
	b := grammar.NewBuilder()
	termRule := b.Rule("term")
	b.SetRule("term", b.Terminal(word("n")))

	tailRule := b.Rule("const_expr_p")
	opAndTerm := b.Concat(b.Terminal(word("+")), termRule, tailRule)
	b.SetRule("const_expr_p", b.Alter(opAndTerm, b.Concat()))

	exprRule := b.Rule("const_expr")
	b.SetRule("const_expr", b.Concat(termRule, tailRule))
	g := b.Grammar(exprRule)

	p := parser.New(g, parser.Config{})
	tree, err := p.Parse(newWordLexer("n + n + n"))
	require.NoError(t, err)

	cleaned := parser.Clean(tree, []parser.TailRewrite{{Rule: "const_expr", Tail: "const_expr_p"}})

	require.Equal(t, "const_expr", cleaned.Name)
	require.Len(t, cleaned.Children, 3)
	inner := cleaned.Children[0]
	require.Equal(t, "const_expr", inner.Name)

	reclean := parser.Clean(cleaned, []parser.TailRewrite{{Rule: "const_expr", Tail: "const_expr_p"}})
	assert.Equal(t, cleaned.String(), reclean.String())
}
