package varfuck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/varfuck"
)

func TestLexer_FullOperatorSet(t *testing.T) {
	src := "+ - * / ** << >> & | ^ ~ == <= >= and or not -> <-"
	want := []string{
		"+", "-", "*", "/", "**", "<<", ">>", "&", "|", "^", "~",
		"==", "<=", ">=", "and", "or", "not", "->", "<-",
	}

	l := varfuck.NewLexer(src)
	for _, w := range want {
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, w, tok.Value)
	}
	eof, err := l.Next()
	require.NoError(t, err)
	assert.True(t, eof.IsEOF())
}

func TestLexer_Keywords(t *testing.T) {
	l := varfuck.NewLexer("num macro call fuck if else while repeat and or not foo")
	var got []string
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.IsEOF() {
			break
		}
		got = append(got, tok.Value)
	}
	assert.Equal(t, []string{
		"num", "macro", "call", "fuck", "if", "else", "while", "repeat",
		"and", "or", "not", "foo",
	}, got)
}
