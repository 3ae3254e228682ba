package varfuck

import (
	"fmt"
	"strings"

	"github.com/dekarrin/varfuck/internal/grammar"
	"golang.org/x/text/width"
)

// Token classes recognized by the surface lexer. Most punctuation is matched
// by exact (class, value) pattern and then forgotten by the parser
// configuration in grammarspec.go, so only identifiers, numbers, and
// keywords/operators that carry meaningful text ever reach the CST.
var (
	ClassIdent   = grammar.Class("ident")
	ClassNumber  = grammar.Class("number")
	ClassKeyword = grammar.Class("keyword")
	ClassPunct   = grammar.Class("punct")
	ClassOp      = grammar.Class("op")
)

var keywords = map[string]bool{
	"num": true, "macro": true, "call": true, "fuck": true,
	"if": true, "else": true, "while": true, "repeat": true,
	"and": true, "or": true, "not": true,
}

const identChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_"
const digitChars = "0123456789"

// multiCharPuncts lists the punctuation/operator lexemes that are more than
// one rune wide, checked longest-first so "->" isn't split into "-" then
// an orphan ">".
var multiCharPuncts = []string{
	"->", "<-", "**", "<<", ">>", "==", "<=", ">=",
}

// LexError reports that the surface lexer's scanning rules could not
// classify the character at the reported position.
type LexError struct {
	Msg string
}

func (e *LexError) Error() string { return fmt.Sprintf("lex error: %s", e.Msg) }

// Lexer tokenizes varfuck surface source into the token classes above. It
// implements grammar.Lexer so internal/parser can drive it directly.
type Lexer struct {
	src []rune
	pos int
}

// NewLexer returns a Lexer reading from src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

func (l *Lexer) Mark() int { return l.pos }

func (l *Lexer) Reset(pos int) { l.pos = pos }

func (l *Lexer) peek() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) skipIgnoredAndComments() {
	for {
		c, ok := l.peek()
		if !ok {
			return
		}
		if c == ' ' || c == '\t' || c == '\r' {
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

// Next implements grammar.Lexer.
func (l *Lexer) Next() (grammar.Token, error) {
	l.skipIgnoredAndComments()

	c, ok := l.peek()
	if !ok {
		return grammar.EOF(), nil
	}

	if strings.ContainsRune(identChars, c) {
		return l.lexIdent(), nil
	}
	if strings.ContainsRune(digitChars, c) {
		return l.lexNumber(), nil
	}
	if c == '\n' || c == ';' {
		l.pos++
		return grammar.NewToken(ClassPunct, ";"), nil
	}

	for _, p := range multiCharPuncts {
		if l.hasPrefix(p) {
			l.pos += len([]rune(p))
			return grammar.NewToken(ClassOp, p), nil
		}
	}

	if strings.ContainsRune("(){}[],", c) {
		l.pos++
		return grammar.NewToken(ClassPunct, string(c)), nil
	}
	if strings.ContainsRune("+-=|&~*/><^", c) {
		l.pos++
		return grammar.NewToken(ClassOp, string(c)), nil
	}

	return grammar.Token{}, &LexError{Msg: fmt.Sprintf("unrecognized character %q at position %d", c, l.pos)}
}

// Position reports the 1-based line and column of rune offset pos within
// l's source, expanding tabs to the next multiple-of-8 column stop and
// counting any East-Asian wide rune (per golang.org/x/text/width, the
// library rosed itself depends on to measure text it wraps) as two columns
// wide, so error messages naming a column line up the way they would in a
// terminal that renders those runes at their visual width.
func (l *Lexer) Position(pos int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < pos && i < len(l.src); i++ {
		c := l.src[i]
		switch {
		case c == '\n':
			line++
			col = 1
		case c == '\t':
			col += 8 - ((col - 1) % 8)
		case width.LookupRune(c).Kind() == width.EastAsianWide:
			col += 2
		default:
			col++
		}
	}
	return line, col
}

func (l *Lexer) hasPrefix(p string) bool {
	pr := []rune(p)
	if l.pos+len(pr) > len(l.src) {
		return false
	}
	for i, r := range pr {
		if l.src[l.pos+i] != r {
			return false
		}
	}
	return true
}

func (l *Lexer) lexIdent() grammar.Token {
	start := l.pos
	for {
		c, ok := l.peek()
		if !ok || !(strings.ContainsRune(identChars, c) || strings.ContainsRune(digitChars, c)) {
			break
		}
		l.pos++
	}
	word := string(l.src[start:l.pos])
	if keywords[word] {
		return grammar.NewToken(ClassKeyword, word)
	}
	return grammar.NewToken(ClassIdent, word)
}

func (l *Lexer) lexNumber() grammar.Token {
	start := l.pos
	for {
		c, ok := l.peek()
		if !ok || !strings.ContainsRune(digitChars, c) {
			break
		}
		l.pos++
	}
	return grammar.NewToken(ClassNumber, string(l.src[start:l.pos]))
}
