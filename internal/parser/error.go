package parser

import (
	"fmt"

	"github.com/dekarrin/rosed"
)

// SyntaxError reports that no ordering of grammar alternatives accepts the
// token stream, or that the matcher detected an unbounded recursive descent
// (see Config.MaxDepth) while trying to find one.
type SyntaxError struct {
	Msg string
}

// NewSyntaxError constructs a SyntaxError with the given message.
func NewSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{Msg: msg}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Msg)
}

// FullMessage wraps e's message to width columns, the same terminal-width
// wrapping tunascript.SyntaxError.FullMessage applies via rosed before a CLI
// prints a failing parse to the user.
func (e *SyntaxError) FullMessage(width int) string {
	return rosed.Edit(e.Error()).Wrap(width).String()
}

// ErrLeftRecursion is the message used for the SyntaxError raised when a
// RuleRef match nests more deeply than Config.MaxDepth allows, whether or not
// the Lexer's position advanced; it is the matcher's stand-in for detecting
// left-recursive grammars, which it cannot otherwise terminate on.
const ErrLeftRecursion = "left-recursion"
