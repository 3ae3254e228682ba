// Package varfuck compiles the surface macro language into the target-ISA
// call-syntax text the interpreter in internal/tape runs: a lexer and
// hand-built grammar (lex.go, grammarspec.go) feed the backtracking parser
// in internal/parser, whose cleaned CST a Processor (processor.go) walks to
// build a table of Macro bodies (macro.go, builtins.go) against the
// symbolic stack tracked by internal/stack, finally rendering the entry
// point's invocation into the finished program text.
package varfuck

import "github.com/dekarrin/varfuck/internal/parser"

// Compile translates source into the rendered target-ISA program text it
// describes. It never invokes the toolchain that eventually runs that text;
// see internal/tape for that.
func Compile(source string) (string, error) {
	g, cfg := Build()
	p := parser.New(g, cfg)

	cst, err := p.Parse(NewLexer(source))
	if err != nil {
		return "", err
	}

	proc := NewProcessor()
	if err := proc.Process(cst); err != nil {
		return "", err
	}
	return proc.Build()
}
