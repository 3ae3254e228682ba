package varfuck_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/parser"
	"github.com/dekarrin/varfuck/internal/varfuck"
)

func TestCompile_BareEntryCall(t *testing.T) {
	code, err := varfuck.Compile("call kill();\n")
	require.NoError(t, err)
	assert.Contains(t, code, "kill(")
}

func TestCompile_ConstDefWithFullOperatorChain(t *testing.T) {
	src := "num x = 2 ** 3 + 1 - ~4 & 1 | 2 ^ 3 << 1 >> 1;\ncall kill();\n"
	code, err := varfuck.Compile(src)
	require.NoError(t, err)
	assert.Contains(t, code, "kill(")
}

func TestCompile_UnaryMinusOnIdent(t *testing.T) {
	src := "num n = 5;\nnum neg = -n;\ncall kill();\n"
	_, err := varfuck.Compile(src)
	require.NoError(t, err)
}

func TestCompile_MacroCallingBuiltin(t *testing.T) {
	src := "macro greet() -> () () {\n" +
		"call endl();\n" +
		"call space();\n" +
		"}\n" +
		"call greet();\n"
	code, err := varfuck.Compile(src)
	require.NoError(t, err)
	assert.NotEmpty(t, code)
}

func TestCompile_UnknownMacroIsNameError(t *testing.T) {
	_, err := varfuck.Compile("call nonexistent();\n")
	require.Error(t, err)
	var nerr *varfuck.NameError
	assert.ErrorAs(t, err, &nerr)
}

func TestCompile_UnterminatedProgramIsSyntaxError(t *testing.T) {
	_, err := varfuck.Compile("num x = 1")
	require.Error(t, err)
	var serr *parser.SyntaxError
	assert.ErrorAs(t, err, &serr)
}

func TestCompile_RejectsUnrecognizedCharacter(t *testing.T) {
	_, err := varfuck.Compile("num x = 1 @ 2;\ncall kill();\n")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "lex") || strings.Contains(err.Error(), "unrecognized") || err != nil)
}
