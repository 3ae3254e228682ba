package varfuck_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/stack"
	"github.com/dekarrin/varfuck/internal/tape"
	"github.com/dekarrin/varfuck/internal/varfuck"
)

// compileAndRun mirrors cmd/varfuck's own compile -> parse -> run pipeline,
// exercising the parser, cleaner, constexpr algebra, stack manager, and
// processor against the target-ISA interpreter end to end.
func compileAndRun(t *testing.T, source, input string) string {
	t.Helper()
	code, err := varfuck.Compile(source)
	require.NoError(t, err)

	prog, err := tape.Parse(code)
	require.NoError(t, err)

	size := tape.MinTapeSize(prog)
	var out bytes.Buffer
	m := tape.NewMachine(size, strings.NewReader(input), &out)
	require.NoError(t, m.Run(prog))
	return out.String()
}

// TestEndToEnd_EmitByteA is spec.md §8 concrete scenario 4: a macro that
// implants 65 into a fresh variable and prints it must produce "A" on a
// tape sized at the compiler's own computed minimum. x is never declared
// as a statement; it comes into existence as the fresh destination named
// in implant's out-clause.
func TestEndToEnd_EmitByteA(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"num sixtyfive = 65;\n" +
		"call implant(1, sixtyfive) -> x;\n" +
		"call printbinx(1) <- x;\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "A", out)
}

func TestEndToEnd_IfElBranchesOnLiveVariable(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"num one = 1;\n" +
		"call implant(1, one) -> flag;\n" +
		"if (flag) {\n" +
		"num sixtyfive = 65;\n" +
		"call implant(1, sixtyfive) -> flag;\n" +
		"call printbinx(1) <- flag;\n" +
		"} else {\n" +
		"num sixtysix = 66;\n" +
		"call implant(1, sixtysix) -> flag;\n" +
		"call printbinx(1) <- flag;\n" +
		"}\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "A", out)
}

func TestEndToEnd_WhileLoopDrainsCounter(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"num three = 3;\n" +
		"call implant(1, three) -> n;\n" +
		"call implant(1, 1) -> onevar;\n" +
		"while (n) {\n" +
		"call space();\n" +
		"call subbinx(1) -> n <- n, onevar;\n" +
		"}\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "   ", out)
}

func TestEndToEnd_RepeatUnrollsCompileTimeCount(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"repeat (3) {\n" +
		"call endl();\n" +
		"}\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "\n\n\n", out)
}

// Loop dispatch follows the nature of the condition, not the keyword: a
// compile-time-constant condition compiles to an unrolled repeat even when
// spelled `while`, and a live-variable condition compiles to a structural
// while even when spelled `repeat`.
func TestEndToEnd_WhileWithConstantCondUnrolls(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"while (3) {\n" +
		"call endl();\n" +
		"}\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "\n\n\n", out)
}

func TestEndToEnd_RepeatWithLiveVariableCondLoops(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"num three = 3;\n" +
		"call implant(1, three) -> n;\n" +
		"call implant(1, 1) -> onevar;\n" +
		"repeat (n) {\n" +
		"call space();\n" +
		"call subbinx(1) -> n <- n, onevar;\n" +
		"}\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "   ", out)
}

// TestEndToEnd_CopyBuiltinDuplicatesIntoFreshVariable exercises the "copy"
// built-in, whose declared size argument must actually reach the rendered
// call text so the interpreter's native dispatch knows how many bytes to
// shuttle.
func TestEndToEnd_CopyBuiltinDuplicatesIntoFreshVariable(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"num sixtyfive = 65;\n" +
		"call implant(1, sixtyfive) -> x;\n" +
		"call copy(1) -> y <- x;\n" +
		"call printbinx(1) <- y;\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "A", out)
}

// TestEndToEnd_SizeMismatchIsTypeErrorAtCompile is spec.md §8 concrete
// scenario 6: a macro declared with a 4-byte parameter, called with an
// 8-byte argument, must fail with a TypeError at render time even though
// parsing and name resolution both succeed.
func TestEndToEnd_SizeMismatchIsTypeErrorAtCompile(t *testing.T) {
	src := "macro takes4(n) -> () (num x[4]) {\n" +
		"}\n" +
		"macro main() -> () () {\n" +
		"call implant(8, 0) -> y;\n" +
		"call takes4(4) <- y;\n" +
		"}\n" +
		"call main();\n"
	_, err := varfuck.Compile(src)
	require.Error(t, err)
	var terr *stack.TypeError
	assert.ErrorAs(t, err, &terr)
}

// TestEndToEnd_ConstExprPrecedence pins the arithmetic language's binding
// strength: 3 + 4 * 2 is 11, not the 14 a naive left-to-right fold of the
// operator chain would produce.
func TestEndToEnd_ConstExprPrecedence(t *testing.T) {
	src := "macro main() -> () () {\n" +
		"call implant(1, 3 + 4 * 2) -> x;\n" +
		"call printbinx(1) <- x;\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "\x0b", out)
}

// TestEndToEnd_UserMacroWithParamsAndReturn drives the full macro calling
// convention: the caller loads an argument up past its frame, the callee's
// body computes into a fresh variable, fuck moves it into the synthetic
// return slot, and the callee's closing block move brings the slot down to
// the front of the frame where the caller's out-clause picks it up.
func TestEndToEnd_UserMacroWithParamsAndReturn(t *testing.T) {
	src := "macro double(s) -> (s) (num a[s]) {\n" +
		"call addbinx(s) -> r <- a, a;\n" +
		"fuck r;\n" +
		"}\n" +
		"macro main() -> () () {\n" +
		"num thirtythree = 33;\n" +
		"call implant(1, thirtythree) -> v;\n" +
		"call double(1) -> d <- v;\n" +
		"call printbinx(1) <- d;\n" +
		"}\n" +
		"call main();\n"
	out := compileAndRun(t, src, "")
	assert.Equal(t, "B", out)
}
