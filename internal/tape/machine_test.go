package tape_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/tape"
)

func run(t *testing.T, text string, size int, input string) string {
	t.Helper()
	prog, err := tape.Parse(text)
	require.NoError(t, err)
	var out bytes.Buffer
	m := tape.NewMachine(size, strings.NewReader(input), &out)
	require.NoError(t, m.Run(prog))
	return out.String()
}

func TestMachine_RawOpsAndOutput(t *testing.T) {
	out := run(t, "65+.", 8, "")
	assert.Equal(t, "A", out)
}

func TestMachine_CountedOps(t *testing.T) {
	out := run(t, "3+.", 8, "")
	assert.Equal(t, "\x03", out)
}

func TestMachine_BracketLoopZeroesCell(t *testing.T) {
	out := run(t, "5+[-]+.", 8, "")
	assert.Equal(t, "\x01", out)
}

func TestMachine_InputEchoesThroughCell(t *testing.T) {
	out := run(t, ",.", 8, "Z")
	assert.Equal(t, "Z", out)
}

func TestMachine_InputAtEOFReadsZero(t *testing.T) {
	out := run(t, ",.", 8, "")
	assert.Equal(t, "\x00", out)
}

func TestMachine_OutOfRangeIsResourceError(t *testing.T) {
	prog, err := tape.Parse(">>>")
	require.NoError(t, err)
	m := tape.NewMachine(2, strings.NewReader(""), &bytes.Buffer{})
	err = m.Run(prog)
	require.Error(t, err)
	var rerr *tape.ResourceError
	assert.ErrorAs(t, err, &rerr)
}

func TestMachine_UnmatchedBracketIsParseError(t *testing.T) {
	_, err := tape.Parse("[+")
	require.Error(t, err)
	var perr *tape.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestMachine_KillHaltsExecution(t *testing.T) {
	out := run(t, "65+.kill()65+.", 8, "")
	assert.Equal(t, "A", out)
}

func TestMachine_AddBuiltin(t *testing.T) {
	// place operands 5 and 7 one byte wide each, call addbinx(size=1), then
	// print the single-byte result.
	out := run(t, "5+>7+<addbinx(1).", 8, "")
	assert.Equal(t, string([]byte{12}), out)
}

func TestMachine_EndlAndSpace(t *testing.T) {
	out := run(t, "endl()space()", 4, "")
	assert.Equal(t, "\n ", out)
}

func TestMachine_RepeatUnrollsCompileTimeCount(t *testing.T) {
	out := run(t, "3repeat(65+.[-])", 8, "")
	assert.Equal(t, "AAA", out)
}

// TestMachine_IfelTakesTrueBranch mirrors the shape the stack layer
// emits: the tested boolean sits at the head, and the taken branch executes
// with the head two scratch cells further up, restored afterwards.
func TestMachine_IfelTakesTrueBranch(t *testing.T) {
	out := run(t, "+ifel(65+.;66+.)", 8, "")
	assert.Equal(t, "A", out)
}

func TestMachine_IfelTakesFalseBranch(t *testing.T) {
	out := run(t, "ifel(65+.;66+.)", 8, "")
	assert.Equal(t, "B", out)
}

func TestMachine_IfelZeroesTestedCell(t *testing.T) {
	// after the construct the head is back on the tested cell, which the
	// branch dispatch consumed.
	out := run(t, "5+ifel(;).", 8, "")
	assert.Equal(t, "\x00", out)
}

// TestMachine_WhileDrainsCounter runs the loop shape StartWhile emits: the
// setup clause copies the guard variable up, reduces it to a boolean at the
// head, and the body returns the head to where the setup expects it.
func TestMachine_WhileDrainsCounter(t *testing.T) {
	out := run(t, "3+while(copybinx(1;0)1>boolbinx(1);1<-.)", 4, "")
	assert.Equal(t, "\x02\x01\x00", out)
}

func TestMachine_DownbinxMovesAndZeroesSource(t *testing.T) {
	out := run(t, ">65+downbinx(1;0)<.>.", 4, "")
	assert.Equal(t, "A\x00", out)
}

func TestMachine_CopybinxPreservesSource(t *testing.T) {
	out := run(t, "65+copybinx(1;0).>.", 4, "")
	assert.Equal(t, "AA", out)
}
