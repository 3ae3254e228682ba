package tape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/tape"
)

func TestMinTapeSize_PlainOps(t *testing.T) {
	prog, err := tape.Parse("3>++<")
	require.NoError(t, err)
	// starts at 0, reaches +3 at furthest right, never goes left of 0.
	assert.Equal(t, 4, tape.MinTapeSize(prog))
}

func TestMinTapeSize_LeftwardOps(t *testing.T) {
	prog, err := tape.Parse(">>><<<<<")
	require.NoError(t, err)
	// reaches +3 right and -2 left of start: span is 3 - (-2) + 1 = 6.
	assert.Equal(t, 6, tape.MinTapeSize(prog))
}

func TestMinTapeSize_RepeatProjectsWithoutSimulating(t *testing.T) {
	prog, err := tape.Parse("1000repeat(>+<)")
	require.NoError(t, err)
	// each iteration nets zero displacement but reaches one cell to the
	// right; repeated any number of times the reach never exceeds 1.
	assert.Equal(t, 2, tape.MinTapeSize(prog))
}

func TestMinTapeSize_RepeatWithNetDisplacement(t *testing.T) {
	prog, err := tape.Parse("5repeat(>>)")
	require.NoError(t, err)
	// 5 iterations of a 2-cell rightward step reach 10 cells out.
	assert.Equal(t, 11, tape.MinTapeSize(prog))
}

func TestMinTapeSize_WhileAssumesNetZeroPerIteration(t *testing.T) {
	prog, err := tape.Parse(">while(+;>++<-)<")
	require.NoError(t, err)
	// the leading > moves one right; body reaches one further right before
	// returning to the tested cell.
	assert.Equal(t, 3, tape.MinTapeSize(prog))
}

func TestMinTapeSize_IfelTakesWidestBranch(t *testing.T) {
	prog, err := tape.Parse("ifel(>>>;<)")
	require.NoError(t, err)
	// branches run two scratch cells past the tested boolean: the true
	// branch reaches 2+3 right, the false branch bottoms out at 2-1, and
	// the boolean plus its scratch neighbor pin the base span.
	assert.Equal(t, 6, tape.MinTapeSize(prog))
}

func TestMinTapeSize_TwoOperandCallSpansBothOperands(t *testing.T) {
	prog, err := tape.Parse("addbinx(4)")
	require.NoError(t, err)
	// addbinx(4) reads and zeroes two 4-byte operands forward of the
	// pointer: cells 0 through 7.
	assert.Equal(t, 8, tape.MinTapeSize(prog))
}

func TestMinTapeSize_CopybinxReachesPastItsDistance(t *testing.T) {
	prog, err := tape.Parse("copybinx(4;4)")
	require.NoError(t, err)
	// copybinx(size=4, dist=4) duplicates the 4-byte span at the pointer
	// into cells [5, 8]: widest right reach is 8.
	assert.Equal(t, 9, tape.MinTapeSize(prog))
}

func TestMinTapeSize_DownbinxCallReachesBackward(t *testing.T) {
	prog, err := tape.Parse("downbinx(4;4)")
	require.NoError(t, err)
	// downbinx(size=4, dist=4) reads the 4-byte span at the pointer and
	// writes it starting at -(dist+1): the span [-5, 3] is 9 cells wide.
	assert.Equal(t, 9, tape.MinTapeSize(prog))
}

func TestMinTapeSize_EmptyProgramIsAtLeastOne(t *testing.T) {
	assert.Equal(t, 1, tape.MinTapeSize(nil))
}
