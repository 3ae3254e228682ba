package constexpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/constexpr"
)

func TestConstFolding(t *testing.T) {
	// 3 + 4 * 2, shaped by precedence as 3 + (4 * 2).
	e := constexpr.Lit(3).Add(constexpr.Lit(4).Mul(constexpr.Lit(2)))
	s, err := e.RenderString()
	require.NoError(t, err)
	assert.Equal(t, "11", s)
}

func TestSymbolicAddition(t *testing.T) {
	e := constexpr.Ref("a").Add(constexpr.Lit(1))
	bound := e.Replace("a", constexpr.Lit(2))
	s, err := bound.RenderString()
	require.NoError(t, err)
	assert.Equal(t, "3", s)
}

func TestReplace_ComposesRegardlessOfOrder(t *testing.T) {
	e := constexpr.Ref("x").Add(constexpr.Ref("y"))
	a := constexpr.Lit(2)
	b := constexpr.Lit(5)

	left := e.Replace("x", a).Replace("y", b)
	right := e.Replace("y", b).Replace("x", a)
	assert.True(t, left.Equal(right))
}

func TestIsDone(t *testing.T) {
	e := constexpr.Ref("x").Add(constexpr.Lit(1))
	assert.False(t, e.IsDone())
	assert.True(t, e.Replace("x", constexpr.Lit(1)).IsDone())
}

func TestRenderString_RequiresFullyGround(t *testing.T) {
	e := constexpr.Ref("x")
	_, err := e.RenderString()
	require.Error(t, err)
	var verr *constexpr.ValueError
	assert.ErrorAs(t, err, &verr)
}

func TestEvaluate_NonNegativeViolation(t *testing.T) {
	e := constexpr.Lit(3).Sub(constexpr.Lit(5)).RequireNonNegative()
	_, err := e.Evaluate()
	require.Error(t, err)
	var verr *constexpr.ValueError
	assert.ErrorAs(t, err, &verr)
}

func TestEvaluate_UnboundReference(t *testing.T) {
	e := constexpr.Ref("missing")
	_, err := e.Evaluate()
	require.Error(t, err)
	var nerr *constexpr.NameError
	assert.ErrorAs(t, err, &nerr)
}

func TestEqual_StructuralNotSemantic(t *testing.T) {
	// (1 + 2) and (2 + 1) evaluate the same but are not structurally equal.
	a := constexpr.Lit(1).Add(constexpr.Lit(2))
	b := constexpr.Lit(2).Add(constexpr.Lit(1))
	assert.False(t, a.Equal(b))

	c := constexpr.Lit(1).Add(constexpr.Lit(2))
	assert.True(t, a.Equal(c))
}

func TestCall_MinMaxCeilDiv(t *testing.T) {
	tests := []struct {
		name string
		expr *constexpr.ConstExpr
		want string
	}{
		{"min", constexpr.Call("min", constexpr.Lit(4), constexpr.Lit(1), constexpr.Lit(9)), "1"},
		{"max", constexpr.Call("max", constexpr.Lit(4), constexpr.Lit(1), constexpr.Lit(9)), "9"},
		{"ceil_div exact", constexpr.Call("ceil_div", constexpr.Lit(8), constexpr.Lit(4)), "2"},
		{"ceil_div rounds up", constexpr.Call("ceil_div", constexpr.Lit(9), constexpr.Lit(4)), "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.expr.RenderString()
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestString_RendersUnresolvedReferencesByName(t *testing.T) {
	e := constexpr.Ref("n").Add(constexpr.Lit(1))
	assert.Equal(t, "(n + 1)", e.String())
}

func TestBinOp_FullOperatorSet(t *testing.T) {
	tests := []struct {
		sym  string
		a, b int
		want string
	}{
		{"*", 4, 5, "20"},
		{"/", 17, 5, "3"},
		{"**", 2, 10, "1024"},
		{"<<", 1, 4, "16"},
		{">>", 64, 3, "8"},
		{"&", 0b1100, 0b1010, "8"},
		{"|", 0b1100, 0b1010, "14"},
		{"^", 0b1100, 0b1010, "6"},
	}
	for _, tt := range tests {
		t.Run(tt.sym, func(t *testing.T) {
			e := constexpr.Lit(tt.a).BinOp(tt.sym, constexpr.Lit(tt.b))
			s, err := e.RenderString()
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestBinOp_DivisionByZero(t *testing.T) {
	e := constexpr.Lit(1).Div(constexpr.Lit(0))
	_, err := e.Evaluate()
	require.Error(t, err)
	var verr *constexpr.ValueError
	assert.ErrorAs(t, err, &verr)
}

func TestUnaryOp_NegAndNot(t *testing.T) {
	neg := constexpr.Lit(5).Neg()
	s, err := neg.RenderString()
	require.NoError(t, err)
	assert.Equal(t, "-5", s)

	not := constexpr.Lit(0).Not()
	s, err = not.RenderString()
	require.NoError(t, err)
	assert.Equal(t, "-1", s)
}

func TestBinOp_PanicsOnUnknownOperator(t *testing.T) {
	assert.Panics(t, func() {
		constexpr.Lit(1).BinOp("%", constexpr.Lit(2))
	})
}

func TestIsBinaryOp_IsUnaryOp(t *testing.T) {
	assert.True(t, constexpr.IsBinaryOp("**"))
	assert.False(t, constexpr.IsBinaryOp("~"))
	assert.True(t, constexpr.IsUnaryOp("~"))
	assert.False(t, constexpr.IsUnaryOp("**"))
}
