package varfuck

import (
	"github.com/dekarrin/varfuck/internal/constexpr"
	"github.com/dekarrin/varfuck/internal/stack"
)

// builtin declares a native macro: one whose Body is not assembled by
// walking cursor operations but is instead the fixed call-syntax template
// "renderName(arg;arg;...)", where each arg is one of include in order. The
// target-ISA interpreter recognizes this exact call syntax and dispatches it
// to a native implementation instead of expanding it further.
func builtin(renderName string, compileParams []string, params []stack.BinX, ret []*constexpr.ConstExpr, include []*constexpr.ConstExpr) *Macro {
	m := NewMacro(renderName, compileParams, params, ret)
	m.Body.EmitLiteral(renderName + "(")
	for i, e := range include {
		if i > 0 {
			m.Body.EmitLiteral(";")
		}
		m.Body.EmitExpr(e.RequireNonNegative())
	}
	m.Body.EmitLiteral(")")
	m.Built = true
	return m
}

func binx(name string, size *constexpr.ConstExpr) stack.BinX {
	return stack.BinX{Name: name, Size: size}
}

// Builtins returns a fresh copy of the standard library of native macros
// every Processor seeds its macro table with before walking user source.
// Every one of these is grounded on the reference implementation's
// inbuilt_macros table: the same names, signatures, and argument-passing
// template, translated into the native-dispatch call syntax the interpreter
// recognizes.
func Builtins() map[string]*Macro {
	x := constexpr.Ref("x")
	one := constexpr.Lit(1)

	return map[string]*Macro{
		"implant": builtin("implant", []string{"x", "v"}, nil, []*constexpr.ConstExpr{x},
			[]*constexpr.ConstExpr{constexpr.Ref("x"), constexpr.Ref("v")}),

		"printbinx": builtin("printbinx", []string{"x"},
			[]stack.BinX{binx("binx", x)}, nil,
			[]*constexpr.ConstExpr{x}),

		"kill": builtin("kill", nil, nil, nil, nil),
		"endl": builtin("endl", nil, nil, nil, nil),
		"space": builtin("space", nil, nil, nil, nil),

		"printintbinx": builtin("printcleanintbinx", []string{"x"},
			[]stack.BinX{binx("binx", x)}, nil,
			[]*constexpr.ConstExpr{x}),

		"addbinx": builtin("addbinx", []string{"x"},
			[]stack.BinX{binx("a", x), binx("b", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"subbinx": builtin("subbinx", []string{"x"},
			[]stack.BinX{binx("a", x), binx("b", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"multbinx": builtin("multbinx", []string{"x"},
			[]stack.BinX{binx("a", x), binx("b", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"divbinx": builtin("divbinx", []string{"x"},
			[]stack.BinX{binx("a", x), binx("b", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"lshiftbinx": builtin("lshiftbinx", []string{"x"},
			[]stack.BinX{binx("binx", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"rshiftbinx": builtin("rshiftbinx", []string{"x"},
			[]stack.BinX{binx("binx", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"eqbinx": builtin("eqbinx", []string{"x"},
			[]stack.BinX{binx("binx", x), binx("biny", x)},
			[]*constexpr.ConstExpr{one}, []*constexpr.ConstExpr{x}),

		"diffbinx": builtin("diffbinx", []string{"x"},
			[]stack.BinX{binx("binx", x), binx("biny", x)},
			[]*constexpr.ConstExpr{one}, []*constexpr.ConstExpr{x}),

		"lessbinx": builtin("lessbinx", []string{"x"},
			[]stack.BinX{binx("binx", x), binx("biny", x)},
			[]*constexpr.ConstExpr{one}, []*constexpr.ConstExpr{x}),

		"greatbinx": builtin("greatbinx", []string{"x"},
			[]stack.BinX{binx("binx", x), binx("biny", x)},
			[]*constexpr.ConstExpr{one}, []*constexpr.ConstExpr{x}),

		"orbinx": builtin("orbinx", []string{"x"},
			[]stack.BinX{binx("binx", x), binx("biny", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"andbinx": builtin("andbinx", []string{"x"},
			[]stack.BinX{binx("binx", x), binx("biny", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"notbinx": builtin("notbinx", []string{"x"},
			[]stack.BinX{binx("binx", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"boolbinx": builtin("boolbinx", []string{"x"},
			[]stack.BinX{binx("binx", x)},
			[]*constexpr.ConstExpr{one}, []*constexpr.ConstExpr{x}),

		"orbool": builtin("or", nil,
			[]stack.BinX{binx("binx", one), binx("biny", one)},
			[]*constexpr.ConstExpr{one}, nil),

		"andbool": builtin("and", nil,
			[]stack.BinX{binx("binx", one), binx("biny", one)},
			[]*constexpr.ConstExpr{one}, nil),

		"notbool": builtin("not", nil,
			[]stack.BinX{binx("binx", one)},
			[]*constexpr.ConstExpr{one}, nil),

		"copy": builtin("fakecopy", []string{"x"},
			[]stack.BinX{binx("binx", x)},
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),

		"getintbinx": builtin("getintbinx", []string{"x"}, nil,
			[]*constexpr.ConstExpr{x}, []*constexpr.ConstExpr{x}),
	}
}
