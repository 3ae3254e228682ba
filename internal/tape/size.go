package tape

// excursion tracks a structural walk's net pointer displacement from its
// start (delta) and the widest left/right reach observed along the way,
// both relative to that same start.
type excursion struct {
	delta    int
	minReach int
	maxReach int
}

// MinTapeSize walks prog once, without executing it, and returns the
// distance between the leftmost and rightmost cells the pointer reaches,
// relative to its starting cell, plus one. Run starts the pointer at cell 0,
// so this length covers every motion only for a program that never moves
// left of its start. The walk mirrors the bookkeeping
// original_source/MacrofuckCompiler.py's self.min_mem_size performs over the
// same counted-repeat/structural-call token stream, simplified since this
// system has no separate heap/malloc region to track.
func MinTapeSize(prog []Instr) int {
	e := walk(prog)
	span := e.maxReach - e.minReach + 1
	if span < 1 {
		span = 1
	}
	return span
}

func walk(body []Instr) excursion {
	e := excursion{}
	for _, ins := range body {
		child := walkOne(ins)
		lo := e.delta + child.minReach
		hi := e.delta + child.maxReach
		if lo < e.minReach {
			e.minReach = lo
		}
		if hi > e.maxReach {
			e.maxReach = hi
		}
		e.delta += child.delta
	}
	return e
}

func walkOne(ins Instr) excursion {
	switch v := ins.(type) {
	case Op:
		switch v.Char {
		case '>':
			return excursion{delta: v.Count, minReach: 0, maxReach: v.Count}
		case '<':
			return excursion{delta: -v.Count, minReach: -v.Count, maxReach: 0}
		default:
			return excursion{}
		}
	case Repeat:
		return repeatN(walk(v.Body), v.Count)
	case While:
		// A well-formed while's bracketed body always returns the pointer
		// to the cell it tested, so the loop as a whole has net delta 0 no
		// matter how many times it runs; one pass through setup+body bounds
		// the excursion any run can reach.
		combined := append(append([]Instr{}, v.Setup...), v.Body...)
		return walk(combined)
	case Ifel:
		// Either branch runs with the head two cells past the tested
		// boolean (the construct's scratch cells, see Machine's Ifel
		// case), so its reach is offset by that displacement; the scratch
		// cells themselves are always touched.
		t := walk(v.TrueBody)
		f := walk(v.FalseBody)
		e := excursion{maxReach: 1}
		if lo := 2 + t.minReach; lo < e.minReach {
			e.minReach = lo
		}
		if lo := 2 + f.minReach; lo < e.minReach {
			e.minReach = lo
		}
		if hi := 2 + t.maxReach; hi > e.maxReach {
			e.maxReach = hi
		}
		if hi := 2 + f.maxReach; hi > e.maxReach {
			e.maxReach = hi
		}
		return e
	case Call:
		return callReach(v.Name, v.Args)
	default:
		return excursion{}
	}
}

// callReach bounds the span of cells a built-in call touches relative to the
// data pointer, which builtins never move (see builtins.go's calling
// convention). Each entry mirrors its implementation's actual read/write
// extent: the two-operand arithmetic and comparison builtins consume a
// 2*size span, copybinx writes dist+1 cells past its size-byte source, and
// downbinx is the one builtin that reaches backward, onto the variable
// dist+1 cells behind it.
func callReach(name string, args []int) excursion {
	arg := func(i int) int {
		if i < len(args) {
			return args[i]
		}
		return 0
	}
	size := arg(0)
	fwd := func(n int) excursion {
		if n < 1 {
			n = 1
		}
		return excursion{maxReach: n - 1}
	}
	switch name {
	case "copybinx":
		return fwd(arg(1) + 1 + size)
	case "downbinx":
		e := fwd(size)
		e.minReach = -(arg(1) + 1)
		return e
	case "addbinx", "subbinx", "multbinx", "divbinx",
		"eqbinx", "diffbinx", "lessbinx", "greatbinx",
		"orbinx", "andbinx":
		return fwd(2 * size)
	case "or", "and":
		return fwd(2)
	case "not", "kill", "endl", "space":
		return fwd(1)
	default:
		// boolbinx, implant, printbinx, printcleanintbinx, getintbinx,
		// lshiftbinx, rshiftbinx, notbinx, fakecopy and anything future
		// all operate on the size-byte span at the pointer.
		return fwd(size)
	}
}

// repeatN projects a body's excursion, known from a single pass, across n
// repetitions without simulating each one: since every iteration's reach is
// the single-pass reach offset by the iteration's starting delta, and the
// starting delta grows linearly with i, the overall extremes occur at
// i == 0 or i == n-1 depending on the sign of the per-iteration net delta.
func repeatN(single excursion, n int) excursion {
	if n <= 0 {
		return excursion{}
	}
	last := single.delta * (n - 1)
	lo := single.minReach
	hi := single.maxReach
	if last+single.minReach < lo {
		lo = last + single.minReach
	}
	if last+single.maxReach > hi {
		hi = last + single.maxReach
	}
	return excursion{delta: single.delta * n, minReach: lo, maxReach: hi}
}
