package tape

import "strings"

// rawOps is the set of single-character target-ISA instructions, per
// spec.md's instruction table.
const rawOps = "<>-+.,[]"

// Parse reads macro-language program text (the rendered output of a
// StackManager) into a tree of Instr, resolving bracket/paren nesting and
// the ";" clause separators `while`/`ifel` use internally. "#" introduces a
// line comment, per the macro language's external interface.
func Parse(text string) ([]Instr, error) {
	r := &reader{src: text}
	body, err := r.readBody(false)
	if err != nil {
		return nil, err
	}
	r.skipIgnored()
	if r.pos != len(r.src) {
		return nil, &ParseError{Msg: "unexpected trailing input", Pos: r.pos}
	}
	return body, nil
}

type reader struct {
	src string
	pos int
}

func (r *reader) peek() (byte, bool) {
	if r.pos >= len(r.src) {
		return 0, false
	}
	return r.src[r.pos], true
}

func (r *reader) skipIgnored() {
	for {
		c, ok := r.peek()
		if !ok {
			return
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			r.pos++
			continue
		}
		if c == '#' {
			for {
				c, ok := r.peek()
				if !ok || c == '\n' {
					break
				}
				r.pos++
			}
			continue
		}
		return
	}
}

// readBody reads a sequence of Instr up to (not consuming) a top-level ')'
// or, if stopAtSemicolon is set, a top-level ';'. EOF also ends a body, for
// the outermost call from Parse.
func (r *reader) readBody(stopAtSemicolon bool) ([]Instr, error) {
	var out []Instr
	for {
		r.skipIgnored()
		c, ok := r.peek()
		if !ok || c == ')' || (stopAtSemicolon && c == ';') {
			if _, err := matchBrackets(out); err != nil {
				return nil, err
			}
			return out, nil
		}

		instr, err := r.readOne()
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
	}
}

func (r *reader) readOne() (Instr, error) {
	c, _ := r.peek()

	if isDigit(c) {
		n, err := r.readInt()
		if err != nil {
			return nil, err
		}
		c2, ok := r.peek()
		if ok && isIdentStart(c2) {
			return r.readNamed(n)
		}
		if ok && strings.IndexByte(rawOps, c2) >= 0 {
			r.pos++
			return Op{Char: c2, Count: n}, nil
		}
		return nil, &ParseError{Msg: "expected an instruction or identifier after count", Pos: r.pos}
	}

	if isIdentStart(c) {
		return r.readNamed(1)
	}

	if strings.IndexByte(rawOps, c) >= 0 {
		r.pos++
		return Op{Char: c, Count: 1}, nil
	}

	return nil, &ParseError{Msg: "unrecognized character", Pos: r.pos}
}

// readNamed reads an identifier and dispatches to the structural forms
// (repeat/while/ifel) or a plain built-in Call, wrapping the structural
// forms in a Repeat if count != 1 the way "N repeat(...)" already does
// natively and "N name(...)" would for any other named form.
func (r *reader) readNamed(count int) (Instr, error) {
	name := r.readIdent()
	r.skipIgnored()
	if c, ok := r.peek(); !ok || c != '(' {
		return nil, &ParseError{Msg: "expected '(' after " + name, Pos: r.pos}
	}
	r.pos++

	var inner Instr
	var err error
	switch name {
	case "repeat":
		body, e := r.readBody(false)
		if e != nil {
			return nil, e
		}
		if err = r.expect(')'); err != nil {
			return nil, err
		}
		inner = Repeat{Count: count, Body: body}
		return inner, nil
	case "while":
		setup, e := r.readBody(true)
		if e != nil {
			return nil, e
		}
		if err = r.expect(';'); err != nil {
			return nil, err
		}
		body, e := r.readBody(false)
		if e != nil {
			return nil, e
		}
		if err = r.expect(')'); err != nil {
			return nil, err
		}
		inner = While{Setup: setup, Body: body}
	case "ifel":
		trueBody, e := r.readBody(true)
		if e != nil {
			return nil, e
		}
		if err = r.expect(';'); err != nil {
			return nil, err
		}
		falseBody, e := r.readBody(false)
		if e != nil {
			return nil, e
		}
		if err = r.expect(')'); err != nil {
			return nil, err
		}
		inner = Ifel{TrueBody: trueBody, FalseBody: falseBody}
	default:
		args, e := r.readArgs()
		if e != nil {
			return nil, e
		}
		inner = Call{Name: name, Args: args}
	}

	if count != 1 {
		return Repeat{Count: count, Body: []Instr{inner}}, nil
	}
	return inner, nil
}

func (r *reader) readArgs() ([]int, error) {
	var args []int
	r.skipIgnored()
	if c, ok := r.peek(); ok && c == ')' {
		r.pos++
		return args, nil
	}
	for {
		r.skipIgnored()
		n, err := r.readInt()
		if err != nil {
			return nil, err
		}
		args = append(args, n)
		r.skipIgnored()
		c, ok := r.peek()
		if !ok {
			return nil, &ParseError{Msg: "unterminated argument list", Pos: r.pos}
		}
		if c == ';' {
			r.pos++
			continue
		}
		if c == ')' {
			r.pos++
			return args, nil
		}
		return nil, &ParseError{Msg: "expected ';' or ')' in argument list", Pos: r.pos}
	}
}

func (r *reader) expect(c byte) error {
	r.skipIgnored()
	got, ok := r.peek()
	if !ok || got != c {
		return &ParseError{Msg: "expected '" + string(c) + "'", Pos: r.pos}
	}
	r.pos++
	return nil
}

func (r *reader) readInt() (int, error) {
	start := r.pos
	for {
		c, ok := r.peek()
		if !ok || !isDigit(c) {
			break
		}
		r.pos++
	}
	if r.pos == start {
		return 0, &ParseError{Msg: "expected a decimal literal", Pos: r.pos}
	}
	n := 0
	for _, c := range []byte(r.src[start:r.pos]) {
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func (r *reader) readIdent() string {
	start := r.pos
	for {
		c, ok := r.peek()
		if !ok || !(isIdentStart(c) || isDigit(c)) {
			break
		}
		r.pos++
	}
	return r.src[start:r.pos]
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' }
