package parser

import "github.com/dekarrin/varfuck/internal/grammar"

// matcher is the common shape of every grammar-node matcher: start() opens a
// new attempt frame (pushed onto the matcher's own per-depth stack, to
// support re-entering the same matcher recursively through a grammar cycle),
// and next() enumerates successive alternative matches within the
// most-recently-opened frame, popping it and reporting failure once
// exhausted.
//
// next() returns (children, true, nil) on a successful match, (nil, false,
// nil) when the current frame is exhausted (an ordinary backtracking
// failure), and (nil, false, err) when a non-recoverable error occurred
// (LexError or left-recursion) that should unwind the whole parse rather
// than be retried.
type matcher interface {
	start()
	next() ([]*CST, bool, error)
}

func flatten(groups [][]*CST) []*CST {
	var out []*CST
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// recursionGuard traps runaway recursive descent: a RuleMatcher increments it
// on entry and decrements on exit, and a count past MaxDepth is reported as
// left-recursion rather than recursing until the process runs out of stack.
type recursionGuard struct {
	depth int
	max   int
}

func newRecursionGuard(max int) *recursionGuard {
	if max <= 0 {
		max = 5000
	}
	return &recursionGuard{max: max}
}

func (g *recursionGuard) enter() error {
	g.depth++
	if g.depth > g.max {
		return NewSyntaxError(ErrLeftRecursion)
	}
	return nil
}

func (g *recursionGuard) leave() {
	g.depth--
}

// literalMatcher matches a single token against a Pattern. Each attempt
// frame yields its one possible match exactly once; asking again without an
// intervening start() reports exhaustion, which is what lets a surrounding
// Concat or Count back this matcher off a repetition instead of looping on
// the same success forever.
type literalMatcher struct {
	lex     grammar.Lexer
	pattern grammar.Pattern
	forget  bool

	positions []int
	consumed  []bool
}

func (m *literalMatcher) start() {
	m.positions = append(m.positions, m.lex.Mark())
	m.consumed = append(m.consumed, false)
}

func (m *literalMatcher) next() ([]*CST, bool, error) {
	n := len(m.positions)
	if n == 0 {
		return nil, false, nil
	}
	pos := m.positions[n-1]
	if m.consumed[n-1] {
		m.lex.Reset(pos)
		m.positions = m.positions[:n-1]
		m.consumed = m.consumed[:n-1]
		return nil, false, nil
	}
	m.lex.Reset(pos)
	tok, err := m.lex.Next()
	if err != nil {
		m.positions = m.positions[:n-1]
		m.consumed = m.consumed[:n-1]
		return nil, false, err
	}
	m.consumed[n-1] = true
	if m.pattern.Matches(tok) {
		if m.forget {
			return []*CST{}, true, nil
		}
		return []*CST{Leaf(tok)}, true, nil
	}
	m.lex.Reset(pos)
	m.positions = m.positions[:n-1]
	m.consumed = m.consumed[:n-1]
	return nil, false, nil
}

// epsilonMatcher matches the empty string exactly once per attempt frame:
// the matcher for a Concat node with no parts, i.e. the epsilon alternative
// of an Alter used to encode an optional or recursive-tail production.
type epsilonMatcher struct {
	consumed []bool
}

func (m *epsilonMatcher) start() {
	m.consumed = append(m.consumed, false)
}

func (m *epsilonMatcher) next() ([]*CST, bool, error) {
	n := len(m.consumed)
	if n == 0 {
		return nil, false, nil
	}
	if m.consumed[n-1] {
		m.consumed = m.consumed[:n-1]
		return nil, false, nil
	}
	m.consumed[n-1] = true
	return []*CST{}, true, nil
}

// concatMatcher matches `this` followed by `next` (nil when this is the last
// element of the sequence), retrying `this` for an alternate match whenever
// `next` is exhausted, and re-opening `next` fresh each time `this` advances.
type concatMatcher struct {
	this  matcher
	nextM *concatMatcher

	level int
	built [][]*CST
}

func (m *concatMatcher) start() {
	m.level++
	m.this.start()
}

func (m *concatMatcher) next() ([]*CST, bool, error) {
	if len(m.built) != m.level {
		res, ok, err := m.this.next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			m.level--
			return nil, false, nil
		}
		m.built = append(m.built, res)
		if m.nextM == nil {
			return m.built[len(m.built)-1], true, nil
		}
		m.nextM.start()
	}

	for {
		var (
			res []*CST
			ok  bool
			err error
		)
		if m.nextM != nil {
			res, ok, err = m.nextM.next()
			if err != nil {
				return nil, false, err
			}
		}
		if !ok {
			r, ok2, err2 := m.this.next()
			if err2 != nil {
				return nil, false, err2
			}
			if !ok2 {
				m.level--
				m.built = m.built[:len(m.built)-1]
				return nil, false, nil
			}
			m.built[len(m.built)-1] = r
			if m.nextM == nil {
				return m.built[len(m.built)-1], true, nil
			}
			m.nextM.start()
			continue
		}
		combined := append(append([]*CST{}, m.built[len(m.built)-1]...), res...)
		return combined, true, nil
	}
}

// alterMatcher tries `this` first and, once it is exhausted, falls through
// to `next` (nil when this is the last alternative).
type alterMatcher struct {
	this  matcher
	nextM *alterMatcher

	level    int
	selected []bool
}

func (m *alterMatcher) start() {
	m.level++
	m.selected = append(m.selected, true)
	m.this.start()
}

func (m *alterMatcher) next() ([]*CST, bool, error) {
	if m.selected[len(m.selected)-1] {
		res, ok, err := m.this.next()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return res, true, nil
		}
		if m.nextM == nil {
			m.level--
			m.selected = m.selected[:len(m.selected)-1]
			return nil, false, nil
		}
		m.selected[len(m.selected)-1] = false
		m.nextM.start()
	}
	res, ok, err := m.nextM.next()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		m.level--
		m.selected = m.selected[:len(m.selected)-1]
	}
	return res, ok, nil
}

// countMatcher matches `inner` repeated according to card, greedily
// consuming as many repetitions as possible on the first attempt and
// backing off one repetition at a time on each subsequent retry, trying an
// alternate match for the repetition it just gave up before re-extending.
type countMatcher struct {
	inner matcher
	card  grammar.Cardinality

	level int
	data  [][][]*CST
}

func (m *countMatcher) start() {
	m.level++
}

func (m *countMatcher) requiresOne() bool {
	return m.card == grammar.One || m.card == grammar.OneOrMany
}

func (m *countMatcher) single() bool {
	return m.card == grammar.One || m.card == grammar.ZeroOrOne
}

func (m *countMatcher) next() ([]*CST, bool, error) {
	if len(m.data) != m.level {
		m.inner.start()
		res, ok, err := m.inner.next()
		if err != nil {
			return nil, false, err
		}
		var build [][]*CST
		if !ok {
			if m.requiresOne() {
				m.level--
				return nil, false, nil
			}
		} else if m.single() {
			build = append(build, res)
		} else {
			for ok {
				build = append(build, res)
				m.inner.start()
				res, ok, err = m.inner.next()
				if err != nil {
					return nil, false, err
				}
			}
		}
		m.data = append(m.data, build)
		return flatten(build), true, nil
	}

	build := m.data[len(m.data)-1]
	if len(build) == 0 {
		m.level--
		m.data = m.data[:len(m.data)-1]
		return nil, false, nil
	}
	build = build[:len(build)-1]
	res, ok, err := m.inner.next()
	if err != nil {
		return nil, false, err
	}
	if m.single() {
		if ok {
			build = append(build, res)
		}
	} else {
		for ok {
			build = append(build, res)
			m.inner.start()
			res, ok, err = m.inner.next()
			if err != nil {
				return nil, false, err
			}
		}
	}
	m.data[len(m.data)-1] = build
	if len(build) > 0 {
		return flatten(build), true, nil
	}
	if m.requiresOne() {
		m.level--
		m.data = m.data[:len(m.data)-1]
		return nil, false, nil
	}
	return []*CST{}, true, nil
}

// ruleMatcher wraps inner's result in a single Nonterminal CST node labelled
// name (unless forget is set, in which case the match succeeds but
// contributes no node to its parent), and guards against left-recursive
// re-entry via guard.
type ruleMatcher struct {
	name   string
	inner  matcher
	forget bool
	guard  *recursionGuard
}

func (m *ruleMatcher) start() {
	m.inner.start()
}

func (m *ruleMatcher) next() ([]*CST, bool, error) {
	if err := m.guard.enter(); err != nil {
		return nil, false, err
	}
	defer m.guard.leave()

	res, ok, err := m.inner.next()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if m.forget {
		return []*CST{}, true, nil
	}
	return []*CST{Node(m.name, res...)}, true, nil
}

// grammarMatcher is the whole-grammar entry point: a Parser only ever asks
// it for a single, leftmost match, so unlike every other matcher it opens
// its own frame itself rather than relying on a caller's start() call.
type grammarMatcher struct {
	inner matcher
}

func (m *grammarMatcher) start() {}

func (m *grammarMatcher) next() ([]*CST, bool, error) {
	m.inner.start()
	return m.inner.next()
}
