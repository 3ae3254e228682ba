package grammar

import "fmt"

// Kind is the tag of a grammar Node, one of the five production-rule
// fragment shapes named in the data model: Terminal, RuleRef, Concat,
// Alter, Count.
type Kind int

const (
	KindTerminal Kind = iota
	KindRuleRef
	KindConcat
	KindAlter
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "Terminal"
	case KindRuleRef:
		return "RuleRef"
	case KindConcat:
		return "Concat"
	case KindAlter:
		return "Alter"
	case KindCount:
		return "Count"
	default:
		return "?"
	}
}

// Cardinality is how many times a Count node's inner fragment may repeat.
type Cardinality int

const (
	ZeroOrOne Cardinality = iota
	ZeroOrMany
	One
	OneOrMany
)

func (c Cardinality) String() string {
	switch c {
	case ZeroOrOne:
		return "?"
	case ZeroOrMany:
		return "*"
	case One:
		return ""
	case OneOrMany:
		return "+"
	default:
		return "?!?"
	}
}

// NodeID is an index into a Grammar's arena. NilNode (-1) never refers to a
// real node.
type NodeID int

// NilNode is the sentinel NodeID meaning "no node", used for a RuleRef whose
// spec has been declared (for forward reference) but not yet set.
const NilNode NodeID = -1

// Node is one fragment of a grammar production, tagged by Kind. Only the
// fields relevant to the tagged Kind are meaningful; this mirrors the source
// system's tagged-variant Matcher design (see internal/parser) rather than
// using five separate Go types, so that the arena can be a flat
// []Node indexed by NodeID even though RuleRef specs may cycle back through
// Concat/Alter ancestors.
type Node struct {
	Kind Kind

	// KindTerminal
	Pattern Pattern

	// KindRuleRef
	Name string
	Spec NodeID // NilNode until the rule's definition has been attached

	// KindConcat, KindAlter
	Parts []NodeID

	// KindCount
	Inner       NodeID
	Cardinality Cardinality
}

// Grammar is an immutable, possibly-cyclic graph of Nodes rooted at Start,
// shared-immutable across every Parser built from it. A Grammar always
// matches an implicit end-of-input terminal immediately after Start, so a
// successful parse is guaranteed to have consumed the entire token stream.
type Grammar struct {
	arena []Node
	Start NodeID
}

// Node returns the Node stored at id.
func (g *Grammar) Node(id NodeID) Node {
	return g.arena[id]
}

// Len returns the number of nodes in the grammar's arena.
func (g *Grammar) Len() int {
	return len(g.arena)
}

// Builder incrementally constructs a Grammar's node arena. RuleRefs may be
// declared by name before their production is known (Rule), then given a
// spec later (SetRule); this two-phase dance is what lets a RuleRef's own
// spec subtree reference the RuleRef itself or any ancestor.
type Builder struct {
	nodes  []Node
	byName map[string]NodeID
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]NodeID)}
}

func (b *Builder) push(n Node) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, n)
	return id
}

// Terminal adds a Terminal node matching p.
func (b *Builder) Terminal(p Pattern) NodeID {
	return b.push(Node{Kind: KindTerminal, Pattern: p})
}

// Rule returns the NodeID of the named rule, creating an as-yet-unspecified
// RuleRef for it (Spec == NilNode) the first time it is requested. Calling
// Rule again with the same name returns the same NodeID, which is how two
// mutually-recursive rules reference each other before either's SetRule call
// has run.
func (b *Builder) Rule(name string) NodeID {
	if id, ok := b.byName[name]; ok {
		return id
	}
	id := b.push(Node{Kind: KindRuleRef, Name: name, Spec: NilNode})
	b.byName[name] = id
	return id
}

// SetRule attaches spec as the production for the rule previously returned
// by Rule(name). It panics if name was never declared via Rule, or if it has
// already been given a spec: every RuleRef name must be unique within its
// grammar and defined exactly once.
func (b *Builder) SetRule(name string, spec NodeID) {
	id, ok := b.byName[name]
	if !ok {
		panic(fmt.Sprintf("grammar: rule %q was never declared with Rule() before SetRule", name))
	}
	if b.nodes[id].Spec != NilNode {
		panic(fmt.Sprintf("grammar: rule %q already has a spec attached", name))
	}
	n := b.nodes[id]
	n.Spec = spec
	b.nodes[id] = n
}

// Concat adds a Concat node requiring each part to match, in order.
func (b *Builder) Concat(parts ...NodeID) NodeID {
	return b.push(Node{Kind: KindConcat, Parts: append([]NodeID(nil), parts...)})
}

// Alter adds an Alter node trying each alternative in declaration order.
func (b *Builder) Alter(alts ...NodeID) NodeID {
	return b.push(Node{Kind: KindAlter, Parts: append([]NodeID(nil), alts...)})
}

// Count adds a Count node wrapping inner with the given Cardinality.
func (b *Builder) Count(inner NodeID, card Cardinality) NodeID {
	return b.push(Node{Kind: KindCount, Inner: inner, Cardinality: card})
}

// Grammar finalizes the builder into a Grammar rooted at start, wrapping it
// in an implicit trailing end-of-input terminal as required by the data
// model: the returned Grammar's Start node is a Concat of (start, EOF).
func (b *Builder) Grammar(start NodeID) *Grammar {
	eof := b.Terminal(ClassPattern(ClassEOF))
	wrapped := b.Concat(start, eof)
	return &Grammar{arena: b.nodes, Start: wrapped}
}
