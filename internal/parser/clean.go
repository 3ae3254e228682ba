package parser

// TailRewrite names a right-recursive tail-rule encoding, the usual way an
// EBNF-to-grammar translation renders `rule := term (op term)*` as two
// productions, `Rule := term Tail?` and `Tail := op term Tail?`, that Clean
// rewrites into the natural left-associative binary tree a hand-written
// parser would have produced directly.
type TailRewrite struct {
	// Rule is the repetition rule's name, e.g. "const_expr".
	Rule string
	// Tail is the name of the nested rule holding one more (op, term) pair
	// and, recursively, the rest of the chain, e.g. "const_expr_p".
	Tail string
}

// Clean rewrites every node in root whose name matches a TailRewrite's Rule
// into a left-associative tree of (left, operator, right) nodes, leaving
// every other node's shape untouched apart from recursing into its
// children. Clean is idempotent: a tree it has already rewritten is no
// longer in the raw tail-rule shape, so a second pass leaves it unchanged.
func Clean(root *CST, rewrites []TailRewrite) *CST {
	byRule := make(map[string]TailRewrite, len(rewrites))
	for _, r := range rewrites {
		byRule[r.Rule] = r
	}
	return clean(root, byRule)
}

func clean(node *CST, byRule map[string]TailRewrite) *CST {
	if node.Terminal {
		return node
	}
	if rw, ok := byRule[node.Name]; ok {
		if isRawTailShape(node, rw) {
			return rewriteTail(node, rw, byRule)
		}
		if len(node.Children) == 1 {
			return clean(node.Children[0], byRule)
		}
	}
	children := make([]*CST, len(node.Children))
	for i, c := range node.Children {
		children[i] = clean(c, byRule)
	}
	return Node(node.Name, children...)
}

// isRawTailShape reports whether node still has the shape a grammar
// described by TailRewrite produces directly: exactly (term, tail), with
// tail a Tail-named nonterminal rather than an already-folded operator leaf.
func isRawTailShape(node *CST, rw TailRewrite) bool {
	return len(node.Children) == 2 && !node.Children[1].Terminal && node.Children[1].Name == rw.Tail
}

func rewriteTail(node *CST, rw TailRewrite, byRule map[string]TailRewrite) *CST {
	left := clean(node.Children[0], byRule)
	ops, terms := flattenTail(node.Children[1], rw.Tail)
	result := left
	for i := range ops {
		result = Node(rw.Rule, result, clean(ops[i], byRule), clean(terms[i], byRule))
	}
	return result
}

// flattenTail walks a chain of Tail nodes, each either empty (the
// production's epsilon alternative) or (operator, term, nested-tail), and
// returns its operators and terms in left-to-right order.
func flattenTail(tailNode *CST, tailName string) (ops, terms []*CST) {
	cur := tailNode
	for cur != nil && !cur.Terminal && cur.Name == tailName && len(cur.Children) >= 2 {
		ops = append(ops, cur.Children[0])
		terms = append(terms, cur.Children[1])
		if len(cur.Children) >= 3 {
			cur = cur.Children[2]
		} else {
			cur = nil
		}
	}
	return ops, terms
}
