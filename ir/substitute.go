package ir

// SubstituteParents normalizes expr before compilation, memoizing results
// in memo so repeated substitutions of the same node are idempotent.
// spec.md treats parent substitution as an IR-level normalization owned
// by the expression layer; this representation carries no parent
// back-references for it to rewrite, so the operation degenerates to a
// memoized identity — the memo table is still threaded through exactly
// as the external contract (and the original compiler's
// substitute_memo) expects, so a richer IR could slot in real rewriting
// here without changing QueryASTBuilder's call site.
func SubstituteParents(expr Node, memo map[Node]Node) Node {
	if memo == nil {
		return expr
	}
	if existing, ok := memo[expr]; ok {
		return existing
	}
	memo[expr] = expr
	return expr
}
