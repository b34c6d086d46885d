package ir

// LimitSpec is a collected LIMIT/OFFSET pair.
type LimitSpec struct {
	N      int
	Offset int
}

// Modifiers is the result of CollectModifiers: the filters, limit, and
// sort keys shed from a stack of Filter/Limit/SortBy wrappers.
type Modifiers struct {
	Filters []Scalar
	Limit   *LimitSpec
	SortBy  []SortKey
}

// CollectModifiers walks down through a stack of Filter/Limit/SortBy
// wrappers around rel, accumulating their modifiers. Filters AND-compose
// regardless of position. Per spec.md §9's "modifier shedding loop" note,
// the last Limit and the last SortBy encountered during the walk win —
// here, the walk proceeds outer-to-inner, so the innermost (deepest)
// Limit/SortBy overrides any shallower one; callers must call this
// rather than re-deriving the rule.
func CollectModifiers(rel Relation) Modifiers {
	var m Modifiers
	for {
		switch r := rel.(type) {
		case *Filter:
			m.Filters = append(m.Filters, r.Predicates...)
			rel = r.Table
		case *Limit:
			spec := LimitSpec{N: r.N, Offset: r.Offset}
			m.Limit = &spec
			rel = r.Table
		case *SortBy:
			m.SortBy = r.Keys
			rel = r.Table
		default:
			return m
		}
	}
}

// Unwrap strips a single layer of Filter/Limit/SortBy from rel, returning
// the inner table and true, or rel unchanged and false if rel is not a
// modifier wrapper.
func Unwrap(rel Relation) (Relation, bool) {
	switch r := rel.(type) {
	case *Filter:
		return r.Table, true
	case *Limit:
		return r.Table, true
	case *SortBy:
		return r.Table, true
	default:
		return rel, false
	}
}
