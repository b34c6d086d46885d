package ir

// RootTables returns the base relations feeding rel, in left-to-right
// depth-first order, for QueryContext alias allocation. Filter/Limit/
// SortBy/Projection/Aggregation/SelfReference are transparent passthroughs
// to their single Table; a (Materialized)Join contributes its left and
// right subtrees in order.
func RootTables(rel Relation) []Relation {
	switch r := rel.(type) {
	case nil:
		return nil
	case *PhysicalTable:
		return []Relation{r}
	case *SelfReference:
		return RootTables(r.Table)
	case *Projection:
		return RootTables(r.Table)
	case *Aggregation:
		return RootTables(r.Table)
	case *Filter:
		return RootTables(r.Table)
	case *Limit:
		return RootTables(r.Table)
	case *SortBy:
		return RootTables(r.Table)
	case *Join:
		return append(RootTables(r.Left), RootTables(r.Right)...)
	case *MaterializedJoin:
		return append(RootTables(r.Left), RootTables(r.Right)...)
	default:
		return []Relation{rel}
	}
}

// SourceTables returns the distinct relations a scalar expression
// transitively references, in first-encountered order. It backs the
// "a bare value expression depends on exactly one table" simplifying
// assumption spec.md §4.4 step 1 inherits from the original compiler's
// _get_source_table_expr.
func SourceTables(n Node) []Relation {
	seen := make(map[Relation]bool)
	var order []Relation
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case nil:
			return
		case Relation:
			if !seen[v] {
				seen[v] = true
				order = append(order, v)
			}
		case *TableColumn:
			walk(v.Table)
		case *UnaryOp:
			walk(v.Arg)
		case *BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case *Cast:
			walk(v.Value)
		}
	}
	walk(n)
	return order
}
