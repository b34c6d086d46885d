package ir

// Equals reports whether a and b are structurally equal IR nodes: same
// kind, same scalar fields, and recursively-equal children. Two distinct
// node instances built from the same logical tree compare equal; this
// backs Select.Equals and the idempotency property it supports.
func Equals(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case *PhysicalTable:
		bv, ok := b.(*PhysicalTable)
		return ok && av.Name == bv.Name && columnsEqual(av.Columns, bv.Columns)
	case *SelfReference:
		bv, ok := b.(*SelfReference)
		return ok && Equals(av.Table, bv.Table)
	case *Projection:
		bv, ok := b.(*Projection)
		return ok && Equals(av.Table, bv.Table) && nodeSliceEquals(av.Selections, bv.Selections)
	case *Aggregation:
		bv, ok := b.(*Aggregation)
		return ok && Equals(av.Table, bv.Table) &&
			scalarSliceEquals(av.By, bv.By) &&
			scalarSliceEquals(av.AggExprs, bv.AggExprs) &&
			scalarSliceEquals(av.Having, bv.Having)
	case *Filter:
		bv, ok := b.(*Filter)
		return ok && Equals(av.Table, bv.Table) && scalarSliceEquals(av.Predicates, bv.Predicates)
	case *Limit:
		bv, ok := b.(*Limit)
		return ok && Equals(av.Table, bv.Table) && av.N == bv.N && av.Offset == bv.Offset
	case *SortBy:
		bv, ok := b.(*SortBy)
		if !ok || len(av.Keys) != len(bv.Keys) || !Equals(av.Table, bv.Table) {
			return false
		}
		for i := range av.Keys {
			if av.Keys[i].Ascending != bv.Keys[i].Ascending || !Equals(av.Keys[i].Expr, bv.Keys[i].Expr) {
				return false
			}
		}
		return true
	case *Join:
		bv, ok := b.(*Join)
		return ok && av.Kind == bv.Kind && Equals(av.Left, bv.Left) && Equals(av.Right, bv.Right) &&
			scalarSliceEquals(av.Predicates, bv.Predicates)
	case *MaterializedJoin:
		bv, ok := b.(*MaterializedJoin)
		return ok && av.Kind == bv.Kind && Equals(av.Left, bv.Left) && Equals(av.Right, bv.Right) &&
			scalarSliceEquals(av.Predicates, bv.Predicates)
	case *Literal:
		bv, ok := b.(*Literal)
		return ok && av.Value == bv.Value
	case *Parameter:
		bv, ok := b.(*Parameter)
		return ok && av.Name == bv.Name
	case *TableColumn:
		bv, ok := b.(*TableColumn)
		return ok && av.Name == bv.Name && av.Alias == bv.Alias && Equals(av.Table, bv.Table)
	case *UnaryOp:
		bv, ok := b.(*UnaryOp)
		return ok && av.Op == bv.Op && Equals(av.Arg, bv.Arg)
	case *BinaryOp:
		bv, ok := b.(*BinaryOp)
		return ok && av.Op == bv.Op && Equals(av.Left, bv.Left) && Equals(av.Right, bv.Right)
	case *Cast:
		bv, ok := b.(*Cast)
		return ok && av.TargetType == bv.TargetType && Equals(av.Value, bv.Value)
	default:
		return a == b
	}
}

func columnsEqual(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func nodeSliceEquals(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equals(a[i], b[i]) {
			return false
		}
	}
	return true
}

func scalarSliceEquals(a, b []Scalar) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equals(a[i], b[i]) {
			return false
		}
	}
	return true
}
