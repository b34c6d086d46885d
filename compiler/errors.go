package compiler

import "errors"

// Error taxonomy (spec.md §7). Each is a distinct sentinel tested with
// errors.Is; callers get a descriptive wrapped message via fmt.Errorf's
// %w, gosbee's idiom throughout managers/*.go.
var (
	// ErrRelation marks a referenced table lacking a name.
	ErrRelation = errors.New("compiler: relation error")
	// ErrInternal marks a Select invariant violation.
	ErrInternal = errors.New("compiler: internal error")
	// ErrUnsupported marks a query shape the compiler does not implement.
	ErrUnsupported = errors.New("compiler: unsupported")
	// ErrLookup marks a column reference whose relation has no alias
	// when aliases are required.
	ErrLookup = errors.New("compiler: lookup error")
)
