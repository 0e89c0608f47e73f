package hir

// ReactiveScope is a group of values computed together. Range contains the
// mutable range of every member identifier. Dependencies and Outputs are
// filled by later stages.
type ReactiveScope struct {
	ID           ScopeID
	Range        MutableRange
	Members      []*Identifier
	Dependencies []Place
	Outputs      []*Identifier
}
