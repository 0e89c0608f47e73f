package hir

// IdentifierID, BlockID, InstrID, ScopeID and TypeVarID are arena keys
// allocated by an Environment. They are unique within one compilation,
// nested functions included.
type (
	IdentifierID int32
	BlockID      int32
	InstrID      int32
	ScopeID      int32
	TypeVarID    int32
)

const (
	NoBlockID BlockID = -1
	NoScopeID ScopeID = -1
)

func (id BlockID) Valid() bool { return id >= 0 }
func (id ScopeID) Valid() bool { return id >= 0 }
