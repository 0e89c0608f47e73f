package hir

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// BlockKind classifies blocks by the construct that produced them.
type BlockKind uint8

const (
	BlockStatement BlockKind = iota
	BlockValue               // part of a value-producing expression (logical, ternary)
	BlockLoop                // loop test or update
)

func (k BlockKind) String() string {
	switch k {
	case BlockValue:
		return "value"
	case BlockLoop:
		return "loop"
	default:
		return "block"
	}
}

// Phi defines Place.Identifier at block entry from one operand per
// predecessor.
type Phi struct {
	Place    Place
	Operands map[BlockID]*Identifier
}

// SortedOperands returns the operand predecessors in ascending order.
func (p *Phi) SortedOperands() []BlockID {
	keys := make([]BlockID, 0, len(p.Operands))
	for k := range p.Operands {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type BasicBlock struct {
	ID           BlockID
	Kind         BlockKind
	Instructions []*Instruction
	Terminal     Terminal
	Preds        []BlockID // sorted, no duplicates
	Phis         []*Phi
}

// AddPred inserts id into the predecessor set.
func (b *BasicBlock) AddPred(id BlockID) {
	i, found := slices.BinarySearch(b.Preds, id)
	if found {
		return
	}
	b.Preds = slices.Insert(b.Preds, i, id)
}

func (b *BasicBlock) HasPred(id BlockID) bool {
	_, found := slices.BinarySearch(b.Preds, id)
	return found
}

// HIR is the control-flow graph of one function: an arena of blocks keyed
// by id plus their reverse postorder.
type HIR struct {
	Entry  BlockID
	Blocks map[BlockID]*BasicBlock
	Order  []BlockID
}

func (h *HIR) Block(id BlockID) *BasicBlock {
	if h == nil || h.Blocks == nil {
		return nil
	}
	return h.Blocks[id]
}

// Ordered returns the blocks in reverse postorder.
func (h *HIR) Ordered() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(h.Order))
	for _, id := range h.Order {
		if b := h.Blocks[id]; b != nil {
			out = append(out, b)
		}
	}
	return out
}

// EachInstruction visits every instruction in block order.
func (h *HIR) EachInstruction(fn func(b *BasicBlock, instr *Instruction)) {
	for _, b := range h.Ordered() {
		for _, instr := range b.Instructions {
			fn(b, instr)
		}
	}
}

// NumberInstructions assigns instruction and terminal ids from 1 in block
// order.
func (h *HIR) NumberInstructions() error {
	n := 0
	nextID := func() (InstrID, error) {
		n++
		raw, err := safecast.Conv[int32](n)
		if err != nil {
			return 0, fmt.Errorf("hir: instruction id overflow: %w", err)
		}
		return InstrID(raw), nil
	}
	for _, b := range h.Ordered() {
		for _, instr := range b.Instructions {
			id, err := nextID()
			if err != nil {
				return err
			}
			instr.ID = id
		}
		id, err := nextID()
		if err != nil {
			return err
		}
		b.Terminal.ID = id
	}
	return nil
}
