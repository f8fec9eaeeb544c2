package ir

// Instruction is a three-address quadruple: an opcode plus up to three
// operand handles (result/destination, left/source, right). Handles are
// non-owning references into the container; unused slots are left nil.
//
// UsedNext means "the result operand is referenced by a later instruction
// in the same block" — it is set by the liveness pass and consumed by the
// emitter to decide whether a value must be flushed to memory.
//
// ResultLive/LeftLive/RightLive record, for each occupied slot, whether
// that operand was live at the point the liveness pass visited this
// instruction; they are meaningless before liveness has run.
type Instruction struct {
	Op     Opcode
	Result Object
	Left   Object
	Right  Object

	// Target carries a label/routine name for control-flow opcodes (lbl's
	// own label, jmp/jz/loop's destination, call's callee) — these are
	// names, not IR objects, since spec.md's storage-class enumeration has
	// no variant for code labels.
	Target string

	UsedNext   bool
	ResultLive bool
	LeftLive   bool
	RightLive  bool
}

// NewInstruction builds an instruction with the given opcode and operands.
// Callers pass nil for unused slots.
func NewInstruction(op Opcode, result, left, right Object) *Instruction {
	return &Instruction{Op: op, Result: result, Left: left, Right: right}
}

// BasicBlock is a non-empty ordered sequence of instructions with exactly
// one leader at the head and at most one terminator at the tail.
type BasicBlock struct {
	Instrs []*Instruction
}

// Append adds an instruction to the end of the block, preserving order.
func (b *BasicBlock) Append(i *Instruction) {
	b.Instrs = append(b.Instrs, i)
}

// RemoveAt deletes the instruction at index i, preserving the order of the
// rest. Used exclusively by the liveness pass to prune dead-temp results.
func (b *BasicBlock) RemoveAt(i int) {
	b.Instrs = append(b.Instrs[:i], b.Instrs[i+1:]...)
}

// Leader returns the block's first instruction, or nil if empty.
func (b *BasicBlock) Leader() *Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[0]
}

// Terminator returns the block's last instruction if it is a terminator
// opcode, or nil otherwise.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if last.Op.IsTerminator() {
		return last
	}
	return nil
}
