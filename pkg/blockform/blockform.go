// Package blockform partitions a routine's linear instruction stream into
// basic blocks using the leader rules of spec.md §4.2. The algorithm shape
// — drain a linear stream into a current-block accumulator, cut a new
// block at each leader — mirrors Mk_blk() in the reference generator; the
// block-ordering/labeling split of the reference linearizer informed the
// separate "form, then hand the routine its block list" structure below.
package blockform

import (
	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
)

const passName = "blockform"

// Form partitions stream into basic blocks per the leader rules:
//   - the first instruction of the routine is always a leader;
//   - a label (lbl) is always a leader;
//   - the instruction immediately following a terminator is a leader.
//
// A block is always closed after a terminator, even if the next
// instruction is also a leader for another reason. An empty stream is
// EmptyRoutine.
func Form(routineName string, stream []*ir.Instruction) ([]*ir.BasicBlock, error) {
	if len(stream) == 0 {
		return nil, diag.New(diag.KindEmptyRoutine, passName, routineName, "routine has no instructions")
	}

	var blocks []*ir.BasicBlock
	cur := &ir.BasicBlock{}
	afterTerminator := false

	for i, inst := range stream {
		isLeader := i == 0 || inst.Op.IsLabel() || afterTerminator
		if isLeader && len(cur.Instrs) > 0 {
			blocks = append(blocks, cur)
			cur = &ir.BasicBlock{}
		}
		cur.Append(inst)
		afterTerminator = inst.Op.IsTerminator()
		if afterTerminator {
			blocks = append(blocks, cur)
			cur = &ir.BasicBlock{}
		}
	}

	if len(cur.Instrs) > 0 {
		blocks = append(blocks, cur)
	}

	for _, b := range blocks {
		if len(b.Instrs) == 0 {
			return nil, diag.New(diag.KindEmptyBlock, passName, routineName, "block former produced an empty block")
		}
	}

	return blocks, nil
}

// FormRoutine runs Form over r's existing blocks' instructions flattened
// back into a stream (used when a routine was built block-by-block by a
// front end but still needs leader-rule renormalization) and installs the
// result. Most callers that already have a flat stream should call Form
// directly and then r.SetBlocks(blocks).
func FormRoutine(r *ir.Routine) error {
	var stream []*ir.Instruction
	for _, b := range r.Blocks() {
		stream = append(stream, b.Instrs...)
	}
	blocks, err := Form(r.Name(), stream)
	if err != nil {
		return err
	}
	r.SetBlocks(blocks)
	return nil
}
