// Package liveness walks each basic block backward, annotating the
// used_next bit the emitter relies on and pruning instructions whose only
// result is a dead temporary. It is a direct port of the opcode-class
// switch and rolling arg1/arg2 handles in the reference generator's
// Liveness(blk_pt) — the classification table in spec.md §4.3 is that
// function's logic, generalised off its original opcode set.
package liveness

import (
	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
)

const passName = "liveness"

// Run analyses every block of r, mutating instructions in place (setting
// UsedNext/*Live) and removing dead-temp instructions from their block and
// from cont. An unknown opcode is UnknownOpcode and aborts the pass.
func Run(cont *ir.Container, r *ir.Routine) error {
	for _, block := range r.Blocks() {
		if err := runBlock(cont, block); err != nil {
			return err
		}
	}
	return nil
}

func runBlock(cont *ir.Container, block *ir.BasicBlock) error {
	var arg1, arg2 ir.Object

	for i := len(block.Instrs) - 1; i >= 0; i-- {
		inst := block.Instrs[i]
		class, ok := inst.Op.Class()
		if !ok {
			return diag.New(diag.KindUnknownOpcode, passName, "", "unrecognised opcode %v", inst.Op)
		}

		switch class {
		case ir.ClassNoArg:
			// no change

		case ir.ClassNoResult:
			if inst.Left != nil {
				inst.LeftLive = true
			}
			inst.UsedNext = false
			arg1, arg2 = inst.Left, nil

		case ir.ClassUnaryResult:
			if isDeadTemp(inst.Result, arg1, arg2) {
				block.RemoveAt(i)
				if err := cont.Remove(inst.Result.Name()); err != nil {
					return err
				}
				continue
			}
			inst.ResultLive = false
			if inst.Left != nil {
				inst.LeftLive = true
			}
			inst.UsedNext = sameObject(inst.Result, arg1) || sameObject(inst.Result, arg2)
			if inst.Op == ir.OpRef && inst.Right != nil {
				inst.RightLive = true
				arg1, arg2 = inst.Left, inst.Right
			} else {
				arg1, arg2 = inst.Left, nil
			}

		case ir.ClassBinaryResult:
			if isDeadTemp(inst.Result, arg1, arg2) {
				block.RemoveAt(i)
				if err := cont.Remove(inst.Result.Name()); err != nil {
					return err
				}
				continue
			}
			inst.ResultLive = false
			if inst.Left != nil {
				inst.LeftLive = true
			}
			if inst.Right != nil {
				inst.RightLive = true
			}
			inst.UsedNext = sameObject(inst.Result, arg1) || sameObject(inst.Result, arg2)
			arg1, arg2 = inst.Left, inst.Right
		}
	}

	return nil
}

// isDeadTemp reports whether inst's result is a temp whose value is not
// read by arg1/arg2 — the rolling handles recording what the
// next-processed (i.e. textually later) instruction reads.
func isDeadTemp(result, arg1, arg2 ir.Object) bool {
	if result == nil || result.Class() != ir.ClassTemp {
		return false
	}
	return !sameObject(result, arg1) && !sameObject(result, arg2)
}

func sameObject(a, b ir.Object) bool {
	if a == nil || b == nil {
		return false
	}
	return a == b
}
