package x86

import (
	"fmt"

	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
)

var relSetCC = map[ir.Opcode]string{
	ir.OpEq:  "sete",
	ir.OpNeq: "setne",
	ir.OpLt:  "setl",
	ir.OpGt:  "setg",
	ir.OpLte: "setle",
	ir.OpGte: "setge",
}

// emitInst dispatches one instruction to its per-opcode emission rule
// (spec.md §4.5.5). This mirrors the reference generator's Gen_inst
// opcode switch.
func (c *Context) emitInst(inst *ir.Instruction) error {
	switch inst.Op {
	case ir.OpNop, ir.OpProc:
		return nil

	case ir.OpLbl:
		c.emit(inst.Target + ":")
		return nil
	case ir.OpJmp:
		c.emit("jmp " + inst.Target)
		return nil
	case ir.OpJz:
		if inst.Left != nil {
			if err := c.Load(RegA, inst.Left); err != nil {
				return err
			}
		}
		c.emit("test al, al")
		c.emit("jz " + inst.Target)
		return nil
	case ir.OpLoop:
		c.emit("loop " + inst.Target)
		return nil

	case ir.OpRtrn:
		if inst.Left != nil {
			if err := c.Load(RegA, inst.Left); err != nil {
				return err
			}
		}
		for _, line := range c.Frame.Epilogue() {
			c.emit(line)
		}
		return nil

	case ir.OpParm:
		text, err := c.operandText(inst.Left)
		if err != nil {
			return err
		}
		c.emit(fmt.Sprintf("push %s", text))
		return nil

	case ir.OpCall:
		c.emit(fmt.Sprintf("call %s", inst.Target))
		if inst.Result != nil {
			c.Desc.SetValue(RegA, inst.Result)
			if !inst.UsedNext {
				return c.finishResult(inst, RegA)
			}
		}
		return nil

	case ir.OpAss:
		return c.emitAss(inst)
	case ir.OpCpy:
		dst, err := c.homeText(inst.Result)
		if err != nil {
			return err
		}
		src, err := c.homeText(inst.Left)
		if err != nil {
			return err
		}
		return c.emitByteCopy(dst, src, inst.Result.Size())

	case ir.OpInc:
		return c.emitIncDec(inst, "inc")
	case ir.OpDec:
		return c.emitIncDec(inst, "dec")

	case ir.OpNeg:
		return c.emitUnary(inst, "neg")
	case ir.OpNot, ir.OpInv:
		return c.emitUnary(inst, "not")

	case ir.OpAdd:
		return c.emitBinary(inst, "add")
	case ir.OpSub:
		return c.emitBinary(inst, "sub")
	case ir.OpBand:
		return c.emitBinary(inst, "and")
	case ir.OpBor:
		return c.emitBinary(inst, "or")
	case ir.OpXor:
		return c.emitBinary(inst, "xor")
	case ir.OpAnd:
		return c.emitBinary(inst, "and")
	case ir.OpOr:
		return c.emitBinary(inst, "or")

	case ir.OpLsh:
		return c.emitShift(inst, "shl")
	case ir.OpRsh:
		return c.emitShift(inst, "shr")
	case ir.OpRol:
		return c.emitShift(inst, "rol")
	case ir.OpRor:
		return c.emitShift(inst, "ror")

	case ir.OpMul:
		return c.emitMul(inst)
	case ir.OpDiv:
		return c.emitDivMod(inst, false)
	case ir.OpMod:
		return c.emitDivMod(inst, true)

	case ir.OpEq, ir.OpNeq, ir.OpLt, ir.OpGt, ir.OpLte, ir.OpGte:
		return c.emitRelational(inst)

	case ir.OpRef:
		return c.emitRef(inst)
	case ir.OpDref:
		return c.emitDref(inst)
	case ir.OpSz:
		return c.emitSz(inst)

	default:
		return diag.New(diag.KindUnknownOpcode, passName, "", "opcode %v has no emission rule", inst.Op)
	}
}

func resultWidth(inst *ir.Instruction) uint64 {
	if inst.Result != nil && inst.Result.Sized() {
		return inst.Result.Size()
	}
	if inst.Left != nil && inst.Left.Sized() {
		return inst.Left.Size()
	}
	return 4
}

// finishResult implements the push-to-temp-stack-or-store rule that
// follows every result-producing opcode: used_next = false triggers a
// stash (for a temp result, which has no home) or a store (for anything
// memory-backed).
func (c *Context) finishResult(inst *ir.Instruction, reg Reg) error {
	if inst.Result == nil {
		return nil
	}
	c.Desc.SetValue(reg, inst.Result)
	if inst.UsedNext {
		return nil
	}
	if inst.Result.Class() == ir.ClassTemp {
		return c.Stash(reg)
	}
	return c.Store(reg)
}

func (c *Context) emitBinary(inst *ir.Instruction, mnemonic string) error {
	if err := c.Load(RegA, inst.Left); err != nil {
		return err
	}
	rhs, err := c.operandText(inst.Right)
	if err != nil {
		return err
	}
	c.emit(fmt.Sprintf("%s %s, %s", mnemonic, RegA.Name(resultWidth(inst)), rhs))
	return c.finishResult(inst, RegA)
}

func (c *Context) emitUnary(inst *ir.Instruction, mnemonic string) error {
	if err := c.Load(RegA, inst.Left); err != nil {
		return err
	}
	c.emit(fmt.Sprintf("%s %s", mnemonic, RegA.Name(resultWidth(inst))))
	return c.finishResult(inst, RegA)
}

func (c *Context) emitIncDec(inst *ir.Instruction, mnemonic string) error {
	target := inst.Left
	if target == nil {
		target = inst.Result
	}
	reg, ok := c.Desc.FindValue(target)
	if !ok {
		reg = RegA
		if err := c.Load(RegA, target); err != nil {
			return err
		}
	}
	c.emit(fmt.Sprintf("%s %s", mnemonic, reg.Name(target.Size())))
	c.Desc.SetValue(reg, target)
	if inst.UsedNext {
		return nil
	}
	if target.Class() == ir.ClassTemp {
		return c.Stash(reg)
	}
	return c.Store(reg)
}

func (c *Context) emitShift(inst *ir.Instruction, mnemonic string) error {
	if err := c.Load(RegA, inst.Left); err != nil {
		return err
	}
	if p, ok := inst.Right.(*ir.Prime); ok && p.Class() == ir.ClassConst && p.HasValue() {
		c.emit(fmt.Sprintf("%s %s, 0x%x", mnemonic, RegA.Name(resultWidth(inst)), p.Value()))
	} else {
		if err := c.Load(RegC, inst.Right); err != nil {
			return err
		}
		c.emit(fmt.Sprintf("%s %s, cl", mnemonic, RegA.Name(resultWidth(inst))))
	}
	return c.finishResult(inst, RegA)
}

func primeSigned(obj ir.Object) bool {
	if p, ok := obj.(*ir.Prime); ok {
		return p.SignedSet() && p.Signed()
	}
	return false
}

// emitMul loads the right operand (the multiplier) into C first (the original's mul() does
// load(C, right) before mul cl/cx/ecx): NASM's one-operand mul/imul has no
// immediate form, so a const right operand must be materialized into a
// register, and a memory operand would otherwise need an explicit size
// qualifier this avoids entirely.
func (c *Context) emitMul(inst *ir.Instruction) error {
	if err := c.Load(RegA, inst.Left); err != nil {
		return err
	}
	if err := c.Load(RegC, inst.Right); err != nil {
		return err
	}
	mnemonic := "mul"
	if primeSigned(inst.Left) || primeSigned(inst.Right) {
		mnemonic = "imul"
	}
	c.emit(fmt.Sprintf("%s %s", mnemonic, RegC.Name(resultWidth(inst))))
	return c.finishResult(inst, RegA)
}

// emitDivMod loads the divisor into C first, for the same reason emitMul
// does: one-operand div/idiv takes no immediate.
func (c *Context) emitDivMod(inst *ir.Instruction, isMod bool) error {
	if err := c.Load(RegA, inst.Left); err != nil {
		return err
	}
	w := resultWidth(inst)
	c.emit(fmt.Sprintf("xor %s, %s", RegD.Name(w), RegD.Name(w)))
	if err := c.Load(RegC, inst.Right); err != nil {
		return err
	}
	mnemonic := "div"
	if primeSigned(inst.Left) || primeSigned(inst.Right) {
		mnemonic = "idiv"
	}
	c.emit(fmt.Sprintf("%s %s", mnemonic, RegC.Name(w)))
	resultReg := RegA
	if isMod {
		resultReg = RegD
	}
	return c.finishResult(inst, resultReg)
}

func (c *Context) emitRelational(inst *ir.Instruction) error {
	if err := c.Load(RegA, inst.Left); err != nil {
		return err
	}
	rhs, err := c.operandText(inst.Right)
	if err != nil {
		return err
	}
	opWidth := inst.Left.Size()
	c.emit(fmt.Sprintf("cmp %s, %s", RegA.Name(opWidth), rhs))
	setcc, ok := relSetCC[inst.Op]
	if !ok {
		return diag.New(diag.KindUnknownOpcode, passName, "", "no setcc mapping for %v", inst.Op)
	}
	c.emit(fmt.Sprintf("%s al", setcc))
	if w := resultWidth(inst); w > 1 {
		c.emit(fmt.Sprintf("movzx %s, al", RegA.Name(w)))
	}
	return c.finishResult(inst, RegA)
}

// elementSize returns the per-element byte size used to scale an index
// into obj, which must be an Array.
func elementSize(obj ir.Object) (uint64, error) {
	arr, ok := obj.(*ir.Array)
	if !ok {
		return 0, diag.New(diag.KindBadCast, passName, obj.Name(), "indexed ref target is not an array")
	}
	if arr.Child() == nil || !arr.Child().Sized() {
		return 0, diag.New(diag.KindBadCast, passName, obj.Name(), "array child has no resolved size")
	}
	return arr.Child().Size(), nil
}

func validScale(n uint64) bool {
	switch n {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// emitRef loads an effective address: for a scalar, the home slot's
// address into SI; for an indexed array, an LEA combining the base with
// a scaled index, falling back to an explicit multiply when the element
// size isn't an LEA-representable scale factor (spec.md §4.5.3, §4.5.5's
// ref rule). An indexed ref on anything other than an array (a struct
// included) fails with BadCast in elementSize.
func (c *Context) emitRef(inst *ir.Instruction) error {
	ptrW := c.Mode.PointerSize()

	if inst.Right == nil {
		home, err := c.homeText(inst.Left)
		if err != nil {
			return err
		}
		c.emit(fmt.Sprintf("lea %s, %s", RegSI.Name(ptrW), home))
		return c.finishRef(inst)
	}

	base := inst.Left.Name()
	elemSize, err := elementSize(inst.Left)
	if err != nil {
		return err
	}

	if p, ok := inst.Right.(*ir.Prime); ok && p.Class() == ir.ClassConst && p.HasValue() {
		offset := uint64(p.Value()) * elemSize
		c.emit(fmt.Sprintf("lea %s, [%s+0x%x]", RegSI.Name(ptrW), base, offset))
		return c.finishRef(inst)
	}

	if validScale(elemSize) {
		if err := c.Load(RegDI, inst.Right); err != nil {
			return err
		}
		c.emit(fmt.Sprintf("lea %s, [%s+%s*%d]", RegSI.Name(ptrW), base, RegDI.Name(ptrW), elemSize))
		return c.finishRef(inst)
	}

	if err := c.Load(RegDI, inst.Right); err != nil {
		return err
	}
	c.emit(fmt.Sprintf("imul %s, 0x%x", RegDI.Name(ptrW), elemSize))
	c.emit(fmt.Sprintf("lea %s, [%s+%s]", RegSI.Name(ptrW), base, RegDI.Name(ptrW)))
	return c.finishRef(inst)
}

// finishRef completes a ref: the address just computed into SI is the
// *value* of the result (a pointer), not something the result refers to
// (the original's ref() ends with reg_d[A] = result). It follows the same
// stash-or-store discipline as every other result-producing opcode.
func (c *Context) finishRef(inst *ir.Instruction) error {
	return c.finishResult(inst, RegSI)
}

// emitDref loads the pointer into B, then reads through it back into the
// accumulator, per the original's dref() (reg_d[A] = result).
func (c *Context) emitDref(inst *ir.Instruction) error {
	if err := c.Load(RegB, inst.Left); err != nil {
		return err
	}
	w := resultWidth(inst)
	c.emit(fmt.Sprintf("mov %s, [%s]", RegA.Name(w), RegB.Name(c.Mode.PointerSize())))
	return c.finishResult(inst, RegA)
}

// emitSz resolves a compile-time-known byte count into the accumulator.
// sz is never a runtime operation (spec.md §9's resolved open question):
// an operand whose size hasn't been computed by layout is a hard error.
func (c *Context) emitSz(inst *ir.Instruction) error {
	if inst.Left == nil || !inst.Left.Sized() {
		return diag.New(diag.KindBadCast, passName, "", "sz operand has no resolved size")
	}
	c.emit(fmt.Sprintf("mov %s, 0x%x", RegA.Name(resultWidth(inst)), inst.Left.Size()))
	return c.finishResult(inst, RegA)
}

func (c *Context) emitAss(inst *ir.Instruction) error {
	dest, src := inst.Result, inst.Left
	if dest == nil || src == nil {
		return diag.New(diag.KindBadCast, passName, "", "ass requires both a destination and a source")
	}
	if dest.Size() != src.Size() {
		c.Sink.Warnf(passName, dest.Name(), "size mismatch in assignment (%d vs %d bytes)", dest.Size(), src.Size())
	}

	dp, destIsPrime := dest.(*ir.Prime)
	sp, srcIsPrime := src.(*ir.Prime)
	if destIsPrime && srcIsPrime {
		if dp.SignedSet() && sp.SignedSet() && dp.Signed() != sp.Signed() {
			c.Sink.Warnf(passName, dest.Name(), "signedness mismatch in assignment")
		}
		if err := c.Load(RegA, src); err != nil {
			return err
		}
		c.Desc.SetValue(RegA, dest)
		if dest.Class() == ir.ClassTemp {
			if inst.UsedNext {
				return nil
			}
			return c.Stash(RegA)
		}
		return c.Store(RegA)
	}

	// Non-primitive assignment: a memory-to-memory byte copy with rep
	// movsb through DI, SI and C; the accumulator is not used.
	dstHome, err := c.homeText(dest)
	if err != nil {
		return err
	}
	srcHome, err := c.homeText(src)
	if err != nil {
		return err
	}
	return c.emitByteCopy(dstHome, srcHome, dest.Size())
}

func (c *Context) emitByteCopy(dstHome, srcHome string, size uint64) error {
	ptrW := c.Mode.PointerSize()
	c.emit(fmt.Sprintf("lea %s, %s", RegDI.Name(ptrW), dstHome))
	c.emit(fmt.Sprintf("lea %s, %s", RegSI.Name(ptrW), srcHome))
	c.emit(fmt.Sprintf("mov %s, 0x%x", RegC.Name(ptrW), size))
	c.emit("rep movsb")
	c.Desc.ClearOne(RegDI)
	c.Desc.ClearOne(RegSI)
	c.Desc.ClearOne(RegC)
	return nil
}
