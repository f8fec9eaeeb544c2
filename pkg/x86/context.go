package x86

import (
	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/target"
)

const passName = "emit"

// Context bundles the global mutable state the source keeps as free
// globals (reg_d, mode, fd, frame_sz, param_sz) into one struct passed
// explicitly through the pipeline, per spec.md §9's design note.
type Context struct {
	Mode target.Mode
	Cont *ir.Container
	Sink *diag.Sink
	W    *Writer

	Desc  *Descriptor
	Frame *Frame

	routine *ir.Routine
	pending []string
}

// NewContext builds an emitter context for one compilation.
func NewContext(mode target.Mode, cont *ir.Container, sink *diag.Sink) *Context {
	return &Context{
		Mode: mode,
		Cont: cont,
		Sink: sink,
		W:    NewWriter(),
		Desc: NewDescriptor(),
	}
}

func (c *Context) emit(line string) {
	c.pending = append(c.pending, line)
}

// EmitProgram walks every object in the container, writing static data for
// data objects and code for routines, in the output order of spec.md
// §4.5.7 (handled by Writer.WriteTo).
func EmitProgram(mode target.Mode, cont *ir.Container, sink *diag.Sink) (*Writer, error) {
	c := NewContext(mode, cont, sink)

	for _, obj := range cont.Iterate() {
		if def, ok := obj.(*ir.StructDef); ok {
			c.emitStructLayout(def)
		}
	}

	for _, obj := range cont.Iterate() {
		switch obj.Class() {
		case ir.ClassPublic:
			c.W.AddGlobal(obj.Name())
		case ir.ClassExtern:
			c.W.AddExtern(obj.Name())
		}
	}

	for _, obj := range cont.Iterate() {
		if r, ok := obj.(*ir.Routine); ok {
			if err := c.EmitRoutine(r); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.emitStaticData(obj); err != nil {
			return nil, err
		}
	}

	return c.W, nil
}

// EmitRoutine lowers every block of r into assembler text. The register
// descriptor is cleared at entry (spec.md §4.5.1) and every block flushes
// memory-backed registers before falling through (§4.5.1's cross-block
// rule). The prologue's frame size is only known once the whole body has
// been walked (spilling grows the frame), so the body is buffered and the
// enter line is prepended once sizing is final.
func (c *Context) EmitRoutine(r *ir.Routine) error {
	c.routine = r
	c.Desc.ClearAll()
	c.Frame = NewFrame(c.Mode, r)
	c.pending = nil

	for _, block := range r.Blocks() {
		for _, inst := range block.Instrs {
			if err := c.emitInst(inst); err != nil {
				return diag.Wrap(diag.KindInternal, passName, r.Name(), err)
			}
		}
		if blockFallsThrough(block) {
			if err := c.flushBlockEnd(); err != nil {
				return err
			}
		} else {
			c.Desc.ClearAll()
		}
	}

	c.W.AddCode(r.Name() + ":")
	c.W.AddCode(c.Frame.Prologue())
	for _, line := range c.pending {
		c.W.AddCode(line)
	}
	return nil
}

// blockFallsThrough reports whether control can reach the instruction
// stream immediately after block, which is everywhere except an
// unconditional jmp or a routine return: both divert control away for
// good, so a register store written after one is unreachable.
func blockFallsThrough(block *ir.BasicBlock) bool {
	if len(block.Instrs) == 0 {
		return true
	}
	switch block.Instrs[len(block.Instrs)-1].Op {
	case ir.OpJmp, ir.OpRtrn:
		return false
	default:
		return true
	}
}

// flushBlockEnd writes back every memory-backed register's cached value
// and clears the descriptor, since long-lived values must not cross block
// boundaries in registers.
func (c *Context) flushBlockEnd() error {
	for reg := Reg(0); reg < numRegs; reg++ {
		if obj, ok := c.Desc.MemoryBacked(reg); ok {
			if err := c.Store(reg); err != nil {
				return err
			}
			c.Sink.Tracef("flush %s at block end (%s)", obj.Name(), reg.Name(obj.Size()))
		}
	}
	c.Desc.ClearAll()
	return nil
}
