package x86

import (
	"fmt"

	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
)

// findMember locates obj inside the current routine's parameter or
// automatic struct, returning its member (with a resolved offset), its
// ordinal if it is a parameter, and whether it is a parameter at all.
func (c *Context) findMember(obj ir.Object) (member *ir.Member, ordinal int, isParam, found bool) {
	for i, m := range c.routine.Params().Members() {
		if m.Obj == obj {
			return m, i, true, true
		}
	}
	for _, m := range c.routine.Autos().Members() {
		if m.Obj == obj {
			return m, 0, false, true
		}
	}
	return nil, 0, false, false
}

// homeText resolves obj's canonical memory location, per spec.md §4.5.3
// step 3 — ignoring whatever the register descriptor currently caches.
// Used by Store (writing a cached value back to its home) and by operand
// resolution's fallback case.
func (c *Context) homeText(obj ir.Object) (string, error) {
	if off, ok := c.Frame.SpillOffset(obj.Name()); ok {
		disp := c.Frame.AutoDisplacement(off)
		return formatBPDisp(disp), nil
	}

	switch obj.Class() {
	case ir.ClassPrivate, ir.ClassPublic, ir.ClassExtern:
		return fmt.Sprintf("[%s]", obj.Name()), nil

	case ir.ClassConst:
		if p, ok := obj.(*ir.Prime); ok && p.HasValue() {
			return fmt.Sprintf("0x%x", p.Value()), nil
		}
		return fmt.Sprintf("[%s]", obj.Name()), nil

	case ir.ClassStack:
		m, _, _, found := c.findMember(obj)
		if !found {
			return "", diag.New(diag.KindNotFound, passName, obj.Name(), "stack object has no automatic-variable slot")
		}
		disp := c.Frame.AutoDisplacement(m.Offset())
		return formatBPDisp(disp), nil

	case ir.ClassParam:
		_, ordinal, _, found := c.findMember(obj)
		if !found {
			return "", diag.New(diag.KindNotFound, passName, obj.Name(), "param object has no parameter slot")
		}
		off := c.Frame.ParamOffset(ordinal)
		return fmt.Sprintf("[bp+0x%x]", off), nil

	case ir.ClassMember:
		// Members carry their offset as their label (spec.md §4.5.3):
		// render the bare numeric offset for use by the caller's own
		// base+offset addressing (compound reads resolve the base
		// separately via LEA; see emitRef). The first struct definition
		// in the container that lists obj supplies the offset.
		for _, o := range c.Cont.Iterate() {
			def, ok := o.(*ir.StructDef)
			if !ok {
				continue
			}
			for _, m := range def.Members() {
				if m.Obj == obj {
					return fmt.Sprintf("0x%x", m.Offset()), nil
				}
			}
		}
		return "", diag.New(diag.KindNotFound, passName, obj.Name(), "member object belongs to no struct definition")

	case ir.ClassTemp:
		return "", diag.New(diag.KindBadCast, passName, obj.Name(), "temp has no home location and no spill slot")

	default:
		return fmt.Sprintf("[%s]", obj.Name()), nil
	}
}

// operandText resolves obj as a source operand per the full three-step
// rule of spec.md §4.5.3: a register already holding the value, a
// register holding a reference, or the object's home.
func (c *Context) operandText(obj ir.Object) (string, error) {
	if obj == nil {
		return "", diag.New(diag.KindBadCast, passName, "", "nil operand")
	}
	if reg, ok := c.Desc.FindValue(obj); ok {
		return reg.Name(obj.Size()), nil
	}
	if reg, ok := c.Desc.FindReference(obj); ok {
		return fmt.Sprintf("[%s]", reg.Name(c.Mode.PointerSize())), nil
	}
	return c.homeText(obj)
}

func formatBPDisp(disp int64) string {
	if disp < 0 {
		return fmt.Sprintf("[bp-0x%x]", -disp)
	}
	return fmt.Sprintf("[bp+0x%x]", disp)
}

// Load ensures reg holds obj's value, exchanging with whatever register
// already holds it, or stashing reg's current occupant and moving/
// dereferencing from memory.
func (c *Context) Load(reg Reg, obj ir.Object) error {
	if cur, ok := c.Desc.FindValue(obj); ok {
		if cur == reg {
			return nil
		}
		w := c.Mode.PointerSize()
		c.emit(fmt.Sprintf("xchg %s, %s", reg.Name(w), cur.Name(w)))
		c.Desc.Exchange(reg, cur)
		return nil
	}
	if err := c.Stash(reg); err != nil {
		return err
	}
	text, err := c.homeText(obj)
	if err != nil {
		return err
	}
	c.emit(fmt.Sprintf("mov %s, %s", reg.Name(obj.Size()), text))
	c.Desc.SetValue(reg, obj)
	return nil
}

// Stash moves reg's current occupant out of the way. A non-temp value
// needs nothing (its home is unaffected by the register being reused); a
// temp is moved to a free register if one exists, else spilled to a
// newly reserved stack slot in the frame's temp region — at worst one
// write and one read, since every temp has exactly one live use.
func (c *Context) Stash(reg Reg) error {
	obj, isRef := c.Desc.Occupant(reg)
	if obj == nil {
		return nil
	}
	if !isRef && obj.Class() != ir.ClassTemp {
		c.Desc.ClearOne(reg)
		return nil
	}

	for _, free := range generalPurpose(c.Mode) {
		if free != reg && c.Desc.IsEmpty(free) {
			w := c.Mode.PointerSize()
			c.emit(fmt.Sprintf("mov %s, %s", free.Name(w), reg.Name(w)))
			c.Desc.Exchange(reg, free)
			return nil
		}
	}

	size := obj.Size()
	off := c.Frame.AllocSpill(obj.Name(), size)
	disp := c.Frame.AutoDisplacement(off)
	c.emit(fmt.Sprintf("mov %s, %s", formatBPDisp(disp), reg.Name(size)))
	c.Sink.Tracef("stash %s -> %s", obj.Name(), formatBPDisp(disp))
	c.Desc.ClearOne(reg)
	return nil
}

// Store writes reg's value back to its operand's home location, but only
// if that operand is memory-backed (not a temp, which has no home). The
// descriptor is left unchanged; callers clear it if needed.
func (c *Context) Store(reg Reg) error {
	obj, isRef := c.Desc.Occupant(reg)
	if obj == nil || isRef {
		return nil
	}
	if obj.Class() == ir.ClassTemp {
		return nil
	}
	home, err := c.homeText(obj)
	if err != nil {
		return err
	}
	c.emit(fmt.Sprintf("mov %s, %s", home, reg.Name(obj.Size())))
	return nil
}
