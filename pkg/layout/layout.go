// Package layout computes byte sizes for every data object and byte
// offsets for every struct member, per spec.md §4.4. It is run once per
// compilation, after liveness and before emission, so the emitter can
// treat every object's Size() as a resolved fact.
package layout

import (
	"fmt"

	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/target"
)

const passName = "layout"

// Run computes sizes and offsets for every object in cont, for the given
// mode. Warnings about padding are reported on sink. Run is idempotent:
// calling it twice produces identical sizes and offsets, because layout
// checks Sized()/OffsetSet() before computing and so never recomputes a
// size or an offset (Member.SetOffset also refuses a second call; SetSize
// itself does not guard against one).
func Run(cont *ir.Container, mode target.Mode, sink *diag.Sink) error {
	for _, obj := range cont.Iterate() {
		if _, err := sizeOf(obj, mode, sink); err != nil {
			return err
		}
	}
	return nil
}

// sizeOf resolves obj's byte size, recursing into children/members as
// needed, and returns it. Already-sized objects return their existing
// size without recomputation (idempotence).
func sizeOf(obj ir.Object, mode target.Mode, sink *diag.Sink) (uint64, error) {
	if obj.Sized() {
		return obj.Size(), nil
	}

	switch o := obj.(type) {
	case *ir.Prime:
		sz, err := widthSize(o.Width(), mode)
		if err != nil {
			return 0, diag.Wrap(diag.KindInvalidWidth, passName, o.Name(), err)
		}
		o.SetSize(sz)
		return sz, nil

	case *ir.Array:
		child := o.Child()
		if child == nil {
			return 0, diag.New(diag.KindBadCast, passName, o.Name(), "array has no child object")
		}
		childSize, err := sizeOf(child, mode, sink)
		if err != nil {
			return 0, err
		}
		total := childSize * o.Count()
		if init := o.Init(); len(init) > int(total) {
			return 0, diag.New(diag.KindConstruction, passName, o.Name(),
				"initialiser length %d exceeds total size %d", len(init), total)
		}
		o.SetSize(total)
		return total, nil

	case *ir.StructDef:
		return layoutStruct(o, mode, sink)

	case *ir.StructInst:
		def := o.Def()
		sz, err := sizeOf(def, mode, sink)
		if err != nil {
			return 0, err
		}
		o.SetSize(sz)
		return sz, nil

	case *ir.Routine:
		// Routines carry no byte size; leave Sized() false, as spec.md §3
		// states explicitly ("non-zero after layout, except for routine").
		// Still lay out params/autos so the emitter can compute offsets.
		if _, err := layoutStruct(o.Params(), mode, sink); err != nil {
			return 0, err
		}
		if _, err := layoutStruct(o.Autos(), mode, sink); err != nil {
			return 0, err
		}
		return 0, nil

	default:
		return 0, diag.New(diag.KindBadCast, passName, obj.Name(), "unrecognised object variant")
	}
}

// layoutStruct lays out members in declaration order with alignment
// padding: a member whose size exceeds the pointer size aligns to the
// pointer size, otherwise it aligns to its own size (natural alignment).
// Total size is the offset after the last member — no trailing padding.
func layoutStruct(def *ir.StructDef, mode target.Mode, sink *diag.Sink) (uint64, error) {
	if def.Sized() {
		return def.Size(), nil
	}

	var offset uint64
	ptrSize := mode.PointerSize()

	for _, m := range def.Members() {
		msize, err := sizeOf(m.Obj, mode, sink)
		if err != nil {
			return 0, err
		}

		align := msize
		if msize > ptrSize {
			align = ptrSize
		}
		if align == 0 {
			align = 1
		}

		aligned := alignUp(offset, align)
		if aligned != offset {
			sink.Warnf(passName, def.Name(), "padding inserted before member %q (%d byte(s))", m.Name, aligned-offset)
		}
		offset = aligned

		if !m.OffsetSet() {
			if err := m.SetOffset(offset); err != nil {
				return 0, err
			}
		}
		offset += msize
	}

	def.SetSize(offset)
	return offset, nil
}

func alignUp(off, align uint64) uint64 {
	if align <= 1 {
		return off
	}
	rem := off % align
	if rem == 0 {
		return off
	}
	return off + (align - rem)
}

// widthSize resolves a symbolic Width against a concrete Mode per the
// table in spec.md §4.4.
func widthSize(w ir.Width, mode target.Mode) (uint64, error) {
	switch w {
	case ir.WidthByte:
		return 1, nil
	case ir.WidthByte2:
		return 2, nil
	case ir.WidthByte4:
		return 4, nil
	case ir.WidthByte8:
		if mode == target.ModeProtected {
			return 0, fmt.Errorf("byte8 is not representable in protected mode")
		}
		return 8, nil
	case ir.WidthWord, ir.WidthPtr, ir.WidthMax:
		return mode.PointerSize(), nil
	default:
		return 0, fmt.Errorf("unresolved width tag %v", w)
	}
}
