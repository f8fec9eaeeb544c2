package x86

import (
	"fmt"

	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/target"
)

// Frame is the activation record of spec.md §4.5.2, computed once per
// routine and consulted thereafter — the same "summarise, then consult an
// immutable-ish struct" shape as the reference callee-save accounting
// package, adapted from ARM64 callee-save bookkeeping to an x86
// BP-relative parameter/auto/spill layout.
//
//	[caller pushed parameters]
//	[return address]          <- pushed by call
//	[saved base pointer]      <- pushed by enter
//	[automatic variables]     <- reserved by enter
//	<- stack pointer after prologue
type Frame struct {
	mode target.Mode

	paramBytes uint64
	autoSize   uint64
	spillSize  uint64

	spillOffset map[string]uint64
}

// NewFrame computes the parameter and automatic-variable layout for r.
// Every parameter slot is exactly one pointer-width wide regardless of
// its declared width, per the ordinal-indexed offset formula of
// spec.md §4.5.2.
func NewFrame(mode target.Mode, r *ir.Routine) *Frame {
	w := mode.PointerSize()
	paramCount := uint64(len(r.Params().Members()))
	return &Frame{
		mode:        mode,
		paramBytes:  paramCount * w,
		autoSize:    r.Autos().Size(),
		spillOffset: make(map[string]uint64),
	}
}

// ParamOffset returns the byte offset from BP of the ordinal-th parameter:
// BP + 2W + i*W.
func (f *Frame) ParamOffset(ordinal int) uint64 {
	w := f.mode.PointerSize()
	return 2*w + uint64(ordinal)*w
}

// ParamBytes is the total byte count of pushed parameters, used by the
// epilogue's ret param_bytes.
func (f *Frame) ParamBytes() uint64 { return f.paramBytes }

// FrameSize is the byte count reserved by enter: automatics plus whatever
// has been spilled so far. Spilling happens during emission, so FrameSize
// grows monotonically as a routine's blocks are emitted; the enter
// instruction is written only after the whole routine has been walked
// once to size the frame (see Context.EmitRoutine).
func (f *Frame) FrameSize() uint64 { return f.autoSize + f.spillSize }

// AutoDisplacement returns the signed BP-relative displacement for an
// automatic at the given offset within the auto struct: BP - frame_size +
// offset.
func (f *Frame) AutoDisplacement(offset uint64) int64 {
	return int64(offset) - int64(f.FrameSize())
}

// AllocSpill reserves (or returns the existing) spill slot for a named
// temp of the given size, naturally aligned within the temp region that
// follows the autos in the frame.
func (f *Frame) AllocSpill(name string, size uint64) uint64 {
	if off, ok := f.spillOffset[name]; ok {
		return off
	}
	align := size
	if align == 0 {
		align = 1
	}
	base := f.autoSize + f.spillSize
	rem := base % align
	if rem != 0 {
		base += align - rem
	}
	f.spillOffset[name] = base
	f.spillSize = (base - f.autoSize) + size
	return base
}

// SpillOffset reports whether name already has a spill slot.
func (f *Frame) SpillOffset(name string) (uint64, bool) {
	off, ok := f.spillOffset[name]
	return off, ok
}

// Prologue renders the routine entry sequence.
func (f *Frame) Prologue() string {
	return fmt.Sprintf("enter 0x%x, 0", f.FrameSize())
}

// Epilogue renders the routine exit sequence.
func (f *Frame) Epilogue() []string {
	return []string{"leave", fmt.Sprintf("ret 0x%x", f.ParamBytes())}
}
