package x86

import (
	"fmt"
	"testing"

	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/target"
)

func routineWithParamsAndAutos(t *testing.T, paramCount int, autoSize uint64) *ir.Routine {
	t.Helper()
	r, err := ir.NewRoutine("f", ir.ClassPrivate)
	if err != nil {
		t.Fatalf("NewRoutine: unexpected error: %v", err)
	}
	for i := 0; i < paramCount; i++ {
		name := fmt.Sprintf("p%d", i)
		p := primeStack(t, name)
		if _, err := r.AddParam(name, p); err != nil {
			t.Fatalf("AddParam: unexpected error: %v", err)
		}
	}
	r.Autos().SetSize(autoSize)
	return r
}

func TestFrameParamOffset(t *testing.T) {
	r := routineWithParamsAndAutos(t, 2, 0)
	f := NewFrame(target.ModeLong, r)

	if got := f.ParamOffset(0); got != 16 {
		t.Errorf("ParamOffset(0) = %d, want 16 (2*8)", got)
	}
	if got := f.ParamOffset(1); got != 24 {
		t.Errorf("ParamOffset(1) = %d, want 24 (2*8 + 8)", got)
	}
	if got := f.ParamBytes(); got != 16 {
		t.Errorf("ParamBytes() = %d, want 16", got)
	}
}

func TestFrameSizeGrowsWithSpills(t *testing.T) {
	r := routineWithParamsAndAutos(t, 0, 8)
	f := NewFrame(target.ModeLong, r)

	if got := f.FrameSize(); got != 8 {
		t.Fatalf("FrameSize() before spilling = %d, want 8", got)
	}

	f.AllocSpill("t1", 4)
	if got := f.FrameSize(); got != 12 {
		t.Fatalf("FrameSize() after one spill = %d, want 12", got)
	}
}

func TestFrameAllocSpillReusesExistingSlot(t *testing.T) {
	r := routineWithParamsAndAutos(t, 0, 0)
	f := NewFrame(target.ModeLong, r)

	off1 := f.AllocSpill("t1", 4)
	off2 := f.AllocSpill("t1", 4)
	if off1 != off2 {
		t.Fatalf("AllocSpill gave different offsets for the same name: %d vs %d", off1, off2)
	}
	if got := f.FrameSize(); got != 4 {
		t.Fatalf("FrameSize() after repeated spill of the same temp = %d, want 4", got)
	}
}

func TestFrameSpillOffsetReporting(t *testing.T) {
	r := routineWithParamsAndAutos(t, 0, 0)
	f := NewFrame(target.ModeLong, r)

	if _, ok := f.SpillOffset("t1"); ok {
		t.Fatalf("SpillOffset reported a slot before AllocSpill was called")
	}
	f.AllocSpill("t1", 4)
	if _, ok := f.SpillOffset("t1"); !ok {
		t.Fatalf("SpillOffset did not find the slot after AllocSpill")
	}
}

func TestFrameAutoDisplacement(t *testing.T) {
	r := routineWithParamsAndAutos(t, 0, 16)
	f := NewFrame(target.ModeLong, r)

	if got := f.AutoDisplacement(0); got != -16 {
		t.Errorf("AutoDisplacement(0) = %d, want -16", got)
	}
	if got := f.AutoDisplacement(8); got != -8 {
		t.Errorf("AutoDisplacement(8) = %d, want -8", got)
	}
}

func TestFramePrologueAndEpilogue(t *testing.T) {
	r := routineWithParamsAndAutos(t, 1, 8)
	f := NewFrame(target.ModeLong, r)

	if got := f.Prologue(); got != "enter 0x8, 0" {
		t.Errorf("Prologue() = %q, want %q", got, "enter 0x8, 0")
	}
	epi := f.Epilogue()
	if len(epi) != 2 || epi[0] != "leave" || epi[1] != "ret 0x8" {
		t.Errorf("Epilogue() = %v, want [leave, ret 0x8]", epi)
	}
}
