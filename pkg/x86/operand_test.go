package x86

import (
	"testing"

	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/target"
)

func newTestContext(t *testing.T, mode target.Mode) *Context {
	t.Helper()
	cont := ir.NewContainer()
	sink := diag.NewSink(nil, nil, true)
	c := NewContext(mode, cont, sink)
	r, err := ir.NewRoutine("f", ir.ClassPrivate)
	if err != nil {
		t.Fatalf("NewRoutine: unexpected error: %v", err)
	}
	c.routine = r
	c.Frame = NewFrame(mode, r)
	return c
}

func TestHomeTextGlobal(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	gPub, _ := ir.NewPrime("g", ir.ClassPublic)
	gPub.SetWidth(ir.WidthByte4)
	gPub.SetSize(4)

	text, err := c.homeText(gPub)
	if err != nil {
		t.Fatalf("homeText: unexpected error: %v", err)
	}
	if text != "[g]" {
		t.Errorf("homeText(public) = %q, want %q", text, "[g]")
	}
}

func TestHomeTextConstWithValue(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("five", ir.ClassConst)
	p.SetWidth(ir.WidthByte4)
	p.SetValue(5)
	p.SetSize(4)

	text, err := c.homeText(p)
	if err != nil {
		t.Fatalf("homeText: unexpected error: %v", err)
	}
	if text != "0x5" {
		t.Errorf("homeText(const) = %q, want %q", text, "0x5")
	}
}

func TestHomeTextStackVariable(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("local", ir.ClassStack)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)

	m, err := c.routine.AddAuto("local", p)
	if err != nil {
		t.Fatalf("AddAuto: unexpected error: %v", err)
	}
	m.SetOffset(0)
	c.routine.Autos().SetSize(4)
	c.Frame = NewFrame(target.ModeLong, c.routine)

	text, err := c.homeText(p)
	if err != nil {
		t.Fatalf("homeText: unexpected error: %v", err)
	}
	if text != "[bp-0x4]" {
		t.Errorf("homeText(stack) = %q, want %q", text, "[bp-0x4]")
	}
}

func TestHomeTextParam(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("arg0", ir.ClassParam)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)

	if _, err := c.routine.AddParam("arg0", p); err != nil {
		t.Fatalf("AddParam: unexpected error: %v", err)
	}
	c.Frame = NewFrame(target.ModeLong, c.routine)

	text, err := c.homeText(p)
	if err != nil {
		t.Fatalf("homeText: unexpected error: %v", err)
	}
	if text != "[bp+0x10]" {
		t.Errorf("homeText(param) = %q, want %q", text, "[bp+0x10]")
	}
}

func TestHomeTextTempHasNoHome(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	t1 := primeTemp(t, "t1")
	t1.SetSize(4)

	if _, err := c.homeText(t1); !diag.Is(err, diag.KindBadCast) {
		t.Fatalf("homeText(temp) error = %v, want BadCast", err)
	}
}

func TestHomeTextSpilledTemp(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	t1 := primeTemp(t, "t1")
	t1.SetSize(4)
	c.Frame.AllocSpill("t1", 4)

	text, err := c.homeText(t1)
	if err != nil {
		t.Fatalf("homeText: unexpected error: %v", err)
	}
	if text != "[bp-0x4]" {
		t.Errorf("homeText(spilled temp) = %q, want %q", text, "[bp-0x4]")
	}
}

func TestOperandTextPrefersCachedRegister(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("g", ir.ClassPublic)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)
	c.Desc.SetValue(RegA, p)

	text, err := c.operandText(p)
	if err != nil {
		t.Fatalf("operandText: unexpected error: %v", err)
	}
	if text != "eax" {
		t.Errorf("operandText(cached) = %q, want %q", text, "eax")
	}
}

func TestOperandTextReferenceIsDereferenced(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("g", ir.ClassPublic)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)
	c.Desc.SetReference(RegB, p)

	text, err := c.operandText(p)
	if err != nil {
		t.Fatalf("operandText: unexpected error: %v", err)
	}
	if text != "[rbx]" {
		t.Errorf("operandText(reference) = %q, want %q", text, "[rbx]")
	}
}

func TestLoadIsNoopWhenAlreadyInRegister(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("g", ir.ClassPublic)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)
	c.Desc.SetValue(RegA, p)

	if err := c.Load(RegA, p); err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if len(c.pending) != 0 {
		t.Errorf("Load emitted instructions for an already-loaded value: %v", c.pending)
	}
}

func TestLoadExchangesWhenValueInAnotherRegister(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("g", ir.ClassPublic)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)
	c.Desc.SetValue(RegB, p)

	if err := c.Load(RegA, p); err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if reg, ok := c.Desc.FindValue(p); !ok || reg != RegA {
		t.Fatalf("after Load, FindValue = (%v, %v), want (RegA, true)", reg, ok)
	}
}

func TestLoadFromMemoryEmitsMov(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("g", ir.ClassPublic)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)

	if err := c.Load(RegA, p); err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if len(c.pending) != 1 || c.pending[0] != "mov eax, [g]" {
		t.Fatalf("Load pending = %v, want [\"mov eax, [g]\"]", c.pending)
	}
	if reg, ok := c.Desc.FindValue(p); !ok || reg != RegA {
		t.Fatalf("Load did not record the register occupant")
	}
}

func TestStashSpillsALiveTempWhenNoRegisterIsFree(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	temp := primeTemp(t, "t1")
	temp.SetSize(4)
	c.Desc.SetValue(RegA, temp)

	for _, r := range generalPurpose(target.ModeLong) {
		if r != RegA {
			c.Desc.SetValue(r, temp)
		}
	}

	if err := c.Stash(RegA); err != nil {
		t.Fatalf("Stash: unexpected error: %v", err)
	}
	if !c.Desc.IsEmpty(RegA) {
		t.Fatalf("RegA not cleared after Stash spilled its occupant")
	}
	if _, ok := c.Frame.SpillOffset("t1"); !ok {
		t.Fatalf("Stash did not allocate a spill slot for the live temp")
	}
}

func TestStoreSkipsTemps(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	temp := primeTemp(t, "t1")
	temp.SetSize(4)
	c.Desc.SetValue(RegA, temp)

	if err := c.Store(RegA); err != nil {
		t.Fatalf("Store: unexpected error: %v", err)
	}
	if len(c.pending) != 0 {
		t.Errorf("Store emitted a write-back for a temp: %v", c.pending)
	}
}

func TestStoreWritesBackMemoryBackedValue(t *testing.T) {
	c := newTestContext(t, target.ModeLong)
	p, _ := ir.NewPrime("g", ir.ClassPublic)
	p.SetWidth(ir.WidthByte4)
	p.SetSize(4)
	c.Desc.SetValue(RegA, p)

	if err := c.Store(RegA); err != nil {
		t.Fatalf("Store: unexpected error: %v", err)
	}
	if len(c.pending) != 1 || c.pending[0] != "mov [g], eax" {
		t.Fatalf("Store pending = %v, want [\"mov [g], eax\"]", c.pending)
	}
}
