package x86

import (
	"testing"

	"github.com/raymyers/mplc-backend/pkg/ir"
)

func primeTemp(t *testing.T, name string) *ir.Prime {
	t.Helper()
	p, err := ir.NewPrime(name, ir.ClassTemp)
	if err != nil {
		t.Fatalf("NewPrime: unexpected error: %v", err)
	}
	p.SetWidth(ir.WidthByte4)
	return p
}

func primeStack(t *testing.T, name string) *ir.Prime {
	t.Helper()
	p, err := ir.NewPrime(name, ir.ClassStack)
	if err != nil {
		t.Fatalf("NewPrime: unexpected error: %v", err)
	}
	p.SetWidth(ir.WidthByte4)
	return p
}

func TestDescriptorSetValueAndFind(t *testing.T) {
	d := NewDescriptor()
	obj := primeStack(t, "x")
	d.SetValue(RegA, obj)

	reg, ok := d.FindValue(obj)
	if !ok || reg != RegA {
		t.Fatalf("FindValue = (%v, %v), want (RegA, true)", reg, ok)
	}
	if _, ok := d.FindReference(obj); ok {
		t.Fatalf("FindReference found a value-only occupant")
	}
}

func TestDescriptorSetReference(t *testing.T) {
	d := NewDescriptor()
	obj := primeStack(t, "x")
	d.SetReference(RegB, obj)

	reg, ok := d.FindReference(obj)
	if !ok || reg != RegB {
		t.Fatalf("FindReference = (%v, %v), want (RegB, true)", reg, ok)
	}
	if _, ok := d.FindValue(obj); ok {
		t.Fatalf("FindValue found a reference-only occupant")
	}
}

func TestDescriptorClearOneAndClearAll(t *testing.T) {
	d := NewDescriptor()
	obj := primeStack(t, "x")
	d.SetValue(RegA, obj)
	d.SetValue(RegB, obj)

	d.ClearOne(RegA)
	if !d.IsEmpty(RegA) {
		t.Fatalf("RegA not empty after ClearOne")
	}
	if d.IsEmpty(RegB) {
		t.Fatalf("RegB unexpectedly empty after ClearOne(RegA)")
	}

	d.ClearAll()
	if !d.IsEmpty(RegB) {
		t.Fatalf("RegB not empty after ClearAll")
	}
}

func TestDescriptorExchange(t *testing.T) {
	d := NewDescriptor()
	x := primeStack(t, "x")
	y := primeStack(t, "y")
	d.SetValue(RegA, x)
	d.SetValue(RegB, y)

	d.Exchange(RegA, RegB)

	obj, _ := d.Occupant(RegA)
	if obj != y {
		t.Fatalf("after Exchange, RegA holds %v, want y", obj)
	}
	obj, _ = d.Occupant(RegB)
	if obj != x {
		t.Fatalf("after Exchange, RegB holds %v, want x", obj)
	}
}

func TestDescriptorFirstEmpty(t *testing.T) {
	d := NewDescriptor()
	d.SetValue(RegA, primeStack(t, "x"))

	reg, ok := d.FirstEmpty([]Reg{RegA, RegB, RegC})
	if !ok || reg != RegB {
		t.Fatalf("FirstEmpty = (%v, %v), want (RegB, true)", reg, ok)
	}
}

func TestDescriptorFirstEmptyNoneAvailable(t *testing.T) {
	d := NewDescriptor()
	d.SetValue(RegA, primeStack(t, "x"))
	d.SetValue(RegB, primeStack(t, "y"))

	if _, ok := d.FirstEmpty([]Reg{RegA, RegB}); ok {
		t.Fatalf("FirstEmpty reported availability when none exists")
	}
}

func TestDescriptorMemoryBackedExcludesTempsAndReferences(t *testing.T) {
	d := NewDescriptor()
	stack := primeStack(t, "x")
	temp := primeTemp(t, "t1")

	d.SetValue(RegA, stack)
	d.SetValue(RegB, temp)
	d.SetReference(RegC, stack)

	if obj, ok := d.MemoryBacked(RegA); !ok || obj != stack {
		t.Fatalf("MemoryBacked(RegA) = (%v, %v), want (stack, true)", obj, ok)
	}
	if _, ok := d.MemoryBacked(RegB); ok {
		t.Fatalf("MemoryBacked(RegB) reported a temp as memory-backed")
	}
	if _, ok := d.MemoryBacked(RegC); ok {
		t.Fatalf("MemoryBacked(RegC) reported a reference as memory-backed")
	}
}
