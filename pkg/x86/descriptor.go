package x86

import "github.com/raymyers/mplc-backend/pkg/ir"

// occupant records what a register currently holds: an IR object, and
// whether the register holds the object's value or a reference to it.
type occupant struct {
	obj   ir.Object
	isRef bool
}

// Descriptor is the register descriptor of spec.md §4.5.1: for each
// physical register, which object occupies it (if any) and whether that's
// a value or a reference.
type Descriptor struct {
	slots [numRegs]*occupant
}

// NewDescriptor returns a descriptor with every register empty, as at the
// start of every routine.
func NewDescriptor() *Descriptor {
	return &Descriptor{}
}

// ClearAll empties every register. Called at the start of each routine.
func (d *Descriptor) ClearAll() {
	for i := range d.slots {
		d.slots[i] = nil
	}
}

// ClearOne empties a single register.
func (d *Descriptor) ClearOne(reg Reg) {
	d.slots[reg] = nil
}

// SetValue records that reg now holds obj's value.
func (d *Descriptor) SetValue(reg Reg, obj ir.Object) {
	d.slots[reg] = &occupant{obj: obj, isRef: false}
}

// SetReference records that reg now holds a reference (address) to obj.
func (d *Descriptor) SetReference(reg Reg, obj ir.Object) {
	d.slots[reg] = &occupant{obj: obj, isRef: true}
}

// FindValue returns the register holding obj's value, if any.
func (d *Descriptor) FindValue(obj ir.Object) (Reg, bool) {
	for i, occ := range d.slots {
		if occ != nil && !occ.isRef && occ.obj == obj {
			return Reg(i), true
		}
	}
	return 0, false
}

// FindReference returns the register holding a reference to obj, if any.
func (d *Descriptor) FindReference(obj ir.Object) (Reg, bool) {
	for i, occ := range d.slots {
		if occ != nil && occ.isRef && occ.obj == obj {
			return Reg(i), true
		}
	}
	return 0, false
}

// IsEmpty reports whether reg currently holds nothing.
func (d *Descriptor) IsEmpty(reg Reg) bool {
	return d.slots[reg] == nil
}

// Occupant returns what reg currently holds, or nil if empty.
func (d *Descriptor) Occupant(reg Reg) (obj ir.Object, isRef bool) {
	occ := d.slots[reg]
	if occ == nil {
		return nil, false
	}
	return occ.obj, occ.isRef
}

// Exchange swaps the contents of two registers.
func (d *Descriptor) Exchange(a, b Reg) {
	d.slots[a], d.slots[b] = d.slots[b], d.slots[a]
}

// FirstEmpty returns the first empty register from candidates, if any.
func (d *Descriptor) FirstEmpty(candidates []Reg) (Reg, bool) {
	for _, r := range candidates {
		if d.IsEmpty(r) {
			return r, true
		}
	}
	return 0, false
}

// MemoryBacked reports whether reg's occupant (a value, not a reference)
// has a home in memory that a block-end flush must write back to — i.e.
// it is not a temp (temps have no home; spilling, not flushing, handles
// them, and by the time a block ends every live temp has already been
// consumed per spec.md's single-live-use invariant).
func (d *Descriptor) MemoryBacked(reg Reg) (ir.Object, bool) {
	occ := d.slots[reg]
	if occ == nil || occ.isRef {
		return nil, false
	}
	if occ.obj.Class() == ir.ClassTemp {
		return nil, false
	}
	return occ.obj, true
}
