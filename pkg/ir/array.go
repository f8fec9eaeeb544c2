package ir

import "github.com/raymyers/mplc-backend/pkg/diag"

// Array is a homogeneous sequence. Its child is any variant except
// Routine; the child is conceptually unnamed (it exists only to describe
// the element shape) though it still satisfies Object.
type Array struct {
	base

	count    uint64
	countSet bool
	child    Object
	init     []byte
}

func NewArray(name string, class StorageClass) (*Array, error) {
	a := &Array{}
	if err := a.setName(name); err != nil {
		return nil, err
	}
	a.setClass(class)
	return a, nil
}

func (a *Array) implObject()      {}
func (a *Array) Variant() Variant { return VariantArray }
func (a *Array) Count() uint64    { return a.count }
func (a *Array) Child() Object    { return a.child }
func (a *Array) Init() []byte     { return a.init }

// SetCount sets the element count exactly once; zero is rejected.
func (a *Array) SetCount(n uint64) error {
	if a.countSet {
		return diag.New(diag.KindConstruction, "ir", a.Name(), "count already set")
	}
	if n == 0 {
		return diag.New(diag.KindConstruction, "ir", a.Name(), "count must be positive")
	}
	a.count = n
	a.countSet = true
	return nil
}

// SetChild must happen before layout; a Routine child is rejected.
func (a *Array) SetChild(child Object) error {
	if child == nil {
		return diag.New(diag.KindBadCast, "ir", a.Name(), "array child must not be nil")
	}
	if child.Variant() == VariantRoutine {
		return diag.New(diag.KindBadCast, "ir", a.Name(), "array child may not be a routine")
	}
	a.child = child
	return nil
}

// SetInit records a byte-vector initialiser. Length must be checked
// against total size by the caller once layout has run.
func (a *Array) SetInit(b []byte) {
	a.init = b
}
