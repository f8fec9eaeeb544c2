// Package ir is the authoritative program model: a name-indexed container
// of objects (data and routines) and, per routine, an ordered stream of
// three-address instructions. It is a straight tagged-union rendition of
// the source object hierarchy: one interface with a marker method, and one
// struct per variant, instead of virtual dispatch and down-casts.
package ir

import "github.com/raymyers/mplc-backend/pkg/diag"

// StorageClass is one of the eight classes an Object may carry.
type StorageClass int

const (
	ClassNone StorageClass = iota
	ClassPrivate
	ClassPublic
	ClassExtern
	ClassStack
	ClassParam
	ClassMember
	ClassTemp
	ClassConst
)

func (c StorageClass) String() string {
	switch c {
	case ClassPrivate:
		return "private"
	case ClassPublic:
		return "public"
	case ClassExtern:
		return "extern"
	case ClassStack:
		return "stack"
	case ClassParam:
		return "param"
	case ClassMember:
		return "member"
	case ClassTemp:
		return "temp"
	case ClassConst:
		return "const"
	default:
		return "none"
	}
}

// Variant is the tag of the union: which concrete shape an Object has.
type Variant int

const (
	VariantPrime Variant = iota
	VariantArray
	VariantStructDef
	VariantStructInst
	VariantRoutine
)

func (v Variant) String() string {
	switch v {
	case VariantPrime:
		return "prime"
	case VariantArray:
		return "array"
	case VariantStructDef:
		return "struct_def"
	case VariantStructInst:
		return "struct_inst"
	case VariantRoutine:
		return "routine"
	default:
		return "unknown"
	}
}

// Object is the base of everything with a name. It is implemented by
// exactly the five variants below; there is no other conformer.
type Object interface {
	Name() string
	Class() StorageClass
	Variant() Variant
	Size() uint64
	Sized() bool
	SetSize(n uint64)

	implObject()
}

// base carries the fields and invariants common to every variant: name is
// set exactly once, and size is computed exactly once (by the layout pass).
type base struct {
	name  string
	named bool
	class StorageClass
	size  uint64
	sized bool
}

func (b *base) Name() string         { return b.name }
func (b *base) Class() StorageClass  { return b.class }
func (b *base) Size() uint64         { return b.size }
func (b *base) Sized() bool          { return b.sized }
func (b *base) SetSize(n uint64)     { b.size = n; b.sized = true }

// setName enforces "name is set exactly once" and "non-empty after
// construction".
func (b *base) setName(name string) error {
	if name == "" {
		return diag.New(diag.KindUnnamed, "ir", "", "object name must not be empty")
	}
	if b.named {
		return diag.New(diag.KindConstruction, "ir", b.name, "name already set")
	}
	b.name = name
	b.named = true
	return nil
}

func (b *base) setClass(class StorageClass) {
	b.class = class
}
