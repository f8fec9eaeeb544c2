package ir

import "github.com/raymyers/mplc-backend/pkg/diag"

// Routine is a function body: an ordered list of basic blocks, a
// parameter struct, and an auto (stack-local) struct. Storage class is
// restricted to private or public.
type Routine struct {
	base

	blocks []*BasicBlock

	params *StructDef
	autos  *StructDef

	peakTemps int
}

// NewRoutine constructs a routine. class must be ClassPrivate or
// ClassPublic; anything else is InvalidStorageClass.
func NewRoutine(name string, class StorageClass) (*Routine, error) {
	if class != ClassPrivate && class != ClassPublic {
		return nil, diag.New(diag.KindInvalidStorageClass, "ir", name,
			"routine storage class must be private or public, got %s", class)
	}
	params, err := NewStructDef(name+".params", ClassParam)
	if err != nil {
		return nil, err
	}
	autos, err := NewStructDef(name+".autos", ClassStack)
	if err != nil {
		return nil, err
	}
	r := &Routine{params: params, autos: autos}
	if err := r.setName(name); err != nil {
		return nil, err
	}
	r.setClass(class)
	return r, nil
}

func (r *Routine) implObject()      {}
func (r *Routine) Variant() Variant { return VariantRoutine }

func (r *Routine) Blocks() []*BasicBlock { return r.blocks }
func (r *Routine) Params() *StructDef    { return r.params }
func (r *Routine) Autos() *StructDef     { return r.autos }
func (r *Routine) PeakTemps() int        { return r.peakTemps }
func (r *Routine) SetPeakTemps(n int)    { r.peakTemps = n }

// AddBlock appends a basic block, owned exclusively by this routine.
func (r *Routine) AddBlock(b *BasicBlock) {
	r.blocks = append(r.blocks, b)
}

// SetBlocks replaces the block list wholesale; used by the block former,
// which builds the full list before handing it to the routine.
func (r *Routine) SetBlocks(blocks []*BasicBlock) {
	r.blocks = blocks
}

// AddParam appends a formal parameter in declaration order.
func (r *Routine) AddParam(name string, obj Object) (*Member, error) {
	return r.params.AddMember(name, obj)
}

// AddAuto appends a stack local in declaration order.
func (r *Routine) AddAuto(name string, obj Object) (*Member, error) {
	return r.autos.AddMember(name, obj)
}
