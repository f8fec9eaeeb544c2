package ir

import "github.com/raymyers/mplc-backend/pkg/diag"

// Member is one named, ordered field of a Struct_def. Offset is computed
// exactly once by the layout pass.
type Member struct {
	Name      string
	Obj       Object
	offset    uint64
	offsetSet bool
}

func (m *Member) Offset() uint64 { return m.offset }
func (m *Member) OffsetSet() bool { return m.offsetSet }

// SetOffset may be called exactly once, by the layout pass.
func (m *Member) SetOffset(off uint64) error {
	if m.offsetSet {
		return diag.New(diag.KindConstruction, "layout", m.Name, "offset already set")
	}
	m.offset = off
	m.offsetSet = true
	return nil
}

// StructDef owns an ordered, name-indexed list of data members. Member
// order is significant: it determines layout order and therefore offsets.
type StructDef struct {
	base

	members []*Member
	index   map[string]int
}

func NewStructDef(name string, class StorageClass) (*StructDef, error) {
	d := &StructDef{index: make(map[string]int)}
	if err := d.setName(name); err != nil {
		return nil, err
	}
	d.setClass(class)
	return d, nil
}

func (d *StructDef) implObject()      {}
func (d *StructDef) Variant() Variant { return VariantStructDef }
func (d *StructDef) Members() []*Member { return d.members }

// AddMember appends a new field. Field names are unique within the struct.
func (d *StructDef) AddMember(name string, obj Object) (*Member, error) {
	if name == "" {
		return nil, diag.New(diag.KindUnnamed, "ir", d.Name(), "member name must not be empty")
	}
	if _, exists := d.index[name]; exists {
		return nil, diag.New(diag.KindDuplicateName, "ir", d.Name(), "duplicate member %q", name)
	}
	m := &Member{Name: name, Obj: obj}
	d.index[name] = len(d.members)
	d.members = append(d.members, m)
	return m, nil
}

// Member looks up a field by name.
func (d *StructDef) Member(name string) (*Member, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.members[i], true
}

// StructInst is a struct instance: a named storage location with the
// layout described by a Struct_def.
type StructInst struct {
	base

	def *StructDef
}

func NewStructInst(name string, class StorageClass, def *StructDef) (*StructInst, error) {
	if def == nil {
		return nil, diag.New(diag.KindBadCast, "ir", name, "struct instance requires a struct definition")
	}
	s := &StructInst{def: def}
	if err := s.setName(name); err != nil {
		return nil, err
	}
	s.setClass(class)
	return s, nil
}

func (s *StructInst) implObject()      {}
func (s *StructInst) Variant() Variant { return VariantStructInst }
func (s *StructInst) Def() *StructDef  { return s.def }
