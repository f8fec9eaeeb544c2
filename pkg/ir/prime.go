package ir

import "github.com/raymyers/mplc-backend/pkg/diag"

// Width is the symbolic size class of a Prime, independent of machine
// bytes until the layout pass resolves it against a target mode.
type Width int

const (
	WidthNone Width = iota
	WidthByte
	WidthByte2
	WidthByte4
	WidthByte8
	WidthWord
	WidthPtr
	WidthMax
)

func (w Width) String() string {
	switch w {
	case WidthByte:
		return "byte"
	case WidthByte2:
		return "byte2"
	case WidthByte4:
		return "byte4"
	case WidthByte8:
		return "byte8"
	case WidthWord:
		return "word"
	case WidthPtr:
		return "ptr"
	case WidthMax:
		return "max"
	default:
		return "none"
	}
}

// Prime is a scalar IR datum.
type Prime struct {
	base

	width    Width
	widthSet bool

	signed    bool
	signedSet bool

	value    int64
	hasValue bool
}

func NewPrime(name string, class StorageClass) (*Prime, error) {
	p := &Prime{}
	if err := p.setName(name); err != nil {
		return nil, err
	}
	p.setClass(class)
	return p, nil
}

func (p *Prime) implObject()       {}
func (p *Prime) Variant() Variant  { return VariantPrime }
func (p *Prime) Width() Width      { return p.width }
func (p *Prime) Signed() bool      { return p.signed }
func (p *Prime) SignedSet() bool   { return p.signedSet }
func (p *Prime) Value() int64      { return p.value }
func (p *Prime) HasValue() bool    { return p.hasValue }

// SetWidth may be called exactly once.
func (p *Prime) SetWidth(w Width) error {
	if p.widthSet {
		return diag.New(diag.KindConstruction, "ir", p.Name(), "width already set")
	}
	p.width = w
	p.widthSet = true
	return nil
}

// SetSigned may be called exactly once.
func (p *Prime) SetSigned(signed bool) error {
	if p.signedSet {
		return diag.New(diag.KindConstruction, "ir", p.Name(), "signedness already set")
	}
	p.signed = signed
	p.signedSet = true
	return nil
}

// SetValue sets the constant value (class == ClassConst) or initialiser.
// Meaningful only when the object is ClassConst; callers are responsible
// for checking class before relying on the value for constant folding.
func (p *Prime) SetValue(v int64) {
	p.value = v
	p.hasValue = true
}
