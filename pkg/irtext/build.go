package irtext

import (
	"fmt"

	"github.com/raymyers/mplc-backend/pkg/blockform"
	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/target"
)

// Build converts a parsed Program into an IR container, resolving every
// name reference against objects declared earlier in the file — this
// format requires declaration-before-use, the same way the reference
// front end's build_ir() populates its container before any pass runs.
func Build(prog *Program) (*ir.Container, target.Mode, error) {
	mode := target.ModeProtected
	switch prog.Mode {
	case "", "protected":
		mode = target.ModeProtected
	case "long":
		mode = target.ModeLong
	default:
		return nil, 0, fmt.Errorf("unknown mode %q", prog.Mode)
	}

	cont := ir.NewContainer()
	for _, stmt := range prog.Stmts {
		var err error
		switch d := stmt.(type) {
		case PrimeDecl:
			err = buildPrime(cont, d)
		case ArrayDecl:
			err = buildArray(cont, d)
		case StructDefDecl:
			err = buildStructDef(cont, d)
		case StructInstDecl:
			err = buildStructInst(cont, d)
		case RoutineDecl:
			err = buildRoutine(cont, d)
		default:
			err = fmt.Errorf("unrecognised statement %T", d)
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return cont, mode, nil
}

func parseClass(s string) (ir.StorageClass, error) {
	switch s {
	case "private":
		return ir.ClassPrivate, nil
	case "public":
		return ir.ClassPublic, nil
	case "extern":
		return ir.ClassExtern, nil
	case "stack":
		return ir.ClassStack, nil
	case "param":
		return ir.ClassParam, nil
	case "member":
		return ir.ClassMember, nil
	case "temp":
		return ir.ClassTemp, nil
	case "const":
		return ir.ClassConst, nil
	default:
		return 0, fmt.Errorf("unknown storage class %q", s)
	}
}

func parseWidth(s string) (ir.Width, error) {
	switch s {
	case "byte":
		return ir.WidthByte, nil
	case "byte2":
		return ir.WidthByte2, nil
	case "byte4":
		return ir.WidthByte4, nil
	case "byte8":
		return ir.WidthByte8, nil
	case "word":
		return ir.WidthWord, nil
	case "ptr":
		return ir.WidthPtr, nil
	case "max":
		return ir.WidthMax, nil
	default:
		return 0, fmt.Errorf("unknown width %q", s)
	}
}

func buildPrime(cont *ir.Container, d PrimeDecl) error {
	class, err := parseClass(d.Class)
	if err != nil {
		return err
	}
	p, err := ir.NewPrime(d.Name, class)
	if err != nil {
		return err
	}
	width, err := parseWidth(d.Width)
	if err != nil {
		return err
	}
	if err := p.SetWidth(width); err != nil {
		return err
	}
	if d.Signed != nil {
		if err := p.SetSigned(*d.Signed); err != nil {
			return err
		}
	}
	if d.Init != nil {
		p.SetValue(*d.Init)
	}
	return cont.Add(p)
}

func buildArray(cont *ir.Container, d ArrayDecl) error {
	class, err := parseClass(d.Class)
	if err != nil {
		return err
	}
	a, err := ir.NewArray(d.Name, class)
	if err != nil {
		return err
	}
	child, err := cont.Find(d.Child)
	if err != nil {
		return err
	}
	if err := a.SetChild(child); err != nil {
		return err
	}
	if err := a.SetCount(d.Count); err != nil {
		return err
	}
	if d.HasData {
		a.SetInit([]byte(d.Data))
	}
	return cont.Add(a)
}

func buildStructDef(cont *ir.Container, d StructDefDecl) error {
	class, err := parseClass(d.Class)
	if err != nil {
		return err
	}
	def, err := ir.NewStructDef(d.Name, class)
	if err != nil {
		return err
	}
	for _, m := range d.Members {
		obj, err := cont.Find(m.Obj)
		if err != nil {
			return err
		}
		if _, err := def.AddMember(m.Name, obj); err != nil {
			return err
		}
	}
	return cont.Add(def)
}

func buildStructInst(cont *ir.Container, d StructInstDecl) error {
	class, err := parseClass(d.Class)
	if err != nil {
		return err
	}
	defObj, err := cont.Find(d.Def)
	if err != nil {
		return err
	}
	def, ok := defObj.(*ir.StructDef)
	if !ok {
		return fmt.Errorf("%s is not a struct definition", d.Def)
	}
	inst, err := ir.NewStructInst(d.Name, class, def)
	if err != nil {
		return err
	}
	return cont.Add(inst)
}

func buildRoutine(cont *ir.Container, d RoutineDecl) error {
	class, err := parseClass(d.Class)
	if err != nil {
		return err
	}
	r, err := ir.NewRoutine(d.Name, class)
	if err != nil {
		return err
	}

	for _, pm := range d.Params {
		obj, err := cont.Find(pm.Obj)
		if err != nil {
			return err
		}
		if _, err := r.AddParam(pm.Name, obj); err != nil {
			return err
		}
	}
	for _, am := range d.Autos {
		obj, err := cont.Find(am.Obj)
		if err != nil {
			return err
		}
		if _, err := r.AddAuto(am.Name, obj); err != nil {
			return err
		}
	}

	lookup := func(name string) (ir.Object, error) {
		if m, ok := r.Params().Member(name); ok {
			return m.Obj, nil
		}
		if m, ok := r.Autos().Member(name); ok {
			return m.Obj, nil
		}
		return cont.Find(name)
	}

	var stream []*ir.Instruction
	for _, is := range d.Instrs {
		inst, err := buildInstr(is, lookup)
		if err != nil {
			return fmt.Errorf("routine %s: %w", d.Name, err)
		}
		stream = append(stream, inst)
	}

	blocks, err := blockform.Form(d.Name, stream)
	if err != nil {
		return err
	}
	r.SetBlocks(blocks)

	return cont.Add(r)
}

func buildInstr(is InstrStmt, lookup func(string) (ir.Object, error)) (*ir.Instruction, error) {
	op, ok := ir.LookupOpcode(is.Op)
	if !ok {
		return nil, fmt.Errorf("unknown opcode %q", is.Op)
	}

	inst := ir.NewInstruction(op, nil, nil, nil)

	if op == ir.OpLbl {
		inst.Target = is.Label
		return inst, nil
	}
	if is.Target != "" {
		inst.Target = is.Target
	}

	class, ok := op.Class()
	if !ok {
		return nil, fmt.Errorf("opcode %q has no classification", is.Op)
	}

	switch class {
	case ir.ClassNoArg:
		// nothing to resolve

	case ir.ClassNoResult:
		if is.Op == "call" {
			if len(is.Operands) > 0 {
				res, err := lookup(is.Operands[0])
				if err != nil {
					return nil, err
				}
				inst.Result = res
			}
			break
		}
		if len(is.Operands) > 0 {
			obj, err := lookup(is.Operands[0])
			if err != nil {
				return nil, err
			}
			inst.Left = obj
		}

	case ir.ClassUnaryResult:
		if len(is.Operands) < 2 {
			return nil, fmt.Errorf("opcode %q needs a result and one operand", is.Op)
		}
		res, err := lookup(is.Operands[0])
		if err != nil {
			return nil, err
		}
		left, err := lookup(is.Operands[1])
		if err != nil {
			return nil, err
		}
		inst.Result, inst.Left = res, left

		if is.Op == "ref" && len(is.Operands) > 2 {
			right, err := lookup(is.Operands[2])
			if err != nil {
				return nil, err
			}
			inst.Right = right
		}

	case ir.ClassBinaryResult:
		if len(is.Operands) < 3 {
			return nil, fmt.Errorf("opcode %q needs a result and two operands", is.Op)
		}
		res, err := lookup(is.Operands[0])
		if err != nil {
			return nil, err
		}
		left, err := lookup(is.Operands[1])
		if err != nil {
			return nil, err
		}
		right, err := lookup(is.Operands[2])
		if err != nil {
			return nil, err
		}
		inst.Result, inst.Left, inst.Right = res, left, right
	}

	return inst, nil
}
