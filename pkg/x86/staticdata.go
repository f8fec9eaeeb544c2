package x86

import (
	"fmt"
	"strings"

	"github.com/raymyers/mplc-backend/pkg/ir"
)

// emitStructLayout writes a struc .. endstruc prelude for a struct
// definition, followed by the compile-time sanity check of spec.md §4.4
// and the NASM dialect note in spec.md §6 ("%if (N != STRUC_size) %error
// ... %endif").
func (c *Context) emitStructLayout(def *ir.StructDef) {
	lines := []string{fmt.Sprintf("struc %s", def.Name())}
	var cursor uint64
	for _, m := range def.Members() {
		if m.Offset() > cursor {
			lines = append(lines, fmt.Sprintf("\tresb %d", m.Offset()-cursor))
			cursor = m.Offset()
		}
		lines = append(lines, fmt.Sprintf("\t.%s: resb %d", m.Name, m.Obj.Size()))
		cursor += m.Obj.Size()
	}
	if def.Size() > cursor {
		lines = append(lines, fmt.Sprintf("\tresb %d", def.Size()-cursor))
	}
	lines = append(lines, "endstruc")
	lines = append(lines,
		fmt.Sprintf("%%if (%d != %s_size)", def.Size(), def.Name()),
		fmt.Sprintf("%%error \"layout mismatch for %s\"", def.Name()),
		"%endif",
	)
	c.W.AddStruct(lines...)
}

// emitStaticData writes one object's declaration into .data or .bss, per
// spec.md §4.5.6. Routines are skipped (handled by EmitRoutine) and
// StructDef has no storage of its own (handled by emitStructLayout).
func (c *Context) emitStaticData(obj ir.Object) error {
	switch obj.Class() {
	case ir.ClassPrivate, ir.ClassPublic:
		// proceed
	default:
		return nil
	}

	switch o := obj.(type) {
	case *ir.Prime:
		c.W.AddData(fmt.Sprintf("%s: %s 0x%x", o.Name(), dbDirective(o.Size()), o.Value()))

	case *ir.Array:
		if len(o.Init()) == 0 {
			c.W.AddBSS(fmt.Sprintf("%s: resb %d", o.Name(), o.Size()))
			return nil
		}
		for _, line := range arrayInitLines(o.Name(), o.Init()) {
			c.W.AddData(line)
		}

	case *ir.StructInst:
		c.W.AddBSS(fmt.Sprintf("%s: resb %d", o.Name(), o.Size()))

	case *ir.StructDef, *ir.Routine:
		// handled elsewhere
	}
	return nil
}

func dbDirective(size uint64) string {
	switch size {
	case 1:
		return "db"
	case 2:
		return "dw"
	case 4:
		return "dd"
	default:
		return "dq"
	}
}

// arrayInitLines writes an initialiser as a single db line, collapsing
// each maximal run of printable ASCII into one quoted string segment and
// falling back to a numeric literal for everything else — matching the
// original generator's string/array literal emission (spec.md's
// supplemented feature on top of the distilled §4.5.6 text).
func arrayInitLines(name string, init []byte) []string {
	var segments []string
	var run []byte

	flushRun := func() {
		if len(run) > 0 {
			segments = append(segments, fmt.Sprintf("%q", string(run)))
			run = nil
		}
	}

	for _, by := range init {
		printable := by >= 0x20 && by < 0x7f && by != '"' && by != '\\'
		if printable {
			run = append(run, by)
			continue
		}
		flushRun()
		segments = append(segments, fmt.Sprintf("0x%x", by))
	}
	flushRun()

	return []string{fmt.Sprintf("%s: db %s", name, strings.Join(segments, ", "))}
}
