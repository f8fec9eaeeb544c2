package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/irtext"
	"github.com/raymyers/mplc-backend/pkg/target"
)

func buildContainer(t *testing.T, src string) (*ir.Container, target.Mode) {
	t.Helper()
	prog, err := irtext.Parse(src)
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	cont, mode, err := irtext.Build(prog)
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}
	return cont, mode
}

func TestCompileEndToEndProducesAssembledOutput(t *testing.T) {
	src := "mode long\n" +
		"prime a public byte4\n" +
		"prime b public byte4\n" +
		"routine add_ab public\n" +
		"add a, a, b\n" +
		"rtrn a\n" +
		"end\n"
	cont, mode := buildContainer(t, src)
	sink := diag.NewSink(nil, nil, true)

	result, err := Compile(cont, mode, sink, Options{})
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := result.Writer.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "add_ab:") {
		t.Errorf("output missing routine label:\n%s", out)
	}
	if !strings.Contains(out, "section .data") {
		t.Errorf("output missing data section:\n%s", out)
	}
}

func TestCompileInvokesDumpCallbacksPerRoutine(t *testing.T) {
	src := "prime a public byte4\n" +
		"routine f public\n" +
		"rtrn a\n" +
		"end\n"
	cont, mode := buildContainer(t, src)
	sink := diag.NewSink(nil, nil, true)

	var blockDumps, liveDumps, layoutDumps int
	opts := Options{
		DumpBlocks: func(r *ir.Routine) { blockDumps++ },
		DumpLive:   func(r *ir.Routine) { liveDumps++ },
		DumpLayout: func(c *ir.Container) { layoutDumps++ },
	}

	if _, err := Compile(cont, mode, sink, opts); err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	if blockDumps != 1 {
		t.Errorf("DumpBlocks called %d times, want 1", blockDumps)
	}
	if liveDumps != 1 {
		t.Errorf("DumpLive called %d times, want 1", liveDumps)
	}
	if layoutDumps != 1 {
		t.Errorf("DumpLayout called %d times, want 1", layoutDumps)
	}
}

func TestCompilePropagatesLayoutFailure(t *testing.T) {
	// byte8 is rejected outright in protected mode by the layout pass.
	src := "prime x public byte8\n"
	cont, mode := buildContainer(t, src)
	sink := diag.NewSink(nil, nil, true)

	if _, err := Compile(cont, mode, sink, Options{}); err == nil {
		t.Fatalf("Compile accepted a byte8 prime in protected mode")
	}
}
