// Package pipeline chains the backend's passes into the single entry
// point the command line drives: block formation, liveness, layout, then
// emission. The chain mirrors the do* dispatch in the reference driver —
// one function per pass, called in a fixed order, each returning as soon
// as its pass fails.
package pipeline

import (
	"github.com/raymyers/mplc-backend/pkg/blockform"
	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/layout"
	"github.com/raymyers/mplc-backend/pkg/liveness"
	"github.com/raymyers/mplc-backend/pkg/target"
	"github.com/raymyers/mplc-backend/pkg/x86"
)

// Result holds everything a caller might want to inspect after a
// successful compile: the populated container (post-liveness, post-layout)
// and the assembled NASM writer, ready for WriteTo.
type Result struct {
	Container *ir.Container
	Writer    *x86.Writer
}

// Options controls whether intermediate stage state is reported back to
// the caller, mirroring the reference driver's -d* dump flags; every
// stage always runs.
type Options struct {
	DumpBlocks func(r *ir.Routine)
	DumpLive   func(r *ir.Routine)
	DumpLayout func(cont *ir.Container)
}

// Compile runs every pass over cont in order and returns the assembled
// output. Any pass failure aborts the remaining passes and is returned
// unwrapped, since each pass already attaches its own diag.Error.
func Compile(cont *ir.Container, mode target.Mode, sink *diag.Sink, opts Options) (*Result, error) {
	if err := runBlockForm(cont, opts); err != nil {
		return nil, err
	}
	if err := runLiveness(cont, opts); err != nil {
		return nil, err
	}
	if err := runLayout(cont, mode, sink, opts); err != nil {
		return nil, err
	}
	w, err := x86.EmitProgram(mode, cont, sink)
	if err != nil {
		return nil, err
	}
	return &Result{Container: cont, Writer: w}, nil
}

// runBlockForm re-normalizes every routine's block list against the
// leader rules. Routines built by pkg/irtext already arrive pre-formed;
// this pass is idempotent over them but still required for any caller
// that mutates a routine's instruction stream after construction.
func runBlockForm(cont *ir.Container, opts Options) error {
	for _, obj := range cont.Iterate() {
		r, ok := obj.(*ir.Routine)
		if !ok {
			continue
		}
		if err := blockform.FormRoutine(r); err != nil {
			return err
		}
		if opts.DumpBlocks != nil {
			opts.DumpBlocks(r)
		}
	}
	return nil
}

func runLiveness(cont *ir.Container, opts Options) error {
	for _, obj := range cont.Iterate() {
		r, ok := obj.(*ir.Routine)
		if !ok {
			continue
		}
		if err := liveness.Run(cont, r); err != nil {
			return err
		}
		if opts.DumpLive != nil {
			opts.DumpLive(r)
		}
	}
	return nil
}

func runLayout(cont *ir.Container, mode target.Mode, sink *diag.Sink, opts Options) error {
	if err := layout.Run(cont, mode, sink); err != nil {
		return err
	}
	if opts.DumpLayout != nil {
		opts.DumpLayout(cont)
	}
	return nil
}
