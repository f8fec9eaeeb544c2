package x86

import (
	"bufio"
	"fmt"
	"io"
)

// Writer accumulates NASM-dialect assembler text section by section and
// flushes it in the fixed output order of spec.md §4.5.7 (plus the .bss
// section the original generator carries that the distilled spec omits).
// The section-buffers-then-flush shape stands in for the reference
// fasm-dialect printer's line-buffer, rebuilt around NASM's section model
// instead of FASM's.
type Writer struct {
	structs []string
	globals []string
	externs []string
	data    []string
	bss     []string
	code    []string
}

// NewWriter returns an empty assembler text builder.
func NewWriter() *Writer { return &Writer{} }

func (w *Writer) AddStruct(lines ...string)  { w.structs = append(w.structs, lines...) }
func (w *Writer) AddGlobal(name string)      { w.globals = append(w.globals, fmt.Sprintf("global %s", name)) }
func (w *Writer) AddExtern(name string)      { w.externs = append(w.externs, fmt.Sprintf("extern %s", name)) }
func (w *Writer) AddData(line string)        { w.data = append(w.data, line) }
func (w *Writer) AddBSS(line string)         { w.bss = append(w.bss, line) }
func (w *Writer) AddCode(line string)        { w.code = append(w.code, line) }

// WriteTo flushes every section to out in the §4.5.7 order:
// header, struct layouts, visibility directives, .data, .bss, .code,
// trailer.
func (w *Writer) WriteTo(out io.Writer) error {
	bw := bufio.NewWriter(out)

	fmt.Fprintln(bw, "; Generated by mplc-backend")

	if len(w.structs) > 0 {
		fmt.Fprintln(bw)
		for _, l := range w.structs {
			fmt.Fprintln(bw, l)
		}
	}

	if len(w.globals) > 0 || len(w.externs) > 0 {
		fmt.Fprintln(bw)
		for _, l := range w.globals {
			fmt.Fprintln(bw, l)
		}
		for _, l := range w.externs {
			fmt.Fprintln(bw, l)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "section .data")
	fmt.Fprintln(bw, "align 8")
	for _, l := range w.data {
		fmt.Fprintln(bw, "\t"+l)
	}

	if len(w.bss) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "section .bss")
		for _, l := range w.bss {
			fmt.Fprintln(bw, "\t"+l)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "section .code")
	fmt.Fprintln(bw, "align 16")
	for _, l := range w.code {
		if isLabelLine(l) {
			fmt.Fprintln(bw, l)
		} else {
			fmt.Fprintln(bw, "\t"+l)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "; End of MPL generated file")

	return bw.Flush()
}

func isLabelLine(l string) bool {
	return len(l) > 0 && l[len(l)-1] == ':'
}
