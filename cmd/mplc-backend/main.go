package main

import (
	"fmt"
	"io"
	"os"

	"github.com/raymyers/mplc-backend/pkg/diag"
	"github.com/raymyers/mplc-backend/pkg/ir"
	"github.com/raymyers/mplc-backend/pkg/irtext"
	"github.com/raymyers/mplc-backend/pkg/pipeline"
	"github.com/raymyers/mplc-backend/pkg/target"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	modeLong      bool
	modeProtected bool
	modeArmV7     bool
	modeArmV8     bool

	preprocessOnly bool
	outputPath     string
	verbose        bool
	quiet          bool
	traceFlag      bool

	dumpIR     bool
	dumpBlocks bool
	dumpLive   bool
	dumpLayout bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mplc-backend [file]",
		Short: "mplc-backend lowers a compiler's three-address IR to x86 NASM assembly",
		Long: `mplc-backend reads an intermediate representation — either built
programmatically or read from the textual IR format in pkg/irtext — and
runs it through block formation, liveness analysis, layout, and a
greedy block-local code generator to produce NASM-dialect assembly.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return compileFile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&modeLong, "x86-long", false, "target x86-64 long mode")
	rootCmd.Flags().BoolVar(&modeProtected, "x86-protected", false, "target x86 protected mode (default)")
	rootCmd.Flags().BoolVar(&modeArmV7, "arm-v7", false, "target ARMv7 (not implemented)")
	rootCmd.Flags().BoolVar(&modeArmV8, "arm-v8", false, "target ARMv8 (not implemented)")

	rootCmd.Flags().BoolVarP(&preprocessOnly, "parse-only", "p", false, "parse the IR source and stop, without running any pass")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path for generated assembly (default: stdout)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report the total warning count after compiling")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress warnings")
	rootCmd.Flags().BoolVarP(&traceFlag, "trace", "d", false, "trace temp spills and block-boundary flushes to a .dbg file")

	rootCmd.Flags().BoolVar(&dumpIR, "dump-ir", false, "dump the container's objects before any pass runs")
	rootCmd.Flags().BoolVar(&dumpBlocks, "dump-blocks", false, "dump each routine's basic blocks after block formation")
	rootCmd.Flags().BoolVar(&dumpLive, "dump-live", false, "dump liveness annotations after the liveness pass")
	rootCmd.Flags().BoolVar(&dumpLayout, "dump-layout", false, "dump resolved sizes and offsets after layout")

	return rootCmd
}

func resolveMode() (target.Mode, error) {
	switch {
	case modeArmV7:
		return target.ParseMode("arm-v7")
	case modeArmV8:
		return target.ParseMode("arm-v8")
	case modeLong:
		return target.ParseMode("x86-long")
	default:
		return target.ParseMode("x86-protected")
	}
}

func compileFile(filename string, out, errOut io.Writer) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "mplc-backend: error reading %s: %v\n", filename, err)
		return err
	}

	prog, err := irtext.Parse(string(src))
	if err != nil {
		fmt.Fprintf(errOut, "mplc-backend: %s: parse error: %v\n", filename, err)
		return err
	}

	cont, fileMode, err := irtext.Build(prog)
	if err != nil {
		fmt.Fprintf(errOut, "mplc-backend: %s: %v\n", filename, err)
		return err
	}

	mode := fileMode
	if modeLong || modeProtected || modeArmV7 || modeArmV8 {
		mode, err = resolveMode()
		if err != nil {
			fmt.Fprintf(errOut, "mplc-backend: %v\n", err)
			return err
		}
	}

	if preprocessOnly {
		dumpContainer(out, cont)
		return nil
	}

	sink := diag.NewSink(errOut, nil, quiet)
	if traceFlag {
		dbgBase := outputPath
		if dbgBase == "" {
			dbgBase = filename
		}
		dbgFile, err := os.Create(dbgBase + ".dbg")
		if err != nil {
			fmt.Fprintf(errOut, "mplc-backend: error creating trace file: %v\n", err)
			return err
		}
		defer dbgFile.Close()
		sink.Trace = dbgFile
	}

	if dumpIR {
		dumpContainer(out, cont)
	}

	opts := pipeline.Options{}
	if dumpBlocks {
		opts.DumpBlocks = func(r *ir.Routine) { dumpRoutineBlocks(out, r) }
	}
	if dumpLive {
		opts.DumpLive = func(r *ir.Routine) { dumpRoutineLiveness(out, r) }
	}
	if dumpLayout {
		opts.DumpLayout = func(c *ir.Container) { dumpContainerLayout(out, c) }
	}

	result, err := pipeline.Compile(cont, mode, sink, opts)
	if err != nil {
		fmt.Fprintf(errOut, "mplc-backend: %s: %v\n", filename, err)
		return err
	}

	if verbose {
		fmt.Fprintf(errOut, "mplc-backend: %d warning(s)\n", sink.Warnings())
	}

	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			fmt.Fprintf(errOut, "mplc-backend: error creating %s: %v\n", outputPath, err)
			return err
		}
		defer f.Close()
		return result.Writer.WriteTo(f)
	}

	return result.Writer.WriteTo(out)
}

func dumpContainer(out io.Writer, cont *ir.Container) {
	fmt.Fprintln(out, "; -- container --")
	for _, obj := range cont.Iterate() {
		fmt.Fprintf(out, "; %-20s %-12s %-10s\n", obj.Name(), obj.Variant(), obj.Class())
	}
}

func dumpRoutineBlocks(out io.Writer, r *ir.Routine) {
	fmt.Fprintf(out, "; -- blocks: %s --\n", r.Name())
	for i, b := range r.Blocks() {
		fmt.Fprintf(out, ";   block %d (%d instrs)\n", i, len(b.Instrs))
		for _, inst := range b.Instrs {
			fmt.Fprintf(out, ";     %s\n", inst.Op)
		}
	}
}

func dumpRoutineLiveness(out io.Writer, r *ir.Routine) {
	fmt.Fprintf(out, "; -- liveness: %s --\n", r.Name())
	for i, b := range r.Blocks() {
		for j, inst := range b.Instrs {
			fmt.Fprintf(out, ";   [%d:%d] %-6s used_next=%v result_live=%v left_live=%v right_live=%v\n",
				i, j, inst.Op, inst.UsedNext, inst.ResultLive, inst.LeftLive, inst.RightLive)
		}
	}
}

func dumpContainerLayout(out io.Writer, cont *ir.Container) {
	fmt.Fprintln(out, "; -- layout --")
	for _, obj := range cont.Iterate() {
		if obj.Sized() {
			fmt.Fprintf(out, "; %-20s size=%d\n", obj.Name(), obj.Size())
		}
	}
}
