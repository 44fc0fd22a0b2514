package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vslc/src/backend"
	"vslc/src/frontend"
	"vslc/src/ir"
	"vslc/src/util"
	"vslc/src/vm"
)

var (
	dumpTokens  bool
	dumpTree    bool
	dumpSymbols bool
	dumpAsm     bool
	noRun       bool
	verbose     bool
	memWords    int
)

var errColor = color.New(color.FgRed, color.Bold)

func main() {
	root := &cobra.Command{
		Use:           "vslc <path>",
		Short:         "Compile and run a source file on the stack virtual machine",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	root.Flags().BoolVar(&dumpTokens, "dump-tokens", false, "print the lexed token stream and exit")
	root.Flags().BoolVar(&dumpTree, "dump-tree", false, "print the parsed syntax tree")
	root.Flags().BoolVar(&dumpSymbols, "dump-symbols", false, "print the resolved symbol table hierarchy")
	root.Flags().BoolVar(&dumpAsm, "dump-asm", false, "print the disassembled executable image")
	root.Flags().BoolVar(&noRun, "no-run", false, "compile only; do not execute the image")
	root.Flags().BoolVar(&verbose, "verbose", false, "print timing for each compile stage")
	root.Flags().IntVar(&memWords, "mem-words", vm.DefaultMemoryWords, "VM memory size, in words")

	if err := root.Execute(); err != nil {
		errColor.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// run drives one compile-and-execute pass over the source file at path,
// honouring the --dump-* and --no-run flags along the way.
func run(path string) error {
	var trace *util.Writer
	if verbose {
		trace = util.NewWriter(os.Stderr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	src := string(data)

	if dumpTokens {
		return frontend.DumpTokens(src, os.Stdout)
	}

	start := time.Now()
	mod, symtab, err := ir.Parse(src)
	if err != nil {
		return err
	}
	trace.Stage("parse", "%s", time.Since(start))
	if dumpTree {
		mod.Print(os.Stdout, 0)
	}
	if dumpSymbols {
		printScope(symtab, 0)
	}

	start = time.Now()
	img, err := backend.Generate(mod, symtab)
	if err != nil {
		return err
	}
	trace.Stage("codegen", "%s, %d words", time.Since(start), img.Size())
	if dumpAsm {
		fmt.Print(img.Disassemble())
	}

	if noRun {
		return nil
	}

	machine := vm.New(memWords, os.Stdin, os.Stdout)
	if err := machine.LoadImage(img); err != nil {
		return err
	}
	start = time.Now()
	err = machine.Execute()
	trace.Stage("execute", "%s", time.Since(start))
	return err
}

func printScope(st *ir.SymTab, depth int) {
	fmt.Printf("%*sscope %q\n", depth*2, "", st.Name)
	for _, sym := range st.Symbols {
		fmt.Printf("%*s  %s %s (index %d)\n", depth*2, "", sym.Kind, sym.Name, sym.LocalIndex)
	}
	for _, child := range st.Children {
		printScope(child, depth+1)
	}
}
