// Package cli implements the foxlox command-line wrapper (§10.2):
// run/build/exec subcommands over the compiler and VM entry points,
// with hand-rolled argument handling in the teacher's own
// cmd/funxy/main.go style rather than a third-party flag library.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/lone-wolf-akela/foxlox/internal/compiler"
	"github.com/lone-wolf-akela/foxlox/internal/config"
	"github.com/lone-wolf-akela/foxlox/internal/runtimelib"
	"github.com/lone-wolf-akela/foxlox/internal/value"
	"github.com/lone-wolf-akela/foxlox/internal/vm"
)

// Exit codes (§6.5).
const (
	ExitCompileError = 65
	ExitRuntimeError = 70
	ExitFileError    = 74
	ExitUsageError   = 64
)

// Main is the whole of cmd/foxlox/main.go's logic, factored out here so
// main stays a few lines (§10.1).
func Main(args []string) int {
	if len(args) < 1 {
		printUsage()
		return ExitUsageError
	}

	switch args[0] {
	case "run":
		if len(args) != 2 {
			printUsage()
			return ExitUsageError
		}
		return runFile(args[1])
	case "build":
		return buildFile(args[1:])
	case "exec":
		if len(args) != 2 {
			printUsage()
			return ExitUsageError
		}
		return execChunk(args[1])
	case "version":
		fmt.Println("foxlox " + config.Version)
		return 0
	default:
		printUsage()
		return ExitUsageError
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: foxlox run <file.fox>")
	fmt.Fprintln(os.Stderr, "       foxlox build <file.fox> -o <out.foxc>")
	fmt.Fprintln(os.Stderr, "       foxlox exec <chunk.foxc>")
}

func runFile(path string) int {
	status, blob := compiler.CompileFile(path)
	if status != compiler.OK {
		return ExitCompileError
	}
	return runBlob(blob)
}

func buildFile(args []string) int {
	var src, out string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o":
			if i+1 >= len(args) {
				printUsage()
				return ExitUsageError
			}
			out = args[i+1]
			i++
		default:
			src = args[i]
		}
	}
	if src == "" || out == "" {
		printUsage()
		return ExitUsageError
	}

	status, blob := compiler.CompileFile(src)
	if status != compiler.OK {
		return ExitCompileError
	}
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "foxlox: cannot write %s: %v\n", out, err)
		return ExitFileError
	}
	return 0
}

func execChunk(path string) int {
	blob, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foxlox: cannot read %s: %v\n", path, err)
		return ExitFileError
	}
	return runBlob(blob)
}

func runBlob(blob []byte) int {
	machine := newMachine()
	_, err := machine.Run(context.Background(), blob)
	if err != nil {
		printRuntimeError(err)
		return ExitRuntimeError
	}
	return 0
}

// newMachine constructs a VM with every built-in library loaded (§11).
func newMachine() *vm.VM {
	opts := make([]vm.Option, 0, len(runtimelib.All()))
	for name, table := range runtimelib.All() {
		opts = append(opts, vm.WithLib(name, table))
	}
	return vm.New(opts...)
}

func printRuntimeError(err error) {
	bold, reset := "", ""
	if colorize() {
		bold, reset = "\x1b[31m", "\x1b[0m"
	}
	if re, ok := err.(*value.RuntimeError); ok {
		fmt.Fprintf(os.Stderr, "%s[line %d] %s%s\n", bold, re.Line, re.Message, reset)
		for _, frame := range re.Trace {
			fmt.Fprintf(os.Stderr, "  at %s\n", frame)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s%s\n", bold, err, reset)
}

// colorize gates ANSI escapes on runtime-error output, matching the
// teacher's builtins_term.go isatty idiom (§10.2).
func colorize() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}
