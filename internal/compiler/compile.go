// Package compiler wires the scanner, parser, resolver, and code
// generator into the two entry points §6.1 specifies: compile source
// text or a source file into a serialized chunk blob.
package compiler

import (
	"fmt"
	"os"

	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
	"github.com/lone-wolf-akela/foxlox/internal/codegen"
	"github.com/lone-wolf-akela/foxlox/internal/config"
	"github.com/lone-wolf-akela/foxlox/internal/diagnostics"
	"github.com/lone-wolf-akela/foxlox/internal/parser"
	"github.com/lone-wolf-akela/foxlox/internal/resolver"
	"github.com/lone-wolf-akela/foxlox/internal/scanner"
	"github.com/lone-wolf-akela/foxlox/internal/serialize"
)

// Result is the compile outcome (§6.1).
type Result int

const (
	OK Result = iota
	COMPILE_ERROR
)

// Compile compiles source as the module named "script" with path ".".
// On failure it prints each diagnostic to stderr and returns an empty blob.
func Compile(source []byte) (Result, []byte) {
	return compile(string(source), "script", ".")
}

// CompileFile reads path, compiling it with the module name equal to
// its file stem and path equal to the given path.
func CompileFile(path string) (Result, []byte) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foxlox: cannot read %s: %v\n", path, err)
		return COMPILE_ERROR, nil
	}
	return compile(string(data), config.TrimSourceExt(path), path)
}

func compile(src, moduleName, sourcePath string) (Result, []byte) {
	lines := scanner.New(src).Lines()

	diags := &diagnostics.Bag{}
	prog := parser.Parse(src, diags)
	if diags.HadError() {
		diags.Print(os.Stderr)
		return COMPILE_ERROR, nil
	}

	resolver.Resolve(prog, diags)
	if diags.HadError() {
		diags.Print(os.Stderr)
		return COMPILE_ERROR, nil
	}

	chunk := codegen.Generate(prog, sourcePath, diags)
	if diags.HadError() {
		diags.Print(os.Stderr)
		return COMPILE_ERROR, nil
	}
	chunk.SourcePerLine = lines
	_ = moduleName // the module name is recorded neither in the blob nor in diagnostics

	return OK, serialize.Write(chunk)
}

// CompileFileToChunk compiles path the same way CompileFile does but
// returns the in-memory Chunk directly, skipping the serialize
// round-trip. Used by the module loader (§4.9), which needs a Chunk
// to attach to the running VM's pools, not a relocatable blob.
func CompileFileToChunk(path string) (*bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src := string(data)
	lines := scanner.New(src).Lines()

	diags := &diagnostics.Bag{}
	prog := parser.Parse(src, diags)
	if !diags.HadError() {
		resolver.Resolve(prog, diags)
	}
	if diags.HadError() {
		return nil, fmt.Errorf("foxlox: compile error in %s", path)
	}

	chunk := codegen.Generate(prog, path, diags)
	if diags.HadError() {
		return nil, fmt.Errorf("foxlox: compile error in %s", path)
	}
	chunk.SourcePerLine = lines
	return chunk, nil
}
