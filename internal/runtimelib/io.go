package runtimelib

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

var (
	stdinReader     *bufio.Reader
	stdinReaderOnce sync.Once
)

func getStdinReader() *bufio.Reader {
	stdinReaderOnce.Do(func() { stdinReader = bufio.NewReader(os.Stdin) })
	return stdinReader
}

func ioLib() map[string]value.Value {
	return map[string]value.Value{
		"print": fn("fox.io.print", -1, func(ctx value.HostContext, args []value.Value) value.Value {
			for _, a := range args {
				fmt.Print(a.Inspect())
			}
			return value.Nil()
		}),
		"println": fn("fox.io.println", -1, func(ctx value.HostContext, args []value.Value) value.Value {
			for _, a := range args {
				fmt.Print(a.Inspect())
			}
			fmt.Println()
			return value.Nil()
		}),
		"read_line": fn("fox.io.read_line", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			line, err := getStdinReader().ReadString('\n')
			if err != nil && line == "" {
				return value.Nil()
			}
			for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
				line = line[:len(line)-1]
			}
			return value.FromObj(ctx.Intern(line))
		}),
		"read_file": fn("fox.io.read_file", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsString() {
				ctx.Raise("read_file: path must be a string")
			}
			data, err := os.ReadFile(args[0].AsString().Bytes)
			if err != nil {
				ctx.Raise("read_file: %v", err)
			}
			return value.FromObj(ctx.Intern(string(data)))
		}),
		"write_file": fn("fox.io.write_file", 2, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsString() || !args[1].IsString() {
				ctx.Raise("write_file: path and contents must be strings")
			}
			err := os.WriteFile(args[0].AsString().Bytes, []byte(args[1].AsString().Bytes), 0o644)
			if err != nil {
				ctx.Raise("write_file: %v", err)
			}
			return value.Nil()
		}),
	}
}
