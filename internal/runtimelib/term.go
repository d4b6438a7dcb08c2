package runtimelib

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

func termLib() map[string]value.Value {
	return map[string]value.Value{
		"is_tty": fn("fox.term.is_tty", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			return value.Bool(isatty.IsTerminal(os.Stdout.Fd()))
		}),
		"supports_color": fn("fox.term.supports_color", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			return value.Bool(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
		}),
	}
}
