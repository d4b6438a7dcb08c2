package main

import (
	"os"

	"github.com/lone-wolf-akela/foxlox/pkg/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
