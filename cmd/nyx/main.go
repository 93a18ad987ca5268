package main

import (
	"os"

	"github.com/nyxlang/nyx/cmd/nyx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCodeFor(err))
	}
}
