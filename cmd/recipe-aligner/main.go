package main

import (
	"fmt"
	"os"

	"github.com/alchemiesofscent/recipe-aligner/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "recipe-aligner:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
