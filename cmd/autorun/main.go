// Command autorun runs, validates and traces declarative scenarios for
// the autorun expression runner.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/autorun/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
