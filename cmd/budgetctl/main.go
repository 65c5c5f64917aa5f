// Command budgetctl reads and edits the budget tables from a terminal,
// against the same backend the server uses.
package main

import (
	"fmt"
	"os"

	"budget/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	a := newApp(os.Stdout, os.Stderr)
	err := newRootCmd(a).Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("%v", err))
		os.Exit(1)
	}
}
