// Command stencil builds content schemas from templates and serves sites.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stencil/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
