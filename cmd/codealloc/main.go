// Command codealloc exercises the executable code allocator from the
// outside: it is a thin client of the engine package, not a code
// generator or assembler — it publishes synthetic (data, code) buffers to
// demonstrate and benchmark the allocator itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "codealloc",
		Short: "Exercise the executable code allocator",
	}
	root.AddCommand(newInfoCommand())
	root.AddCommand(newBenchCommand())
	root.AddCommand(newServeCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
