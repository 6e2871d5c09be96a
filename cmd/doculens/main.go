// Command doculens runs one-shot document extraction from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "doculens",
		Short: "Extract structured data from scanned documents with a vision LLM",
	}

	root.AddCommand(processCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
