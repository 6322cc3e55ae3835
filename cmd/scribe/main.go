// Command scribe runs the generation pipeline from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var outputFormat string

func main() {
	rootCmd := &cobra.Command{
		Use:           "scribe",
		Short:         "Generate multi-format content from analyzed source articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "output format: json, text")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(batchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
