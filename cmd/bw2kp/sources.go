package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvinuesa/bw2kp/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available vault sources",
	Long: `List the vault sources bw2kp can read from.

Use the --source flag of migrate or preview to pick one.

Examples:
  # List all sources
  bw2kp sources`,
	Args: cobra.NoArgs,
	Run:  runSources,
}

func runSources(cmd *cobra.Command, args []string) {
	printSources(cmd.OutOrStdout(), sources.DefaultRegistry())
}

func printSources(w io.Writer, registry *sources.Registry) {
	fmt.Fprintln(w, "Available vault sources:")
	fmt.Fprintln(w)

	for _, source := range registry.List() {
		extStr := strings.Join(source.SupportedExtensions(), ", ")
		if extStr == "" {
			extStr = "(bw binary)"
		}

		fmt.Fprintf(w, "  %-12s %s\n", source.Name(), source.Description())
		fmt.Fprintf(w, "  %-12s Input: %s\n", "", extStr)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Use 'bw2kp migrate -s <source> -d <database>' to migrate a vault.")
}
