package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zboralski/symbolicate/internal/log"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "symbolicate",
		Short: "Resolve native stack addresses to function names and source locations",
		Long: `symbolicate resolves instruction addresses to function names, offsets, and
inline call stacks across ELF, Mach-O (including fat binaries with
external N_OSO/STAB debug info) and PE/PDB binaries.

Examples:
  symbolicate resolve job.json --search /usr/lib/debug
  symbolicate serve --addr :8089
  symbolicate inspect libfoo.so`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Init(verbose)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
