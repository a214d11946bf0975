package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zboralski/symbolicate/internal/dispatch"
	"github.com/zboralski/symbolicate/internal/symerr"
	"github.com/zboralski/symbolicate/internal/ui/colorize"
)

var inspectTUI bool

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <binary>",
		Short: "Show dispatch information for a binary (format, breakpad id, symbol count)",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	cmd.Flags().BoolVar(&inspectTUI, "tui", false, "browse the resolved symbol table interactively")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read binary: %w", err)
	}

	kind, ok := dispatch.Sniff(buf)
	if !ok {
		return fmt.Errorf("unrecognized object file magic: %s", path)
	}

	fmt.Printf("%s %s\n", colorize.Header("▶"), filepath.Base(path))
	fmt.Printf("  %s %s\n", colorize.Detail("format:"), colorize.FuncName(kind.String()))

	// No expected id is known here: the first Build reports the computed
	// id through its mismatch error, and the second Build validates
	// against it.
	result, err := dispatch.Build(buf, nil, "", true)
	var mismatch *symerr.UnmatchedBreakpadID
	if errors.As(err, &mismatch) {
		result, err = dispatch.Build(buf, nil, mismatch.Computed, true)
	}
	if err != nil {
		fmt.Printf("  %s %v\n", colorize.Error("dispatch failed:"), err)
		return nil
	}
	if result.MachO != nil {
		defer result.MachO.Close()
	}

	fmt.Printf("  %s %s\n", colorize.Detail("breakpad id:"), colorize.FuncName(result.BreakpadID))
	if result.NeedsLinkage {
		fmt.Printf("  %s\n", colorize.Detail("external (N_OSO) debug info, resolved via linkage pipeline"))
		return nil
	}
	if result.Table != nil {
		fmt.Printf("  %s %d\n", colorize.Detail("symbols:"), len(result.Table.Addr))
		if inspectTUI {
			return runSymbolTableTUI(filepath.Base(path), result.Table)
		}
	}
	return nil
}
