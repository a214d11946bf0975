package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zboralski/symbolicate/internal/config"
	"github.com/zboralski/symbolicate/internal/fileprovider"
	"github.com/zboralski/symbolicate/internal/request"
	"github.com/zboralski/symbolicate/internal/response"
	"github.com/zboralski/symbolicate/internal/ui/colorize"
)

var (
	resolveSearchDirs []string
	resolveScript     string
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <job.json>",
		Short: "Resolve one v5/v6 job request file and print the response",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
	cmd.Flags().StringArrayVar(&resolveSearchDirs, "search", nil, "additional directory to search for binaries/debug files (repeatable)")
	cmd.Flags().StringVar(&resolveScript, "script", "", "run a goja script against the resolved responses as a manual-QA assertion")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}

	jobs, err := request.Parse(data)
	if err != nil {
		return fmt.Errorf("parse job: %w", err)
	}

	provider := &fileprovider.Local{SearchDirs: append(append([]string{}, cfg.SearchDirs...), resolveSearchDirs...)}

	responses := make([]*response.Response, len(jobs))
	for i, job := range jobs {
		responses[i] = response.Resolve(job, provider)
	}

	if resolveScript != "" {
		if err := runScript(resolveScript, responses); err != nil {
			return err
		}
	}

	body, err := response.EncodeAll(responses)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	if quiet {
		os.Stdout.Write(body)
		fmt.Println()
		return nil
	}

	printResolveSummary(responses)
	os.Stdout.Write(body)
	fmt.Println()
	return nil
}

func printResolveSummary(responses []*response.Response) {
	for _, resp := range responses {
		resolved := 0
		for _, s := range resp.Stacks {
			if s.Function != nil {
				resolved++
			}
		}
		fmt.Printf("%s %d/%d %s\n",
			colorize.Header("▶"),
			resolved, len(resp.Stacks),
			colorize.Detail("stacks resolved"))
		for name, ok := range resp.FoundModules {
			status := colorize.Error("miss")
			if ok {
				status = colorize.FuncName("hit")
			}
			fmt.Printf("  %s %s\n", colorize.Module(name), status)
		}
	}
	fmt.Println()
}
