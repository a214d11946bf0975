package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/zboralski/symbolicate/internal/config"
	"github.com/zboralski/symbolicate/internal/fileprovider"
	"github.com/zboralski/symbolicate/internal/log"
	"github.com/zboralski/symbolicate/internal/transport/connectrpc"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect RPC symbolication service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	provider := &fileprovider.Local{SearchDirs: cfg.SearchDirs}
	svc := &connectrpc.Service{Provider: provider}

	mux := http.NewServeMux()
	pattern, handler := connectrpc.NewHandler(svc)
	mux.Handle(pattern, handler)

	if log.L != nil {
		log.L.WithCategory("serve").Info("listening", log.Path(addr))
	} else if !quiet {
		fmt.Printf("listening on %s\n", addr)
	}

	return http.ListenAndServe(addr, mux)
}
