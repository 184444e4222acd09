// Command server is the process entry point for the worker-pool HTTP/1.x
// dispatch server. The core library (internal/queue, internal/worker,
// internal/httpframe, internal/httpserver) takes no flags and reads no
// environment variables; this binary is the CLI wrapper around it, grounded
// on the pack's cobra-based command structure (see
// github.com/ChuLiYu/raft-recovery's internal/cli).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/atomic"

	"github.com/zep-us/workerhttpd/internal/app"
	"github.com/zep-us/workerhttpd/internal/config"
	"github.com/zep-us/workerhttpd/pkg/logger"
)

// version is set at release time; left as a literal here since the core has
// no build-time versioning mechanism to adapt.
const version = "0.1.0"

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "workerhttpd",
		Short:   "A minimal multithreaded HTTP/1.x server",
		Version: version,
	}

	root.AddCommand(buildServeCommand())
	root.AddCommand(buildRoutesCommand())
	return root
}

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dispatch server and accept connections until a shutdown signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				logger.Fatal("Failed to load configuration: %v", err)
			}

			application, err := app.NewApp(cfg)
			if err != nil {
				logger.Fatal("Failed to construct server: %v", err)
			}

			logger.Info("workerhttpd starting...")
			return application.Run()
		},
	}
}

func buildRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the registered (verb, uri) -> handler table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("routes: load configuration: %w", err)
			}

			registry, _, err := app.BuildRegistry(cfg, atomic.NewBool(false))
			if err != nil {
				return fmt.Errorf("routes: build registry: %w", err)
			}

			for _, m := range registry.Methods() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", m)
			}
			return nil
		},
	}
}
