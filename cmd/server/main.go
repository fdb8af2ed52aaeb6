package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/stock-sync/internal/adapter/handler"
	"github.com/rl1809/stock-sync/internal/app"
	"github.com/rl1809/stock-sync/internal/config"
	"github.com/rl1809/stock-sync/internal/core/domain"
)

var configFile string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "stocksync",
		Short:         "Reconcile local inventory with a marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./stocksync.yaml)")

	root.AddCommand(newServeCommand(), newSyncCommand(), newStatusCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP and gRPC APIs with continuous sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run(cmd.Context())
		},
	}
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.Orchestrator().RunSync(cmd.Context())
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if report.Status != domain.RunSuccess {
				return fmt.Errorf("sync finished with status %s", report.Status)
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status and pending conflicts of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := config.Load(configFile)
				if err != nil {
					return err
				}
				addr = cfg.GRPC.Addr
			}

			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("failed to dial %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			client := handler.NewSyncServiceClient(conn)
			status, err := client.GetStatus(ctx, &handler.GetStatusRequest{})
			if err != nil {
				return err
			}
			pending, err := client.ListPendingConflicts(ctx, &handler.ListPendingConflictsRequest{})
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"status":    status.Status,
				"conflicts": pending.Conflicts,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC address of the server (default from config)")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
