package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/example/go-jtalk/internal/server"
	"github.com/example/go-jtalk/internal/tts"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the jtalk HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			svc, err := tts.NewService(cfg, tts.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, svc).WithLogger(slog.Default()).Start(ctx)
		},
	}

	return cmd
}
