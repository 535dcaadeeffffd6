package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmacd/skyscore/internal/api"
	"github.com/bmacd/skyscore/pkg/logger"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if port > 0 {
				a.cfg.Server.Port = port
			}

			router := api.NewRouter(a.runner, a.flights, a.refs, a.scores, a.cfg, a.logger)
			server := api.NewServer(router, a.cfg, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("Shutdown failed", logger.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}
