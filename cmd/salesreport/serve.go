package main

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/salesreport/api"
	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/metrics"
	"github.com/TFMV/salesreport/pkg/store"
)

func newServeCommand(a *app) *cobra.Command {
	var requestLog bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := store.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close()

			server := api.NewServer(api.ServerOptions{
				Port:       strconv.Itoa(a.cfg.Server.Port),
				Store:      s,
				Metrics:    metrics.NewCollector(),
				Ages:       a.cfg.Report,
				RequestLog: requestLog,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.GetLogger().Info("Received shutdown signal, stopping server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.GetLogger().Error("Error shutting down", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().Int("port", 0, "Port to listen on (default 5555)")
	cmd.Flags().BoolVar(&requestLog, "access-log", false, "Log every request")
	return cmd
}
