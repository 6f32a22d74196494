package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"property-service/internal/chat"
	"property-service/internal/model"
	"property-service/internal/router"
	"property-service/pkg/database"
	"property-service/pkg/tracing"
	"property-service/prometheus"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeCmd runs the HTTP server until SIGINT or SIGTERM
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")

			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(withContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if migrate {
				if err := database.MigrateModels(model.All()...); err != nil {
					return err
				}
			}

			prometheus.InitMetrics(a.cfg)
			shutdownTracing, err := tracing.Init(ctx, a.cfg)
			if err != nil {
				return err
			}

			hub := chat.NewHub(a.log.Named("chat"))
			e := router.New(a.cfg, hub)

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("Starting server", zap.String("port", a.cfg.Server.Port))
				if err := e.Start(":" + a.cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					a.log.Error("Server error", zap.Error(err))
					return err
				}
			case <-ctx.Done():
				a.log.Info("Shutting down server")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()
			// Websocket connections are hijacked and outlive Shutdown unless the hub closes them
			hub.Close()
			if err := e.Shutdown(shutdownCtx); err != nil {
				a.log.Error("Server shutdown failed", zap.Error(err))
			}
			if err := shutdownTracing(shutdownCtx); err != nil {
				a.log.Warn("Tracer shutdown failed", zap.Error(err))
			}
			a.log.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().Bool("migrate", false, "migrate the schema before serving")
	return cmd
}
