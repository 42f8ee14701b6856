package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpSrv "github.com/jmehdipour/rfm-dashboard/internal/http"
	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	"github.com/jmehdipour/rfm-dashboard/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		// every successful resolution (startup or login) loads the dashboard
		a.sess.Subscribe(func(s session.State) {
			if s != session.Authenticated {
				return
			}
			go func() {
				if err := a.dash.Start(ctx); err != nil {
					logger.Log.Warn("dashboard: initial load", zap.Error(err))
				}
			}()
		})

		server := httpSrv.NewServer(cfg, a.sess, a.dash, a.rdb)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		go func() {
			if err := a.sess.Init(ctx); err != nil {
				logger.Log.Warn("session: init", zap.Error(err))
			}
			logger.Log.Info("session: ready", zap.Stringer("state", a.sess.State()))
		}()

		select {
		case <-ctx.Done():
			logger.Log.Info("signal received, shutting down...")
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Error("http server exited", zap.Error(err))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)

		return nil
	},
}
