package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve batches, reports, rankings and forecasts over HTTP",
	Long: `Starts a read-mostly JSON API over the batch store. Set
ACCRED_API_TOKEN to require a bearer token on every route except
/v1/health.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		srv := &http.Server{
			Addr: serveAddr,
			Handler: httpapi.NewServer(st, httpapi.Config{
				Token:         strings.TrimSpace(os.Getenv("ACCRED_API_TOKEN")),
				ForecastYears: settings.ForecastYears,
				Logger:        logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", zap.String("addr", serveAddr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}
