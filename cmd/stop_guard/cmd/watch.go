package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchPricesFile string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll on an interval until interrupted",
	Long: `Run a cycle immediately and then every POLL_INTERVAL_MINS minutes.
SIGINT or SIGTERM stops the loop after the current cycle. When METRICS_ADDR
is set, Prometheus metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchPricesFile, "prices", "p", "", "read prices from a YAML/JSON file instead of Alpaca")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(watchPricesFile)
	if err != nil {
		return err
	}
	defer a.Close()

	// Graceful shutdown on signal
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			a.log.Info("metrics listening", zap.String("addr", a.cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a.log.Info("stop_guard initialized", zap.String("version", a.cfg.Version), zap.Any("config", a.cfg.Summary()))
	a.watcher.SendStartupNotification(ctx)

	err = a.watcher.Run(ctx)

	a.log.Info("shutting down: signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.watcher.SendShutdownNotification(shutdownCtx)
	return err
}
