package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cindergrid/automaton/internal/engine"
)

// NewServeCommand creates the serve command: a continuous tick loop
// with a Prometheus endpoint. State is saved after every tick so an
// interrupted run resumes where it left off.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run ticks continuously at a fixed interval",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if interval <= 0 {
				return WrapExitError(ExitCommandError, "interval must be positive", nil)
			}

			addr := metricsAddr
			if addr == "" {
				addr = rootOpts.MetricsAddr
			}

			promReg := prometheus.NewRegistry()
			world, err := OpenWorld(ctx, rootOpts.Database,
				engine.WithMetrics(engine.NewMetrics(promReg)),
			)
			if err != nil {
				return err
			}
			defer world.Close()

			var srv *http.Server
			if addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
				srv = &http.Server{Addr: addr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						slog.Error("metrics server failed", "addr", addr, "error", err)
					}
				}()
				slog.Info("serving metrics", "addr", addr)
			}

			slog.Info("tick loop started",
				"interval", interval, "tick", world.Scheduler.Tick())

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					if srv != nil {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						srv.Shutdown(shutdownCtx)
					}
					slog.Info("tick loop stopped", "tick", world.Scheduler.Tick())
					return nil
				case <-ticker.C:
					report := world.Scheduler.RunTick(ctx)
					if err := world.Save(context.Background()); err != nil {
						return err
					}
					slog.Info("tick processed",
						"tick", report.Tick,
						"enqueued", report.Enqueued,
						"executed", report.Executed,
						"failed", report.Failed)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "wall-clock duration of one tick")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus endpoint (overrides AUTOMATON_METRICS_ADDR)")
	return cmd
}
