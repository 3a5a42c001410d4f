package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/workflow/api"
	"github.com/meikuraledutech/workflow/engine"
	"github.com/meikuraledutech/workflow/script"
)

const shutdownGrace = 30 * time.Second

func newServeCmd(f *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := f.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := store.CreateSchema(ctx); err != nil {
				return err
			}
			log.Info("database initialized", "driver", cfg.Driver)

			eval, err := script.New(cfg.ScriptEngine)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			eng := engine.New(store, eval,
				engine.WithLogger(log),
				engine.WithMetrics(engine.NewMetrics(reg)),
			)
			runs := engine.NewDispatcher(eng, cfg.Workers)
			app := api.New(store, runs, api.Options{
				Logger:  log,
				Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			})

			errc := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", cfg.Addr, "script_engine", cfg.ScriptEngine, "workers", cfg.Workers)
				errc <- app.Listen(cfg.Addr)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := app.ShutdownWithContext(sctx); err != nil {
				log.Error("shutdown http", "error", err)
			}
			if err := runs.Wait(sctx); errors.Is(err, context.DeadlineExceeded) {
				log.Warn("runs still in flight at shutdown")
			} else if err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
