package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/regsync/internal/core"
	"github.com/JonMunkholm/regsync/internal/mcp"
	"github.com/JonMunkholm/regsync/internal/metrics"
	"github.com/JonMunkholm/regsync/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var schedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, /metrics and MCP over HTTP",
		Long: `Serve starts the HTTP server. With --schedule (or IMPORT_SCHEDULE_ENABLED=true)
it also imports IMPORT_SOURCE_PATH at start and then every IMPORT_INTERVAL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), schedule || a.cfg.Import.ScheduleEnabled)
		},
	}
	cmd.Flags().BoolVar(&schedule, "schedule", false, "run periodic imports of IMPORT_SOURCE_PATH")
	return cmd
}

func (a *app) serve(ctx context.Context, schedule bool) error {
	if schedule && a.cfg.Import.SourcePath == "" {
		return errors.New("scheduled imports need IMPORT_SOURCE_PATH")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, stopTracing, err := a.startTracing()
	if err != nil {
		return err
	}
	defer stopTracing()

	pool, err := a.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	queries := a.newQueryService(pool, m)
	rpc := mcp.NewRegistryServer(queries, version, mcp.WithLogger(a.logger))

	srv := web.NewServer(web.Options{
		Reader:         queries,
		Health:         pool,
		RPC:            rpc,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Metrics:        m,
		Server:         a.cfg.Server,
		RateLimit:      a.cfg.Rate,
		Logger:         a.logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if schedule {
		locker, closeLock, err := a.newLock()
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer closeLock()

		loader := a.newLoader(pool, m, tp, queries)
		sched := core.NewScheduler(loader, locker, core.SchedulerConfig{
			SourcePath: a.cfg.Import.SourcePath,
			Interval:   a.cfg.Import.Interval,
			Timeout:    a.cfg.Import.Timeout,
		}, a.logger)
		g.Go(func() error { return sched.Run(gctx) })
	}

	return g.Wait()
}
