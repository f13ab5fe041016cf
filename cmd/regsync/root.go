package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/regsync/internal/config"
	"github.com/JonMunkholm/regsync/internal/core"
	"github.com/JonMunkholm/regsync/internal/database"
	"github.com/JonMunkholm/regsync/internal/lock"
	"github.com/JonMunkholm/regsync/internal/logging"
	"github.com/JonMunkholm/regsync/internal/metrics"
	"github.com/JonMunkholm/regsync/internal/tracing"
)

// app carries what every subcommand needs once the root pre-run has
// loaded configuration.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "regsync",
		Short:   "Import and query the data protection public register",
		Long:    `regsync loads register extracts into PostgreSQL, keeps a ledger of imported versions, and serves the data over REST, MCP and this CLI.`,
		Version: version,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env",
		"dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newMCPCmd(a),
		newSearchCmd(a),
		newGetCmd(a),
		newStatsCmd(a),
		newVersionsCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// init loads .env, then configuration, then sets up logging.
// A missing .env file is not an error; variables already set win.
func (a *app) init() error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	a.logger.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// openPool applies migrations when DB_AUTO_MIGRATE is set and connects.
func (a *app) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if a.cfg.Database.AutoMigrate {
		if err := database.MigrateUp(a.cfg.Database.URL); err != nil {
			return nil, err
		}
		a.logger.Info("migrations applied")
	}

	pool, err := database.Connect(ctx, a.cfg.Database.URL, database.PoolOptions{
		MaxConns:        a.cfg.Database.MaxConns,
		MinConns:        a.cfg.Database.MinConns,
		MaxConnLifetime: a.cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: a.cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("connected to database", "name", database.Name(a.cfg.Database.URL))
	return pool, nil
}

func (a *app) newQueryService(pool *pgxpool.Pool, m *metrics.Metrics) *core.QueryService {
	return core.NewQueryService(pool,
		core.WithLimits(a.cfg.Query.DefaultLimit, a.cfg.Query.MaxLimit),
		core.WithStatsCacheTTL(a.cfg.Query.StatsCacheTTL),
		core.WithQueryLogger(a.logger),
		core.WithQueryMetrics(m),
	)
}

// newLoader builds the loader. A non-nil queries has its stats cache
// dropped after each import that stored rows.
func (a *app) newLoader(pool *pgxpool.Pool, m *metrics.Metrics, tp *tracing.Provider, queries *core.QueryService) *core.Loader {
	opts := []core.LoaderOption{
		core.WithBatchSize(a.cfg.Import.BatchSize),
		core.WithDelimiter(a.cfg.Import.DelimiterRune()),
		core.WithSkipLogLimit(a.cfg.Import.SkipLogLimit),
		core.WithProvenance(a.cfg.Import.Provenance),
		core.WithLogger(a.logger),
		core.WithMetrics(m),
		core.WithTracer(tp.Tracer()),
	}
	if queries != nil {
		opts = append(opts, core.WithAfterImport(func(*core.ImportResult) { queries.InvalidateStats() }))
	}
	return core.NewLoader(core.NewRegistrationStore(pool), core.NewVersionLedger(pool), opts...)
}

func (a *app) newLock() (core.Locker, func() error, error) {
	return lock.New(lock.Options{
		Backend:  a.cfg.Lock.Backend,
		Path:     a.cfg.Lock.Path,
		RedisURL: a.cfg.Lock.RedisURL,
		MaxAge:   a.cfg.Lock.MaxAge,
		Logger:   a.logger,
	})
}

// startTracing returns the provider and a shutdown func that flushes
// pending spans.
func (a *app) startTracing() (*tracing.Provider, func(), error) {
	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:      a.cfg.Tracing.Enabled,
		Exporter:     a.cfg.Tracing.Exporter,
		OTLPEndpoint: a.cfg.Tracing.OTLPEndpoint,
		SampleRate:   a.cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	return tp, func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			a.logger.Warn("tracing shutdown", "error", err)
		}
	}, nil
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
