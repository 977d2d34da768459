package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/store"
)

var (
	envFile    string
	dbPath     string
	tablesPath string
	logLevel   string

	settings config.Settings
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "accreditation-engine",
	Short: "Block extraction and derived metrics for AICTE/UGC accreditation batches",
	Long: `accreditation-engine turns institutional accreditation documents into
evidence-backed information blocks and derives sufficiency, KPI scores,
compliance flags, approval readiness, rankings and multi-year forecasts.

Results are written to stdout as JSON; logs go to stderr.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		settings = config.SettingsFromEnv()
		flags := cmd.Flags()
		if flags.Changed("db") {
			settings.DatabasePath = dbPath
		}
		if flags.Changed("tables") {
			settings.TablesPath = tablesPath
		}
		if flags.Changed("log-level") {
			settings.LogLevel = logLevel
		}

		cfg := zap.NewProductionConfig()
		level, err := zap.ParseAtomicLevel(settings.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
		}
		cfg.Level = level
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading ACCRED_* settings")
	pf.StringVar(&dbPath, "db", config.DefaultDatabasePath, "SQLite database path")
	pf.StringVar(&tablesPath, "tables", "", "YAML file overriding the built-in rule tables")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(processCmd, showCmd, batchesCmd, rankCmd, trendsCmd, predictCmd, benchmarksCmd, reportCmd, serveCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := setupTracing(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracing disabled: %v\n", err)
	}
	err = rootCmd.ExecuteContext(ctx)
	if shutdown != nil {
		_ = shutdown(context.WithoutCancel(ctx))
	}
	if err != nil {
		os.Exit(1)
	}
}

// A missing dotenv file is not an error; a malformed one is.
func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// setupTracing installs an OTLP/HTTP exporter when an endpoint is configured.
func setupTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" && os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") == "" {
		return nil, nil
	}
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func openStore() (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(settings.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", settings.DatabasePath, err)
	}
	return st, nil
}
