// Command tradegraph runs the market-analysis HTTP service.
//
// Configuration comes from an optional YAML/JSON file (-config) with
// environment overrides; a .env file is loaded first when present.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradegraph/tradegraph/pkg/analysis"
	"github.com/tradegraph/tradegraph/pkg/api"
	"github.com/tradegraph/tradegraph/pkg/config"
	"github.com/tradegraph/tradegraph/pkg/graph"
	"github.com/tradegraph/tradegraph/pkg/llm"
	"github.com/tradegraph/tradegraph/pkg/market/store"
)

// envMapping routes environment variables into config keys.
var envMapping = map[string]string{
	"TRADEGRAPH_ADDR":     "addr",
	"TRADEGRAPH_DB":       "db",
	"TRADEGRAPH_PG_DSN":   "pg_dsn",
	"GROQ_API_KEY":        "groq_api_key",
	"GROQ_MODEL":          "groq_model",
	"TRADEGRAPH_LOG_JSON": "log_json",
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	// A missing .env is fine; explicit env wins over it either way.
	_ = godotenv.Load()

	cfg := config.New(nil)
	if *configPath != "" {
		loaded, err := config.FromFile(*configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	cfg = cfg.OverlayEnv(envMapping)

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	apiKey := cfg.String("groq_api_key", "")
	if apiKey == "" {
		return fmt.Errorf("groq_api_key (GROQ_API_KEY) is required")
	}
	client := llm.NewGroq(apiKey,
		llm.WithModel(cfg.String("groq_model", llm.DefaultModel)),
		llm.WithTimeout(cfg.Duration("llm_timeout", time.Minute)),
		llm.WithRetry(llm.DefaultRetry),
		llm.WithRateLimit(cfg.Float("llm_rate_limit", 2)),
	)

	analyzer := analysis.NewAnalyzer(st, client, logger)
	runner, err := analysis.NewRunner(analyzer,
		graph.WithRunLogger(logger),
		graph.WithMetrics(),
		graph.WithTracing(),
	)
	if err != nil {
		return err
	}

	addr := cfg.String("addr", ":8080")
	server := api.NewServer(addr, runner, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newLogger builds the process logger; JSON output is opt-in.
func newLogger(cfg config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.Bool("log_json", false) {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	return slog.New(handler)
}

// openStore opens Postgres when a DSN is configured, SQLite otherwise.
func openStore(cfg config.Config) (store.Store, error) {
	if dsn := cfg.String("pg_dsn", ""); dsn != "" {
		return store.OpenPostgres(dsn)
	}
	return store.OpenSQLite(cfg.String("db", "tradegraph.db"))
}
