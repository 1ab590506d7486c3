package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gestly/internal/logging"
	"gestly/internal/migrations"
	"gestly/pkg/database"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const usage = `usage: migrate [-dir path] [up|status]

  up      apply pending migrations (default)
  status  list migration files and whether they were applied
`

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	defaultDir := os.Getenv("MIGRATIONS_DIR")
	if defaultDir == "" {
		defaultDir = "migrations"
	}
	dir := flag.String("dir", defaultDir, "directory with .sql migration files")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	if command != "up" && command != "status" {
		flag.Usage()
		return 2
	}

	logger, err := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "gestly-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Error("DATABASE_URL environment variable is required")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, dsn, logger)
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		return 1
	}
	defer pool.Close()

	runner := migrations.NewRunner(pool, os.DirFS(*dir), logger)

	switch command {
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			logger.Error("failed to read migration status", zap.Error(err))
			return 1
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(statuses)
	default:
		result, err := runner.Run(ctx)
		if err != nil {
			logger.Error("migration run aborted", zap.Strings("applied", result.Applied), zap.Error(err))
			return 1
		}
		logger.Info("migrations complete", zap.Int("applied", len(result.Applied)), zap.String("dir", *dir))
	}
	return 0
}
