package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/riskibarqy/fpl-insight/internal/app"
	"github.com/riskibarqy/fpl-insight/internal/config"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/csvfile"
	"github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

const importTimeout = 5 * time.Minute

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal(logging.Default(), "load config", err)
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Service: "fpl-insight-migration", Environment: cfg.AppEnv, Output: os.Stderr})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	switch cmd {
	case "import-csv":
		path := cfg.HistoryCSVPath
		if len(os.Args) > 2 {
			path = strings.TrimSpace(os.Args[2])
		}
		rows, err := csvfile.NewPlayerStatsRepository(path, logger).ListRows(context.Background())
		if err != nil {
			fatal(logger, "read csv", err)
		}
		importRows(cfg, logger, rows, path)
		return
	case "seed-sample":
		importRows(cfg, logger, memory.SamplePlayerStats(), config.HistorySourceSample)
		return
	}

	m, sourceURL := newMigrator(cfg, logger)
	defer closeMigrator(logger, m)

	switch cmd {
	case "up":
		handleMigrationErr(logger, m.Up())
		logger.Info("migrations applied", "source", sourceURL)
	case "down":
		steps, err := parseSteps(os.Args[2:])
		if err != nil {
			fatal(logger, "parse steps", err)
		}
		handleMigrationErr(logger, m.Steps(-steps))
		logger.Info("migrations rolled back", "steps", steps)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			fmt.Println("dirty: false")
			return
		}
		if err != nil {
			fatal(logger, "read version", err)
		}
		fmt.Printf("version: %d\n", version)
		fmt.Printf("dirty: %t\n", dirty)
	case "force":
		if len(os.Args) < 3 {
			fatal(logger, "force", errors.New("a version argument is required"))
		}
		version, err := parseVersion(os.Args[2])
		if err != nil {
			fatal(logger, "parse version", err)
		}
		if err := m.Force(version); err != nil {
			fatal(logger, "force version", err)
		}
		logger.Info("migration version forced", "version", version)
	default:
		printUsage()
		os.Exit(2)
	}
}

func newMigrator(cfg config.Config, logger *logging.Logger) (*migrate.Migrate, string) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		fatal(logger, "migrate", errors.New("DB_URL is required"))
	}

	dir, err := resolveMigrationsDir()
	if err != nil {
		fatal(logger, "resolve migrations dir", err)
	}
	sourceURL := "file://" + filepath.ToSlash(dir)

	m, err := migrate.New(sourceURL, cfg.DBURL)
	if err != nil {
		fatal(logger, "create migrator", err)
	}
	return m, sourceURL
}

func importRows(cfg config.Config, logger *logging.Logger, rows []playerstats.Row, source string) {
	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	db, err := app.OpenDB(cfg)
	if err != nil {
		fatal(logger, "open database", err)
	}
	defer db.Close()

	if err := postgres.NewPlayerStatsRepository(db).UpsertRows(ctx, rows); err != nil {
		fatal(logger, "import rows", err)
	}
	logger.Info("historical stats imported", "source", source, "rows", len(rows))
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, errors.New("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, errors.New("version must be >= 0")
	}
	return value, nil
}

func handleMigrationErr(logger *logging.Logger, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return
	}
	fatal(logger, "migrate", err)
}

func closeMigrator(logger *logging.Logger, m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db", "error", dbErr)
	}
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", errors.New("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func fatal(logger *logging.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	_ = logger.Sync()
	os.Exit(1)
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down [N]|version|force V|import-csv [PATH]|seed-sample>\n", name)
	fmt.Fprintf(os.Stderr, "  %s up\n", name)
	fmt.Fprintf(os.Stderr, "  %s import-csv fpl_features.csv\n", name)
}
