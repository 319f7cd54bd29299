// Command ingest maintains the insights backends: it migrates the schema,
// imports a raw export into Postgres, warms the Redis cache and issues
// API tokens.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/source"
	"github.com/lorrc/service-desk-insights/internal/auth"
	"github.com/lorrc/service-desk-insights/internal/bootstrap"
	"github.com/lorrc/service-desk-insights/internal/config"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
)

type options struct {
	migrate    bool
	file       string
	warmCache  bool
	issueToken string
	role       string
}

func main() {
	var opts options
	flag.BoolVar(&opts.migrate, "migrate", false, "apply database migrations")
	flag.StringVar(&opts.file, "file", "", "import this JSON export instead of the configured source")
	flag.BoolVar(&opts.warmCache, "warm-cache", false, "write the fetched export to the Redis cache")
	flag.StringVar(&opts.issueToken, "issue-token", "", "print an API token for this subject and exit")
	flag.StringVar(&opts.role, "role", string(auth.RoleViewer), "role for -issue-token (viewer or admin)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stderr,
		ServiceName: cfg.App.Name + "-ingest",
		Environment: cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	if opts.issueToken != "" {
		token, err := issueToken(cfg.JWT, opts.issueToken, opts.role)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	if opts.migrate {
		if !cfg.Database.Enabled() {
			return errors.New("-migrate needs DATABASE_URL")
		}
		version, err := postgres.Migrate(cfg.Database.URL)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "version", version)
	}

	if opts.file == "" && !opts.warmCache {
		return nil
	}

	pool, err := bootstrap.OpenPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	var src ports.RawIncidentSource
	if opts.file != "" {
		src = source.NewFileSource(opts.file)
	} else {
		if src, err = bootstrap.NewSource(cfg.Source, pool, logger); err != nil {
			return err
		}
	}

	var repo ports.IncidentRepository
	if opts.file != "" {
		if pool == nil {
			return errors.New("-file needs DATABASE_URL")
		}
		repo = postgres.NewIncidentRepository(pool, postgres.NewTransactionManager(pool))
	}

	var rawCache ports.RawIncidentCache
	if opts.warmCache {
		c := bootstrap.OpenCache(ctx, cfg.Redis, logger)
		if c == nil {
			return errors.New("-warm-cache needs REDIS_ADDR")
		}
		defer c.Close()
		rawCache = c
	}

	var runs ports.IngestRunRepository
	if pool != nil {
		runs = postgres.NewIngestRunRepository(pool)
	}

	return importExport(ctx, src, repo, rawCache, runs, logger)
}

// importExport fetches one export from src and writes it to every target
// that is not nil. The attempt is recorded in runs when given, failed or
// not.
func importExport(
	ctx context.Context,
	src ports.RawIncidentSource,
	repo ports.IncidentRepository,
	rawCache ports.RawIncidentCache,
	runs ports.IngestRunRepository,
	logger *slog.Logger,
) error {
	record := domain.IngestRun{ID: uuid.New(), Source: src.Name(), StartedAt: time.Now()}

	err := func() error {
		records, err := src.FetchIncidents(ctx)
		if err != nil {
			return err
		}
		record.RecordCount = len(records)
		logger.Info("export fetched", "source", src.Name(), "records", len(records))

		if repo != nil {
			imported, err := repo.ReplaceAll(ctx, records)
			if err != nil {
				return err
			}
			record.TicketCount = int(imported)
			logger.Info("export imported", "rows", imported)
		}

		if rawCache != nil {
			if err := rawCache.Set(ctx, records); err != nil {
				return err
			}
			logger.Info("cache warmed", "records", len(records))
		}
		return nil
	}()

	record.FinishedAt = time.Now()
	if err != nil {
		record.Error = err.Error()
	}
	if runs != nil {
		if rerr := runs.Record(ctx, record); rerr != nil {
			logger.Warn("failed to record ingest run", "run_id", record.ID, "error", rerr)
		}
	}
	return err
}

func issueToken(cfg config.JWTConfig, subject, role string) (string, error) {
	r := auth.Role(role)
	if r != auth.RoleViewer && r != auth.RoleAdmin {
		return "", fmt.Errorf("unknown role %q", role)
	}
	return auth.NewTokenManager(cfg.Secret, cfg.AccessTokenTTL).GenerateToken(subject, r)
}
