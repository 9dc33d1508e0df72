package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"reading-journal/internal/config"
	"reading-journal/internal/repository"
	"reading-journal/internal/services"
	"reading-journal/internal/utils"
)

type app struct {
	log     *logrus.Entry
	mongo   *mongo.Client
	redis   *utils.RedisClient
	stats   *services.StatisticsService
	imports *services.ImportService
}

var (
	connectMongo  = utils.NewMongoDBConnection
	ensureIndexes = repository.EnsureIndexes
)

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.NewStoreConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := utils.NewLogger("reading-journal-importer", cfg.Server.LogLevel)

	mongoClient, err := connectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	db := mongoClient.Database(cfg.Mongo.DBName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}

	rdb, err := utils.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	socialRepo := repository.NewSocialRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	metrics := utils.NewMetrics(prometheus.NewRegistry())
	stats := services.NewStatisticsService(statsRepo, userRepo, bookRepo, sessionRepo, socialRepo, rdb, rdb, metrics, log.WithField("component", "statistics"))

	return &app{
		log:     log,
		mongo:   mongoClient,
		redis:   rdb,
		stats:   stats,
		imports: services.NewImportService(userRepo, bookRepo, sessionRepo, noteRepo, stats, log.WithField("component", "import")),
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close Redis")
	}
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.log.WithError(err).Warn("failed to disconnect MongoDB")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "importer",
		Short:        "Offline maintenance for the reading journal",
		SilenceUsage: true,
	}
	root.AddCommand(newBooksCmd(), newRebuildCmd())
	return root
}

func newBooksCmd() *cobra.Command {
	var (
		userID string
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "books",
		Short: "Import a JSON journal export into a user's shelf",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := services.ParseID(userID)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			start := time.Now()
			report, err := a.imports.Import(ctx, id, f, dryRun)
			if err != nil {
				return err
			}

			verb := "imported"
			if report.DryRun {
				verb = "validated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s books, %s sessions, %s notes in %s\n",
				verb,
				humanize.Comma(int64(report.Books)),
				humanize.Comma(int64(report.Sessions)),
				humanize.Comma(int64(report.Notes)),
				time.Since(start).Round(time.Millisecond),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "id of the user receiving the books")
	cmd.Flags().StringVar(&file, "file", "", "path to the JSON export")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the export without writing")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newRebuildCmd() *cobra.Command {
	var (
		userID string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Re-run the statistics aggregation",
		PreRunE: func(*cobra.Command, []string) error {
			if (userID == "") == !all {
				return errors.New("exactly one of --user or --all is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			if all {
				n, err := a.stats.RebuildAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rebuilt statistics for %s users\n", humanize.Comma(int64(n)))
				return nil
			}

			id, err := services.ParseID(userID)
			if err != nil {
				return err
			}
			view, err := a.stats.Rebuild(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "level %d (%d%%), %s exp, %s of reading\n",
				view.LevelInfo.Level,
				view.LevelInfo.Progress,
				humanize.Comma(int64(view.LevelInfo.Experience)),
				(time.Duration(view.TotalReadingTime) * time.Second).String(),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "id of the user to rebuild")
	cmd.Flags().BoolVar(&all, "all", false, "rebuild every user")

	return cmd
}
