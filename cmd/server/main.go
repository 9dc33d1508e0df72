package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"reading-journal/internal/config"
	"reading-journal/internal/handler"
	"reading-journal/internal/repository"
	"reading-journal/internal/services"
	"reading-journal/internal/utils"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		utils.NewLogger("reading-journal", "info").WithError(err).Fatal("failed to load config")
	}
	log := utils.NewLogger("reading-journal", cfg.Server.LogLevel)

	// 1. Root context and shutdown manager
	ctx, shutdownManager := utils.NewShutdownManager(context.Background(), log)
	shutdownManager.StartListening()

	// 2. MongoDB
	mongoClient, err := utils.NewMongoDBConnection(ctx, cfg.Mongo.URI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Info("closing MongoDB connection")
		return mongoClient.Disconnect(ctx)
	})
	db := mongoClient.Database(cfg.Mongo.DBName)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Fatal("failed to create indexes")
	}

	// 3. Redis
	rdb, err := utils.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	shutdownManager.Register(func(context.Context) error {
		log.Info("closing Redis connection")
		return rdb.Close()
	})

	// 4. MinIO
	minioClient, err := utils.NewMinioClient(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize MinIO")
	}

	metrics := utils.NewMetrics(prometheus.DefaultRegisterer)
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.TTL)
	mailer := services.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, log.WithField("component", "mailer"))

	// 5. Repositories and services
	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	socialRepo := repository.NewSocialRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	statsService := services.NewStatisticsService(statsRepo, userRepo, bookRepo, sessionRepo, socialRepo, rdb, rdb, metrics, log.WithField("component", "statistics"))
	authService := services.NewAuthService(userRepo, statsRepo, jwtUtil, mailer, rdb, log.WithField("component", "auth"))
	bookService := services.NewBookService(bookRepo, sessionRepo, noteRepo, socialRepo, statsService, minioClient, cfg.Minio.Bucket, cfg.Minio.PublicURL, log.WithField("component", "books"))
	sessionService := services.NewSessionService(sessionRepo, bookRepo, statsService, metrics, log.WithField("component", "sessions"))
	noteService := services.NewNoteService(noteRepo, bookRepo, socialRepo, statsService)
	socialService := services.NewSocialService(noteRepo, socialRepo, statsService)

	// 6. Background statistics refresher
	refresher := services.NewStatsRefresher(statsService, cfg.Stats.RefreshInterval, log.WithField("component", "stats_refresher"))
	refresher.Start(ctx)
	shutdownManager.Register(func(ctx context.Context) error {
		select {
		case <-refresher.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	// 7. HTTP servers
	router := handler.NewRouter(handler.RouterConfig{
		Auth:        handler.NewAuthHandler(authService),
		Books:       handler.NewBookHandler(bookService),
		Sessions:    handler.NewSessionHandler(sessionService),
		Notes:       handler.NewNoteHandler(noteService, socialService),
		Stats:       handler.NewStatsHandler(statsService),
		JWT:         jwtUtil,
		Blacklist:   rdb,
		Metrics:     metrics,
		CORSOrigins: cfg.Server.CORSOrigins,
		Log:         log,
	})
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	opsRouter := handler.NewOpsRouter(prometheus.DefaultGatherer, map[string]handler.HealthCheck{
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		"redis": rdb.Ping,
	})
	opsServer := &http.Server{
		Addr:    ":" + cfg.Server.OpsPort,
		Handler: opsRouter,
	}

	go serve(server, log.WithField("listener", "api"), shutdownManager)
	go serve(opsServer, log.WithField("listener", "ops"), shutdownManager)

	shutdownManager.Register(func(ctx context.Context) error {
		log.Info("shutting down ops server")
		return opsServer.Shutdown(ctx)
	})
	shutdownManager.Register(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	shutdownManager.Wait()
}

func serve(server *http.Server, log *logrus.Entry, sm *utils.ShutdownManager) {
	log.WithField("addr", server.Addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server error")
		sm.Shutdown()
	}
}
