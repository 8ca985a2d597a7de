package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"online_judge/internal/api"
	"online_judge/internal/api/handler"
	"online_judge/internal/app/service"
	"online_judge/internal/app/worker"
	"online_judge/internal/common/security"
	"online_judge/internal/domain/repository"
	"online_judge/internal/platform/config"
	"online_judge/internal/platform/database"
	"online_judge/internal/platform/logger"
	"online_judge/internal/platform/metrics"
	"online_judge/internal/platform/queue"
	"online_judge/internal/platform/session"
)

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	if cfg.JudgeToken == "" {
		log.Warn().Msg("JUDGE_TOKEN is empty, POST /judge/results is disabled")
	}

	ctx := context.Background()

	// 2. Database
	db, err := database.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("database connected")

	// 3. Redis: one shared client for sessions and results, the dispatch queue dials its own
	redisOpts := redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	rdb, err := queue.Connect(ctx, &redisOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")

	m := metrics.New(prometheus.DefaultRegisterer)
	judgeQueue := queue.NewClient(queue.RedisDialer(redisOpts), cfg.QueuePushTimeout, log, m)
	defer judgeQueue.Close()

	// 4. Repositories and services
	tx := database.NewTransactor(db, cfg.DBTimeout)
	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)

	validate := service.NewValidator()
	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)

	resultService := service.NewResultService(tx, submissionRepo, log)
	deps := api.Deps{
		Auth:        service.NewAuthService(tx, userRepo, sessions, hasher, validate, log),
		Users:       service.NewUserService(tx, userRepo),
		Problems:    service.NewProblemService(tx, problemRepo, validate, log),
		Submissions: service.NewSubmissionService(tx, submissionRepo),
		Dispatcher:  service.NewDispatcher(tx, submissionRepo, problemRepo, judgeQueue, validate, log),
		Results:     resultService,
		Tokens:      security.NewSessionTokens(cfg.SessionSecret, cfg.SessionTTL),
		Sessions:    sessions,
		Cookie: handler.CookieConfig{
			Name:     cfg.SessionCookieName,
			Secure:   cfg.SessionCookieSecure,
			SameSite: handler.ParseSameSite(cfg.SessionSameSite),
		},
		JudgeToken:     cfg.JudgeToken,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		Log:            log,
	}

	// 5. Judge result consumer
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	consumer := worker.NewResultConsumer(rdb, cfg.JudgeResultQueue, resultService, log)
	consumer.Start(workerCtx)

	// 6. HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ServerWriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.APIPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.APIPort).Msg("could not listen")
		}
	}()

	<-stop

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	workerCancel()
	consumer.Wait()

	log.Info().Msg("server and result consumer stopped gracefully")
}
