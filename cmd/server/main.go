package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/osakwee57-dev/My-attendance/internal/attendance"
	"github.com/osakwee57-dev/My-attendance/internal/broadcast"
	"github.com/osakwee57-dev/My-attendance/internal/config"
	internalhttp "github.com/osakwee57-dev/My-attendance/internal/http"
	"github.com/osakwee57-dev/My-attendance/internal/jobs"
	"github.com/osakwee57-dev/My-attendance/internal/logger"
	"github.com/osakwee57-dev/My-attendance/internal/session"
	"github.com/osakwee57-dev/My-attendance/internal/sigstore"
	"github.com/osakwee57-dev/My-attendance/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("db connection failed", "error", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("db migration failed", "error", err)
	}
	db := postgres.NewStore(pool)

	bus := broadcast.NewBus(log)
	var publisher broadcast.Publisher = bus

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalw("redis ping failed", "error", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warnw("redis close error", "error", err)
			}
		}()

		relay := broadcast.NewRelay(bus, redisClient, cfg.RedisChannel, log)
		go relay.Run(ctx)
		publisher = relay
	}

	sigs, err := sigstore.New(cfg.SignatureDir, cfg.SignatureBaseURL)
	if err != nil {
		log.Fatalw("signature store init failed", "error", err)
	}

	sessions := session.NewController(db, publisher, log)
	verifier := attendance.NewVerifier(db, db, publisher, log)

	server := internalhttp.NewServer(cfg, db, db, sessions, verifier, bus, sigs, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartSessionExpiryJob(ctx, cfg, sessions, log)

	go func() {
		log.Infow("http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("http server error", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("shutdown error", "error", err)
	}
}
