package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethantaylan/five-v2-sub000/internal/app"
	"github.com/ethantaylan/five-v2-sub000/internal/auth"
	"github.com/ethantaylan/five-v2-sub000/internal/clock"
	"github.com/ethantaylan/five-v2-sub000/internal/config"
	"github.com/ethantaylan/five-v2-sub000/internal/realtime"
	"github.com/ethantaylan/five-v2-sub000/internal/storage/postgres"
	transporthttp "github.com/ethantaylan/five-v2-sub000/internal/transport/http"
	"github.com/ethantaylan/five-v2-sub000/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// eventState combines the repositories into the realtime hub's read
// surface.
type eventState struct {
	*postgres.ParticipationRepository
	*postgres.MessageRepository
}

func main() {
	logger := log.Default()
	cfg := config.Load(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(startupCtx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	eventRepo := postgres.NewEventRepository(pool)
	participationRepo := postgres.NewParticipationRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	feed := realtime.NewFeed(rdb, logger)
	hub := realtime.NewHub(feed, eventState{participationRepo, messageRepo}, logger)

	clk := clock.NewSystem()
	eventSvc := app.NewEventService(eventRepo, clk)
	participationSvc := app.NewParticipationService(participationRepo, feed, clk, logger)
	chatSvc := app.NewChatService(messageRepo, feed, clk, logger)
	profileSvc := app.NewProfileService(userRepo, clk)

	handler := transporthttp.NewRouter(transporthttp.Deps{
		Events:        eventSvc,
		Participation: participationSvc,
		Chat:          chatSvc,
		Profiles:      profileSvc,
		Hub:           hub,
		Verifier:      auth.NewVerifier(cfg.JWTSecret),
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
