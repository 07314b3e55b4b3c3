package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobboard/internal/cache"
	"jobboard/internal/config"
	"jobboard/internal/flows"
	"jobboard/internal/httpapi"
	"jobboard/internal/redis"
	"jobboard/internal/session"
	"jobboard/internal/token"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	rdb, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Error("redis connect failed", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	sessions := session.NewStore(rdb, session.Config{
		TTL:        cfg.SessionTTL(),
		MaxPerUser: cfg.SessionMax,
	})
	tokens := token.NewStore(rdb, token.Config{
		VerifyTTL: cfg.TokenVerifyTTL(),
		ResetTTL:  cfg.TokenResetTTL(),
		InviteTTL: cfg.TokenInviteTTL(),
	})

	// Dev stand-ins for the external collaborators (relational directory,
	// outbound mail, vacancy catalog); production wires real ones here.
	directory := newMemoryDirectory()
	mailer := &logMailer{log: log}
	catalog := &staticCatalog{}

	flowSvc := flows.NewService(directory, mailer, sessions, tokens, cfg.BcryptCost, log)
	api := httpapi.NewServer(flowSvc, sessions, catalog, cache.New(rdb), log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("jobboard server started", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("jobboard server stopped cleanly")
}
