package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/httpapi"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/notify"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/config"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/db"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Printf("migrations applied from %s", cfg.MigrationsPath)
	}

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	dispatcher := notify.Dispatcher{
		DB:       pool,
		Sender:   notify.SenderFromConfig(cfg.Notify),
		Interval: time.Duration(cfg.Notify.PollSeconds) * time.Second,
	}
	go dispatcher.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(cfg, pool),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("portal api listening on %s (env=%s)", cfg.HTTPAddr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
