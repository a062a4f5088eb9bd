package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gemtrack/bid-tracker/internal/common"
	"github.com/gemtrack/bid-tracker/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		Path:             cfg.Database.Path,
		MaxConns:         cfg.Database.MaxConns,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Printf("ERROR: closing DB: %v", cerr)
		}
	}()

	if err := repository.HealthCheck(ctx, db, 1*time.Second, logger); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Println("DB health: OK")

	docs := repository.NewBidDocumentRepository(db, logger)
	n, err := docs.Count(ctx)
	if err != nil {
		log.Fatalf("counting documents: %v", err)
	}
	log.Printf("stored documents: %d", n)
}
