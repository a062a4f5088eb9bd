package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gemtrack/bid-tracker/internal/common"
	"github.com/gemtrack/bid-tracker/internal/embed"
	"github.com/gemtrack/bid-tracker/internal/repository"
)

// reembed backfills vectors for documents stored without one, e.g. after
// a batch ran while the embedding service was down.
func main() {
	var (
		limit = flag.Int("limit", 0, "max documents to backfill (0 = all)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(2)
	}

	client := embed.NewClient(embed.Config{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	}, logger)
	if !client.Enabled() {
		fmt.Fprintln(os.Stderr, "Error: EMBED_API_URL is not set")
		os.Exit(2)
	}

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		Path:             cfg.Database.Path,
		MaxConns:         cfg.Database.MaxConns,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	docs := repository.NewBidDocumentRepository(db, logger)

	pending, err := docs.ListMissingEmbedding(ctx)
	if err != nil {
		logger.Error("failed to list documents", "error", err)
		os.Exit(1)
	}
	if *limit > 0 && len(pending) > *limit {
		pending = pending[:*limit]
	}
	logger.Info("backfilling embeddings", "pending", len(pending))

	var done, failures int
	for _, d := range pending {
		if ctx.Err() != nil {
			break
		}
		vec, err := client.Embed(ctx, d.RawText)
		if err != nil {
			logger.Warn("embedding failed", "source_file", d.SourceFile, "error", err)
			failures++
			continue
		}
		if err := docs.SetEmbedding(ctx, d.ID, vec); err != nil {
			logger.Warn("failed to store embedding", "source_file", d.SourceFile, "error", err)
			failures++
			continue
		}
		done++
	}

	logger.Info("backfill finished", "embedded", done, "failed", failures)
	if failures > 0 {
		os.Exit(1)
	}
}
