package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gemtrack/bid-tracker/internal/batch"
	"github.com/gemtrack/bid-tracker/internal/common"
	"github.com/gemtrack/bid-tracker/internal/embed"
	"github.com/gemtrack/bid-tracker/internal/export"
	"github.com/gemtrack/bid-tracker/internal/pdftext"
	"github.com/gemtrack/bid-tracker/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory to process bid documents from (required)")
		recursive = flag.Bool("recursive", false, "descend into subdirectories")
		workers   = flag.Int("workers", 0, "worker pool size (default from BATCH_WORKERS)")
		watch     = flag.Bool("watch", false, "keep running and process files as they appear")
		out       = flag.String("out", "", "write an XLSX export to this path after the batch")
		jsonOut   = flag.String("json", "", "write a JSON export to this path after the batch")
		inmem     = flag.Bool("inmem", false, "use in-memory SQLite database")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *workers <= 0 {
		*workers = cfg.Batch.Workers
	}

	dbCfg := repository.Config{
		DSN:              cfg.Database.DSN,
		Path:             cfg.Database.Path,
		MaxConns:         cfg.Database.MaxConns,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}
	if *inmem {
		dbCfg.DSN = ""
		dbCfg.Path = ":memory:"
	}

	db, err := repository.Open(ctx, dbCfg, logger)
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

	opts := []batch.Option{batch.WithFileTimeout(cfg.Batch.FileTimeout)}
	embedder := embed.NewClient(embed.Config{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	}, logger)
	if embedder.Enabled() {
		opts = append(opts, batch.WithEmbedder(embedder))
	}

	coord := batch.NewCoordinator(docs, pdftext.NewExtractor(), logger, opts...)

	if *watch {
		logger.Info("watching for new documents", "dir", *dir, "workers", *workers)
		if err := coord.Watch(ctx, batch.WatchConfig{
			Root:        *dir,
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
		}, *workers); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	report, err := coord.Run(ctx, *dir, *recursive, *workers)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	logger.Info("batch finished",
		"discovered", report.Discovered,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"elapsed_ms", report.Elapsed.Milliseconds(),
	)
	for _, r := range report.Results {
		fmt.Printf("%-18s %s", r.Status, filepath.Base(r.Path))
		if r.BidNumber != "" {
			fmt.Printf("  bid=%s", r.BidNumber)
		}
		if r.Reason != "" {
			fmt.Printf("  (%s)", r.Reason)
		}
		fmt.Println()
	}

	svc := export.NewService(docs, logger)
	if *out != "" {
		data, err := svc.ExportBidsXLSX(ctx)
		if err != nil {
			logger.Error("xlsx export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			logger.Error("failed to write xlsx", "path", *out, "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *out)
	}
	if *jsonOut != "" {
		data, err := svc.ExportBidsJSON(ctx)
		if err != nil {
			logger.Error("json export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			logger.Error("failed to write json", "path", *jsonOut, "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *jsonOut)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
