package batch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gemtrack/bid-tracker/constants"
	"github.com/gemtrack/bid-tracker/internal/extract"
	"github.com/gemtrack/bid-tracker/internal/repository"
	"github.com/gemtrack/bid-tracker/internal/textproc"
)

// TextExtractor pulls the raw text layer out of one source file.
type TextExtractor interface {
	ExtractFile(path string) (string, error)
}

// Embedder is the opaque text -> vector collaborator. Its failures are
// non-fatal: the record persists without a vector.
type Embedder interface {
	Enabled() bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Coordinator drives classify -> normalize -> extract -> embed -> persist
// for each discovered file, fanning files over a fixed worker pool.
type Coordinator struct {
	logger      *slog.Logger
	docs        repository.BidDocumentRepository
	texts       TextExtractor
	embedder    Embedder
	schema      map[string]any
	fileTimeout time.Duration
}

type Option func(*Coordinator)

func WithFileTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.fileTimeout = d
		}
	}
}

func WithEmbedder(e Embedder) Option {
	return func(c *Coordinator) { c.embedder = e }
}

func NewCoordinator(docs repository.BidDocumentRepository, texts TextExtractor, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		logger:      logger,
		docs:        docs,
		texts:       texts,
		schema:      extract.BuildBidJSONSchema(),
		fileTimeout: 2 * time.Minute,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run discovers candidate files under root and processes each through the
// pipeline. workers <= 1 is strictly sequential. The returned report
// accounts for every discovered file; file failures never abort the batch.
func (c *Coordinator) Run(ctx context.Context, root string, recursive bool, workers int) (Report, error) {
	start := time.Now()

	paths, err := Discover(root, recursive)
	if err != nil {
		return Report{}, err
	}
	c.logger.Info("discovered candidate files", "root", root, "recursive", recursive, "count", len(paths))

	report := Report{Discovered: len(paths)}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for path := range jobs {
				results <- c.processWithTimeout(ctx, path, workerID)
			}
		}(i + 1)
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		report.add(res)
	}

	// files never handed to a worker because of cancellation
	for missing := report.Discovered - len(report.Results); missing > 0; missing-- {
		report.add(FileResult{Status: constants.StatusFailed, Reason: ctx.Err().Error()})
	}

	report.Elapsed = time.Since(start)
	c.logger.Info("batch complete",
		"discovered", report.Discovered,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"elapsed_ms", report.Elapsed.Milliseconds(),
	)
	return report, nil
}

func (c *Coordinator) processWithTimeout(ctx context.Context, path string, workerID int) FileResult {
	ctx, cancel := context.WithTimeout(ctx, c.fileTimeout)
	defer cancel()

	res := c.ProcessFile(ctx, path)
	switch res.Status {
	case constants.StatusProcessed:
		c.logger.Info("processed file", "worker_id", workerID, "path", path, "bid_number", res.BidNumber)
	case constants.StatusSkippedDuplicate:
		c.logger.Info("skipped duplicate", "worker_id", workerID, "path", path)
	case constants.StatusFailed:
		c.logger.Error("processing failed", "worker_id", workerID, "path", path, "reason", res.Reason)
	}
	return res
}

// ProcessFile runs the full pipeline for a single file and returns its
// tagged result. It never panics and never returns an error; all failure
// modes collapse into StatusFailed with a reason.
func (c *Coordinator) ProcessFile(ctx context.Context, path string) FileResult {
	base := filepath.Base(path)

	// duplicate registry is keyed by base filename; the unique constraint
	// on source_file backstops the check-then-act window
	exists, err := c.docs.ExistsBySourceFile(ctx, base)
	if err != nil {
		return failed(path, "registry check: "+err.Error())
	}
	if exists {
		return FileResult{Path: path, Status: constants.StatusSkippedDuplicate}
	}

	raw, err := c.texts.ExtractFile(path)
	if err != nil {
		return failed(path, "extract text: "+err.Error())
	}

	label := textproc.Classify(raw)
	cleaned := textproc.Normalize(raw, label)
	if cleaned == "" {
		// degraded but valid: nothing recoverable, record persists all-absent
		c.logger.Warn("no recoverable text after normalization", "path", path, "label", string(label))
	}

	rec := extract.Extract(cleaned)
	fields, err := extract.MarshalRecord(rec)
	if err != nil {
		return failed(path, "encode fields: "+err.Error())
	}
	if err := extract.ValidateJSONAgainstSchema(c.schema, fields); err != nil {
		return failed(path, "validate fields: "+err.Error())
	}

	doc := &repository.BidDocument{
		SourceFile: base,
		BidNumber:  rec[constants.FieldBidNumber].String(),
		Fields:     fields,
		RawText:    cleaned,
	}
	if v := rec[constants.FieldDated]; v.Kind == extract.KindDate {
		d := v.Date
		doc.Dated = &d
	}

	if c.embedder != nil && c.embedder.Enabled() && cleaned != "" {
		vec, err := c.embedder.Embed(ctx, cleaned)
		if err != nil {
			c.logger.Warn("embedding failed, persisting without vector", "path", path, "error", err)
		} else {
			doc.Embedding = vec
		}
	}

	if err := c.docs.Create(ctx, doc); err != nil {
		return failed(path, "persist: "+err.Error())
	}
	return FileResult{Path: path, Status: constants.StatusProcessed, BidNumber: doc.BidNumber}
}

func failed(path, reason string) FileResult {
	return FileResult{Path: path, Status: constants.StatusFailed, Reason: reason}
}

// Discover walks root and returns candidate files filtered by the allowed
// extensions. Hidden files and directories are skipped. With recursive
// false only the root directory itself is scanned.
func Discover(root string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if isHidden(path) && path != root {
				return filepath.SkipDir
			}
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) {
			return nil
		}
		if constants.AllowedExt(filepath.Ext(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
