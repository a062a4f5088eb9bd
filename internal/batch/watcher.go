package batch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gemtrack/bid-tracker/constants"
)

// WatchConfig controls directory watching.
type WatchConfig struct {
	Root        string
	InitialScan bool          // if true, walk root and emit existing files first
	Debounce    time.Duration // coalesce rapid write/rename bursts
}

// Watch processes files under cfg.Root as they appear, using the same
// per-file pipeline as Run. It blocks until ctx is cancelled.
func (c *Coordinator) Watch(ctx context.Context, cfg WatchConfig, workers int) error {
	events, errs, err := startWatcher(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for path := range jobs {
				c.processWithTimeout(ctx, path, workerID)
			}
		}(i + 1)
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case path, ok := <-events:
			if !ok {
				break loop
			}
			select {
			case jobs <- path:
			case <-ctx.Done():
				break loop
			}
		case werr, ok := <-errs:
			if ok && werr != nil {
				c.logger.Error("watcher error", "error", werr)
			}
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func startWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("no root provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	// watch root and all subdirectories; optionally emit existing files
	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if isHidden(path) && path != cfg.Root {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		if cfg.InitialScan && !isHidden(path) && constants.AllowedExt(filepath.Ext(path)) {
			select {
			case evCh <- path:
			default:
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to add watch root", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logger.Warn("failed to close watcher", "error", cerr)
			}
		}()

		pending := map[string]struct{}{}
		flush := make(chan struct{}, 1)
		var timer *time.Timer

		sendPending := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-flush:
				sendPending()
			case e := <-w.Events:
				if e.Op&fsnotify.Create == fsnotify.Create {
					// a created directory needs its own watch; harmless for files
					_ = w.Add(e.Name)
				}
				if constants.AllowedExt(filepath.Ext(e.Name)) && !isHidden(e.Name) &&
					e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer != nil {
							timer.Stop()
						}
						timer = time.AfterFunc(cfg.Debounce, func() {
							select {
							case flush <- struct{}{}:
							default:
							}
						})
					} else {
						sendPending()
					}
				}
			case werr := <-w.Errors:
				select {
				case errCh <- werr:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
