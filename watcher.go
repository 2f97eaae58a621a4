package pdfwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-pdfwatch/internal/fileutil"
)

// fileProcessor converts one source file. *Dispatcher implements it.
type fileProcessor interface {
	ProcessFile(ctx context.Context, path, outputDir string) Result
}

// Compile-time interface check.
var _ fileProcessor = (*Dispatcher)(nil)

// watchedOps are the event kinds that can mean "a file appeared or changed".
const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename

// Watcher converts HTML and ZIP files as they appear in a directory.
// Events are handled concurrently; a slow render never delays the next event.
type Watcher struct {
	cfg       settings
	processor fileProcessor
	wg        sync.WaitGroup
}

// NewWatcher creates a Watcher backed by a Dispatcher built from the same options.
func NewWatcher(opts ...Option) *Watcher {
	cfg := newSettings(opts)
	p := cfg.processor
	if p == nil {
		p = NewDispatcher(opts...)
	}
	return &Watcher{cfg: cfg, processor: p}
}

// Run watches inputDir (non-recursively) and writes PDFs to outputDir until
// ctx is cancelled. outputDir is created if missing; inputDir must exist.
//
// On cancellation Run stops accepting events, waits for conversions already
// started, and returns nil.
func (w *Watcher) Run(ctx context.Context, inputDir, outputDir string) error {
	if err := fileutil.EnsureDir(outputDir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputDir, outputDir, err)
	}
	if !fileutil.DirExists(inputDir) {
		return fmt.Errorf("%w: %s", ErrInputDirNotFound, inputDir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatchSetup, err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(inputDir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWatchSetup, inputDir, err)
	}
	defer w.wg.Wait()

	w.cfg.log.Info("Watching for new files in %s...", inputDir)

	if w.cfg.initialScan {
		w.scan(ctx, inputDir, outputDir)
	}

	for {
		select {
		case <-ctx.Done():
			w.cfg.log.Info("Stopping watcher, waiting for running conversions...")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			w.handleEvent(ctx, ev, outputDir)
		case err, ok := <-fw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.cfg.log.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent dispatches ev if it names an existing .html or .zip file.
// Reports whether a conversion was started.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event, outputDir string) bool {
	if ev.Op&watchedOps == 0 {
		return false
	}
	// Rename also fires for the old name, which no longer exists.
	if !isConvertible(ev.Name) {
		return false
	}
	w.dispatch(ctx, Job{Source: ev.Name, OutputDir: outputDir})
	return true
}

// scan dispatches convertible files already present in inputDir.
func (w *Watcher) scan(ctx context.Context, inputDir, outputDir string) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		w.cfg.log.Warn("Initial scan of %s failed: %v", inputDir, err)
		return
	}
	for _, e := range entries {
		path := filepath.Join(inputDir, e.Name())
		if e.Type().IsRegular() && isConvertible(path) {
			w.dispatch(ctx, Job{Source: path, OutputDir: outputDir})
		}
	}
}

// dispatch converts job in its own goroutine. The conversion is detached
// from ctx cancellation so shutdown lets it finish.
func (w *Watcher) dispatch(ctx context.Context, job Job) {
	runCtx := context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				w.cfg.log.Error("Error processing %s: panic: %v", job.Source, r)
			}
		}()

		w.cfg.log.Info("Processing %s...", job.Source)
		res := w.processor.ProcessFile(runCtx, job.Source, job.OutputDir)
		switch {
		case res.Err != nil:
			w.cfg.log.Error("Error processing %s: %v", job.Source, res.Err)
		case res.Skipped:
		default:
			w.cfg.log.Info("Finished processing %s (%s)", job.Source, res.Duration.Round(time.Millisecond))
		}
	}()
}

// isConvertible reports whether path is an existing regular file with a
// .html or .zip extension.
func isConvertible(path string) bool {
	switch fileutil.Ext(path) {
	case ExtHTML, ExtZIP:
		return fileutil.FileExists(path)
	default:
		return false
	}
}
