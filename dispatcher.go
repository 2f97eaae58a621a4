package pdfwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alnah/go-pdfwatch/internal/fileutil"
)

// Dispatcher routes a source file to the conversion its extension calls for:
// .html renders directly, .zip renders each HTML entry, anything else is skipped.
// Safe for concurrent use.
type Dispatcher struct {
	cfg      settings
	renderer Renderer
	limiter  *LaunchLimiter
}

// NewDispatcher creates a Dispatcher. Without WithRenderer it renders with a
// fresh headless Chrome per file.
func NewDispatcher(opts ...Option) *Dispatcher {
	cfg := newSettings(opts)
	r := cfg.renderer
	if r == nil {
		r = newRodRenderer(cfg)
	}
	return &Dispatcher{
		cfg:      cfg,
		renderer: r,
		limiter:  NewLaunchLimiter(ResolvePoolSize(cfg.workers)),
	}
}

// Limiter returns the launch limiter shared by all renders of this Dispatcher.
func (d *Dispatcher) Limiter() *LaunchLimiter {
	return d.limiter
}

// ProcessFile converts path into outputDir. The output directory must exist.
// Errors are reported in Result.Err, never by panicking.
func (d *Dispatcher) ProcessFile(ctx context.Context, path, outputDir string) (res Result) {
	start := time.Now()
	res.Source = path
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("processing %s: panic: %v", path, r)
		}
		res.Duration = time.Since(start)
	}()

	switch fileutil.Ext(path) {
	case ExtZIP:
		outputs, err := d.processArchive(ctx, path, outputDir)
		res.Outputs = outputs
		if err != nil {
			res.Err = fmt.Errorf("processing zip file %s: %w", path, err)
		}
	case ExtHTML:
		out := filepath.Join(outputDir, fileutil.ReplaceExt(filepath.Base(path), ExtPDF))
		if err := d.render(ctx, path, out); err != nil {
			res.Err = fmt.Errorf("processing html file %s: %w", path, err)
			return res
		}
		res.Outputs = []string{out}
	default:
		d.cfg.log.Info("Ignoring file %s - not an HTML or ZIP file", path)
		res.Skipped = true
	}
	return res
}

// render holds a launch slot for the duration of one browser render.
func (d *Dispatcher) render(ctx context.Context, htmlPath, outputPath string) error {
	if err := d.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer d.limiter.Release()
	return d.renderer.RenderFile(ctx, htmlPath, outputPath)
}
