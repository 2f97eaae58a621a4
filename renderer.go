package pdfwatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-pdfwatch/internal/fileutil"
	"github.com/alnah/go-pdfwatch/internal/process"
)

// Renderer turns one HTML file into one PDF file.
type Renderer interface {
	RenderFile(ctx context.Context, htmlPath, outputPath string) error
}

// Compile-time interface check.
var _ Renderer = (*rodRenderer)(nil)

// PDF page geometry (US Letter, edge to edge).
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	pdfScale          = 0.65
)

// renderStage tracks how far a render call got, for logging.
type renderStage int

const (
	stageLaunched renderStage = iota
	stageNavigated
	stageStyled
	stageExported
	stageClosed
	stageClosedAfterError
)

func (s renderStage) String() string {
	switch s {
	case stageLaunched:
		return "launched"
	case stageNavigated:
		return "navigated"
	case stageStyled:
		return "styled"
	case stageExported:
		return "exported"
	case stageClosed:
		return "closed"
	case stageClosedAfterError:
		return "closed-after-error"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// rodRenderer implements Renderer with a fresh headless Chrome per call.
// Nothing is shared between calls: every render launches, uses and tears
// down its own browser process.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	timeout     time.Duration
	idleWindow  time.Duration
	log         *Logger
	newLauncher func() *launcher.Launcher
}

// newRodRenderer creates a rodRenderer from shared settings.
func newRodRenderer(s settings) *rodRenderer {
	return &rodRenderer{
		timeout:     s.timeout,
		idleWindow:  s.idleWindow,
		log:         s.log,
		newLauncher: newLauncher,
	}
}

// newLauncher configures a Chrome launcher from the environment.
func newLauncher() *launcher.Launcher {
	l := launcher.New().Headless(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" || bin != "" {
		l = l.NoSandbox(true)
	}
	return l
}

// browserSession owns one launched Chrome process.
type browserSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	started  bool
}

// close releases the browser and its process tree. Safe on partial sessions.
func (s *browserSession) close() {
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher == nil || !s.started {
		return
	}
	process.KillProcessGroup(s.launcher.PID())
	s.launcher.Kill()
	// Cleanup waits for the process to exit, then removes the user-data dir.
	s.launcher.Cleanup()
}

// launch starts Chrome and connects to it.
func (r *rodRenderer) launch() (*browserSession, error) {
	sess := &browserSession{launcher: r.newLauncher()}

	u, err := sess.launcher.Launch()
	if err != nil {
		return sess, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	sess.started = true

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return sess, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	sess.browser = browser
	return sess, nil
}

// RenderFile loads htmlPath in a dedicated headless Chrome, prepends the
// print stylesheet and writes the PDF to outputPath.
// The renderer timeout bounds page load and network quiescence only; browser
// start-up and export are not counted. The browser is released on every path.
func (r *rodRenderer) RenderFile(ctx context.Context, htmlPath, outputPath string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	fileURL, err := fileutil.FileURL(htmlPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	name := filepath.Base(htmlPath)
	stage := stageLaunched

	sess, err := r.launch()
	defer func() {
		sess.close()
		if err != nil {
			r.log.Debug("render %s: %s (failed after %s)", name, stageClosedAfterError, stage)
			return
		}
		r.log.Debug("render %s: %s", name, stageClosed)
	}()
	if err != nil {
		return err
	}
	r.log.Debug("render %s: %s", name, stage)

	page, err := sess.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	page = page.Context(ctx)

	loadCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.navigate(loadCtx, page.Context(loadCtx), fileURL); err != nil {
		return err
	}
	stage = stageNavigated
	r.log.Debug("render %s: %s", name, stage)

	if err := injectPrintStyles(page); err != nil {
		return err
	}
	stage = stageStyled
	r.log.Debug("render %s: %s", name, stage)

	if err := writePDF(page, outputPath); err != nil {
		return err
	}
	stage = stageExported
	r.log.Debug("render %s: %s", name, stage)

	return nil
}

// navigate opens fileURL and waits for the load event plus a window with no
// network activity. Exceeding the context deadline is reported as ErrPageLoad
// wrapping context.DeadlineExceeded.
func (r *rodRenderer) navigate(ctx context.Context, page *rod.Page, fileURL string) error {
	// Subscribe before navigating so early requests are counted.
	waitIdle := page.WaitRequestIdle(r.idleWindow, nil, nil, nil)

	if err := page.Navigate(fileURL); err != nil {
		return loadError(ctx, "navigating", err)
	}
	if err := page.WaitLoad(); err != nil {
		return loadError(ctx, "waiting for load event", err)
	}

	// Returns early if ctx expires.
	waitIdle()
	if err := ctx.Err(); err != nil {
		return loadError(ctx, "waiting for network idle", err)
	}
	return nil
}

// loadError wraps a navigation failure, preferring the context error so
// timeouts are recognizable with errors.Is.
func loadError(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %s: %w", ErrPageLoad, step, ctxErr)
	}
	return fmt.Errorf("%w: %s: %w", ErrPageLoad, step, err)
}

// writePDF prints the page and streams the PDF to outputPath.
func writePDF(page *rod.Page, outputPath string) error {
	stream, err := page.PDF(buildPDFOptions())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer func() { _ = stream.Close() }()

	if err := fileutil.WriteFileAtomic(outputPath, stream, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	return nil
}

// buildPDFOptions returns the fixed print settings: Letter, backgrounds on,
// no header/footer, 65% scale, zero margins.
func buildPDFOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:          floatPtr(paperWidthInches),
		PaperHeight:         floatPtr(paperHeightInches),
		MarginTop:           floatPtr(0),
		MarginBottom:        floatPtr(0),
		MarginLeft:          floatPtr(0),
		MarginRight:         floatPtr(0),
		Scale:               floatPtr(pdfScale),
		PrintBackground:     true,
		DisplayHeaderFooter: false,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
