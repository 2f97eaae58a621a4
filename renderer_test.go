package pdfwatch

// Notes:
// - Unit tests cover the browser-free parts of rodRenderer: PDF options,
//   launcher configuration from the environment, stage names and early exits
// - Actual Chrome rendering lives in renderer_integration_test.go
// - A slow launch is simulated by a newLauncher that sleeps; that the render
//   still succeeds with a real browser is checked in the integration suite
// - newLauncher tests only assert NoSandbox being switched on: rod may enable
//   it by itself inside containers, so "off" is not a stable expectation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// ---------------------------------------------------------------------------
// TestBuildPDFOptions - Fixed print settings
// ---------------------------------------------------------------------------

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	opts := buildPDFOptions()

	floats := []struct {
		name string
		got  *float64
		want float64
	}{
		{"PaperWidth", opts.PaperWidth, 8.5},
		{"PaperHeight", opts.PaperHeight, 11},
		{"MarginTop", opts.MarginTop, 0},
		{"MarginBottom", opts.MarginBottom, 0},
		{"MarginLeft", opts.MarginLeft, 0},
		{"MarginRight", opts.MarginRight, 0},
		{"Scale", opts.Scale, 0.65},
	}
	for _, f := range floats {
		if f.got == nil {
			t.Errorf("%s is nil", f.name)
			continue
		}
		if *f.got != f.want {
			t.Errorf("%s = %v, want %v", f.name, *f.got, f.want)
		}
	}

	if !opts.PrintBackground {
		t.Error("PrintBackground should be true")
	}
	if opts.DisplayHeaderFooter {
		t.Error("DisplayHeaderFooter should be false")
	}
}

func TestBuildPDFOptions_FreshPointers(t *testing.T) {
	t.Parallel()

	a, b := buildPDFOptions(), buildPDFOptions()
	*a.Scale = 2
	if *b.Scale != pdfScale {
		t.Errorf("options share state: Scale = %v", *b.Scale)
	}
}

// ---------------------------------------------------------------------------
// TestRenderStage_String - Stage names used in debug logs
// ---------------------------------------------------------------------------

func TestRenderStage_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stage renderStage
		want  string
	}{
		{stageLaunched, "launched"},
		{stageNavigated, "navigated"},
		{stageStyled, "styled"},
		{stageExported, "exported"},
		{stageClosed, "closed"},
		{stageClosedAfterError, "closed-after-error"},
		{renderStage(42), "stage(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.stage.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestNewLauncher - Environment-driven launcher configuration
// ---------------------------------------------------------------------------

func TestNewLauncher(t *testing.T) {
	// Not parallel: uses t.Setenv.

	t.Run("ROD_NO_SANDBOX enables no-sandbox", func(t *testing.T) {
		t.Setenv("ROD_BROWSER_BIN", "")
		t.Setenv("CI", "")
		t.Setenv("ROD_NO_SANDBOX", "1")

		if l := newLauncher(); !l.Has(flags.NoSandbox) {
			t.Error("expected no-sandbox flag")
		}
	})

	t.Run("CI enables no-sandbox", func(t *testing.T) {
		t.Setenv("ROD_BROWSER_BIN", "")
		t.Setenv("ROD_NO_SANDBOX", "")
		t.Setenv("CI", "true")

		if l := newLauncher(); !l.Has(flags.NoSandbox) {
			t.Error("expected no-sandbox flag")
		}
	})

	t.Run("custom binary is used and disables sandbox", func(t *testing.T) {
		t.Setenv("ROD_NO_SANDBOX", "")
		t.Setenv("CI", "")
		t.Setenv("ROD_BROWSER_BIN", "/opt/chrome/chrome")

		l := newLauncher()
		if got := l.Get(flags.Bin); got != "/opt/chrome/chrome" {
			t.Errorf("bin = %q, want /opt/chrome/chrome", got)
		}
		if !l.Has(flags.NoSandbox) {
			t.Error("expected no-sandbox flag with custom binary")
		}
	})

	t.Run("always headless", func(t *testing.T) {
		t.Setenv("ROD_BROWSER_BIN", "")
		t.Setenv("ROD_NO_SANDBOX", "")
		t.Setenv("CI", "")

		if l := newLauncher(); !l.Has(flags.Headless) {
			t.Error("expected headless flag")
		}
	})
}

// ---------------------------------------------------------------------------
// TestRodRenderer - Browser-free paths
// ---------------------------------------------------------------------------

func TestNewRodRenderer(t *testing.T) {
	t.Parallel()

	s := newSettings([]Option{WithTimeout(5 * time.Second), WithIdleWindow(time.Second)})
	r := newRodRenderer(s)

	if r.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", r.timeout)
	}
	if r.idleWindow != time.Second {
		t.Errorf("idleWindow = %v, want 1s", r.idleWindow)
	}
	if r.newLauncher == nil {
		t.Error("newLauncher should be set")
	}
	if r.log == nil {
		t.Error("log should default to a discarding logger")
	}
}

func TestRodRenderer_RenderFile_CancelledContext(t *testing.T) {
	t.Parallel()

	launched := false
	r := newRodRenderer(defaultSettings())
	r.newLauncher = func() *launcher.Launcher {
		launched = true
		return launcher.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.RenderFile(ctx, "page.html", "page.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RenderFile() error = %v, want context.Canceled", err)
	}
	if launched {
		t.Error("browser launched despite cancelled context")
	}
}

func TestRodRenderer_RenderFile_SlowLaunchNotTimedOut(t *testing.T) {
	t.Parallel()

	// Start-up outlasts the render timeout, then fails on a missing binary.
	// The failure must read as a launch error, not as a page-load timeout.
	bin := filepath.Join(t.TempDir(), "no-chrome")
	userData := t.TempDir()
	r := newRodRenderer(newSettings([]Option{WithTimeout(50 * time.Millisecond)}))
	r.newLauncher = func() *launcher.Launcher {
		time.Sleep(150 * time.Millisecond)
		return launcher.New().Bin(bin).Leakless(false).UserDataDir(userData)
	}

	err := r.RenderFile(context.Background(), "page.html", filepath.Join(t.TempDir(), "page.pdf"))
	if !errors.Is(err, ErrBrowserConnect) {
		t.Errorf("RenderFile() error = %v, want ErrBrowserConnect", err)
	}
	if errors.Is(err, ErrPageLoad) || errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RenderFile() error = %v: launch time counted against the render timeout", err)
	}
}

func TestLoadError(t *testing.T) {
	t.Parallel()

	t.Run("context deadline wins", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		err := loadError(ctx, "navigating", errors.New("cdp: context gone"))
		if !errors.Is(err, ErrPageLoad) {
			t.Errorf("error = %v, want ErrPageLoad", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want DeadlineExceeded", err)
		}
	})

	t.Run("plain failure kept", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("net::ERR_FILE_NOT_FOUND")
		err := loadError(context.Background(), "navigating", cause)
		if !errors.Is(err, ErrPageLoad) || !errors.Is(err, cause) {
			t.Errorf("error = %v, want ErrPageLoad wrapping cause", err)
		}
	})
}

func TestBrowserSession_CloseUnstarted(t *testing.T) {
	t.Parallel()

	// Must not block or panic when Launch never ran.
	(&browserSession{launcher: launcher.New()}).close()
	(&browserSession{}).close()
}
