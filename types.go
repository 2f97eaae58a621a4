package pdfwatch

import (
	"io"
	"time"

	"github.com/alnah/go-pdfwatch/internal/logger"
)

// Recognized input extensions (compared lower-cased) and the output extension.
const (
	ExtHTML = ".html"
	ExtZIP  = ".zip"
	ExtPDF  = ".pdf"
)

// File permissions for written PDFs.
const filePermissions = 0o644 // rw-r--r--: PDFs are meant to be readable

// ScratchPrefix names per-archive extraction directories inside the output dir.
// A directory with this prefix that outlives its archive was left by a crash.
const ScratchPrefix = "_temp-"

// Render defaults.
const (
	// defaultTimeout bounds navigation and network quiescence.
	defaultTimeout = 30 * time.Second

	// defaultIdleWindow is how long the page must make no requests to count as
	// quiescent (the usual "network idle" heuristic).
	defaultIdleWindow = 500 * time.Millisecond
)

// Job is one pending conversion: a source file and the directory its PDFs go to.
type Job struct {
	Source    string
	OutputDir string
}

// Result is the outcome of processing one source file.
type Result struct {
	Source   string
	Outputs  []string // PDFs written, in archive order for ZIPs
	Skipped  bool     // unsupported extension
	Err      error
	Duration time.Duration
}

// OK reports whether the file was processed without error.
func (r Result) OK() bool {
	return r.Err == nil
}

// Logger is the leveled console logger used by Dispatcher, Watcher and the renderer.
type Logger = logger.Logger

// LogLevel selects the minimum severity a Logger writes.
type LogLevel = logger.Level

// Log levels, lowest first.
const (
	LogDebug = logger.LevelDebug
	LogInfo  = logger.LevelInfo
	LogWarn  = logger.LevelWarn
	LogError = logger.LevelError
)

// NewLogger creates a Logger writing messages at or above level to w.
func NewLogger(w io.Writer, level LogLevel) *Logger {
	return logger.New(w, level)
}

// Option configures a Dispatcher or Watcher.
type Option func(*settings)

// settings holds the configuration shared by Dispatcher and Watcher.
type settings struct {
	timeout     time.Duration
	idleWindow  time.Duration
	workers     int // 0 = auto, <0 = unlimited
	failFast    bool
	initialScan bool
	log         *logger.Logger
	renderer    Renderer
	processor   fileProcessor // tests only
}

func defaultSettings() settings {
	return settings{
		timeout:    defaultTimeout,
		idleWindow: defaultIdleWindow,
		log:        logger.Discard(),
	}
}

func newSettings(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithTimeout sets the per-render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pdfwatch: WithTimeout duration must be positive")
	}
	return func(s *settings) {
		s.timeout = d
	}
}

// WithIdleWindow sets how long the network must stay silent before export.
// Panics if d <= 0.
func WithIdleWindow(d time.Duration) Option {
	if d <= 0 {
		panic("pdfwatch: WithIdleWindow duration must be positive")
	}
	return func(s *settings) {
		s.idleWindow = d
	}
}

// WithWorkers caps concurrent browser launches.
// 0 sizes the cap from GOMAXPROCS (see ResolvePoolSize); negative removes it.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

// WithArchiveFailFast makes the first failing entry abort the rest of its archive.
// By default every HTML entry is attempted and failures are reported together.
func WithArchiveFailFast(enabled bool) Option {
	return func(s *settings) {
		s.failFast = enabled
	}
}

// WithInitialScan makes Watcher.Run convert files already in the input
// directory before reacting to new events.
func WithInitialScan(enabled bool) Option {
	return func(s *settings) {
		s.initialScan = enabled
	}
}

// WithLogger sets the logger. Nil keeps the silent default.
func WithLogger(l *Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRenderer replaces the headless Chrome renderer.
func WithRenderer(r Renderer) Option {
	return func(s *settings) {
		s.renderer = r
	}
}

// withProcessor replaces the Watcher's dispatcher (tests).
func withProcessor(p fileProcessor) Option {
	return func(s *settings) {
		s.processor = p
	}
}
