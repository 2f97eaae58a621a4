package pdfwatch

// Notes:
// - handleEvent is driven with synthetic fsnotify events; Run is exercised
//   against a real fsnotify watcher on t.TempDir
// - A single write can surface as Create and Write events, so end-to-end tests
//   accept one or more conversions per file
// - mockProcessor replaces the Dispatcher so no renderer is involved

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type mockProcessor struct {
	mu      sync.Mutex
	calls   []string
	called  chan string
	delay   time.Duration
	err     error
	ctxErrs []error // ctx.Err() observed after the delay
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{called: make(chan string, 64)}
}

func (m *mockProcessor) ProcessFile(ctx context.Context, path, _ string) Result {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	select {
	case m.called <- path:
	default:
	}

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	m.mu.Unlock()

	return Result{Source: path, Err: m.err}
}

func (m *mockProcessor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// syncBuffer is a bytes.Buffer safe for the logger and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startWatcher runs w in the background and returns a stop function that
// cancels it and returns Run's error.
func startWatcher(t *testing.T, w *Watcher, logs *syncBuffer, in, out string) func() error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, in, out) }()

	waitFor(t, "watcher to start", func() bool {
		return strings.Contains(logs.String(), "Watching for new files")
	})

	var once sync.Once
	var runErr error
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case runErr = <-errc:
			case <-time.After(5 * time.Second):
				runErr = errors.New("Run did not return after cancel")
			}
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

// ---------------------------------------------------------------------------
// TestHandleEvent - Event filtering
// ---------------------------------------------------------------------------

func TestHandleEvent(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	htmlPath := writeFile(t, in, "resume.html", "<p>")
	zipPath := writeZip(t, in, "bundle.zip", zipEntry{Name: "a.html", Body: "a"})
	upperPath := writeFile(t, in, "CV.HTML", "<p>")
	txtPath := writeFile(t, in, "notes.txt", "n")
	dirPath := filepath.Join(in, "folder.html")
	if err := os.Mkdir(dirPath, 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{name: "create html", ev: fsnotify.Event{Name: htmlPath, Op: fsnotify.Create}, want: true},
		{name: "write zip", ev: fsnotify.Event{Name: zipPath, Op: fsnotify.Write}, want: true},
		{name: "rename into place", ev: fsnotify.Event{Name: htmlPath, Op: fsnotify.Rename}, want: true},
		{name: "upper case extension", ev: fsnotify.Event{Name: upperPath, Op: fsnotify.Create}, want: true},
		{name: "combined ops", ev: fsnotify.Event{Name: htmlPath, Op: fsnotify.Create | fsnotify.Chmod}, want: true},
		{name: "unsupported extension", ev: fsnotify.Event{Name: txtPath, Op: fsnotify.Create}, want: false},
		{name: "remove", ev: fsnotify.Event{Name: htmlPath, Op: fsnotify.Remove}, want: false},
		{name: "chmod only", ev: fsnotify.Event{Name: htmlPath, Op: fsnotify.Chmod}, want: false},
		{name: "file already gone", ev: fsnotify.Event{Name: filepath.Join(in, "gone.html"), Op: fsnotify.Create}, want: false},
		{name: "rename away", ev: fsnotify.Event{Name: filepath.Join(in, "old.zip"), Op: fsnotify.Rename}, want: false},
		{name: "directory with html suffix", ev: fsnotify.Event{Name: dirPath, Op: fsnotify.Create}, want: false},
		{name: "empty name", ev: fsnotify.Event{Name: "", Op: fsnotify.Create}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newMockProcessor()
			w := NewWatcher(withProcessor(p))

			got := w.handleEvent(context.Background(), tt.ev, t.TempDir())
			w.wg.Wait()

			if got != tt.want {
				t.Errorf("handleEvent(%v) = %v, want %v", tt.ev, got, tt.want)
			}
			wantCalls := 0
			if tt.want {
				wantCalls = 1
			}
			if n := len(p.Calls()); n != wantCalls {
				t.Errorf("processor calls = %d, want %d", n, wantCalls)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWatcherRun - Setup errors
// ---------------------------------------------------------------------------

func TestWatcherRun_InputDirMissing(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out")
	w := NewWatcher(withProcessor(newMockProcessor()))

	err := w.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), out)
	if !errors.Is(err, ErrInputDirNotFound) {
		t.Errorf("Run() error = %v, want ErrInputDirNotFound", err)
	}
}

func TestWatcherRun_InputIsFile(t *testing.T) {
	t.Parallel()

	in := writeFile(t, t.TempDir(), "file.html", "<p>")
	w := NewWatcher(withProcessor(newMockProcessor()))

	err := w.Run(context.Background(), in, t.TempDir())
	if !errors.Is(err, ErrInputDirNotFound) {
		t.Errorf("Run() error = %v, want ErrInputDirNotFound", err)
	}
}

func TestWatcherRun_OutputDirUnusable(t *testing.T) {
	t.Parallel()

	// A regular file where a parent directory is expected.
	blocker := writeFile(t, t.TempDir(), "blocker", "x")
	w := NewWatcher(withProcessor(newMockProcessor()))

	err := w.Run(context.Background(), t.TempDir(), filepath.Join(blocker, "out"))
	if !errors.Is(err, ErrOutputDir) {
		t.Errorf("Run() error = %v, want ErrOutputDir", err)
	}
}

// ---------------------------------------------------------------------------
// TestWatcherRun - End to end with fsnotify
// ---------------------------------------------------------------------------

func TestWatcherRun_CreatesOutputDir(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")

	w := NewWatcher(withProcessor(newMockProcessor()), WithLogger(NewLogger(logs, LogInfo)))
	stop := startWatcher(t, w, logs, in, out)

	info, err := os.Stat(out)
	if err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}
	if err := stop(); err != nil {
		t.Errorf("Run() error = %v, want nil after cancel", err)
	}
}

func TestWatcherRun_DispatchesNewFiles(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	in, out := t.TempDir(), t.TempDir()
	p := newMockProcessor()

	w := NewWatcher(withProcessor(p), WithLogger(NewLogger(logs, LogInfo)))
	stop := startWatcher(t, w, logs, in, out)

	htmlPath := writeFile(t, in, "resume.html", "<p>")
	writeFile(t, in, "notes.txt", "ignored")
	zipPath := writeZip(t, in, "bundle.zip", zipEntry{Name: "a.html", Body: "a"})

	seen := func(path string) func() bool {
		return func() bool {
			for _, c := range p.Calls() {
				if c == path {
					return true
				}
			}
			return false
		}
	}
	waitFor(t, "html dispatch", seen(htmlPath))
	waitFor(t, "zip dispatch", seen(zipPath))

	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, c := range p.Calls() {
		if strings.HasSuffix(c, ".txt") {
			t.Errorf("unsupported file dispatched: %s", c)
		}
	}
	if !strings.Contains(logs.String(), "Processing "+htmlPath) {
		t.Errorf("log missing Processing line:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "Finished processing "+htmlPath) {
		t.Errorf("log missing Finished line:\n%s", logs.String())
	}
}

func TestWatcherRun_RenamedIntoPlace(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	in, out := t.TempDir(), t.TempDir()
	staging := t.TempDir()
	p := newMockProcessor()

	w := NewWatcher(withProcessor(p), WithLogger(NewLogger(logs, LogInfo)))
	startWatcher(t, w, logs, in, out)

	src := writeFile(t, staging, "moved.html", "<p>")
	dst := filepath.Join(in, "moved.html")
	if err := os.Rename(src, dst); err != nil {
		t.Fatalf("rename: %v", err)
	}

	waitFor(t, "renamed file dispatch", func() bool {
		for _, c := range p.Calls() {
			if c == dst {
				return true
			}
		}
		return false
	})
}

func TestWatcherRun_InitialScan(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	in, out := t.TempDir(), t.TempDir()
	existing := writeFile(t, in, "already-here.html", "<p>")
	writeFile(t, in, "readme.md", "# no")
	p := newMockProcessor()

	w := NewWatcher(withProcessor(p), WithInitialScan(true), WithLogger(NewLogger(logs, LogInfo)))
	stop := startWatcher(t, w, logs, in, out)

	waitFor(t, "initial scan dispatch", func() bool { return len(p.Calls()) >= 1 })
	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := p.Calls()
	if len(calls) != 1 || calls[0] != existing {
		t.Errorf("calls = %v, want only %s", calls, existing)
	}
}

func TestWatcherRun_NoInitialScanByDefault(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, in, "already-here.html", "<p>")
	p := newMockProcessor()

	w := NewWatcher(withProcessor(p), WithLogger(NewLogger(logs, LogInfo)))
	stop := startWatcher(t, w, logs, in, out)

	time.Sleep(100 * time.Millisecond)
	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls := p.Calls(); len(calls) != 0 {
		t.Errorf("pre-existing files dispatched without initial scan: %v", calls)
	}
}

func TestWatcherRun_FailuresDoNotStopWatching(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	in, out := t.TempDir(), t.TempDir()
	p := newMockProcessor()
	p.err = errors.New("render failed")

	w := NewWatcher(withProcessor(p), WithLogger(NewLogger(logs, LogInfo)))
	stop := startWatcher(t, w, logs, in, out)

	first := writeFile(t, in, "first.html", "<p>")
	waitFor(t, "first error logged", func() bool {
		return strings.Contains(logs.String(), "Error processing "+first)
	})

	second := writeFile(t, in, "second.html", "<p>")
	waitFor(t, "second dispatch", func() bool {
		for _, c := range p.Calls() {
			if c == second {
				return true
			}
		}
		return false
	})

	if err := stop(); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestWatcherRun_ShutdownWaitsForInFlight(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	in, out := t.TempDir(), t.TempDir()
	p := newMockProcessor()
	p.delay = 200 * time.Millisecond

	w := NewWatcher(withProcessor(p), WithLogger(NewLogger(logs, LogInfo)))
	stop := startWatcher(t, w, logs, in, out)

	path := writeFile(t, in, "slow.html", "<p>")
	select {
	case <-p.called:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s was never dispatched", path)
	}

	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(logs.String(), "Finished processing "+path) {
		t.Error("Run returned before the in-flight conversion finished")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, err := range p.ctxErrs {
		if err != nil {
			t.Errorf("conversion %d saw cancelled context: %v", i, err)
		}
	}
}
