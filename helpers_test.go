package pdfwatch

// Notes:
// - Shared fakes for unit tests: mockRenderer stands in for headless Chrome and
//   writes a tiny "%PDF-" file containing the HTML it was given
// - writeZip builds archives in t.TempDir with archive/zip so tests never
//   depend on checked-in fixtures

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type renderCall struct {
	HTMLPath   string
	OutputPath string
	HTML       string
}

type mockRenderer struct {
	mu        sync.Mutex
	calls     []renderCall
	failOn    map[string]error // keyed by base name of the HTML file
	delay     time.Duration
	onRender  func(htmlPath string)
	active    int
	maxActive int
}

func (m *mockRenderer) RenderFile(ctx context.Context, htmlPath, outputPath string) error {
	html, readErr := os.ReadFile(htmlPath)

	m.mu.Lock()
	m.calls = append(m.calls, renderCall{HTMLPath: htmlPath, OutputPath: outputPath, HTML: string(html)})
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	failErr := m.failOn[filepath.Base(htmlPath)]
	hook := m.onRender
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if hook != nil {
		hook(htmlPath)
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if failErr != nil {
		return failErr
	}
	if readErr != nil {
		return readErr
	}
	return os.WriteFile(outputPath, append([]byte("%PDF-1.4\n"), html...), 0o644)
}

func (m *mockRenderer) Calls() []renderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]renderCall(nil), m.calls...)
}

func (m *mockRenderer) MaxActive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// zipEntry is one file in a test archive. Names ending in "/" are directories.
type zipEntry struct {
	Name string
	Body string
}

// writeZip creates dir/name from entries and returns its path.
func writeZip(t *testing.T, dir, name string, entries ...zipEntry) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if e.Body != "" {
			if _, err := w.Write([]byte(e.Body)); err != nil {
				t.Fatalf("zip write %s: %v", e.Name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
	return path
}

// writeFile creates dir/name with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// assertPDFFile checks that path exists and starts with the PDF magic bytes.
func assertPDFFile(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected PDF at %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("%s does not start with %%PDF-", path)
	}
}

// assertNotExist checks that nothing exists at path.
func assertNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to not exist, stat err = %v", path, err)
	}
}

// assertNoScratchDirs checks that no _temp-* directory is left in dir.
func assertNoScratchDirs(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ScratchPrefix+"*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) > 0 {
		t.Errorf("leftover scratch directories: %v", matches)
	}
}

// newTestDispatcher returns a Dispatcher rendering through m.
func newTestDispatcher(m *mockRenderer, opts ...Option) *Dispatcher {
	return NewDispatcher(append([]Option{WithRenderer(m)}, opts...)...)
}
