package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alnah/go-pdfwatch"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and renderer doubles
// ---------------------------------------------------------------------------

// syncBuffer is a bytes.Buffer safe for the concurrent writes of the logger
// and the watch goroutines.
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

// fakeRenderer writes a stub PDF. Files whose base name is in failOn fail
// with the mapped error.
type fakeRenderer struct {
	mu     sync.Mutex
	failOn map[string]error
	calls  []string
}

func (r *fakeRenderer) RenderFile(_ context.Context, htmlPath, outputPath string) error {
	r.mu.Lock()
	r.calls = append(r.calls, filepath.Base(htmlPath))
	err := r.failOn[filepath.Base(htmlPath)]
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("%PDF-1.4\n"), 0o600)
}

func (r *fakeRenderer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// testEnv bundles an Environment with its captured output.
type testEnv struct {
	*Environment
	stdout *syncBuffer
	stderr *syncBuffer
	vars   map[string]string
	home   string
}

// newTestEnv returns an Environment with an isolated home, captured output,
// a fake renderer and a private variable map instead of the process env.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	te := &testEnv{
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
		vars:   map[string]string{},
		home:   t.TempDir(),
	}
	te.Environment = &Environment{
		Stdout:  te.stdout,
		Stderr:  te.stderr,
		Getenv:  func(k string) string { return te.vars[k] },
		Environ: te.environ,
		HomeDir: func() (string, error) { return te.home, nil },

		Renderer:      &fakeRenderer{},
		NotifyContext: context.WithCancel,
	}
	return te
}

func (te *testEnv) environ() []string {
	out := make([]string, 0, len(te.vars))
	for k, v := range te.vars {
		out = append(out, k+"="+v)
	}
	return out
}

func (te *testEnv) renderer() *fakeRenderer {
	return te.Renderer.(*fakeRenderer)
}

// errBrowser is a renderer failure classified as a browser error.
var errBrowser = fmt.Errorf("%w: chrome exited", pdfwatch.ErrBrowserConnect)

// errOther is an unclassified failure.
var errOther = errors.New("boom")

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}
