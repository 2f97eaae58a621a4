package pdfwatch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/alnah/go-pdfwatch/internal/fileutil"
)

// htmlEntries returns the archive entries whose name ends in .html
// (case-insensitive), in archive order. Directory entries are skipped.
func htmlEntries(r *zip.Reader) []*zip.File {
	var entries []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ExtHTML) {
			entries = append(entries, f)
		}
	}
	return entries
}

// extractEntry writes f under destDir, keeping its relative path, and
// returns the extracted file path. Existing files are overwritten.
func extractEntry(f *zip.File, destDir string) (path string, err error) {
	path, err = fileutil.SafeJoin(destDir, f.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafeEntryPath, err)
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrArchiveExtract, err)
	}

	src, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrArchiveExtract, f.Name, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304 -- path validated by SafeJoin
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrArchiveExtract, f.Name, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %s: %v", ErrArchiveExtract, f.Name, cerr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil { // #nosec G110 -- content is not validated beyond extension
		return "", fmt.Errorf("%w: %s: %v", ErrArchiveExtract, f.Name, err)
	}
	return path, nil
}

// entryOutputPath maps an archive entry to outputDir/<entry path with .pdf>.
func entryOutputPath(outputDir, entryName string) (string, error) {
	out, err := fileutil.SafeJoin(outputDir, fileutil.ReplaceExt(entryName, ExtPDF))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafeEntryPath, err)
	}
	return out, nil
}

// newScratchDir creates a uniquely named extraction root inside outputDir.
// Concurrent archives never share one.
func newScratchDir(outputDir string) (string, error) {
	dir := filepath.Join(outputDir, ScratchPrefix+uuid.NewString())
	if err := fileutil.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("%w: creating scratch directory: %v", ErrArchiveExtract, err)
	}
	return dir, nil
}

// processArchive renders every .html entry of zipPath into outputDir.
// Each entry is extracted into its own directory under a per-archive scratch
// root; both are removed before returning. Returns the PDFs written.
//
// Entry failures are collected and processing continues unless failFast is
// set, in which case the first failure aborts the remaining entries.
func (d *Dispatcher) processArchive(ctx context.Context, zipPath, outputDir string) ([]string, error) {
	// ErrInsecurePath still yields a usable reader; unsafe names are
	// rejected per entry by SafeJoin.
	rc, err := zip.OpenReader(zipPath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrArchiveOpen, err)
	}
	defer func() { _ = rc.Close() }()

	entries := htmlEntries(&rc.Reader)
	if len(entries) == 0 {
		d.cfg.log.Info("No HTML entries in %s", filepath.Base(zipPath))
		return nil, nil
	}

	scratch, err := newScratchDir(outputDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	var outputs []string
	var errs []error
	for i, f := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		out, err := d.convertEntry(ctx, f, filepath.Join(scratch, strconv.Itoa(i)), outputDir)
		if err != nil {
			err = fmt.Errorf("entry %s: %w", f.Name, err)
			if d.cfg.failFast {
				return outputs, err
			}
			d.cfg.log.Warn("Skipping entry %s in %s: %v", f.Name, filepath.Base(zipPath), err)
			errs = append(errs, err)
			continue
		}
		outputs = append(outputs, out)
	}
	return outputs, errors.Join(errs...)
}

// convertEntry extracts one entry into entryDir, renders it, and removes entryDir.
func (d *Dispatcher) convertEntry(ctx context.Context, f *zip.File, entryDir, outputDir string) (string, error) {
	defer func() { _ = os.RemoveAll(entryDir) }()

	outPath, err := entryOutputPath(outputDir, f.Name)
	if err != nil {
		return "", err
	}

	htmlPath, err := extractEntry(f, entryDir)
	if err != nil {
		return "", err
	}

	if err := fileutil.EnsureDir(filepath.Dir(outPath)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	if err := d.render(ctx, htmlPath, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}
