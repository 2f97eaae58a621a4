// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrPathEscapesRoot = errors.New("path escapes root directory")
)

// DirPermissions is used for every directory created by pdfwatch.
const DirPermissions = 0o750 // rwxr-x---: owner full, group read+execute

// Ext returns the lower-cased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// ReplaceExt swaps the final extension of name for ext.
// Names without an extension get ext appended.
//
// Examples:
//   - "resume.html", ".pdf" -> "resume.pdf"
//   - "Resume.HTML", ".pdf" -> "Resume.pdf"
//   - "my.html.backup.html", ".pdf" -> "my.html.backup.pdf"
//   - "README", ".pdf" -> "README.pdf"
func ReplaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// SafeJoin joins a slash-separated relative name onto root and rejects
// results that land outside root (absolute names, "..", volume names).
func SafeJoin(root, name string) (string, error) {
	cleanRoot := filepath.Clean(root)
	rel := filepath.FromSlash(name)
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrPathEscapesRoot, name)
	}

	joined := filepath.Join(cleanRoot, rel)
	if joined == cleanRoot {
		return "", fmt.Errorf("%w: %q", ErrPathEscapesRoot, name)
	}
	if !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapesRoot, name)
	}
	return joined, nil
}

// FileURL returns a file:// URL for path, resolving it to an absolute path first.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letters: file:///C:/...
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String(), nil
}

// WriteFileAtomic streams r to a temporary file next to path and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, r io.Reader, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "pdfwatch" -> false (name)
//   - "./pdfwatch.yaml" -> true (relative path)
//   - "/etc/pdfwatch.yaml" -> true (absolute)
//   - "C:\config\pdfwatch.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
