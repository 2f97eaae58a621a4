package pdfwatch

import "errors"

// Sentinel errors for library operations.
var (
	// Renderer errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrStyleInject    = errors.New("failed to inject print stylesheet")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrWritePDF       = errors.New("failed to write PDF file")

	// Archive errors.
	ErrArchiveOpen     = errors.New("failed to open zip archive")
	ErrArchiveExtract  = errors.New("failed to extract zip entry")
	ErrUnsafeEntryPath = errors.New("zip entry path escapes target directory")

	// Watcher errors.
	ErrInputDirNotFound = errors.New("input directory not found")
	ErrOutputDir        = errors.New("failed to create output directory")
	ErrWatchSetup       = errors.New("failed to watch input directory")
	ErrWatcherClosed    = errors.New("filesystem watcher closed unexpectedly")
)
