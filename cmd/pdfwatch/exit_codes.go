package main

import (
	"errors"
	"os"

	"github.com/alnah/go-pdfwatch"
	"github.com/alnah/go-pdfwatch/internal/config"
)

// Exit codes for the pdfwatch CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, unusable directory
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
// Joined errors match when any member matches; browser failures take precedence.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, pdfwatch.ErrBrowserConnect) ||
		errors.Is(err, pdfwatch.ErrPageCreate) ||
		errors.Is(err, pdfwatch.ErrPageLoad) ||
		errors.Is(err, pdfwatch.ErrStyleInject) ||
		errors.Is(err, pdfwatch.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, pdfwatch.ErrWritePDF) ||
		errors.Is(err, pdfwatch.ErrArchiveOpen) ||
		errors.Is(err, pdfwatch.ErrArchiveExtract) ||
		errors.Is(err, pdfwatch.ErrInputDirNotFound) ||
		errors.Is(err, pdfwatch.ErrOutputDir) ||
		errors.Is(err, pdfwatch.ErrWatchSetup) ||
		errors.Is(err, ErrInputNotFound) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInvalidTimeout) ||
		errors.Is(err, config.ErrInvalidWorkers) ||
		errors.Is(err, config.ErrNoHomeDir) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrNoInput) {
		return ExitUsage
	}

	return ExitGeneral
}
