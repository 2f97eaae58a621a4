package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-pdfwatch/internal/config"
)

// envPrefix is shared by every recognized environment variable.
const envPrefix = "PDFWATCH_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // PDFWATCH_CONFIG: config file name or path
	InputDir   string // PDFWATCH_INPUT_DIR: watched directory
	OutputDir  string // PDFWATCH_OUTPUT_DIR: PDF directory
	Timeout    string // PDFWATCH_TIMEOUT: per-file render timeout
	Workers    *int   // PDFWATCH_WORKERS: concurrent browsers (nil = unset)
}

// knownEnvVars lists valid PDFWATCH_* environment variables.
// Used to detect typos and warn users about unknown variables.
// PDFWATCH_CONTAINER is read by doctor.
var knownEnvVars = map[string]bool{
	"PDFWATCH_CONFIG":     true,
	"PDFWATCH_INPUT_DIR":  true,
	"PDFWATCH_OUTPUT_DIR": true,
	"PDFWATCH_TIMEOUT":    true,
	"PDFWATCH_WORKERS":    true,
	"PDFWATCH_CONTAINER":  true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed values are errors rather than silently ignored.
func loadEnvConfig(getenv func(string) string) (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath: getenv("PDFWATCH_CONFIG"),
		InputDir:   getenv("PDFWATCH_INPUT_DIR"),
		OutputDir:  getenv("PDFWATCH_OUTPUT_DIR"),
	}

	if timeout := getenv("PDFWATCH_TIMEOUT"); timeout != "" {
		if _, err := config.ParseTimeout(timeout); err != nil {
			return nil, fmt.Errorf("PDFWATCH_TIMEOUT: %w", err)
		}
		cfg.Timeout = timeout
	}

	if workers := getenv("PDFWATCH_WORKERS"); workers != "" {
		w, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("PDFWATCH_WORKERS: %w: %q is not an integer", config.ErrInvalidWorkers, workers)
		}
		cfg.Workers = &w
	}

	return cfg, nil
}

// warnUnknownEnvVars logs warnings for unrecognized PDFWATCH_* variables.
// Helps catch typos like PDFWATCH_OUTPUTDIR instead of PDFWATCH_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	var unknown []string
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies set environment variables over cfg.
// Order: CLI flags > env vars > config file > defaults
// (CLI flags are applied afterwards by the command's merge).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.InputDir != "" {
		cfg.Input.Dir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Timeout != "" {
		cfg.Render.Timeout = env.Timeout
	}
	if env.Workers != nil {
		cfg.Render.Workers = *env.Workers
	}
}
