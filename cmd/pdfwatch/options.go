package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-pdfwatch"
	"github.com/alnah/go-pdfwatch/internal/config"
	"github.com/alnah/go-pdfwatch/internal/fileutil"
	"github.com/alnah/go-pdfwatch/internal/hints"
	"github.com/alnah/go-pdfwatch/internal/logger"
)

// resolveConfig builds the effective configuration.
// Order: CLI flags (merge) > env vars > config file > defaults.
// Directory defaults are resolved from the home directory last.
func resolveConfig(env *Environment, configName string, merge func(*config.Config)) (*config.Config, error) {
	envCfg, err := loadEnvConfig(env.Getenv)
	if err != nil {
		return nil, err
	}
	if env.Environ != nil {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	name := configName
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, err
		}
	}

	applyEnvConfig(envCfg, cfg)
	if merge != nil {
		merge(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ResolveDirs(env.homeDir()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates the console logger for the common flags.
func newLogger(f commonFlags, env *Environment) *pdfwatch.Logger {
	return pdfwatch.NewLogger(env.Stderr, logger.ForFlags(f.quiet, f.verbose))
}

// buildOptions maps a validated configuration to library options.
func buildOptions(cfg *config.Config, log *pdfwatch.Logger, env *Environment) ([]pdfwatch.Option, error) {
	opts := []pdfwatch.Option{
		pdfwatch.WithLogger(log),
		pdfwatch.WithWorkers(cfg.Render.Workers),
		pdfwatch.WithArchiveFailFast(cfg.Watch.FailFast),
		pdfwatch.WithInitialScan(cfg.Watch.InitialScan),
	}

	if cfg.Render.Timeout != "" {
		timeout, err := config.ParseTimeout(cfg.Render.Timeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pdfwatch.WithTimeout(timeout))
	}

	if env.Renderer != nil {
		opts = append(opts, pdfwatch.WithRenderer(env.Renderer))
	}

	return opts, nil
}

// withHint appends an actionable hint to err when one applies.
func withHint(err error, inputDir string) error {
	var hint string
	switch {
	case errors.Is(err, pdfwatch.ErrBrowserConnect):
		hint = hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		hint = hints.ForTimeout()
	case errors.Is(err, pdfwatch.ErrInputDirNotFound):
		hint = hints.ForInputDirectory(inputDir)
	case errors.Is(err, pdfwatch.ErrOutputDir):
		hint = hints.ForOutputDirectory()
	case errors.Is(err, pdfwatch.ErrWatchSetup):
		hint = hints.ForWatchLimit()
	}
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}
