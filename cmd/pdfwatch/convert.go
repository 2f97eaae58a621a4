package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pdfwatch"
	"github.com/alnah/go-pdfwatch/internal/fileutil"
)

// Sentinel errors for the convert command.
var (
	ErrNoInput       = errors.New("no input files specified")
	ErrInputNotFound = errors.New("input file not found")
)

// runConvertCmd converts the given files once and returns an exit code.
// The code reflects the most severe failure across all files.
func runConvertCmd(args []string, env *Environment) int {
	f, paths, err := parseConvertFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\nRun 'pdfwatch help convert' for usage.\n", err)
		return exitCodeFor(err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(env.Stderr, "error: %v\n", ErrNoInput)
		printConvertUsage(env.Stderr)
		return exitCodeFor(ErrNoInput)
	}

	results, err := runConvert(context.Background(), f, paths, env)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	failed := printResults(results, f.common.quiet, f.common.verbose, env)
	if len(failed) == 0 {
		return ExitSuccess
	}
	return exitCodeFor(errors.Join(failed...))
}

// runConvert dispatches every path concurrently and returns results in input order.
// Browser launches are bounded by the Dispatcher's limiter.
func runConvert(ctx context.Context, f *convertFlags, paths []string, env *Environment) ([]pdfwatch.Result, error) {
	cfg, err := resolveConfig(env, f.common.config, f.merge)
	if err != nil {
		return nil, err
	}

	log := newLogger(f.common, env)
	opts, err := buildOptions(cfg, log, env)
	if err != nil {
		return nil, err
	}

	if err := fileutil.EnsureDir(cfg.Output.Dir); err != nil {
		return nil, withHint(fmt.Errorf("%w: %v", pdfwatch.ErrOutputDir, err), "")
	}

	d := pdfwatch.NewDispatcher(opts...)
	results := make([]pdfwatch.Result, len(paths))

	var wg sync.WaitGroup
	for i, p := range paths {
		if !fileutil.FileExists(p) {
			results[i] = pdfwatch.Result{Source: p, Err: fmt.Errorf("%w: %s", ErrInputNotFound, p)}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := d.ProcessFile(ctx, p, cfg.Output.Dir)
			if res.Err != nil {
				res.Err = withHint(res.Err, "")
			}
			results[i] = res
		}()
	}
	wg.Wait()

	return results, nil
}

// printResults reports each result and returns the errors of failed files.
// Skipped files are reported by the Dispatcher's logger.
func printResults(results []pdfwatch.Result, quiet, verbose bool, env *Environment) []error {
	var failed []error
	succeeded, skipped := 0, 0

	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = append(failed, r.Err)
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Source, r.Err)
		case r.Skipped:
			skipped++
		default:
			succeeded++
		}

		// Archives that failed part-way still report the PDFs they wrote.
		if quiet {
			continue
		}
		for _, out := range r.Outputs {
			if verbose {
				fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Source, out, r.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(env.Stdout, "Created %s\n", out)
			}
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed", succeeded, len(failed))
		if skipped > 0 {
			fmt.Fprintf(env.Stdout, ", %d skipped", skipped)
		}
		fmt.Fprintln(env.Stdout)
	}

	return failed
}
