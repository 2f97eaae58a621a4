package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pdfwatch"
)

// runWatchCmd runs the watch loop until interrupted and returns an exit code.
// Conversion failures are logged; only setup errors produce a non-zero code.
func runWatchCmd(args []string, env *Environment) int {
	f, rest, err := parseWatchFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\nRun 'pdfwatch help watch' for usage.\n", err)
		return exitCodeFor(err)
	}
	if len(rest) > 0 {
		fmt.Fprintf(env.Stderr, "%v: unexpected argument %q\n", ErrUsage, rest[0])
		fmt.Fprintln(env.Stderr, "Run 'pdfwatch help watch' for usage, or 'pdfwatch convert' for one-shot conversion.")
		return ExitUsage
	}

	if err := runWatch(f, env); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runWatch resolves configuration and blocks in Watcher.Run.
func runWatch(f *watchFlags, env *Environment) error {
	cfg, err := resolveConfig(env, f.common.config, f.merge)
	if err != nil {
		return err
	}

	log := newLogger(f.common, env)
	opts, err := buildOptions(cfg, log, env)
	if err != nil {
		return err
	}

	log.Debug("Input %s, output %s, browser limit %s",
		cfg.Input.Dir, cfg.Output.Dir, describeLimit(cfg.Render.Workers))

	ctx, stop := env.NotifyContext(context.Background())
	defer stop()
	// Run drains in-flight conversions after ctx is done. Unregister the
	// signals right away so a second interrupt gets the default handling.
	go func() {
		<-ctx.Done()
		stop()
	}()

	w := pdfwatch.NewWatcher(opts...)
	if err := w.Run(ctx, cfg.Input.Dir, cfg.Output.Dir); err != nil {
		return withHint(err, cfg.Input.Dir)
	}
	return nil
}

// describeLimit renders a workers setting for logs.
func describeLimit(workers int) string {
	size := pdfwatch.ResolvePoolSize(workers)
	if size == 0 {
		return "unlimited"
	}
	return strconv.Itoa(size)
}
