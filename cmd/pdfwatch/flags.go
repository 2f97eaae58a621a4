package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pdfwatch/internal/config"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds browser and archive flags shared by watch and convert.
type renderFlags struct {
	workers  int
	timeout  string
	failFast bool
}

// watchFlags holds all flags for the watch command.
type watchFlags struct {
	common commonFlags
	render renderFlags
	input  string
	output string
	scan   bool
	set    map[string]bool // flags given on the command line
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common commonFlags
	render renderFlags
	output string
	set    map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show render stages and timing")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent browsers (0 = auto, -1 = unlimited)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-file render timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.failFast, "fail-fast", false, "stop an archive at its first failing entry")
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	json   bool
	output string
	config string
	set    map[string]bool
}

// newWatchFlagSet registers watch flags into f.
// Shared by parsing and shell completion.
func newWatchFlagSet(f *watchFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)

	fs.StringVarP(&f.input, "input", "i", "", "directory to watch (default $HOME/"+config.DefaultInputSubdir+")")
	fs.StringVarP(&f.output, "output", "o", "", "directory for PDFs (default $HOME/"+config.DefaultOutputSubdir+")")
	fs.BoolVar(&f.scan, "scan", false, "convert files already in the input directory at startup")
	addRenderFlags(fs, &f.render)
	addCommonFlags(fs, &f.common)

	return fs
}

// newConvertFlagSet registers convert flags into f.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	fs.StringVarP(&f.output, "output", "o", "", "directory for PDFs (default $HOME/"+config.DefaultOutputSubdir+")")
	addRenderFlags(fs, &f.render)
	addCommonFlags(fs, &f.common)

	return fs
}

// newDoctorFlagSet registers doctor flags into f.
func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)

	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	fs.StringVarP(&f.output, "output", "o", "", "output directory to check")
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")

	return fs
}

// parseWatchFlags parses watch command flags and returns positional args.
func parseWatchFlags(args []string, stderr io.Writer) (*watchFlags, []string, error) {
	f := &watchFlags{}
	fs := newWatchFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printWatchUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	f.set = changedFlags(fs)

	return f, fs.Args(), nil
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printConvertUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	f.set = changedFlags(fs)

	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newDoctorFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printDoctorUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	f.set = changedFlags(fs)

	return f, nil
}

// merge applies explicitly set watch flags over cfg.
func (f *watchFlags) merge(cfg *config.Config) {
	if f.set["input"] {
		cfg.Input.Dir = f.input
	}
	if f.set["output"] {
		cfg.Output.Dir = f.output
	}
	if f.set["scan"] {
		cfg.Watch.InitialScan = f.scan
	}
	f.render.merge(f.set, cfg)
}

// merge applies explicitly set convert flags over cfg.
func (f *convertFlags) merge(cfg *config.Config) {
	if f.set["output"] {
		cfg.Output.Dir = f.output
	}
	f.render.merge(f.set, cfg)
}

func (f *renderFlags) merge(set map[string]bool, cfg *config.Config) {
	// Changed, not non-zero: "--workers 0" must be able to reset a config value.
	if set["workers"] {
		cfg.Render.Workers = f.workers
	}
	if set["timeout"] {
		cfg.Render.Timeout = f.timeout
	}
	if set["fail-fast"] {
		cfg.Watch.FailFast = f.failFast
	}
}

// merge applies explicitly set doctor flags over cfg.
func (f *doctorFlags) merge(cfg *config.Config) {
	if f.set["output"] {
		cfg.Output.Dir = f.output
	}
}

// changedFlags collects the names of flags set on the command line.
func changedFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// usageError wraps a parse failure with ErrUsage. flag.ErrHelp passes through.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}
