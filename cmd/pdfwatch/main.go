package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(maxprocsLogger(os.Args, os.Stderr)))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain routes to a command and returns the process exit code.
// Without a known command name, the arguments are watch flags.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		return runWatchCmd(nil, env)
	}

	switch args[1] {
	case "watch":
		return runWatchCmd(args[2:], env)
	case "convert":
		return runConvertCmd(args[2:], env)
	case "doctor":
		return runDoctorCmd(args[2:], env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "pdfwatch %s\n", Version)
		return ExitSuccess
	case "help":
		return runHelp(args[2:], env)
	case "completion":
		return runCompletionCmd(args[2:], env)
	default:
		return runWatchCmd(args[1:], env)
	}
}

// maxprocsLogger reports GOMAXPROCS adjustments only when -v/--verbose is present.
// It runs before flag parsing, so it scans the raw arguments.
func maxprocsLogger(args []string, w io.Writer) func(string, ...any) {
	if len(args) < 2 || !slices.ContainsFunc(args[1:], isVerboseArg) {
		return func(string, ...any) {}
	}
	return func(format string, a ...any) {
		fmt.Fprintf(w, format+"\n", a...)
	}
}

func isVerboseArg(arg string) bool {
	return arg == "-v" || arg == "--verbose" || arg == "--verbose=true"
}
