package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfwatch [watch] [flags]")
	fmt.Fprintln(w, "       pdfwatch <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watch a directory and convert new HTML files and ZIP bundles of HTML to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  watch      Watch a directory (default when no command is given)")
	fmt.Fprintln(w, "  convert    Convert HTML or ZIP files once")
	fmt.Fprintln(w, "  doctor     Check browser and directory setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pdfwatch help <command>' for details on a specific command.")
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfwatch [watch] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watch a directory and convert every .html or .zip file that appears in it.")
	fmt.Fprintln(w, "Each HTML file becomes <name>.pdf in the output directory. Each HTML entry")
	fmt.Fprintln(w, "of a ZIP archive becomes a PDF at the same relative path. Runs until")
	fmt.Fprintln(w, "interrupted; conversion failures are logged and watching continues.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Directories:")
	fmt.Fprintln(w, "  -i, --input <dir>         Directory to watch (default: $HOME/Downloads/RawHTML)")
	fmt.Fprintln(w, "  -o, --output <dir>        Directory for PDFs (default: $HOME/ActiveResumes)")
	fmt.Fprintln(w, "      --scan                Convert files already present at startup")
	fmt.Fprintln(w)
	printRenderFlagsUsage(w)
	printCommonFlagsUsage(w)
	printEnvUsage(w)
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfwatch convert <file.html|file.zip>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert the given files once and exit. Files with other extensions are skipped.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Directory for PDFs (default: $HOME/ActiveResumes)")
	fmt.Fprintln(w)
	printRenderFlagsUsage(w)
	printCommonFlagsUsage(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0  all files converted or skipped")
	fmt.Fprintln(w, "  1  general error")
	fmt.Fprintln(w, "  2  invalid flags or config")
	fmt.Fprintln(w, "  3  file or directory error")
	fmt.Fprintln(w, "  4  browser error")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfwatch doctor [--json] [-o dir]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome can be found and the input directory can be watched.")
	fmt.Fprintln(w, "Also reports an unwritable output directory, leftover archive scratch")
	fmt.Fprintln(w, "directories and environments where Chrome needs ROD_NO_SANDBOX=1.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory to check")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

func printRenderFlagsUsage(w io.Writer) {
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent browsers (0 = auto, -1 = unlimited)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-file render timeout (default: 30s)")
	fmt.Fprintln(w, "      --fail-fast           Stop an archive at its first failing entry")
	fmt.Fprintln(w)
}

func printCommonFlagsUsage(w io.Writer) {
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show render stages and timing")
	fmt.Fprintln(w, "  -h, --help                Show this help")
	fmt.Fprintln(w)
}

func printEnvUsage(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PDFWATCH_CONFIG           Config file name or path")
	fmt.Fprintln(w, "  PDFWATCH_INPUT_DIR        Directory to watch")
	fmt.Fprintln(w, "  PDFWATCH_OUTPUT_DIR       Directory for PDFs")
	fmt.Fprintln(w, "  PDFWATCH_WORKERS          Concurrent browsers")
	fmt.Fprintln(w, "  PDFWATCH_TIMEOUT          Per-file render timeout")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome binary to launch")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable the Chrome sandbox (containers)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags override environment variables, which override the config file.")
}

// runHelp prints help for a command, or general usage.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "watch":
		printWatchUsage(env.Stdout)
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pdfwatch version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		printUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
