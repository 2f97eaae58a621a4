package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pdfwatch"
	"github.com/alnah/go-pdfwatch/internal/config"
	"github.com/alnah/go-pdfwatch/internal/fileutil"
	"github.com/alnah/go-pdfwatch/internal/hints"
)

// Doctor status values.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// lookChrome locates a Chrome binary. Replaced in tests.
var lookChrome = launcher.LookPath

// chromeVersion runs "<bin> --version". Replaced in tests.
var chromeVersion = func(bin string) (string, error) {
	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- bin comes from LookPath or ROD_BROWSER_BIN
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Watch    watchInfo  `json:"watch"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds platform and browser environment settings.
type envInfo struct {
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	SandboxHint string `json:"sandbox_hint,omitempty"` // why Chrome's sandbox is likely unavailable
	NoSandbox   string `json:"rod_no_sandbox"`
	BrowserBin  string `json:"rod_browser_bin"`
}

// systemInfo holds filesystem check results.
type systemInfo struct {
	TempWritable   bool     `json:"temp_writable"`
	InputDir       string   `json:"input_dir,omitempty"`
	InputFound     bool     `json:"input_found"`
	OutputDir      string   `json:"output_dir,omitempty"`
	OutputWritable bool     `json:"output_writable"`
	StaleScratch   []string `json:"stale_scratch,omitempty"`
}

// watchInfo holds the result of subscribing to the input directory.
type watchInfo struct {
	Watchable        bool `json:"watchable"`
	MaxUserWatches   int  `json:"max_user_watches,omitempty"`
	MaxUserInstances int  `json:"max_user_instances,omitempty"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	f, err := parseDoctorFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(env, f.config, f.merge)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(env *Environment, configName string, merge func(*config.Config)) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkSandbox(result, env.Getenv)
	checkSystem(result)

	cfg, err := resolveConfig(env, configName, merge)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Configuration: %v", err))
	} else {
		checkDirectories(result, cfg)
		checkWatch(result, cfg.Input.Dir)
	}

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = lookChrome()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if !fileutil.FileExists(chromePath) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	if version, err := chromeVersion(chromePath); err == nil {
		result.Chrome.Version = version
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Sandbox status: disabled if ROD_NO_SANDBOX=1
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// sandboxSignals are checked in order; the first match explains why Chrome's
// sandbox is likely unavailable (containers and CI runners).
var sandboxSignals = []struct {
	hint   string
	detect func(getenv func(string) string) bool
}{
	{"PDFWATCH_CONTAINER=1", func(g func(string) string) bool { return g("PDFWATCH_CONTAINER") == "1" }},
	{"/.dockerenv", func(func(string) string) bool { return fileutil.FileExists("/.dockerenv") }},
	{"container", func(g func(string) string) bool { return g("container") != "" }}, // podman, systemd-nspawn
	{"KUBERNETES_SERVICE_HOST", func(g func(string) string) bool { return g("KUBERNETES_SERVICE_HOST") != "" }},
	{"CI", func(g func(string) string) bool { return g("CI") != "" || g("GITHUB_ACTIONS") != "" || g("GITLAB_CI") != "" }},
}

// checkSandbox warns when the environment usually needs ROD_NO_SANDBOX=1.
// The renderer turns the sandbox off by itself for CI=true and ROD_BROWSER_BIN.
func checkSandbox(result *doctorResult, getenv func(string) string) {
	for _, s := range sandboxSignals {
		if s.detect(getenv) {
			result.Env.SandboxHint = s.hint
			break
		}
	}
	if result.Env.SandboxHint == "" || result.Env.NoSandbox == "1" ||
		getenv("CI") == "true" || result.Env.BrowserBin != "" {
		return
	}
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("%s detected: Chrome may fail to start with its sandbox. Set ROD_NO_SANDBOX=1", result.Env.SandboxHint))
}

// checkSystem verifies the temp directory Chrome profiles are created in.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	if writable(tmpDir) {
		result.System.TempWritable = true
		return
	}
	result.Errors = append(result.Errors,
		fmt.Sprintf("Temp directory not writable: %s", tmpDir))
}

// checkDirectories checks the configured input and output directories.
// A missing output directory is only a warning: watch and convert create it.
func checkDirectories(result *doctorResult, cfg *config.Config) {
	result.System.InputDir = cfg.Input.Dir
	result.System.OutputDir = cfg.Output.Dir

	if fileutil.DirExists(cfg.Input.Dir) {
		result.System.InputFound = true
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Input directory %s does not exist; watch mode will fail until it is created", cfg.Input.Dir))
	}

	switch {
	case !fileutil.DirExists(cfg.Output.Dir):
		if fileutil.FileExists(cfg.Output.Dir) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Output path %s is a file, not a directory", cfg.Output.Dir))
			return
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Output directory %s does not exist yet; it will be created", cfg.Output.Dir))
	case writable(cfg.Output.Dir):
		result.System.OutputWritable = true
		checkScratch(result, cfg.Output.Dir)
	default:
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output directory not writable: %s", cfg.Output.Dir))
	}
}

// checkScratch looks for archive scratch directories left by an interrupted run.
func checkScratch(result *doctorResult, outputDir string) {
	stale, _ := filepath.Glob(filepath.Join(outputDir, pdfwatch.ScratchPrefix+"*"))
	if len(stale) == 0 {
		return
	}
	result.System.StaleScratch = stale
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("%d leftover scratch dirs in %s from an interrupted run; safe to delete", len(stale), outputDir))
}

// checkWatch subscribes to inputDir the way watch mode does, then reports
// the kernel watch limits where the platform exposes them.
func checkWatch(result *doctorResult, inputDir string) {
	result.Watch.MaxUserWatches, _ = readLimit(inotifyWatchesPath)
	result.Watch.MaxUserInstances, _ = readLimit(inotifyInstancesPath)

	if !result.System.InputFound {
		return
	}
	if err := tryWatch(inputDir); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Cannot watch %s: %v%s", inputDir, err, hints.ForWatchLimit()))
		return
	}
	result.Watch.Watchable = true
}

// Linux inotify limits.
const (
	inotifyWatchesPath   = "/proc/sys/fs/inotify/max_user_watches"
	inotifyInstancesPath = "/proc/sys/fs/inotify/max_user_instances"
)

// tryWatch adds and removes an fsnotify watch on dir. Replaced in tests.
var tryWatch = func(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	return w.Add(dir)
}

// readLimit reads an integer kernel setting. Replaced in tests.
var readLimit = func(path string) (int, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- fixed /proc paths
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// writable reports whether a file can be created in dir.
func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".pdfwatch-doctor-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "pdfwatch doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.SandboxHint != "" {
		fmt.Fprintf(w, "  [OK] Sandbox-restricted environment: %s\n", r.Env.SandboxHint)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Directories")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.InputDir != "" {
		if r.System.InputFound {
			fmt.Fprintf(w, "  [OK] Input: %s\n", r.System.InputDir)
		} else {
			fmt.Fprintf(w, "  [WARN] Input: %s (missing)\n", r.System.InputDir)
		}
	}
	if r.System.OutputDir != "" {
		if r.System.OutputWritable {
			fmt.Fprintf(w, "  [OK] Output: %s (writable)\n", r.System.OutputDir)
		} else {
			fmt.Fprintf(w, "  [WARN] Output: %s (see below)\n", r.System.OutputDir)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Watch")
	switch {
	case r.Watch.Watchable:
		fmt.Fprintln(w, "  [OK] Input directory can be watched")
	case r.System.InputFound:
		fmt.Fprintln(w, "  [ERROR] Input directory cannot be watched")
	default:
		fmt.Fprintln(w, "  [WARN] Not checked: input directory missing")
	}
	if r.Watch.MaxUserWatches > 0 {
		fmt.Fprintf(w, "  [OK] inotify limits: %d watches, %d instances\n", r.Watch.MaxUserWatches, r.Watch.MaxUserInstances)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
