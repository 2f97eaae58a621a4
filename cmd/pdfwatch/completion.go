package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string // --output
	Short    string // -o (empty if none)
	Desc     string
	TakesArg bool   // false for bool flags
	IsDir    bool   // complete directories
	FileExts string // complete files with these extensions, e.g. "yaml|yml|toml"
}

// commandDef describes a command for completion.
type commandDef struct {
	Name     string
	Desc     string
	Flags    []flagDef
	FileExts string   // positional file extensions, "" = no file args
	Words    []string // fixed positional words (shell names, command names)
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSets.
type completionMeta struct {
	IsDir    bool
	FileExts string
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	"input":  {IsDir: true},
	"output": {IsDir: true},
	"config": {FileExts: "yaml|yml|toml"},
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		meta := flagCompletionMeta[f.Name]
		flags = append(flags, flagDef{
			Long:     f.Name,
			Short:    f.Shorthand,
			Desc:     f.Usage,
			TakesArg: f.Value.Type() != "bool",
			IsDir:    meta.IsDir,
			FileExts: meta.FileExts,
		})
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSets.
func getCommands() []commandDef {
	shells := []string{string(ShellBash), string(ShellZsh), string(ShellFish)}

	cmds := []commandDef{
		{Name: "watch", Desc: "Watch a directory and convert new files", Flags: extractFlagsFromFlagSet(newWatchFlagSet(&watchFlags{}))},
		{Name: "convert", Desc: "Convert HTML or ZIP files once", Flags: extractFlagsFromFlagSet(newConvertFlagSet(&convertFlags{})), FileExts: "html|zip"},
		{Name: "doctor", Desc: "Check browser and directory setup", Flags: extractFlagsFromFlagSet(newDoctorFlagSet(&doctorFlags{}))},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
		{Name: "completion", Desc: "Generate shell completion script", Words: shells},
	}

	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	for i := range cmds {
		if cmds[i].Name == "help" {
			cmds[i].Words = names
		}
	}
	return cmds
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()
	var script string

	switch shell {
	case ShellBash:
		script = generateBash(cmds)
	case ShellZsh:
		script = generateZsh(cmds)
	case ShellFish:
		script = generateFish(cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}

	_, err := io.WriteString(w, script)
	return err
}

// runCompletionCmd handles the completion command.
func runCompletionCmd(args []string, env *Environment) int {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return ExitSuccess
	}

	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfwatch completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(pdfwatch completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(pdfwatch completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    pdfwatch completion fish > ~/.config/fish/completions/pdfwatch.fish")
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("# bash completion for pdfwatch\n")
	b.WriteString("_pdfwatch() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=watch\n")
	b.WriteString("    if [[ ${COMP_CWORD} -gt 1 && ${COMP_WORDS[1]} != -* ]]; then\n")
	b.WriteString("        cmd=\"${COMP_WORDS[1]}\"\n")
	b.WriteString("    fi\n\n")

	// Flag values, shared by every command: a flag name means the same thing everywhere.
	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range uniqueValueFlags(cmds) {
		fmt.Fprintf(&b, "        %s)\n", strings.Join(flagNames(f), "|"))
		switch {
		case f.IsDir:
			b.WriteString("            COMPREPLY=( $(compgen -d -- \"${cur}\") )\n")
		case f.FileExts != "":
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -f -X '!*.@(%s)' -- \"${cur}\") $(compgen -d -- \"${cur}\") )\n", f.FileExts)
		default:
			b.WriteString("            COMPREPLY=()\n")
		}
		b.WriteString("            return\n")
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 && ${cur} != -* ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(commandNames(cmds), " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		if len(c.Flags) > 0 {
			var words []string
			for _, f := range c.Flags {
				words = append(words, flagNames(f)...)
			}
			b.WriteString("            if [[ ${cur} == -* ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(words, " "))
			b.WriteString("                return\n")
			b.WriteString("            fi\n")
		}
		switch {
		case c.FileExts != "":
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -f -X '!*.@(%s)' -- \"${cur}\") $(compgen -d -- \"${cur}\") )\n", bashExts(c.FileExts))
		case len(c.Words) > 0:
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(c.Words, " "))
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("shopt -s extglob\n")
	b.WriteString("complete -o filenames -F _pdfwatch pdfwatch\n")

	return b.String()
}

// bashExts adds upper-case variants; extensions are matched case-insensitively.
func bashExts(exts string) string {
	return exts + "|" + strings.ToUpper(exts)
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func generateZsh(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("#compdef pdfwatch\n\n")
	b.WriteString("_pdfwatch() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")

	b.WriteString("    if (( CURRENT == 2 )) && [[ ${words[2]} != -* ]]; then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    local cmd=watch\n")
	b.WriteString("    if [[ ${words[2]} != -* ]]; then\n")
	b.WriteString("        cmd=${words[2]}\n")
	b.WriteString("        shift words\n")
	b.WriteString("        (( CURRENT-- ))\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case $cmd in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments -s")
		for _, f := range c.Flags {
			b.WriteString(" \\\n                " + zshFlagSpec(f))
		}
		switch {
		case c.FileExts != "":
			fmt.Fprintf(&b, " \\\n                '*:file:_files -g \"*.(%s)(-.)\"'", bashExts(c.FileExts))
		case len(c.Words) > 0:
			fmt.Fprintf(&b, " \\\n                '1:argument:(%s)'", strings.Join(c.Words, " "))
		}
		b.WriteString("\n            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _pdfwatch pdfwatch\n")

	return b.String()
}

// zshFlagSpec renders one _arguments spec.
func zshFlagSpec(f flagDef) string {
	action := ""
	if f.TakesArg {
		switch {
		case f.IsDir:
			action = ":directory:_files -/"
		case f.FileExts != "":
			action = fmt.Sprintf(":file:_files -g \"*.(%s)\"", f.FileExts)
		default:
			action = ":value: "
		}
	}
	desc := "[" + zshEscape(f.Desc) + "]"

	if f.Short == "" {
		return "'--" + f.Long + desc + action + "'"
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'%s%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func generateFish(cmds []commandDef) string {
	var b strings.Builder
	names := strings.Join(commandNames(cmds), " ")

	b.WriteString("# fish completion for pdfwatch\n")
	b.WriteString("complete -c pdfwatch -f\n\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c pdfwatch -n '__fish_use_subcommand' -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	b.WriteString("\n")

	for _, c := range cmds {
		cond := "__fish_seen_subcommand_from " + c.Name
		if c.Name == "watch" {
			// Watch flags also apply when no command is given.
			cond = "not __fish_seen_subcommand_from " + names + "; or __fish_seen_subcommand_from watch"
		}
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c pdfwatch -n '%s'", cond)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			fmt.Fprintf(&b, " -l %s -d '%s'", f.Long, fishEscape(f.Desc))
			switch {
			case f.IsDir:
				b.WriteString(" -r -a '(__fish_complete_directories)'")
			case f.FileExts != "":
				b.WriteString(" -r -F")
			case f.TakesArg:
				b.WriteString(" -r")
			}
			b.WriteString("\n")
		}
		switch {
		case c.FileExts != "":
			fmt.Fprintf(&b, "complete -c pdfwatch -n '%s' -F\n", cond)
		case len(c.Words) > 0:
			fmt.Fprintf(&b, "complete -c pdfwatch -n '%s' -a '%s'\n", cond, strings.Join(c.Words, " "))
		}
	}

	return b.String()
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func commandNames(cmds []commandDef) []string {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	return names
}

// flagNames returns "-o --output" style names for f.
func flagNames(f flagDef) []string {
	if f.Short == "" {
		return []string{"--" + f.Long}
	}
	return []string{"-" + f.Short, "--" + f.Long}
}

// uniqueValueFlags returns every value-taking flag once, first definition wins.
func uniqueValueFlags(cmds []commandDef) []flagDef {
	seen := make(map[string]bool)
	var out []flagDef
	for _, c := range cmds {
		for _, f := range c.Flags {
			if !f.TakesArg || seen[f.Long] {
				continue
			}
			seen[f.Long] = true
			out = append(out, f)
		}
	}
	return out
}
