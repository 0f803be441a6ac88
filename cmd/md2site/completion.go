package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

var shells = []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)}

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// argKind is what a command's positional arguments complete to.
type argKind int

const (
	argNone argKind = iota
	argDir
	argFile
	argValues
)

// commandDef describes a command for completion.
type commandDef struct {
	Name     string
	Desc     string
	Flags    []flagDef
	Args     argKind
	ArgGlob  string   // for argFile
	ArgValue []string // for argValues
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
func flagCompletionMeta() map[string]completionMeta {
	return map[string]completionMeta{
		// Enum flags
		"highlight-style": {Values: styles.Names()},
		"date-format":     {Values: []string{"iso", "european", "us", "long"}},

		// File flags with glob patterns
		"config": {FileGlob: "*.yaml,*.yml"},
		"engine": {FileGlob: "*"},

		// Directory flags
		"output":      {IsDir: true},
		"search-root": {IsDir: true},
		"asset-path":  {IsDir: true},
	}
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	meta := flagCompletionMeta()
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int64", "uint", "uint64":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if m, ok := meta[f.Name]; ok {
			switch {
			case len(m.Values) > 0:
				fd.Type = flagEnum
				fd.Values = m.Values
			case m.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = m.FileGlob
			case m.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSets.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:  "build",
			Desc:  "Render every post to JSON",
			Flags: extractFlagsFromFlagSet(buildBuildFlagSet(io.Discard, &buildFlags{})),
			Args:  argDir,
		},
		{
			Name:  "list",
			Desc:  "List published posts",
			Flags: extractFlagsFromFlagSet(buildListFlagSet(io.Discard, &listFlags{})),
			Args:  argDir,
		},
		{
			Name:  "render",
			Desc:  "Render one post to HTML",
			Flags: extractFlagsFromFlagSet(buildRenderFlagSet(io.Discard, &renderFlags{})),
			Args:  argDir,
		},
		{
			Name:  "watch",
			Desc:  "Rebuild when posts change",
			Flags: extractFlagsFromFlagSet(buildWatchFlagSet(io.Discard, &watchFlags{})),
			Args:  argDir,
		},
		{
			Name:  "doctor",
			Desc:  "Check the environment",
			Flags: extractFlagsFromFlagSet(buildDoctorFlagSet(io.Discard, &doctorFlags{})),
		},
		{
			Name:    "spaces",
			Desc:    "Space out Han and Latin text",
			Flags:   extractFlagsFromFlagSet(buildSpacesFlagSet(io.Discard, &spacesFlags{})),
			Args:    argFile,
			ArgGlob: "*.md",
		},
		{
			Name:     "completion",
			Desc:     "Generate shell completion script",
			Args:     argValues,
			ArgValue: shells,
		},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command", Args: argValues, ArgValue: commands},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var gen func(*strings.Builder, []commandDef)
	switch shell {
	case ShellBash:
		gen = generateBash
	case ShellZsh:
		gen = generateZsh
	case ShellFish:
		gen = generateFish
	case ShellPowerShell:
		gen = generatePowerShell
	default:
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedShell, shell, strings.Join(shells, ", "))
	}

	var b strings.Builder
	gen(&b, getCommands())
	_, err := io.WriteString(w, b.String())
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// globs splits "*.yaml,*.yml" into its patterns.
func globs(pattern string) []string {
	return strings.Split(pattern, ",")
}

// flagNames returns "--long" and "-s" forms.
func flagNames(f flagDef) []string {
	names := []string{"--" + f.Long}
	if f.Short != "" {
		names = append(names, "-"+f.Short)
	}
	return names
}

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// ---- bash

func generateBash(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# bash completion for md2site\n\n")
	b.WriteString("_md2site_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(b, "        COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(commandNames(cmds), " "))
	b.WriteString("        return\n    fi\n\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "    %s)\n", c.Name)

		var valued []flagDef
		var all []string
		for _, f := range c.Flags {
			all = append(all, flagNames(f)...)
			if f.Type == flagEnum || f.Type == flagFile || f.Type == flagDir {
				valued = append(valued, f)
			}
		}

		if len(valued) > 0 {
			b.WriteString("        case \"$prev\" in\n")
			for _, f := range valued {
				fmt.Fprintf(b, "        %s)\n", strings.Join(flagNames(f), "|"))
				switch f.Type {
				case flagEnum:
					fmt.Fprintf(b, "            COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(f.Values, " "))
				case flagDir:
					b.WriteString("            COMPREPLY=( $(compgen -d -- \"$cur\") )\n")
				case flagFile:
					b.WriteString(bashFileReply(f.FileGlob))
				}
				b.WriteString("            return\n            ;;\n")
			}
			b.WriteString("        esac\n")
		}

		if len(all) > 0 {
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(b, "            COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(all, " "))
			b.WriteString("            return\n        fi\n")
		}

		switch c.Args {
		case argDir:
			b.WriteString("        COMPREPLY=( $(compgen -d -- \"$cur\") )\n")
		case argFile:
			b.WriteString(strings.Replace(bashFileReply(c.ArgGlob), "            ", "        ", 1))
		case argValues:
			fmt.Fprintf(b, "        COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(c.ArgValue, " "))
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n}\n\n")
	b.WriteString("complete -o filenames -F _md2site_completions md2site\n")
}

// bashFileReply completes directories plus files matching pattern.
func bashFileReply(pattern string) string {
	if pattern == "*" {
		return "            COMPREPLY=( $(compgen -f -- \"$cur\") )\n"
	}
	return fmt.Sprintf("            COMPREPLY=( $(compgen -d -- \"$cur\") $(compgen -f -X '!@(%s)' -- \"$cur\") )\n",
		strings.Join(globs(pattern), "|"))
}

// ---- zsh

// zshEscape makes s safe inside a single-quoted _arguments description.
func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:")
	return r.Replace(s)
}

func zshAction(f flagDef) string {
	switch f.Type {
	case flagBool:
		return ""
	case flagEnum:
		return fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagDir:
		return fmt.Sprintf(":%s:_files -/", f.Long)
	case flagFile:
		if f.FileGlob == "*" {
			return fmt.Sprintf(":%s:_files", f.Long)
		}
		return fmt.Sprintf(":%s:_files -g \"%s\"", f.Long, strings.Join(globs(f.FileGlob), "|"))
	default:
		return fmt.Sprintf(":%s: ", f.Long)
	}
}

func generateZsh(b *strings.Builder, cmds []commandDef) {
	b.WriteString("#compdef md2site\n\n")
	b.WriteString("_md2site() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n    fi\n\n")
	b.WriteString("    case \"$words[2]\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "    %s)\n", c.Name)
		b.WriteString("        _arguments -s \\\n")
		for _, f := range c.Flags {
			desc := zshEscape(f.Desc)
			action := zshAction(f)
			if f.Short != "" {
				fmt.Fprintf(b, "            '(-%s --%s)'{-%s,--%s}'[%s]%s' \\\n",
					f.Short, f.Long, f.Short, f.Long, desc, action)
			} else {
				fmt.Fprintf(b, "            '--%s[%s]%s' \\\n", f.Long, desc, action)
			}
		}
		switch c.Args {
		case argDir:
			b.WriteString("            '*:directory:_files -/'\n")
		case argFile:
			fmt.Fprintf(b, "            '*:file:_files -g \"%s\"'\n", strings.Join(globs(c.ArgGlob), "|"))
		case argValues:
			fmt.Fprintf(b, "            '1:value:(%s)'\n", strings.Join(c.ArgValue, " "))
		default:
			b.WriteString("            && return\n")
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n}\n\n")
	b.WriteString("compdef _md2site md2site\n")
}

// ---- fish

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

func generateFish(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# fish completion for md2site\n\n")
	b.WriteString("function __fish_md2site_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_md2site_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")
	b.WriteString("complete -c md2site -f\n\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "complete -c md2site -n __fish_md2site_needs_command -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("-n '__fish_md2site_using_command %s'", c.Name)
		b.WriteString("\n")
		for _, f := range c.Flags {
			fmt.Fprintf(b, "complete -c md2site %s", cond)
			if f.Short != "" {
				fmt.Fprintf(b, " -s %s", f.Short)
			}
			fmt.Fprintf(b, " -l %s -d '%s'", f.Long, fishEscape(f.Desc))
			switch f.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(b, " -x -a '%s'", strings.Join(f.Values, " "))
			case flagDir:
				b.WriteString(" -x -a '(__fish_complete_directories)'")
			case flagFile:
				b.WriteString(" -r -F")
			default:
				b.WriteString(" -x")
			}
			b.WriteString("\n")
		}
		switch c.Args {
		case argDir:
			fmt.Fprintf(b, "complete -c md2site %s -a '(__fish_complete_directories)'\n", cond)
		case argFile:
			fmt.Fprintf(b, "complete -c md2site %s -F\n", cond)
		case argValues:
			fmt.Fprintf(b, "complete -c md2site %s -a '%s'\n", cond, strings.Join(c.ArgValue, " "))
		}
	}
}

// ---- powershell

func generatePowerShell(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# PowerShell completion for md2site\n\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName md2site -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $commands = @{\n")
	for _, c := range cmds {
		var words []string
		for _, f := range c.Flags {
			words = append(words, flagNames(f)...)
		}
		if c.Args == argValues {
			words = append(words, c.ArgValue...)
		}
		slices.Sort(words)
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = "'" + w + "'"
		}
		fmt.Fprintf(b, "        '%s' = @(%s)\n", c.Name, strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	b.WriteString("    if ($elements.Count -le 1 -or ($elements.Count -eq 2 -and $wordToComplete -ne '')) {\n")
	b.WriteString("        $commands.Keys | Where-Object { $_ -like \"$wordToComplete*\" } | Sort-Object | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $words = $commands[$elements[1]]\n")
	b.WriteString("    if ($null -eq $words) { return }\n")
	b.WriteString("    $words | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(md2site completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(md2site completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    md2site completion fish > ~/.config/fish/completions/md2site.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    md2site completion powershell | Out-String | Invoke-Expression")
}
