package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build       Render every post to JSON")
	fmt.Fprintln(w, "  list        List published posts, newest first")
	fmt.Fprintln(w, "  render      Render one post to HTML")
	fmt.Fprintln(w, "  watch       Rebuild when posts change")
	fmt.Fprintln(w, "  doctor      Check the environment")
	fmt.Fprintln(w, "  spaces      Space out Han and Latin text in a file")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2site help <command>' for details on a specific command.")
}

// printCommonFlags prints the flags every content command shares.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timings")
}

// printContentFlags prints the listing flags.
func printContentFlags(w io.Writer) {
	fmt.Fprintln(w, "Listing:")
	fmt.Fprintln(w, "      --draft-prefix <s>    Title prefix of unlisted drafts (\"\" = list all)")
	fmt.Fprintln(w, "      --date-format <s>     Display date format")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                            Presets (case-insensitive): iso, european, us, long")
	fmt.Fprintln(w, "                            Use [text] to escape literals: [Posted] MMMM D")
}

// printSiteFlags prints every flag that shapes rendering.
func printSiteFlags(w io.Writer) {
	fmt.Fprintln(w, "  -w, --workers <n>         Posts rendered in parallel (0 = auto)")
	fmt.Fprintln(w)
	printContentFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "  -e, --engine <path>       Chromium binary for Mermaid diagrams")
	fmt.Fprintln(w, "      --search-root <dir>   Directory searched for ms-playwright/chromium-*")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-diagram timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --pool-size <n>       Max concurrent browsers (0 = auto)")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chromium sandbox")
	fmt.Fprintln(w, "      --no-diagrams         Leave diagram fences as code blocks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Highlighting:")
	fmt.Fprintln(w, "      --highlight-style <s> Chroma style for highlight.css")
	fmt.Fprintln(w, "      --plain-text <list>   Fence languages left unhighlighted")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assets:")
	fmt.Fprintln(w, "      --asset-base <url>    Prefix for relative images and links")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom template directory")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site build [content-dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render every post and write index.json, posts/<id>.json and highlight.css.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  content-dir    Directory of .md posts (default from config: posts)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default from config: public)")
	printSiteFlags(w)
}

// printListUsage prints usage for the list command.
func printListUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site list [content-dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List published posts, newest first. Drafts are skipped.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print the listing as JSON")
	fmt.Fprintln(w)
	printContentFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site render <id> [content-dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render one post to an HTML fragment. Drafts render too.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  id             Post file name without .md")
	fmt.Fprintln(w, "  content-dir    Directory of .md posts (default from config: posts)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print the post as JSON")
	printSiteFlags(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site watch [content-dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build once, then rebuild whenever a post is written, added or removed.")
	fmt.Fprintln(w, "Stop with Ctrl-C.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default from config: public)")
	fmt.Fprintln(w, "      --debounce <dur>      Quiet period before a rebuild (default 300ms)")
	printSiteFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check config, content directory, Chromium and sandbox settings.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -e, --engine <path>       Chromium binary to check")
	fmt.Fprintln(w, "      --search-root <dir>   Directory searched for ms-playwright/chromium-*")
	fmt.Fprintln(w, "      --json                Print the report as JSON")
}

// printSpacesUsage prints usage for the spaces command.
func printSpacesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site spaces <file.md> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Insert a space between Han characters and adjacent Latin letters.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default stdout)")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "list":
		printListUsage(env.Stdout)
	case "render":
		printRenderUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "spaces":
		printSpacesUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2site version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2site help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
