package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// defaultDebounce groups bursts of editor writes into one rebuild.
const defaultDebounce = 300 * time.Millisecond

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// contentFlags holds listing flags.
type contentFlags struct {
	draftPrefix    string
	draftPrefixSet bool // --draft-prefix="" disables filtering
	dateFormat     string
}

// engineFlags holds diagram engine flags.
type engineFlags struct {
	path       string
	searchRoot string
	timeout    string
	poolSize   int
	noSandbox  bool
	noDiagrams bool
}

// highlightFlags holds code highlighting flags.
type highlightFlags struct {
	style     string
	plainText []string
}

// assetFlags holds asset-related flags.
type assetFlags struct {
	base string // URL prefix for relative links
	path string // custom template directory
}

// siteFlags holds every flag that shapes a Site.
type siteFlags struct {
	content   contentFlags
	engine    engineFlags
	highlight highlightFlags
	assets    assetFlags
	workers   int
}

// buildFlags holds flags for the build command.
type buildFlags struct {
	common commonFlags
	site   siteFlags
	output string
}

// listFlags holds flags for the list command.
type listFlags struct {
	common  commonFlags
	content contentFlags
	json    bool
}

// renderFlags holds flags for the render command.
type renderFlags struct {
	common commonFlags
	site   siteFlags
	json   bool
}

// watchFlags holds flags for the watch command.
type watchFlags struct {
	build    buildFlags
	debounce time.Duration
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	engine engineFlags
	json   bool
}

// spacesFlags holds flags for the spaces command.
type spacesFlags struct {
	output string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timings")
}

// addContentFlags adds listing flags to a FlagSet.
func addContentFlags(fs *flag.FlagSet, f *contentFlags) {
	fs.StringVar(&f.draftPrefix, "draft-prefix", "", "title prefix of unlisted drafts (default \"WIP\")")
	fs.StringVar(&f.dateFormat, "date-format", "", "display date format (tokens or preset)")
}

// addEngineFlags adds diagram engine flags to a FlagSet.
func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVarP(&f.path, "engine", "e", "", "Chromium binary for Mermaid diagrams")
	fs.StringVar(&f.searchRoot, "search-root", "", "directory searched for ms-playwright/chromium-*")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-diagram timeout (e.g., 30s, 2m)")
	fs.IntVar(&f.poolSize, "pool-size", 0, "max concurrent browsers (0 = auto)")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chromium sandbox (containers)")
	fs.BoolVar(&f.noDiagrams, "no-diagrams", false, "leave diagram fences as code blocks")
}

// addHighlightFlags adds highlighting flags to a FlagSet.
func addHighlightFlags(fs *flag.FlagSet, f *highlightFlags) {
	fs.StringVar(&f.style, "highlight-style", "", "chroma style for highlight.css")
	fs.StringSliceVar(&f.plainText, "plain-text", nil, "fence languages left unhighlighted")
}

// addAssetFlags adds asset flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.base, "asset-base", "", "URL prefix for relative images and links")
	fs.StringVar(&f.path, "asset-path", "", "custom template directory")
}

// addSiteFlags adds every Site flag group to a FlagSet.
func addSiteFlags(fs *flag.FlagSet, f *siteFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "posts rendered in parallel (0 = auto)")
	addContentFlags(fs, &f.content)
	addEngineFlags(fs, &f.engine)
	addHighlightFlags(fs, &f.highlight)
	addAssetFlags(fs, &f.assets)
}

// newFlagSet creates a FlagSet that prints usage to w on -h.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parse runs fs.Parse and tags failures as usage errors.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// buildBuildFlagSet registers the build flags on a new FlagSet.
func buildBuildFlagSet(w io.Writer, f *buildFlags) *flag.FlagSet {
	fs := newFlagSet("build", w, printBuildUsage)
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	addCommonFlags(fs, &f.common)
	addSiteFlags(fs, &f.site)
	return fs
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string, w io.Writer) (*buildFlags, []string, error) {
	f := &buildFlags{}
	fs := buildBuildFlagSet(w, f)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	f.site.content.draftPrefixSet = fs.Changed("draft-prefix")
	return f, fs.Args(), nil
}

// buildListFlagSet registers the list flags on a new FlagSet.
func buildListFlagSet(w io.Writer, f *listFlags) *flag.FlagSet {
	fs := newFlagSet("list", w, printListUsage)
	fs.BoolVar(&f.json, "json", false, "print the listing as JSON")
	addCommonFlags(fs, &f.common)
	addContentFlags(fs, &f.content)
	return fs
}

// parseListFlags parses list command flags and returns positional args.
func parseListFlags(args []string, w io.Writer) (*listFlags, []string, error) {
	f := &listFlags{}
	fs := buildListFlagSet(w, f)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	f.content.draftPrefixSet = fs.Changed("draft-prefix")
	return f, fs.Args(), nil
}

// buildRenderFlagSet registers the render flags on a new FlagSet.
func buildRenderFlagSet(w io.Writer, f *renderFlags) *flag.FlagSet {
	fs := newFlagSet("render", w, printRenderUsage)
	fs.BoolVar(&f.json, "json", false, "print the post as JSON")
	addCommonFlags(fs, &f.common)
	addSiteFlags(fs, &f.site)
	return fs
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, w io.Writer) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := buildRenderFlagSet(w, f)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	f.site.content.draftPrefixSet = fs.Changed("draft-prefix")
	return f, fs.Args(), nil
}

// buildWatchFlagSet registers the watch flags on a new FlagSet.
func buildWatchFlagSet(w io.Writer, f *watchFlags) *flag.FlagSet {
	fs := newFlagSet("watch", w, printWatchUsage)
	fs.StringVarP(&f.build.output, "output", "o", "", "output directory")
	fs.DurationVar(&f.debounce, "debounce", defaultDebounce, "quiet period before a rebuild")
	addCommonFlags(fs, &f.build.common)
	addSiteFlags(fs, &f.build.site)
	return fs
}

// parseWatchFlags parses watch command flags and returns positional args.
func parseWatchFlags(args []string, w io.Writer) (*watchFlags, []string, error) {
	f := &watchFlags{}
	fs := buildWatchFlagSet(w, f)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	if f.debounce <= 0 {
		return nil, nil, fmt.Errorf("%w: --debounce must be positive", ErrUsage)
	}
	f.build.site.content.draftPrefixSet = fs.Changed("draft-prefix")
	return f, fs.Args(), nil
}

// buildDoctorFlagSet registers the doctor flags on a new FlagSet.
func buildDoctorFlagSet(w io.Writer, f *doctorFlags) *flag.FlagSet {
	fs := newFlagSet("doctor", w, printDoctorUsage)
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	fs.StringVarP(&f.common.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.engine.path, "engine", "e", "", "Chromium binary to check")
	fs.StringVar(&f.engine.searchRoot, "search-root", "", "directory searched for ms-playwright/chromium-*")
	return fs
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, w io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	if err := parse(buildDoctorFlagSet(w, f), args); err != nil {
		return nil, err
	}
	return f, nil
}

// buildSpacesFlagSet registers the spaces flags on a new FlagSet.
func buildSpacesFlagSet(w io.Writer, f *spacesFlags) *flag.FlagSet {
	fs := newFlagSet("spaces", w, printSpacesUsage)
	fs.StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	return fs
}

// parseSpacesFlags parses spaces command flags and returns positional args.
func parseSpacesFlags(args []string, w io.Writer) (*spacesFlags, []string, error) {
	f := &spacesFlags{}
	fs := buildSpacesFlagSet(w, f)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
