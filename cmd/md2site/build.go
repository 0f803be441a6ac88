package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	md2site "github.com/alnah/go-md2site"
	"github.com/alnah/go-md2site/internal/config"
	"github.com/alnah/go-md2site/internal/diagram"
	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/hints"
)

// Output layout under the output directory.
const (
	indexFile     = "index.json"
	postsDir      = "posts"
	highlightFile = "highlight.css"
)

// runBuild renders every post and writes the JSON listing, one JSON file
// per post, and the highlight stylesheet.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: build takes at most one content directory", ErrUsage)
	}

	cfg, err := loadSiteConfig(f.common, &f.site, env)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common.verbose, f.common.quiet)
	defer func() { _ = logger.Sync() }()

	job := buildJob{
		cfg:        cfg,
		contentDir: resolveContentDir(positional, cfg),
		outputDir:  resolveOutputDir(f.output, cfg),
		quiet:      f.common.quiet,
		verbose:    f.common.verbose,
	}
	return job.run(ctx, env, logger)
}

// buildJob is one build of a content directory. watch reruns it.
type buildJob struct {
	cfg        *config.Config
	contentDir string
	outputDir  string
	quiet      bool
	verbose    bool
}

// run builds the site and writes the output. Per-post failures are
// reported and turned into an ErrRender after everything else is written.
func (j buildJob) run(ctx context.Context, env *Environment, logger *zap.Logger) error {
	start := env.Now()

	site, err := newSite(j.cfg, j.contentDir, env, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := site.Close(); err != nil {
			logger.Warn("closing site", zap.Error(err))
		}
	}()

	report, err := site.Build(ctx)
	if err != nil {
		return withContentHint(err, j.contentDir)
	}

	css, err := site.HighlightCSS()
	if err != nil {
		return err
	}

	if err := writeOutput(j.outputDir, report, css); err != nil {
		return err
	}

	failed := printBuildResults(report, j.outputDir, j.quiet, j.verbose, env)
	logger.Debug("build finished",
		zap.Int("posts", len(report.Posts)),
		zap.Int("listed", len(report.Index)),
		zap.Duration("took", env.Now().Sub(start)))

	if failed > 0 {
		return fmt.Errorf("%w: %d post(s) failed", md2site.ErrRender, failed)
	}
	return nil
}

// withContentHint appends the content directory hint to storage errors.
func withContentHint(err error, dir string) error {
	if errors.Is(err, md2site.ErrStorage) {
		return fmt.Errorf("%w%s", err, hints.ForContentDir(dir))
	}
	return err
}

// marshalJSON encodes v as indented JSON without HTML escaping.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeOutput writes the build artifacts into dir.
// Files of failed posts are left untouched; files of posts that no longer
// exist are removed.
func writeOutput(dir string, report *md2site.BuildReport, css string) error {
	postDir := filepath.Join(dir, postsDir)
	if err := os.MkdirAll(postDir, 0o750); err != nil {
		return fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}

	index := report.Index
	if index == nil {
		index = []md2site.PostSummary{}
	}
	data, err := marshalJSON(index)
	if err != nil {
		return fmt.Errorf("%w: encoding index: %v", ErrWriteOutput, err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, indexFile), data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	keep := make(map[string]bool, len(report.Posts))
	for _, r := range report.Posts {
		keep[r.ID+".json"] = true
		if r.Err != nil {
			continue
		}
		data, err := marshalJSON(r.Post)
		if err != nil {
			return fmt.Errorf("%w: encoding %s: %v", ErrWriteOutput, r.ID, err)
		}
		if err := fileutil.WriteFileAtomic(filepath.Join(postDir, r.ID+".json"), data); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}

	if err := pruneStale(postDir, keep); err != nil {
		return err
	}

	if err := fileutil.WriteFileAtomic(filepath.Join(dir, highlightFile), []byte(css)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// pruneStale removes post files whose names are not in keep.
func pruneStale(postDir string, keep map[string]bool) error {
	entries, err := os.ReadDir(postDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(postDir, name)); err != nil {
			return fmt.Errorf("%w: removing stale %s: %v", ErrWriteOutput, name, err)
		}
	}
	return nil
}

// printBuildResults outputs per-post results and returns the failure count.
func printBuildResults(report *md2site.BuildReport, outputDir string, quiet, verbose bool, env *Environment) int {
	failed := 0
	for _, r := range report.Posts {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.ID, r.Err, renderHint(r.Err))
			continue
		}

		if quiet {
			continue
		}

		out := filepath.Join(outputDir, postsDir, r.ID+".json")
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.ID, out, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", out)
		}
	}

	if !quiet {
		fmt.Fprintf(env.Stdout, "Created %s (%d listed)\n", filepath.Join(outputDir, indexFile), len(report.Index))
		if len(report.Posts) > 1 {
			fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(report.Posts)-failed, failed)
		}
	}
	return failed
}

// renderHint suggests a fix for engine failures.
func renderHint(err error) string {
	switch {
	case errors.Is(err, diagram.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	}
	return ""
}
