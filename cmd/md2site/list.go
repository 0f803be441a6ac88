package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	md2site "github.com/alnah/go-md2site"
)

// runList prints the published posts, newest first.
func runList(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseListFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: list takes at most one content directory", ErrUsage)
	}

	cfg, err := loadConfig(f.common, env)
	if err != nil {
		return err
	}
	mergeContentFlags(&f.content, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := resolveContentDir(positional, cfg)
	index, err := md2site.BuildIndex(ctx, md2site.NewFSRepository(dir),
		md2site.WithDraftPrefix(cfg.Site.DraftPrefix),
		md2site.WithDisplayFormat(displayFormat(cfg)),
	)
	if err != nil {
		return withContentHint(err, dir)
	}

	if f.json {
		if index == nil {
			index = []md2site.PostSummary{}
		}
		data, err := marshalJSON(index)
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(data)
		return err
	}

	printIndex(env.Stdout, cfg.Site.Title, index, f.common.quiet)
	return nil
}

// printIndex writes one aligned line per post.
func printIndex(w io.Writer, title string, index []md2site.PostSummary, quiet bool) {
	if title != "" && !quiet {
		fmt.Fprintln(w, title)
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range index {
		date := p.DisplayDate
		if date == "" {
			date = p.Date
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", date, p.ID, p.Title)
	}
	_ = tw.Flush()

	if !quiet {
		fmt.Fprintf(w, "\n%d post(s)\n", len(index))
	}
}
