package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	md2site "github.com/alnah/go-md2site"
	"github.com/alnah/go-md2site/internal/hints"
)

// runRender renders one post by ID and prints its HTML or JSON.
func runRender(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("%w: render requires a post id", ErrUsage)
	}
	if len(positional) > 2 {
		return fmt.Errorf("%w: render takes a post id and an optional content directory", ErrUsage)
	}

	cfg, err := loadSiteConfig(f.common, &f.site, env)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common.verbose, f.common.quiet)
	defer func() { _ = logger.Sync() }()

	id := positional[0]
	dir := resolveContentDir(positional[1:], cfg)

	site, err := newSite(cfg, dir, env, logger)
	if err != nil {
		return err
	}
	defer func() { _ = site.Close() }()

	post, err := site.Post(ctx, id)
	if err != nil {
		return withPostHint(ctx, err, dir)
	}

	if f.json {
		data, err := marshalJSON(post)
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(data)
		return err
	}
	_, err = io.WriteString(env.Stdout, post.ContentHTML)
	return err
}

// withPostHint lists the available IDs when a lookup misses.
func withPostHint(ctx context.Context, err error, dir string) error {
	if !errors.Is(err, md2site.ErrNotFound) || errors.Is(err, md2site.ErrInvalidID) {
		return withContentHint(err, dir)
	}
	ids, listErr := md2site.NewFSRepository(dir).ListPostIDs(ctx)
	if listErr != nil {
		return err
	}
	return fmt.Errorf("%w%s", err, hints.ForPostNotFound(ids))
}
