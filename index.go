package md2site

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-md2site/internal/dateutil"
)

// DefaultDraftPrefix marks posts hidden from the listing.
const DefaultDraftPrefix = "WIP"

type indexConfig struct {
	draftPrefix   string
	displayFormat string
}

// IndexOption configures BuildIndex.
type IndexOption func(*indexConfig)

// WithDraftPrefix sets the title prefix that hides a post from the listing.
// An empty prefix disables draft filtering.
func WithDraftPrefix(prefix string) IndexOption {
	return func(c *indexConfig) {
		c.draftPrefix = prefix
	}
}

// WithDisplayFormat sets the token format used for PostSummary.DisplayDate
// (see dateutil.ParseDateFormat). An empty format leaves DisplayDate empty.
func WithDisplayFormat(format string) IndexOption {
	return func(c *indexConfig) {
		c.displayFormat = format
	}
}

// IsDraft reports whether a title carries the draft prefix.
// The match is case-sensitive.
func IsDraft(title, prefix string) bool {
	return prefix != "" && strings.HasPrefix(title, prefix)
}

// BuildIndex reads every post's metadata and returns the published posts,
// newest first. Posts sharing a date keep their repository order.
// The first post, in repository order, whose metadata cannot be read or is
// invalid fails the whole index; Site.Build skips such posts instead.
func BuildIndex(ctx context.Context, repo PostRepository, opts ...IndexOption) ([]PostSummary, error) {
	scan, err := scanIndex(ctx, repo, opts)
	if err != nil {
		return nil, err
	}
	for _, id := range scan.ids {
		if err := scan.failed[id]; err != nil {
			return nil, err
		}
	}
	return scan.summaries, nil
}

// indexScan is one pass over the repository for the index.
type indexScan struct {
	ids       []string         // every listed post, in repository order
	summaries []PostSummary    // published posts, newest first
	failed    map[string]error // posts left out because of ErrParse or ErrNotFound
}

// postLevel reports whether err concerns a single post only.
func postLevel(err error) bool {
	return errors.Is(err, ErrParse) || errors.Is(err, ErrNotFound)
}

func scanIndex(ctx context.Context, repo PostRepository, opts []IndexOption) (*indexScan, error) {
	cfg := indexConfig{
		draftPrefix:   DefaultDraftPrefix,
		displayFormat: dateutil.DefaultDisplayFormat,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var layout string
	if cfg.displayFormat != "" {
		l, err := dateutil.ParseDateFormat(cfg.displayFormat)
		if err != nil {
			return nil, err
		}
		layout = l
	}

	ids, err := repo.ListPostIDs(ctx)
	if err != nil {
		return nil, err
	}

	type entry struct {
		summary PostSummary
		date    time.Time
	}
	entries := make([]entry, 0, len(ids))
	failed := make(map[string]error)

	for _, id := range ids {
		post, err := repo.ReadPost(ctx, id)
		if err != nil {
			if !postLevel(err) {
				return nil, err
			}
			failed[id] = err
			continue
		}

		meta := post.Metadata
		if meta.Title == "" {
			failed[id] = fmt.Errorf("%w: %s: missing title", ErrParse, id)
			continue
		}
		if IsDraft(meta.Title, cfg.draftPrefix) {
			continue
		}

		date, err := dateutil.ParseDate(meta.Date)
		if err != nil {
			failed[id] = fmt.Errorf("%w: %s: %v", ErrParse, id, err)
			continue
		}

		s := PostSummary{ID: id, Date: meta.Date, Title: meta.Title}
		if layout != "" {
			s.DisplayDate = date.Format(layout)
		}
		entries = append(entries, entry{summary: s, date: date})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return b.date.Compare(a.date)
	})

	summaries := make([]PostSummary, len(entries))
	for i, e := range entries {
		summaries[i] = e.summary
	}
	return &indexScan{ids: ids, summaries: summaries, failed: failed}, nil
}
