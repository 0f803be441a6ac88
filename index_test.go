package md2site

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2site/internal/dateutil"
)

func summaryIDs(s []PostSummary) []string {
	ids := make([]string, len(s))
	for i, p := range s {
		ids[i] = p.ID
	}
	return ids
}

// ---------------------------------------------------------------------------
// TestBuildIndex - Ordering and Draft Filtering
// ---------------------------------------------------------------------------

func TestBuildIndex_OrderAndDrafts(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(
		memPost("a", "Oldest", "2023-01-01"),
		memPost("b", "Tie first", "2024-05-01"),
		memPost("c", "Tie second", "2024-05-01"),
		memPost("d", "WIP: unfinished", "2025-01-01"),
		memPost("e", "Newest", "2024-12-31"),
		memPost("f", "wip lowercase is published", "2022-06-15"),
	)

	got, err := BuildIndex(context.Background(), repo)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	want := []PostSummary{
		{ID: "e", Date: "2024-12-31", Title: "Newest", DisplayDate: "December 31, 2024"},
		{ID: "b", Date: "2024-05-01", Title: "Tie first", DisplayDate: "May 1, 2024"},
		{ID: "c", Date: "2024-05-01", Title: "Tie second", DisplayDate: "May 1, 2024"},
		{ID: "a", Date: "2023-01-01", Title: "Oldest", DisplayDate: "January 1, 2023"},
		{ID: "f", Date: "2022-06-15", Title: "wip lowercase is published", DisplayDate: "June 15, 2022"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildIndex() mismatch (-want +got):\n%s", diff)
	}

	// Drafts stay readable by ID.
	p, err := repo.ReadPost(context.Background(), "d")
	if err != nil || p.Metadata.Title != "WIP: unfinished" {
		t.Errorf("ReadPost(d) = %v, %v; want the draft", p, err)
	}
}

func TestBuildIndex_TiesKeepRepositoryOrder(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(
		memPost("z", "Z", "2024-01-01"),
		memPost("m", "M", "2024-01-01"),
		memPost("a", "A", "2024-01-01"),
	)

	got, err := BuildIndex(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"z", "m", "a"}, summaryIDs(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndex_ParsesMixedLayouts(t *testing.T) {
	t.Parallel()

	// Textual comparison would rank "2024-05-01" above "2024-05-01 09:00".
	repo := newMemRepo(
		memPost("day", "Day", "2024-05-01"),
		memPost("morning", "Morning", "2024-05-01 09:00"),
		memPost("utc", "UTC", "2024-05-01T12:00:00Z"),
		memPost("offset", "Offset", "2024-05-01T23:00:00+09:00"),
	)

	got, err := BuildIndex(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"offset", "utc", "morning", "day"}, summaryIDs(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndex_Options(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(
		memPost("a", "DRAFT idea", "2024-01-01"),
		memPost("b", "WIP shown", "2024-01-02"),
	)

	tests := []struct {
		name    string
		opts    []IndexOption
		wantIDs []string
		display string
	}{
		{
			name:    "custom draft prefix",
			opts:    []IndexOption{WithDraftPrefix("DRAFT")},
			wantIDs: []string{"b"},
			display: "January 2, 2024",
		},
		{
			name:    "no draft prefix",
			opts:    []IndexOption{WithDraftPrefix("")},
			wantIDs: []string{"b", "a"},
			display: "January 2, 2024",
		},
		{
			name:    "european display preset",
			opts:    []IndexOption{WithDraftPrefix(""), WithDisplayFormat("european")},
			wantIDs: []string{"b", "a"},
			display: "02/01/2024",
		},
		{
			name:    "display date disabled",
			opts:    []IndexOption{WithDisplayFormat("")},
			wantIDs: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildIndex(context.Background(), repo, tt.opts...)
			if err != nil {
				t.Fatalf("BuildIndex() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantIDs, summaryIDs(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if got[0].DisplayDate != tt.display {
				t.Errorf("DisplayDate = %q, want %q", got[0].DisplayDate, tt.display)
			}
		})
	}
}

func TestBuildIndex_Errors(t *testing.T) {
	t.Parallel()

	storageErr := errors.New("disk on fire")

	tests := []struct {
		name    string
		repo    *memRepo
		opts    []IndexOption
		wantErr error
	}{
		{
			name:    "missing date",
			repo:    newMemRepo(memPost("a", "Untimed", "")),
			wantErr: ErrParse,
		},
		{
			name:    "invalid date",
			repo:    newMemRepo(memPost("a", "Bad", "01/02/2024")),
			wantErr: ErrParse,
		},
		{
			name:    "missing title",
			repo:    newMemRepo(memPost("a", "", "2024-01-01")),
			wantErr: ErrParse,
		},
		{
			name:    "storage failure",
			repo:    &memRepo{err: storageErr},
			wantErr: storageErr,
		},
		{
			name:    "bad display format",
			repo:    newMemRepo(),
			opts:    []IndexOption{WithDisplayFormat("[YYYY")},
			wantErr: dateutil.ErrInvalidDateFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := BuildIndex(context.Background(), tt.repo, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildIndex() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildIndex_FirstFailureInRepositoryOrder(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(
		memPost("a", "Fine", "2024-01-01"),
		memPost("b", "", "2024-01-01"),
		memPost("c", "Bad", "soon"),
	)

	_, err := BuildIndex(context.Background(), repo)
	if !errors.Is(err, ErrParse) || !strings.Contains(err.Error(), "b: missing title") {
		t.Errorf("BuildIndex() error = %v, want the missing title of b", err)
	}
}

func TestBuildIndex_DraftSkipsDateCheck(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(
		memPost("draft", "WIP no date yet", ""),
		memPost("pub", "Published", "2024-01-01"),
	)

	got, err := BuildIndex(context.Background(), repo)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if diff := cmp.Diff([]string{"pub"}, summaryIDs(got)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndex_FromDisk(t *testing.T) {
	t.Parallel()

	dir := writePosts(t, map[string]string{
		"first-post.md":  post("First", "2020-01-01", "hello"),
		"second-post.md": post("Second", "2021-01-01", "world"),
		"wip-post.md":    post("WIP Third", "2022-01-01", "soon"),
	})

	got, err := BuildIndex(context.Background(), NewFSRepository(dir))
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if diff := cmp.Diff([]string{"second-post", "first-post"}, summaryIDs(got)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestIsDraft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title, prefix string
		want          bool
	}{
		{"WIP thing", "WIP", true},
		{"WIP", "WIP", true},
		{"wip thing", "WIP", false},
		{"A WIP thing", "WIP", false},
		{"WIP thing", "", false},
	}
	for _, tt := range tests {
		if got := IsDraft(tt.title, tt.prefix); got != tt.want {
			t.Errorf("IsDraft(%q, %q) = %v, want %v", tt.title, tt.prefix, got, tt.want)
		}
	}
}
