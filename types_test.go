package md2site

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPost_MarshalJSON(t *testing.T) {
	t.Parallel()

	p := Post{
		ID: "hello",
		Metadata: Metadata{
			Date:  "2024-01-01",
			Title: "Hello",
			Params: map[string]any{
				"tags": []any{"go"},
				"id":   "front-matter-id",
			},
		},
		Body:        "# Hello",
		ContentHTML: "<h1>Hello</h1>",
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"id":          "hello",
		"contentHtml": "<h1>Hello</h1>",
		"date":        "2024-01-01",
		"title":       "Hello",
		"tags":        []any{"go"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Post JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestPostSummary_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   PostSummary
		want string
	}{
		{
			name: "without display date",
			in:   PostSummary{ID: "a", Date: "2024-01-01", Title: "A"},
			want: `{"id":"a","date":"2024-01-01","title":"A"}`,
		},
		{
			name: "with display date",
			in:   PostSummary{ID: "a", Date: "2024-01-01", Title: "A", DisplayDate: "January 1, 2024"},
			want: `{"id":"a","date":"2024-01-01","title":"A","displayDate":"January 1, 2024"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}
