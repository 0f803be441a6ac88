package main

import (
	"errors"
	"io"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestParseBuildFlags - Flag parsing and positional args
// ---------------------------------------------------------------------------

func TestParseBuildFlags(t *testing.T) {
	t.Parallel()

	f, args, err := parseBuildFlags([]string{"articles", "-o", "dist", "-w", "3", "--plain-text", "log,txt", "-q"}, io.Discard)
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}
	if len(args) != 1 || args[0] != "articles" {
		t.Errorf("args = %v, want [articles]", args)
	}
	if f.output != "dist" || f.site.workers != 3 || !f.common.quiet {
		t.Errorf("flags = %+v", f)
	}
	if len(f.site.highlight.plainText) != 2 {
		t.Errorf("plainText = %v", f.site.highlight.plainText)
	}
	if f.site.content.draftPrefixSet {
		t.Error("draftPrefixSet = true without --draft-prefix")
	}
}

// ---------------------------------------------------------------------------
// TestParseFlags_DraftPrefixSet - Explicit empty prefix is recorded
// ---------------------------------------------------------------------------

func TestParseFlags_DraftPrefixSet(t *testing.T) {
	t.Parallel()

	lf, _, err := parseListFlags([]string{"--draft-prefix="}, io.Discard)
	if err != nil {
		t.Fatalf("parseListFlags() error = %v", err)
	}
	if !lf.content.draftPrefixSet || lf.content.draftPrefix != "" {
		t.Errorf("list content = %+v, want set and empty", lf.content)
	}

	rf, _, err := parseRenderFlags([]string{"hello", "--draft-prefix", "TODO"}, io.Discard)
	if err != nil {
		t.Fatalf("parseRenderFlags() error = %v", err)
	}
	if !rf.site.content.draftPrefixSet || rf.site.content.draftPrefix != "TODO" {
		t.Errorf("render content = %+v", rf.site.content)
	}

	wf, _, err := parseWatchFlags([]string{"--draft-prefix="}, io.Discard)
	if err != nil {
		t.Fatalf("parseWatchFlags() error = %v", err)
	}
	if !wf.build.site.content.draftPrefixSet {
		t.Error("watch draftPrefixSet = false")
	}
}

// ---------------------------------------------------------------------------
// TestParseWatchFlags_Debounce - Debounce must be positive
// ---------------------------------------------------------------------------

func TestParseWatchFlags_Debounce(t *testing.T) {
	t.Parallel()

	f, _, err := parseWatchFlags(nil, io.Discard)
	if err != nil {
		t.Fatalf("parseWatchFlags() error = %v", err)
	}
	if f.debounce != defaultDebounce {
		t.Errorf("debounce = %v, want %v", f.debounce, defaultDebounce)
	}

	f, _, err = parseWatchFlags([]string{"--debounce", "1s"}, io.Discard)
	if err != nil || f.debounce != time.Second {
		t.Errorf("parseWatchFlags(1s) = %v, %v", f, err)
	}

	for _, v := range []string{"0s", "-1s"} {
		if _, _, err := parseWatchFlags([]string{"--debounce", v}, io.Discard); !errors.Is(err, ErrUsage) {
			t.Errorf("--debounce %s error = %v, want ErrUsage", v, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestParseFlags_Errors - Unknown flags and help
// ---------------------------------------------------------------------------

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		parse   func() error
		wantErr error
	}{
		{"unknown build flag", func() error { _, _, err := parseBuildFlags([]string{"--bogus"}, io.Discard); return err }, ErrUsage},
		{"bad workers", func() error { _, _, err := parseBuildFlags([]string{"-w", "x"}, io.Discard); return err }, ErrUsage},
		{"unknown doctor flag", func() error { _, err := parseDoctorFlags([]string{"--output", "x"}, io.Discard); return err }, ErrUsage},
		{"help", func() error { _, _, err := parseSpacesFlags([]string{"-h"}, io.Discard); return err }, flag.ErrHelp},
	}

	for _, tt := range tests {
		if err := tt.parse(); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}
