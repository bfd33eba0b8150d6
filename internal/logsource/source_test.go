package logsource_test

import (
	"path/filepath"
	"testing"
	"time"

	"conveyor/internal/logsource"
)

func TestRelativePathReplacesColons(t *testing.T) {
	src := logsource.Source{
		RunID:       "nightly",
		TaskID:      "extract",
		LogicalDate: time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC),
		Attempt:     2,
	}
	want := filepath.Join("nightly", "extract", "2017-09-01T00.00.00", "2.log")
	if got := src.RelativePath(); got != want {
		t.Fatalf("relative path = %q, want %q", got, want)
	}
}

func TestAttachmentNameKeepsColons(t *testing.T) {
	src := logsource.Source{
		RunID:       "d",
		TaskID:      "t",
		LogicalDate: time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC),
		Attempt:     1,
	}
	if got := src.AttachmentName(); got != "d/t/2017-09-01T00:00:00/1.log" {
		t.Fatalf("attachment name = %q", got)
	}
}

func TestValidate(t *testing.T) {
	base := logsource.Source{
		RunID:       "r",
		TaskID:      "t",
		LogicalDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Attempt:     1,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid source rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*logsource.Source)
	}{
		{"missing run", func(s *logsource.Source) { s.RunID = " " }},
		{"missing task", func(s *logsource.Source) { s.TaskID = "" }},
		{"zero date", func(s *logsource.Source) { s.LogicalDate = time.Time{} }},
		{"zero attempt", func(s *logsource.Source) { s.Attempt = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := base
			tc.mutate(&src)
			if err := src.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestParseLogicalDate(t *testing.T) {
	cases := []struct {
		input string
		want  time.Time
	}{
		{"2017-09-01T00:00:00", time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"2017-09-01T00:00:00Z", time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"2017-09-01", time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := logsource.ParseLogicalDate(tc.input)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q = %v, want %v", tc.input, got, tc.want)
		}
	}

	if _, err := logsource.ParseLogicalDate("not-a-date"); err == nil {
		t.Fatal("expected error for malformed date")
	}
	if _, err := logsource.ParseLogicalDate(""); err == nil {
		t.Fatal("expected error for empty date")
	}
}

func TestParseMetadata(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want logsource.Metadata
	}{
		{"absent", "", logsource.Metadata{}},
		{"null literal", "null", logsource.Metadata{}},
		{"cursor", `{"offset": 42, "end_of_log": false}`, logsource.Metadata{Offset: 42}},
		{"terminal", `{"offset": 7, "end_of_log": true}`, logsource.Metadata{Offset: 7, EndOfLog: true}},
		{"malformed", `{offset:`, logsource.Metadata{}},
		{"negative offset", `{"offset": -5}`, logsource.Metadata{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := logsource.ParseMetadata(tc.raw); got != tc.want {
				t.Fatalf("ParseMetadata(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}
