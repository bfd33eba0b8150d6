package logserve_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"conveyor/internal/logserve"
	"conveyor/internal/logsource"
)

// scriptedReader replays a fixed sequence of chunks and records every
// metadata value it was called with.
type scriptedReader struct {
	chunks [][]string
	metas  []logsource.Metadata
	calls  []logsource.Metadata
	err    error
}

func (r *scriptedReader) Read(_ context.Context, _ logsource.Source, meta logsource.Metadata) ([]string, logsource.Metadata, error) {
	r.calls = append(r.calls, meta)
	if r.err != nil {
		return nil, meta, r.err
	}
	idx := len(r.calls) - 1
	if idx >= len(r.chunks) {
		return nil, logsource.Metadata{Offset: meta.Offset, EndOfLog: true}, nil
	}
	return r.chunks[idx], r.metas[idx], nil
}

func testSource() logsource.Source {
	return logsource.Source{
		RunID:       "d",
		TaskID:      "t",
		LogicalDate: time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC),
		Attempt:     1,
	}
}

func TestFetchChunkPerformsExactlyOneRead(t *testing.T) {
	reader := &scriptedReader{
		chunks: [][]string{{"1st line"}, {"2nd line"}},
		metas: []logsource.Metadata{
			{Offset: 9},
			{Offset: 18, EndOfLog: true},
		},
	}
	engine := logserve.New(reader, 0, 0)

	lines, meta, err := engine.FetchChunk(context.Background(), testSource(), logsource.Metadata{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(reader.calls) != 1 {
		t.Fatalf("engine issued %d reads in pagination mode", len(reader.calls))
	}
	if len(lines) != 1 || lines[0] != "1st line" {
		t.Fatalf("lines = %#v", lines)
	}
	if meta != (logsource.Metadata{Offset: 9}) {
		t.Fatalf("metadata altered: %+v", meta)
	}
}

func TestAggregateStopsAtEndOfLog(t *testing.T) {
	// Four chunks scripted, the third carries end_of_log. The engine must
	// emit chunks 1-3 and never request the fourth.
	reader := &scriptedReader{
		chunks: [][]string{
			{"1st line"},
			{"2nd line"},
			{"3rd line"},
			{"should never be read"},
		},
		metas: []logsource.Metadata{
			{Offset: 9},
			{Offset: 18},
			{Offset: 27, EndOfLog: true},
			{Offset: 48, EndOfLog: true},
		},
	}
	engine := logserve.New(reader, 0, 0)

	var out strings.Builder
	if err := engine.Aggregate(context.Background(), testSource(), &out); err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	content := out.String()
	for _, want := range []string{"1st line", "2nd line", "3rd line"} {
		if !strings.Contains(content, want) {
			t.Fatalf("aggregated content missing %q: %q", want, content)
		}
	}
	if strings.Contains(content, "should never be read") {
		t.Fatalf("engine read past end_of_log: %q", content)
	}
	if len(reader.calls) != 3 {
		t.Fatalf("engine issued %d reads, want 3", len(reader.calls))
	}
}

func TestAggregateFeedsMetadataBack(t *testing.T) {
	reader := &scriptedReader{
		chunks: [][]string{{"a"}, {"b"}},
		metas: []logsource.Metadata{
			{Offset: 2},
			{Offset: 4, EndOfLog: true},
		},
	}
	engine := logserve.New(reader, 0, 0)

	var out strings.Builder
	if err := engine.Aggregate(context.Background(), testSource(), &out); err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	want := []logsource.Metadata{{}, {Offset: 2}}
	if len(reader.calls) != len(want) {
		t.Fatalf("calls = %+v", reader.calls)
	}
	for i, meta := range want {
		if reader.calls[i] != meta {
			t.Fatalf("call %d metadata = %+v, want %+v", i, reader.calls[i], meta)
		}
	}
	if out.String() != "a\nb\n" {
		t.Fatalf("content = %q, want ordered concatenation", out.String())
	}
}

func TestAggregateEmptyLogYieldsEmptyContent(t *testing.T) {
	reader := &scriptedReader{
		chunks: [][]string{nil},
		metas:  []logsource.Metadata{{EndOfLog: true}},
	}
	engine := logserve.New(reader, 0, 0)

	var out strings.Builder
	if err := engine.Aggregate(context.Background(), testSource(), &out); err != nil {
		t.Fatalf("empty log must not fail: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("content = %q, want empty", out.String())
	}
}

func TestAggregateEnforcesReadCap(t *testing.T) {
	// A reader that never signals end_of_log must hit the cap, not loop.
	endless := &endlessReader{}
	engine := logserve.New(endless, 10, 0)

	var out strings.Builder
	err := engine.Aggregate(context.Background(), testSource(), &out)
	if !errors.Is(err, logserve.ErrLogTooLarge) {
		t.Fatalf("error = %v, want ErrLogTooLarge", err)
	}
	if endless.reads > 10 {
		t.Fatalf("engine issued %d reads past its cap", endless.reads)
	}
}

func TestAggregateEnforcesByteCap(t *testing.T) {
	endless := &endlessReader{}
	engine := logserve.New(endless, 0, 64)

	var out strings.Builder
	err := engine.Aggregate(context.Background(), testSource(), &out)
	if !errors.Is(err, logserve.ErrLogTooLarge) {
		t.Fatalf("error = %v, want ErrLogTooLarge", err)
	}
}

func TestAggregateSurfacesReaderFailure(t *testing.T) {
	boom := errors.New("storage offline")
	reader := &scriptedReader{err: boom}
	engine := logserve.New(reader, 0, 0)

	var out strings.Builder
	err := engine.Aggregate(context.Background(), testSource(), &out)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped reader failure", err)
	}
	if len(reader.calls) != 1 {
		t.Fatalf("engine retried a failed read: %d calls", len(reader.calls))
	}
}

func TestAttachmentName(t *testing.T) {
	engine := logserve.New(&scriptedReader{}, 0, 0)
	if got := engine.AttachmentName(testSource()); got != "d/t/2017-09-01T00:00:00/1.log" {
		t.Fatalf("attachment name = %q", got)
	}
}

type endlessReader struct {
	reads int
}

func (r *endlessReader) Read(_ context.Context, _ logsource.Source, meta logsource.Metadata) ([]string, logsource.Metadata, error) {
	r.reads++
	return []string{"more output"}, logsource.Metadata{Offset: meta.Offset + 12}, nil
}
