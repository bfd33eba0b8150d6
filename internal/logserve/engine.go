package logserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"conveyor/internal/logread"
	"conveyor/internal/logsource"
)

// ErrLogTooLarge marks a download that exceeded the engine's aggregation
// caps. The caller gets this failure instead of a silently truncated file.
var ErrLogTooLarge = errors.New("log exceeds download limits")

const (
	defaultMaxReads         = 10000
	defaultMaxDownloadBytes = 512 << 20
)

// Engine serves attempt logs through a pluggable reader. All calls execute
// synchronously in the invoking request context; the engine keeps no state
// between calls.
type Engine struct {
	reader   logread.Reader
	maxReads int
	maxBytes int64
}

// New builds an engine. Non-positive caps select defaults; the caps bound
// the aggregation loop even though well-formed readers terminate on their
// own via the end_of_log contract.
func New(reader logread.Reader, maxReads int, maxBytes int64) *Engine {
	if maxReads <= 0 {
		maxReads = defaultMaxReads
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxDownloadBytes
	}
	return &Engine{reader: reader, maxReads: maxReads, maxBytes: maxBytes}
}

// FetchChunk performs exactly one read and returns its chunk and metadata
// unchanged. The engine never loops here; the client re-polls with the
// returned metadata until it observes end_of_log.
func (e *Engine) FetchChunk(ctx context.Context, src logsource.Source, meta logsource.Metadata) ([]string, logsource.Metadata, error) {
	lines, out, err := e.reader.Read(ctx, src, meta)
	if err != nil {
		return nil, out, fmt.Errorf("serve log chunk for %s: %w", src, err)
	}
	return lines, out, nil
}

// Aggregate streams the complete log to w by looping the cursor protocol:
// each returned metadata feeds the next read, chunks are written in read
// order, and the loop stops at the first end_of_log observation without
// issuing any further read. An empty first chunk that already signals
// end_of_log yields empty content, not an error.
func (e *Engine) Aggregate(ctx context.Context, src logsource.Source, w io.Writer) error {
	var (
		meta    logsource.Metadata
		written int64
	)
	for reads := 0; ; reads++ {
		if reads >= e.maxReads {
			return fmt.Errorf("aggregate log for %s after %d reads: %w", src, reads, ErrLogTooLarge)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		lines, next, err := e.reader.Read(ctx, src, meta)
		if err != nil {
			return fmt.Errorf("aggregate log for %s: %w", src, err)
		}

		if len(lines) > 0 {
			chunk := strings.Join(lines, "\n") + "\n"
			written += int64(len(chunk))
			if written > e.maxBytes {
				return fmt.Errorf("aggregate log for %s beyond %d bytes: %w", src, e.maxBytes, ErrLogTooLarge)
			}
			if _, err := io.WriteString(w, chunk); err != nil {
				return fmt.Errorf("write aggregated log: %w", err)
			}
		}

		if next.EndOfLog {
			return nil
		}
		meta = next
	}
}

// AttachmentName names the aggregated download deterministically.
func (e *Engine) AttachmentName(src logsource.Source) string {
	return src.AttachmentName()
}
