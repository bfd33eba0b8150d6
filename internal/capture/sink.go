package capture

import (
	"context"
	"log/slog"
	"strings"
)

// StreamSink adapts a byte/text stream contract onto a leveled slog logger.
// Process stdout/stderr can be pointed at one of these without losing partial
// writes that span multiple calls: content accumulates in a buffer until a
// whitespace-only write (or an explicit Flush) marks a record boundary.
//
// A sink is bound to exactly one logical output stream and is not safe for
// concurrent use; concurrent writers need separate instances.
type StreamSink struct {
	logger *slog.Logger
	level  slog.Level
	buf    strings.Builder
}

// NewStreamSink returns a sink emitting buffered content at the given level.
// A nil logger is allowed; the sink then discards flushed records.
func NewStreamSink(logger *slog.Logger, level slog.Level) *StreamSink {
	return &StreamSink{logger: logger, level: level}
}

// Write appends text to the buffer, or flushes it when the write is entirely
// whitespace. Embedded newlines inside a non-blank write do not split the
// record; the whitespace-only write is the only flush trigger.
func (s *StreamSink) Write(p []byte) (int, error) {
	s.writeString(string(p))
	return len(p), nil
}

// WriteString implements io.StringWriter with Write's semantics.
func (s *StreamSink) WriteString(text string) (int, error) {
	s.writeString(text)
	return len(text), nil
}

func (s *StreamSink) writeString(text string) {
	if strings.TrimSpace(text) == "" {
		s.Flush()
		return
	}
	s.buf.WriteString(text)
}

// Flush emits the buffered content as a single record and clears the buffer.
// Flushing an empty buffer emits nothing.
func (s *StreamSink) Flush() {
	if s.buf.Len() == 0 {
		return
	}
	msg := s.buf.String()
	s.buf.Reset()
	if s.logger == nil {
		return
	}
	s.logger.Log(context.Background(), s.level, msg)
}

// Close never fails and never marks the sink closed: the same sink stays
// usable across multiple logical writers for one attempt.
func (s *StreamSink) Close() error {
	return nil
}

// Closed always reports false.
func (s *StreamSink) Closed() bool {
	return false
}

// IsTerminal always reports false; the sink never fronts a TTY.
func (s *StreamSink) IsTerminal() bool {
	return false
}

// Buffered exposes the pending unflushed content.
func (s *StreamSink) Buffered() string {
	return s.buf.String()
}
