package capture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"conveyor/internal/logsource"
)

// AttemptHandler persists records to the per-attempt log segment. It is
// inert until SetContext names the attempt; records arriving before that
// have nowhere to land and are dropped.
type AttemptHandler struct {
	baseDir string
	level   slog.Level

	mu    sync.Mutex
	file  *os.File
	src   logsource.Source
	attrs []slog.Attr
}

// NewAttemptHandler returns a handler rooted at the given log directory.
func NewAttemptHandler(baseDir string, level slog.Level) *AttemptHandler {
	return &AttemptHandler{baseDir: baseDir, level: level}
}

// SetContext implements ContextAware: it resolves the templated segment path
// for the attempt and opens it for appending. Reassigning the context closes
// the previous segment first.
func (h *AttemptHandler) SetContext(src logsource.Source) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file != nil {
		_ = h.file.Close()
		h.file = nil
	}

	path := src.Path(h.baseDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	h.file = file
	h.src = src
}

// Close releases the current segment file, if any.
func (h *AttemptHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

// Source reports the attempt currently bound to the handler.
func (h *AttemptHandler) Source() (logsource.Source, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.src, h.file != nil
}

func (h *AttemptHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle appends the record to the segment as one formatted plain-text line.
func (h *AttemptHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var buf bytes.Buffer
	buf.Grow(64 + len(record.Message))
	buf.WriteString(timestamp.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(strings.ToUpper(record.Level.String()))
	buf.WriteString(" - ")
	buf.WriteString(record.Message)

	writeAttr := func(attr slog.Attr) {
		attr.Value = attr.Value.Resolve()
		if attr.Equal(slog.Attr{}) {
			return
		}
		fmt.Fprintf(&buf, " %s=%v", attr.Key, attr.Value.Any())
	}
	for _, attr := range h.attrs {
		writeAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(attr)
		return true
	})
	buf.WriteByte('\n')

	_, err := h.file.Write(buf.Bytes())
	return err
}

func (h *AttemptHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	// Derived handlers share the segment file with the parent so the
	// context set on either lands records in the same place.
	clone := &AttemptHandler{
		baseDir: h.baseDir,
		level:   h.level,
		file:    h.file,
		src:     h.src,
	}
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return clone
}

func (h *AttemptHandler) WithGroup(name string) slog.Handler {
	return h
}
