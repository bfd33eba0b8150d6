package logread

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"conveyor/internal/logsource"
)

const defaultChunkBytes = 1 << 20

// FileReader serves chunks from per-attempt segment files under a base log
// directory. The cursor is the byte offset of the next unread byte, so a
// re-read at an unchanged offset with no intervening writes returns an
// identical chunk and metadata.
type FileReader struct {
	baseDir    string
	chunkBytes int64
}

// NewFileReader returns a file-backed reader. chunkBytes bounds the raw
// bytes consumed per read; zero or negative selects the default.
func NewFileReader(baseDir string, chunkBytes int64) *FileReader {
	if chunkBytes <= 0 {
		chunkBytes = defaultChunkBytes
	}
	return &FileReader{baseDir: baseDir, chunkBytes: chunkBytes}
}

// Read returns the next chunk of complete lines after meta.Offset.
func (r *FileReader) Read(ctx context.Context, src logsource.Source, meta logsource.Metadata) ([]string, logsource.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, meta, err
	}
	if meta.EndOfLog {
		return nil, meta, nil
	}

	path := src.Path(r.baseDir)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{missingSegmentLine(path)}, logsource.Metadata{Offset: meta.Offset, EndOfLog: true}, nil
		}
		return nil, meta, fmt.Errorf("%w: stat segment %s: %w", ErrBackendUnavailable, path, err)
	}
	if info.IsDir() {
		return nil, meta, fmt.Errorf("%w: segment path %q is a directory", ErrBackendUnavailable, path)
	}

	size := info.Size()
	offset := meta.Offset
	if offset < 0 || offset > size {
		offset = size
	}
	if offset == size {
		return nil, logsource.Metadata{Offset: offset, EndOfLog: true}, nil
	}

	chunk, err := r.readChunk(path, offset, size)
	if err != nil {
		return nil, meta, err
	}

	newOffset := offset + int64(len(chunk))
	out := logsource.Metadata{Offset: newOffset, EndOfLog: newOffset >= size}
	return splitLines(chunk), out, nil
}

func (r *FileReader) readChunk(path string, offset, size int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open segment %s: %w", ErrBackendUnavailable, path, err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek segment %s: %w", ErrBackendUnavailable, path, err)
	}

	want := size - offset
	if want > r.chunkBytes {
		want = r.chunkBytes
	}
	buf := make([]byte, want)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read segment %s: %w", ErrBackendUnavailable, path, err)
	}
	buf = buf[:n]

	// When the chunk limit cuts mid-file, stop at the last complete line so
	// the next read resumes on a line boundary. A single line longer than
	// the chunk limit passes through unsplit boundaries unavoidably.
	if offset+int64(n) < size {
		if idx := bytes.LastIndexByte(buf, '\n'); idx >= 0 {
			buf = buf[:idx+1]
		}
	}
	return buf, nil
}

func splitLines(chunk []byte) []string {
	text := strings.TrimSuffix(string(chunk), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
