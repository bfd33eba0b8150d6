package logread

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conveyor/internal/config"
	"conveyor/internal/logsource"
)

// ErrBackendUnavailable tags reader failures caused by unreachable storage.
// These surface to the caller as serving failures and are never silently
// swallowed or converted into synthetic log lines.
var ErrBackendUnavailable = errors.New("log backend unavailable")

// Reader produces one bounded chunk of log content for an attempt, resuming
// from the caller-held cursor. A zero-value cursor starts from the
// beginning. The returned metadata always carries end_of_log; when false it
// carries enough state to resume exactly where this read stopped.
//
// A missing segment is not an error: readers return a single synthetic
// "no log found" line with end_of_log set so the protocol always terminates.
type Reader interface {
	Read(ctx context.Context, src logsource.Source, meta logsource.Metadata) ([]string, logsource.Metadata, error)
}

// NewFromConfig selects the reader backend.
func NewFromConfig(cfg *config.Config) (Reader, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	switch backend := strings.ToLower(strings.TrimSpace(cfg.Serving.Backend)); backend {
	case "", config.BackendFile:
		return NewFileReader(cfg.Paths.LogDir, cfg.Serving.ChunkBytes), nil
	case config.BackendRemote:
		return NewRemoteReader(cfg.Serving.RemoteURL, cfg.Serving.RemoteToken, cfg.RemoteTimeout())
	default:
		return nil, fmt.Errorf("log backend: unsupported value %q", cfg.Serving.Backend)
	}
}

func missingSegmentLine(path string) string {
	return fmt.Sprintf("no log found at %s", path)
}
