package logread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"conveyor/internal/api"
	"conveyor/internal/logsource"
)

// RemoteReader proxies reads to the log API of another conveyor instance,
// typically the worker host that owns the segment files. The cursor protocol
// passes through unchanged: the remote instance's metadata is handed back to
// our caller verbatim.
type RemoteReader struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewRemoteReader builds a reader against the given base URL. The token, when
// non-empty, is sent as a bearer credential.
func NewRemoteReader(base, token string, timeout time.Duration) (*RemoteReader, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, errors.New("remote log backend requires a base url")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse remote log url: %w", err)
	}
	parsed.Path = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return &RemoteReader{
		base:  parsed,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: timeout},
	}, nil
}

// Read fetches one chunk from the remote instance.
func (r *RemoteReader) Read(ctx context.Context, src logsource.Source, meta logsource.Metadata) ([]string, logsource.Metadata, error) {
	if meta.EndOfLog {
		return nil, meta, nil
	}

	cursor, err := json.Marshal(meta)
	if err != nil {
		return nil, meta, fmt.Errorf("encode cursor: %w", err)
	}

	values := url.Values{}
	values.Set("run_id", src.RunID)
	values.Set("task_id", src.TaskID)
	values.Set("logical_date", src.LogicalDate.Format(logsource.TimestampLayout))
	values.Set("try_number", strconv.Itoa(src.Attempt))
	values.Set("metadata", string(cursor))

	endpoint := r.base.ResolveReference(&url.URL{Path: "/api/logs", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, meta, err
	}
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, meta, fmt.Errorf("%w: remote log api returned status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var payload api.LogsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, meta, fmt.Errorf("%w: decode remote log payload: %w", ErrBackendUnavailable, err)
	}

	var lines []string
	if payload.Message != "" {
		lines = strings.Split(payload.Message, "\n")
	}
	return lines, payload.Metadata, nil
}
