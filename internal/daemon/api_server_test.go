package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"conveyor/internal/api"
	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/logsource"
	"conveyor/internal/runs"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	dir := t.TempDir()
	cfg, _, _, err := config.Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.APIBind = "127.0.0.1:0"

	store, err := runs.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d
}

func writeSegment(t *testing.T, d *Daemon, src logsource.Source, content string) {
	t.Helper()
	path := src.Path(d.cfg.Paths.LogDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}
}

func testSource() logsource.Source {
	return logsource.Source{
		RunID:       "manual__2025-04-01",
		TaskID:      "extract",
		LogicalDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Attempt:     1,
	}
}

func logsURL(src logsource.Source, extra string) string {
	url := "/api/logs?run_id=" + src.RunID +
		"&task_id=" + src.TaskID +
		"&logical_date=2025-04-01T00:00:00" +
		"&try_number=1"
	if extra != "" {
		url += "&" + extra
	}
	return url
}

func doRequest(t *testing.T, d *Daemon, method, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, nil)
	w := httptest.NewRecorder()
	d.api.routes("").ServeHTTP(w, req)
	return w
}

func TestHandleLogsPaginates(t *testing.T) {
	d := newTestDaemon(t)
	src := testSource()
	writeSegment(t, d, src, "first line\nsecond line\n")

	w := doRequest(t, d, http.MethodGet, logsURL(src, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp api.LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "first line\nsecond line" {
		t.Fatalf("message = %q", resp.Message)
	}
	if !resp.Metadata.EndOfLog {
		t.Fatalf("metadata = %+v", resp.Metadata)
	}

	// Re-polling with the returned cursor yields nothing new.
	cursor, _ := json.Marshal(resp.Metadata)
	w = doRequest(t, d, http.MethodGet, logsURL(src, "metadata="+string(cursor)))
	if w.Code != http.StatusOK {
		t.Fatalf("re-poll status = %d", w.Code)
	}
	var again api.LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &again); err != nil {
		t.Fatalf("decode re-poll: %v", err)
	}
	if again.Message != "" || !again.Metadata.EndOfLog {
		t.Fatalf("re-poll = %+v", again)
	}
}

func TestHandleLogsMissingSegment(t *testing.T) {
	d := newTestDaemon(t)
	src := testSource()

	w := doRequest(t, d, http.MethodGet, logsURL(src, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp api.LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Metadata.EndOfLog {
		t.Fatal("missing segment must still terminate the protocol")
	}
	if resp.Message == "" {
		t.Fatal("expected synthetic no-log line")
	}
}

func TestHandleLogsMalformedCursorStartsOver(t *testing.T) {
	d := newTestDaemon(t)
	src := testSource()
	writeSegment(t, d, src, "hello\n")

	w := doRequest(t, d, http.MethodGet, logsURL(src, "metadata=not-json"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp api.LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "hello" {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestHandleLogsValidation(t *testing.T) {
	d := newTestDaemon(t)

	cases := []string{
		"/api/logs?task_id=t&logical_date=2025-04-01T00:00:00&try_number=1",
		"/api/logs?run_id=r&logical_date=2025-04-01T00:00:00&try_number=1",
		"/api/logs?run_id=r&task_id=t&try_number=1",
		"/api/logs?run_id=r&task_id=t&logical_date=2025-04-01T00:00:00&try_number=abc",
		"/api/logs?run_id=r&task_id=t&logical_date=2025-04-01T00:00:00&try_number=0",
	}
	for _, url := range cases {
		if w := doRequest(t, d, http.MethodGet, url); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", url, w.Code)
		}
	}
}

func TestHandleLogsDownload(t *testing.T) {
	d := newTestDaemon(t)
	src := testSource()
	writeSegment(t, d, src, "alpha\nbeta\n")

	w := doRequest(t, d, http.MethodGet, logsURL(src, "format=file"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "alpha\nbeta\n" {
		t.Fatalf("body = %q", got)
	}
	disposition := w.Header().Get("Content-Disposition")
	want := `attachment; filename="manual__2025-04-01/extract/2025-04-01T00:00:00/1.log"`
	if disposition != want {
		t.Fatalf("disposition = %q", disposition)
	}
}

func TestHandleRuns(t *testing.T) {
	d := newTestDaemon(t)
	ctx := context.Background()
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	attempt, err := d.store.StartAttempt(ctx, "manual__2025-04-01", "extract", date)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if err := d.store.FinishAttempt(ctx, attempt.ID, runs.StatusSuccess, 0, ""); err != nil {
		t.Fatalf("finish attempt: %v", err)
	}

	w := doRequest(t, d, http.MethodGet, "/api/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp api.RunsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Attempts) != 1 {
		t.Fatalf("attempts = %d", len(resp.Attempts))
	}
	got := resp.Attempts[0]
	if got.RunID != "manual__2025-04-01" || got.Status != "success" || got.TryNumber != 1 {
		t.Fatalf("attempt = %+v", got)
	}
	if got.LogicalDate != "2025-04-01T00:00:00" {
		t.Fatalf("logical date = %q", got.LogicalDate)
	}
}

func TestHandleStatus(t *testing.T) {
	d := newTestDaemon(t)

	w := doRequest(t, d, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp api.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Backend != config.BackendFile {
		t.Fatalf("backend = %q", resp.Backend)
	}
	if resp.DBPath == "" || resp.LockFilePath == "" {
		t.Fatalf("paths missing: %+v", resp)
	}
}

func TestAuthMiddleware(t *testing.T) {
	d := newTestDaemon(t)
	handler := d.api.routes("sekrit")

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	d := newTestDaemon(t)

	w := doRequest(t, d, http.MethodGet, "/api/status")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id not assigned")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-Request-ID", "req-supplied")
	rec := httptest.NewRecorder()
	d.api.routes("").ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "req-supplied" {
		t.Fatalf("request id not honored: %q", rec.Header().Get("X-Request-ID"))
	}
}
