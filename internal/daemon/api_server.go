package daemon

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"conveyor/internal/api"
	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/logread"
	"conveyor/internal/logserve"
	"conveyor/internal/logsource"
	"conveyor/internal/runs"
	"conveyor/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/logs", authMiddleware(token, s.handleLogs))
	mux.HandleFunc("/api/runs", authMiddleware(token, s.handleRuns))
	mux.HandleFunc("/api/status", authMiddleware(token, s.handleStatus))
	return requestIDMiddleware(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.log().Info("api server disabled, no bind address configured")
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// handleLogs serves one paginated chunk by default and the fully aggregated
// attachment when format=file is requested.
func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	src, err := parseSource(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "file") {
		s.serveDownload(w, r, src)
		return
	}

	meta := logsource.ParseMetadata(r.URL.Query().Get("metadata"))
	lines, next, err := s.daemon.Engine().FetchChunk(r.Context(), src, meta)
	if err != nil {
		s.log().Error("log chunk failed", logging.String("source", src.String()), logging.Error(err))
		s.writeError(w, readFailureStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{
		Message:  strings.Join(lines, "\n"),
		Metadata: next,
	})
}

func (s *apiServer) serveDownload(w http.ResponseWriter, r *http.Request, src logsource.Source) {
	var buf bytes.Buffer
	if err := s.daemon.Engine().Aggregate(r.Context(), src, &buf); err != nil {
		s.log().Error("log download failed", logging.String("source", src.String()), logging.Error(err))
		if errors.Is(err, logserve.ErrLogTooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		s.writeError(w, readFailureStatus(err), err.Error())
		return
	}

	name := s.daemon.Engine().AttachmentName(src)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	var (
		attempts []*runs.Attempt
		err      error
	)
	if runID := strings.TrimSpace(query.Get("run_id")); runID != "" && query.Get("task_id") != "" {
		date, parseErr := logsource.ParseLogicalDate(query.Get("logical_date"))
		if parseErr != nil {
			s.writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		attempts, err = s.daemon.Store().ForTaskInstance(r.Context(), runID, query.Get("task_id"), date)
	} else {
		limit, _ := strconv.Atoi(query.Get("limit"))
		attempts, err = s.daemon.Store().List(r.Context(), limit)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := api.RunsResponse{Attempts: make([]api.Attempt, 0, len(attempts))}
	for _, attempt := range attempts {
		payload.Attempts = append(payload.Attempts, convertAttempt(attempt))
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		DBPath:       status.DBPath,
		LockFilePath: status.LockFilePath,
		LogDir:       status.LogDir,
		Backend:      status.Backend,
		AttemptStats: map[string]int{
			"total":   int(status.Stats.Total),
			"running": int(status.Stats.Running),
			"success": int(status.Stats.Success),
			"failed":  int(status.Stats.Failed),
		},
	})
}

func parseSource(r *http.Request) (logsource.Source, error) {
	query := r.URL.Query()
	src := logsource.Source{
		RunID:  strings.TrimSpace(query.Get("run_id")),
		TaskID: strings.TrimSpace(query.Get("task_id")),
	}
	if src.RunID == "" {
		return logsource.Source{}, errors.New("run_id is required")
	}
	if src.TaskID == "" {
		return logsource.Source{}, errors.New("task_id is required")
	}

	date, err := logsource.ParseLogicalDate(query.Get("logical_date"))
	if err != nil {
		return logsource.Source{}, err
	}
	src.LogicalDate = date

	tryNumber, err := strconv.Atoi(strings.TrimSpace(query.Get("try_number")))
	if err != nil {
		return logsource.Source{}, fmt.Errorf("try_number must be an integer: %w", err)
	}
	src.Attempt = tryNumber

	if err := src.Validate(); err != nil {
		return logsource.Source{}, err
	}
	return src, nil
}

func readFailureStatus(err error) int {
	if errors.Is(err, logread.ErrBackendUnavailable) {
		return http.StatusBadGateway
	}
	return services.HTTPStatus(err)
}

func convertAttempt(attempt *runs.Attempt) api.Attempt {
	out := api.Attempt{
		ID:           attempt.ID,
		RunID:        attempt.RunID,
		TaskID:       attempt.TaskID,
		LogicalDate:  attempt.LogicalDate.Format(logsource.TimestampLayout),
		TryNumber:    attempt.TryNumber,
		Status:       string(attempt.Status),
		ErrorMessage: attempt.Error,
	}
	if !attempt.StartedAt.IsZero() {
		out.StartedAt = attempt.StartedAt.Format(time.RFC3339)
	}
	if !attempt.FinishedAt.IsZero() {
		out.FinishedAt = attempt.FinishedAt.Format(time.RFC3339)
	}
	return out
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
