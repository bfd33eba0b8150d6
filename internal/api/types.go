package api

import "conveyor/internal/logsource"

// LogsResponse is the paginated log payload: one chunk of rendered log
// content plus the cursor the client feeds back on its next request. Clients
// stop polling once Metadata.EndOfLog is true.
type LogsResponse struct {
	Message  string             `json:"message"`
	Metadata logsource.Metadata `json:"metadata"`
}

// Attempt describes one recorded task attempt.
type Attempt struct {
	ID           int64  `json:"id"`
	RunID        string `json:"run_id"`
	TaskID       string `json:"task_id"`
	LogicalDate  string `json:"logical_date"`
	TryNumber    int    `json:"try_number"`
	Status       string `json:"status"`
	StartedAt    string `json:"started_at,omitempty"`
	FinishedAt   string `json:"finished_at,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// RunsResponse lists recorded attempts.
type RunsResponse struct {
	Attempts []Attempt `json:"attempts"`
}

// StatusResponse reports daemon health.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DBPath       string         `json:"db_path"`
	LockFilePath string         `json:"lock_file_path"`
	LogDir       string         `json:"log_dir"`
	Backend      string         `json:"backend"`
	AttemptStats map[string]int `json:"attempt_stats,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
