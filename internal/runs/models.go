package runs

import (
	"time"

	"conveyor/internal/logsource"
)

// Status represents the lifecycle of an attempt.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusRunning: {},
	StatusSuccess: {},
	StatusFailed:  {},
}

// Valid reports whether the status is one the registry accepts.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Attempt is one recorded execution of a task instance.
type Attempt struct {
	ID          int64
	RunID       string
	TaskID      string
	LogicalDate time.Time
	TryNumber   int
	Status      Status
	ExitCode    int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Source returns the log identity for this attempt.
func (a Attempt) Source() logsource.Source {
	return logsource.Source{
		RunID:       a.RunID,
		TaskID:      a.TaskID,
		LogicalDate: a.LogicalDate,
		Attempt:     a.TryNumber,
	}
}

// Stats summarizes the registry for the status endpoint.
type Stats struct {
	Total   int64
	Running int64
	Success int64
	Failed  int64
}
