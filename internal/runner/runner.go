package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"conveyor/internal/capture"
	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/runs"
	"conveyor/internal/services"
)

// Runner executes task commands for recorded attempts.
type Runner struct {
	cfg    *config.Config
	store  *runs.Store
	logger *slog.Logger
}

// Result reports the outcome of one executed attempt.
type Result struct {
	Attempt  *runs.Attempt
	Status   runs.Status
	ExitCode int
}

// New constructs a runner.
func New(cfg *config.Config, store *runs.Store, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("runner requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, store: store, logger: logger}, nil
}

// Run executes the command as a new attempt of the task instance. The command
// failing is not a Run error: the failure lands in the returned result and
// the registry. Run errors mean the attempt could not be executed at all.
func (r *Runner) Run(ctx context.Context, runID, taskID string, logicalDate time.Time, command []string) (*Result, error) {
	if len(command) == 0 {
		return nil, errors.New("command is required")
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	attempt, err := r.store.StartAttempt(ctx, runID, taskID, logicalDate)
	if err != nil {
		return nil, fmt.Errorf("register attempt: %w", err)
	}
	src := attempt.Source()

	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithTaskID(ctx, taskID)
	ctx = services.WithAttempt(ctx, attempt.TryNumber)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "runner"))

	handler := capture.NewAttemptHandler(r.cfg.Paths.LogDir, slog.LevelDebug)
	defer func() { _ = handler.Close() }()

	root := &capture.TaskLogger{Name: "conveyor", Handlers: []slog.Handler{handler}}
	node := &capture.TaskLogger{Name: taskID, Parent: root, Propagate: true}
	// Bind the attempt identity before any record can be emitted.
	capture.SetContext(node, src)
	taskLog := root.Logger()

	stdout := capture.NewStreamSink(taskLog, slog.LevelInfo)
	stderr := capture.NewStreamSink(taskLog, slog.LevelWarn)

	taskLog.Info(fmt.Sprintf("starting attempt %d of %s/%s", attempt.TryNumber, runID, taskID))
	logger.Info("attempt started", logging.String("command", command[0]))

	cmd := exec.CommandContext(ctx, command[0], command[1:]...) //nolint:gosec
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	status := runs.StatusSuccess
	exitCode := 0
	message := ""
	if runErr != nil {
		status = runs.StatusFailed
		message = runErr.Error()
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
		taskLog.Error(fmt.Sprintf("attempt failed: %s", message))
	} else {
		taskLog.Info("attempt succeeded")
	}

	if err := r.store.FinishAttempt(ctx, attempt.ID, status, exitCode, message); err != nil {
		return nil, fmt.Errorf("record attempt outcome: %w", err)
	}

	logger.Info("attempt finished",
		logging.String("status", string(status)),
		logging.Int("exit_code", exitCode),
	)
	return &Result{Attempt: attempt, Status: status, ExitCode: exitCode}, nil
}
