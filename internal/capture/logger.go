package capture

import (
	"log/slog"

	"conveyor/internal/logging"
	"conveyor/internal/logsource"
)

// ContextAware is the optional capability a handler implements when it needs
// to know which attempt it is recording for. Propagation checks for this
// interface instead of probing concrete types.
type ContextAware interface {
	SetContext(src logsource.Source)
}

// TaskLogger is one node in an explicit tree of loggers. Parent links and
// propagate flags are plain fields owned by the task-start hook; there is no
// hidden global registry.
type TaskLogger struct {
	Name      string
	Handlers  []slog.Handler
	Parent    *TaskLogger
	Propagate bool
}

// Logger builds a slog logger over the node's own handlers. Records fan out
// to every handler attached to the node.
func (n *TaskLogger) Logger() *slog.Logger {
	if len(n.Handlers) == 0 {
		return logging.NewNop()
	}
	return slog.New(logging.TeeHandler(n.Handlers...))
}

// SetContext pushes the attempt identity onto every context-aware handler
// reachable from node. The walk visits the node's own handlers, then repeats
// on the parent only while the currently visited node propagates. Handlers
// lacking the capability are skipped silently.
//
// Call this once per task start, from a single coordinating goroutine,
// before any task-scoped record is emitted: handlers here may be shared
// between tasks through ancestor nodes.
func SetContext(node *TaskLogger, src logsource.Source) {
	for node != nil {
		for _, h := range node.Handlers {
			if aware, ok := h.(ContextAware); ok {
				aware.SetContext(src)
			}
		}
		if !node.Propagate {
			return
		}
		node = node.Parent
	}
}
