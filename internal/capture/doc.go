// Package capture owns the producer side of the attempt log pipeline: it
// turns raw process output into structured records and routes them to the
// per-attempt log segment.
//
// StreamSink adapts a writable stream onto a leveled slog logger without
// assuming writes are line-aligned. TaskLogger is an explicit tree of logger
// nodes with parent links and propagate flags; SetContext walks that tree at
// task start so every reachable handler learns which attempt it is writing
// for. AttemptHandler is the handler that persists records to the templated
// per-attempt file once its context is set.
package capture
