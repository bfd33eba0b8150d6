// Package runner executes task commands and captures their output into
// per-attempt log segments.
//
// Each run registers an attempt in the registry, binds the capture pipeline
// to the attempt's log identity before the first record, points the child
// process's stdout and stderr at stream sinks, and records the terminal
// status once the process exits.
package runner
