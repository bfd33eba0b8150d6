// Package logsource defines the identity of a task-attempt log segment and
// the caller-held metadata used to resume incremental reads.
//
// A Source names one attempt (run, task, logical date, try number) and maps
// it to a storage location under the configured log directory. Metadata is
// the opaque cursor a reader hands back to its caller; the reader itself is
// stateless between calls, so everything needed to resume lives here.
package logsource
