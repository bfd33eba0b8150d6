// Package runs persists the attempt registry backed by SQLite.
//
// Every task execution is recorded as an attempt row keyed by run, task,
// logical date, and try number. The registry allocates try numbers
// monotonically per task instance, records final status and exit codes,
// and feeds the daemon API's run listing and statistics endpoints.
package runs
