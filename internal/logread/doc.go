// Package logread produces bounded chunks of historical attempt logs.
//
// A Reader returns one chunk per call and an updated cursor; it keeps no
// state between calls, so arbitrarily large logs are served without loading
// them wholesale and an abandoned read session costs nothing server-side.
// Two backends exist: file (offset reads of the local per-attempt segment)
// and remote (the log API of another conveyor instance). The backend is
// chosen by configuration, not by subclassing.
package logread
