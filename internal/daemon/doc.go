// Package daemon hosts the conveyord runtime: single-instance locking, the
// attempt registry, and the HTTP API that serves task logs to clients.
//
// The API speaks the cursor protocol: GET /api/logs returns one chunk plus
// opaque metadata the client echoes back, and format=file aggregates the
// whole log into a single attachment download.
package daemon
