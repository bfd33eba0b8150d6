// Package api defines the JSON payloads exchanged between the conveyor
// daemon and its clients (the CLI and remote log readers). Keeping the
// transport types separate from the domain types lets the wire format evolve
// without touching storage or serving code.
package api
