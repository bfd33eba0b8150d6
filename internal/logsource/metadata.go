package logsource

import (
	"encoding/json"
	"strings"
)

// Metadata is the resumption cursor returned by every read. It is created
// fresh per read session and held entirely by the caller; readers never keep
// server-side session state. Once EndOfLog is true for a cursor position no
// further data exists beyond it.
type Metadata struct {
	Offset   int64 `json:"offset"`
	EndOfLog bool  `json:"end_of_log"`
}

// ParseMetadata decodes a caller-supplied cursor. Absent values, the literal
// "null", and undecodable payloads all mean "start from the beginning" so the
// protocol stays resilient to stale client state.
func ParseMetadata(raw string) Metadata {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return Metadata{}
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(trimmed), &meta); err != nil {
		return Metadata{}
	}
	if meta.Offset < 0 {
		meta.Offset = 0
	}
	return meta
}
