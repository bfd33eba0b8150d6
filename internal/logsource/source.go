package logsource

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout renders logical dates in attempt paths and attachment names.
const TimestampLayout = "2006-01-02T15:04:05"

// Source identifies one execution attempt of a task. Each attempt owns an
// independent log segment; a Source exists as soon as the attempt starts.
type Source struct {
	RunID       string
	TaskID      string
	LogicalDate time.Time
	Attempt     int
}

// Validate reports whether the source names a concrete attempt.
func (s Source) Validate() error {
	if strings.TrimSpace(s.RunID) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(s.TaskID) == "" {
		return errors.New("task id is required")
	}
	if s.LogicalDate.IsZero() {
		return errors.New("logical date is required")
	}
	if s.Attempt < 1 {
		return fmt.Errorf("attempt must be positive, got %d", s.Attempt)
	}
	return nil
}

// RelativePath renders the storage-relative location of the attempt's log
// segment. Colons in the timestamp are replaced with dots so the path stays
// portable across filesystems.
func (s Source) RelativePath() string {
	ts := strings.ReplaceAll(s.LogicalDate.Format(TimestampLayout), ":", ".")
	return filepath.Join(s.RunID, s.TaskID, ts, strconv.Itoa(s.Attempt)+".log")
}

// Path joins the relative segment path onto the base log directory.
func (s Source) Path(baseDir string) string {
	return filepath.Join(baseDir, s.RelativePath())
}

// AttachmentName is the deterministic download filename for this attempt.
// Unlike RelativePath it keeps colons in the timestamp.
func (s Source) AttachmentName() string {
	return fmt.Sprintf("%s/%s/%s/%d.log", s.RunID, s.TaskID, s.LogicalDate.Format(TimestampLayout), s.Attempt)
}

// String implements fmt.Stringer for log output.
func (s Source) String() string {
	return fmt.Sprintf("%s/%s attempt %d (%s)", s.RunID, s.TaskID, s.Attempt, s.LogicalDate.Format(TimestampLayout))
}

// ParseLogicalDate accepts the timestamp formats clients send: RFC 3339 with
// or without an offset, or the bare layout used in attachment names.
func ParseLogicalDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("logical date is required")
	}
	for _, layout := range []string{time.RFC3339, TimestampLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized logical date %q", value)
}
