package logging

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// CleanupOldLogs prunes attempt log files under root that are older than
// retentionDays, then removes any directories the pruning left empty. Task
// log trees nest as run/task/timestamp/attempt.log, so the walk recurses.
// A retentionDays value of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, root string, retentionDays int) {
	root = strings.TrimSpace(root)
	if root == "" || retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var dirs []string
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if !strings.HasSuffix(entry.Name(), ".log") {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			if logger != nil {
				logger.Warn("log retention remove failed; file remains",
					String("path", path),
					Error(err),
				)
			}
			return nil
		}
		if logger != nil {
			logger.Info("log pruned", String("path", path))
		}
		return nil
	})

	// Deepest directories first so emptied parents collapse too.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		_ = os.Remove(dir)
	}
}
