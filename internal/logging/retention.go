package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names a directory and a filename glob to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Keep    []string
}

// CleanupOldLogs removes files older than retentionDays that match a target.
// Files listed in Keep (typically the active log file) are never removed. A
// retentionDays value of 0 disables pruning. It returns the number of files
// removed.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, now time.Time, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0

	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		keep := make(map[string]struct{}, len(target.Keep))
		for _, path := range target.Keep {
			if abs, err := filepath.Abs(strings.TrimSpace(path)); err == nil {
				keep[abs] = struct{}{}
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if pattern := strings.TrimSpace(target.Pattern); pattern != "" {
				if ok, err := filepath.Match(pattern, entry.Name()); err != nil || !ok {
					continue
				}
			}
			fullPath, err := filepath.Abs(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			if _, skip := keep[fullPath]; skip {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(fullPath); err != nil {
				WarnWithContext(logger, "log retention remove failed", "log_retention_failed",
					String("path", fullPath),
					Error(err),
					String(FieldErrorHint, "check permissions on paths.log_dir"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("log pruned", String("path", fullPath), String(FieldEventType, "log_pruned"))
			}
		}
	}
	return removed
}
