/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file housekeeping. Prunes old encguess log files beyond a retention
count and reports statistics about the log directory.
*/

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// LogManager maintains the log directory
type LogManager struct {
	logDir   string
	maxFiles int
}

// LogStats describes the log directory
type LogStats struct {
	TotalFiles int       `json:"total_files"`
	TotalSize  int64     `json:"total_size"`
	OldestFile time.Time `json:"oldest_file"`
	NewestFile time.Time `json:"newest_file"`
}

// NewLogManager creates a manager keeping at most maxFiles logs in logDir
func NewLogManager(logDir string, maxFiles int) *LogManager {
	return &LogManager{logDir: logDir, maxFiles: maxFiles}
}

type logFile struct {
	path    string
	modTime time.Time
	size    int64
}

// logFiles lists encguess log files, newest first
func (lm *LogManager) logFiles() ([]logFile, error) {
	matches, err := filepath.Glob(filepath.Join(lm.logDir, logFilePrefix+"*.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	files := make([]logFile, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		files = append(files, logFile{path: path, modTime: info.ModTime(), size: info.Size()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path > files[j].path
		}
		return files[i].modTime.After(files[j].modTime)
	})
	return files, nil
}

// CleanupOldLogs removes log files beyond the retention count
func (lm *LogManager) CleanupOldLogs() error {
	if lm.maxFiles <= 0 {
		return nil
	}
	files, err := lm.logFiles()
	if err != nil {
		return err
	}
	if len(files) <= lm.maxFiles {
		return nil
	}

	for _, f := range files[lm.maxFiles:] {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old log file %s: %w", f.path, err)
		}
	}
	return nil
}

// GetLogStats returns statistics about the log files
func (lm *LogManager) GetLogStats() (*LogStats, error) {
	files, err := lm.logFiles()
	if err != nil {
		return nil, err
	}

	stats := &LogStats{TotalFiles: len(files)}
	for i, f := range files {
		stats.TotalSize += f.size
		if i == 0 {
			stats.NewestFile = f.modTime
		}
		stats.OldestFile = f.modTime
	}
	return stats, nil
}
