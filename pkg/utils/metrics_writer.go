/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_writer.go
Description: Utility for writing guess reports to a report directory.
Handles timestamped, versioned, and type-specific subdirectory naming.
Ensures directories exist and writes JSON files for easy analysis.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kleascm/encguess/pkg/semver"
)

// WriteMetricsResult writes result under dir/reportType with timestamp, type, and version
func WriteMetricsResult(dir, reportType string, version semver.Version, result interface{}) (string, error) {
	return writeMetricsResultAt(dir, reportType, version, result, time.Now())
}

func writeMetricsResultAt(dir, reportType string, version semver.Version, result interface{}, now time.Time) (string, error) {
	// Ensure report directory and subdirectory exist
	metricsDir := filepath.Join(dir, reportType)
	if err := os.MkdirAll(metricsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create metrics directory: %w", err)
	}

	// Generate filename: 2024-06-11_01-30-00_guess_v1.0.0.json
	timestamp := now.Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_v%s.json", timestamp, reportType, version)
	filePath := filepath.Join(metricsDir, filename)

	// Marshal result to JSON
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write metrics file: %w", err)
	}

	return filePath, nil
}
