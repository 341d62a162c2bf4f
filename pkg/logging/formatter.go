/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters for encguess. Provides readable, coloured console
output with sorted structured fields, and a guess-aware variant that tags entries by the
stage of a run they come from.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter provides compact structured output
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, "", f.formatValue), nil
}

func (f *CustomFormatter) format(entry *logrus.Entry, prefix string, value func(key string, v interface{}) string) []byte {
	var output strings.Builder

	if f.Timestamp {
		f.write(&output, 36, entry.Time.Format("2006-01-02 15:04:05.000"), "%s ")
	}

	level := strings.ToUpper(entry.Level.String())
	f.write(&output, f.getLevelColor(entry.Level), level, "%s ")

	if prefix != "" {
		f.write(&output, 35, prefix, "[%s] ")
	}

	if f.Caller && entry.HasCaller() {
		f.write(&output, 33, fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line), "[%s] ")
	}

	output.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data, value))
	}

	output.WriteString("\n")
	return []byte(output.String())
}

// write appends text in layout, coloured when colours are enabled
func (f *CustomFormatter) write(b *strings.Builder, color int, text, layout string) {
	if f.Colors {
		text = fmt.Sprintf("\033[%dm%s\033[0m", color, text)
	}
	b.WriteString(fmt.Sprintf(layout, text))
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 37 // White
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35 // Magenta
	default:
		return 37
	}
}

// formatFields formats structured fields sorted by key
func (f *CustomFormatter) formatFields(fields logrus.Fields, value func(key string, v interface{}) string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		formatted := value(key, fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, formatted))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, formatted))
		}
	}
	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func (f *CustomFormatter) formatValue(_ string, value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("15:04:05.000")
	case string:
		if len(v) > 50 {
			return fmt.Sprintf("%s...", v[:50])
		}
		return v
	case []byte:
		if len(v) > 20 {
			return fmt.Sprintf("[%d bytes]", len(v))
		}
		return fmt.Sprintf("%x", v)
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GuessFormatter tags entries with the stage of a guessing run
type GuessFormatter struct {
	CustomFormatter
}

// Format formats a log entry with a stage prefix
func (f *GuessFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, f.getGuessPrefix(entry.Message), f.formatGuessValue), nil
}

// getGuessPrefix returns a prefix based on the log message
func (f *GuessFormatter) getGuessPrefix(message string) string {
	switch {
	case strings.HasPrefix(message, "Guesser"):
		return "GUESS"
	case strings.HasPrefix(message, "Tool"):
		return "TOOL"
	case strings.Contains(message, "ncoding guessed"), strings.HasPrefix(message, "Queue"):
		return "RESULT"
	case strings.HasPrefix(message, "Batch"):
		return "BATCH"
	case strings.HasPrefix(message, "Watch"):
		return "WATCH"
	default:
		return ""
	}
}

// formatGuessValue shortens run IDs and paths and fixes confidence precision
func (f *GuessFormatter) formatGuessValue(key string, value interface{}) string {
	switch key {
	case "confidence", "total":
		if c, ok := value.(float64); ok {
			return fmt.Sprintf("%.2f", c)
		}
	case "run_id":
		if s, ok := value.(string); ok && len(s) > 8 {
			return s[:8]
		}
	case "file", "log_file":
		if s, ok := value.(string); ok && len(s) > 50 {
			return "..." + s[len(s)-47:]
		}
	}
	return f.formatValue(key, value)
}
