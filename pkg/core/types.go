/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for encguess queue runs. Defines queue policy configuration, the
per-guesser trace steps recorded while a queue runs, the result of a run, and batch
statistics shared between concurrent runs.
*/

package core

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
)

// ErrNotRegularFile is returned when asked to guess something that is not a
// regular file
var ErrNotRegularFile = errors.New("not a regular file")

// QueueConfig holds the policy thresholds of a GuesserQueue
type QueueConfig struct {
	AcceptDummy     bool    `json:"accept_dummy" mapstructure:"accept_dummy"`         // Count dummy encodings
	StopThreshold   float64 `json:"stop_threshold" mapstructure:"stop_threshold"`     // Total that ends the run early
	RejectThreshold float64 `json:"reject_threshold" mapstructure:"reject_threshold"` // Minimum total of a result
}

// DefaultQueueConfig returns the default queue policy
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		AcceptDummy:     true,
		StopThreshold:   1.0,
		RejectThreshold: 0.25,
	}
}

// Validate checks the thresholds
func (c QueueConfig) Validate() error {
	if c.StopThreshold <= 0 {
		return fmt.Errorf("stop threshold must be positive, got %v", c.StopThreshold)
	}
	if c.RejectThreshold < 0 {
		return fmt.Errorf("reject threshold must not be negative, got %v", c.RejectThreshold)
	}
	if c.RejectThreshold > c.StopThreshold {
		return fmt.Errorf("reject threshold %v exceeds stop threshold %v", c.RejectThreshold, c.StopThreshold)
	}
	return nil
}

// Outcome describes what a queue did with one guesser's answer
type Outcome string

const (
	OutcomeCounted      Outcome = "counted"       // Confidence added to the label total
	OutcomeNoGuess      Outcome = "no-guess"      // The guesser found no signal
	OutcomeDummySkipped Outcome = "dummy-skipped" // Dummy label discarded by policy
	OutcomeStopped      Outcome = "stopped"       // Counted and reached the stop threshold
)

// Step records one guesser invocation during a queue run
type Step struct {
	Guesser  string         `json:"guesser"`
	Kind     guesser.Kind   `json:"kind"`
	Guess    *guesser.Guess `json:"guess,omitempty"`
	Total    float64        `json:"total"` // Label total after this step
	Outcome  Outcome        `json:"outcome"`
	Duration time.Duration  `json:"duration"`
}

// Result is the outcome of running a queue on one file
type Result struct {
	RunID          string                    `json:"run_id"`
	File           string                    `json:"file"`
	Label          charset.Label             `json:"label,omitempty"`
	Confidence     float64                   `json:"confidence"`
	ShortCircuited bool                      `json:"short_circuited"`
	Totals         map[charset.Label]float64 `json:"totals"`
	Steps          []Step                    `json:"steps"`
	Skipped        []string                  `json:"skipped,omitempty"` // Unavailable guessers
	Duration       time.Duration             `json:"duration"`
}

// Found reports whether the run produced an encoding
func (r *Result) Found() bool {
	return r != nil && r.Label != ""
}

func (r *Result) String() string {
	if !r.Found() {
		return fmt.Sprintf("%s: unknown", r.File)
	}
	return fmt.Sprintf("%s: %s (%.2f)", r.File, r.Label, r.Confidence)
}

// BatchStats counts batch outcomes. Safe for concurrent use.
type BatchStats struct {
	Files    int64 `json:"files"`
	Found    int64 `json:"found"`
	Unknown  int64 `json:"unknown"`
	Failed   int64 `json:"failed"`
	Duration time.Duration
}

func (s *BatchStats) record(result *Result, err error) {
	atomic.AddInt64(&s.Files, 1)
	switch {
	case err != nil:
		atomic.AddInt64(&s.Failed, 1)
	case result.Found():
		atomic.AddInt64(&s.Found, 1)
	default:
		atomic.AddInt64(&s.Unknown, 1)
	}
}
