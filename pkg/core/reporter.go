/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and implementations for live reporting of queue runs.
Reporters are notified of every guesser step and every finished result.
*/

package core

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Reporter defines the interface for queue reporting hooks.
// Allows the queue to notify listeners of guesser steps and results.
type Reporter interface {
	// OnStep is called after each guesser runs.
	OnStep(runID, file string, step Step)
	// OnResult is called when a run finishes without error.
	OnResult(result *Result)
}

// LoggerReporter logs steps and results at info level.
type LoggerReporter struct {
	logger logrus.FieldLogger
}

// NewLoggerReporter creates a new LoggerReporter.
func NewLoggerReporter(logger logrus.FieldLogger) *LoggerReporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggerReporter{logger: logger}
}

// OnStep logs the guesser outcome.
func (r *LoggerReporter) OnStep(runID, file string, step Step) {
	fields := logrus.Fields{
		"run_id":  runID,
		"file":    file,
		"guesser": step.Guesser,
		"outcome": step.Outcome,
	}
	if step.Guess != nil {
		fields["label"] = step.Guess.Label
		fields["confidence"] = step.Guess.Confidence
		fields["total"] = step.Total
	}
	r.logger.WithFields(fields).Info("Guesser step")
}

// OnResult logs the final decision.
func (r *LoggerReporter) OnResult(result *Result) {
	fields := logrus.Fields{"run_id": result.RunID, "file": result.File}
	if !result.Found() {
		r.logger.WithFields(fields).Warn("No encoding guessed")
		return
	}
	fields["label"] = result.Label
	fields["confidence"] = result.Confidence
	fields["short_circuited"] = result.ShortCircuited
	r.logger.WithFields(fields).Info("Encoding guessed")
}

// CollectingReporter keeps every result it sees. Safe for concurrent use.
type CollectingReporter struct {
	mu      sync.Mutex
	steps   map[string][]Step
	results []*Result
}

// NewCollectingReporter creates an empty CollectingReporter.
func NewCollectingReporter() *CollectingReporter {
	return &CollectingReporter{steps: make(map[string][]Step)}
}

// OnStep records the step under its run.
func (r *CollectingReporter) OnStep(runID, file string, step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[runID] = append(r.steps[runID], step)
}

// OnResult records the result.
func (r *CollectingReporter) OnResult(result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Steps returns the steps recorded for a run.
func (r *CollectingReporter) Steps(runID string) []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps[runID]...)
}

// Results returns the recorded results in arrival order.
func (r *CollectingReporter) Results() []*Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Result(nil), r.results...)
}
