/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Guesser metrics for encguess. Collects per-guesser run counts, outcomes and
timings from queue events, keeps global decision totals, and raises alerts for guessers
that run slower than a threshold.
*/

package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/sirupsen/logrus"
)

// GuesserMetrics represents metrics for one guesser
type GuesserMetrics struct {
	Name          string        `json:"name"`
	Kind          guesser.Kind  `json:"kind"`
	Runs          int64         `json:"runs"`
	Counted       int64         `json:"counted"`
	NoGuess       int64         `json:"no_guess"`
	DummySkipped  int64         `json:"dummy_skipped"`
	Stops         int64         `json:"stops"` // Runs that reached the stop threshold
	TotalDuration time.Duration `json:"total_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
}

// MeanDuration returns the average run time
func (m GuesserMetrics) MeanDuration() time.Duration {
	if m.Runs == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.Runs)
}

// GlobalMetrics represents decision totals across all files
type GlobalMetrics struct {
	StartTime      time.Time               `json:"start_time"`
	Uptime         time.Duration           `json:"uptime"`
	Files          int64                   `json:"files"`
	Found          int64                   `json:"found"`
	Unknown        int64                   `json:"unknown"`
	ShortCircuited int64                   `json:"short_circuited"`
	Labels         map[charset.Label]int64 `json:"labels"`
	Guessers       []GuesserMetrics        `json:"guessers"`
	Alerts         []PerformanceAlert      `json:"alerts,omitempty"`
}

// PerformanceAlert represents a guesser run exceeding a threshold
type PerformanceAlert struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      string        `json:"type"` // slow_guesser
	Message   string        `json:"message"`
	Guesser   string        `json:"guesser"`
	File      string        `json:"file"`
	Value     time.Duration `json:"value"`
	Threshold time.Duration `json:"threshold"`
}

// AlertThresholds defines thresholds for performance alerts
type AlertThresholds struct {
	SlowGuesser time.Duration `json:"slow_guesser"` // Zero disables the alert
}

// MetricsCollector aggregates queue events. It implements core.Reporter and
// is safe for concurrent use.
type MetricsCollector struct {
	mu              sync.RWMutex
	startTime       time.Time
	guessers        map[string]*GuesserMetrics
	order           []string
	labels          map[charset.Label]int64
	files           int64
	found           int64
	shortCircuited  int64
	alerts          []PerformanceAlert
	alertThresholds AlertThresholds
	maxAlerts       int

	logger logrus.FieldLogger
}

var _ core.Reporter = (*MetricsCollector)(nil)

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger logrus.FieldLogger) *MetricsCollector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MetricsCollector{
		startTime: time.Now(),
		guessers:  make(map[string]*GuesserMetrics),
		labels:    make(map[charset.Label]int64),
		alertThresholds: AlertThresholds{
			SlowGuesser: 2 * time.Second,
		},
		maxAlerts: 100,
		logger:    logger,
	}
}

// OnStep records one guesser invocation
func (mc *MetricsCollector) OnStep(runID, file string, step core.Step) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m, ok := mc.guessers[step.Guesser]
	if !ok {
		m = &GuesserMetrics{Name: step.Guesser, Kind: step.Kind}
		mc.guessers[step.Guesser] = m
		mc.order = append(mc.order, step.Guesser)
	}

	m.Runs++
	m.TotalDuration += step.Duration
	if step.Duration > m.MaxDuration {
		m.MaxDuration = step.Duration
	}

	switch step.Outcome {
	case core.OutcomeCounted:
		m.Counted++
	case core.OutcomeStopped:
		m.Counted++
		m.Stops++
	case core.OutcomeNoGuess:
		m.NoGuess++
	case core.OutcomeDummySkipped:
		m.DummySkipped++
	}

	mc.checkPerformanceAlerts(runID, file, step)
}

// OnResult records a queue decision
func (mc *MetricsCollector) OnResult(result *core.Result) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.files++
	if result.ShortCircuited {
		mc.shortCircuited++
	}
	if result.Found() {
		mc.found++
		mc.labels[result.Label]++
	}
}

// checkPerformanceAlerts raises an alert for slow guessers
func (mc *MetricsCollector) checkPerformanceAlerts(runID, file string, step core.Step) {
	threshold := mc.alertThresholds.SlowGuesser
	if threshold <= 0 || step.Duration <= threshold {
		return
	}

	alert := PerformanceAlert{
		Timestamp: time.Now(),
		Type:      "slow_guesser",
		Message:   step.Guesser + " exceeded the slow guesser threshold",
		Guesser:   step.Guesser,
		File:      file,
		Value:     step.Duration,
		Threshold: threshold,
	}
	if len(mc.alerts) < mc.maxAlerts {
		mc.alerts = append(mc.alerts, alert)
	}
	mc.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"guesser":   step.Guesser,
		"file":      file,
		"duration":  step.Duration,
		"threshold": threshold,
	}).Warn("Guesser slow")
}

// GetGlobalMetrics returns a snapshot of the collected metrics. Guessers are
// listed in the order they were first seen.
func (mc *MetricsCollector) GetGlobalMetrics() *GlobalMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	metrics := &GlobalMetrics{
		StartTime:      mc.startTime,
		Uptime:         time.Since(mc.startTime),
		Files:          mc.files,
		Found:          mc.found,
		Unknown:        mc.files - mc.found,
		ShortCircuited: mc.shortCircuited,
		Labels:         make(map[charset.Label]int64, len(mc.labels)),
		Guessers:       make([]GuesserMetrics, 0, len(mc.order)),
		Alerts:         append([]PerformanceAlert(nil), mc.alerts...),
	}
	for label, n := range mc.labels {
		metrics.Labels[label] = n
	}
	for _, name := range mc.order {
		metrics.Guessers = append(metrics.Guessers, *mc.guessers[name])
	}
	return metrics
}

// GetGuesserMetrics returns metrics for a specific guesser
func (mc *MetricsCollector) GetGuesserMetrics(name string) *GuesserMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if m, exists := mc.guessers[name]; exists {
		metricsCopy := *m
		return &metricsCopy
	}
	return nil
}

// TopLabels returns labels by decreasing count, ties by name
func (mc *MetricsCollector) TopLabels() []charset.Label {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	labels := make([]charset.Label, 0, len(mc.labels))
	for label := range mc.labels {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if mc.labels[labels[i]] != mc.labels[labels[j]] {
			return mc.labels[labels[i]] > mc.labels[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}

// SetAlertThresholds sets performance alert thresholds
func (mc *MetricsCollector) SetAlertThresholds(thresholds AlertThresholds) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.alertThresholds = thresholds
}

// GetAlertThresholds returns current alert thresholds
func (mc *MetricsCollector) GetAlertThresholds() AlertThresholds {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.alertThresholds
}
