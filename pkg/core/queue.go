/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: queue.go
Description: Guesser queue for encguess. Runs an ordered list of guessers on a file,
sums confidence per encoding label, stops early once a label reaches the stop threshold
and rejects winners below the reject threshold.
*/

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/encguess/pkg/byteset"
	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/sirupsen/logrus"
)

// GuesserQueue aggregates the guesses of an ordered guesser list
// Holds no state between runs other than its guessers and policy
type GuesserQueue struct {
	guessers  []guesser.Guesser
	config    QueueConfig
	logger    logrus.FieldLogger
	reporters []Reporter
}

// NewGuesserQueue creates a queue over guessers with the given policy
func NewGuesserQueue(config QueueConfig, guessers ...guesser.Guesser) (*GuesserQueue, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queue configuration: %w", err)
	}
	return &GuesserQueue{
		guessers: append([]guesser.Guesser(nil), guessers...),
		config:   config,
		logger:   logrus.StandardLogger(),
	}, nil
}

// SetLogger replaces the queue logger
func (q *GuesserQueue) SetLogger(logger logrus.FieldLogger) {
	if logger != nil {
		q.logger = logger
	}
}

// AddReporter registers a reporter notified of every step and result
func (q *GuesserQueue) AddReporter(r Reporter) {
	q.reporters = append(q.reporters, r)
}

// Guessers returns the queued guessers in order
func (q *GuesserQueue) Guessers() []guesser.Guesser {
	return append([]guesser.Guesser(nil), q.guessers...)
}

// Config returns the queue policy
func (q *GuesserQueue) Config() QueueConfig {
	return q.config
}

// Available returns the guessers able to run here, in order
func (q *GuesserQueue) Available() []guesser.Guesser {
	var available []guesser.Guesser
	for _, g := range q.guessers {
		if g.Available() {
			available = append(available, g)
		}
	}
	return available
}

// sharesByteSet reports whether enough whole-file byte guessers are queued
// for one shared scan to save work
func sharesByteSet(guessers []guesser.Guesser) bool {
	unbounded := 0
	for _, g := range guessers {
		if bg, ok := g.(*guesser.ByteGuesser); ok && bg.ChunkSize == 0 {
			unbounded++
		}
	}
	return unbounded >= 2
}

// Process guesses the encoding of file. A run that finds nothing acceptable
// returns a Result whose Found method reports false. Guesser errors abort the
// run and are returned wrapped with the guesser name.
func (q *GuesserQueue) Process(ctx context.Context, file string) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:  uuid.NewString(),
		File:   file,
		Totals: make(map[charset.Label]float64),
	}
	log := q.logger.WithFields(logrus.Fields{"run_id": result.RunID, "file": file})

	var available []guesser.Guesser
	for _, g := range q.guessers {
		if g.Available() {
			available = append(available, g)
		} else {
			result.Skipped = append(result.Skipped, g.Name())
		}
	}

	share := sharesByteSet(available)
	var shared *byteset.ByteSet
	var order []charset.Label

	for _, g := range available {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stepStart := time.Now()
		var guess *guesser.Guess
		var err error
		if bg, ok := g.(*guesser.ByteGuesser); ok && share && bg.ChunkSize == 0 {
			if shared == nil {
				if shared, err = byteset.New(file, 0); err != nil {
					log.WithError(err).Debug("Shared byte sample unavailable")
					shared, share = nil, false
				}
			}
			guess, err = bg.GuessWith(ctx, file, shared)
		} else {
			guess, err = g.Guess(ctx, file)
		}
		if err == nil {
			guess, err = guesser.Validate(g.Name(), guess)
		}
		if err != nil {
			log.WithFields(logrus.Fields{"guesser": g.Name(), "error": err}).Error("Guesser failed")
			return nil, fmt.Errorf("guesser %s: %w", g.Name(), err)
		}

		step := Step{Guesser: g.Name(), Kind: g.Kind(), Guess: guess, Duration: time.Since(stepStart)}
		switch {
		case guess == nil:
			step.Outcome = OutcomeNoGuess
		case guess.Label.Dummy() && !q.config.AcceptDummy:
			step.Outcome = OutcomeDummySkipped
		default:
			if _, seen := result.Totals[guess.Label]; !seen {
				order = append(order, guess.Label)
			}
			result.Totals[guess.Label] += guess.Confidence
			step.Total = result.Totals[guess.Label]
			step.Outcome = OutcomeCounted
			if step.Total >= q.config.StopThreshold {
				step.Outcome = OutcomeStopped
			}
		}
		result.Steps = append(result.Steps, step)
		q.reportStep(result, step)

		log.WithFields(logrus.Fields{
			"guesser": step.Guesser,
			"outcome": step.Outcome,
			"guess":   guess,
		}).Debug("Guesser ran")

		if step.Outcome == OutcomeStopped {
			result.Label = guess.Label
			result.Confidence = step.Total
			result.ShortCircuited = true
			return q.finish(result, start, log), nil
		}
	}

	// first maximum in recording order wins ties
	var best charset.Label
	for _, label := range order {
		if best == "" || result.Totals[label] > result.Totals[best] {
			best = label
		}
	}
	if best != "" && result.Totals[best] >= q.config.RejectThreshold {
		result.Label = best
		result.Confidence = result.Totals[best]
	}
	return q.finish(result, start, log), nil
}

func (q *GuesserQueue) finish(result *Result, start time.Time, log logrus.FieldLogger) *Result {
	result.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"label":           result.Label,
		"confidence":      result.Confidence,
		"short_circuited": result.ShortCircuited,
		"steps":           len(result.Steps),
	}).Debug("Queue finished")
	for _, r := range q.reporters {
		r.OnResult(result)
	}
	return result
}

func (q *GuesserQueue) reportStep(result *Result, step Step) {
	for _, r := range q.reporters {
		r.OnStep(result.RunID, result.File, step)
	}
}
