/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: queue_test.go
Description: Tests for queue aggregation, short-circuiting, rejection, tie breaking,
dummy handling, error propagation, shared byte samples and repeatable results.
*/

package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kleascm/encguess/pkg/byteset"
	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/kleascm/encguess/pkg/guessers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGuesser returns a fixed answer and counts its calls
type stubGuesser struct {
	name        string
	guess       *guesser.Guess
	err         error
	unavailable bool
	calls       int
}

func stub(name string, label charset.Label, confidence float64) *stubGuesser {
	return &stubGuesser{name: name, guess: guesser.NewGuess(label, confidence)}
}

func (s *stubGuesser) Name() string       { return s.name }
func (s *stubGuesser) Kind() guesser.Kind { return guesser.KindHost }
func (s *stubGuesser) Available() bool    { return !s.unavailable }
func (s *stubGuesser) Guess(context.Context, string) (*guesser.Guess, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.guess, nil
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func newQueue(t *testing.T, config QueueConfig, gs ...guesser.Guesser) *GuesserQueue {
	t.Helper()
	q, err := NewGuesserQueue(config, gs...)
	require.NoError(t, err)
	return q
}

func process(t *testing.T, q *GuesserQueue, file string) *Result {
	t.Helper()
	result, err := q.Process(context.Background(), file)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestQueueConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultQueueConfig().Validate())
	assert.Error(t, QueueConfig{StopThreshold: 0}.Validate())
	assert.Error(t, QueueConfig{StopThreshold: 1, RejectThreshold: -0.1}.Validate())
	assert.Error(t, QueueConfig{StopThreshold: 0.5, RejectThreshold: 0.6}.Validate())

	_, err := NewGuesserQueue(QueueConfig{})
	assert.Error(t, err)
}

func TestQueueShortCircuitsOnAgreement(t *testing.T) {
	first := stub("first", charset.UTF8, 0.5)
	second := stub("second", charset.UTF8, 0.5)
	third := stub("third", charset.ISO8859_1, 1.0)
	q := newQueue(t, DefaultQueueConfig(), first, second, third)

	result := process(t, q, writeFile(t, []byte("x")))
	assert.Equal(t, charset.UTF8, result.Label)
	assert.Equal(t, 1.0, result.Confidence)
	assert.True(t, result.ShortCircuited)
	assert.Equal(t, 0, third.calls)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, OutcomeCounted, result.Steps[0].Outcome)
	assert.Equal(t, OutcomeStopped, result.Steps[1].Outcome)
}

func TestQueueRejectsWeakResult(t *testing.T) {
	q := newQueue(t, DefaultQueueConfig(), stub("weak", charset.UTF8, 0.2))
	result := process(t, q, writeFile(t, []byte("x")))
	assert.False(t, result.Found())
	assert.Equal(t, 0.2, result.Totals[charset.UTF8])

	lenient := DefaultQueueConfig()
	lenient.RejectThreshold = 0.2
	q = newQueue(t, lenient, stub("weak", charset.UTF8, 0.2))
	result = process(t, q, writeFile(t, []byte("x")))
	assert.Equal(t, charset.UTF8, result.Label)
	assert.False(t, result.ShortCircuited)
}

func TestQueuePicksFirstMaximum(t *testing.T) {
	q := newQueue(t, DefaultQueueConfig(),
		stub("a", charset.ISO8859_2, 0.25),
		stub("b", charset.ISO8859_1, 0.5),
		stub("c", charset.ISO8859_2, 0.25),
		stub("d", charset.MacRoman, 0.5),
	)
	result := process(t, q, writeFile(t, []byte("x")))
	assert.Equal(t, charset.ISO8859_2, result.Label)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, map[charset.Label]float64{
		charset.ISO8859_2: 0.5,
		charset.ISO8859_1: 0.5,
		charset.MacRoman:  0.5,
	}, result.Totals)
}

func TestQueueDummyPolicy(t *testing.T) {
	file := writeFile(t, []byte("x"))
	dummy := stub("dummy", charset.UTF7, 1.0)
	fallback := stub("fallback", charset.UTF8, 0.5)

	q := newQueue(t, DefaultQueueConfig(), dummy, fallback)
	result := process(t, q, file)
	assert.Equal(t, charset.UTF7, result.Label)
	assert.Equal(t, 0, fallback.calls)

	strict := DefaultQueueConfig()
	strict.AcceptDummy = false
	q = newQueue(t, strict, dummy, fallback)
	result = process(t, q, file)
	assert.Equal(t, charset.UTF8, result.Label)
	assert.Equal(t, OutcomeDummySkipped, result.Steps[0].Outcome)
	assert.NotContains(t, result.Totals, charset.UTF7)
}

func TestQueueSkipsUnavailableGuessers(t *testing.T) {
	off := stub("off", charset.UTF8, 1.0)
	off.unavailable = true
	on := stub("on", charset.ASCII, 1.0)
	q := newQueue(t, DefaultQueueConfig(), off, on)

	assert.Len(t, q.Available(), 1)
	result := process(t, q, writeFile(t, []byte("x")))
	assert.Equal(t, charset.ASCII, result.Label)
	assert.Equal(t, []string{"off"}, result.Skipped)
	assert.Equal(t, 0, off.calls)
}

func TestQueueSkipsNoGuess(t *testing.T) {
	silent := &stubGuesser{name: "silent"}
	q := newQueue(t, DefaultQueueConfig(), silent, stub("on", charset.ASCII, 0.5))
	result := process(t, q, writeFile(t, []byte("x")))
	assert.Equal(t, charset.ASCII, result.Label)
	assert.Equal(t, OutcomeNoGuess, result.Steps[0].Outcome)
	assert.Equal(t, 1, silent.calls)
}

func TestQueuePropagatesErrors(t *testing.T) {
	broken := &stubGuesser{name: "broken", err: guesser.ErrContractViolation}
	after := stub("after", charset.ASCII, 1.0)
	q := newQueue(t, DefaultQueueConfig(), broken, after)

	result, err := q.Process(context.Background(), writeFile(t, []byte("x")))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, guesser.ErrContractViolation)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 0, after.calls)

	// malformed guesses from byte guessers surface the same way
	bad := guesser.NewByteGuesser("bad", 0, func(*byteset.ByteSet) (*guesser.Guess, error) {
		return guesser.NewGuess(charset.ASCII, 1.5), nil
	})
	q = newQueue(t, DefaultQueueConfig(), bad)
	_, err = q.Process(context.Background(), writeFile(t, []byte("x")))
	assert.ErrorIs(t, err, guesser.ErrContractViolation)
}

func TestQueueRejectsMalformedGuesses(t *testing.T) {
	file := writeFile(t, []byte("x"))

	q := newQueue(t, DefaultQueueConfig(), stub("overconfident", charset.UTF8, 7))
	result, err := q.Process(context.Background(), file)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, guesser.ErrContractViolation)
	assert.Contains(t, err.Error(), "overconfident")

	unlabelled := stub("unlabelled", "", 1)
	valid := stub("valid", charset.UTF8, 1)
	q = newQueue(t, DefaultQueueConfig(), unlabelled, valid)
	result, err = q.Process(context.Background(), file)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, guesser.ErrContractViolation)
	assert.Equal(t, 0, valid.calls)
}

func TestQueueHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := newQueue(t, DefaultQueueConfig(), stub("a", charset.ASCII, 1))
	_, err := q.Process(ctx, writeFile(t, []byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueueSharesWholeFileSample(t *testing.T) {
	var seen []*byteset.ByteSet
	spy := func(id string, chunk int) *guesser.ByteGuesser {
		return guesser.NewByteGuesser(id, chunk, func(set *byteset.ByteSet) (*guesser.Guess, error) {
			seen = append(seen, set)
			return nil, nil
		})
	}

	q := newQueue(t, DefaultQueueConfig(), spy("a", 0), spy("chunked", 2), spy("b", 0))
	process(t, q, writeFile(t, []byte("abcdef")))
	require.Len(t, seen, 3)
	assert.Same(t, seen[0], seen[2])
	assert.NotSame(t, seen[0], seen[1])
	assert.Equal(t, 2, seen[1].Count())

	// a single whole-file guesser samples on its own
	seen = nil
	q = newQueue(t, DefaultQueueConfig(), spy("a", 0))
	process(t, q, writeFile(t, []byte("abcdef")))
	require.Len(t, seen, 1)
	assert.Equal(t, 6, seen[0].Count())
}

func TestQueueIsRepeatable(t *testing.T) {
	file := writeFile(t, append([]byte{0xe4}, []byte("bcdefghijklmnopqrstuvwxyz")...))
	q := newQueue(t, DefaultQueueConfig(), guessers.ASCII(), guessers.UTF(), guessers.Latin())

	first := process(t, q, file)
	second := process(t, q, file)
	assert.NotEqual(t, first.RunID, second.RunID)

	ignore := cmp.Options{
		cmpopts.IgnoreFields(Result{}, "RunID", "Duration"),
		cmpopts.IgnoreFields(Step{}, "Duration"),
	}
	if diff := cmp.Diff(first, second, ignore); diff != "" {
		t.Errorf("repeated run differs (-first +second):\n%s", diff)
	}
}

func TestQueueBOMShortCircuits(t *testing.T) {
	spy := stub("spy", charset.ISO8859_1, 1.0)
	q := newQueue(t, DefaultQueueConfig(), guessers.CoreBOM(), guessers.MoreBOM(), guessers.ASCII(), spy)

	result := process(t, q, writeFile(t, append([]byte{0xef, 0xbb, 0xbf}, "plain text"...)))
	assert.Equal(t, charset.UTF8, result.Label)
	assert.Equal(t, 1.0, result.Confidence)
	assert.True(t, result.ShortCircuited)
	assert.Len(t, result.Steps, 1)
	assert.Equal(t, 0, spy.calls)
}

func TestQueueUppercaseASCII(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte('A' + i%26)
	}
	q := newQueue(t, DefaultQueueConfig(), guessers.CoreBOM(), guessers.MoreBOM(), guessers.ASCII(), guessers.UTF(), guessers.Latin())

	result := process(t, q, writeFile(t, data))
	assert.Equal(t, charset.ASCII, result.Label)
	assert.Equal(t, 1.0, result.Confidence)
	assert.True(t, result.ShortCircuited)
}

func TestQueueUTF32ByteStatistics(t *testing.T) {
	data := []byte{}
	for _, r := range "text" {
		data = append(data, 0x00, 0x00, 0x00, byte(r))
	}
	q := newQueue(t, DefaultQueueConfig(), guessers.UTF())
	result := process(t, q, writeFile(t, data))
	assert.Equal(t, charset.UTF32, result.Label)
	assert.Equal(t, 0.75, result.Confidence)
}

func TestQueueEmptyFile(t *testing.T) {
	config := DefaultQueueConfig()
	config.RejectThreshold = 0
	q := newQueue(t, config, guessers.CoreBOM(), guessers.MoreBOM(), guessers.ASCII(), guessers.UTF(), guessers.Latin())

	result := process(t, q, writeFile(t, nil))
	assert.False(t, result.Found())
	assert.Empty(t, result.Totals)
	for _, step := range result.Steps {
		assert.Equal(t, OutcomeNoGuess, step.Outcome, step.Guesser)
	}
}

func TestQueueReporters(t *testing.T) {
	collector := NewCollectingReporter()
	q := newQueue(t, DefaultQueueConfig(), stub("a", charset.ASCII, 0.5), stub("b", charset.ASCII, 0.5))
	q.AddReporter(collector)
	q.AddReporter(NewLoggerReporter(nil))

	result := process(t, q, writeFile(t, []byte("x")))
	assert.Len(t, collector.Steps(result.RunID), 2)
	require.Len(t, collector.Results(), 1)
	assert.Same(t, result, collector.Results()[0])
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "a.txt: unknown", (&Result{File: "a.txt"}).String())
	assert.Equal(t, "a.txt: UTF-8 (0.75)", (&Result{File: "a.txt", Label: charset.UTF8, Confidence: 0.75}).String())
	var missing *Result
	assert.False(t, missing.Found())
}
