/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: byte.go
Description: Byte pattern guesser. Runs a test over a ByteSet sampled from the file,
optionally limited to a fixed chunk size, and accepts a cached ByteSet so a queue can
share one full-file scan between guessers.
*/

package guesser

import (
	"context"

	"github.com/kleascm/encguess/pkg/byteset"
	"github.com/sirupsen/logrus"
)

// ByteAccess is the host capability byte guessers depend on. Go reads raw
// bytes on every platform, so it is fixed at build time.
const ByteAccess = true

// ByteTest inspects a ByteSet
type ByteTest func(set *byteset.ByteSet) (*Guess, error)

// ByteGuesser guesses from byte statistics of the file
type ByteGuesser struct {
	ID        string
	ChunkSize int // 0 samples the whole file
	Test      ByteTest
}

// NewByteGuesser creates a byte pattern guesser
func NewByteGuesser(id string, chunkSize int, test ByteTest) *ByteGuesser {
	return &ByteGuesser{ID: id, ChunkSize: chunkSize, Test: test}
}

func (g *ByteGuesser) Name() string { return g.ID }
func (g *ByteGuesser) Kind() Kind   { return KindByte }

// Available reports whether raw byte access is supported
func (g *ByteGuesser) Available() bool {
	return ByteAccess && g.Test != nil
}

// Guess samples file and runs the test
func (g *ByteGuesser) Guess(ctx context.Context, file string) (*Guess, error) {
	return g.GuessWith(ctx, file, nil)
}

// GuessWith runs the test on set when it matches file and the chunk size,
// sampling the file afresh otherwise. An unreadable file yields no guess.
func (g *ByteGuesser) GuessWith(ctx context.Context, file string, set *byteset.ByteSet) (*Guess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if set == nil || set.ChunkSize() != g.ChunkSize || !samePath(set.Path(), file) {
		var err error
		set, err = byteset.New(file, g.ChunkSize)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"guesser": g.ID,
				"file":    file,
				"error":   err,
			}).Debug("Byte sample unavailable")
			return nil, nil
		}
	}
	if g.Test == nil {
		return nil, nil
	}
	guess, err := g.Test(set)
	if err != nil {
		return nil, err
	}
	return Validate(g.ID, guess)
}
