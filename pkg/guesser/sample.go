/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sample.go
Description: Sample guesser. Reads a raw prefix of the file and hands it to an
in-process detector, for detectors that need content rather than byte frequencies.
*/

package guesser

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DefaultSampleSize is the prefix read when SampleSize is unset
const DefaultSampleSize = 64 * 1024

// SampleTest inspects a raw file prefix
type SampleTest func(sample []byte) (*Guess, error)

// SampleGuesser guesses from a raw prefix of the file
type SampleGuesser struct {
	ID         string
	SampleSize int
	Test       SampleTest
}

// NewSampleGuesser creates a sample guesser
func NewSampleGuesser(id string, sampleSize int, test SampleTest) *SampleGuesser {
	return &SampleGuesser{ID: id, SampleSize: sampleSize, Test: test}
}

func (g *SampleGuesser) Name() string { return g.ID }
func (g *SampleGuesser) Kind() Kind   { return KindSample }

// Available reports whether a test is configured
func (g *SampleGuesser) Available() bool {
	return g.Test != nil
}

// Guess reads the sample and runs the test. Empty files yield no guess.
func (g *SampleGuesser) Guess(ctx context.Context, file string) (*Guess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sample, err := readSample(file, g.SampleSize)
	if err != nil {
		return nil, nil
	}
	if len(sample) == 0 {
		return nil, nil
	}
	guess, err := g.Test(sample)
	if err != nil {
		return nil, err
	}
	return Validate(g.ID, guess)
}

func readSample(file string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSampleSize
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, int64(size)))
}
