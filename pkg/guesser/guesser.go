/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: guesser.go
Description: Guesser foundation for encguess. Defines the Guess value, the Guesser
interface every detection strategy implements, and result validation shared by all
variants (byte pattern, shell tool, platform, host and sample guessers).
*/

package guesser

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/kleascm/encguess/pkg/charset"
)

// ErrContractViolation marks a guesser that produced a malformed guess. It
// signals a defect in the guesser, not a property of the input.
var ErrContractViolation = errors.New("guesser contract violation")

// Guess is a candidate encoding with the confidence supporting it
type Guess struct {
	Label      charset.Label `json:"label"`
	Confidence float64       `json:"confidence"`
}

// NewGuess creates a guess
func NewGuess(label charset.Label, confidence float64) *Guess {
	return &Guess{Label: label, Confidence: confidence}
}

func (g *Guess) String() string {
	return fmt.Sprintf("%s (%.2f)", g.Label, g.Confidence)
}

// Kind identifies a guesser variant
type Kind string

const (
	KindByte     Kind = "byte"
	KindShell    Kind = "shell"
	KindPlatform Kind = "platform"
	KindHost     Kind = "host"
	KindSample   Kind = "sample"
)

// Guesser guesses the text encoding of a file.
//
// Available must be free of side effects. Guess returns (nil, nil) when it
// finds no signal; errors are reserved for broken mechanisms such as a
// required tool failing or a malformed result.
type Guesser interface {
	Name() string
	Kind() Kind
	Available() bool
	Guess(ctx context.Context, file string) (*Guess, error)
}

// Validate checks a guess produced by the named guesser
func Validate(name string, g *Guess) (*Guess, error) {
	if g == nil {
		return nil, nil
	}
	if g.Label == "" {
		return nil, fmt.Errorf("%s returned a guess without label: %w", name, ErrContractViolation)
	}
	if math.IsNaN(g.Confidence) || g.Confidence < 0 || g.Confidence > 1 {
		return nil, fmt.Errorf("%s returned confidence %v for %s: %w", name, g.Confidence, g.Label, ErrContractViolation)
	}
	return g, nil
}

// samePath compares two paths after making them absolute
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
