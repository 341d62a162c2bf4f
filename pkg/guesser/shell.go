/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: shell.go
Description: Shell tool guesser. Invokes an external command on the file and turns its
standard output into a guess. Tools that must succeed surface non-zero exits as errors;
the others treat them as "no guess".
*/

package guesser

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/shell"
)

// OutputParser turns tool output into a guess
type OutputParser func(stdout string) (*Guess, error)

// ShellGuesser guesses by running an external tool
type ShellGuesser struct {
	ID             string
	Tool           string
	Args           []string
	Parse          OutputParser
	RequireSuccess bool
	Runner         *shell.Runner
}

// NewShellGuesser creates a shell tool guesser
func NewShellGuesser(id, tool string, args []string, parse OutputParser) *ShellGuesser {
	return &ShellGuesser{ID: id, Tool: tool, Args: args, Parse: parse}
}

func (g *ShellGuesser) Name() string { return g.ID }
func (g *ShellGuesser) Kind() Kind   { return KindShell }

// Available reports whether the tool can be resolved
func (g *ShellGuesser) Available() bool {
	return g.Parse != nil && g.Runner.Available(g.Tool)
}

// Guess runs the tool with the absolute file path appended to its arguments
func (g *ShellGuesser) Guess(ctx context.Context, file string) (*Guess, error) {
	stdout, ok, err := g.run(ctx, file)
	if err != nil || !ok {
		return nil, err
	}
	guess, err := g.Parse(stdout)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse %s output: %w", g.ID, g.Tool, err)
	}
	return Validate(g.ID, guess)
}

// run returns stdout and whether the tool succeeded
func (g *ShellGuesser) run(ctx context.Context, file string) (string, bool, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return "", false, fmt.Errorf("%s: failed to resolve %s: %w", g.ID, file, err)
	}

	args := append(append([]string{}, g.Args...), path)
	out, err := g.Runner.Run(ctx, g.Tool, args...)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", g.ID, err)
	}
	if !out.OK() {
		if g.RequireSuccess {
			return "", false, fmt.Errorf("%s: %w", g.ID, out.MustSucceed(g.Tool))
		}
		return "", false, nil
	}
	return out.Stdout, true, nil
}

// LabelParser extracts a charset name from tool output
type LabelParser func(stdout string) (charset.Label, bool)

// PlatformGuesser is a shell guesser whose confidence depends on whether the
// host OS is the one the tool's answer is native to
type PlatformGuesser struct {
	ShellGuesser
	ParseLabel        LabelParser
	NativeOS          []string
	NativeConfidence  float64
	ForeignConfidence float64
	// GOOS is the host OS, normally runtime.GOOS
	GOOS string
}

// NewPlatformGuesser creates a platform conditioned shell guesser
func NewPlatformGuesser(id, tool string, args []string, parse LabelParser, goos string, nativeOS []string, native, foreign float64) *PlatformGuesser {
	g := &PlatformGuesser{
		ShellGuesser:      ShellGuesser{ID: id, Tool: tool, Args: args},
		ParseLabel:        parse,
		NativeOS:          nativeOS,
		NativeConfidence:  native,
		ForeignConfidence: foreign,
		GOOS:              goos,
	}
	g.Parse = g.parse
	return g
}

func (g *PlatformGuesser) Kind() Kind { return KindPlatform }

// Native reports whether the host OS is one of NativeOS
func (g *PlatformGuesser) Native() bool {
	for _, os := range g.NativeOS {
		if os == g.GOOS {
			return true
		}
	}
	return false
}

// Confidence returns the confidence attached to guesses on this host
func (g *PlatformGuesser) Confidence() float64 {
	if g.Native() {
		return g.NativeConfidence
	}
	return g.ForeignConfidence
}

func (g *PlatformGuesser) parse(stdout string) (*Guess, error) {
	if g.ParseLabel == nil {
		return nil, nil
	}
	label, ok := g.ParseLabel(stdout)
	if !ok {
		return nil, nil
	}
	return NewGuess(label, g.Confidence()), nil
}
