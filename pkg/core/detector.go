/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: detector.go
Description: File level entry points. GuessEncoding resolves a path, refuses anything
that is not a regular file and runs a queue with lenient defaults.
*/

package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/kleascm/encguess/pkg/guessers"
)

// GuessOptions tunes GuessEncodingWith
type GuessOptions struct {
	WithDummies bool    // Count dummy encodings
	NeverMind   float64 // Totals below this are discarded
}

// DefaultGuessOptions returns the options GuessEncoding uses
func DefaultGuessOptions() GuessOptions {
	return GuessOptions{WithDummies: true, NeverMind: 0.1}
}

// ResolveRegular follows symlinks and returns the real path of a regular
// file. Other file types yield ErrNotRegularFile.
func ResolveRegular(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	return resolved, nil
}

// GuessEncoding guesses the encoding of the file at path with the default
// options, using the default guesser set when none are given. It returns an
// empty label when no encoding could be guessed or path is not a regular file.
func GuessEncoding(ctx context.Context, path string, gs ...guesser.Guesser) (charset.Label, error) {
	return GuessEncodingWith(ctx, path, DefaultGuessOptions(), gs...)
}

// GuessEncodingWith is GuessEncoding with explicit options
func GuessEncodingWith(ctx context.Context, path string, opts GuessOptions, gs ...guesser.Guesser) (charset.Label, error) {
	resolved, err := ResolveRegular(path)
	if err != nil {
		if errors.Is(err, ErrNotRegularFile) {
			return "", nil
		}
		return "", err
	}
	if len(gs) == 0 {
		gs = guessers.DefaultSet(nil)
	}

	queue, err := NewGuesserQueue(QueueConfig{
		AcceptDummy:     opts.WithDummies,
		StopThreshold:   1.0,
		RejectThreshold: opts.NeverMind,
	}, gs...)
	if err != nil {
		return "", err
	}
	result, err := queue.Process(ctx, resolved)
	if err != nil {
		return "", err
	}
	return result.Label, nil
}
