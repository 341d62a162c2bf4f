/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: host.go
Description: Host guesser. Runs an in-process test whose availability depends on host
runtime capabilities: a minimum runtime version, resolved once at startup, plus an
optional predicate.
*/

package guesser

import (
	"context"
	"runtime"
	"strings"

	"github.com/kleascm/encguess/pkg/semver"
)

// HostVersion is the version of the Go runtime the binary was built with
var HostVersion = parseHostVersion(runtime.Version())

func parseHostVersion(v string) semver.Version {
	v = strings.TrimPrefix(v, "go")
	// devel builds and suffixes such as "1.24rc1" or " X:..." carry no usable core
	if i := strings.IndexFunc(v, func(r rune) bool { return r != '.' && (r < '0' || r > '9') }); i >= 0 {
		v = v[:i]
	}
	parsed, err := semver.Parse(strings.TrimSuffix(v, "."))
	if err != nil {
		return semver.Version{}
	}
	return parsed
}

// HostTest inspects a file in-process
type HostTest func(ctx context.Context, file string) (*Guess, error)

// HostGuesser guesses with an in-process test gated on host capabilities
type HostGuesser struct {
	ID         string
	MinVersion semver.Version
	Requires   func() bool
	Test       HostTest
}

// NewHostGuesser creates a host guesser requiring at least minVersion
func NewHostGuesser(id, minVersion string, test HostTest) (*HostGuesser, error) {
	v, err := semver.Parse(minVersion)
	if err != nil {
		return nil, err
	}
	return &HostGuesser{ID: id, MinVersion: v, Test: test}, nil
}

// MustHostGuesser is like NewHostGuesser but panics on an invalid version
func MustHostGuesser(id, minVersion string, test HostTest) *HostGuesser {
	g, err := NewHostGuesser(id, minVersion, test)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *HostGuesser) Name() string { return g.ID }
func (g *HostGuesser) Kind() Kind   { return KindHost }

// Available reports whether the host runtime satisfies every requirement
func (g *HostGuesser) Available() bool {
	if g.Test == nil || !HostVersion.AtLeast(g.MinVersion) {
		return false
	}
	return g.Requires == nil || g.Requires()
}

// Guess runs the test
func (g *HostGuesser) Guess(ctx context.Context, file string) (*Guess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	guess, err := g.Test(ctx, file)
	if err != nil {
		return nil, err
	}
	return Validate(g.ID, guess)
}
