/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: semver.go
Description: Semantic version parsing and comparison for encguess, built on
Masterminds/semver. Accepts loosely formed versions ("4" is "4.0.0") that start with a
digit, keeps prerelease or build metadata, and orders versions the way semver.org does.
*/

package semver

import (
	"fmt"
	"regexp"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// SpecVersion is the Semantic Versioning specification version implemented here
const SpecVersion = "2.0.0"

// Part names a numeric version component
type Part string

const (
	Major Part = "major"
	Minor Part = "minor"
	Patch Part = "patch"
)

// Parts lists the version parts in significance order
var Parts = []Part{Major, Minor, Patch}

// versionRegexp is the accepted grammar: a bare numeric core of one to three
// parts and at most one prerelease or build suffix. Masterminds alone would
// also take a "v" prefix and combined "-pre+build" suffixes.
var versionRegexp = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+){0,2}(?:[-+][A-Za-z0-9][-A-Za-z0-9]*(?:\.[A-Za-z0-9][-A-Za-z0-9]*)*)?$`)

var zero = mmsemver.New(0, 0, 0, "", "")

// Version is a parsed semantic version. The zero value is 0.0.0.
type Version struct {
	v *mmsemver.Version
}

// Parse parses a version string. Missing minor and patch parts default to 0.
func Parse(version string) (Version, error) {
	version = strings.TrimSpace(version)
	if !versionRegexp.MatchString(version) {
		return Version{}, fmt.Errorf("'%s' is not a valid semantic version", version)
	}
	v, err := mmsemver.NewVersion(version)
	if err != nil {
		return Version{}, fmt.Errorf("'%s' is not a valid semantic version: %w", version, err)
	}
	return Version{v: v}, nil
}

// MustParse is like Parse but panics on invalid input
func MustParse(version string) Version {
	v, err := Parse(version)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) ver() *mmsemver.Version {
	if v.v == nil {
		return zero
	}
	return v.v
}

func (v Version) Major() int { return int(v.ver().Major()) }
func (v Version) Minor() int { return int(v.ver().Minor()) }
func (v Version) Patch() int { return int(v.ver().Patch()) }

// Metadata returns the prerelease or build info without its leading sign
func (v Version) Metadata() string {
	if pre := v.ver().Prerelease(); pre != "" {
		return pre
	}
	return v.ver().Metadata()
}

// Prerelease reports whether the metadata marks a prerelease
func (v Version) Prerelease() bool { return v.ver().Prerelease() != "" }

// Ints returns the numeric parts in significance order
func (v Version) Ints() [3]int {
	return [3]int{v.Major(), v.Minor(), v.Patch()}
}

// Map returns the numeric parts indexed by part name
func (v Version) Map() map[Part]int {
	return map[Part]int{Major: v.Major(), Minor: v.Minor(), Patch: v.Patch()}
}

// Bump returns the next version for part with lower parts zeroed and metadata
// dropped. Bumping the patch of a prerelease yields its release.
func (v Version) Bump(part Part) (Version, error) {
	var next mmsemver.Version
	switch part {
	case Major:
		next = v.ver().IncMajor()
	case Minor:
		next = v.ver().IncMinor()
	case Patch:
		next = v.ver().IncPatch()
	default:
		return v, fmt.Errorf("'%s' is not a valid version part", part)
	}
	return Version{v: &next}, nil
}

// Release returns a copy without prerelease info. Build metadata is kept.
func (v Version) Release() Version {
	next, err := v.ver().SetPrerelease("")
	if err != nil {
		return v
	}
	return Version{v: &next}
}

// WithMetadata returns a copy with metadata replaced. The argument includes the
// leading '-' (prerelease) or '+' (build); an empty string clears it.
func (v Version) WithMetadata(metadata string) (Version, error) {
	core := mmsemver.New(v.ver().Major(), v.ver().Minor(), v.ver().Patch(), "", "")
	if metadata == "" {
		return Version{v: core}, nil
	}

	var next mmsemver.Version
	var err error
	switch metadata[0] {
	case '-':
		next, err = core.SetPrerelease(metadata[1:])
	case '+':
		next, err = core.SetMetadata(metadata[1:])
	default:
		return v, fmt.Errorf("'%s' is not valid metadata", metadata)
	}
	if err != nil || len(metadata) == 1 {
		return v, fmt.Errorf("'%s' is not valid metadata", metadata)
	}
	return Version{v: &next}, nil
}

// String returns the version core without metadata
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// FullString returns the version including metadata
func (v Version) FullString() string {
	return v.ver().String()
}

// Compare returns -1, 0 or 1. A prerelease sorts before its release and
// prereleases order by their identifiers; build metadata is ignored.
func (v Version) Compare(o Version) int {
	return v.ver().Compare(o.ver())
}

func (v Version) Less(o Version) bool  { return v.Compare(o) < 0 }
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// AtLeast reports whether v >= min
func (v Version) AtLeast(min Version) bool { return v.Compare(min) >= 0 }
