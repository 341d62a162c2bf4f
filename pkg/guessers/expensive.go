/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: expensive.go
Description: Byte statistics guessers. Each scans the whole file into a ByteSet, so they
run last in the default order and share one scan when queued together.
*/

package guessers

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/kleascm/encguess/pkg/byteset"
	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// ASCII matches files whose sampled bytes are all 7-bit. This includes
// BOM-less UTF-8 that happens to use no multibyte sequences.
func ASCII() *guesser.ByteGuesser {
	return guesser.NewByteGuesser("ASCII", 0, func(set *byteset.ByteSet) (*guesser.Guess, error) {
		if set.Empty() || set.CountOf(byteset.Range(0x00, 0x7f)) != set.Count() {
			return nil, nil
		}
		return guesser.NewGuess(charset.ASCII, 1.0), nil
	})
}

// UTF matches the byte patterns of UTF-8, UTF-16 and UTF-32
func UTF() *guesser.ByteGuesser {
	return guesser.NewByteGuesser("UTF", 0, func(set *byteset.ByteSet) (*guesser.Guess, error) {
		if set.Empty() {
			return nil, nil
		}

		if set.RatioOf(byteset.Bytes(0x00)) > 0.25 {
			// lots of NUL bytes point to UTF-16 or UTF-32
			first, ok, err := set.FirstByte()
			if err != nil || !ok {
				return nil, nil
			}
			label := charset.UTF16
			switch first {
			case 0x00:
				label = charset.UTF32
			case 0xfe:
				label = charset.UTF16BE
			case 0xff:
				label = charset.UTF16LE
			}
			return guesser.NewGuess(label, 0.75), nil
		}

		// every lead byte must be matched by its continuation bytes
		lead := set.CountOf(byteset.Range(0xc0, 0xdf)) +
			set.CountOf(byteset.Range(0xe0, 0xef))*2 +
			set.CountOf(byteset.Range(0xf0, 0xf7))*3
		if lead > 0 && lead == set.CountOf(byteset.Range(0x80, 0xbf)) {
			return guesser.NewGuess(charset.UTF8, 0.75), nil
		}
		return nil, nil
	})
}

// Ratio bounds for the Latin guesser. Below significant a ratio is noise; at
// accept the candidate is taken without testing the rest.
var (
	latinThresholds = guesser.Interval{Begin: 0.0004, End: 0.1}
	latinConfidence = guesser.Interval{Begin: 0.15, End: 0.5}
)

//go:embed data/latin.yaml
var latinYAML []byte

// LatinCandidate is an 8-bit encoding with the bytes characteristic of it
type LatinCandidate struct {
	Label charset.Label
	Bytes []byte
}

type latinEntry struct {
	Encoding   string `yaml:"encoding"`
	Characters string `yaml:"characters"`
}

var loadLatinTable = sync.OnceValues(func() ([]LatinCandidate, error) {
	return ParseLatinTable(latinYAML)
})

// LatinTable returns the embedded diagnostic table in test order
func LatinTable() ([]LatinCandidate, error) {
	return loadLatinTable()
}

// ParseLatinTable decodes a diagnostic table. Characters are mapped to the
// bytes that encode them in each candidate's code page; only bytes above
// 0x7F are kept.
func ParseLatinTable(data []byte) ([]LatinCandidate, error) {
	var entries []latinEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse latin table: %w", err)
	}

	table := make([]LatinCandidate, 0, len(entries))
	for _, e := range entries {
		label, ok := charset.Lookup(e.Encoding)
		if !ok {
			return nil, fmt.Errorf("latin table: unknown encoding %q", e.Encoding)
		}
		enc, err := label.Encoding()
		if err != nil {
			return nil, fmt.Errorf("latin table: %w", err)
		}
		cm, ok := enc.(*charmap.Charmap)
		if !ok {
			return nil, fmt.Errorf("latin table: %s is not a single byte encoding", label)
		}

		var seen [256]bool
		var diag []byte
		for _, r := range e.Characters {
			b, ok := cm.EncodeRune(r)
			if !ok {
				return nil, fmt.Errorf("latin table: %q is not encodable in %s", r, label)
			}
			if b < 0x80 || seen[b] {
				continue
			}
			seen[b] = true
			diag = append(diag, b)
		}
		table = append(table, LatinCandidate{Label: label, Bytes: diag})
	}
	return table, nil
}

// Latin scores 8-bit ISO-8859 variants by the ratio of their diagnostic
// bytes. It is a weak detector for the non Latin script variants.
func Latin() *guesser.ByteGuesser {
	return NewLatin(LatinTable)
}

// NewLatin builds a Latin guesser over the table returned by load
func NewLatin(load func() ([]LatinCandidate, error)) *guesser.ByteGuesser {
	return guesser.NewByteGuesser("Latin", 0, func(set *byteset.ByteSet) (*guesser.Guess, error) {
		if set.Empty() {
			return nil, nil
		}
		table, err := load()
		if err != nil {
			return nil, err
		}

		best, bestRatio := -1, 0.0
		for i, c := range table {
			ratio := set.RatioOf(byteset.Bytes(c.Bytes...))
			if best < 0 || ratio > bestRatio {
				best, bestRatio = i, ratio
			}
			if ratio >= latinThresholds.End {
				break
			}
		}
		if best < 0 || bestRatio < latinThresholds.Begin {
			return nil, nil
		}

		confidence := guesser.Round(guesser.Scale(bestRatio, latinThresholds, latinConfidence), 2)
		return guesser.NewGuess(table[best].Label, confidence), nil
	})
}
