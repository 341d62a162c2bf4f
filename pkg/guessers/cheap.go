/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: cheap.go
Description: Encoding guessers with high reliability and low overhead. Both look only at
the leading bytes of a file for a byte order mark.
*/

package guessers

import (
	"bytes"
	"context"
	"sync"

	"github.com/kleascm/encguess/pkg/byteset"
	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

type bom struct {
	label  charset.Label
	marker []byte
	// skipper is the host decoder expected to consume marker, and sample
	// is "A" in the label's encoding
	skipper encoding.Encoding
	sample  []byte
}

// coreBOMs are the marks the host decoders skip. UTF-32 marks come first
// because the UTF-16 marks are their prefixes.
var coreBOMs = []bom{
	{charset.UTF32BE, []byte{0x00, 0x00, 0xfe, 0xff}, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM), []byte{0x00, 0x00, 0x00, 0x41}},
	{charset.UTF32LE, []byte{0xff, 0xfe, 0x00, 0x00}, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM), []byte{0x41, 0x00, 0x00, 0x00}},
	{charset.UTF8, []byte{0xef, 0xbb, 0xbf}, unicode.UTF8BOM, []byte{0x41}},
	{charset.UTF16BE, []byte{0xfe, 0xff}, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), []byte{0x00, 0x41}},
	{charset.UTF16LE, []byte{0xff, 0xfe}, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), []byte{0x41, 0x00}},
}

// skips reports whether the host decoder drops the mark in front of sample
func (b bom) skips() bool {
	data := append(append([]byte{}, b.marker...), b.sample...)
	decoded, err := b.skipper.NewDecoder().Bytes(data)
	return err == nil && string(decoded) == "A"
}

// HostSkipsBOM reports whether the golang.org/x/text decoders consume every
// mark CoreBOM detects. The answer is computed once.
var HostSkipsBOM = sync.OnceValue(func() bool {
	for _, b := range coreBOMs {
		if !b.skips() {
			return false
		}
	}
	return true
})

// DetectBOM returns the label whose byte order mark prefixes data
func DetectBOM(data []byte) (charset.Label, int, bool) {
	for _, b := range coreBOMs {
		if bytes.HasPrefix(data, b.marker) {
			return b.label, len(b.marker), true
		}
	}
	return "", 0, false
}

// CoreBOM detects UTF-8, UTF-16 and UTF-32 byte order marks
func CoreBOM() *guesser.HostGuesser {
	g := guesser.MustHostGuesser("CoreBOM", "1.0", func(ctx context.Context, file string) (*guesser.Guess, error) {
		prefix, err := byteset.Head(file, 4)
		if err != nil {
			return nil, nil
		}
		if label, _, ok := DetectBOM(prefix); ok {
			return guesser.NewGuess(label, 1.0), nil
		}
		return nil, nil
	})
	g.Requires = HostSkipsBOM
	return g
}

// MoreBOM detects the UTF-7 and GB18030 marks the host decoders do not skip
func MoreBOM() *guesser.ByteGuesser {
	return guesser.NewByteGuesser("MoreBOM", 4, func(set *byteset.ByteSet) (*guesser.Guess, error) {
		utf7, err := set.StartsWith(byteset.Any{0x2b}, byteset.Any{0x2f}, byteset.Any{0x76}, byteset.Any{0x38, 0x39, 0x2b, 0x2f})
		if err != nil {
			return nil, nil
		}
		if utf7 {
			return guesser.NewGuess(charset.UTF7, 1.0), nil
		}
		gb, err := set.StartsWith(byteset.Any{0x84}, byteset.Any{0x31}, byteset.Any{0x95}, byteset.Any{0x33})
		if err != nil {
			return nil, nil
		}
		if gb {
			return guesser.NewGuess(charset.GB18030, 1.0), nil
		}
		return nil, nil
	})
}
