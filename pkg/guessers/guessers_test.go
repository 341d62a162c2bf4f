/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: guessers_test.go
Description: Tests for the built-in guessers: BOM detection, platform tool parsing, byte
statistics, the Latin diagnostic table, library backed detectors and guesser sets.
*/

package guessers

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func guess(t *testing.T, g guesser.Guesser, data []byte) *guesser.Guess {
	t.Helper()
	result, err := g.Guess(context.Background(), writeFile(t, data))
	require.NoError(t, err)
	return result
}

func repeat(b []byte, n int) []byte {
	return []byte(strings.Repeat(string(b), n))
}

func TestDetectBOM(t *testing.T) {
	cases := []struct {
		data  []byte
		label charset.Label
		size  int
	}{
		{[]byte{0x00, 0x00, 0xfe, 0xff, 0x00}, charset.UTF32BE, 4},
		{[]byte{0xff, 0xfe, 0x00, 0x00}, charset.UTF32LE, 4},
		{[]byte{0xef, 0xbb, 0xbf, 'a'}, charset.UTF8, 3},
		{[]byte{0xfe, 0xff, 0x00, 'a'}, charset.UTF16BE, 2},
		{[]byte{0xff, 0xfe, 'a', 0x00}, charset.UTF16LE, 2},
	}
	for _, c := range cases {
		label, size, ok := DetectBOM(c.data)
		require.True(t, ok, "%x", c.data)
		assert.Equal(t, c.label, label)
		assert.Equal(t, c.size, size)
	}

	_, _, ok := DetectBOM([]byte("abc"))
	assert.False(t, ok)
	_, _, ok = DetectBOM(nil)
	assert.False(t, ok)
}

func TestCoreBOM(t *testing.T) {
	g := CoreBOM()
	assert.True(t, g.Available())

	result := guess(t, g, []byte{0xef, 0xbb, 0xbf, 'h', 'i'})
	require.NotNil(t, result)
	assert.Equal(t, charset.UTF8, result.Label)
	assert.Equal(t, 1.0, result.Confidence)

	result = guess(t, g, []byte{0xff, 0xfe, 'h', 0x00})
	require.NotNil(t, result)
	assert.Equal(t, charset.UTF16LE, result.Label)

	assert.Nil(t, guess(t, g, []byte("hi")))
	assert.Nil(t, guess(t, g, nil))
}

func TestHostSkipsBOM(t *testing.T) {
	assert.True(t, HostSkipsBOM())
	for _, b := range coreBOMs {
		assert.True(t, b.skips(), "%s mark kept by decoder", b.label)
	}

	// a decoder expecting another mark does not consume this one
	mismatch := coreBOMs[3]
	mismatch.marker = []byte{0xef, 0xbb, 0xbf}
	assert.False(t, mismatch.skips())
}

func TestMoreBOM(t *testing.T) {
	g := MoreBOM()

	for _, last := range []byte{0x38, 0x39, 0x2b, 0x2f} {
		result := guess(t, g, []byte{0x2b, 0x2f, 0x76, last, 'a'})
		require.NotNil(t, result)
		assert.Equal(t, charset.UTF7, result.Label)
		assert.True(t, result.Label.Dummy())
	}

	result := guess(t, g, []byte{0x84, 0x31, 0x95, 0x33, 'a'})
	require.NotNil(t, result)
	assert.Equal(t, charset.GB18030, result.Label)
	assert.Equal(t, 1.0, result.Confidence)

	assert.Nil(t, guess(t, g, []byte{0x2b, 0x2f, 0x76, 0x30}))
	assert.Nil(t, guess(t, g, []byte{0x2b, 0x2f}))
}

func TestParseFileOutput(t *testing.T) {
	cases := map[string]charset.Label{
		"text/plain; charset=utf-8":                charset.UTF8,
		"text/plain; charset=us-ascii":             charset.ASCII,
		"/tmp/a.txt: text/plain; charset=utf-16le": charset.UTF16LE,
		"text/plain; charset=iso-8859-1":           charset.ISO8859_1,
	}
	for out, want := range cases {
		result, err := ParseFileOutput(out)
		require.NoError(t, err)
		require.NotNil(t, result, out)
		assert.Equal(t, want, result.Label, out)
		assert.Equal(t, 1.0, result.Confidence)
	}

	for _, out := range []string{
		"application/octet-stream; charset=binary",
		"text/plain; charset=unknown-8bit",
		"text/plain",
		"",
	} {
		result, err := ParseFileOutput(out)
		assert.NoError(t, err)
		assert.Nil(t, result, out)
	}
}

func TestFileGuesserRunsTool(t *testing.T) {
	g := File(nil)
	assert.True(t, g.RequireSuccess)

	g.Tool = writeScript(t, `echo "text/plain; charset=iso-8859-1"`)
	result := guess(t, g, []byte("caf\xe9"))
	require.NotNil(t, result)
	assert.Equal(t, charset.ISO8859_1, result.Label)

	g.Tool = writeScript(t, `exit 1`)
	_, err := g.Guess(context.Background(), writeFile(t, []byte("x")))
	assert.Error(t, err)
}

func TestParseTextEncodingAttr(t *testing.T) {
	label, ok := ParseTextEncodingAttr("UTF-8;134217984")
	require.True(t, ok)
	assert.Equal(t, charset.UTF8, label)

	label, ok = ParseTextEncodingAttr("MACINTOSH;0\n")
	require.True(t, ok)
	assert.Equal(t, charset.MacRoman, label)

	_, ok = ParseTextEncodingAttr("")
	assert.False(t, ok)
	_, ok = ParseTextEncodingAttr(";0")
	assert.False(t, ok)
}

func TestAppleXattr(t *testing.T) {
	g := AppleXattr(nil)
	assert.Equal(t, guesser.KindPlatform, g.Kind())
	assert.Equal(t, []string{"-p", TextEncodingAttr}, g.Args)

	g.Tool = writeScript(t, `echo "utf-8;134217984"`)
	result := guess(t, g, []byte("x"))
	require.NotNil(t, result)
	assert.Equal(t, charset.UTF8, result.Label)
	if runtime.GOOS == "darwin" {
		assert.Equal(t, XattrNativeConfidence, result.Confidence)
	} else {
		assert.Equal(t, XattrForeignConfidence, result.Confidence)
	}

	// xattr exits non-zero for a missing attribute
	g.Tool = writeScript(t, `echo "No such xattr" >&2; exit 1`)
	result, err := g.Guess(context.Background(), writeFile(t, []byte("x")))
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestASCII(t *testing.T) {
	g := ASCII()

	result := guess(t, g, repeat([]byte("A"), 100))
	require.NotNil(t, result)
	assert.Equal(t, charset.ASCII, result.Label)
	assert.Equal(t, 1.0, result.Confidence)

	assert.NotNil(t, guess(t, g, []byte{0x00, 0x7f, '\n'}))
	assert.Nil(t, guess(t, g, []byte("caf\xc3\xa9")))
	assert.Nil(t, guess(t, g, nil))
}

func TestUTF(t *testing.T) {
	g := UTF()

	cases := []struct {
		name  string
		data  []byte
		label charset.Label
	}{
		{"utf-16le with bom", []byte{0xff, 0xfe, 'a', 0x00, 'b', 0x00, 'c', 0x00}, charset.UTF16LE},
		{"utf-16be with bom", []byte{0xfe, 0xff, 0x00, 'a', 0x00, 'b', 0x00, 'c'}, charset.UTF16BE},
		{"utf-32", repeat([]byte{0x00, 0x00, 0x00, 'a'}, 4), charset.UTF32},
		{"utf-16 without bom", repeat([]byte{'a', 0x00}, 4), charset.UTF16},
		{"utf-8", []byte("h\xc3\xa9llo w\xc3\xb6rld \xe2\x82\xac \xf0\x9f\x98\x80"), charset.UTF8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := guess(t, g, c.data)
			require.NotNil(t, result)
			assert.Equal(t, c.label, result.Label)
			assert.Equal(t, 0.75, result.Confidence)
		})
	}

	assert.Nil(t, guess(t, g, []byte("plain ascii")))
	assert.Nil(t, guess(t, g, []byte("caf\xe9 cr\xe8me")))
	assert.Nil(t, guess(t, g, nil))
}

func TestLatinTable(t *testing.T) {
	table, err := LatinTable()
	require.NoError(t, err)

	labels := make([]charset.Label, len(table))
	for i, c := range table {
		labels[i] = c.Label
		assert.NotEmpty(t, c.Bytes, c.Label)
		for _, b := range c.Bytes {
			assert.GreaterOrEqual(t, b, byte(0x80))
		}
	}
	assert.Equal(t, []charset.Label{
		charset.ISO8859_1, charset.ISO8859_15, charset.ISO8859_2,
		charset.ISO8859_9, charset.ISO8859_5, charset.ISO8859_7,
	}, labels)
	assert.Contains(t, table[0].Bytes, byte(0xe4)) // ä
	assert.Contains(t, table[1].Bytes, byte(0xa4)) // €
}

func TestParseLatinTableErrors(t *testing.T) {
	_, err := ParseLatinTable([]byte("- encoding: no-such-encoding\n  characters: a\n"))
	assert.Error(t, err)

	_, err = ParseLatinTable([]byte("- encoding: UTF-8\n  characters: é\n"))
	assert.Error(t, err)

	_, err = ParseLatinTable([]byte("- encoding: ISO-8859-1\n  characters: €\n"))
	assert.Error(t, err)

	_, err = ParseLatinTable([]byte("- encoding: ISO-8859-1\n  chars: é\n"))
	assert.Error(t, err)
}

func TestLatin(t *testing.T) {
	g := Latin()

	// one diagnostic byte in a hundred
	result := guess(t, g, append([]byte{0xe4}, repeat([]byte("a"), 99)...))
	require.NotNil(t, result)
	assert.Equal(t, charset.ISO8859_1, result.Label)
	assert.Equal(t, 0.18, result.Confidence)

	result = guess(t, g, append([]byte{0xa4}, repeat([]byte("a"), 99)...))
	require.NotNil(t, result)
	assert.Equal(t, charset.ISO8859_15, result.Label)

	// an accepting ratio clamps to the top of the confidence range
	result = guess(t, g, append(repeat([]byte{0xe4}, 20), repeat([]byte("a"), 80)...))
	require.NotNil(t, result)
	assert.Equal(t, charset.ISO8859_1, result.Label)
	assert.Equal(t, 0.5, result.Confidence)

	// below the significance threshold
	assert.Nil(t, guess(t, g, append([]byte{0xe4}, repeat([]byte("a"), 9999)...)))
	assert.Nil(t, guess(t, g, repeat([]byte("a"), 100)))
	assert.Nil(t, guess(t, g, nil))
}

func TestLatinKeepsAcceptingCandidate(t *testing.T) {
	loads := 0
	table := []LatinCandidate{
		{Label: charset.ISO8859_1, Bytes: []byte{0xe9}},
		{Label: charset.ISO8859_5, Bytes: []byte{0xd0}},
		{Label: charset.ISO8859_7, Bytes: []byte{0xd0}},
	}
	g := NewLatin(func() ([]LatinCandidate, error) {
		loads++
		return table, nil
	})

	result := guess(t, g, append(repeat([]byte{0xd0}, 50), repeat([]byte("a"), 50)...))
	require.NotNil(t, result)
	assert.Equal(t, charset.ISO8859_5, result.Label)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, 1, loads)
}

func TestMarkup(t *testing.T) {
	g := Markup()

	cases := map[string]charset.Label{
		`<!DOCTYPE html><html><head><meta charset="ISO-8859-1"><title>x</title></head></html>`:                          charset.ISO8859_1,
		`<html><head><meta http-equiv="Content-Type" content="text/html; charset=utf-8"></head><body>x</body></html>`: charset.UTF8,
		`<?xml version="1.0" encoding="iso-8859-15"?><root/>`:                                                          charset.ISO8859_15,
	}
	for doc, want := range cases {
		result := guess(t, g, []byte(doc))
		require.NotNil(t, result, doc)
		assert.Equal(t, want, result.Label, doc)
		assert.Equal(t, MarkupConfidence, result.Confidence)
	}

	assert.Nil(t, guess(t, g, []byte(`<html><head><meta charset="utf-16"></head></html>`)))
	assert.Nil(t, guess(t, g, []byte(`<html><body>no declaration</body></html>`)))
	assert.Nil(t, guess(t, g, []byte("plain text")))
}

func TestDeclaredCharset(t *testing.T) {
	name, ok := DeclaredCharset([]byte("<?xml version='1.0' encoding='Shift_JIS'?>\n<a/>"))
	require.True(t, ok)
	assert.Equal(t, "Shift_JIS", name)

	_, ok = DeclaredCharset([]byte(`<?xml version="1.0"?><a/>`))
	assert.False(t, ok)
}

func TestChardet(t *testing.T) {
	g := Chardet()
	assert.Equal(t, guesser.KindSample, g.Kind())

	text := strings.Repeat("Grüße aus Köln, señor! Ça va très bien. Žluťoučký kůň. ", 20)
	result := guess(t, g, []byte(text))
	require.NotNil(t, result)
	assert.Equal(t, charset.UTF8, result.Label)
	assert.Greater(t, result.Confidence, 0.1)
	assert.LessOrEqual(t, result.Confidence, 0.5)

	assert.Nil(t, guess(t, g, nil))
}

func TestSets(t *testing.T) {
	names := func(set []guesser.Guesser) []string {
		out := make([]string, len(set))
		for i, g := range set {
			out[i] = g.Name()
		}
		return out
	}

	assert.Equal(t, DefaultOrder, names(DefaultSet(nil)))
	assert.Equal(t, ExtendedOrder, names(ExtendedSet(nil)))

	g, err := Named("latin", nil)
	require.NoError(t, err)
	assert.Equal(t, "Latin", g.Name())

	_, err = Named("nope", nil)
	assert.ErrorContains(t, err, "unknown guesser")

	_, err = Build([]string{"ASCII", "nope"}, nil)
	assert.Error(t, err)

	all := Names()
	assert.Len(t, all, 10)
	assert.IsIncreasing(t, all)
	assert.Contains(t, all, "NativeXattr")
}
