/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: charset.go
Description: Encoding label space for encguess. Defines the canonical labels guessers
report, which of them are dummy (placeholder) encodings, and how a label resolves
to a golang.org/x/text decoder.
*/

package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Label is a canonical encoding name
type Label string

const (
	ASCII      Label = "US-ASCII"
	UTF8       Label = "UTF-8"
	UTF7       Label = "UTF-7"
	UTF16      Label = "UTF-16"
	UTF16BE    Label = "UTF-16BE"
	UTF16LE    Label = "UTF-16LE"
	UTF32      Label = "UTF-32"
	UTF32BE    Label = "UTF-32BE"
	UTF32LE    Label = "UTF-32LE"
	GB18030    Label = "GB18030"
	ISO2022JP  Label = "ISO-2022-JP"
	MacRoman   Label = "macRoman"
	ISO8859_1  Label = "ISO-8859-1"
	ISO8859_2  Label = "ISO-8859-2"
	ISO8859_5  Label = "ISO-8859-5"
	ISO8859_7  Label = "ISO-8859-7"
	ISO8859_9  Label = "ISO-8859-9"
	ISO8859_15 Label = "ISO-8859-15"
)

// entry describes a label known without consulting the IANA index
type entry struct {
	label   Label
	aliases []string
	dummy   bool
	enc     encoding.Encoding
}

// registry holds labels whose dummy status or decoder needs pinning down.
// UTF-16 and UTF-32 without endianness are dummies: they only decode with a BOM.
var registry = []entry{
	{label: ASCII, aliases: []string{"ascii", "us-ascii", "ansi_x3.4-1968"}, enc: unicode.UTF8},
	{label: UTF8, aliases: []string{"utf8", "utf-8"}, enc: unicode.UTF8},
	{label: UTF7, aliases: []string{"utf7", "utf-7"}, dummy: true},
	{label: UTF16, aliases: []string{"utf16", "utf-16"}, dummy: true, enc: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
	{label: UTF16BE, aliases: []string{"utf-16be"}, enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	{label: UTF16LE, aliases: []string{"utf-16le"}, enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{label: UTF32, aliases: []string{"utf32", "utf-32"}, dummy: true, enc: utf32.UTF32(utf32.BigEndian, utf32.UseBOM)},
	{label: UTF32BE, aliases: []string{"utf-32be"}, enc: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	{label: UTF32LE, aliases: []string{"utf-32le"}, enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	{label: GB18030, aliases: []string{"gb18030", "gb-18030"}, enc: simplifiedchinese.GB18030},
	{label: ISO2022JP, aliases: []string{"iso-2022-jp"}, dummy: true, enc: japanese.ISO2022JP},
	{label: MacRoman, aliases: []string{"macroman", "mac", "x-mac-roman"}, enc: charmap.Macintosh},
}

var byAlias = func() map[string]*entry {
	m := make(map[string]*entry)
	for i := range registry {
		e := &registry[i]
		m[strings.ToLower(string(e.label))] = e
		for _, a := range e.aliases {
			m[a] = e
		}
	}
	return m
}()

// Lookup resolves a label or alias to its canonical label. Names missing from
// the local registry are resolved through the IANA index.
func Lookup(name string) (Label, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if e, ok := byAlias[key]; ok {
		return e.label, true
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return "", false
	}
	canonical, err := ianaindex.MIME.Name(enc)
	if err != nil {
		if canonical, err = ianaindex.IANA.Name(enc); err != nil {
			return "", false
		}
	}
	if e, ok := byAlias[strings.ToLower(canonical)]; ok {
		return e.label, true
	}
	return Label(canonical), true
}

// Dummy reports whether the label is a placeholder that cannot be decoded on
// its own
func (l Label) Dummy() bool {
	if e, ok := byAlias[strings.ToLower(string(l))]; ok {
		return e.dummy
	}
	return false
}

// Encoding returns the decoder backing the label
func (l Label) Encoding() (encoding.Encoding, error) {
	if e, ok := byAlias[strings.ToLower(string(l))]; ok {
		if e.enc == nil {
			return nil, fmt.Errorf("no decoder available for %s", l)
		}
		return e.enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(string(l))
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %s: %w", l, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("no decoder available for %s", l)
	}
	return enc, nil
}

func (l Label) String() string {
	return string(l)
}
