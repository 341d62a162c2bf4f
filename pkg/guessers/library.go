/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: library.go
Description: In-process guessers backed by libraries: a native reader for the text
encoding attribute, the chardet statistical detector, and declared charsets in HTML
and XML markup.
*/

package guessers

import (
	"bytes"
	"context"
	"mime"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/saintfish/chardet"
)

// NativeXattr reads the text encoding attribute through getxattr(2). It
// weighs the attribute like AppleXattr without spawning a process.
func NativeXattr() *guesser.HostGuesser {
	g := guesser.MustHostGuesser("NativeXattr", "1.0", func(ctx context.Context, file string) (*guesser.Guess, error) {
		path, err := filepath.Abs(file)
		if err != nil {
			return nil, nil
		}
		for _, name := range textEncodingAttrNames() {
			value, ok := readXattr(path, name)
			if !ok {
				continue
			}
			label, ok := ParseTextEncodingAttr(value)
			if !ok {
				return nil, nil
			}
			confidence := XattrForeignConfidence
			if runtime.GOOS == "darwin" {
				confidence = XattrNativeConfidence
			}
			return guesser.NewGuess(label, confidence), nil
		}
		return nil, nil
	})
	g.Requires = func() bool { return xattrSupported }
	return g
}

// chardet reports confidence as a percentage
var (
	chardetConfidence = guesser.Interval{Begin: 10, End: 100}
	chardetScaled     = guesser.Interval{Begin: 0.1, End: 0.5}
)

// Chardet runs the ICU derived statistical detector over a file prefix.
// Its percentage is scaled into [0.1, 0.5].
func Chardet() *guesser.SampleGuesser {
	return guesser.NewSampleGuesser("Chardet", guesser.DefaultSampleSize, func(sample []byte) (*guesser.Guess, error) {
		result, err := chardet.NewTextDetector().DetectBest(sample)
		if err != nil || result == nil {
			return nil, nil
		}
		if float64(result.Confidence) < chardetConfidence.Begin {
			return nil, nil
		}
		label, ok := charset.FindIANACharset(result.Charset)
		if !ok {
			return nil, nil
		}
		confidence := guesser.Round(guesser.Scale(float64(result.Confidence), chardetConfidence, chardetScaled), 2)
		return guesser.NewGuess(label, confidence), nil
	})
}

// MarkupConfidence is the weight of a charset declared inside a document
const MarkupConfidence = 0.5

// markupSampleSize covers the head of most documents
const markupSampleSize = 4096

var xmlDeclRegexp = regexp.MustCompile(`^\s*<\?xml\s[^>]*?\bencoding\s*=\s*["']([A-Za-z][A-Za-z0-9._:-]*)["']`)

// DeclaredCharset returns the charset a markup document declares for itself:
// the XML declaration's encoding or an HTML meta charset
func DeclaredCharset(sample []byte) (string, bool) {
	if m := xmlDeclRegexp.FindSubmatch(sample); m != nil {
		return string(m[1]), true
	}

	lower := bytes.ToLower(sample)
	if !bytes.Contains(lower, []byte("<meta")) {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(sample))
	if err != nil {
		return "", false
	}

	var declared string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if cs, ok := s.Attr("charset"); ok && strings.TrimSpace(cs) != "" {
			declared = strings.TrimSpace(cs)
			return false
		}
		if equiv, _ := s.Attr("http-equiv"); strings.EqualFold(equiv, "content-type") {
			content, _ := s.Attr("content")
			if _, params, err := mime.ParseMediaType(content); err == nil && params["charset"] != "" {
				declared = params["charset"]
				return false
			}
		}
		return true
	})
	return declared, declared != ""
}

// Markup guesses from the charset an HTML or XML document declares. A
// declared UTF-16 or UTF-32 is ignored: a document that can be read as
// ASCII to find the declaration is not in either.
func Markup() *guesser.SampleGuesser {
	return guesser.NewSampleGuesser("Markup", markupSampleSize, func(sample []byte) (*guesser.Guess, error) {
		name, ok := DeclaredCharset(sample)
		if !ok {
			return nil, nil
		}
		label, ok := charset.FindIANACharset(name)
		if !ok || wideUnicode(label) {
			return nil, nil
		}
		return guesser.NewGuess(label, MarkupConfidence), nil
	})
}

func wideUnicode(label charset.Label) bool {
	switch label {
	case charset.UTF16, charset.UTF16BE, charset.UTF16LE, charset.UTF32, charset.UTF32BE, charset.UTF32LE:
		return true
	}
	return false
}
