/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: platform.go
Description: Guessers that ask platform tools about a file: file(1) for its MIME charset
and xattr(1) for the text encoding attribute macOS attaches to saved files.
*/

package guessers

import (
	"runtime"
	"strings"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/kleascm/encguess/pkg/shell"
)

// TextEncodingAttr is the extended attribute macOS stores a file's text
// encoding in, formatted as "<iana name>;<CFStringEncoding>"
const TextEncodingAttr = "com.apple.TextEncoding"

// Confidence of the text encoding attribute. On macOS the attribute is
// authoritative; elsewhere the file may have been transcoded since it was set.
const (
	XattrNativeConfidence  = 0.75
	XattrForeignConfidence = 0.25
)

var xattrNativeOS = []string{"darwin"}

// ParseFileOutput extracts the charset from `file --mime` output. "binary"
// yields no guess.
func ParseFileOutput(out string) (*guesser.Guess, error) {
	parts := strings.Split(out, "charset=")
	cset := strings.TrimSpace(parts[len(parts)-1])
	if len(parts) < 2 || cset == "" || strings.Contains(strings.ToLower(cset), "binary") {
		return nil, nil
	}
	label, ok := charset.FindIANACharset(cset)
	if !ok {
		return nil, nil
	}
	return guesser.NewGuess(label, 1.0), nil
}

// ParseTextEncodingAttr extracts the IANA name from a text encoding attribute
func ParseTextEncodingAttr(value string) (charset.Label, bool) {
	name, _, _ := strings.Cut(strings.TrimSpace(value), ";")
	if name == "" {
		return "", false
	}
	return charset.FindIANACharset(name)
}

// File asks file(1) for the MIME charset. It reliably detects ASCII and the
// UTF flavours and falls back to binary or unknown-8bit otherwise.
func File(runner *shell.Runner) *guesser.ShellGuesser {
	g := guesser.NewShellGuesser("File", "file", []string{"--mime", "--brief"}, ParseFileOutput)
	g.RequireSuccess = true
	g.Runner = runner
	return g
}

// AppleXattr reads the text encoding attribute through xattr(1). A file
// without the attribute makes xattr exit non-zero, which is no guess.
func AppleXattr(runner *shell.Runner) *guesser.PlatformGuesser {
	g := guesser.NewPlatformGuesser("AppleXattr", "xattr", []string{"-p", TextEncodingAttr},
		ParseTextEncodingAttr, runtime.GOOS, xattrNativeOS, XattrNativeConfidence, XattrForeignConfidence)
	g.Runner = runner
	return g
}
