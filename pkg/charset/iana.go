/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: iana.go
Description: IANA charset name mapping. Translates charset names reported by external
tools (file, xattr) into encguess labels, covering the IANA names the label registry
does not resolve on its own.
*/

package charset

import "strings"

// ianaOverrides maps IANA names to registry names. An empty value means the
// IANA code deliberately maps to no encoding.
var ianaOverrides = map[string]string{
	"macintosh":    string(MacRoman),
	"unknown-8bit": "", // registered IANA code (MIBEnum 2079)
}

// FindIANACharset resolves an IANA charset name to a label
func FindIANACharset(name string) (Label, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := ianaOverrides[key]; ok {
		if mapped == "" {
			return "", false
		}
		key = mapped
	}
	return Lookup(key)
}
