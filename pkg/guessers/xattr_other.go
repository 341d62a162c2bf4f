/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: xattr_other.go
Description: Extended attribute fallback for platforms without getxattr(2).
*/

//go:build !linux && !darwin

package guessers

const xattrSupported = false

func textEncodingAttrNames() []string { return nil }

func readXattr(path, name string) (string, bool) { return "", false }
