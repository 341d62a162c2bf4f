/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: xattr_unix.go
Description: In-process reader for the text encoding attribute on platforms with
extended attribute syscalls.
*/

//go:build linux || darwin

package guessers

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// xattrSupported reports whether the platform exposes getxattr(2)
const xattrSupported = true

// textEncodingAttrNames lists the names the attribute is stored under. Linux
// keeps attributes copied from macOS in the user namespace.
func textEncodingAttrNames() []string {
	if runtime.GOOS == "darwin" {
		return []string{TextEncodingAttr}
	}
	return []string{"user." + TextEncodingAttr, TextEncodingAttr}
}

// readXattr returns the attribute value, or ok false when it is missing or
// unreadable
func readXattr(path, name string) (string, bool) {
	size, err := unix.Getxattr(path, name, nil)
	if err != nil || size <= 0 {
		return "", false
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, name, buf)
	if err != nil {
		return "", false
	}
	return string(buf[:n]), true
}
