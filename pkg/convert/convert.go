/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: convert.go
Description: Transcoding of guessed files to UTF-8. Streams the source through the
golang.org/x/text decoder for its label, dropping any leading byte order mark.
*/

package convert

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/guessers"
	"golang.org/x/text/transform"
)

// NewReader returns a reader yielding the UTF-8 text of r, which is encoded
// as label. A byte order mark is dropped; when it names a different UTF
// flavour than label, the mark wins.
func NewReader(r io.Reader, label charset.Label) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)
	if bomLabel, size, ok := guessers.DetectBOM(head); ok && bomCompatible(label, bomLabel) {
		if _, err := br.Discard(size); err != nil {
			return nil, fmt.Errorf("failed to skip byte order mark: %w", err)
		}
		label = bomLabel
	}

	enc, err := label.Encoding()
	if err != nil {
		return nil, err
	}
	return transform.NewReader(br, enc.NewDecoder()), nil
}

// bomCompatible reports whether a mark for bom may override label
func bomCompatible(label, bom charset.Label) bool {
	switch label {
	case bom, charset.UTF16, charset.UTF32, charset.UTF16BE, charset.UTF16LE, charset.UTF32BE, charset.UTF32LE:
		return true
	case charset.UTF8, charset.ASCII:
		return bom == charset.UTF8
	}
	return false
}

// Bytes transcodes data from label to UTF-8
func Bytes(data []byte, label charset.Label) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data), label)
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", label, err)
	}
	return out, nil
}

// File transcodes src from label into dst as UTF-8 and returns the bytes
// written. dst is replaced atomically; src and dst may be the same file.
func File(src, dst string, label charset.Label) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	r, err := NewReader(in, label)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to convert %s from %s: %w", src, label, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if info, err := in.Stat(); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	return n, nil
}
