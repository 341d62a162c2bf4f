/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: convert_test.go
Description: Tests for transcoding to UTF-8.
*/

package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	cases := []struct {
		name  string
		data  []byte
		label charset.Label
		want  string
	}{
		{"latin1", []byte("caf\xe9"), charset.ISO8859_1, "café"},
		{"latin9 euro", []byte("5\xa4"), charset.ISO8859_15, "5€"},
		{"mac roman", []byte("caf\x8e"), charset.MacRoman, "café"},
		{"utf-8 bom", []byte("\xef\xbb\xbfhi"), charset.UTF8, "hi"},
		{"utf-16le bom", []byte{0xff, 0xfe, 'h', 0x00, 'i', 0x00}, charset.UTF16LE, "hi"},
		{"utf-16 dummy with bom", []byte{0xfe, 0xff, 0x00, 'h', 0x00, 'i'}, charset.UTF16, "hi"},
		{"utf-32le", []byte{'h', 0, 0, 0, 'i', 0, 0, 0}, charset.UTF32LE, "hi"},
		{"utf-32be bom", []byte{0, 0, 0xfe, 0xff, 0, 0, 0, 'h'}, charset.UTF32, "h"},
		{"ascii", []byte("plain"), charset.ASCII, "plain"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := Bytes(c.data, c.label)
			require.NoError(t, err)
			assert.Equal(t, c.want, string(out))
		})
	}
}

func TestBytesUnsupportedLabel(t *testing.T) {
	_, err := Bytes([]byte("+AGEAYgBj-"), charset.UTF7)
	assert.Error(t, err)

	_, err = Bytes([]byte("x"), charset.Label("no-such-encoding"))
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(src, []byte("na\xefve r\xe9sum\xe9"), 0640))

	dst := filepath.Join(dir, "out.txt")
	n, err := File(src, dst, charset.ISO8859_1)
	require.NoError(t, err)

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "naïve résumé", string(out))
	assert.Equal(t, int64(len(out)), n)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	// in place
	_, err = File(src, src, charset.ISO8859_1)
	require.NoError(t, err)
	out, err = os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "naïve résumé", string(out))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileMissingSource(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "out"), charset.UTF8)
	assert.Error(t, err)
}
