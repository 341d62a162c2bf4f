/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: byteset.go
Description: Queryable byte distribution for a file. A ByteSet samples a prefix of the
file once (or the whole file) into a frequency table and answers count, ratio and
prefix queries without rereading the sampled bytes.
*/

package byteset

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Spec selects byte values for CountOf and RatioOf
type Spec interface {
	bytes() []byte
}

type byteList []byte

func (b byteList) bytes() []byte { return b }

type byteRange struct{ lo, hi byte }

func (r byteRange) bytes() []byte {
	out := make([]byte, 0, int(r.hi)-int(r.lo)+1)
	for b := int(r.lo); b <= int(r.hi); b++ {
		out = append(out, byte(b))
	}
	return out
}

// Bytes selects individual byte values
func Bytes(b ...byte) Spec { return byteList(b) }

// Range selects the inclusive range lo..hi
func Range(lo, hi byte) Spec {
	if lo > hi {
		lo, hi = hi, lo
	}
	return byteRange{lo: lo, hi: hi}
}

// Any is a set of acceptable bytes at one position in StartsWith
type Any []byte

// ByteSet is an immutable byte frequency table of a file prefix
type ByteSet struct {
	path      string
	chunkSize int
	count     int
	counts    [256]int
}

// New samples path. A chunkSize of 0 samples the whole file.
func New(path string, chunkSize int) (*ByteSet, error) {
	if chunkSize < 0 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	bs := &ByteSet{path: path, chunkSize: chunkSize}
	r := bufio.NewReader(f)
	for chunkSize == 0 || bs.count < chunkSize {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		bs.counts[b]++
		bs.count++
	}

	return bs, nil
}

// Path returns the sampled file path
func (bs *ByteSet) Path() string { return bs.path }

// Count returns the number of sampled bytes
func (bs *ByteSet) Count() int { return bs.count }

// ChunkSize returns the sampling limit, 0 when the whole file was read
func (bs *ByteSet) ChunkSize() int { return bs.chunkSize }

// Empty reports whether no bytes were sampled
func (bs *ByteSet) Empty() bool { return bs.count == 0 }

// First rereads the file and returns up to n leading bytes in order
func (bs *ByteSet) First(n int) ([]byte, error) {
	return Head(bs.path, n)
}

// Head returns up to n leading bytes of path without sampling it
func Head(path string, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return buf[:read], nil
}

// FirstByte returns the leading byte; ok is false for an empty file
func (bs *ByteSet) FirstByte() (b byte, ok bool, err error) {
	first, err := bs.First(1)
	if err != nil || len(first) == 0 {
		return 0, false, err
	}
	return first[0], true, nil
}

// StartsWith rereads the file and checks each leading byte against the
// corresponding set. Members of a set are OR matched.
func (bs *ByteSet) StartsWith(sets ...Any) (bool, error) {
	first, err := bs.First(len(sets))
	if err != nil {
		return false, err
	}
	if len(first) < len(sets) {
		return false, nil
	}
	for i, set := range sets {
		if !contains(set, first[i]) {
			return false, nil
		}
	}
	return true, nil
}

// CountOf sums the sampled frequency of every selected byte. Overlapping
// specs are counted once per occurrence in the arguments.
func (bs *ByteSet) CountOf(specs ...Spec) int {
	total := 0
	for _, s := range specs {
		for _, b := range s.bytes() {
			total += bs.counts[b]
		}
	}
	return total
}

// RatioOf is CountOf divided by Count. An empty ByteSet yields 0.
func (bs *ByteSet) RatioOf(specs ...Spec) float64 {
	if bs.count == 0 {
		return 0
	}
	return float64(bs.CountOf(specs...)) / float64(bs.count)
}

func contains(set Any, b byte) bool {
	for _, c := range set {
		if c == b {
			return true
		}
	}
	return false
}
