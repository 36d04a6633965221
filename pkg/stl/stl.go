// Package stl provides streaming readers and writers for STL triangle meshes,
// in both the binary and the ASCII encoding.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/stlxform/pkg/mesh"
)

// STL format errors.
var (
	ErrTruncated     = errors.New("truncated STL data")
	ErrSyntax        = errors.New("invalid ASCII STL syntax")
	ErrUnknownFormat = errors.New("unknown STL format")
	ErrCountMismatch = errors.New("binary STL triangle count mismatch")
)

const (
	headerSize = 80
	recordSize = 50 // 12 float32 + uint16 attribute
	preamble   = headerSize + 4
)

// short name, for convenience
var le = binary.LittleEndian

// Format identifies an STL encoding.
type Format int

const (
	FormatAuto Format = iota // resolve from the input
	FormatBinary
	FormatASCII
)

// String returns the config/CLI name of the format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatBinary:
		return "binary"
	case FormatASCII:
		return "ascii"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ParseFormat converts "auto", "binary" or "ascii" into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "binary", "bin":
		return FormatBinary, nil
	case "ascii", "text":
		return FormatASCII, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Reader streams triangles out of an STL file one at a time.
type Reader struct {
	format Format
	name   string
	count  int // -1 when the encoding does not declare it
	next   func() (mesh.Triangle, error)
}

// NewReader detects the encoding of r and reads its header.
//
// size is the total length of the stream, or -1 when unknown. A binary file
// whose header happens to start with "solid" is only recognised as binary
// when the size is known and matches the declared triangle count.
func NewReader(r io.Reader, size int64) (*Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(preamble)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	switch detect(head, size) {
	case FormatASCII:
		a, err := newASCIIReader(br)
		if err != nil {
			return nil, err
		}
		return &Reader{format: FormatASCII, name: a.name, count: -1, next: a.next}, nil
	default:
		b, err := newBinaryReader(br)
		if err != nil {
			return nil, err
		}
		return &Reader{format: FormatBinary, name: b.name, count: int(b.count), next: b.next}, nil
	}
}

// detect guesses the encoding from the first bytes of the stream.
func detect(head []byte, size int64) Format {
	if len(head) >= preamble && size >= 0 {
		n := int64(le.Uint32(head[headerSize:preamble]))
		if preamble+n*recordSize == size {
			return FormatBinary
		}
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		return FormatASCII
	}
	return FormatBinary
}

// Format returns the detected encoding.
func (r *Reader) Format() Format {
	return r.format
}

// Name returns the solid name (ASCII) or the trimmed header text (binary).
func (r *Reader) Name() string {
	return r.name
}

// Count returns the declared triangle count, if the encoding has one.
func (r *Reader) Count() (int, bool) {
	return r.count, r.count >= 0
}

// Next returns the next triangle, or io.EOF after the last one.
func (r *Reader) Next() (mesh.Triangle, error) {
	return r.next()
}

// ReadAll drains r into a slice.
func ReadAll(r *Reader) ([]mesh.Triangle, error) {
	var tris []mesh.Triangle
	if n, ok := r.Count(); ok {
		tris = make([]mesh.Triangle, 0, n)
	}
	for {
		t, err := r.Next()
		if errors.Is(err, io.EOF) {
			return tris, nil
		}
		if err != nil {
			return tris, err
		}
		tris = append(tris, t)
	}
}
