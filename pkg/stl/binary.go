package stl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/stlxform/pkg/encoding"
	"github.com/Faultbox/stlxform/pkg/mesh"
)

type binaryReader struct {
	r     io.Reader
	name  string
	count uint32
	read  uint32
	buf   [recordSize]byte
}

func newBinaryReader(r io.Reader) (*binaryReader, error) {
	var pre [preamble]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	return &binaryReader{
		r:     r,
		name:  encoding.FixedStringToUTF8(pre[:headerSize]),
		count: le.Uint32(pre[headerSize:]),
	}, nil
}

func (b *binaryReader) next() (mesh.Triangle, error) {
	if b.read >= b.count {
		return mesh.Triangle{}, io.EOF
	}
	// read the record into a buffer first, so that we can check err once
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return mesh.Triangle{}, fmt.Errorf("%w: triangle %d of %d", ErrTruncated, b.read, b.count)
		}
		return mesh.Triangle{}, err
	}
	b.read++
	return decodeRecord(&b.buf), nil
}

func decodeRecord(buf *[recordSize]byte) mesh.Triangle {
	var t mesh.Triangle
	t.Normal = readVec(buf[0:12])
	for i := range t.Vertices {
		off := 12 + 12*i
		t.Vertices[i] = readVec(buf[off : off+12])
	}
	t.Attr = le.Uint16(buf[48:50])
	return t
}

func readVec(b []byte) mgl32.Vec3 {
	return mgl32.Vec3{
		math.Float32frombits(le.Uint32(b[0:4])),
		math.Float32frombits(le.Uint32(b[4:8])),
		math.Float32frombits(le.Uint32(b[8:12])),
	}
}

func encodeRecord(buf *[recordSize]byte, t mesh.Triangle) {
	putVec(buf[0:12], t.Normal)
	for i, v := range t.Vertices {
		off := 12 + 12*i
		putVec(buf[off:off+12], v)
	}
	le.PutUint16(buf[48:50], t.Attr)
}

func putVec(b []byte, v mgl32.Vec3) {
	le.PutUint32(b[0:4], math.Float32bits(v[0]))
	le.PutUint32(b[4:8], math.Float32bits(v[1]))
	le.PutUint32(b[8:12], math.Float32bits(v[2]))
}

// binaryWriter emits the 84-byte preamble followed by one record per triangle.
//
// When the triangle count is known up front the preamble is written
// immediately. Otherwise a placeholder is written and back-patched on Close
// if the destination can seek; if it cannot, records are held in memory
// until Close.
type binaryWriter struct {
	dst      io.Writer
	bw       *bufio.Writer
	header   [headerSize]byte
	declared int // -1 when unknown
	written  uint32
	seeker   io.WriteSeeker
	start    int64
	pending  *bytes.Buffer
	buf      [recordSize]byte
}

func newBinaryWriter(w io.Writer, name string, count int) (*binaryWriter, error) {
	b := &binaryWriter{dst: w, declared: count}
	copy(b.header[:], encoding.UTF8ToFixedString(name, headerSize))

	if ws, ok := w.(io.WriteSeeker); ok {
		if pos, err := ws.Seek(0, io.SeekCurrent); err == nil {
			b.seeker, b.start = ws, pos
		}
	}
	if count < 0 && b.seeker == nil {
		b.pending = &bytes.Buffer{}
		return b, nil
	}

	b.bw = bufio.NewWriter(w)
	n := uint32(0)
	if count > 0 {
		n = uint32(count)
	}
	if err := b.writePreamble(b.bw, n); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *binaryWriter) writePreamble(w io.Writer, count uint32) error {
	var pre [preamble]byte
	copy(pre[:headerSize], b.header[:])
	le.PutUint32(pre[headerSize:], count)
	_, err := w.Write(pre[:])
	return err
}

func (b *binaryWriter) Write(t mesh.Triangle) error {
	encodeRecord(&b.buf, t)
	var err error
	if b.pending != nil {
		_, err = b.pending.Write(b.buf[:])
	} else {
		_, err = b.bw.Write(b.buf[:])
	}
	if err != nil {
		return err
	}
	b.written++
	return nil
}

// Flush pushes buffered records to the destination.
func (b *binaryWriter) Flush() error {
	if b.bw == nil {
		return nil
	}
	return b.bw.Flush()
}

func (b *binaryWriter) Close() error {
	if b.pending != nil {
		if err := b.writePreamble(b.dst, b.written); err != nil {
			return err
		}
		_, err := b.dst.Write(b.pending.Bytes())
		return err
	}

	if err := b.bw.Flush(); err != nil {
		return err
	}
	if b.declared >= 0 && uint32(b.declared) == b.written {
		return nil
	}
	if b.seeker == nil {
		return fmt.Errorf("%w: declared %d triangles, wrote %d", ErrCountMismatch, b.declared, b.written)
	}
	return b.patchCount()
}

// patchCount rewrites the count field and returns to the end of the stream.
func (b *binaryWriter) patchCount() error {
	end, err := b.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("patching triangle count: %w", err)
	}
	if _, err := b.seeker.Seek(b.start+headerSize, io.SeekStart); err != nil {
		return fmt.Errorf("patching triangle count: %w", err)
	}
	var n [4]byte
	le.PutUint32(n[:], b.written)
	if _, err := b.seeker.Write(n[:]); err != nil {
		return fmt.Errorf("patching triangle count: %w", err)
	}
	_, err = b.seeker.Seek(end, io.SeekStart)
	return err
}
