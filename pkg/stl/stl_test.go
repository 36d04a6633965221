package stl

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/stlxform/pkg/mesh"
)

var testTris = []mesh.Triangle{
	{
		Normal:   mgl32.Vec3{0, 0, 1},
		Vertices: [3]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
	},
	{
		Normal:   mgl32.Vec3{1, 1, 1},
		Vertices: [3]mgl32.Vec3{{0, 0, 0}, {1, 2, 3}, {3, 2, -1}},
		Attr:     0x7fff,
	},
}

// makeBinary builds a binary STL in memory.
func makeBinary(header string, declared uint32, tris []mesh.Triangle) []byte {
	data := make([]byte, preamble)
	copy(data, header)
	le.PutUint32(data[headerSize:], declared)
	var rec [recordSize]byte
	for _, t := range tris {
		encodeRecord(&rec, t)
		data = append(data, rec[:]...)
	}
	return data
}

const asciiCube = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
  facet normal 1 1 1
    outer loop
      vertex 0 0 0
      vertex 1 2 3
      vertex 3 2 -1
    endloop
  endfacet
endsolid tri
`

func TestBinaryReader(t *testing.T) {
	data := makeBinary("COLOR=", 2, testTris)

	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Format() != FormatBinary {
		t.Errorf("format = %s, want binary", r.Format())
	}
	if r.Name() != "COLOR=" {
		t.Errorf("name = %q, want COLOR=", r.Name())
	}
	if n, ok := r.Count(); !ok || n != 2 {
		t.Errorf("count = %d, %v; want 2, true", n, ok)
	}

	tris, err := ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(tris))
	}
	for i := range tris {
		if tris[i] != testTris[i] {
			t.Errorf("triangle %d: got %v, want %v", i, tris[i], testTris[i])
		}
	}
	if tris[1].Attr != 0x7fff {
		t.Errorf("attr = %#x, want 0x7fff", tris[1].Attr)
	}
}

func TestBinaryReaderTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", makeBinary("", 1, testTris[:1])[:10]},
		{"short record", makeBinary("", 2, testTris)[:preamble+recordSize+20]},
		{"missing record", makeBinary("", 3, testTris)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(tt.data), -1)
			if err == nil {
				_, err = ReadAll(r)
			}
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("expected ErrTruncated, got %v", err)
			}
		})
	}
}

func TestBinaryReaderPartialTriangles(t *testing.T) {
	data := makeBinary("", 2, testTris)
	r, err := NewReader(bytes.NewReader(data[:len(data)-1]), -1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	first, err := r.Next()
	if err != nil {
		t.Fatalf("first triangle: %v", err)
	}
	if first != testTris[0] {
		t.Errorf("first triangle: got %v", first)
	}
	if _, err := r.Next(); !errors.Is(err, ErrTruncated) {
		t.Errorf("second triangle: expected ErrTruncated, got %v", err)
	}
}

func TestASCIIReader(t *testing.T) {
	r, err := NewReader(strings.NewReader(asciiCube), -1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Format() != FormatASCII {
		t.Errorf("format = %s, want ascii", r.Format())
	}
	if r.Name() != "tri" {
		t.Errorf("name = %q, want tri", r.Name())
	}
	if _, ok := r.Count(); ok {
		t.Error("ASCII files do not declare a count")
	}

	tris, err := ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(tris))
	}
	for i := range tris {
		want := testTris[i]
		want.Attr = 0
		if tris[i] != want {
			t.Errorf("triangle %d: got %v, want %v", i, tris[i], want)
		}
	}
}

func TestASCIIReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "bad number",
			input:   "solid x\nfacet normal 0 0 abc\n",
			wantErr: ErrSyntax,
		},
		{
			name:    "wrong keyword",
			input:   "solid x\nfacet normal 0 0 1\nouter strip\n",
			wantErr: ErrSyntax,
		},
		{
			name:    "unexpected token",
			input:   "solid x\nvertex 0 0 0\n",
			wantErr: ErrSyntax,
		},
		{
			name:    "cut off mid facet",
			input:   "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\n",
			wantErr: ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(strings.NewReader(tt.input), -1)
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			_, err = ReadAll(r)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestASCIIMissingEndsolid(t *testing.T) {
	input := strings.TrimSuffix(asciiCube, "endsolid tri\n")
	r, err := NewReader(strings.NewReader(input), -1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	tris, err := ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(tris) != 2 {
		t.Errorf("expected 2 triangles, got %d", len(tris))
	}
}

func TestDetect(t *testing.T) {
	solidHeader := makeBinary("solid exported by CAD", 1, testTris[:1])

	tests := []struct {
		name string
		data []byte
		size int64
		want Format
	}{
		{"ascii", []byte(asciiCube), int64(len(asciiCube)), FormatASCII},
		{"ascii unknown size", []byte(asciiCube), -1, FormatASCII},
		{"ascii leading whitespace", []byte("\n  " + asciiCube), -1, FormatASCII},
		{"binary", makeBinary("", 1, testTris[:1]), -1, FormatBinary},
		{"binary with solid header and known size", solidHeader, int64(len(solidHeader)), FormatBinary},
		{"binary with solid header and unknown size", solidHeader, -1, FormatASCII},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head := tt.data
			if len(head) > preamble {
				head = head[:preamble]
			}
			if got := detect(head, tt.size); got != tt.want {
				t.Errorf("detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"Binary", FormatBinary, false},
		{"ascii", FormatASCII, false},
		{"obj", FormatAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBinaryWriterKnownCount(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WriterOptions{Format: FormatBinary, Name: "COLOR=", Count: 2})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := WriteAll(w, testTris); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	if want := makeBinary("COLOR=", 2, testTris); !bytes.Equal(buf.Bytes(), want) {
		t.Error("binary output does not match expected encoding")
	}
}

func TestBinaryWriterUnknownCountBuffers(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WriterOptions{Format: FormatBinary, Count: -1})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(testTris[0]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() != 0 {
		t.Error("non-seekable output should be held until Close")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if want := makeBinary("", 1, testTris[:1]); !bytes.Equal(buf.Bytes(), want) {
		t.Error("buffered output does not match expected encoding")
	}
}

func TestBinaryWriterPatchesSeekableCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.stl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	// Declare more triangles than are written, as after an aborted read.
	w, err := NewWriter(f, WriterOptions{Format: FormatBinary, Count: 5})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := WriteAll(w, testTris); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if want := makeBinary("", 2, testTris); !bytes.Equal(data, want) {
		t.Error("count was not patched to the number of written triangles")
	}
}

func TestBinaryWriterCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WriterOptions{Format: FormatBinary, Count: 3})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := WriteAll(w, testTris); !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestASCIIWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WriterOptions{Format: FormatASCII, Name: "tri"})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := WriteAll(w, testTris); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "solid tri\n") || !strings.HasSuffix(out, "endsolid tri\n") {
		t.Errorf("missing solid/endsolid framing:\n%s", out)
	}
	if got := strings.Count(out, "endfacet"); got != 2 {
		t.Errorf("expected 2 facets, got %d", got)
	}

	// The text must parse back to the same geometry.
	r, err := NewReader(&buf, -1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	tris, err := ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	for i := range tris {
		if tris[i].Vertices != testTris[i].Vertices || tris[i].Normal != testTris[i].Normal {
			t.Errorf("triangle %d: got %v, want %v", i, tris[i], testTris[i])
		}
	}
}

func TestNewWriterUnknownFormat(t *testing.T) {
	if _, err := NewWriter(io.Discard, WriterOptions{Format: FormatAuto}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestBinaryHeaderText(t *testing.T) {
	data := makeBinary("caf\xe9 export", 1, testTris[:1])
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Name() != "café export" {
		t.Errorf("name = %q, want windows-1252 header decoded", r.Name())
	}

	// names survive a binary round trip and are cut to the header size
	long := strings.Repeat("é", 50)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WriterOptions{Format: FormatBinary, Name: long, Count: 0})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r, err = NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Name() != strings.Repeat("é", 40) {
		t.Errorf("name = %q, want 40 runes", r.Name())
	}
}

func TestASCIIRejectsBinaryLookalike(t *testing.T) {
	data := makeBinary("solid exported by CAD", 1, testTris[:1])
	if _, err := NewReader(bytes.NewReader(data), -1); !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax for binary data read as ASCII, got %v", err)
	}
}

func TestASCIIEmptyBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"header only", "solid x\n", ErrSyntax},
		{"explicit empty solid", "solid x\nendsolid x\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(strings.NewReader(tt.input), -1)
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			tris, err := ReadAll(r)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(tris) != 0 {
				t.Errorf("expected no triangles, got %d", len(tris))
			}
		})
	}
}
