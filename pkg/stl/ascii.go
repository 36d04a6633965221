package stl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/stlxform/pkg/mesh"
)

// asciiReader tokenizes an ASCII STL stream line by line.
type asciiReader struct {
	sc     *bufio.Scanner
	line   int
	tokens []string
	name   string
	facets int
	done   bool
}

func newASCIIReader(r io.Reader) (*asciiReader, error) {
	a := &asciiReader{sc: bufio.NewScanner(r)}
	a.sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tok, err := a.token()
	if err != nil {
		return nil, a.syntax("expected 'solid'")
	}
	if !strings.EqualFold(tok, "solid") {
		return nil, a.syntax("expected 'solid', got %q", tok)
	}
	// the rest of the line is the solid name
	a.name = strings.Join(a.tokens, " ")
	a.tokens = nil
	if !validName(a.name) {
		return nil, a.syntax("solid name is not text")
	}
	return a, nil
}

// validName rejects names carrying binary data, such as a binary file whose
// header happens to start with "solid".
func validName(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// token returns the next whitespace-separated word.
func (a *asciiReader) token() (string, error) {
	for len(a.tokens) == 0 {
		if !a.sc.Scan() {
			if err := a.sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		a.line++
		a.tokens = strings.Fields(a.sc.Text())
	}
	tok := a.tokens[0]
	a.tokens = a.tokens[1:]
	return tok, nil
}

func (a *asciiReader) syntax(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, a.line, fmt.Sprintf(format, args...))
}

// expect consumes the given keywords in order (case-insensitive).
func (a *asciiReader) expect(words ...string) error {
	for _, w := range words {
		tok, err := a.token()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: line %d: expected %q", ErrTruncated, a.line, w)
		}
		if err != nil {
			return err
		}
		if !strings.EqualFold(tok, w) {
			return a.syntax("expected %q, got %q", w, tok)
		}
	}
	return nil
}

func (a *asciiReader) vec() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		tok, err := a.token()
		if errors.Is(err, io.EOF) {
			return v, fmt.Errorf("%w: line %d: expected number", ErrTruncated, a.line)
		}
		if err != nil {
			return v, err
		}
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return v, a.syntax("invalid number %q", tok)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func (a *asciiReader) next() (mesh.Triangle, error) {
	var t mesh.Triangle
	if a.done {
		return t, io.EOF
	}

	tok, err := a.token()
	if errors.Is(err, io.EOF) {
		// tolerate a missing endsolid, but not a file with no body at all
		if a.facets == 0 {
			return t, a.syntax("unexpected end of file, expected 'facet' or 'endsolid'")
		}
		a.done = true
		return t, io.EOF
	}
	if err != nil {
		return t, err
	}
	switch strings.ToLower(tok) {
	case "endsolid":
		a.done = true
		return t, io.EOF
	case "facet":
	default:
		return t, a.syntax("expected 'facet' or 'endsolid', got %q", tok)
	}

	if err := a.expect("normal"); err != nil {
		return t, err
	}
	if t.Normal, err = a.vec(); err != nil {
		return t, err
	}
	if err := a.expect("outer", "loop"); err != nil {
		return t, err
	}
	for i := range t.Vertices {
		if err := a.expect("vertex"); err != nil {
			return t, err
		}
		if t.Vertices[i], err = a.vec(); err != nil {
			return t, err
		}
	}
	if err := a.expect("endloop", "endfacet"); err != nil {
		return t, err
	}
	a.facets++
	return t, nil
}

// asciiWriter streams facets as text.
type asciiWriter struct {
	bw   *bufio.Writer
	name string
}

func newASCIIWriter(w io.Writer, name string) (*asciiWriter, error) {
	a := &asciiWriter{bw: bufio.NewWriter(w), name: name}
	if _, err := fmt.Fprintf(a.bw, "solid %s\n", name); err != nil {
		return nil, err
	}
	return a, nil
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'e', -1, 32)
}

func formatVec(v mgl32.Vec3) string {
	return formatFloat(v[0]) + " " + formatFloat(v[1]) + " " + formatFloat(v[2])
}

func (a *asciiWriter) Write(t mesh.Triangle) error {
	_, err := fmt.Fprintf(a.bw,
		"  facet normal %s\n    outer loop\n      vertex %s\n      vertex %s\n      vertex %s\n    endloop\n  endfacet\n",
		formatVec(t.Normal), formatVec(t.Vertices[0]), formatVec(t.Vertices[1]), formatVec(t.Vertices[2]))
	return err
}

// Flush pushes buffered facets to the destination.
func (a *asciiWriter) Flush() error {
	return a.bw.Flush()
}

func (a *asciiWriter) Close() error {
	if _, err := fmt.Fprintf(a.bw, "endsolid %s\n", a.name); err != nil {
		return err
	}
	return a.bw.Flush()
}
