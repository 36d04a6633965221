package stl

import (
	"fmt"
	"io"

	"github.com/Faultbox/stlxform/pkg/mesh"
)

// Writer consumes triangles one at a time.
// Close must be called to complete the file; it does not close the
// underlying io.Writer.
type Writer interface {
	Write(t mesh.Triangle) error
	Flush() error
	Close() error
}

// WriterOptions configures NewWriter.
type WriterOptions struct {
	Format Format // FormatBinary or FormatASCII
	Name   string // solid name or binary header text (truncated to 80 bytes)
	Count  int    // triangles that will be written, or -1 when unknown
}

// NewWriter creates a Writer for the requested encoding.
func NewWriter(w io.Writer, opts WriterOptions) (Writer, error) {
	switch opts.Format {
	case FormatBinary:
		b, err := newBinaryWriter(w, opts.Name, opts.Count)
		if err != nil {
			return nil, err
		}
		return b, nil
	case FormatASCII:
		a, err := newASCIIWriter(w, opts.Name)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, opts.Format)
	}
}

// WriteAll writes every triangle and closes the writer.
func WriteAll(w Writer, tris []mesh.Triangle) error {
	for i, t := range tris {
		if err := w.Write(t); err != nil {
			return fmt.Errorf("writing triangle %d: %w", i, err)
		}
	}
	return w.Close()
}
