package xform

import (
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/stlxform/pkg/mesh"
)

// Source yields triangles one at a time and returns io.EOF after the last.
type Source interface {
	Next() (mesh.Triangle, error)
}

// Sink consumes triangles in order.
type Sink interface {
	Write(t mesh.Triangle) error
}

// flusher is implemented by sinks that buffer.
type flusher interface {
	Flush() error
}

// Stream reads every triangle from src, transforms it and writes it to dst
// before reading the next one. It returns the number of triangles written.
//
// A source failure returns *MeshReadError; everything written before it has
// been flushed to dst.
func Stream(tr Transform, src Source, dst Sink) (int, error) {
	n := 0
	for {
		t, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			if f, ok := dst.(flusher); ok {
				if ferr := f.Flush(); ferr != nil {
					return n, errors.Join(&MeshReadError{Index: n, Err: err}, ferr)
				}
			}
			return n, &MeshReadError{Index: n, Err: err}
		}
		if err := dst.Write(tr.Apply(t)); err != nil {
			return n, fmt.Errorf("writing triangle %d: %w", n, err)
		}
		n++
	}
}

// Run compiles ops and streams src through them into dst.
//
// Center ops need the extent of the mesh, so when ops contains one the
// source is read to the end before anything is written. A read failure in
// that case produces no output.
func Run(ops OperationList, src Source, dst Sink) (int, error) {
	if !ops.NeedsBounds() {
		return Stream(Compile(ops), src, dst)
	}

	var tris []mesh.Triangle
	for {
		t, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, &MeshReadError{Index: len(tris), Err: err}
		}
		tris = append(tris, t)
	}

	resolved := ResolveCenters(ops, tris)
	return Stream(Compile(resolved), &sliceSource{tris: tris}, dst)
}

// ResolveCenters returns a copy of ops where each Center op is replaced by
// the translation that moves the bounding-box center of tris, as
// transformed by the preceding ops, to the origin.
func ResolveCenters(ops OperationList, tris []mesh.Triangle) OperationList {
	out := make(OperationList, len(ops))
	copy(out, ops)
	for i, op := range out {
		if op.Kind != OpCenter {
			continue
		}
		prefix := Compile(out[:i]).Position
		var b mesh.Bounds
		for _, t := range tris {
			for _, v := range t.Vertices {
				b.Extend(prefix.Point(v))
			}
		}
		c := b.Center()
		out[i] = Op{Kind: OpTranslate, Delta: c.Mul(-1), Index: op.Index}
	}
	return out
}

// sliceSource replays buffered triangles.
type sliceSource struct {
	tris []mesh.Triangle
	pos  int
}

func (s *sliceSource) Next() (mesh.Triangle, error) {
	if s.pos >= len(s.tris) {
		return mesh.Triangle{}, io.EOF
	}
	t := s.tris[s.pos]
	s.pos++
	return t, nil
}

// Collect is a Sink that keeps every triangle in memory.
type Collect struct {
	Triangles []mesh.Triangle
}

// Write appends t.
func (c *Collect) Write(t mesh.Triangle) error {
	c.Triangles = append(c.Triangles, t)
	return nil
}

// Slice returns a Source over tris.
func Slice(tris []mesh.Triangle) Source {
	return &sliceSource{tris: tris}
}
