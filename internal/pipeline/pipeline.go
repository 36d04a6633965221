// Package pipeline wires STL decoding, the transform engine and STL
// encoding into a single run over files or standard streams.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/stlxform/internal/logger"
	"github.com/Faultbox/stlxform/pkg/mesh"
	"github.com/Faultbox/stlxform/pkg/stl"
	"github.com/Faultbox/stlxform/pkg/xform"
)

// StdStream is the path that selects standard input or output.
const StdStream = "-"

// Options configures Run.
type Options struct {
	Input     string     // path, or "" / "-" for Stdin
	Output    string     // path, or "" / "-" for Stdout
	Format    stl.Format // output encoding; FormatAuto keeps the input's
	SolidName string     // overrides the name carried over from the input

	// Stream writes a binary output's declared count up front even when the
	// output cannot be rewound. Without it such outputs are held in memory
	// until the end so a partial run still declares the right count; with
	// it a short input fails with stl.ErrCountMismatch instead.
	Stream bool

	Stdin  io.Reader // defaults to os.Stdin
	Stdout io.Writer // defaults to os.Stdout
}

// Stats summarises a completed run.
type Stats struct {
	Triangles    int
	InputFormat  stl.Format
	OutputFormat stl.Format
	Name         string
	Bounds       mesh.Bounds // extent of the written mesh
	ZeroNormals  int         // triangles written with a zero normal
	Degenerate   int         // triangles whose vertices span no area
}

// Run reads the input mesh, applies ops and writes the result.
//
// The output is only created once the input header has decoded, so a bad
// input never clobbers an existing output file. When ops contain a Center
// the whole input is read before the output is created.
func Run(opts Options, ops xform.OperationList) (Stats, error) {
	var stats Stats

	logger.Debug("starting run",
		zap.String("input", displayPath(opts.Input)),
		zap.String("output", displayPath(opts.Output)),
		zap.Stringer("ops", ops),
	)

	in, size, closeIn, err := openInput(opts)
	if err != nil {
		return stats, err
	}
	defer closeIn()

	r, err := stl.NewReader(in, size)
	if err != nil {
		return stats, fmt.Errorf("reading %s: %w", displayPath(opts.Input), err)
	}
	stats.InputFormat = r.Format()
	stats.Name = r.Name()
	if opts.SolidName != "" {
		stats.Name = opts.SolidName
	}

	stats.OutputFormat = opts.Format
	if stats.OutputFormat == stl.FormatAuto {
		stats.OutputFormat = r.Format()
	}

	count, known := r.Count()
	var src xform.Source = r
	if ops.NeedsBounds() {
		tris, err := stl.ReadAll(r)
		if err != nil {
			return stats, &xform.MeshReadError{Index: len(tris), Err: err}
		}
		src = xform.Slice(tris)
		count, known = len(tris), true
	}

	out, seekable, closeOut, err := openOutput(opts)
	if err != nil {
		return stats, err
	}

	// A declared count is only trusted when it can be patched afterwards,
	// unless the caller asked to stream.
	wopts := stl.WriterOptions{Format: stats.OutputFormat, Name: stats.Name, Count: -1}
	if known && (seekable || opts.Stream) {
		wopts.Count = count
	}
	w, err := stl.NewWriter(out, wopts)
	if err != nil {
		closeOut()
		return stats, fmt.Errorf("writing %s: %w", displayPath(opts.Output), err)
	}

	sink := &boundsSink{w: w}
	n, runErr := xform.Run(ops, src, sink)
	stats.Triangles = n
	stats.Bounds = sink.bounds
	stats.ZeroNormals = sink.zeroNormals
	stats.Degenerate = sink.degenerate

	// Close even after a failure so the written prefix is a valid file.
	if err := w.Close(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("closing %s: %w", displayPath(opts.Output), err))
	}
	if err := closeOut(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr != nil {
		return stats, runErr
	}

	if stats.ZeroNormals > 0 || stats.Degenerate > 0 {
		logger.Warn("mesh has unusable facets",
			zap.Int("zero_normals", stats.ZeroNormals),
			zap.Int("degenerate", stats.Degenerate),
		)
	}
	logger.Info("transformed mesh",
		zap.Int("triangles", stats.Triangles),
		zap.Stringer("input_format", stats.InputFormat),
		zap.Stringer("output_format", stats.OutputFormat),
		zap.String("name", stats.Name),
		zap.Stringer("bounds", stats.Bounds),
		zap.Any("size", stats.Bounds.Size()),
	)
	return stats, nil
}

// openInput returns the input stream and its size. Standard input is read
// into memory so format detection can rely on the length.
func openInput(opts Options) (io.Reader, int64, func(), error) {
	if opts.Input == "" || opts.Input == StdStream {
		stdin := opts.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("reading standard input: %w", err)
		}
		return bytes.NewReader(data), int64(len(data)), func() {}, nil
	}

	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, 0, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, err
	}

	// Pipes and devices have no usable size, and an input that is also the
	// output would be truncated under the reader. Both are read up front.
	if !info.Mode().IsRegular() || sameFile(info, opts.Output) {
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("reading %s: %w", opts.Input, err)
		}
		return bytes.NewReader(data), int64(len(data)), func() {}, nil
	}
	return f, info.Size(), func() { f.Close() }, nil
}

// sameFile reports whether path names the file described by info.
func sameFile(info os.FileInfo, path string) bool {
	if path == "" || path == StdStream {
		return false
	}
	out, err := os.Stat(path)
	return err == nil && os.SameFile(info, out)
}

// openOutput returns the output stream and whether it can be rewound.
func openOutput(opts Options) (io.Writer, bool, func() error, error) {
	if opts.Output == "" || opts.Output == StdStream {
		stdout := opts.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		return stdout, false, func() error { return nil }, nil
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return nil, false, nil, err
	}
	info, err := f.Stat()
	seekable := err == nil && info.Mode().IsRegular()
	return f, seekable, f.Close, nil
}

func displayPath(p string) string {
	if p == "" || p == StdStream {
		return "<std>"
	}
	return p
}

// boundsSink forwards to an STL writer and tracks the written extent and
// facets that carry no usable orientation.
type boundsSink struct {
	w           stl.Writer
	bounds      mesh.Bounds
	zeroNormals int
	degenerate  int
}

func (s *boundsSink) Write(t mesh.Triangle) error {
	if err := s.w.Write(t); err != nil {
		return err
	}
	s.bounds.ExtendTriangle(t)
	if t.Normal == (mgl32.Vec3{}) {
		s.zeroNormals++
	}
	if t.FaceNormal() == (mgl32.Vec3{}) {
		s.degenerate++
	}
	return nil
}

func (s *boundsSink) Flush() error {
	return s.w.Flush()
}
