package xform

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want OperationList
	}{
		{
			name: "empty",
			args: nil,
			want: OperationList{},
		},
		{
			name: "translate long and short",
			args: []string{"--translate", "1,2,3", "-t", "-1,0,0.5"},
			want: OperationList{
				{Kind: OpTranslate, Delta: mgl32.Vec3{1, 2, 3}, Index: 0},
				{Kind: OpTranslate, Delta: mgl32.Vec3{-1, 0, 0.5}, Index: 2},
			},
		},
		{
			name: "rotation before translation keeps written order",
			args: []string{"--rx", "90", "-t", "1,0,0"},
			want: OperationList{
				{Kind: OpRotateX, Angle: 90, Index: 0},
				{Kind: OpTranslate, Delta: mgl32.Vec3{1, 0, 0}, Index: 2},
			},
		},
		{
			name: "interleaved flags are not grouped",
			args: []string{"--rx", "1", "--mx", "--rx", "2"},
			want: OperationList{
				{Kind: OpRotateX, Angle: 1, Index: 0},
				{Kind: OpMirrorX, Index: 2},
				{Kind: OpRotateX, Angle: 2, Index: 3},
			},
		},
		{
			name: "mirrors and center take no value",
			args: []string{"--my", "--mz", "--center", "--my"},
			want: OperationList{
				{Kind: OpMirrorY, Index: 0},
				{Kind: OpMirrorZ, Index: 1},
				{Kind: OpCenter, Index: 2},
				{Kind: OpMirrorY, Index: 3},
			},
		},
		{
			name: "negative values and inline form",
			args: []string{"--rz", "-1.5", "--ry=0.25", "--translate=0,0,-2"},
			want: OperationList{
				{Kind: OpRotateZ, Angle: -1.5, Index: 0},
				{Kind: OpRotateY, Angle: 0.25, Index: 2},
				{Kind: OpTranslate, Delta: mgl32.Vec3{0, 0, -2}, Index: 3},
			},
		},
		{
			name: "spaces around vector components",
			args: []string{"-t", " 1, 2 ,3"},
			want: OperationList{
				{Kind: OpTranslate, Delta: mgl32.Vec3{1, 2, 3}, Index: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.args, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.args, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantKind ErrorKind
		wantErr  error
		wantFlag string
	}{
		{"two components", []string{"-t", "1,2"}, InvalidVector, ErrInvalidVector, "-t"},
		{"four components", []string{"--translate", "1,2,3,4"}, InvalidVector, ErrInvalidVector, "--translate"},
		{"non-numeric component", []string{"-t", "1,x,3"}, InvalidVector, ErrInvalidVector, "-t"},
		{"empty component", []string{"-t", "1,,3"}, InvalidVector, ErrInvalidVector, "-t"},
		{"bad angle", []string{"--rx", "ninety"}, InvalidNumber, ErrInvalidNumber, "--rx"},
		{"nan angle", []string{"--ry", "NaN"}, InvalidNumber, ErrInvalidNumber, "--ry"},
		{"infinite component", []string{"-t", "1,Inf,3"}, InvalidVector, ErrInvalidVector, "-t"},
		{"unknown flag", []string{"--bogus"}, UnknownArgument, ErrUnknownArgument, "--bogus"},
		{"stray positional", []string{"--mx", "model.stl"}, UnknownArgument, ErrUnknownArgument, "model.stl"},
		{"value on a switch", []string{"--mx=1"}, UnknownArgument, ErrUnknownArgument, "--mx=1"},
		{"missing rotation value", []string{"--mx", "--rz"}, MissingValue, ErrMissingValue, "--rz"},
		{"missing translate value", []string{"-t"}, MissingValue, ErrMissingValue, "-t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := Parse(tt.args)
			if err == nil {
				t.Fatalf("expected error, got ops %v", ops)
			}
			if ops != nil {
				t.Errorf("expected no ops on error, got %v", ops)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", pe.Kind, tt.wantKind)
			}
			if pe.Flag != tt.wantFlag {
				t.Errorf("flag = %q, want %q", pe.Flag, tt.wantFlag)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantErr)
			}
		})
	}
}

func TestParseErrorStopsAtFirstProblem(t *testing.T) {
	// --bogus must be reported even though a valid op precedes it, and the
	// bad vector after it is never looked at.
	_, err := Parse([]string{"--rx", "1", "--bogus", "-t", "1,2"})
	if !errors.Is(err, ErrUnknownArgument) {
		t.Errorf("expected unknown argument, got %v", err)
	}
}

func TestDegreesToRadians(t *testing.T) {
	parsed, err := Parse([]string{"--rz", "90", "-t", "90,0,0"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ops := parsed.DegreesToRadians()
	if parsed[0].Angle != 90 {
		t.Error("DegreesToRadians must not modify its receiver")
	}
	if got := ops[0].Angle; math.Abs(float64(got)-math.Pi/2) > 1e-6 {
		t.Errorf("angle = %v, want π/2", got)
	}
	// translations are never converted
	if ops[1].Delta != (mgl32.Vec3{90, 0, 0}) {
		t.Errorf("delta = %v, want (90, 0, 0)", ops[1].Delta)
	}
}

func TestParserSettingFlags(t *testing.T) {
	var in, out string
	var debug bool

	p := NewParser()
	p.StringVar(&in, "-i", "--input")
	p.StringVar(&out, "-o", "--output")
	p.BoolVar(&debug, "--debug")

	ops, err := p.Parse([]string{"-i", "a.stl", "--mx", "--output=b.stl", "--debug", "-t", "1,0,0"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if in != "a.stl" || out != "b.stl" || !debug {
		t.Errorf("settings: in=%q out=%q debug=%v", in, out, debug)
	}
	want := OperationList{
		{Kind: OpMirrorX, Index: 2},
		{Kind: OpTranslate, Delta: mgl32.Vec3{1, 0, 0}, Index: 5},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}

	// a dash-prefixed file name is still a value
	if _, err := p.Parse([]string{"-o", "-"}); err != nil || out != "-" {
		t.Errorf("dash value: out=%q err=%v", out, err)
	}
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		err  *ParseError
		want string
	}{
		{&ParseError{Kind: InvalidNumber, Flag: "--rx", Value: "abc"}, `--rx: invalid number "abc"`},
		{&ParseError{Kind: InvalidVector, Flag: "-t", Value: "1,2"}, `-t: invalid vector "1,2" (want X,Y,Z)`},
		{&ParseError{Kind: UnknownArgument, Flag: "--bogus"}, `unknown argument "--bogus"`},
		{&ParseError{Kind: MissingValue, Flag: "--rz"}, `--rz: missing value`},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
