package xform

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type flagDef struct {
	takesValue bool
	handle     func(ops *OperationList, flag, value string, index int) error
}

// Parser turns a raw argument stream into an OperationList in a single
// ordered pass. Transform flags are built in; callers register any other
// flags they need with StringVar and BoolVar so they can share the pass.
type Parser struct {
	flags map[string]flagDef
}

// NewParser returns a parser with the transform flags registered.
func NewParser() *Parser {
	p := &Parser{flags: make(map[string]flagDef)}

	translate := flagDef{takesValue: true, handle: translate}
	p.flags["--translate"] = translate
	p.flags["-t"] = translate

	p.flags["--rx"] = flagDef{takesValue: true, handle: rotate(OpRotateX)}
	p.flags["--ry"] = flagDef{takesValue: true, handle: rotate(OpRotateY)}
	p.flags["--rz"] = flagDef{takesValue: true, handle: rotate(OpRotateZ)}

	p.flags["--mx"] = flagDef{handle: appendOp(MirrorX())}
	p.flags["--my"] = flagDef{handle: appendOp(MirrorY())}
	p.flags["--mz"] = flagDef{handle: appendOp(MirrorZ())}
	p.flags["--center"] = flagDef{handle: appendOp(Center())}

	return p
}

// Parse parses args with a default parser.
func Parse(args []string) (OperationList, error) {
	return NewParser().Parse(args)
}

// StringVar registers a value-taking flag under every name in names
// (e.g. "-i", "--input"). The last occurrence wins.
func (p *Parser) StringVar(dst *string, names ...string) {
	def := flagDef{takesValue: true, handle: func(_ *OperationList, _, value string, _ int) error {
		*dst = value
		return nil
	}}
	for _, n := range names {
		p.flags[n] = def
	}
}

// BoolVar registers a switch that sets *dst to true when present.
func (p *Parser) BoolVar(dst *bool, names ...string) {
	def := flagDef{handle: func(*OperationList, string, string, int) error {
		*dst = true
		return nil
	}}
	for _, n := range names {
		p.flags[n] = def
	}
}

// Parse walks args left to right and appends one op per transform flag in
// the order the flags appear. "--flag=value" is accepted for long flags.
// The token after a value-taking flag is always its value, even if it
// starts with a dash.
func (p *Parser) Parse(args []string) (OperationList, error) {
	ops := OperationList{}
	for i := 0; i < len(args); i++ {
		tok := args[i]
		name, value, inline := tok, "", false
		if strings.HasPrefix(tok, "--") {
			if k := strings.IndexByte(tok, '='); k >= 0 {
				name, value, inline = tok[:k], tok[k+1:], true
			}
		}

		def, ok := p.flags[name]
		if !ok || (inline && !def.takesValue) {
			return nil, &ParseError{Kind: UnknownArgument, Flag: tok}
		}

		index := i
		if def.takesValue && !inline {
			if i+1 >= len(args) {
				return nil, &ParseError{Kind: MissingValue, Flag: name}
			}
			i++
			value = args[i]
		}

		if err := def.handle(&ops, name, value, index); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func appendOp(op Op) func(*OperationList, string, string, int) error {
	return func(ops *OperationList, _, _ string, index int) error {
		op.Index = index
		*ops = append(*ops, op)
		return nil
	}
}

func rotate(kind OpKind) func(*OperationList, string, string, int) error {
	return func(ops *OperationList, flag, value string, index int) error {
		angle, err := parseFloat(value)
		if err != nil {
			return &ParseError{Kind: InvalidNumber, Flag: flag, Value: value, Err: err}
		}
		*ops = append(*ops, Op{Kind: kind, Angle: angle, Index: index})
		return nil
	}
}

func translate(ops *OperationList, flag, value string, index int) error {
	fields := strings.Split(value, ",")
	if len(fields) != 3 {
		return &ParseError{Kind: InvalidVector, Flag: flag, Value: value}
	}
	var d mgl32.Vec3
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return &ParseError{Kind: InvalidVector, Flag: flag, Value: value, Err: err}
		}
		d[i] = v
	}
	*ops = append(*ops, Op{Kind: OpTranslate, Delta: d, Index: index})
	return nil
}

// parseFloat parses a finite single-precision float.
func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &strconv.NumError{Func: "ParseFloat", Num: s, Err: strconv.ErrRange}
	}
	return float32(f), nil
}
