package versioneer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zerv/zerv-core/providers/ron"
)

var (
	// ErrInvalidSchema is returned when a schema breaks a structural invariant.
	ErrInvalidSchema = errors.New("invalid schema")
)

// Segment is one of the three rendered schema segments.
type Segment int

// Schema segments.
const (
	Core Segment = iota
	ExtraCore
	Build
)

var segmentNames = map[Segment]string{
	Core:      "Core",
	ExtraCore: "ExtraCore",
	Build:     "Build",
}

// DefaultPrecedence is the precedence order used when none is given.
var DefaultPrecedence = []Segment{Core, ExtraCore, Build}

// String returns the canonical segment name.
func (s Segment) String() string {
	if name, ok := segmentNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Segment(%d)", int(s))
}

// ParseSegment resolves a canonical segment name.
func ParseSegment(name string) (Segment, error) {
	for s, n := range segmentNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown segment %q", ErrInvalidSchema, name)
}

// ComponentKind distinguishes field references from literals.
type ComponentKind int

// Component kinds
const (
	KindVar ComponentKind = iota // var("major")
	KindStr                      // str("ubuntu")
	KindInt                      // int(20)
)

// Component is one entry of a schema segment.
type Component struct {
	Kind  ComponentKind
	Field Field  // KindVar
	Str   string // KindStr
	Int   uint64 // KindInt
}

// Var references a model field.
func Var(f Field) Component { return Component{Kind: KindVar, Field: f} }

// Str is a string literal.
func Str(s string) Component { return Component{Kind: KindStr, Str: s} }

// Int is an integer literal.
func Int(n uint64) Component { return Component{Kind: KindInt, Int: n} }

// Literal returns the constant value of a literal component.
func (c Component) Literal() (Value, bool) {
	switch c.Kind {
	case KindStr:
		return StrValue(c.Str), true
	case KindInt:
		return NumValue(c.Int), true
	}
	return Value{}, false
}

// String returns the component in canonical notation.
func (c Component) String() string {
	switch c.Kind {
	case KindStr:
		return "str(" + ron.Quote(c.Str) + ")"
	case KindInt:
		return "int(" + strconv.FormatUint(c.Int, 10) + ")"
	}
	return "var(" + ron.Quote(string(c.Field)) + ")"
}

// Fields builds a segment made of field references only.
func Fields(fields ...Field) []Component {
	out := make([]Component, 0, len(fields))
	for _, f := range fields {
		out = append(out, Var(f))
	}
	return out
}

// Schema declares which fields render in which segment and their precedence.
type Schema struct {
	Core       []Component
	ExtraCore  []Component
	Build      []Component
	Precedence []Segment
}

// NewSchema builds and validates a schema. An empty precedence means DefaultPrecedence.
func NewSchema(core, extraCore, build []Component, precedence ...Segment) (Schema, error) {
	if len(precedence) == 0 {
		precedence = DefaultPrecedence
	}
	s := Schema{
		Core:       normalize(core),
		ExtraCore:  normalize(extraCore),
		Build:      normalize(build),
		Precedence: append([]Segment(nil), precedence...),
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// MustSchema is NewSchema panicking on error. For package-level presets and tests.
func MustSchema(core, extraCore, build []Component, precedence ...Segment) Schema {
	s, err := NewSchema(core, extraCore, build, precedence...)
	if err != nil {
		panic(err)
	}
	return s
}

func normalize(c []Component) []Component {
	if len(c) == 0 {
		return nil
	}
	return append([]Component(nil), c...)
}

// Validate checks the schema invariants.
func (s Schema) Validate() error {
	if len(s.Core) == 0 && len(s.ExtraCore) == 0 && len(s.Build) == 0 {
		return fmt.Errorf("%w: every segment is empty", ErrInvalidSchema)
	}

	seen := map[Field]Segment{}
	for _, seg := range DefaultPrecedence {
		for _, c := range s.Segment(seg) {
			if c.Kind != KindVar {
				continue
			}
			if !c.Field.Valid() {
				return fmt.Errorf("%w: unknown field %q in %s", ErrInvalidSchema, c.Field, seg)
			}
			if prev, dup := seen[c.Field]; dup {
				return fmt.Errorf("%w: field %q appears in %s and %s", ErrInvalidSchema, c.Field, prev, seg)
			}
			seen[c.Field] = seg
		}
	}

	if len(s.Precedence) != len(DefaultPrecedence) {
		return fmt.Errorf("%w: precedence order must name %s exactly once", ErrInvalidSchema, segmentList(DefaultPrecedence))
	}
	named := map[Segment]bool{}
	for _, seg := range s.Precedence {
		if _, ok := segmentNames[seg]; !ok || named[seg] {
			return fmt.Errorf("%w: precedence order %s must name %s exactly once", ErrInvalidSchema, segmentList(s.Precedence), segmentList(DefaultPrecedence))
		}
		named[seg] = true
	}
	return nil
}

func segmentList(segs []Segment) string {
	names := make([]string, 0, len(segs))
	for _, s := range segs {
		names = append(names, s.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Segment returns the components of one segment.
func (s Schema) Segment(seg Segment) []Component {
	switch seg {
	case Core:
		return s.Core
	case ExtraCore:
		return s.ExtraCore
	case Build:
		return s.Build
	}
	return nil
}

func (s Schema) precedence() []Segment {
	if len(s.Precedence) == 0 {
		return DefaultPrecedence
	}
	return s.Precedence
}

// Components returns every component in precedence order.
func (s Schema) Components() []Component {
	var out []Component
	for _, seg := range s.precedence() {
		out = append(out, s.Segment(seg)...)
	}
	return out
}

// FieldOrder resolves the precedence order to the concrete field sequence.
func (s Schema) FieldOrder() []Field {
	var out []Field
	for _, c := range s.Components() {
		if c.Kind == KindVar {
			out = append(out, c.Field)
		}
	}
	return out
}

// Has reports whether any segment references the field.
func (s Schema) Has(f Field) bool {
	_, ok := s.SegmentOf(f)
	return ok
}

// SegmentOf returns the segment a field is rendered in.
func (s Schema) SegmentOf(f Field) (Segment, bool) {
	for _, seg := range DefaultPrecedence {
		for _, c := range s.Segment(seg) {
			if c.Kind == KindVar && c.Field == f {
				return seg, true
			}
		}
	}
	return 0, false
}
