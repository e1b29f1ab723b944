package versioneer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zerv/zerv-core/providers/ron"
)

var (
	// ErrMalformed is returned when a canonical document cannot be decoded.
	ErrMalformed = errors.New("malformed canonical document")
)

const indent = "    "

// Serialize writes the canonical textual form of z.
func Serialize(z Zerv) string {
	var b strings.Builder
	b.WriteString("(\n")
	b.WriteString(indent + "schema: ")
	writeSchema(&b, z.Schema, indent)
	b.WriteString(",\n")
	b.WriteString(indent + "vars: (\n")
	writeVars(&b, z.Vars, indent+indent)
	b.WriteString(indent + "),\n")
	b.WriteString(")\n")
	return b.String()
}

// SerializeSchema writes a schema in the notation accepted by ParseSchema.
func SerializeSchema(s Schema) string {
	var b strings.Builder
	writeSchema(&b, s, "")
	b.WriteString("\n")
	return b.String()
}

func writeSchema(b *strings.Builder, s Schema, pad string) {
	inner := pad + indent
	b.WriteString("(\n")
	fmt.Fprintf(b, "%score: %s,\n", inner, componentList(s.Core))
	fmt.Fprintf(b, "%sextra_core: %s,\n", inner, componentList(s.ExtraCore))
	fmt.Fprintf(b, "%sbuild: %s,\n", inner, componentList(s.Build))
	fmt.Fprintf(b, "%sprecedence_order: %s,\n", inner, segmentList(s.precedence()))
	b.WriteString(pad + ")")
}

func componentList(cs []Component) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func writeVars(b *strings.Builder, v Vars, pad string) {
	line := func(name, value string) {
		fmt.Fprintf(b, "%s%s: %s,\n", pad, name, value)
	}
	line("major", optUint(v.Major))
	line("minor", optUint(v.Minor))
	line("patch", optUint(v.Patch))
	line("epoch", optUint(v.Epoch))
	line("pre_release", optPreRelease(v.PreRelease))
	line("post", optUint(v.Post))
	line("dev", optUint(v.Dev))
	line("distance", optUint(v.Distance))
	if v.Dirty == nil {
		line("dirty", "None")
	} else {
		line("dirty", "Some("+strconv.FormatBool(*v.Dirty)+")")
	}
	line("bumped_branch", optString(v.BumpedBranch))
	line("bumped_commit_hash", optString(v.BumpedCommitHash))
	line("bumped_timestamp", optInt(v.BumpedTimestamp))
	line("last_branch", optString(v.LastBranch))
	line("last_commit_hash", optString(v.LastCommitHash))
	line("last_timestamp", optInt(v.LastTimestamp))
	line("last_tag_version", optString(v.LastTagVersion))

	entries := make([]string, 0, len(v.Custom))
	for _, e := range v.Custom {
		val := ron.Quote(e.Value.Str)
		if e.Value.IsNum {
			val = strconv.FormatUint(e.Value.Num, 10)
		}
		entries = append(entries, ron.Quote(e.Key)+": "+val)
	}
	line("custom", "{"+strings.Join(entries, ", ")+"}")
}

func optUint(p *uint64) string {
	if p == nil {
		return "None"
	}
	return "Some(" + strconv.FormatUint(*p, 10) + ")"
}

func optInt(p *int64) string {
	if p == nil {
		return "None"
	}
	return "Some(" + strconv.FormatInt(*p, 10) + ")"
}

func optString(p *string) string {
	if p == nil {
		return "None"
	}
	return "Some(" + ron.Quote(*p) + ")"
}

func optPreRelease(p *PreRelease) string {
	if p == nil {
		return "None"
	}
	return fmt.Sprintf("Some((label: %s, number: %s))", p.Label.RON(), optUint(p.Number))
}

// Deserialize decodes a canonical document. Decoding is atomic: on any error the
// zero Zerv is returned.
func Deserialize(text string) (Zerv, error) {
	root, err := ron.Parse(text)
	if err != nil {
		return Zerv{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	fields, err := root.StructFields()
	if err != nil {
		return Zerv{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var (
		z                  Zerv
		hasSchema, hasVars bool
	)
	for _, f := range fields {
		switch f.Name {
		case "schema":
			if z.Schema, err = decodeSchema(f.Value); err != nil {
				return Zerv{}, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
			hasSchema = true
		case "vars":
			if z.Vars, err = decodeVars(f.Value); err != nil {
				return Zerv{}, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
			hasVars = true
		default:
			return Zerv{}, fmt.Errorf("%w: %w", ErrMalformed, f.Value.Errorf("unknown section %q", f.Name))
		}
	}
	if !hasSchema || !hasVars {
		return Zerv{}, fmt.Errorf("%w: document requires both schema and vars sections", ErrMalformed)
	}
	return z, nil
}

// ParseSchema reads a raw schema definition and validates it.
func ParseSchema(text string) (Schema, error) {
	root, err := ron.Parse(text)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	s, err := decodeSchema(root)
	if err != nil && !errors.Is(err, ErrInvalidSchema) {
		return Schema{}, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return s, err
}

func decodeSchema(n *ron.Node) (Schema, error) {
	fields, err := n.StructFields()
	if err != nil {
		return Schema{}, err
	}
	var (
		core, extra, build []Component
		precedence         []Segment
	)
	for _, f := range fields {
		switch f.Name {
		case "core":
			core, err = decodeComponents(f.Value)
		case "extra_core":
			extra, err = decodeComponents(f.Value)
		case "build":
			build, err = decodeComponents(f.Value)
		case "precedence_order":
			precedence, err = decodeSegments(f.Value)
		default:
			err = f.Value.Errorf("unknown schema field %q", f.Name)
		}
		if err != nil {
			return Schema{}, err
		}
	}
	return NewSchema(core, extra, build, precedence...)
}

func decodeComponents(n *ron.Node) ([]Component, error) {
	items, err := n.ListItems()
	if err != nil {
		return nil, err
	}
	out := make([]Component, 0, len(items))
	for _, item := range items {
		if item.Kind != ron.KindTuple || len(item.Items) != 1 {
			return nil, item.Errorf("expected var(...), str(...) or int(...)")
		}
		arg := item.Items[0]
		switch item.Name {
		case "var":
			s, err := arg.Str()
			if err != nil {
				return nil, err
			}
			out = append(out, Var(Field(s)))
		case "str":
			s, err := arg.Str()
			if err != nil {
				return nil, err
			}
			out = append(out, Str(s))
		case "int":
			v, err := arg.Uint()
			if err != nil {
				return nil, err
			}
			out = append(out, Int(v))
		default:
			return nil, item.Errorf("unknown component %q", item.Name)
		}
	}
	return out, nil
}

func decodeSegments(n *ron.Node) ([]Segment, error) {
	items, err := n.ListItems()
	if err != nil {
		return nil, err
	}
	out := make([]Segment, 0, len(items))
	for _, item := range items {
		if item.Kind != ron.KindIdent {
			return nil, item.Errorf("expected segment name, got %s", item.Kind)
		}
		seg, err := ParseSegment(item.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return nil, n.Errorf("precedence order is empty")
	}
	return out, nil
}

func decodeVars(n *ron.Node) (Vars, error) {
	fields, err := n.StructFields()
	if err != nil {
		return Vars{}, err
	}
	var v Vars
	for _, f := range fields {
		if err := decodeVar(&v, f); err != nil {
			return Vars{}, err
		}
	}
	return v, nil
}

func decodeVar(v *Vars, f ron.Field) error {
	var err error
	switch Field(f.Name) {
	case FieldMajor:
		v.Major, err = someUint(f.Value)
	case FieldMinor:
		v.Minor, err = someUint(f.Value)
	case FieldPatch:
		v.Patch, err = someUint(f.Value)
	case FieldEpoch:
		v.Epoch, err = someUint(f.Value)
	case FieldPost:
		v.Post, err = someUint(f.Value)
	case FieldDev:
		v.Dev, err = someUint(f.Value)
	case FieldDistance:
		v.Distance, err = someUint(f.Value)
	case FieldPreRelease:
		v.PreRelease, err = somePreRelease(f.Value)
	case FieldDirty:
		v.Dirty, err = some(f.Value, (*ron.Node).Bool)
	case FieldBumpedBranch:
		v.BumpedBranch, err = some(f.Value, (*ron.Node).Str)
	case FieldBumpedCommitHash:
		v.BumpedCommitHash, err = some(f.Value, (*ron.Node).Str)
	case FieldBumpedTimestamp:
		v.BumpedTimestamp, err = some(f.Value, (*ron.Node).Int)
	case FieldLastBranch:
		v.LastBranch, err = some(f.Value, (*ron.Node).Str)
	case FieldLastCommitHash:
		v.LastCommitHash, err = some(f.Value, (*ron.Node).Str)
	case FieldLastTimestamp:
		v.LastTimestamp, err = some(f.Value, (*ron.Node).Int)
	case FieldLastTagVersion:
		v.LastTagVersion, err = some(f.Value, (*ron.Node).Str)
	case "custom":
		v.Custom, err = decodeCustom(f.Value)
	default:
		err = f.Value.Errorf("unknown vars field %q", f.Name)
	}
	return err
}

func some[T any](n *ron.Node, get func(*ron.Node) (T, error)) (*T, error) {
	inner, ok, err := n.Option()
	if err != nil || !ok {
		return nil, err
	}
	v, err := get(inner)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func someUint(n *ron.Node) (*uint64, error) {
	return some(n, (*ron.Node).Uint)
}

func somePreRelease(n *ron.Node) (*PreRelease, error) {
	inner, ok, err := n.Option()
	if err != nil || !ok {
		return nil, err
	}
	fields, err := inner.StructFields()
	if err != nil {
		return nil, err
	}
	var (
		pr       PreRelease
		hasLabel bool
	)
	for _, f := range fields {
		switch f.Name {
		case "label":
			if f.Value.Kind != ron.KindIdent {
				return nil, f.Value.Errorf("expected label identifier, got %s", f.Value.Kind)
			}
			l, ok := LookupLabel(f.Value.Name)
			if !ok {
				return nil, f.Value.Errorf("unknown pre-release label %q", f.Value.Name)
			}
			pr.Label, hasLabel = l, true
		case "number":
			if pr.Number, err = someUint(f.Value); err != nil {
				return nil, err
			}
		default:
			return nil, f.Value.Errorf("unknown pre-release field %q", f.Name)
		}
	}
	if !hasLabel {
		return nil, inner.Errorf("pre-release requires a label")
	}
	return &pr, nil
}

func decodeCustom(n *ron.Node) (Custom, error) {
	entries, err := n.MapEntries()
	if err != nil {
		return nil, err
	}
	var out Custom
	for _, e := range entries {
		key, err := e.Key.Str()
		if err != nil {
			return nil, err
		}
		if _, dup := out.Get(key); dup {
			return nil, e.Key.Errorf("duplicate custom key %q", key)
		}
		var val Value
		switch e.Value.Kind {
		case ron.KindNumber:
			num, err := e.Value.Uint()
			if err != nil {
				return nil, err
			}
			val = NumValue(num)
		case ron.KindString:
			val = StrValue(e.Value.Text)
		default:
			return nil, e.Value.Errorf("custom values must be numbers or strings, got %s", e.Value.Kind)
		}
		out = append(out, CustomEntry{Key: key, Value: val})
	}
	return out, nil
}
