/*
Package render projects the canonical model through a schema into an output string:
a SemVer or PEP 440 version, the canonical serialization, or a named-field template.

Usage:

	out, err := render.Render(vars, schema, render.FormatPEP440, render.Options{Prefix: "v"})
*/
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

var (
	// ErrSchemaFieldMissing is returned when a template references a field outside the active schema.
	ErrSchemaFieldMissing = errors.New("field is not part of the active schema")
	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")
)

// Format is an output format name.
type Format string

// Supported output formats.
const (
	FormatSemVer    Format = "semver"
	FormatPEP440    Format = "pep440"
	FormatZerv      Format = "zerv"
	FormatCanonical Format = "canonical"
	FormatTemplate  Format = "template"
)

var formats = map[Format]bool{
	FormatSemVer:    true,
	FormatPEP440:    true,
	FormatZerv:      true,
	FormatCanonical: true,
	FormatTemplate:  true,
}

// ParseFormat resolves an output format name. An empty name means semver.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatSemVer, nil
	}
	if !formats[f] {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Options are the optional render inputs.
type Options struct {
	Template string // required by FormatTemplate
	Prefix   string // prepended verbatim to every format
}

// Render projects vars through schema into the requested format.
func Render(vars versioneer.Vars, schema versioneer.Schema, format Format, opts Options) (string, error) {
	var out string
	switch format {
	case FormatSemVer, "":
		out = SemVer(vars, schema)
	case FormatPEP440:
		out = PEP440(vars, schema)
	case FormatZerv, FormatCanonical:
		out = versioneer.Serialize(versioneer.Zerv{Schema: schema, Vars: vars})
	case FormatTemplate:
		if opts.Template == "" {
			return "", fmt.Errorf("%w: template format requires a template", ErrUnknownFormat)
		}
		var err error
		if out, err = Template(opts.Template, vars, schema); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return opts.Prefix + out, nil
}

// resolve returns the textual value of a component. None renders as "".
func resolve(c versioneer.Component, vars versioneer.Vars) string {
	if v, ok := c.Literal(); ok {
		return v.String()
	}
	text, _ := vars.Text(c.Field)
	return text
}

// coreText is resolve for core components: an absent major, minor or patch renders as 0
// so later release parts keep their position.
func coreText(c versioneer.Component, vars versioneer.Vars) string {
	text := resolve(c, vars)
	if text == "" && c.Kind == versioneer.KindVar {
		switch c.Field {
		case versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch:
			return "0"
		}
	}
	return text
}

// asUint accepts any all-digit text, leading zeros included.
func asUint(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

// flatten replaces every character not accepted by keep with '.' and splits on dots.
// Empty parts are dropped.
func flatten(s string, keep func(r rune) bool) []string {
	mapped := strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return '.'
	}, s)
	var out []string
	for _, part := range strings.Split(mapped, ".") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// secondary reports whether f renders as a labelled identifier.
func secondary(f versioneer.Field) bool {
	switch f {
	case versioneer.FieldEpoch, versioneer.FieldPreRelease, versioneer.FieldPost, versioneer.FieldDev:
		return true
	}
	return false
}
