/*
Package ver parses, validates and detects version strings in every supported grammar
(SemVer, PEP 440 and PVP) and decomposes them into the canonical versioneer model.

Detection tries grammars in a fixed priority order: SemVer, then PEP 440, then PVP. A string
accepted by more than one grammar is always interpreted under the first one that matches.

Usage:

	z, err := ver.Parse("1.2.3rc3", ver.Auto)
	g, err := ver.Detect("1.2.3-alpha.1") // ver.SemVer
*/
package ver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

var (
	// ErrUnrecognizedFormat is returned when the input matches no supported grammar.
	ErrUnrecognizedFormat = errors.New("unrecognized version format")
	// ErrUnknownGrammar is returned for an unsupported grammar name.
	ErrUnknownGrammar = errors.New("unknown version grammar")
)

// Grammar names a version string dialect.
type Grammar string

// Supported grammars.
const (
	Auto   Grammar = "auto"
	SemVer Grammar = "semver"
	PEP440 Grammar = "pep440"
	PVP    Grammar = "pvp"
)

// grammar binds a name to its validator and decomposer.
type grammar struct {
	name     Grammar
	validate func(text string) bool
	parse    func(text string) (versioneer.Zerv, error)
}

// grammars is ordered by detection priority.
var grammars = []grammar{
	{name: SemVer, validate: validateSemVer, parse: parseSemVer},
	{name: PEP440, validate: validatePEP440, parse: parsePEP440},
	{name: PVP, validate: validatePVP, parse: parsePVP},
}

// Grammars returns the supported grammar names in detection priority order.
func Grammars() []Grammar {
	out := make([]Grammar, 0, len(grammars))
	for _, g := range grammars {
		out = append(out, g.name)
	}
	return out
}

// ParseGrammar resolves a grammar name. An empty name means Auto.
func ParseGrammar(name string) (Grammar, error) {
	g := Grammar(strings.ToLower(strings.TrimSpace(name)))
	if g == "" || g == Auto {
		return Auto, nil
	}
	if _, ok := lookup(g); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownGrammar, name)
	}
	return g, nil
}

func lookup(name Grammar) (grammar, bool) {
	for _, g := range grammars {
		if g.name == name {
			return g, true
		}
	}
	return grammar{}, false
}

// Detect returns the first grammar, by priority, that accepts text.
func Detect(text string) (Grammar, error) {
	for _, g := range grammars {
		if g.validate(text) {
			return g.name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognizedFormat, text)
}

// Validate reports whether text is valid under the grammar. Auto accepts any supported grammar.
func Validate(text string, name Grammar) bool {
	if name == Auto || name == "" {
		_, err := Detect(text)
		return err == nil
	}
	g, ok := lookup(name)
	return ok && g.validate(text)
}

// Parse decomposes text into the canonical model. The returned schema lays the parsed
// fields and literals out so that rendering back into the source grammar reproduces the
// normalized input.
func Parse(text string, hint Grammar) (versioneer.Zerv, error) {
	name := hint
	if name == Auto || name == "" {
		detected, err := Detect(text)
		if err != nil {
			return versioneer.Zerv{}, err
		}
		name = detected
	}
	g, ok := lookup(name)
	if !ok {
		return versioneer.Zerv{}, fmt.Errorf("%w: %q", ErrUnknownGrammar, hint)
	}
	if !g.validate(text) {
		return versioneer.Zerv{}, fmt.Errorf("%w: %q is not a valid %s version", ErrUnrecognizedFormat, text, g.name)
	}
	return g.parse(text)
}

// releaseParts maps a numeric release onto major/minor/patch. Parts past the third
// are kept as int literals in core.
func releaseParts(parts []uint64) (versioneer.Vars, []versioneer.Component) {
	var (
		vars   versioneer.Vars
		core   []versioneer.Component
		fields = []versioneer.Field{versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch}
	)
	for i, p := range parts {
		n := p
		switch i {
		case 0:
			vars.Major = &n
		case 1:
			vars.Minor = &n
		case 2:
			vars.Patch = &n
		default:
			core = append(core, versioneer.Int(p))
			continue
		}
		core = append(core, versioneer.Var(fields[i]))
	}
	return vars, core
}

// literal types a free-form identifier as int or str.
func literal(s string) versioneer.Component {
	v := versioneer.ParseValue(s)
	if v.IsNum {
		return versioneer.Int(v.Num)
	}
	return versioneer.Str(v.Str)
}
