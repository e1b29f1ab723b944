/*
Package schemas resolves schema preset names into versioneer schemas.

A preset name is a family ('standard' or 'calver'), an optional depth ('base',
'base-prerelease', 'base-prerelease-post', 'base-prerelease-post-dev') and an optional
context suffix ('-context' or '-no-context'). Without a depth the preset is smart: the depth
and the build context follow the repository state held in the model.

Usage:

	schema, err := schemas.ResolveFor("standard", vars)
	schema, err = schemas.Resolve("calver-base-prerelease-context")
*/
package schemas

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

var (
	// ErrUnknownPreset is returned for an unrecognized preset name.
	ErrUnknownPreset = errors.New("unknown schema preset")
)

// Family is the release layout of a preset.
type Family string

// Preset families.
const (
	Standard Family = "standard"
	CalVer   Family = "calver"
)

// Depth controls which of pre_release, post and dev the extra core carries.
type Depth int

// Preset depths.
const (
	DepthSmart Depth = iota
	DepthBase
	DepthPreRelease
	DepthPost
	DepthDev
)

// Context controls whether VCS fields are appended to the build segment.
type Context int

// Context modes.
const (
	ContextAuto Context = iota // only when the model is off-tag
	ContextOn
	ContextOff
)

// Preset is a decomposed preset name.
type Preset struct {
	Family  Family
	Depth   Depth
	Context Context
}

var familyCores = map[Family][]versioneer.Field{
	Standard: {versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch},
	CalVer: {
		versioneer.TimestampField("YYYY"),
		versioneer.TimestampField("MM"),
		versioneer.TimestampField("DD"),
		versioneer.FieldPatch,
	},
}

var depthNames = map[string]Depth{
	"":                         DepthSmart,
	"base":                     DepthBase,
	"base-prerelease":          DepthPreRelease,
	"base-prerelease-post":     DepthPost,
	"base-prerelease-post-dev": DepthDev,
}

var depthExtraCore = map[Depth][]versioneer.Field{
	DepthBase:       {versioneer.FieldEpoch},
	DepthPreRelease: {versioneer.FieldEpoch, versioneer.FieldPreRelease},
	DepthPost:       {versioneer.FieldEpoch, versioneer.FieldPreRelease, versioneer.FieldPost},
	DepthDev:        {versioneer.FieldEpoch, versioneer.FieldPreRelease, versioneer.FieldPost, versioneer.FieldDev},
}

var contextSuffixes = []struct {
	suffix  string
	context Context
}{
	{"-no-context", ContextOff},
	{"-context", ContextOn},
}

// contextBuild is the build segment of context presets.
var contextBuild = []versioneer.Field{
	versioneer.FieldBumpedBranch,
	versioneer.FieldDistance,
	versioneer.FieldBumpedCommitHashShort,
}

// legacyPrefix is accepted in front of family names.
const legacyPrefix = "zerv-"

// ParsePreset decomposes a preset name.
func ParsePreset(name string) (Preset, error) {
	rest := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), legacyPrefix)

	var p Preset
	for _, s := range contextSuffixes {
		if trimmed, ok := strings.CutSuffix(rest, s.suffix); ok {
			rest, p.Context = trimmed, s.context
			break
		}
	}

	family, depth, found := strings.Cut(rest, "-")
	p.Family = Family(family)
	if _, ok := familyCores[p.Family]; !ok || (found && depth == "") {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	d, ok := depthNames[depth]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	p.Depth = d
	return p, nil
}

// String returns the canonical preset name.
func (p Preset) String() string {
	name := string(p.Family)
	for n, d := range depthNames {
		if d == p.Depth && n != "" {
			name += "-" + n
		}
	}
	for _, s := range contextSuffixes {
		if s.context == p.Context {
			name += s.suffix
		}
	}
	return name
}

// Schema builds the preset schema for a model. Smart depth and automatic context are
// decided from the model's dirty, distance, pre_release and post fields.
func (p Preset) Schema(vars versioneer.Vars) versioneer.Schema {
	depth := p.Depth
	if depth == DepthSmart {
		depth = smartDepth(vars)
	}

	var build []versioneer.Component
	if p.Context == ContextOn || (p.Context == ContextAuto && p.Depth == DepthSmart && offTag(vars)) {
		build = versioneer.Fields(contextBuild...)
	}

	return versioneer.MustSchema(
		versioneer.Fields(familyCores[p.Family]...),
		versioneer.Fields(depthExtraCore[depth]...),
		build,
	)
}

func offTag(vars versioneer.Vars) bool {
	return (vars.Dirty != nil && *vars.Dirty) || (vars.Distance != nil && *vars.Distance > 0)
}

// smartDepth picks the shallowest depth that still shows the model's state.
func smartDepth(vars versioneer.Vars) Depth {
	switch {
	case vars.Dirty != nil && *vars.Dirty:
		return DepthDev
	case vars.Distance != nil && *vars.Distance > 0, vars.PreRelease != nil && vars.Post != nil:
		return DepthPost
	case vars.PreRelease != nil:
		return DepthPreRelease
	}
	return DepthBase
}

// Resolve resolves a preset without repository state: smart presets resolve as base
// without build context.
func Resolve(name string) (versioneer.Schema, error) {
	return ResolveFor(name, versioneer.Vars{})
}

// ResolveFor resolves a preset against a model.
func ResolveFor(name string, vars versioneer.Vars) (versioneer.Schema, error) {
	p, err := ParsePreset(name)
	if err != nil {
		return versioneer.Schema{}, err
	}
	return p.Schema(vars), nil
}

// IsSmart reports whether a preset name adapts to the model state.
func IsSmart(name string) bool {
	p, err := ParsePreset(name)
	return err == nil && p.Depth == DepthSmart
}

// Names lists every canonical preset name.
func Names() []string {
	var names []string
	for f := range familyCores {
		for _, d := range depthNames {
			for _, c := range []Context{ContextAuto, ContextOn, ContextOff} {
				names = append(names, Preset{Family: f, Depth: d, Context: c}.String())
			}
		}
	}
	sort.Strings(names)
	return names
}
