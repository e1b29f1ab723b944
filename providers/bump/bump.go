/*
Package bump applies field-level increments, lower-precedence resets and explicit overrides
to the canonical model. Every operation returns a new Vars value.

Usage:

	next, err := bump.Bump(vars, schema, bump.Minor, 1, false)
	next, err = bump.Apply(vars, schema, bump.Plan{Bumps: []bump.Request{{Target: bump.Patch, Amount: 1}}})
*/
package bump

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

var (
	// ErrInvalidBumpTarget is returned when a bump has no further progression (e.g. past rc)
	// or names an unknown target.
	ErrInvalidBumpTarget = errors.New("invalid bump target")
)

// Target is a bumpable component.
type Target string

// Supported bump targets.
const (
	Epoch           Target = "epoch"
	Major           Target = "major"
	Minor           Target = "minor"
	Patch           Target = "patch"
	PreReleaseLabel Target = "pre_release_label"
	PreReleaseNum   Target = "pre_release_num"
	Post            Target = "post"
	Dev             Target = "dev"
)

// targetFields maps a target to the model field it changes.
var targetFields = map[Target]versioneer.Field{
	Epoch:           versioneer.FieldEpoch,
	Major:           versioneer.FieldMajor,
	Minor:           versioneer.FieldMinor,
	Patch:           versioneer.FieldPatch,
	PreReleaseLabel: versioneer.FieldPreRelease,
	PreReleaseNum:   versioneer.FieldPreRelease,
	Post:            versioneer.FieldPost,
	Dev:             versioneer.FieldDev,
}

// ParseTarget resolves a target name.
func ParseTarget(name string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := targetFields[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidBumpTarget, name)
	}
	return t, nil
}

// Field returns the model field changed by the target.
func (t Target) Field() versioneer.Field {
	return targetFields[t]
}

// Bump advances one target by amount and resets every field of strictly lower precedence
// under the schema. With context set, distance, dirty and the bumped_* fields are reset too.
// An amount of zero leaves the model unchanged.
func Bump(vars versioneer.Vars, schema versioneer.Schema, target Target, amount uint64, context bool) (versioneer.Vars, error) {
	field, ok := targetFields[target]
	if !ok {
		return versioneer.Vars{}, fmt.Errorf("%w: %q", ErrInvalidBumpTarget, target)
	}
	out := vars.Clone()
	if amount == 0 {
		return out, nil
	}

	switch target {
	case PreReleaseLabel:
		next, err := advanceLabel(out.PreRelease, amount)
		if err != nil {
			return versioneer.Vars{}, err
		}
		out.PreRelease = next
	case PreReleaseNum:
		pr := versioneer.PreRelease{Label: versioneer.Alpha}
		if out.PreRelease != nil {
			pr.Label = out.PreRelease.Label
		}
		var cur uint64
		if out.PreRelease != nil && out.PreRelease.Number != nil {
			cur = *out.PreRelease.Number
		}
		n, err := add(cur, amount, target)
		if err != nil {
			return versioneer.Vars{}, err
		}
		pr.Number = &n
		out.PreRelease = &pr
	default:
		cur, _ := out.Value(field)
		n, err := add(cur.Num, amount, target)
		if err != nil {
			return versioneer.Vars{}, err
		}
		setNumber(&out, field, n)
	}

	for _, f := range lowerFields(schema, field) {
		reset(&out, f)
	}
	if context {
		out.Distance = nil
		out.Dirty = nil
		out.BumpedBranch = nil
		out.BumpedCommitHash = nil
		out.BumpedTimestamp = nil
	}
	return out, nil
}

func add(cur, amount uint64, target Target) (uint64, error) {
	if cur > math.MaxUint64-amount {
		return 0, fmt.Errorf("%w: %s %d + %d overflows", ErrInvalidBumpTarget, target, cur, amount)
	}
	return cur + amount, nil
}

// advanceLabel moves a pre-release label forward amount steps. None advances to alpha.
// The number restarts at zero.
func advanceLabel(pr *versioneer.PreRelease, amount uint64) (*versioneer.PreRelease, error) {
	var (
		label versioneer.Label
		steps = amount
	)
	if pr == nil {
		label = versioneer.Alpha
		steps--
	} else {
		label = pr.Label
	}
	for ; steps > 0; steps-- {
		next, ok := label.Next()
		if !ok {
			return nil, fmt.Errorf("%w: cannot bump pre-release label past %s", ErrInvalidBumpTarget, label)
		}
		label = next
	}
	zero := uint64(0)
	return &versioneer.PreRelease{Label: label, Number: &zero}, nil
}

func setNumber(v *versioneer.Vars, f versioneer.Field, n uint64) {
	switch f {
	case versioneer.FieldEpoch:
		v.Epoch = &n
	case versioneer.FieldMajor:
		v.Major = &n
	case versioneer.FieldMinor:
		v.Minor = &n
	case versioneer.FieldPatch:
		v.Patch = &n
	case versioneer.FieldPost:
		v.Post = &n
	case versioneer.FieldDev:
		v.Dev = &n
	}
}

// reset puts a field back to its absent/zero state: release numbers become 0,
// pre_release, post and dev become None.
func reset(v *versioneer.Vars, f versioneer.Field) {
	switch f {
	case versioneer.FieldEpoch, versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch:
		setNumber(v, f, 0)
	case versioneer.FieldPreRelease:
		v.PreRelease = nil
	case versioneer.FieldPost:
		v.Post = nil
	case versioneer.FieldDev:
		v.Dev = nil
	}
}

// Order resolves the version field order used for resets: the schema's field order
// restricted to version fields, with fields the schema omits placed after their nearest
// canonically more significant neighbour.
func Order(schema versioneer.Schema) []versioneer.Field {
	var order []versioneer.Field
	for _, f := range schema.FieldOrder() {
		if f.IsVersion() {
			order = append(order, f)
		}
	}
	for _, f := range versioneer.VersionFields {
		if schema.Has(f) {
			continue
		}
		rank := versioneer.VersionRank(f)
		at := 0
		for i, o := range order {
			if versioneer.VersionRank(o) < rank {
				at = i + 1
			}
		}
		order = append(order[:at], append([]versioneer.Field{f}, order[at:]...)...)
	}
	return order
}

// lowerFields returns the fields after target in Order, skipping canonically more
// significant ones.
func lowerFields(schema versioneer.Schema, target versioneer.Field) []versioneer.Field {
	order := Order(schema)
	rank := versioneer.VersionRank(target)
	var out []versioneer.Field
	seen := false
	for _, f := range order {
		if f == target {
			seen = true
			continue
		}
		if seen && versioneer.VersionRank(f) > rank {
			out = append(out, f)
		}
	}
	return out
}

// Request is one bump of a plan.
type Request struct {
	Target Target
	Amount uint64
}

// Plan combines bumps with explicit overrides.
type Plan struct {
	Bumps     []Request
	Overrides versioneer.Vars
	Context   bool
}

// Apply runs a plan: overrides are applied, then bumps in precedence order from the most
// significant target down, then overrides again. A bump whose field is overridden is a
// no-op, so explicit values always win regardless of request order.
func Apply(vars versioneer.Vars, schema versioneer.Schema, plan Plan) (versioneer.Vars, error) {
	out := vars.Merge(plan.Overrides)

	order := Order(schema)
	position := func(t Target) int {
		f := t.Field()
		for i, o := range order {
			if o == f {
				if t == PreReleaseNum {
					return 2*i + 1
				}
				return 2 * i
			}
		}
		return len(order) * 2
	}

	bumps := append([]Request(nil), plan.Bumps...)
	for _, b := range bumps {
		if _, ok := targetFields[b.Target]; !ok {
			return versioneer.Vars{}, fmt.Errorf("%w: %q", ErrInvalidBumpTarget, b.Target)
		}
	}
	sort.SliceStable(bumps, func(i, j int) bool {
		return position(bumps[i].Target) < position(bumps[j].Target)
	})

	var err error
	for _, b := range bumps {
		if plan.Overrides.Has(b.Target.Field()) {
			continue
		}
		if out, err = Bump(out, schema, b.Target, b.Amount, plan.Context); err != nil {
			return versioneer.Vars{}, err
		}
	}
	return out.Merge(plan.Overrides), nil
}
