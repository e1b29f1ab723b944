package bump

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

// ComponentRequest overrides and/or bumps one schema component addressed by segment and
// index. A negative index counts from the end of the segment, -1 being the last component.
//
// A field component changes the model (pre_release changes its number); an int literal
// changes the schema itself. String literals and context fields cannot be changed.
type ComponentRequest struct {
	Segment  versioneer.Segment
	Index    int
	Override *uint64
	Amount   uint64
}

// ParseComponentSpec reads 'index[=value]'. '~N' addresses the N-th component from the end.
// The value is nil when omitted.
func ParseComponentSpec(spec string) (int, *uint64, error) {
	idx, value, hasValue := strings.Cut(strings.TrimSpace(spec), "=")

	fromEnd := strings.HasPrefix(idx, "~")
	n, err := strconv.Atoi(strings.TrimPrefix(idx, "~"))
	if err != nil || n < 0 || (fromEnd && n == 0) {
		return 0, nil, fmt.Errorf("%w: component index %q", ErrInvalidBumpTarget, spec)
	}
	if fromEnd {
		n = -n
	}
	if !hasValue {
		return n, nil, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: component value %q", ErrInvalidBumpTarget, spec)
	}
	return n, &v, nil
}

// componentTargets maps the fields a component request may change to their bump target.
var componentTargets = map[versioneer.Field]Target{
	versioneer.FieldEpoch:      Epoch,
	versioneer.FieldMajor:      Major,
	versioneer.FieldMinor:      Minor,
	versioneer.FieldPatch:      Patch,
	versioneer.FieldPreRelease: PreReleaseNum,
	versioneer.FieldPost:       Post,
	versioneer.FieldDev:        Dev,
}

// ApplyComponents runs component requests against z, segment by segment and lowest index
// first. Field bumps reset lower fields exactly like Bump.
func ApplyComponents(z versioneer.Zerv, reqs []ComponentRequest, context bool) (versioneer.Zerv, error) {
	out := z.Clone()

	type resolved struct {
		ComponentRequest
		at int
	}
	todo := make([]resolved, 0, len(reqs))
	for _, r := range reqs {
		comps := out.Schema.Segment(r.Segment)
		at := r.Index
		if at < 0 {
			at += len(comps)
		}
		if at < 0 || at >= len(comps) {
			return versioneer.Zerv{}, fmt.Errorf("%w: index %d out of bounds for %s (%d components)", ErrInvalidBumpTarget, r.Index, r.Segment, len(comps))
		}
		todo = append(todo, resolved{ComponentRequest: r, at: at})
	}
	sort.SliceStable(todo, func(i, j int) bool {
		if todo[i].Segment != todo[j].Segment {
			return todo[i].Segment < todo[j].Segment
		}
		return todo[i].at < todo[j].at
	})

	var err error
	for _, r := range todo {
		comps := out.Schema.Segment(r.Segment)
		c := comps[r.at]
		switch c.Kind {
		case versioneer.KindInt:
			base := c.Int
			if r.Override != nil {
				base = *r.Override
			}
			n, err := add(base, r.Amount, Target(fmt.Sprintf("%s[%d]", r.Segment, r.at)))
			if err != nil {
				return versioneer.Zerv{}, err
			}
			comps[r.at] = versioneer.Int(n)
		case versioneer.KindVar:
			target, ok := componentTargets[c.Field]
			if !ok {
				return versioneer.Zerv{}, fmt.Errorf("%w: %s component %d is %q", ErrInvalidBumpTarget, r.Segment, r.at, c.Field)
			}
			if r.Override != nil {
				setTarget(&out.Vars, target, *r.Override)
			}
			if out.Vars, err = Bump(out.Vars, out.Schema, target, r.Amount, context); err != nil {
				return versioneer.Zerv{}, err
			}
		default:
			return versioneer.Zerv{}, fmt.Errorf("%w: %s component %d is the string literal %s", ErrInvalidBumpTarget, r.Segment, r.at, c)
		}
	}
	return out, nil
}

// setTarget writes an absolute value. A pre-release number without a label starts at alpha.
func setTarget(v *versioneer.Vars, t Target, n uint64) {
	if t != PreReleaseNum {
		setNumber(v, t.Field(), n)
		return
	}
	pr := versioneer.PreRelease{Label: versioneer.Alpha, Number: &n}
	if v.PreRelease != nil {
		pr.Label = v.PreRelease.Label
	}
	v.PreRelease = &pr
}
