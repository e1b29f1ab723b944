package ver

import (
	"github.com/blang/semver/v4"

	"github.com/zerv/zerv-core/providers/versioneer"
)

/*
SemVer 2.0.0 parsing on top of blang/semver.
*/

func validateSemVer(text string) bool {
	_, err := semver.Parse(text)
	return err == nil
}

// parseSemVer maps pre-release identifiers onto structured fields where possible:
// 'epoch', 'post' or 'dev' followed by a number become that field, the first label
// alias (optionally followed by a number) becomes pre_release. Everything else stays
// a literal in its original position.
func parseSemVer(text string) (versioneer.Zerv, error) {
	v, err := semver.Parse(text)
	if err != nil {
		return versioneer.Zerv{}, err
	}

	vars, core := releaseParts([]uint64{v.Major, v.Minor, v.Patch})

	var extra []versioneer.Component
	pre := v.Pre
	for i := 0; i < len(pre); i++ {
		id := pre[i]
		hasNum := i+1 < len(pre) && pre[i+1].IsNum

		if !id.IsNum {
			if field, ok := semverPairs[id.VersionStr]; ok && hasNum && !taken(vars, field) {
				n := pre[i+1].VersionNum
				setPair(&vars, field, n)
				extra = append(extra, versioneer.Var(field))
				i++
				continue
			}
			if label, ok := versioneer.LookupLabel(id.VersionStr); ok && vars.PreRelease == nil {
				pr := versioneer.PreRelease{Label: label}
				if hasNum {
					n := pre[i+1].VersionNum
					pr.Number = &n
					i++
				}
				vars.PreRelease = &pr
				extra = append(extra, versioneer.Var(versioneer.FieldPreRelease))
				continue
			}
			extra = append(extra, versioneer.Str(id.VersionStr))
			continue
		}
		extra = append(extra, versioneer.Int(id.VersionNum))
	}

	build := make([]versioneer.Component, 0, len(v.Build))
	for _, b := range v.Build {
		build = append(build, literal(b))
	}

	schema, err := versioneer.NewSchema(core, extra, build)
	if err != nil {
		return versioneer.Zerv{}, err
	}
	return versioneer.Zerv{Schema: schema, Vars: vars}, nil
}

// semverPairs are pre-release keywords that carry a numeric field in the next identifier.
var semverPairs = map[string]versioneer.Field{
	"epoch": versioneer.FieldEpoch,
	"post":  versioneer.FieldPost,
	"dev":   versioneer.FieldDev,
}

func taken(v versioneer.Vars, f versioneer.Field) bool {
	_, ok := v.Value(f)
	return ok
}

func setPair(v *versioneer.Vars, f versioneer.Field, n uint64) {
	switch f {
	case versioneer.FieldEpoch:
		v.Epoch = &n
	case versioneer.FieldPost:
		v.Post = &n
	case versioneer.FieldDev:
		v.Dev = &n
	}
}
