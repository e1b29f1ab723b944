package ver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

/*
PVP (Haskell package versioning policy) parsing implementation.
*/

var pvpRgxCompiled = regexp.MustCompile(`^v?([0-9]+(?:\.[0-9]+)*)((?:-[0-9A-Za-z]+)*)$`)

func validatePVP(text string) bool {
	return pvpRgxCompiled.MatchString(text)
}

// parsePVP keeps deprecated dash tags as one opaque build literal.
func parsePVP(text string) (versioneer.Zerv, error) {
	m := pvpRgxCompiled.FindStringSubmatch(text)
	if m == nil {
		return versioneer.Zerv{}, ErrUnrecognizedFormat
	}

	release := strings.Split(m[1], ".")
	parts := make([]uint64, 0, len(release))
	for _, r := range release {
		n, err := strconv.ParseUint(r, 10, 64)
		if err != nil {
			return versioneer.Zerv{}, err
		}
		parts = append(parts, n)
	}
	vars, core := releaseParts(parts)

	var build []versioneer.Component
	if tags := strings.TrimPrefix(m[2], "-"); tags != "" {
		build = append(build, versioneer.Str(tags))
	}

	schema, err := versioneer.NewSchema(core, nil, build)
	if err != nil {
		return versioneer.Zerv{}, err
	}
	return versioneer.Zerv{Schema: schema, Vars: vars}, nil
}
