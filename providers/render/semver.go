package render

import (
	"strconv"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

func semverRune(r rune) bool {
	return r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// SemVer renders the schema-selected fields as a SemVer 2.0.0 string.
//
// The first three numeric core values become MAJOR.MINOR.PATCH (missing ones are 0), the
// remaining core values and the extra core values become pre-release identifiers and the
// build values become build identifiers.
func SemVer(vars versioneer.Vars, schema versioneer.Schema) string {
	var (
		release [3]uint64
		n       int
		pre     []string
		build   []string
	)

	for _, c := range schema.Core {
		text := coreText(c, vars)
		if text == "" {
			continue
		}
		if num, ok := asUint(text); ok && n < len(release) {
			release[n] = num
			n++
			continue
		}
		pre = append(pre, preIdentifiers(text)...)
	}

	for _, c := range schema.ExtraCore {
		if c.Kind == versioneer.KindVar && secondary(c.Field) {
			pre = append(pre, secondaryIdentifiers(c.Field, vars)...)
			continue
		}
		pre = append(pre, preIdentifiers(resolve(c, vars))...)
	}

	for _, c := range schema.Build {
		build = append(build, flatten(resolve(c, vars), semverRune)...)
	}

	var b strings.Builder
	b.WriteString(strconv.FormatUint(release[0], 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(release[1], 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(release[2], 10))
	if len(pre) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(pre, "."))
	}
	if len(build) > 0 {
		b.WriteByte('+')
		b.WriteString(strings.Join(build, "."))
	}
	return b.String()
}

// preIdentifiers flattens text into pre-release identifiers. Numeric identifiers lose
// their leading zeros.
func preIdentifiers(text string) []string {
	parts := flatten(text, semverRune)
	for i, p := range parts {
		if num, ok := asUint(p); ok {
			parts[i] = strconv.FormatUint(num, 10)
		}
	}
	return parts
}

// secondaryIdentifiers renders epoch, pre_release, post and dev as labelled identifiers
// ('epoch.1', 'rc.3', 'post.2', 'dev.5'). None renders nothing.
func secondaryIdentifiers(f versioneer.Field, vars versioneer.Vars) []string {
	if f == versioneer.FieldPreRelease {
		if vars.PreRelease == nil {
			return nil
		}
		ids := []string{vars.PreRelease.Label.String()}
		if vars.PreRelease.Number != nil {
			ids = append(ids, strconv.FormatUint(*vars.PreRelease.Number, 10))
		}
		return ids
	}
	v, ok := vars.Value(f)
	if !ok {
		return nil
	}
	return []string{string(f), v.String()}
}
