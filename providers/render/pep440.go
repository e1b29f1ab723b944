package render

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/zerv/zerv-core/providers/versioneer"
)

func localRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z')
}

// PEP440 renders the schema-selected fields as a normalized PEP 440 string:
// [N!]release[{a|b|rc}[N]][.postN][.devN][+local].
//
// Numeric core values form the release segment. Non-numeric core values, extra core
// values other than epoch/pre_release/post/dev and build values go to the local label.
func PEP440(vars versioneer.Vars, schema versioneer.Schema) string {
	var (
		release []string
		local   []string
		epoch   uint64
		pre     *versioneer.PreRelease
		post    *uint64
		dev     *uint64
	)

	addLocal := func(text string) {
		local = append(local, flatten(strings.Map(unicode.ToLower, text), localRune)...)
	}

	for _, c := range schema.Core {
		text := coreText(c, vars)
		if text == "" {
			continue
		}
		if num, ok := asUint(text); ok {
			release = append(release, strconv.FormatUint(num, 10))
			continue
		}
		addLocal(text)
	}

	for _, c := range schema.ExtraCore {
		if c.Kind != versioneer.KindVar || !secondary(c.Field) {
			addLocal(resolve(c, vars))
			continue
		}
		switch c.Field {
		case versioneer.FieldEpoch:
			if vars.Epoch != nil {
				epoch = *vars.Epoch
			}
		case versioneer.FieldPreRelease:
			pre = vars.PreRelease
		case versioneer.FieldPost:
			post = vars.Post
		case versioneer.FieldDev:
			dev = vars.Dev
		}
	}

	for _, c := range schema.Build {
		addLocal(resolve(c, vars))
	}

	if len(release) == 0 {
		release = []string{"0"}
	}

	var b strings.Builder
	if epoch > 0 {
		b.WriteString(strconv.FormatUint(epoch, 10))
		b.WriteByte('!')
	}
	b.WriteString(strings.Join(release, "."))
	if pre != nil {
		b.WriteString(pre.Label.Short())
		if pre.Number != nil {
			b.WriteString(strconv.FormatUint(*pre.Number, 10))
		}
	}
	if post != nil {
		b.WriteString(".post")
		b.WriteString(strconv.FormatUint(*post, 10))
	}
	if dev != nil {
		b.WriteString(".dev")
		b.WriteString(strconv.FormatUint(*dev, 10))
	}
	if len(local) > 0 {
		b.WriteByte('+')
		b.WriteString(strings.Join(local, "."))
	}
	return b.String()
}
