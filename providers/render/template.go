package render

import (
	"fmt"
	"regexp"

	"github.com/zerv/zerv-core/providers/versioneer"
)

var placeholderRgx = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.:]+)\s*\}\}`)

// Template placeholders that expand to a whole rendered version.
const (
	PlaceholderSemVer = "semver"
	PlaceholderPEP440 = "pep440"
)

// Template substitutes {{field}} placeholders with field values. A field that is not part
// of the schema fails with ErrSchemaFieldMissing; a field in the schema whose value is None
// renders as an empty string. {{semver}} and {{pep440}} expand to the rendered versions.
func Template(tmpl string, vars versioneer.Vars, schema versioneer.Schema) (string, error) {
	var err error
	out := placeholderRgx.ReplaceAllStringFunc(tmpl, func(m string) string {
		if err != nil {
			return m
		}
		name := placeholderRgx.FindStringSubmatch(m)[1]
		switch name {
		case PlaceholderSemVer:
			return SemVer(vars, schema)
		case PlaceholderPEP440:
			return PEP440(vars, schema)
		}
		f := versioneer.Field(name)
		if !schema.Has(f) {
			err = fmt.Errorf("%w: {{%s}}", ErrSchemaFieldMissing, name)
			return m
		}
		text, _ := vars.Text(f)
		return text
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
