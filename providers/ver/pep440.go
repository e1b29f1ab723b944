package ver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zerv/zerv-core/providers/versioneer"
)

/*
PEP 440 versions parsing implementation.
*/

// pep440Config is used to store PEP 440 parser configuration.
type pep440Config struct {
	preLabels          []string       // Accepted pre-release spellings (e.g. 'preview')
	postLabels         []string       // Accepted post-release spellings (e.g. 'rev')
	versionRgx         string         // PEP 440 version regexp (e.g. v1!2.3rc1.post2.dev3+local.7)
	versionRgxCompiled *regexp.Regexp // Compiled version regexp
	localSeparators    *regexp.Regexp // Local segment separators
}

// pep440Cfg is a global PEP 440 parser configuration.
var pep440Cfg pep440Config

// PEP 440 parser config initialization and expressions compiling.
func init() {
	// longer spellings first, RE2 alternation is leftmost-first
	pep440Cfg.preLabels = []string{"alpha", "a", "beta", "b", "preview", "pre", "rc", "c"}
	pep440Cfg.postLabels = []string{"post", "rev", "r"}
	pep440Cfg.versionRgx = fmt.Sprintf(`v?`+
		`(?:(?P<epoch>[0-9]+)!)?`+
		`(?P<release>[0-9]+(?:\.[0-9]+)*)`+
		`(?:[-_.]?(?P<pre_l>%s)[-_.]?(?P<pre_n>[0-9]+)?)?`+
		`(?:-(?P<post_n1>[0-9]+)|[-_.]?(?P<post_l>%s)[-_.]?(?P<post_n2>[0-9]+)?)?`+
		`(?:[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?`+
		`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?`,
		strings.Join(pep440Cfg.preLabels, "|"), strings.Join(pep440Cfg.postLabels, "|"))
	pep440Cfg.versionRgxCompiled = regexp.MustCompile(`(?i)^\s*` + pep440Cfg.versionRgx + `\s*$`)
	pep440Cfg.localSeparators = regexp.MustCompile(`[-_.]`)
}

func validatePEP440(text string) bool {
	return pep440Cfg.versionRgxCompiled.MatchString(text)
}

// pep440Groups returns the named sub-matches of a valid version.
func pep440Groups(text string) (map[string]string, bool) {
	m := pep440Cfg.versionRgxCompiled.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	groups := make(map[string]string, len(m))
	for i, name := range pep440Cfg.versionRgxCompiled.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups, true
}

// parsePEP440 decomposes a PEP 440 version. Pre, post and dev parts are normalized
// ('preview3' is rc3, '-1' and 'rev1' are post1, a bare 'post' or 'dev' is 0).
// Local parts are typed one by one into build literals.
func parsePEP440(text string) (versioneer.Zerv, error) {
	g, ok := pep440Groups(text)
	if !ok {
		return versioneer.Zerv{}, fmt.Errorf("%w: %q", ErrUnrecognizedFormat, text)
	}

	release := strings.Split(g["release"], ".")
	parts := make([]uint64, 0, len(release))
	for _, r := range release {
		n, err := strconv.ParseUint(r, 10, 64)
		if err != nil {
			return versioneer.Zerv{}, fmt.Errorf("%w: release part %q: %w", ErrUnrecognizedFormat, r, err)
		}
		parts = append(parts, n)
	}
	vars, core := releaseParts(parts)

	var err error
	if g["epoch"] != "" {
		if vars.Epoch, err = number(g["epoch"]); err != nil {
			return versioneer.Zerv{}, err
		}
	}
	if g["pre_l"] != "" {
		label, _ := versioneer.LookupLabel(g["pre_l"])
		pr := versioneer.PreRelease{Label: label}
		if g["pre_n"] != "" {
			if pr.Number, err = number(g["pre_n"]); err != nil {
				return versioneer.Zerv{}, err
			}
		}
		vars.PreRelease = &pr
	}
	switch {
	case g["post_n1"] != "":
		vars.Post, err = number(g["post_n1"])
	case g["post_l"] != "":
		vars.Post, err = optionalNumber(g["post_n2"])
	}
	if err != nil {
		return versioneer.Zerv{}, err
	}
	if g["dev_l"] != "" {
		if vars.Dev, err = optionalNumber(g["dev_n"]); err != nil {
			return versioneer.Zerv{}, err
		}
	}

	var build []versioneer.Component
	if local := g["local"]; local != "" {
		for _, part := range pep440Cfg.localSeparators.Split(strings.ToLower(local), -1) {
			build = append(build, literal(part))
		}
	}

	extra := versioneer.Fields(versioneer.FieldEpoch, versioneer.FieldPreRelease, versioneer.FieldPost, versioneer.FieldDev)
	schema, err := versioneer.NewSchema(core, extra, build)
	if err != nil {
		return versioneer.Zerv{}, err
	}
	return versioneer.Zerv{Schema: schema, Vars: vars}, nil
}

func number(s string) (*uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: number %q: %w", ErrUnrecognizedFormat, s, err)
	}
	return &n, nil
}

// optionalNumber treats an empty number as an implicit zero.
func optionalNumber(s string) (*uint64, error) {
	if s == "" {
		s = "0"
	}
	return number(s)
}
