package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/ron"
	"github.com/zerv/zerv-core/providers/schemas"
	"github.com/zerv/zerv-core/providers/versioneer"
)

var (
	// ErrInvalidRule is returned for a branch rule that cannot be evaluated.
	ErrInvalidRule = errors.New("invalid branch rule")
)

// PostMode decides how the post number of an off-tag version is computed.
type PostMode string

// Post modes.
const (
	// PostTag counts commits since the tag into post.
	PostTag PostMode = "tag"
	// PostCommit never synthesizes post; distance is only shown as build context.
	PostCommit PostMode = "commit"
)

// ParsePostMode resolves a post mode name. Empty means PostTag.
func ParsePostMode(name string) (PostMode, error) {
	switch m := PostMode(strings.ToLower(name)); m {
	case "":
		return PostTag, nil
	case PostTag, PostCommit:
		return m, nil
	}
	return "", fmt.Errorf("%w: post mode %q, valid modes: tag, commit", ErrInvalidRule, name)
}

// DefaultSchema is the preset used when no rule names one.
const DefaultSchema = "standard"

// Rule maps a branch pattern to a flow action. Pattern is either a literal branch name or a
// doublestar glob: '*' stays within one path segment, 'release/**' also matches nested
// names such as 'release/1/hotfix'.
type Rule struct {
	Pattern         string
	Schema          string
	PreReleaseLabel *versioneer.Label
	// PreReleaseNum is fixed for literal patterns. Glob patterns leave it nil and take the
	// first digit run of the wildcard part of the branch name.
	PreReleaseNum *uint64
	PostMode      PostMode
}

// Action is what a matched rule asks the resolver to do.
type Action struct {
	Schema     string
	PreRelease *versioneer.PreRelease
	PostMode   PostMode
}

// DefaultAction applies to branches no rule matches.
func DefaultAction() Action {
	return Action{Schema: DefaultSchema, PostMode: PostTag}
}

// Rules is an ordered rule list. The first matching rule wins.
type Rules []Rule

// DefaultRules returns the GitFlow rules: 'develop' is beta.1 counting commits, release
// branches are release candidates numbered after the branch.
func DefaultRules() Rules {
	return Rules{
		{Pattern: "develop", PreReleaseLabel: ptr.Point(versioneer.Beta), PreReleaseNum: ptr.Point[uint64](1), PostMode: PostCommit},
		{Pattern: "release/*", PreReleaseLabel: ptr.Point(versioneer.RC), PostMode: PostTag},
	}
}

const globMeta = `*?[{\`

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, globMeta)
}

// Validate checks the pattern syntax, the schema preset and the numbering rules.
func (r Rule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("%w: empty pattern", ErrInvalidRule)
	}
	if !doublestar.ValidatePattern(r.Pattern) {
		return fmt.Errorf("%w: pattern %q: %w", ErrInvalidRule, r.Pattern, doublestar.ErrBadPattern)
	}
	if r.Schema != "" {
		if _, err := schemas.ParsePreset(r.Schema); err != nil {
			return fmt.Errorf("%w: pattern %q: %w", ErrInvalidRule, r.Pattern, err)
		}
	}
	if _, err := ParsePostMode(string(r.PostMode)); err != nil {
		return err
	}
	if r.PreReleaseLabel == nil {
		if r.PreReleaseNum != nil {
			return fmt.Errorf("%w: pattern %q sets a pre-release number without a label", ErrInvalidRule, r.Pattern)
		}
		return nil
	}
	switch glob := isGlob(r.Pattern); {
	case glob && r.PreReleaseNum != nil:
		return fmt.Errorf("%w: wildcard pattern %q takes its pre-release number from the branch name", ErrInvalidRule, r.Pattern)
	case !glob && r.PreReleaseNum == nil:
		return fmt.Errorf("%w: literal pattern %q requires a pre-release number", ErrInvalidRule, r.Pattern)
	}
	return nil
}

// Match reports whether branch matches the rule pattern.
func (r Rule) Match(branch string) bool {
	if branch == "" {
		return false
	}
	ok, err := doublestar.Match(r.Pattern, branch)
	return err == nil && ok
}

// Action resolves the rule for a matching branch.
func (r Rule) Action(branch string) Action {
	a := Action{Schema: r.Schema, PostMode: r.PostMode}
	if a.Schema == "" {
		a.Schema = DefaultSchema
	}
	if a.PostMode == "" {
		a.PostMode = PostTag
	}
	if r.PreReleaseLabel != nil {
		a.PreRelease = &versioneer.PreRelease{Label: *r.PreReleaseLabel, Number: ptr.Clone(r.PreReleaseNum)}
		if a.PreRelease.Number == nil {
			a.PreRelease.Number = r.branchNumber(branch)
		}
	}
	return a
}

// branchNumber extracts the first digit run of the part of branch the wildcards matched,
// i.e. after the literal prefix of the pattern.
func (r Rule) branchNumber(branch string) *uint64 {
	prefix := r.Pattern
	if i := strings.IndexAny(prefix, globMeta); i >= 0 {
		prefix = prefix[:i]
	}
	rest, ok := strings.CutPrefix(branch, prefix)
	if !ok {
		return nil
	}
	start := strings.IndexFunc(rest, isDigit)
	if start < 0 {
		return nil
	}
	rest = rest[start:]
	if end := strings.IndexFunc(rest, func(c rune) bool { return !isDigit(c) }); end >= 0 {
		rest = rest[:end]
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

// Validate validates every rule.
func (rs Rules) Validate() error {
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first rule matching branch.
func (rs Rules) Find(branch string) (Rule, bool) {
	for _, r := range rs {
		if r.Match(branch) {
			return r, true
		}
	}
	return Rule{}, false
}

// Resolve returns the action for branch, falling back to DefaultAction.
func (rs Rules) Resolve(branch string) Action {
	if r, ok := rs.Find(branch); ok {
		return r.Action(branch)
	}
	return DefaultAction()
}

// String renders the rules in the notation ParseRules reads.
func (rs Rules) String() string {
	items := make([]string, 0, len(rs))
	for _, r := range rs {
		fields := []string{"pattern: " + ron.Quote(r.Pattern)}
		if r.Schema != "" {
			fields = append(fields, "schema: "+ron.Quote(r.Schema))
		}
		if r.PreReleaseLabel != nil {
			fields = append(fields, "pre_release_label: "+r.PreReleaseLabel.String())
		}
		if r.PreReleaseNum != nil {
			fields = append(fields, fmt.Sprintf("pre_release_num: Some(%d)", *r.PreReleaseNum))
		}
		if r.PostMode != "" {
			fields = append(fields, "post_mode: "+string(r.PostMode))
		}
		items = append(items, "("+strings.Join(fields, ", ")+")")
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// ParseRules reads a rule list such as
//
//	[(pattern: "release/*", pre_release_label: rc, post_mode: tag, schema: "standard")]
//
// Labels and post modes are accepted as identifiers or strings; pre_release_num is a bare
// number, Some(N) or None. The parsed rules are validated.
func ParseRules(text string) (Rules, error) {
	root, err := ron.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	items, err := root.ListItems()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	rules := make(Rules, 0, len(items))
	for _, item := range items {
		r, err := decodeRule(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		rules = append(rules, r)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

func decodeRule(n *ron.Node) (Rule, error) {
	fields, err := n.StructFields()
	if err != nil {
		return Rule{}, err
	}
	var r Rule
	for _, f := range fields {
		switch f.Name {
		case "pattern":
			r.Pattern, err = f.Value.Str()
		case "schema":
			r.Schema, err = f.Value.Str()
		case "pre_release_label":
			var name string
			if name, err = word(f.Value); err == nil {
				var l versioneer.Label
				if l, err = versioneer.ParseLabel(name); err == nil {
					r.PreReleaseLabel = &l
				}
			}
		case "pre_release_num":
			if f.Value.Kind == ron.KindNumber {
				var n uint64
				n, err = f.Value.Uint()
				r.PreReleaseNum = &n
				break
			}
			var inner *ron.Node
			var ok bool
			if inner, ok, err = f.Value.Option(); err == nil && ok {
				var n uint64
				n, err = inner.Uint()
				r.PreReleaseNum = &n
			}
		case "post_mode":
			var name string
			if name, err = word(f.Value); err == nil {
				r.PostMode, err = ParsePostMode(name)
			}
		default:
			err = f.Value.Errorf("unknown rule field %q", f.Name)
		}
		if err != nil {
			return Rule{}, err
		}
	}
	return r, nil
}

// word reads an identifier or a string.
func word(n *ron.Node) (string, error) {
	if n.Kind == ron.KindIdent {
		return n.Name, nil
	}
	return n.Str()
}
