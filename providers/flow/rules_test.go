package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/versioneer"
)

func TestRule_Match(t *testing.T) {
	tests := []struct {
		pattern string
		branch  string
		want    bool
	}{
		{"develop", "develop", true},
		{"develop", "develop2", false},
		{"release/*", "release/1", true},
		{"release/*", "release/1/hotfix", false},
		{"release/*", "release", false},
		{"release/**", "release/1/hotfix", true},
		{"feature/**", "feature/a/b", true},
		{"feature/**", "features/a", false},
		{"{hotfix,bugfix}/*", "bugfix/login", true},
		{"feature-?", "feature-a", true},
		{"hotfix-*", "hotfix-12", true},
		{"hotfix-*", "main", false},
		{"main", "", false},
	}
	for _, tt := range tests {
		r := Rule{Pattern: tt.pattern}
		assert.Equal(t, tt.want, r.Match(tt.branch), "%s ~ %s", tt.pattern, tt.branch)
	}
}

func TestRules_FirstMatchWins(t *testing.T) {
	rules := Rules{
		{Pattern: "release/*", PreReleaseLabel: ptr.Point(versioneer.RC)},
		{Pattern: "release/2", PreReleaseLabel: ptr.Point(versioneer.Alpha), PreReleaseNum: ptr.Point[uint64](9)},
	}
	r, ok := rules.Find("release/2")
	require.True(t, ok)
	assert.Equal(t, "release/*", r.Pattern)

	_, ok = rules.Find("main")
	assert.False(t, ok)
	assert.Equal(t, DefaultAction(), rules.Resolve("main"))
}

func TestRule_Action(t *testing.T) {
	rules := DefaultRules()

	a := rules.Resolve("develop")
	require.NotNil(t, a.PreRelease)
	assert.Equal(t, "beta.1", a.PreRelease.String())
	assert.Equal(t, PostCommit, a.PostMode)
	assert.Equal(t, DefaultSchema, a.Schema)

	a = rules.Resolve("release/12")
	require.NotNil(t, a.PreRelease)
	assert.Equal(t, "rc.12", a.PreRelease.String())
	assert.Equal(t, PostTag, a.PostMode)

	a = rules.Resolve("release/v3-final")
	require.NotNil(t, a.PreRelease)
	assert.Equal(t, "rc.3", a.PreRelease.String())

	a = rules.Resolve("release/next")
	require.NotNil(t, a.PreRelease)
	assert.Nil(t, a.PreRelease.Number)

	a = rules.Resolve("feature/login")
	assert.Nil(t, a.PreRelease)
	assert.Equal(t, PostTag, a.PostMode)
}

func TestRule_ActionNestedGlob(t *testing.T) {
	r := Rule{Pattern: "feature/**", PreReleaseLabel: ptr.Point(versioneer.Alpha)}
	require.NoError(t, r.Validate())
	require.True(t, r.Match("feature/team/42-login"))

	a := r.Action("feature/team/42-login")
	require.NotNil(t, a.PreRelease)
	assert.Equal(t, "alpha.42", a.PreRelease.String())
}

func TestRule_Validate(t *testing.T) {
	valid := []Rule{
		{Pattern: "main"},
		{Pattern: "main", Schema: "calver-base"},
		{Pattern: "develop", PreReleaseLabel: ptr.Point(versioneer.Beta), PreReleaseNum: ptr.Point[uint64](1)},
		{Pattern: "release/*", PreReleaseLabel: ptr.Point(versioneer.RC), PostMode: PostTag},
	}
	for _, r := range valid {
		assert.NoError(t, r.Validate(), r.Pattern)
	}

	invalid := []Rule{
		{},
		{Pattern: "[a"},
		{Pattern: "{a,b"},
		{Pattern: "main", Schema: "nope"},
		{Pattern: "main", PostMode: "sometimes"},
		{Pattern: "main", PreReleaseNum: ptr.Point[uint64](1)},
		{Pattern: "develop", PreReleaseLabel: ptr.Point(versioneer.Beta)},
		{Pattern: "release/*", PreReleaseLabel: ptr.Point(versioneer.RC), PreReleaseNum: ptr.Point[uint64](1)},
	}
	for _, r := range invalid {
		err := r.Validate()
		assert.True(t, errors.Is(err, ErrInvalidRule), "%+v: %v", r, err)
	}
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules(`[
		(pattern: "develop", pre_release_label: beta, pre_release_num: 1, post_mode: commit),
		(pattern: "release/*", pre_release_label: "rc", post_mode: tag, schema: "standard"),
		(pattern: "hotfix/*", pre_release_label: alpha, pre_release_num: None),
		(pattern: "main"),
	]`)
	require.NoError(t, err)
	require.Len(t, rules, 4)

	assert.Equal(t, versioneer.Beta, *rules[0].PreReleaseLabel)
	assert.Equal(t, uint64(1), *rules[0].PreReleaseNum)
	assert.Equal(t, PostCommit, rules[0].PostMode)
	assert.Equal(t, versioneer.RC, *rules[1].PreReleaseLabel)
	assert.Equal(t, "standard", rules[1].Schema)
	assert.Nil(t, rules[2].PreReleaseNum)
	assert.Nil(t, rules[3].PreReleaseLabel)

	again, err := ParseRules(rules.String())
	require.NoError(t, err)
	assert.Equal(t, rules, again)
}

func TestParseRules_Errors(t *testing.T) {
	for _, text := range []string{
		``,
		`(pattern: "main")`,
		`[(pattern: "main", colour: "red")]`,
		`[(pattern: "develop", pre_release_label: gamma, pre_release_num: 1)]`,
		`[(pattern: "develop", pre_release_label: beta)]`,
		`[(pattern: "release/*", pre_release_label: rc, pre_release_num: Some(2))]`,
		`[(pattern: "main", post_mode: sometimes)]`,
	} {
		_, err := ParseRules(text)
		assert.True(t, errors.Is(err, ErrInvalidRule), "%q: %v", text, err)
	}
}

func TestDefaultRules_String(t *testing.T) {
	assert.Equal(t,
		`[(pattern: "develop", pre_release_label: beta, pre_release_num: Some(1), post_mode: commit), (pattern: "release/*", pre_release_label: rc, post_mode: tag)]`,
		DefaultRules().String())
}
