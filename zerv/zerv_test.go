package zerv

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/bump"
	"github.com/zerv/zerv-core/providers/fetchers"
	"github.com/zerv/zerv-core/providers/flow"
	"github.com/zerv/zerv-core/providers/render"
	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/providers/versioneer"
)

func memoryRepo(tag, branch string, distance uint64, dirty bool) fetchers.MemoryFetcher {
	f := fetchers.Facts{
		Distance:  distance,
		Dirty:     dirty,
		Branch:    branch,
		Commit:    "abcdef1234567890",
		Timestamp: 1700000000,
	}
	if tag != "" {
		f.Tag = &fetchers.Tag{Name: tag, Commit: "0123456789"}
	}
	return fetchers.MemoryFetcher{Snapshot: f}
}

func version(t *testing.T, opts VersionOptions) *Result {
	t.Helper()
	res, err := Version(context.Background(), opts)
	require.NoError(t, err)
	return res
}

func TestVersion_None(t *testing.T) {
	res := version(t, VersionOptions{Input: Input{Source: SourceNone}})
	assert.Equal(t, "0.0.0", res.Version)
	assert.True(t, res.NoTag)

	res = version(t, VersionOptions{
		Input:     Input{Source: SourceNone, TagVersion: "1.2.3"},
		Transform: Transform{Bumps: []bump.Request{{Target: bump.Minor, Amount: 1}}},
	})
	assert.Equal(t, "1.3.0", res.Version)
	assert.False(t, res.NoTag)
}

func TestVersion_OverrideWinsOverBump(t *testing.T) {
	res := version(t, VersionOptions{
		Input: Input{Source: SourceNone, TagVersion: "1.2.3"},
		Transform: Transform{
			Overrides: versioneer.Vars{Major: ptr.Point[uint64](5)},
			Bumps:     []bump.Request{{Target: bump.Major, Amount: 1}, {Target: bump.Patch, Amount: 2}},
		},
	})
	assert.Equal(t, "5.2.5", res.Version)
}

func TestVersion_StdinPlain(t *testing.T) {
	res := version(t, VersionOptions{
		Input:  Input{Source: SourceStdin, Stdin: strings.NewReader("1.2.3rc3\n")},
		Output: Output{Format: render.FormatSemVer},
	})
	assert.Equal(t, "1.2.3-rc.3", res.Version)

	res = version(t, VersionOptions{
		Input:  Input{Source: SourceStdin, Stdin: strings.NewReader("1.2.3-alpha.1"), Format: ver.SemVer},
		Output: Output{Format: render.FormatPEP440, Prefix: "v"},
	})
	assert.Equal(t, "v1.2.3a1", res.Version)
}

func TestVersion_StdinCanonical(t *testing.T) {
	first := version(t, VersionOptions{
		Input:  Input{Source: SourceNone, TagVersion: "1.2.3-rc.3+ubuntu.20"},
		Output: Output{Format: render.FormatCanonical},
	})

	second := version(t, VersionOptions{
		Input:  Input{Source: SourceStdin, Stdin: strings.NewReader(first.Version)},
		Output: Output{Format: render.FormatCanonical},
	})
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.Zerv, second.Zerv)

	third := version(t, VersionOptions{
		Input:     Input{Source: SourceStdin, Stdin: strings.NewReader(first.Version)},
		Transform: Transform{Bumps: []bump.Request{{Target: bump.PreReleaseNum, Amount: 1}}},
	})
	assert.Equal(t, "1.2.3-rc.4", third.Version)
}

func TestVersion_Git(t *testing.T) {
	repo := memoryRepo("v1.2.3", "main", 5, false)

	res := version(t, VersionOptions{Input: Input{Fetcher: repo}})
	assert.Equal(t, "1.2.3+main.5.abcdef1", res.Version)
	assert.Equal(t, "v1.2.3", *res.Zerv.Vars.LastTagVersion)

	res = version(t, VersionOptions{
		Input:     Input{Fetcher: repo},
		Transform: Transform{Bumps: []bump.Request{{Target: bump.Patch, Amount: 1}}},
	})
	assert.Equal(t, "1.2.4+main.5.abcdef1", res.Version)

	res = version(t, VersionOptions{
		Input:     Input{Fetcher: repo},
		Transform: Transform{BumpContext: true, Bumps: []bump.Request{{Target: bump.Patch, Amount: 1}}},
	})
	assert.Equal(t, "1.2.4", res.Version)

	res = version(t, VersionOptions{
		Input:     Input{Fetcher: repo, TagVersion: "2.0.0"},
		Transform: Transform{Schema: "standard-base-no-context"},
	})
	assert.Equal(t, "2.0.0", res.Version)
}

func TestVersion_GitNoTag(t *testing.T) {
	res := version(t, VersionOptions{Input: Input{Fetcher: memoryRepo("", "main", 0, false)}})
	assert.True(t, res.NoTag)
	assert.Equal(t, "0.0.0", res.Version)
}

func TestVersion_Template(t *testing.T) {
	res := version(t, VersionOptions{
		Input:  Input{Source: SourceNone, TagVersion: "1.2.3"},
		Output: Output{Format: render.FormatTemplate, Template: "{{major}}.{{minor}} ({{semver}})"},
	})
	assert.Equal(t, "1.2 (1.2.3)", res.Version)

	_, err := Version(context.Background(), VersionOptions{
		Input:  Input{Source: SourceNone, TagVersion: "1.2.3"},
		Output: Output{Format: render.FormatTemplate, Template: "{{post}}"},
	})
	assert.True(t, errors.Is(err, ErrSchemaFieldMissing))
}

func TestVersion_RawSchema(t *testing.T) {
	res := version(t, VersionOptions{
		Input: Input{Source: SourceNone, TagVersion: "1.2.3"},
		Transform: Transform{
			SchemaRON: `(core: [var("major"), var("minor")], extra_core: [], build: [str("linux")])`,
			Schema:    "calver",
		},
	})
	assert.Equal(t, "1.2.0+linux", res.Version)
}

func TestVersion_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts VersionOptions
		want error
	}{
		{"unknown preset", VersionOptions{Input: Input{Source: SourceNone}, Transform: Transform{Schema: "nope"}}, ErrUnknownPreset},
		{"bad schema", VersionOptions{Input: Input{Source: SourceNone}, Transform: Transform{SchemaRON: `(core: [])`}}, ErrInvalidSchema},
		{"empty stdin", VersionOptions{Input: Input{Source: SourceStdin, Stdin: strings.NewReader(" ")}}, ErrMalformed},
		{"malformed stdin", VersionOptions{Input: Input{Source: SourceStdin, Stdin: strings.NewReader("(schema: ")}}, ErrMalformed},
		{"unrecognized", VersionOptions{Input: Input{Source: SourceNone, TagVersion: "one"}}, ErrUnrecognizedFormat},
		{"no repository", VersionOptions{Input: Input{Fetcher: fetchers.MemoryFetcher{Err: ErrNoRepository}}}, ErrNoRepository},
		{"past rc", VersionOptions{
			Input:     Input{Source: SourceNone, TagVersion: "1.0.0-rc.1"},
			Transform: Transform{Bumps: []bump.Request{{Target: bump.PreReleaseLabel, Amount: 1}}},
		}, ErrInvalidBumpTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Version(context.Background(), tt.opts)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Version(context.Background(), VersionOptions{Input: Input{Source: "svn"}})
	assert.Error(t, err)
}

func TestFlow(t *testing.T) {
	res, err := Flow(context.Background(), FlowOptions{
		Input:  Input{Fetcher: memoryRepo("v1.0.0", "release/3", 2, false)},
		Output: Output{Format: render.FormatPEP440},
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0.1rc3.post2+release.3.2.abcdef1", res.Version)

	res, err = Flow(context.Background(), FlowOptions{
		Input:     Input{Fetcher: memoryRepo("v1.0.0", "develop", 2, false)},
		Transform: Transform{Overrides: versioneer.Vars{Major: ptr.Point[uint64](4)}},
		Flow:      flow.Options{NoPreRelease: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "4.0.0+develop.2.abcdef1", res.Version)
}

func TestCheck(t *testing.T) {
	g, err := Check("1.2.3-alpha.1", ver.Auto)
	require.NoError(t, err)
	assert.Equal(t, ver.SemVer, g)

	g, err = Check("1.2.3rc1", "")
	require.NoError(t, err)
	assert.Equal(t, ver.PEP440, g)

	_, err = Check("1.2.3rc1", ver.SemVer)
	assert.True(t, errors.Is(err, ErrUnrecognizedFormat))

	_, err = Check("not a version", ver.Auto)
	assert.True(t, errors.Is(err, ErrUnrecognizedFormat))

	_, err = Check("1.2.3", "maven")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify("1.2.3rc3", "1.2.3-rc.3", ver.Auto))
	assert.NoError(t, Verify("v1.0.0", "1.0.0", ver.Auto))

	err := Verify("1.2.3", "1.2.4", ver.Auto)
	assert.True(t, errors.Is(err, ErrVersionMismatch))

	err = Verify("1.2.3", "bogus", ver.Auto)
	assert.True(t, errors.Is(err, ErrUnrecognizedFormat))
}

func TestVersion_LogsDroppedLiterals(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	res, err := Version(context.Background(), VersionOptions{
		Input:  Input{Source: SourceNone, TagVersion: "1.2.3.4+ubuntu.20"},
		Logger: l,
	})
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", res.Version)
	assert.Contains(t, buf.String(), "literal components dropped")

	buf.Reset()
	_, err = Version(context.Background(), VersionOptions{Input: Input{Source: SourceNone, TagVersion: "1.2.3"}, Logger: l})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "literal components dropped")
}

func TestRender(t *testing.T) {
	tests := []struct {
		text    string
		grammar ver.Grammar
		out     Output
		want    string
	}{
		{"1.2.3.4+Ubuntu-20.04", ver.Auto, Output{Format: render.FormatPEP440}, "1.2.3.4+ubuntu.20.04"},
		{"1.2.3rc1", ver.Auto, Output{}, "1.2.3-rc.1"},
		{"1.2.3-alpha.1", ver.SemVer, Output{Format: render.FormatPEP440, Prefix: "v"}, "v1.2.3a1"},
		{"v1.0", ver.PEP440, Output{Format: render.FormatTemplate, Template: "{{major}}-{{minor}}"}, "1-0"},
	}
	for _, tt := range tests {
		res, err := Render(tt.text, tt.grammar, tt.out)
		if assert.NoError(t, err, tt.text) {
			assert.Equal(t, tt.want, res.Version, tt.text)
		}
	}

	doc, err := Render("2.0.0-rc.1+ci.9", ver.Auto, Output{Format: render.FormatCanonical})
	require.NoError(t, err)
	res, err := Render(doc.Version, ver.Auto, Output{})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0-rc.1+ci.9", res.Version)

	_, err = Render("not a version", ver.Auto, Output{})
	assert.True(t, errors.Is(err, ErrUnrecognizedFormat))
}

func TestVersion_Components(t *testing.T) {
	res := version(t, VersionOptions{
		Input: Input{Source: SourceNone, TagVersion: "1.2.3"},
		Transform: Transform{Components: []bump.ComponentRequest{
			{Segment: versioneer.Core, Index: 1, Amount: 1},
			{Segment: versioneer.Core, Index: -1, Override: ptr.Point[uint64](7)},
		}},
	})
	assert.Equal(t, "1.3.7", res.Version)

	_, err := Version(context.Background(), VersionOptions{
		Input:     Input{Source: SourceNone, TagVersion: "1.2.3"},
		Transform: Transform{Components: []bump.ComponentRequest{{Segment: versioneer.Build, Index: 0, Amount: 1}}},
	})
	assert.True(t, errors.Is(err, ErrInvalidBumpTarget))
}
