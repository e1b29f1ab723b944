package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/bump"
	"github.com/zerv/zerv-core/providers/render"
	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/providers/versioneer"
	"github.com/zerv/zerv-core/zerv"
)

// inputFlags select the source of the base version.
type inputFlags struct {
	source      string
	inputFormat string
	tagVersion  string
	remote      string
	ref         string
	token       string
}

func (f *inputFlags) register(fs *pflag.FlagSet, withSource bool) {
	if withSource {
		fs.StringVar(&f.source, "source", "git", "input source: git, stdin or none")
	}
	fs.StringVar(&f.inputFormat, "input-format", "", "grammar of tags and stdin versions: auto, semver, pep440, pvp")
	fs.StringVar(&f.tagVersion, "tag-version", "", "use this version instead of the nearest tag")
	fs.StringVar(&f.remote, "remote", "", "read a GitHub or GitLab repository through its API (e.g. git@github.com:vendor/repo.git)")
	fs.StringVar(&f.ref, "ref", "HEAD", "branch or commit treated as HEAD with --remote")
	fs.StringVar(&f.token, "token", os.Getenv("ZERV_TOKEN"), "API token for --remote")
}

// outputFlags control rendering.
type outputFlags struct {
	format   string
	template string
	prefix   string
}

func (f *outputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.format, "output-format", "", "semver, pep440, canonical or template")
	fs.StringVar(&f.template, "output-template", "", "template with {{field}} placeholders")
	fs.StringVar(&f.prefix, "output-prefix", "", "prefix prepended to the output")
}

// transformFlags select the schema and carry overrides and bumps.
type transformFlags struct {
	schema      string
	schemaRON   string
	bumpContext bool

	major, minor, patch, epoch, post, dev uint64
	label                                 string
	number                                uint64
	distance                              uint64
	dirty, noDirty                        bool
	branch, commitHash                    string
	timestamp                             int64
	custom                                []string
	clean                                 bool

	core, extraCore, build             []string
	bumpCore, bumpExtraCore, bumpBuild []string

	// preRelease is set when the pre-release override flags belong to this group.
	preRelease bool
	bumps      map[bump.Target]*uint64
}

var bumpFlags = []struct {
	target bump.Target
	name   string
}{
	{bump.Epoch, "bump-epoch"},
	{bump.Major, "bump-major"},
	{bump.Minor, "bump-minor"},
	{bump.Patch, "bump-patch"},
	{bump.PreReleaseLabel, "bump-pre-release-label"},
	{bump.PreReleaseNum, "bump-pre-release-num"},
	{bump.Post, "bump-post"},
	{bump.Dev, "bump-dev"},
}

func (f *transformFlags) register(fs *pflag.FlagSet, withPreRelease bool) {
	fs.StringVar(&f.schema, "schema", "", "schema preset (e.g. standard, calver-base-prerelease-context)")
	fs.StringVar(&f.schemaRON, "schema-ron", "", "raw schema in canonical notation")
	fs.BoolVar(&f.bumpContext, "bump-context", false, "clear distance, dirty and bumped_* when bumping")

	fs.Uint64Var(&f.major, "major", 0, "override major")
	fs.Uint64Var(&f.minor, "minor", 0, "override minor")
	fs.Uint64Var(&f.patch, "patch", 0, "override patch")
	fs.Uint64Var(&f.epoch, "epoch", 0, "override epoch")
	fs.Uint64Var(&f.post, "post", 0, "override post")
	fs.Uint64Var(&f.dev, "dev", 0, "override dev")
	f.preRelease = withPreRelease
	if withPreRelease {
		fs.StringVar(&f.label, "pre-release-label", "", "override pre-release label: alpha, beta, rc")
		fs.Uint64Var(&f.number, "pre-release-num", 0, "override pre-release number")
	}
	fs.Uint64Var(&f.distance, "distance", 0, "override distance")
	fs.BoolVar(&f.dirty, "dirty", false, "mark the version dirty")
	fs.BoolVar(&f.noDirty, "no-dirty", false, "mark the version clean")
	fs.StringVar(&f.branch, "bumped-branch", "", "override bumped_branch")
	fs.StringVar(&f.commitHash, "bumped-commit-hash", "", "override bumped_commit_hash")
	fs.Int64Var(&f.timestamp, "bumped-timestamp", 0, "override bumped_timestamp (unix seconds)")
	fs.StringArrayVar(&f.custom, "custom", nil, "custom variable as key=value (repeatable)")
	fs.BoolVar(&f.clean, "clean", false, "force a clean release state (distance 0, not dirty)")

	fs.StringArrayVar(&f.core, "core", nil, "override core component by index=value (~1 is the last)")
	fs.StringArrayVar(&f.extraCore, "extra-core", nil, "override extra core component by index=value")
	fs.StringArrayVar(&f.build, "build", nil, "override build component by index=value")
	fs.StringArrayVar(&f.bumpCore, "bump-core", nil, "bump core component by index[=N] (default 1)")
	fs.StringArrayVar(&f.bumpExtraCore, "bump-extra-core", nil, "bump extra core component by index[=N]")
	fs.StringArrayVar(&f.bumpBuild, "bump-build", nil, "bump build component by index[=N]")

	f.bumps = map[bump.Target]*uint64{}
	for _, b := range bumpFlags {
		n := new(uint64)
		f.bumps[b.target] = n
		fs.Uint64Var(n, b.name, 0, fmt.Sprintf("bump %s by N (default 1)", b.target))
		fs.Lookup(b.name).NoOptDefVal = "1"
	}
}

// transform converts changed flags into a zerv.Transform.
func (f *transformFlags) transform(cmd *cobra.Command) (zerv.Transform, error) {
	changed := cmd.Flags().Changed
	t := zerv.Transform{Schema: f.schema, SchemaRON: f.schemaRON, BumpContext: f.bumpContext}
	o := &t.Overrides

	setUint := func(name string, dst **uint64, v uint64) {
		if changed(name) {
			*dst = ptr.Point(v)
		}
	}
	setUint("major", &o.Major, f.major)
	setUint("minor", &o.Minor, f.minor)
	setUint("patch", &o.Patch, f.patch)
	setUint("epoch", &o.Epoch, f.epoch)
	setUint("post", &o.Post, f.post)
	setUint("dev", &o.Dev, f.dev)
	setUint("distance", &o.Distance, f.distance)

	if f.preRelease && changed("pre-release-label") {
		l, err := versioneer.ParseLabel(f.label)
		if err != nil {
			return t, err
		}
		o.PreRelease = &versioneer.PreRelease{Label: l}
		if changed("pre-release-num") {
			o.PreRelease.Number = ptr.Point(f.number)
		}
	}

	if f.clean {
		if changed("distance") || f.dirty || f.noDirty {
			return t, fmt.Errorf("--clean conflicts with --distance, --dirty and --no-dirty")
		}
		o.Distance = ptr.Point[uint64](0)
		o.Dirty = ptr.Point(false)
	}

	switch {
	case f.dirty && f.noDirty:
		return t, fmt.Errorf("--dirty and --no-dirty are mutually exclusive")
	case f.dirty:
		o.Dirty = ptr.Point(true)
	case f.noDirty:
		o.Dirty = ptr.Point(false)
	}
	if changed("bumped-branch") {
		o.BumpedBranch = ptr.Point(f.branch)
	}
	if changed("bumped-commit-hash") {
		o.BumpedCommitHash = ptr.Point(f.commitHash)
	}
	if changed("bumped-timestamp") {
		o.BumpedTimestamp = ptr.Point(f.timestamp)
	}
	for _, kv := range f.custom {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return t, fmt.Errorf("invalid --custom %q, expected key=value", kv)
		}
		o.Custom = o.Custom.With(key, versioneer.ParseValue(value))
	}

	for _, b := range bumpFlags {
		if changed(b.name) {
			t.Bumps = append(t.Bumps, bump.Request{Target: b.target, Amount: *f.bumps[b.target]})
		}
	}

	var err error
	if t.Components, err = f.components(); err != nil {
		return t, err
	}
	return t, nil
}

// components converts --core/--bump-core style specs into component requests.
func (f *transformFlags) components() ([]bump.ComponentRequest, error) {
	groups := []struct {
		segment versioneer.Segment
		specs   []string
		bump    bool
	}{
		{versioneer.Core, f.core, false},
		{versioneer.ExtraCore, f.extraCore, false},
		{versioneer.Build, f.build, false},
		{versioneer.Core, f.bumpCore, true},
		{versioneer.ExtraCore, f.bumpExtraCore, true},
		{versioneer.Build, f.bumpBuild, true},
	}

	var reqs []bump.ComponentRequest
	for _, g := range groups {
		for _, spec := range g.specs {
			idx, value, err := bump.ParseComponentSpec(spec)
			if err != nil {
				return nil, err
			}
			req := bump.ComponentRequest{Segment: g.segment, Index: idx}
			switch {
			case g.bump && value == nil:
				req.Amount = 1
			case g.bump:
				req.Amount = *value
			case value == nil:
				return nil, fmt.Errorf("invalid component override %q, expected index=value", spec)
			default:
				req.Override = value
			}
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

// input resolves the input flags against the configuration.
func (a *app) input(cmd *cobra.Command, f *inputFlags) (zerv.Input, error) {
	format := f.inputFormat
	if format == "" {
		format = a.cfg.InputFormat
	}
	grammar, err := ver.ParseGrammar(format)
	if err != nil {
		return zerv.Input{}, err
	}
	source, err := zerv.ParseSource(f.source)
	if err != nil {
		return zerv.Input{}, err
	}

	in := zerv.Input{
		Source:           source,
		Format:           grammar,
		Directory:        a.workDir(),
		IncludeUntracked: a.cfg.IncludeUntracked,
		Stdin:            cmd.InOrStdin(),
		TagVersion:       f.tagVersion,
	}
	if f.remote != "" {
		if in.Fetcher, err = zerv.NewRemoteFetcher(f.remote, f.ref, zerv.RemoteOptions{Token: f.token, Logger: a.logger}); err != nil {
			return zerv.Input{}, err
		}
	}
	return in, nil
}

// output resolves the output flags against the configuration.
func (a *app) output(cmd *cobra.Command, f *outputFlags) (zerv.Output, error) {
	name := f.format
	if name == "" {
		name = a.cfg.OutputFormat
	}
	if f.template != "" && !cmd.Flags().Changed("output-format") {
		name = string(render.FormatTemplate)
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return zerv.Output{}, err
	}
	prefix := f.prefix
	if !cmd.Flags().Changed("output-prefix") {
		prefix = a.cfg.OutputPrefix
	}
	return zerv.Output{Format: format, Template: f.template, Prefix: prefix}, nil
}

// schema applies the configured preset when no schema flag was given.
func (a *app) schema(t *zerv.Transform) {
	if t.Schema == "" && t.SchemaRON == "" {
		t.Schema = a.cfg.Schema
	}
}
