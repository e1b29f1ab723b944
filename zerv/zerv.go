/*
Package zerv provides the version pipelines: a base version from a repository, standard input
or explicit flags, optional overrides and bumps, a schema and a rendered string.

Usage:

	res, err := zerv.Version(ctx, zerv.VersionOptions{
		Input:  zerv.Input{Source: zerv.SourceGit, Directory: "."},
		Output: zerv.Output{Format: render.FormatPEP440},
	})
	fmt.Println(res.Version)
*/
package zerv

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/bump"
	"github.com/zerv/zerv-core/providers/fetchers"
	"github.com/zerv/zerv-core/providers/flow"
	"github.com/zerv/zerv-core/providers/render"
	"github.com/zerv/zerv-core/providers/schemas"
	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/providers/versioneer"
)

// Input describes where the base version comes from.
type Input struct {
	Source Source
	// Format is the grammar of tags and plain stdin versions.
	Format ver.Grammar
	// Directory is the repository path for SourceGit. Empty means the working directory.
	Directory string
	// Fetcher replaces the local git fetcher, e.g. with a remote one.
	Fetcher fetchers.RepoFetcher
	// IncludeUntracked makes untracked files count as dirty.
	IncludeUntracked bool
	// Stdin is read for SourceStdin.
	Stdin io.Reader
	// TagVersion replaces the version of the tag (or of 0.0.0 without one).
	TagVersion string
}

// Output describes how the version is rendered.
type Output struct {
	Format   render.Format
	Template string
	Prefix   string
}

// Transform holds the schema choice, explicit overrides and bumps.
type Transform struct {
	// Schema is a preset name. Ignored when SchemaRON is set.
	Schema string
	// SchemaRON is a raw schema definition in canonical notation.
	SchemaRON string
	// Overrides are explicit field values. They win over bumps of the same field.
	Overrides versioneer.Vars
	Bumps     []bump.Request
	// Components override or bump schema components by index. They run last, against the
	// final schema.
	Components []bump.ComponentRequest
	// BumpContext makes bumps clear the VCS context fields.
	BumpContext bool
}

// VersionOptions configures Version.
type VersionOptions struct {
	Input
	Output
	Transform
	Logger *log.Logger
}

// Result is a computed version.
type Result struct {
	Zerv    versioneer.Zerv
	Version string
	// NoTag is set when no version tag was found and a default version was used.
	NoTag bool
}

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

// Version computes a version from the configured source.
func Version(ctx context.Context, opts VersionOptions) (*Result, error) {
	l := logger(opts.Logger)
	base, noTag, err := baseVersion(ctx, opts.Input, l)
	if err != nil {
		return nil, err
	}

	name := opts.Schema
	if name == "" && opts.SchemaRON == "" && base.Schema.Core == nil {
		name = flow.DefaultSchema
	}
	z, err := transform(base, name, opts.Transform, l)
	if err != nil {
		return nil, err
	}
	return finish(z, noTag, opts.Output)
}

// FlowOptions configures Flow.
type FlowOptions struct {
	Input
	Output
	Transform
	Flow   flow.Options
	Logger *log.Logger
}

// Flow computes a version from repository state and branch rules. The input source is
// always a repository.
func Flow(ctx context.Context, opts FlowOptions) (*Result, error) {
	l := logger(opts.Logger)
	fetcher, err := gitFetcher(opts.Input, l)
	if err != nil {
		return nil, err
	}
	fopts := opts.Flow
	if fopts.InputFormat == "" {
		fopts.InputFormat = opts.Input.Format
	}
	if fopts.DefaultVersion == "" {
		fopts.DefaultVersion = opts.Input.TagVersion
	}
	if opts.Schema != "" {
		fopts.Schema = opts.Schema
	}

	res, err := flow.NewResolver(fetcher, l).Resolve(ctx, fopts)
	if err != nil {
		return nil, err
	}
	z, err := transform(res.Zerv, res.SchemaName, opts.Transform, l)
	if err != nil {
		return nil, err
	}
	return finish(z, res.NoTag, opts.Output)
}

func gitFetcher(in Input, l *log.Logger) (fetchers.RepoFetcher, error) {
	if in.Fetcher != nil {
		return in.Fetcher, nil
	}
	dir := in.Directory
	if dir == "" {
		dir = "."
	}
	return fetchers.NewGitFetcher(dir, fetchers.GitOptions{IncludeUntracked: in.IncludeUntracked, Logger: l}), nil
}

// parsedVars keeps the fields of a parsed version. The literal components of its schema
// (extra release parts, build identifiers) do not survive the preset and are logged.
func parsedVars(z versioneer.Zerv, text string, l *log.Logger) versioneer.Vars {
	var dropped []string
	for _, c := range z.Schema.Components() {
		if v, ok := c.Literal(); ok {
			dropped = append(dropped, v.String())
		}
	}
	if len(dropped) > 0 {
		l.Debug("literal components dropped", "version", text, "components", dropped)
	}
	return z.Vars
}

func zeroVars() versioneer.Vars {
	return versioneer.Vars{Major: ptr.Point[uint64](0), Minor: ptr.Point[uint64](0), Patch: ptr.Point[uint64](0)}
}

// baseVersion builds the model before overrides and bumps. A schema is only returned for
// canonical stdin documents.
func baseVersion(ctx context.Context, in Input, l *log.Logger) (versioneer.Zerv, bool, error) {
	source, err := ParseSource(string(in.Source))
	if err != nil {
		return versioneer.Zerv{}, false, err
	}

	switch source {
	case SourceStdin:
		if in.Stdin == nil {
			return versioneer.Zerv{}, false, fmt.Errorf("stdin source requires an input stream")
		}
		data, err := io.ReadAll(in.Stdin)
		if err != nil {
			return versioneer.Zerv{}, false, fmt.Errorf("unable to read stdin: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return versioneer.Zerv{}, false, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		if strings.HasPrefix(text, "(") || strings.HasPrefix(text, "//") {
			z, err := versioneer.Deserialize(text)
			return z, false, err
		}
		z, err := ver.Parse(text, in.Format)
		if err != nil {
			return versioneer.Zerv{}, false, err
		}
		return versioneer.Zerv{Vars: parsedVars(z, text, l)}, false, nil

	case SourceNone:
		if in.TagVersion == "" {
			return versioneer.Zerv{Vars: zeroVars()}, true, nil
		}
		z, err := ver.Parse(in.TagVersion, in.Format)
		if err != nil {
			return versioneer.Zerv{}, false, err
		}
		return versioneer.Zerv{Vars: parsedVars(z, in.TagVersion, l)}, false, nil
	}

	fetcher, err := gitFetcher(in, l)
	if err != nil {
		return versioneer.Zerv{}, false, err
	}
	facts, err := fetcher.Facts(ctx, flow.NewTagSelector(in.Format))
	if err != nil {
		return versioneer.Zerv{}, false, err
	}

	var (
		vars  versioneer.Vars
		noTag bool
	)
	switch {
	case in.TagVersion != "":
		z, err := ver.Parse(in.TagVersion, in.Format)
		if err != nil {
			return versioneer.Zerv{}, false, err
		}
		vars = parsedVars(z, in.TagVersion, l)
		vars.LastTagVersion = ptr.Point(in.TagVersion)
	case facts.Tag != nil:
		z, err := ver.Parse(facts.Tag.Name, in.Format)
		if err != nil {
			return versioneer.Zerv{}, false, fmt.Errorf("unable to parse tag '%s': %w", facts.Tag.Name, err)
		}
		vars = parsedVars(z, facts.Tag.Name, l)
		vars.LastTagVersion = ptr.Point(facts.Tag.Name)
	default:
		l.Warn(ErrNoTagFound.Error(), "default", "0.0.0")
		vars, noTag = zeroVars(), true
	}
	return versioneer.Zerv{Vars: vars.Merge(flow.ContextVars(facts, facts.Branch))}, noTag, nil
}

// transform selects the schema and applies overrides and bumps. Smart presets are resolved
// again after the bumps so their depth follows the final model.
func transform(base versioneer.Zerv, preset string, t Transform, l *log.Logger) (versioneer.Zerv, error) {
	schema := base.Schema
	var err error
	switch {
	case t.SchemaRON != "":
		if schema, err = versioneer.ParseSchema(t.SchemaRON); err != nil {
			return versioneer.Zerv{}, err
		}
		preset = ""
	case preset != "":
		if schema, err = schemas.ResolveFor(preset, base.Vars.Merge(t.Overrides)); err != nil {
			return versioneer.Zerv{}, err
		}
	}

	vars, err := bump.Apply(base.Vars, schema, bump.Plan{Bumps: t.Bumps, Overrides: t.Overrides, Context: t.BumpContext})
	if err != nil {
		return versioneer.Zerv{}, err
	}

	if preset != "" && schemas.IsSmart(preset) {
		if schema, err = schemas.ResolveFor(preset, vars); err != nil {
			return versioneer.Zerv{}, err
		}
	}
	z := versioneer.Zerv{Schema: schema, Vars: vars}
	if len(t.Components) > 0 {
		if z, err = bump.ApplyComponents(z, t.Components, t.BumpContext); err != nil {
			return versioneer.Zerv{}, err
		}
	}
	l.Debug("transformed version", "schema", preset, "bumps", len(t.Bumps), "components", len(t.Components))
	return z, nil
}

func finish(z versioneer.Zerv, noTag bool, out Output) (*Result, error) {
	format := out.Format
	if format == "" {
		format = render.FormatSemVer
	}
	s, err := render.Render(z.Vars, z.Schema, format, render.Options{Template: out.Template, Prefix: out.Prefix})
	if err != nil {
		return nil, err
	}
	return &Result{Zerv: z, Version: s, NoTag: noTag}, nil
}

// Render converts one version string between formats. The schema produced by parsing is
// kept, so extra release parts and build identifiers survive the conversion. Canonical
// documents are accepted as well.
func Render(text string, grammar ver.Grammar, out Output) (*Result, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "(") || strings.HasPrefix(text, "//") {
		z, err := versioneer.Deserialize(text)
		if err != nil {
			return nil, err
		}
		return finish(z, false, out)
	}
	z, err := ver.Parse(text, grammar)
	if err != nil {
		return nil, err
	}
	return finish(z, false, out)
}

// Check validates text against a grammar. Auto accepts any supported grammar and returns
// the detected one.
func Check(text string, grammar ver.Grammar) (ver.Grammar, error) {
	if grammar == "" || grammar == ver.Auto {
		return ver.Detect(text)
	}
	if _, err := ver.ParseGrammar(string(grammar)); err != nil {
		return "", err
	}
	if !ver.Validate(text, grammar) {
		return "", fmt.Errorf("%w: %q is not a valid %s version", ErrUnrecognizedFormat, text, grammar)
	}
	return grammar, nil
}

// verifyOrder ranks every version field for Verify.
var verifyOrder = versioneer.MustSchema(
	versioneer.Fields(versioneer.FieldEpoch, versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch),
	versioneer.Fields(versioneer.FieldPreRelease, versioneer.FieldPost, versioneer.FieldDev),
	nil,
)

// Verify parses two independently derived versions and returns ErrVersionMismatch when
// they are not the same version. Spelling differences between grammars do not count.
func Verify(a, b string, grammar ver.Grammar) error {
	za, err := ver.Parse(a, grammar)
	if err != nil {
		return err
	}
	zb, err := ver.Parse(b, grammar)
	if err != nil {
		return err
	}
	if versioneer.Compare(za.Vars, zb.Vars, verifyOrder) != 0 {
		return fmt.Errorf("%w: %q != %q", ErrVersionMismatch, a, b)
	}
	return nil
}
