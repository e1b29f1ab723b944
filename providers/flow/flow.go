/*
Package flow derives versions from repository state: the nearest version tag, the commit
distance to it, the worktree status and branch rules that decide pre-release labels, post
numbering and the schema preset.

Usage:

	r := flow.NewResolver(fetchers.NewGitFetcher(".", fetchers.GitOptions{}), logger)
	res, err := r.Resolve(ctx, flow.Options{})
	out, err := render.Render(res.Zerv.Vars, res.Zerv.Schema, render.FormatSemVer, render.Options{})
*/
package flow

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/bump"
	"github.com/zerv/zerv-core/providers/fetchers"
	"github.com/zerv/zerv-core/providers/schemas"
	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/providers/versioneer"
)

// Options tune one resolution. The zero value uses the default rules and auto-detects the
// tag grammar.
type Options struct {
	// Rules replaces DefaultRules when not nil.
	Rules Rules
	// Branch overrides the branch read from the repository.
	Branch string
	// DefaultVersion is used when no version tag is reachable. Empty means 0.0.0.
	DefaultVersion string
	// InputFormat is the grammar tags are parsed with.
	InputFormat ver.Grammar

	// Schema overrides the preset chosen by the rule.
	Schema string
	// PreReleaseLabel and PreReleaseNum override the rule's pre-release.
	PreReleaseLabel *versioneer.Label
	PreReleaseNum   *uint64
	// NoPreRelease drops the pre-release of the matched rule.
	NoPreRelease bool
	// PostMode overrides the rule's post mode.
	PostMode PostMode
}

// Result is a resolved flow version.
type Result struct {
	Zerv       versioneer.Zerv
	SchemaName string
	// Rule is the matched branch rule, nil when the default action applied.
	Rule  *Rule
	NoTag bool
	Facts fetchers.Facts
}

// Resolver computes flow versions from one repository.
type Resolver struct {
	fetcher fetchers.RepoFetcher
	logger  *log.Logger
}

// NewResolver creates a resolver. A nil logger discards output.
func NewResolver(fetcher fetchers.RepoFetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve reads one facts snapshot and derives the flow version from it. A missing version
// tag is not an error: the default version is used and Result.NoTag is set.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (*Result, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	grammar := opts.InputFormat
	if grammar == "" {
		grammar = ver.Auto
	}
	facts, err := r.fetcher.Facts(ctx, NewTagSelector(grammar))
	if err != nil {
		return nil, err
	}
	res := &Result{Facts: *facts}

	vars, err := r.baseVars(facts, grammar, opts.DefaultVersion)
	if err != nil {
		return nil, err
	}
	res.NoTag = facts.Tag == nil

	branch := facts.Branch
	if opts.Branch != "" {
		branch = opts.Branch
	}
	vars = vars.Merge(ContextVars(facts, branch))

	action := DefaultAction()
	if rule, ok := rules.Find(branch); ok {
		res.Rule = &rule
		action = rule.Action(branch)
	}
	action = opts.override(action)
	r.logger.Debug("flow action", "branch", branch, "rule", ruleName(res.Rule),
		"schema", action.Schema, "pre_release", action.PreRelease, "post_mode", action.PostMode)

	if vars, err = apply(vars, action, facts); err != nil {
		return nil, err
	}

	schema, err := schemas.ResolveFor(action.Schema, vars)
	if err != nil {
		return nil, err
	}
	res.SchemaName = action.Schema
	res.Zerv = versioneer.Zerv{Schema: schema, Vars: vars}
	return res, nil
}

// baseVars parses the tag, or the default version when no tag was found.
func (r *Resolver) baseVars(facts *fetchers.Facts, grammar ver.Grammar, fallback string) (versioneer.Vars, error) {
	if facts.Tag != nil {
		z, err := ver.Parse(facts.Tag.Name, grammar)
		if err != nil {
			return versioneer.Vars{}, fmt.Errorf("unable to parse tag '%s': %w", facts.Tag.Name, err)
		}
		vars := z.Vars
		vars.LastTagVersion = ptr.Point(facts.Tag.Name)
		return vars, nil
	}

	r.logger.Warn(fetchers.ErrNoTagFound.Error(), "default", fallback)
	if fallback == "" {
		return versioneer.Vars{
			Major: ptr.Point[uint64](0),
			Minor: ptr.Point[uint64](0),
			Patch: ptr.Point[uint64](0),
		}, nil
	}
	z, err := ver.Parse(fallback, grammar)
	if err != nil {
		return versioneer.Vars{}, fmt.Errorf("unable to parse default version '%s': %w", fallback, err)
	}
	return z.Vars, nil
}

// ContextVars captures HEAD state into both the bumped and last context fields.
func ContextVars(facts *fetchers.Facts, branch string) versioneer.Vars {
	v := versioneer.Vars{
		Distance:         ptr.Point(facts.Distance),
		Dirty:            ptr.Point(facts.Dirty),
		BumpedTimestamp:  ptr.Point(facts.Timestamp),
		LastTimestamp:    ptr.Point(facts.Timestamp),
		BumpedCommitHash: ptr.Point(facts.Commit),
		LastCommitHash:   ptr.Point(facts.Commit),
	}
	if branch != "" {
		v.BumpedBranch = ptr.Point(branch)
		v.LastBranch = ptr.Point(branch)
	}
	return v
}

func (o Options) override(a Action) Action {
	if o.Schema != "" {
		a.Schema = o.Schema
	}
	if o.PostMode != "" {
		a.PostMode = o.PostMode
	}
	if o.PreReleaseLabel != nil {
		number := o.PreReleaseNum
		if number == nil && a.PreRelease != nil {
			number = a.PreRelease.Number
		}
		a.PreRelease = &versioneer.PreRelease{Label: *o.PreReleaseLabel, Number: ptr.Clone(number)}
	} else if o.PreReleaseNum != nil && a.PreRelease != nil {
		a.PreRelease = &versioneer.PreRelease{Label: a.PreRelease.Label, Number: ptr.Clone(o.PreReleaseNum)}
	}
	if o.NoPreRelease {
		a.PreRelease = nil
	}
	return a
}

// releaseOrder ranks version fields for the patch bump of an off-tag pre-release.
var releaseOrder = versioneer.MustSchema(
	versioneer.Fields(versioneer.FieldEpoch, versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch),
	versioneer.Fields(versioneer.FieldPreRelease, versioneer.FieldPost, versioneer.FieldDev),
	nil,
)

// apply turns a tag version into an off-tag version. On the tag with a clean tree the
// version is the tag itself.
func apply(vars versioneer.Vars, a Action, facts *fetchers.Facts) (versioneer.Vars, error) {
	if facts.Distance == 0 && !facts.Dirty {
		return vars, nil
	}

	var err error
	released := false
	if a.PreRelease != nil {
		if vars.PreRelease == nil {
			if vars, err = bump.Bump(vars, releaseOrder, bump.Patch, 1, false); err != nil {
				return versioneer.Vars{}, err
			}
			released = true
		}
		vars.PreRelease = &versioneer.PreRelease{Label: a.PreRelease.Label, Number: ptr.Clone(a.PreRelease.Number)}
	}

	if a.PostMode == PostTag {
		var post uint64
		if !released && vars.Post != nil {
			post = *vars.Post
		}
		// a dirty tree on the tag commit still has to sort after the tag
		post += max(facts.Distance, 1)
		vars.Post = &post
	}

	if facts.Dirty {
		vars.Dev = ptr.Point(uint64(max(facts.Timestamp, 0)))
	}
	return vars, nil
}

func ruleName(r *Rule) string {
	if r == nil {
		return "default"
	}
	return r.Pattern
}
