package fetchers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/zerv/zerv-core/providers/api/gitlab"
)

// GitLabFetcher reads facts from a GitLab project without a local clone.
// Project is the numeric id or the 'group/project' path, Ref the branch (or SHA) treated
// as HEAD. Remote repositories are never dirty.
type GitLabFetcher struct {
	Project string
	Ref     string
	Logger  *log.Logger
	client  *gitlab.GitLabClient
}

// NewGitLabFetcher constructs GitLabFetcher on top of a configured client.
func NewGitLabFetcher(client *gitlab.GitLabClient, project, ref string) *GitLabFetcher {
	return &GitLabFetcher{Project: project, Ref: ref, client: client}
}

// Facts resolves HEAD, lists tags and compares each accepted tag with HEAD. The tag with
// the fewest commits behind HEAD wins; ties go to the highest ranked tag.
func (p GitLabFetcher) Facts(ctx context.Context, sel TagSelector) (*Facts, error) {
	if p.Ref == "" {
		return nil, fmt.Errorf("gitlab fetcher requires a ref")
	}
	logger := p.Logger
	if logger == nil {
		logger = discard
	}

	head, _, err := p.client.Commit(ctx, p.Project, p.Ref)
	if err != nil {
		if errors.Is(err, gitlab.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s@%s: %w", ErrNoRepository, p.Project, p.Ref, err)
		}
		return nil, fmt.Errorf("unable to load '%s' commit from gitlab: %w", p.Ref, err)
	}
	facts := &Facts{Commit: head.ID, Timestamp: head.CommittedDate.Unix()}
	if head.ID != p.Ref && p.Ref != "HEAD" {
		facts.Branch = p.Ref
	}

	byCommit := map[string][]string{}
	opts := &gitlab.ListTagsOptions{PerPage: 100, Page: 1}
	for {
		tags, resp, err := p.client.ListTags(ctx, p.Project, opts)
		if err != nil {
			return nil, fmt.Errorf("unable to list gitlab tags: %w", err)
		}
		for _, t := range tags {
			byCommit[t.Commit.ID] = append(byCommit[t.Commit.ID], t.Name)
		}
		next := gitlab.NextPage(resp)
		if next == 0 {
			break
		}
		opts.Page = next
	}

	var (
		found   bool
		nearest int
		names   []string
		commits = map[string]string{}
	)
	for sha, tagNames := range byCommit {
		name, ok := best(sel, tagNames)
		if !ok {
			continue
		}
		ahead := 0
		if sha != head.ID {
			cmp, _, err := p.client.Compare(ctx, p.Project, &gitlab.CompareOptions{From: sha, To: head.ID, Straight: true})
			if err != nil {
				return nil, fmt.Errorf("unable to compare '%s' with '%s': %w", name, head.ID, err)
			}
			// commits reachable from the tag but not from HEAD put the tag off this branch
			back, _, err := p.client.Compare(ctx, p.Project, &gitlab.CompareOptions{From: head.ID, To: sha, Straight: true})
			if err != nil {
				return nil, fmt.Errorf("unable to compare '%s' with '%s': %w", head.ID, name, err)
			}
			if len(back.Commits) > 0 {
				continue
			}
			ahead = len(cmp.Commits)
		}
		logger.Debug("compared tag", "tag", name, "ahead_by", ahead)

		switch {
		case !found || ahead < nearest:
			found, nearest = true, ahead
			names = []string{name}
		case ahead == nearest:
			names = append(names, name)
		}
		commits[name] = sha
	}

	if found {
		name, _ := best(sel, names)
		facts.Tag = &Tag{Name: name, Commit: commits[name]}
		facts.Distance = uint64(nearest)
	}
	return facts, nil
}
