package fetchers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v33/github"
)

// GitHubFetcher reads facts from a GitHub repository without a local clone.
// Owner and Repo represent '{owner}/{repo}' notation, Ref is the branch (or commit SHA)
// treated as HEAD. Remote repositories are never dirty.
type GitHubFetcher struct {
	Owner        string
	Repo         string
	Ref          string
	Logger       *log.Logger
	githubClient *github.Client
}

// NewGitHubFetcher constructs GitHubFetcher with specified parameters.
// httpClient can be used as OAuth2 or BasicAuth http transport.
func NewGitHubFetcher(httpClient *http.Client, owner, repo, ref string) *GitHubFetcher {
	return &GitHubFetcher{
		Owner:        owner,
		Repo:         repo,
		Ref:          ref,
		githubClient: github.NewClient(httpClient),
	}
}

func (p GitHubFetcher) logger() *log.Logger {
	if p.Logger == nil {
		return discard
	}
	return p.Logger
}

// Facts resolves HEAD, lists tags and compares each accepted tag with HEAD. The tag
// with the fewest commits behind HEAD wins; ties go to the highest ranked tag.
func (p GitHubFetcher) Facts(ctx context.Context, sel TagSelector) (*Facts, error) {
	if p.Ref == "" {
		return nil, fmt.Errorf("github fetcher requires a ref")
	}
	head, resp, err := p.githubClient.Repositories.GetCommit(ctx, p.Owner, p.Repo, p.Ref)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: github.com/%s/%s@%s", ErrNoRepository, p.Owner, p.Repo, p.Ref)
		}
		return nil, fmt.Errorf("unable to load '%s' commit from github: %w", p.Ref, err)
	}

	facts := &Facts{Commit: head.GetSHA()}
	if date := head.GetCommit().GetCommitter().GetDate(); !date.IsZero() {
		facts.Timestamp = date.Unix()
	}
	if facts.Commit != p.Ref && p.Ref != "HEAD" {
		facts.Branch = p.Ref
	}

	byCommit, err := p.tags(ctx)
	if err != nil {
		return nil, err
	}

	var (
		found    bool
		nearest  int
		tagNames = map[string]string{}
	)
	for sha, names := range byCommit {
		name, ok := best(sel, names)
		if !ok {
			continue
		}
		cmp, _, err := p.githubClient.Repositories.CompareCommits(ctx, p.Owner, p.Repo, sha, facts.Commit)
		if err != nil {
			return nil, fmt.Errorf("unable to compare '%s' with '%s': %w", name, facts.Commit, err)
		}
		status := cmp.GetStatus()
		if status != "ahead" && status != "identical" {
			continue // tag is not reachable from HEAD
		}
		ahead := cmp.GetAheadBy()
		p.logger().Debug("compared tag", "tag", name, "status", status, "ahead_by", ahead)

		switch {
		case !found || ahead < nearest:
			found, nearest = true, ahead
			tagNames = map[string]string{name: sha}
		case ahead == nearest:
			tagNames[name] = sha
		}
	}

	if found {
		names := make([]string, 0, len(tagNames))
		for n := range tagNames {
			names = append(names, n)
		}
		name, _ := best(sel, names)
		facts.Tag = &Tag{Name: name, Commit: tagNames[name]}
		facts.Distance = uint64(nearest)
	}
	return facts, nil
}

// tags pages through every tag and groups names by commit SHA.
func (p GitHubFetcher) tags(ctx context.Context) (map[string][]string, error) {
	out := map[string][]string{}
	opts := &github.ListOptions{PerPage: 100}
	for {
		tags, resp, err := p.githubClient.Repositories.ListTags(ctx, p.Owner, p.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("unable to list github tags: %w", err)
		}
		for _, t := range tags {
			sha := t.GetCommit().GetSHA()
			out[sha] = append(out[sha], t.GetName())
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}
