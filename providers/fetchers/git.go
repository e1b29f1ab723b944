package fetchers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOptions configures the local git fetcher.
type GitOptions struct {
	// IncludeUntracked makes untracked files count as dirty.
	IncludeUntracked bool
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// GitFetcher reads facts from a local git repository.
type GitFetcher struct {
	Path string
	opts GitOptions
	repo *git.Repository
}

// NewGitFetcher constructs a fetcher for the repository containing path.
func NewGitFetcher(path string, opts GitOptions) *GitFetcher {
	return &GitFetcher{Path: path, opts: opts}
}

// NewGitFetcherFromRepository constructs a fetcher for an already opened repository.
func NewGitFetcherFromRepository(repo *git.Repository, opts GitOptions) *GitFetcher {
	return &GitFetcher{opts: opts, repo: repo}
}

func (g *GitFetcher) logger() *log.Logger {
	if g.opts.Logger == nil {
		return discard
	}
	return g.opts.Logger
}

func (g *GitFetcher) open() (*git.Repository, error) {
	if g.repo != nil {
		return g.repo, nil
	}
	repo, err := git.PlainOpenWithOptions(g.Path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNoRepository, g.Path)
		}
		return nil, fmt.Errorf("unable to open repository '%s': %w", g.Path, err)
	}
	return repo, nil
}

// Facts reads HEAD, the nearest version tag, the distance to it, the worktree status
// and the shallow flag.
func (g *GitFetcher) Facts(ctx context.Context, sel TagSelector) (*Facts, error) {
	repo, err := g.open()
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("unable to resolve HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("unable to load HEAD commit: %w", err)
	}

	facts := &Facts{
		Commit:    head.Hash().String(),
		Timestamp: headCommit.Committer.When.Unix(),
	}
	if head.Name().IsBranch() {
		facts.Branch = head.Name().Short()
	}

	if shallow, err := repo.Storer.Shallow(); err == nil && len(shallow) > 0 {
		facts.Shallow = true
		g.logger().Warn("repository is a shallow clone, tag distance may be incomplete")
	}

	tags, err := tagsByCommit(repo)
	if err != nil {
		return nil, err
	}

	tag, err := nearestTag(ctx, repo, headCommit, tags, sel)
	if err != nil {
		return nil, err
	}
	facts.Tag = tag

	var base plumbing.Hash
	if tag != nil {
		base = plumbing.NewHash(tag.Commit)
	}
	if facts.Distance, err = distance(ctx, repo, headCommit.Hash, base); err != nil {
		return nil, err
	}

	if facts.Dirty, err = g.dirty(repo); err != nil {
		return nil, err
	}

	g.logger().Debug("read repository facts", "commit", facts.Commit, "branch", facts.Branch,
		"tag", tagName(tag), "distance", facts.Distance, "dirty", facts.Dirty)
	return facts, nil
}

func tagName(t *Tag) string {
	if t == nil {
		return ""
	}
	return t.Name
}

// tagsByCommit maps commit hashes to the tag names pointing at them.
// Annotated tags are peeled to their commit.
func tagsByCommit(repo *git.Repository) (map[plumbing.Hash][]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("unable to list tags: %w", err)
	}
	out := map[plumbing.Hash][]string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		obj, err := repo.TagObject(hash)
		switch {
		case err == nil:
			c, err := obj.Commit()
			if err != nil {
				// tags of trees or blobs carry no version
				return nil
			}
			hash = c.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return err
		}
		out[hash] = append(out[hash], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to resolve tags: %w", err)
	}
	return out, nil
}

// nearestTag walks the history breadth first from HEAD and returns the first commit
// carrying an accepted tag.
func nearestTag(ctx context.Context, repo *git.Repository, head *object.Commit, tags map[plumbing.Hash][]string, sel TagSelector) (*Tag, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	queue := []plumbing.Hash{head.Hash}
	seen := map[plumbing.Hash]bool{head.Hash: true}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := queue[0]
		queue = queue[1:]

		if name, ok := best(sel, tags[h]); ok {
			return &Tag{Name: name, Commit: h.String()}, nil
		}

		c, err := repo.CommitObject(h)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				continue // shallow boundary
			}
			return nil, err
		}
		for _, p := range c.ParentHashes {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return nil, nil
}

// distance counts commits reachable from head but not from base. A zero base counts
// every commit reachable from head.
func distance(ctx context.Context, repo *git.Repository, head, base plumbing.Hash) (uint64, error) {
	excluded := map[plumbing.Hash]bool{}
	if !base.IsZero() {
		if err := walk(ctx, repo, base, excluded, nil); err != nil {
			return 0, err
		}
	}
	var n uint64
	err := walk(ctx, repo, head, map[plumbing.Hash]bool{}, func(h plumbing.Hash) bool {
		if excluded[h] {
			return false
		}
		n++
		return true
	})
	return n, err
}

// walk visits every ancestor of start once. visit returning false prunes the walk.
func walk(ctx context.Context, repo *git.Repository, start plumbing.Hash, seen map[plumbing.Hash]bool, visit func(plumbing.Hash) bool) error {
	stack := []plumbing.Hash{start}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true
		if visit != nil && !visit(h) {
			continue
		}
		c, err := repo.CommitObject(h)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				continue
			}
			return fmt.Errorf("unable to load commit %s: %w", h, err)
		}
		stack = append(stack, c.ParentHashes...)
	}
	return nil
}

// dirty reports uncommitted changes. Bare repositories are never dirty.
func (g *GitFetcher) dirty(repo *git.Repository) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return false, nil
		}
		return false, fmt.Errorf("unable to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("unable to read worktree status: %w", err)
	}
	for path, s := range status {
		untracked := s.Staging == git.Untracked && s.Worktree == git.Untracked
		if untracked && !g.opts.IncludeUntracked {
			continue
		}
		if untracked || s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			g.logger().Debug("worktree change", "path", path, "staging", string(rune(s.Staging)), "worktree", string(rune(s.Worktree)))
			return true, nil
		}
	}
	return false, nil
}
