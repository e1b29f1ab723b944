/*
Package fetchers reads repository facts (nearest version tag, commit distance, dirty state,
branch and HEAD commit) from local and remote repositories.

Every fetcher produces one immutable Facts snapshot per call; the engine performs no further
repository reads after it.

Usage:

	f := fetchers.NewGitFetcher(".", fetchers.GitOptions{IncludeUntracked: true})
	facts, err := f.Facts(ctx, selector)
*/
package fetchers

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/charmbracelet/log"
)

var (
	// ErrNoRepository is returned when the path is not inside a working repository. It is fatal.
	ErrNoRepository = errors.New("not inside a repository")
	// ErrNoTagFound reports that no reachable tag parses as a version. It is not fatal:
	// callers fall back to a default version.
	ErrNoTagFound = errors.New("no version tag found")
)

var discard = log.New(io.Discard)

// Tag is a version tag resolved to the commit it points at.
type Tag struct {
	Name   string
	Commit string
}

// Facts is one snapshot of repository state.
type Facts struct {
	Tag       *Tag   // nearest version tag, nil when none is reachable
	Distance  uint64 // commits reachable from HEAD but not from the tag commit
	Dirty     bool
	Branch    string // empty on a detached HEAD
	Commit    string // HEAD commit hash
	Timestamp int64  // HEAD commit time, unix seconds
	Shallow   bool
}

// TagSelector decides which tag names are version tags and how they rank.
type TagSelector interface {
	// Accept reports whether name is a version tag.
	Accept(name string) bool
	// Less reports whether tag a ranks below tag b.
	Less(a, b string) bool
}

// RepoFetcher reads a Facts snapshot.
type RepoFetcher interface {
	Facts(ctx context.Context, sel TagSelector) (*Facts, error)
}

// best returns the highest ranked accepted name.
func best(sel TagSelector, names []string) (string, bool) {
	var accepted []string
	for _, n := range names {
		if sel == nil || sel.Accept(n) {
			accepted = append(accepted, n)
		}
	}
	if len(accepted) == 0 {
		return "", false
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		if sel == nil {
			return accepted[i] < accepted[j]
		}
		return sel.Less(accepted[i], accepted[j])
	})
	return accepted[len(accepted)-1], true
}

// MemoryFetcher returns static facts. Useful for tests and for runs without a repository.
type MemoryFetcher struct {
	Snapshot Facts
	Err      error
}

// Facts returns a copy of the stored snapshot. A stored tag the selector rejects is dropped.
func (m MemoryFetcher) Facts(ctx context.Context, sel TagSelector) (*Facts, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := m.Snapshot
	if f.Tag != nil {
		tag := *f.Tag
		f.Tag = &tag
		if sel != nil && !sel.Accept(tag.Name) {
			f.Tag = nil
		}
	}
	return &f, nil
}
