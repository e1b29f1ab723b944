package zerv

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v33/github"

	"github.com/zerv/zerv-core/providers/api/gitlab"
	"github.com/zerv/zerv-core/providers/fetchers"
)

// Source selects where the base version comes from.
type Source string

// Available sources.
const (
	// SourceGit reads the nearest version tag and the repository state.
	SourceGit = Source("git")
	// SourceStdin reads a canonical document or a plain version string.
	SourceStdin = Source("stdin")
	// SourceNone starts from an explicit tag version or 0.0.0.
	SourceNone = Source("none")
)

// ParseSource resolves a source name. Empty means SourceGit.
func ParseSource(name string) (Source, error) {
	switch s := Source(strings.ToLower(name)); s {
	case "":
		return SourceGit, nil
	case SourceGit, SourceStdin, SourceNone:
		return s, nil
	}
	return "", fmt.Errorf("unknown source %q, valid sources: git, stdin, none", name)
}

// gitRepoRgx is used to parse repository info from GIT-compatible address string.
//
// Examples matching the regexp:
//
//	'git@myhostname:vendor/reponame.git'
//	'https://myhostname/group/subgroup/reponame' and so on...
//
// Groups:
//
//	1: hostname (e.g. 'github.com')
//	2: full repo name without '.git' (e.g. 'vendor/reponame')
var gitRepoRgx string = `^(?:git@|git://|ssh://(?:git@)?|https?://)([\w.\-~]+)[:/]([\w.@:/\-~]+?)(?:\.git)?/?$`

// gitRepoRgxCompiled is compiled from gitRepoRgx.
var gitRepoRgxCompiled *regexp.Regexp

func init() {
	gitRepoRgxCompiled = regexp.MustCompile(gitRepoRgx)
}

// gitRepo represents basic repository information.
type gitRepo struct {
	host, path string
}

// parseGitAddr - helper to parse information from git repository address string
func parseGitAddr(addr string) (*gitRepo, error) {
	matches := gitRepoRgxCompiled.FindStringSubmatch(addr)
	if matches == nil || matches[1] == "" || matches[2] == "" {
		return nil, fmt.Errorf("unsupported git repository format %q", addr)
	}
	if !strings.Contains(matches[2], "/") {
		return nil, fmt.Errorf("unable to parse vendor from name %q", matches[2])
	}
	return &gitRepo{host: matches[1], path: matches[2]}, nil
}

// RemoteOptions configures a remote fetcher.
type RemoteOptions struct {
	// HTTPClient carries authentication for GitHub (OAuth2 or BasicAuth transport).
	HTTPClient *http.Client
	// Token is sent as PRIVATE-TOKEN to GitLab. Without HTTPClient it is also used as the
	// GitHub basic auth password.
	Token  string
	Logger *log.Logger
}

// NewRemoteFetcher constructs a fetcher reading facts through the hosting API of the
// repository at repoAddr (e.g. 'git@github.com:vendor/reponame.git'). ref is the branch or
// commit treated as HEAD.
//
// github.com is read through the GitHub API, gitlab.com and hosts whose name contains
// 'gitlab' through the GitLab API.
func NewRemoteFetcher(repoAddr, ref string, opts RemoteOptions) (fetchers.RepoFetcher, error) {
	repo, err := parseGitAddr(repoAddr)
	if err != nil {
		return nil, err
	}

	switch {
	case repo.host == "github.com":
		parts := strings.Split(repo.path, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("unable to parse vendor from name %q", repo.path)
		}
		httpClient := opts.HTTPClient
		if httpClient == nil && opts.Token != "" {
			tp := &github.BasicAuthTransport{Username: parts[0], Password: opts.Token}
			httpClient = tp.Client()
		}
		f := fetchers.NewGitHubFetcher(httpClient, parts[0], parts[1], ref)
		f.Logger = opts.Logger
		return f, nil
	case strings.Contains(repo.host, "gitlab"):
		u, err := url.Parse("https://" + repo.host)
		if err != nil {
			return nil, err
		}
		cl, err := gitlab.NewClient(opts.HTTPClient, u, opts.Token)
		if err != nil {
			return nil, err
		}
		f := fetchers.NewGitLabFetcher(cl, repo.path, ref)
		f.Logger = opts.Logger
		return f, nil
	}
	return nil, fmt.Errorf("git source %q is not supported", repo.host)
}
