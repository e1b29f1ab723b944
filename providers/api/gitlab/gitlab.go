/*
Package gitlab provides a small client for the GitLab repository API: tags, commit
comparisons and single commits, which is all remote version resolution needs.

Usage:

	cl, err := gitlab.NewClient(nil, nil, os.Getenv("GITLAB_TOKEN"))
	tags, resp, err := cl.ListTags(ctx, "group/project", &gitlab.ListTagsOptions{PerPage: 100})
*/
package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/go-querystring/query"
)

var (
	// ErrNotFound is returned (wrapped) when GitLab responds with 404.
	ErrNotFound = errors.New("gitlab resource not found")
)

// gitlabHostname - GitLab API hostname (used as default API).
var gitlabHostname string = "https://gitlab.com"

// GitLabClient is used to send API requests to a GitLab instance.
type GitLabClient struct {
	baseURL    url.URL
	token      string
	HttpClient *http.Client
}

// NewClient creates and returns a new client.
//
// If a nil URL is provided, the client is configured for gitlab.com.
// An empty token sends unauthenticated requests.
func NewClient(httpClient *http.Client, URL *url.URL, token string) (*GitLabClient, error) {
	if URL == nil {
		var err error
		if URL, err = url.Parse(gitlabHostname); err != nil {
			return nil, err
		}
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &GitLabClient{baseURL: *URL, token: token, HttpClient: httpClient}, nil
}

// Commit represents a repository commit.
type Commit struct {
	ID            string    `json:"id"`
	ShortID       string    `json:"short_id"`
	Title         string    `json:"title"`
	CommittedDate time.Time `json:"committed_date"`
	ParentIDs     []string  `json:"parent_ids"`
}

// Tag represents a repository tag.
type Tag struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Target  string `json:"target"`
	Commit  Commit `json:"commit"`
}

// ListTagsOptions specifies the optional parameters to ListTags() method.
type ListTagsOptions struct {
	// PerPage is used to define the pagination step.
	PerPage int `url:"per_page,omitempty"`
	// Page is used to define page.
	Page int `url:"page,omitempty"`
	// OrderBy is one of 'name', 'updated' or 'version'.
	OrderBy string `url:"order_by,omitempty"`
	// Sort is 'asc' or 'desc'.
	Sort string `url:"sort,omitempty"`
}

// ListTags lists one page of project tags. Use NextPage on the response to paginate.
func (c GitLabClient) ListTags(ctx context.Context, project string, opts *ListTagsOptions) ([]Tag, *http.Response, error) {
	var tags []Tag
	r, err := c.get(ctx, c.projectRoute(project, "repository/tags"), opts, &tags)
	if err != nil {
		return nil, nil, err
	}
	return tags, r, nil
}

// CompareOptions specifies the parameters to Compare() method.
type CompareOptions struct {
	// From is the commit SHA or branch name to compare from.
	From string `url:"from"`
	// To is the commit SHA or branch name to compare to.
	To string `url:"to"`
	// Straight compares From and To directly instead of from their merge base.
	Straight bool `url:"straight,omitempty"`
}

// Comparison represents a compare result.
type Comparison struct {
	Commit         *Commit  `json:"commit"`
	Commits        []Commit `json:"commits"`
	CompareTimeout bool     `json:"compare_timeout"`
	CompareSameRef bool     `json:"compare_same_ref"`
}

// Compare compares two refs. Commits holds the commits reachable from To but not from From.
func (c GitLabClient) Compare(ctx context.Context, project string, opts *CompareOptions) (*Comparison, *http.Response, error) {
	if opts == nil || opts.From == "" || opts.To == "" {
		return nil, nil, fmt.Errorf("'from' and 'to' options are required for compare request")
	}

	var cmp Comparison
	r, err := c.get(ctx, c.projectRoute(project, "repository/compare"), opts, &cmp)
	if err != nil {
		return nil, nil, err
	}
	return &cmp, r, nil
}

// Commit fetches a single commit by SHA, branch or tag name.
func (c GitLabClient) Commit(ctx context.Context, project, ref string) (*Commit, *http.Response, error) {
	if ref == "" {
		return nil, nil, fmt.Errorf("'ref' parameter is required for commit request")
	}

	var cm Commit
	r, err := c.get(ctx, c.projectRoute(project, "repository/commits/"+url.PathEscape(ref)), nil, &cm)
	if err != nil {
		return nil, nil, err
	}
	return &cm, r, nil
}

// NextPage returns the next page number announced by a paginated response, or 0.
func NextPage(r *http.Response) int {
	if r == nil {
		return 0
	}
	n, err := strconv.Atoi(r.Header.Get("X-Next-Page"))
	if err != nil {
		return 0
	}
	return n
}

func (c GitLabClient) projectRoute(project, path string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s/%s", &c.baseURL, url.PathEscape(project), path)
}

func (c GitLabClient) get(ctx context.Context, route string, opts interface{}, dt interface{}) (*http.Response, error) {
	if opts != nil {
		v, err := query.Values(opts)
		if err != nil {
			return nil, fmt.Errorf("error parsing the options: %w", err)
		}
		if len(v) > 0 {
			route += "?" + v.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create a request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("PRIVATE-TOKEN", c.token)
	}

	return parseResponse(&c, req, dt)
}

// errorResponse represents gitlab error response
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// parseResponse is used to execute the request and unmarshall the response to dt
func parseResponse(c *GitLabClient, req *http.Request, dt interface{}) (r *http.Response, err error) {
	if r, err = c.HttpClient.Do(req); err != nil {
		return nil, fmt.Errorf("unable to send a request: %w", err)
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}

	if r.StatusCode >= 400 {
		var ersp errorResponse
		msg := http.StatusText(r.StatusCode)
		if perr := json.Unmarshal(body, &ersp); perr == nil {
			switch {
			case ersp.Message != "":
				msg = ersp.Message
			case ersp.Error != "":
				msg = ersp.Error
			}
		}
		if r.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return nil, fmt.Errorf("gitlab responded with HTTP error '%d: %s'", r.StatusCode, msg)
	}

	if err = json.Unmarshal(body, dt); err != nil {
		return nil, fmt.Errorf("unable to parse response: %w", err)
	}

	return r, nil
}
