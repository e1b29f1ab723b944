package gitlab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
	"time"
)

func getTestingClient(t *testing.T, srv *httptest.Server, token string) *GitLabClient {
	t.Helper()
	url, _ := url.Parse(srv.URL)
	cl, err := NewClient(srv.Client(), url, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return cl
}

func TestNewClientMethod(t *testing.T) {
	cl, err := NewClient(nil, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cl.baseURL.String() != gitlabHostname {
		t.Errorf("nil client url is incorrect, expected '%s', got '%s'", gitlabHostname, cl.baseURL.String())
	}
	if cl.HttpClient != http.DefaultClient {
		t.Error("nil client is not a default one")
	}
}

func TestListTagsMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		expectedURL := "/api/v4/projects/group%2Fproject/repository/tags?page=2&per_page=50"
		if r.URL.RequestURI() != expectedURL {
			t.Errorf("incorrect requested url '%s', expected '%s'", r.URL.RequestURI(), expectedURL)
		}
		if r.Header.Get("PRIVATE-TOKEN") != "secret" {
			t.Errorf("token header is missing")
		}

		rw.Header().Set("Content-Type", "application/json")
		rw.Header().Set("X-Next-Page", "3")
		_, _ = rw.Write([]byte(`[
			{"name": "v1.2.3", "target": "aaa", "commit": {"id": "c1", "short_id": "c1", "committed_date": "2024-03-01T10:00:00Z"}},
			{"name": "v1.2.2", "target": "bbb", "commit": {"id": "c0", "short_id": "c0", "committed_date": "2024-02-01T10:00:00Z"}}
		]`))
	}))
	defer srv.Close()

	cl := getTestingClient(t, srv, "secret")
	tags, resp, err := cl.ListTags(context.Background(), "group/project", &ListTagsOptions{PerPage: 50, Page: 2})
	if err != nil {
		t.Fatal(err)
	}

	expected := []Tag{
		{Name: "v1.2.3", Target: "aaa", Commit: Commit{ID: "c1", ShortID: "c1", CommittedDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}},
		{Name: "v1.2.2", Target: "bbb", Commit: Commit{ID: "c0", ShortID: "c0", CommittedDate: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}},
	}
	if !reflect.DeepEqual(tags, expected) {
		t.Errorf("unexpected tags, expected '%+v', got '%+v'", expected, tags)
	}
	if NextPage(resp) != 3 {
		t.Errorf("expected next page 3, got %d", NextPage(resp))
	}
}

func TestCompareMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		expectedURL := "/api/v4/projects/42/repository/compare?from=v1.0.0&straight=true&to=main"
		if r.URL.RequestURI() != expectedURL {
			t.Errorf("incorrect requested url '%s', expected '%s'", r.URL.RequestURI(), expectedURL)
		}
		_, _ = rw.Write([]byte(`{"commits": [{"id": "a"}, {"id": "b"}], "compare_same_ref": false}`))
	}))
	defer srv.Close()

	cl := getTestingClient(t, srv, "")
	cmp, _, err := cl.Compare(context.Background(), "42", &CompareOptions{From: "v1.0.0", To: "main", Straight: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(cmp.Commits) != 2 {
		t.Errorf("expected 2 commits, got %d", len(cmp.Commits))
	}

	if _, _, err := cl.Compare(context.Background(), "42", nil); err == nil {
		t.Error("expected error on missing options, got none")
	}
}

func TestCommitMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/v4/projects/42/repository/commits/feature%2Fx" {
			t.Errorf("incorrect requested path '%s'", r.URL.EscapedPath())
		}
		_, _ = rw.Write([]byte(`{"id": "abcdef", "committed_date": "2024-03-01T10:00:00+02:00"}`))
	}))
	defer srv.Close()

	cl := getTestingClient(t, srv, "")
	cm, _, err := cl.Commit(context.Background(), "42", "feature/x")
	if err != nil {
		t.Fatal(err)
	}
	if cm.ID != "abcdef" || cm.CommittedDate.Unix() != time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).Unix() {
		t.Errorf("unexpected commit '%+v'", cm)
	}

	if _, _, err := cl.Commit(context.Background(), "42", ""); err == nil {
		t.Error("expected error on empty ref, got none")
	}
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			rw.WriteHeader(http.StatusNotFound)
			_, _ = rw.Write([]byte(`{"message": "404 Project Not Found"}`))
		case "2":
			rw.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = rw.Write([]byte(`{not json`))
		}
	}))
	defer srv.Close()

	cl := getTestingClient(t, srv, "")
	_, _, err := cl.ListTags(context.Background(), "missing", &ListTagsOptions{Page: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
	if _, _, err = cl.ListTags(context.Background(), "broken", &ListTagsOptions{Page: 2}); err == nil {
		t.Error("expected server error, got none")
	}
	if _, _, err = cl.ListTags(context.Background(), "broken", nil); err == nil {
		t.Error("expected parse error, got none")
	}
}

func TestNextPage(t *testing.T) {
	if NextPage(nil) != 0 {
		t.Error("nil response must have no next page")
	}
	if NextPage(&http.Response{Header: http.Header{}}) != 0 {
		t.Error("empty header must have no next page")
	}
}
