package fetchers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/zerv/zerv-core/providers/api/gitlab"
)

func gitlabFetcher(t *testing.T, h http.Handler) *GitLabFetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, _ := url.Parse(srv.URL)
	cl, err := gitlab.NewClient(srv.Client(), u, "secret")
	if err != nil {
		t.Fatal(err)
	}
	return NewGitLabFetcher(cl, "42", "develop")
}

func TestGitLabFetcher_Facts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/projects/42/repository/commits/develop", func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("PRIVATE-TOKEN") != "secret" {
			t.Errorf("missing token header")
		}
		_, _ = rw.Write([]byte(`{"id": "c3", "committed_date": "2024-01-02T03:04:05Z"}`))
	})
	mux.HandleFunc("/api/v4/projects/42/repository/tags", func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			_, _ = rw.Write([]byte(`[{"name": "v1.1.0", "commit": {"id": "c2"}}]`))
			return
		}
		rw.Header().Set("X-Next-Page", "2")
		_, _ = rw.Write([]byte(`[
			{"name": "v1.0.0", "commit": {"id": "c1"}},
			{"name": "v3.0.0", "commit": {"id": "x9"}}
		]`))
	})
	mux.HandleFunc("/api/v4/projects/42/repository/compare", func(rw http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("from") + ".." + q.Get("to") {
		case "c1..c3":
			_, _ = rw.Write([]byte(`{"commits": [{"id": "a"}, {"id": "b"}, {"id": "c3"}]}`))
		case "c2..c3":
			_, _ = rw.Write([]byte(`{"commits": [{"id": "c3"}]}`))
		case "x9..c3":
			_, _ = rw.Write([]byte(`{"commits": [{"id": "c3"}]}`))
		case "c3..x9":
			_, _ = rw.Write([]byte(`{"commits": [{"id": "x9"}]}`))
		default:
			_, _ = rw.Write([]byte(`{"commits": []}`))
		}
	})

	facts, err := gitlabFetcher(t, mux).Facts(context.Background(), prefixSelector{})
	if err != nil {
		t.Fatal(err)
	}
	if facts.Tag == nil || facts.Tag.Name != "v1.1.0" {
		t.Fatalf("expected tag v1.1.0, got %+v", facts.Tag)
	}
	if facts.Distance != 1 {
		t.Errorf("expected distance 1, got %d", facts.Distance)
	}
	if facts.Branch != "develop" || facts.Commit != "c3" {
		t.Errorf("unexpected HEAD %s on %s", facts.Commit, facts.Branch)
	}
	if facts.Timestamp != 1704164645 {
		t.Errorf("unexpected timestamp %d", facts.Timestamp)
	}
}

func TestGitLabFetcher_Facts_OnTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/projects/42/repository/commits/develop", func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{"id": "c3", "committed_date": "2024-01-02T03:04:05Z"}`))
	})
	mux.HandleFunc("/api/v4/projects/42/repository/tags", func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`[{"name": "v2.0.0", "commit": {"id": "c3"}}, {"name": "nightly", "commit": {"id": "c3"}}]`))
	})
	mux.HandleFunc("/api/v4/projects/42/repository/compare", func(rw http.ResponseWriter, r *http.Request) {
		t.Errorf("no comparison expected for a tag on HEAD")
	})

	facts, err := gitlabFetcher(t, mux).Facts(context.Background(), prefixSelector{})
	if err != nil {
		t.Fatal(err)
	}
	if facts.Tag == nil || facts.Tag.Name != "v2.0.0" || facts.Distance != 0 {
		t.Errorf("expected v2.0.0 at distance 0, got %+v / %d", facts.Tag, facts.Distance)
	}
}

func TestGitLabFetcher_Facts_NotFound(t *testing.T) {
	h := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusNotFound)
		_, _ = rw.Write([]byte(`{"message": "404 Project Not Found"}`))
	})
	_, err := gitlabFetcher(t, h).Facts(context.Background(), prefixSelector{})
	if !errors.Is(err, ErrNoRepository) || !errors.Is(err, gitlab.ErrNotFound) {
		t.Errorf("expected ErrNoRepository wrapping ErrNotFound, got %v", err)
	}
}
