package githubclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghss/internal/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{APIBaseURL: srv.URL, RawBaseURL: srv.URL}, httpclient.Options{RetryCount: 0}, hclog.NewNullLogger())
	return c, srv
}

func TestAPIGetJSONDecodesBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"ghsa_id": "GHSA-aaaa"}})
	})

	var out []map[string]string
	if err := c.APIGetJSON(context.Background(), "/advisories", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0]["ghsa_id"] != "GHSA-aaaa" {
		t.Fatalf("unexpected decoded body: %+v", out)
	}
}

func TestAPIGetJSONNotFoundErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	var out []map[string]string
	if err := c.APIGetJSON(context.Background(), "/advisories", &out); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestAPIGetOptionalJSONNotFoundIsOkFalse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	var out []map[string]string
	ok, err := c.APIGetOptionalJSON(context.Background(), "/advisories", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false on 404")
	}
}

func TestAPIGetOptionalJSONServerErrorErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	var out []map[string]string
	if _, err := c.APIGetOptionalJSON(context.Background(), "/advisories", &out); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestGetRawContentOptionalFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		want := "/owner/repo/main/action.yml"
		if r.URL.Path != want {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("runs:\n  using: composite\n"))
	})

	content, ok, err := c.GetRawContentOptional(context.Background(), "owner", "repo", "main", "action.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if string(content) == "" {
		t.Fatal("expected non-empty content")
	}
}

func TestGetRawContentOptionalMissing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, ok, err := c.GetRawContentOptional(context.Background(), "owner", "repo", "main", "missing.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing file")
	}
}

func TestGetRawContentErrorsWhenMissing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := c.GetRawContent(context.Background(), "owner", "repo", "main", "missing.yml"); err == nil {
		t.Fatal("expected error for a missing file via GetRawContent")
	}
}

func TestGraphQLPostRequiresToken(t *testing.T) {
	c := New(Config{}, httpclient.Options{}, hclog.NewNullLogger())
	if err := c.GraphQLPost(context.Background(), "query {}", nil, nil); err == nil {
		t.Fatal("expected error when no token is configured")
	}
}

func TestGraphQLPostDecodesData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"viewer": {"login": "octocat"}}}`)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{Token: "tok", APIBaseURL: srv.URL}, httpclient.Options{}, hclog.NewNullLogger())

	var out struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	}
	if err := c.GraphQLPost(context.Background(), "query { viewer { login } }", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Viewer.Login != "octocat" {
		t.Fatalf("unexpected decoded login: %q", out.Viewer.Login)
	}
}

func TestGraphQLPostSurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [{"message": "not found"}]}`)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{Token: "tok", APIBaseURL: srv.URL}, httpclient.Options{}, hclog.NewNullLogger())
	if err := c.GraphQLPost(context.Background(), "query {}", nil, nil); err == nil {
		t.Fatal("expected error surfaced from the GraphQL errors array")
	}
}

type refResponse struct {
	status int
	body   interface{}
}

// refHandler serves git.Reference/git.Tag payloads keyed by exact request
// path, mirroring go-github's "repos/{owner}/{repo}/git/ref/{ref}" and
// "repos/{owner}/{repo}/git/tags/{sha}" endpoints. Paths with no entry 404.
func refHandler(t *testing.T, byPath map[string]refResponse) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		resp, ok := byPath[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(resp.status)
		if resp.body != nil {
			_ = json.NewEncoder(w).Encode(resp.body)
		}
	}
}

func commitRef(sha string) map[string]interface{} {
	return map[string]interface{}{
		"object": map[string]interface{}{"type": "commit", "sha": sha},
	}
}

func tagRef(tagSHA string) map[string]interface{} {
	return map[string]interface{}{
		"object": map[string]interface{}{"type": "tag", "sha": tagSHA},
	}
}

func TestResolveRefHitsTagFirst(t *testing.T) {
	c, _ := newTestClient(t, refHandler(t, map[string]refResponse{
		"/repos/owner/repo/git/ref/tags/v1": {status: http.StatusOK, body: commitRef("sha-tag")},
	}))

	sha, err := c.ResolveRef(context.Background(), "owner", "repo", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sha != "sha-tag" {
		t.Fatalf("expected sha-tag, got %q", sha)
	}
}

func TestResolveRefFallsBackToBranchWhenTagIs404(t *testing.T) {
	c, _ := newTestClient(t, refHandler(t, map[string]refResponse{
		"/repos/owner/repo/git/ref/heads/main": {status: http.StatusOK, body: commitRef("sha-branch")},
	}))

	sha, err := c.ResolveRef(context.Background(), "owner", "repo", "main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sha != "sha-branch" {
		t.Fatalf("expected sha-branch, got %q", sha)
	}
}

func TestResolveRefFallsBackToGenericRefWhenTagAndBranchAre404(t *testing.T) {
	c, _ := newTestClient(t, refHandler(t, map[string]refResponse{
		"/repos/owner/repo/git/ref/some-ref": {status: http.StatusOK, body: commitRef("sha-generic")},
	}))

	sha, err := c.ResolveRef(context.Background(), "owner", "repo", "some-ref")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sha != "sha-generic" {
		t.Fatalf("expected sha-generic, got %q", sha)
	}
}

func TestResolveRefDereferencesAnnotatedTag(t *testing.T) {
	c, _ := newTestClient(t, refHandler(t, map[string]refResponse{
		"/repos/owner/repo/git/ref/tags/v2":  {status: http.StatusOK, body: tagRef("tag-sha")},
		"/repos/owner/repo/git/tags/tag-sha": {status: http.StatusOK, body: commitRef("sha-target")},
	}))

	sha, err := c.ResolveRef(context.Background(), "owner", "repo", "v2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sha != "sha-target" {
		t.Fatalf("expected sha-target, got %q", sha)
	}
}

func TestResolveRefAllThreeNotFoundReturnsErrRefNotFound(t *testing.T) {
	c, _ := newTestClient(t, refHandler(t, map[string]refResponse{}))

	_, err := c.ResolveRef(context.Background(), "owner", "repo", "ghost")
	if !errors.Is(err, ErrRefNotFound) {
		t.Fatalf("expected ErrRefNotFound, got %v", err)
	}
}

func TestResolveRefGenericLookupServerErrorIsNotMappedToErrRefNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/git/ref/tags/broken", "/repos/owner/repo/git/ref/heads/broken":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	_, err := c.ResolveRef(context.Background(), "owner", "repo", "broken")
	if err == nil {
		t.Fatal("expected an error for the HTTP 500 on the generic-ref lookup")
	}
	if errors.Is(err, ErrRefNotFound) {
		t.Fatal("a genuine server error must not be mapped to ErrRefNotFound")
	}
}
