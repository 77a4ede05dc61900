// Package githubclient talks to the GitHub REST, GraphQL, and raw-content
// APIs on behalf of the audit pipeline's stages, grounded on the teacher's
// plugins/github/github.go use of go-github and pkg/shared/httpclient's
// resty wiring.
package githubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-github/v47/github"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/scan-io-git/ghss/internal/httpclient"
)

// Client wraps go-github (ref resolution via the Git Data API) and a resty
// client (GraphQL, raw content, generic REST GETs) behind the token and
// base URLs the audit engine was configured with.
type Client struct {
	gh     *github.Client
	resty  *resty.Client
	logger hclog.Logger

	apiBaseURL string
	rawBaseURL string
	token      string
}

// Config carries the base URLs and token a Client is built from.
type Config struct {
	Token      string
	APIBaseURL string
	RawBaseURL string
}

// New builds a Client. An empty token is valid — requests are then
// unauthenticated and subject to GitHub's stricter anonymous rate limits.
func New(cfg Config, httpOpts httpclient.Options, logger hclog.Logger) *Client {
	var tc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		tc = oauth2.NewClient(context.Background(), ts)
	}
	gh := github.NewClient(tc)
	if cfg.APIBaseURL != "" {
		if base, err := url.Parse(strings.TrimSuffix(cfg.APIBaseURL, "/") + "/"); err == nil {
			gh.BaseURL = base
		}
	}

	rc := httpclient.New(logger, httpOpts)
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}
	rc.SetHeader("Accept", "application/vnd.github+json")

	return &Client{
		gh:         gh,
		resty:      rc,
		logger:     logger,
		apiBaseURL: cfg.APIBaseURL,
		rawBaseURL: cfg.RawBaseURL,
		token:      cfg.Token,
	}
}

// ResolveRef resolves a tag, branch, or other ref name to a commit SHA. SHA
// refs are returned unchanged. Tags are tried first, then branches, then a
// generic ref lookup; annotated tags are dereferenced to their target
// commit, per spec.md §4.3.
func (c *Client) ResolveRef(ctx context.Context, owner, repo, gitRef string) (string, error) {
	if len(gitRef) == 40 && strings.Trim(gitRef, "0123456789abcdef") == "" {
		return gitRef, nil
	}

	if ref, _, err := c.gh.Git.GetRef(ctx, owner, repo, "refs/tags/"+gitRef); err == nil {
		return c.derefRef(ctx, owner, repo, ref)
	} else if !isNotFound(err) {
		return "", fmt.Errorf("resolving tag %q for %s/%s: %w", gitRef, owner, repo, err)
	}

	if ref, _, err := c.gh.Git.GetRef(ctx, owner, repo, "refs/heads/"+gitRef); err == nil {
		return c.derefRef(ctx, owner, repo, ref)
	} else if !isNotFound(err) {
		return "", fmt.Errorf("resolving branch %q for %s/%s: %w", gitRef, owner, repo, err)
	}

	if ref, _, err := c.gh.Git.GetRef(ctx, owner, repo, gitRef); err == nil {
		return c.derefRef(ctx, owner, repo, ref)
	} else if !isNotFound(err) {
		return "", fmt.Errorf("resolving ref %q for %s/%s: %w", gitRef, owner, repo, err)
	}

	return "", fmt.Errorf("%s/%s@%s: %w", owner, repo, gitRef, ErrRefNotFound)
}

func (c *Client) derefRef(ctx context.Context, owner, repo string, ref *github.Reference) (string, error) {
	obj := ref.GetObject()
	if obj == nil {
		return "", fmt.Errorf("ref %s for %s/%s has no object", ref.GetRef(), owner, repo)
	}

	switch obj.GetType() {
	case "commit":
		return obj.GetSHA(), nil
	case "tag":
		tag, _, err := c.gh.Git.GetTag(ctx, owner, repo, obj.GetSHA())
		if err != nil {
			return "", fmt.Errorf("dereferencing annotated tag %s for %s/%s: %w", obj.GetSHA(), owner, repo, err)
		}
		if tag.GetObject() == nil {
			return "", fmt.Errorf("annotated tag %s for %s/%s has no target object", obj.GetSHA(), owner, repo)
		}
		return tag.GetObject().GetSHA(), nil
	default:
		return "", fmt.Errorf("unexpected ref object type %q for %s/%s", obj.GetType(), owner, repo)
	}
}

// GetRawContent fetches a file's raw content at a resolved ref. A missing
// file is reported as an error — use GetRawContentOptional where absence is
// expected and non-fatal.
func (c *Client) GetRawContent(ctx context.Context, owner, repo, gitRef, path string) ([]byte, error) {
	content, ok, err := c.GetRawContentOptional(ctx, owner, repo, gitRef, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s not found in %s/%s@%s", path, owner, repo, gitRef)
	}
	return content, nil
}

// GetRawContentOptional fetches a file's raw content, returning ok=false
// (no error) when the file doesn't exist at that ref.
func (c *Client) GetRawContentOptional(ctx context.Context, owner, repo, gitRef, path string) ([]byte, bool, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBaseURL, owner, repo, gitRef, path)

	resp, err := c.resty.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, false, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.IsError() {
		return nil, false, fmt.Errorf("%s returned HTTP %d", url, resp.StatusCode())
	}
	return resp.Body(), true, nil
}

// APIGetJSON issues a GET against the REST API and decodes the JSON body
// into out.
func (c *Client) APIGetJSON(ctx context.Context, path string, out interface{}) error {
	ok, err := c.APIGetOptionalJSON(ctx, path, out)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s%s returned HTTP 404", c.apiBaseURL, path)
	}
	return nil
}

// APIGetOptionalJSON is APIGetJSON but treats a 404 as ok=false, err=nil.
func (c *Client) APIGetOptionalJSON(ctx context.Context, path string, out interface{}) (bool, error) {
	url := c.apiBaseURL + path

	resp, err := c.resty.R().SetContext(ctx).ForceContentType("application/json").SetResult(out).Get(url)
	if err != nil {
		return false, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if resp.IsError() {
		return false, fmt.Errorf("%s returned HTTP %d", url, resp.StatusCode())
	}
	return true, nil
}

// GraphQLPost sends a GraphQL query to the configured API base URL's
// /graphql endpoint and decodes the "data" field into out. Requires a token.
func (c *Client) GraphQLPost(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	if c.token == "" {
		return fmt.Errorf("GitHub token is required for the GraphQL API")
	}

	body := map[string]interface{}{"query": query}
	if variables != nil {
		body["variables"] = variables
	}

	var envelope struct {
		Data   json.RawMessage           `json:"data"`
		Errors []map[string]interface{} `json:"errors"`
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(body).
		ForceContentType("application/json").
		SetResult(&envelope).
		Post(c.apiBaseURL + "/graphql")
	if err != nil {
		return fmt.Errorf("GraphQL request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("GraphQL API returned HTTP %d", resp.StatusCode())
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("GraphQL errors: %v", envelope.Errors)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decoding GraphQL data: %w", err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	if errResp, ok := err.(*github.ErrorResponse); ok {
		return errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}
