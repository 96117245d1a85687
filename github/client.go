package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource resolves the configured token per call. An empty token with a
// nil error means "not configured".
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource wraps a fixed token, mainly for tests and the CLI.
type StaticTokenSource string

func (s StaticTokenSource) Token() (string, error) {
	return string(s), nil
}

// Client is the GitHub gateway. One authenticated call per operation, no
// batching, no internal retry.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient constructs a gateway for the given API base URL.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://api.github.com"
	}
	c := &Client{
		baseURL:    trimmed,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListWorkflows lists the workflow definitions of a repository.
func (c *Client) ListWorkflows(ctx context.Context, owner, repo string) ([]Workflow, error) {
	var resp struct {
		Workflows []Workflow `json:"workflows"`
	}
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows", owner, repo)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Workflows, nil
}

// DispatchWorkflow asks GitHub to start a run of the workflow on the given
// ref. GitHub answers 204 with no body and, crucially, no run identifier;
// locating the resulting run is the correlator's job.
func (c *Client) DispatchWorkflow(ctx context.Context, owner, repo, workflowFile, ref string, inputs map[string]string) error {
	body := struct {
		Ref    string            `json:"ref"`
		Inputs map[string]string `json:"inputs,omitempty"`
	}{Ref: ref, Inputs: inputs}

	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/dispatches", owner, repo, url.PathEscape(workflowFile))
	return c.do(ctx, http.MethodPost, path, body, "", nil)
}

// ListWorkflowRuns returns the most recent runs for a workflow file, newest
// first, optionally filtered to a branch.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo, workflowFile string, limit int, branch string) ([]WorkflowRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := url.Values{}
	query.Set("per_page", fmt.Sprintf("%d", limit))
	if branch != "" {
		query.Set("branch", branch)
	}

	var resp struct {
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/runs?%s",
		owner, repo, url.PathEscape(workflowFile), query.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.WorkflowRuns, nil
}

// GetWorkflowRun fetches a single run by id.
func (c *Client) GetWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*WorkflowRun, error) {
	var run WorkflowRun
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d", owner, repo, runID)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// CreateRelease publishes a release.
func (c *Client) CreateRelease(ctx context.Context, owner, repo string, release NewRelease) (*Release, error) {
	var created Release
	path := fmt.Sprintf("/repos/%s/%s/releases", owner, repo)
	if err := c.do(ctx, http.MethodPost, path, release, "", &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListTags lists repository tags.
func (c *Client) ListTags(ctx context.Context, owner, repo string) ([]Tag, error) {
	var tags []Tag
	path := fmt.Sprintf("/repos/%s/%s/tags", owner, repo)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ListReleases lists the most recent releases.
func (c *Client) ListReleases(ctx context.Context, owner, repo string, limit int) ([]Release, error) {
	if limit <= 0 {
		limit = 20
	}
	var releases []Release
	path := fmt.Sprintf("/repos/%s/%s/releases?per_page=%d", owner, repo, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

// GetCommit fetches commit metadata for a sha.
func (c *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error) {
	var resp struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, sha)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return &Commit{
		SHA:        resp.SHA,
		Message:    resp.Commit.Message,
		AuthorName: resp.Commit.Author.Name,
		AuthorDate: resp.Commit.Author.Date,
	}, nil
}

// GetRawFileContent fetches a file's raw text from the default or given ref.
func (c *Client) GetRawFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path)
	var raw string
	if err := c.do(ctx, http.MethodGet, endpoint, nil, "application/vnd.github.v3.raw", &raw); err != nil {
		return "", err
	}
	return raw, nil
}

// VerifyToken checks the configured token against GET /user.
func (c *Client) VerifyToken(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do performs one authenticated request. accept selects the response media
// type; when it is the raw media type, v must be *string.
func (c *Client) do(ctx context.Context, method, path string, body any, accept string, v any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("resolving github token: %w", err)
	}
	if token == "" {
		return &AuthError{}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if accept != "" {
		req.Header.Set("Accept", accept)
	} else {
		req.Header.Set("Accept", "application/vnd.github+json")
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if v == nil {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if s, ok := v.(*string); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &NetworkError{Err: err}
		}
		*s = string(data)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Reason: fmt.Sprintf("invalid token: %s", message)}
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}
