package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_NoTokenConfigured(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource(""))

	_, err := client.VerifyToken(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	// No network call happens without a token
	assert.False(t, called)
}

func TestClient_DispatchWorkflow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/shop/actions/workflows/deploy.yml/dispatches", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		var body struct {
			Ref    string            `json:"ref"`
			Inputs map[string]string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "main", body.Ref)
		assert.Equal(t, "42", body.Inputs["build_number"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource("tok"))

	err := client.DispatchWorkflow(context.Background(), "acme", "shop", "deploy.yml", "main",
		map[string]string{"build_number": "42"})

	assert.NoError(t, err)
}

func TestClient_ListWorkflowRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/shop/actions/workflows/deploy.yml/runs", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		assert.Equal(t, "main", r.URL.Query().Get("branch"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"workflow_runs": [{"id": 7, "name": "Deploy - Build 42", "status": "queued"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource("tok"))

	runs, err := client.ListWorkflowRuns(context.Background(), "acme", "shop", "deploy.yml", 5, "main")

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].ID)
	assert.Equal(t, "Deploy - Build 42", runs[0].Name)
	assert.Equal(t, RunStatusQueued, runs[0].Status)
}

func TestClient_GetRawFileContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/shop/contents/.github/workflows/deploy.yml", r.URL.Path)
		assert.Equal(t, "application/vnd.github.v3.raw", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("name: Deploy\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource("tok"))

	content, err := client.GetRawFileContent(context.Background(), "acme", "shop", ".github/workflows/deploy.yml")

	require.NoError(t, err)
	assert.Equal(t, "name: Deploy\n", content)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource("tok"))

	_, err := client.GetWorkflowRun(context.Background(), "acme", "shop", 7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Not Found", apiErr.Message)
}

func TestClient_UnauthorizedBecomesAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticTokenSource("expired"))

	_, err := client.VerifyToken(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "Bad credentials")
}

func TestClient_Endpoints(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		call    func(t *testing.T, c *Client)
	}{
		{
			name: "ListWorkflows",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/repos/acme/shop/actions/workflows", r.URL.Path)
				_, _ = w.Write([]byte(`{"workflows": [{"id": 1, "name": "Deploy", "path": ".github/workflows/deploy.yml", "state": "active"}]}`))
			},
			call: func(t *testing.T, c *Client) {
				workflows, err := c.ListWorkflows(context.Background(), "acme", "shop")
				require.NoError(t, err)
				require.Len(t, workflows, 1)
				assert.Equal(t, "Deploy", workflows[0].Name)
				assert.Equal(t, ".github/workflows/deploy.yml", workflows[0].Path)
			},
		},
		{
			name: "ListTags",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/shop/tags", r.URL.Path)
				_, _ = w.Write([]byte(`[{"name": "v2026-08", "commit": {"sha": "abc123"}}]`))
			},
			call: func(t *testing.T, c *Client) {
				tags, err := c.ListTags(context.Background(), "acme", "shop")
				require.NoError(t, err)
				require.Len(t, tags, 1)
				assert.Equal(t, "v2026-08", tags[0].Name)
				assert.Equal(t, "abc123", tags[0].Commit.SHA)
			},
		},
		{
			name: "ListReleases",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/shop/releases", r.URL.Path)
				assert.Equal(t, "5", r.URL.Query().Get("per_page"))
				_, _ = w.Write([]byte(`[{"id": 9, "tag_name": "v2026-08", "name": "2026.08.1"}]`))
			},
			call: func(t *testing.T, c *Client) {
				releases, err := c.ListReleases(context.Background(), "acme", "shop", 5)
				require.NoError(t, err)
				require.Len(t, releases, 1)
				assert.Equal(t, "v2026-08", releases[0].TagName)
			},
		},
		{
			name: "GetCommit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/shop/commits/abc123", r.URL.Path)
				_, _ = w.Write([]byte(`{"sha": "abc123", "commit": {"message": "fix checkout", "author": {"name": "Dana", "date": "2026-08-01T10:00:00Z"}}}`))
			},
			call: func(t *testing.T, c *Client) {
				commit, err := c.GetCommit(context.Background(), "acme", "shop", "abc123")
				require.NoError(t, err)
				assert.Equal(t, "abc123", commit.SHA)
				assert.Equal(t, "fix checkout", commit.Message)
				assert.Equal(t, "Dana", commit.AuthorName)
				assert.Equal(t, 2026, commit.AuthorDate.Year())
			},
		},
		{
			name: "CreateRelease",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/repos/acme/shop/releases", r.URL.Path)

				var body NewRelease
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "v2026-08", body.TagName)
				assert.Equal(t, "2026.08.1", body.Name)

				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"id": 9, "tag_name": "v2026-08", "html_url": "https://github.example.test/r/9"}`))
			},
			call: func(t *testing.T, c *Client) {
				created, err := c.CreateRelease(context.Background(), "acme", "shop",
					NewRelease{TagName: "v2026-08", Name: "2026.08.1"})
				require.NoError(t, err)
				assert.Equal(t, int64(9), created.ID)
				assert.Equal(t, "v2026-08", created.TagName)
			},
		},
		{
			name: "VerifyToken",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/user", r.URL.Path)
				_, _ = w.Write([]byte(`{"login": "octocat", "name": "Octo Cat"}`))
			},
			call: func(t *testing.T, c *Client) {
				user, err := c.VerifyToken(context.Background())
				require.NoError(t, err)
				assert.Equal(t, "octocat", user.Login)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			tc.call(t, NewClient(server.URL, StaticTokenSource("tok")))
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, StaticTokenSource("tok"))

	_, err := client.VerifyToken(context.Background())

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}
