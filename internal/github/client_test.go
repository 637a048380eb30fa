package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/changelog-bot/internal/attribution"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "tok", Repo{Owner: "o", Name: "r"})
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"body":"x"}`))
	})

	c.ReleaseBody(context.Background(), "v1.0.0")
	assert.Equal(t, "application/vnd.github+json", got.Get("Accept"))
	assert.Equal(t, "2022-11-28", got.Get("X-GitHub-Api-Version"))
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
}

func TestClient_ReleaseBody(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status int
		body   string
		want   string
	}{
		"found":         {status: http.StatusOK, body: `{"body":"## What's Changed"}`, want: "## What's Changed"},
		"null body":     {status: http.StatusOK, body: `{"body":null}`, want: ""},
		"not found":     {status: http.StatusNotFound, body: `{"message":"Not Found"}`, want: ""},
		"invalid JSON":  {status: http.StatusOK, body: `{`, want: ""},
		"server failed": {status: http.StatusBadGateway, body: "", want: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/o/r/releases/tags/v1.2.0", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			assert.Equal(t, tt.want, c.ReleaseBody(context.Background(), "v1.2.0"))
		})
	}
}

func TestClient_PullRequest(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/o/r/pulls/12" {
			_, _ = w.Write([]byte(`{"number":12,"html_url":"https://github.com/o/r/pull/12","user":{"login":"alice"}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	info := c.PullRequest(context.Background(), 12)
	require.NotNil(t, info)
	assert.Equal(t, PullInfo{Number: 12, Author: "alice", URL: "https://github.com/o/r/pull/12"}, *info)

	assert.Nil(t, c.PullRequest(context.Background(), 13))

	infos := c.PullInfos(context.Background(), []int{12, 13}, 2)
	assert.Equal(t, map[int]PullInfo{12: *info}, infos)
}

func TestClient_PullsForCommit(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/o/r/commits/abc1234/pulls", r.URL.Path)
		_, _ = w.Write([]byte(`[{"number":5,"title":"feat: add login"},{"number":0,"title":"bogus"}]`))
	})

	refs, err := c.PullsForCommit(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, []attribution.PullRef{{Number: 5, Title: "feat: add login"}}, refs)
}

func TestClient_MapCommitsToPRs(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch {
		case strings.Contains(r.URL.Path, "/commits/aaa/"):
			_, _ = w.Write([]byte(`[{"number":1,"title":"one"}]`))
		case strings.Contains(r.URL.Path, "/commits/bbb/"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})

	got := c.MapCommitsToPRs(context.Background(), []string{"aaa", "bbb", "ccc", "ddd"}, 3, 2)
	assert.Equal(t, map[string][]attribution.PullRef{
		"aaa": {{Number: 1, Title: "one"}},
		"bbb": {},
		"ccc": {},
	}, got)
	assert.Equal(t, int32(3), calls.Load(), "lookups stop at the limit")
}

func TestClient_CreatePullRequest(t *testing.T) {
	t.Parallel()

	var created map[string]string
	var labels map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/repos/o/r/pulls":
			assert.NoError(t, json.Unmarshal(data, &created))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"number":42}`))
		case "/repos/o/r/issues/42/labels":
			assert.NoError(t, json.Unmarshal(data, &labels))
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	n, err := c.CreatePullRequest(context.Background(), NewPullRequest{
		Title:  "docs(changelog): v1.0.0",
		Body:   "body",
		Head:   "chore/changelog-v1.0.0",
		Base:   "main",
		Labels: []string{"changelog", "release"},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, map[string]string{
		"title": "docs(changelog): v1.0.0",
		"body":  "body",
		"head":  "chore/changelog-v1.0.0",
		"base":  "main",
	}, created)
	assert.Equal(t, map[string][]string{"labels": {"changelog", "release"}}, labels)
}

func TestClient_CreatePullRequest_Errors(t *testing.T) {
	t.Parallel()

	t.Run("create fails", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
		})
		_, err := c.CreatePullRequest(context.Background(), NewPullRequest{Title: "t"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		assert.Contains(t, err.Error(), "Validation Failed")
	})

	t.Run("labels fail after create", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/repos/o/r/pulls" {
				_, _ = w.Write([]byte(`{"number":7}`))
				return
			}
			w.WriteHeader(http.StatusForbidden)
		})
		n, err := c.CreatePullRequest(context.Background(), NewPullRequest{Title: "t", Labels: []string{"x"}})
		assert.Equal(t, 7, n)
		assert.ErrorContains(t, err, "labeling #7")
	})
}

func TestAPIError_TruncatesBody(t *testing.T) {
	t.Parallel()

	err := &APIError{Status: 500, URL: "https://api.github.com/x", Body: strings.Repeat("a", 300)}
	assert.Equal(t, "GitHub API 500 for https://api.github.com/x: "+strings.Repeat("a", 200)+"...", err.Error())
}
