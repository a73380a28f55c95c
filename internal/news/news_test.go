package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMapsArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/everything", r.URL.Path)
		assert.Equal(t, Query, q.Get("q"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "20", q.Get("pageSize"))
		assert.Equal(t, "k", q.Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"title":"A","description":"d","url":"https://x","urlToImage":"https://img","publishedAt":"2026-01-01T00:00:00Z","source":{"name":"S"}},
			{}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", nil)
	c.now = func() time.Time { return time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC) }
	got := c.Fetch(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, Article{
		ID: "article-0", Title: "A", Description: "d", URL: "https://x", URLToImage: "https://img",
		PublishedAt: "2026-01-01T00:00:00Z", Source: Source{Name: "S"},
	}, got[0])
	assert.Equal(t, Article{
		ID: "article-1", Title: "No title available", Description: "No description available", URL: "#",
		URLToImage: "/placeholder-news.svg", PublishedAt: "2026-02-02T00:00:00Z", Source: Source{Name: "Unknown Source"},
	}, got[1])
}

func TestFetchFallsBack(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"status not ok": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"error","message":"apiKeyInvalid"}`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			got := NewClient(srv.URL, "k", nil).Fetch(context.Background())
			require.Len(t, got, 5)
			assert.Equal(t, "mock-1", got[0].ID)
		})
	}

	t.Run("no key", func(t *testing.T) {
		got := NewClient("http://127.0.0.1:1", "", nil).Fetch(context.Background())
		assert.Len(t, got, 5)
	})
}

func TestMockArticlesStepBackDaily(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	list := MockArticles(now)

	require.Len(t, list, 5)
	assert.Equal(t, "Women Safety: New Initiatives Launched Across Major Cities", list[0].Title)
	assert.Equal(t, "Community News", list[4].Source.Name)
	assert.Equal(t, "2026-05-10T12:00:00Z", list[0].PublishedAt)
	assert.Equal(t, "2026-05-06T12:00:00Z", list[4].PublishedAt)
}

type countingFetcher struct{ n atomic.Int32 }

func (c *countingFetcher) Fetch(context.Context) []Article {
	c.n.Add(1)
	return MockArticles(time.Now())
}

func TestCacheFetchesOnce(t *testing.T) {
	f := &countingFetcher{}
	c := NewCache(f)

	assert.True(t, c.FetchedAt().IsZero())
	assert.Len(t, c.Articles(context.Background()), 5)
	assert.Len(t, c.Articles(context.Background()), 5)
	assert.Equal(t, int32(1), f.n.Load())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(2), f.n.Load())
	assert.False(t, c.FetchedAt().IsZero())
}
