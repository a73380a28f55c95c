// Package news fetches safety-related articles. Any failure falls back to a
// fixed list so the articles view is never empty.
package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-querystring/query"
	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// Query is the fixed article search
const Query = "women safety OR women security OR domestic violence OR sexual harassment OR women rights OR gender violence"

// Source names the publisher
type Source struct {
	Name string `json:"name"`
}

// Article is one news item
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Source      Source `json:"source"`
}

type everythingQuery struct {
	Q        string `url:"q"`
	Language string `url:"language"`
	SortBy   string `url:"sortBy"`
	PageSize int    `url:"pageSize"`
	APIKey   string `url:"apiKey"`
}

type rawArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type everythingResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message"`
	Articles []rawArticle `json:"articles"`
}

// Client talks to a newsapi.org compatible endpoint
type Client struct {
	http   *resty.Client
	apiKey string
	now    func() time.Time
	logger *zap.Logger
}

// NewClient creates a client for baseURL (https://newsapi.org/v2)
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "nirbhaya")
	return &Client{http: http, apiKey: apiKey, now: time.Now, logger: logging.OrNop(logger)}
}

// Fetch returns live articles, or the mock list on any failure
func (c *Client) Fetch(ctx context.Context) []Article {
	articles, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("News fetch failed, serving fallback articles", zap.Error(err))
		return MockArticles(c.now())
	}
	return articles
}

func (c *Client) fetch(ctx context.Context) ([]Article, error) {
	if c.apiKey == "" {
		return nil, errors.New("news api key not configured")
	}
	params, err := query.Values(everythingQuery{
		Q:        Query,
		Language: "en",
		SortBy:   "publishedAt",
		PageSize: 20,
		APIKey:   c.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var out everythingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&out).
		SetError(&out).
		Get("/everything")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news api error: %d", resp.StatusCode())
	}
	if out.Status != "ok" {
		return nil, fmt.Errorf("news api error: %s", out.Message)
	}

	now := c.now().UTC().Format(time.RFC3339)
	articles := make([]Article, 0, len(out.Articles))
	for i, a := range out.Articles {
		articles = append(articles, Article{
			ID:          fmt.Sprintf("article-%d", i),
			Title:       orDefault(a.Title, "No title available"),
			Description: orDefault(a.Description, "No description available"),
			URL:         orDefault(a.URL, "#"),
			URLToImage:  orDefault(a.URLToImage, "/placeholder-news.svg"),
			PublishedAt: orDefault(a.PublishedAt, now),
			Source:      Source{Name: orDefault(a.Source.Name, "Unknown Source")},
		})
	}
	return articles, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// MockArticles is the offline list, dated back from now one day apart
func MockArticles(now time.Time) []Article {
	day := 24 * time.Hour
	stamp := func(daysAgo int) string {
		return now.Add(-time.Duration(daysAgo) * day).UTC().Format(time.RFC3339)
	}
	mk := func(i int, title, desc, source string) Article {
		return Article{
			ID:          fmt.Sprintf("mock-%d", i+1),
			Title:       title,
			Description: desc,
			URL:         "#",
			URLToImage:  "/placeholder-news.svg",
			PublishedAt: stamp(i),
			Source:      Source{Name: source},
		}
	}
	return []Article{
		mk(0, "Women Safety: New Initiatives Launched Across Major Cities",
			"Government announces new safety measures and helpline numbers for women in urban areas.", "Safety News"),
		mk(1, "Self-Defense Training Programs Show Positive Results",
			"Community-based self-defense programs are helping women feel more confident and secure.", "Community Safety"),
		mk(2, "Technology Solutions for Women's Safety on the Rise",
			"Mobile apps and wearable devices are becoming popular tools for personal safety.", "Tech Safety"),
		mk(3, "Legal Reforms Strengthen Women's Rights Protection",
			"New legislation provides better protection and faster justice for women facing violence.", "Legal News"),
		mk(4, "Community Watch Programs Enhance Neighborhood Safety",
			"Local communities are coming together to create safer environments for women and children.", "Community News"),
	}
}

// Fetcher is what the cache refreshes from
type Fetcher interface {
	Fetch(ctx context.Context) []Article
}

// Cache holds the last fetched articles
type Cache struct {
	fetcher Fetcher

	mu        sync.RWMutex
	articles  []Article
	fetchedAt time.Time
}

// NewCache wraps fetcher
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// Refresh fetches and stores a new list
func (c *Cache) Refresh(ctx context.Context) error {
	articles := c.fetcher.Fetch(ctx)
	c.mu.Lock()
	c.articles = articles
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return ctx.Err()
}

// Articles returns the cached list, fetching on first use
func (c *Cache) Articles(ctx context.Context) []Article {
	c.mu.RLock()
	articles := c.articles
	c.mu.RUnlock()
	if articles != nil {
		return articles
	}
	_ = c.Refresh(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.articles
}

// FetchedAt is when the cache was last filled
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
