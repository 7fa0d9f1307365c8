// Package imagesearch finds reference product photos through the Google
// Custom Search JSON API.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vbonduro/beautytracker/internal/metrics"
)

const defaultAPIURL = "https://www.googleapis.com/customsearch/v1"

const (
	// MaxAttempts bounds the calls made for a single query.
	MaxAttempts = 3
	// RetryDelay is multiplied by the attempt number between attempts.
	RetryDelay = time.Second
)

// Retailer sites searched before falling back to an unrestricted query.
var retailerSites = []string{"sephora.com", "ulta.com"}

// Result is the first image hit for a query.
type Result struct {
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	SourceURL    string `json:"sourceUrl"`
	Title        string `json:"title"`
	Source       string `json:"source"`
}

// Finder looks up a product photo by brand and name.
type Finder interface {
	FindProductImage(ctx context.Context, brand, name string) (*Result, error)
}

type searchResponse struct {
	Items []struct {
		Link  string `json:"link"`
		Title string `json:"title"`
		Image struct {
			ContextLink   string `json:"contextLink"`
			ThumbnailLink string `json:"thumbnailLink"`
		} `json:"image"`
	} `json:"items"`
}

type Client struct {
	apiKey  string
	cx      string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(apiKey, cx, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return &Client{
		apiKey:  apiKey,
		cx:      cx,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FindProductImage searches each retailer site in turn and then the open
// web. It returns nil when nothing was found; search failures are logged,
// never returned.
func (c *Client) FindProductImage(ctx context.Context, brand, name string) (*Result, error) {
	query := strings.TrimSpace(brand + " " + name)
	for _, site := range retailerSites {
		if r := c.Search(ctx, query, site); r != nil {
			return r, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return c.Search(ctx, query+" cosmetic product", ""), nil
}

// Search runs query, optionally restricted to site, making up to
// MaxAttempts calls. The delay after failed attempt k is k*RetryDelay. A
// response with no items is a definitive miss and is not retried.
func (c *Client) Search(ctx context.Context, query, site string) *Result {
	q := query
	if site != "" {
		q += " site:" + site
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		r, err := c.searchOnce(ctx, q)
		if err == nil {
			if r == nil {
				metrics.ImageSearchAttemptsTotal.WithLabelValues("empty").Inc()
			} else {
				metrics.ImageSearchAttemptsTotal.WithLabelValues("found").Inc()
			}
			return r
		}

		metrics.ImageSearchAttemptsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("image search attempt failed", "query", q, "attempt", attempt, "error", err)
		if attempt == MaxAttempts {
			break
		}
		if err := c.sleep(ctx, time.Duration(attempt)*RetryDelay); err != nil {
			return nil
		}
	}

	c.logger.Error("image search gave up", "query", q, "attempts", MaxAttempts)
	return nil
}

func (c *Client) searchOnce(ctx context.Context, q string) (*Result, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", q)
	params.Set("searchType", "image")
	params.Set("num", "1")
	params.Set("imgType", "photo")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call image search: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close image search response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("image search returned status %d: %s", resp.StatusCode, body)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(body.Items) == 0 {
		return nil, nil
	}

	item := body.Items[0]
	return &Result{
		ImageURL:     item.Link,
		ThumbnailURL: item.Image.ThumbnailLink,
		SourceURL:    item.Image.ContextLink,
		Title:        item.Title,
		Source:       sourceOf(item.Image.ContextLink),
	}, nil
}

// sourceOf classifies the page an image was found on.
func sourceOf(contextLink string) string {
	switch {
	case strings.Contains(contextLink, "sephora.com"):
		return "sephora"
	case strings.Contains(contextLink, "ulta.com"):
		return "ulta"
	default:
		return "other"
	}
}
