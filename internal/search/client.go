// Package search talks to the external search engine and maps its hits
// back onto stored content.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrUnavailable reports that the search engine could not be reached or
// answered with garbage. Callers translate it into a 503.
var ErrUnavailable = errors.New("search engine unavailable")

// Hit is one raw result from the search engine.
type Hit struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Client queries the search engine over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Search runs a query and returns the engine's hits in engine order.
func (c *Client) Search(ctx context.Context, q string) ([]Hit, error) {
	u := fmt.Sprintf("%s/search.json?q=%s", c.BaseURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var hits []Hit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return hits, nil
}
