// Package assets is a client for the external binary-asset lookup service.
// Asset metadata is optional enrichment: every failure here is absorbed by
// the renderer, never surfaced to the caller.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Asset is the fixed metadata shape injected into video renders. Absent
// upstream values stay null rather than being dropped.
type Asset struct {
	WebURL      string  `json:"web_url"`
	ContentType string  `json:"content_type"`
	Title       *string `json:"title"`
	Source      *string `json:"source"`
	Description *string `json:"description"`
	Creator     *string `json:"creator"`
	Attribution *string `json:"attribution"`
	Subject     *string `json:"subject"`
	License     *string `json:"license"`
	Versions    *string `json:"versions"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) Client {
	return Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Asset resolves an asset identifier. Timeouts, non-2xx statuses, and
// malformed bodies are all plain errors; callers omit the field and move
// on.
func (c Client) Asset(ctx context.Context, id string) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/assets/"+id, nil)
	if err != nil {
		return Asset{}, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("asset lookup for %s: status %d", id, res.StatusCode)
	}
	var upstream struct {
		Name        string  `json:"name"`
		ContentType string  `json:"content_type"`
		FileURL     string  `json:"file_url"`
		State       string  `json:"state"`
		Title       *string `json:"title"`
		Source      *string `json:"source"`
		Description *string `json:"description"`
		Creator     *string `json:"creator"`
		Attribution *string `json:"attribution"`
		Subject     *string `json:"subject"`
		License     *string `json:"license"`
	}
	if err := json.NewDecoder(res.Body).Decode(&upstream); err != nil {
		return Asset{}, fmt.Errorf("asset lookup for %s: %w", id, err)
	}
	return Asset{
		WebURL:      upstream.FileURL,
		ContentType: upstream.ContentType,
		Title:       upstream.Title,
		Source:      upstream.Source,
		Description: upstream.Description,
		Creator:     upstream.Creator,
		Attribution: upstream.Attribution,
		Subject:     upstream.Subject,
		License:     upstream.License,
	}, nil
}
