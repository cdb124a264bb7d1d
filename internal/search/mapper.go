package search

import (
	"context"
	"encoding/json"
	"strings"

	"contentapi/internal/domain"
	"contentapi/internal/markdown"
	"contentapi/internal/render"
	"contentapi/internal/resolver"
)

// Result is one mapped search result. ID is null for hits that point
// offsite and so have no API representation.
type Result struct {
	ID      *string        `json:"id"`
	WebURL  string         `json:"web_url"`
	Title   string         `json:"title"`
	Details map[string]any `json:"details"`
}

// Mapper joins raw search hits to stored content.
type Mapper struct {
	Resolver resolver.Resolver
	Site     render.Site
}

// Map converts engine hits into API results, enriching onsite hits from
// the content store where the slug resolves to something visible.
func (m Mapper) Map(ctx context.Context, hits []Hit) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, m.mapHit(ctx, h))
	}
	return out
}

func (m Mapper) mapHit(ctx context.Context, h Hit) Result {
	if strings.HasPrefix(h.Link, "http://") || strings.HasPrefix(h.Link, "https://") {
		// Offsite result: nothing of ours to point at.
		return Result{WebURL: h.Link, Title: h.Title, Details: map[string]any{}}
	}

	slug := strings.TrimPrefix(h.Link, "/")
	id := m.Site.APIURL + "/" + slug + ".json"
	res := Result{
		ID:      &id,
		WebURL:  m.Site.WebURL + "/" + slug,
		Title:   h.Title,
		Details: map[string]any{},
	}

	rr, err := m.Resolver.Resolve(ctx, slug)
	if err != nil || rr.Outcome != resolver.Visible {
		return res
	}
	a := rr.Artefact
	res.Details["slug"] = a.Slug
	// The format is the artefact's tag in its own kind dimension (an
	// article tagged "blog" reports blog); kinds without such a tag
	// report the kind itself.
	format := a.Kind
	if id, err := m.Resolver.Repo.KindDimensionTagID(ctx, a.Slug, a.Kind); err == nil {
		format = id
	}
	res.Details["format"] = format
	res.Details["created_at"] = a.CreatedAt
	tagIDs := a.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}
	res.Details["tag_ids"] = tagIDs
	if a.Description != "" {
		res.Details["description"] = a.Description
	}

	if ed := rr.Edition; ed != nil {
		p := payloadFields(ed)
		text := p.Body
		if text == "" {
			text = p.Content
		}
		if text != "" {
			res.Details["description"] = markdown.Strip(text)
		}
		if a.Kind == domain.KindCourseInstance {
			res.Details["date"] = p.Date
			res.Details["course"] = p.Course
		}
	}
	return res
}

type hitPayload struct {
	Body    string `json:"body"`
	Content string `json:"content"`
	Date    string `json:"date"`
	Course  string `json:"course"`
}

func payloadFields(ed *domain.Edition) hitPayload {
	var p hitPayload
	if ed.PayloadJSON != "" {
		// Field-level best effort, a malformed payload just means a
		// sparser result.
		_ = json.Unmarshal([]byte(ed.PayloadJSON), &p)
	}
	return p
}
