// Package tagquery interprets the tag/type filter parameters of collection
// requests. The outcome is a decision: execute a concrete filter, redirect
// the caller to the canonical typed form, or refuse.
package tagquery

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"contentapi/internal/domain"
	"contentapi/internal/repo"
)

type Action int

const (
	Execute Action = iota
	Redirect
	NotFound
)

// Decision is the resolved form of a tag/type query. For Execute exactly
// one of Tag and Kind is set; for Redirect, Location holds the canonical
// query string.
type Decision struct {
	Action   Action
	Tag      *domain.Tag
	Kind     string
	Sort     string
	Location string
}

// Param is one query parameter. Order matters: redirects must reproduce
// the non-filter parameters verbatim in their original relative order,
// which url.Values cannot express.
type Param struct {
	Key   string
	Value string
}

// ParseQuery splits a raw query string into ordered parameters.
func ParseQuery(raw string) []Param {
	var params []Param
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		params = append(params, Param{Key: key, Value: value})
	}
	return params
}

func encodeQuery(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

var sortOrders = map[string]bool{
	"":             true,
	"alphabetical": true,
	"curated":      true,
}

type Resolver struct {
	Repo repo.Repo
}

// Resolve applies the filter rules in order: the legacy untyped form first,
// then the typed tag and type forms. Multi-value filters are never
// supported; an ambiguous untyped tag is refused rather than guessed at.
func (r Resolver) Resolve(ctx context.Context, params []Param) (Decision, error) {
	idx := filterIndex(params)
	if idx < 0 {
		return Decision{Action: NotFound}, nil
	}
	filter := params[idx]
	if filter.Value == "" || strings.Contains(filter.Value, ",") {
		return Decision{Action: NotFound}, nil
	}
	sort := sortParam(params)

	switch {
	case filter.Key == "tag":
		return r.resolveLegacy(ctx, params, idx)
	case filter.Key == "type":
		kind := domain.NormalizeKind(filter.Value)
		if kind == "" || !sortOrders[sort] {
			return Decision{Action: NotFound}, nil
		}
		return Decision{Action: Execute, Kind: kind, Sort: sort}, nil
	default:
		tag, err := r.Repo.GetTag(ctx, filter.Value, filter.Key)
		if errors.Is(err, repo.ErrNotFound) {
			return Decision{Action: NotFound}, nil
		}
		if err != nil {
			return Decision{}, err
		}
		if !sortOrders[sort] {
			return Decision{Action: NotFound}, nil
		}
		return Decision{Action: Execute, Tag: &tag, Sort: sort}, nil
	}
}

// resolveLegacy handles tag=<id>. A unique tag type redirects to the typed
// form; a value that is no tag but names a content kind redirects to
// type=<kind>. Anything ambiguous is a refusal, never a guess.
func (r Resolver) resolveLegacy(ctx context.Context, params []Param, idx int) (Decision, error) {
	value := params[idx].Value
	tags, err := r.Repo.TagsByID(ctx, value)
	if err != nil {
		return Decision{}, err
	}
	if len(tags) == 0 {
		kind := domain.NormalizeKind(value)
		if kind == "" {
			return Decision{Action: NotFound}, nil
		}
		return Decision{Action: Redirect, Location: rewriteFilter(params, idx, "type", kind)}, nil
	}
	types := map[string]bool{}
	for _, t := range tags {
		types[t.TagType] = true
	}
	if len(types) > 1 {
		return Decision{Action: NotFound}, nil
	}
	return Decision{Action: Redirect, Location: rewriteFilter(params, idx, tags[0].TagType, value)}, nil
}

// rewriteFilter replaces the filter parameter in place, preserving every
// other parameter verbatim and in order.
func rewriteFilter(params []Param, idx int, key, value string) string {
	rewritten := make([]Param, len(params))
	copy(rewritten, params)
	rewritten[idx] = Param{Key: key, Value: value}
	return encodeQuery(rewritten)
}

func filterIndex(params []Param) int {
	for i, p := range params {
		if p.Key == "tag" || p.Key == "type" || domain.IsTagType(p.Key) {
			return i
		}
	}
	return -1
}

func sortParam(params []Param) string {
	for _, p := range params {
		if p.Key == "sort" {
			return p.Value
		}
	}
	return ""
}
