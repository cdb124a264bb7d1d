// Package server exposes the read-only content API over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"contentapi/internal/domain"
	"contentapi/internal/metrics"
	"contentapi/internal/render"
	"contentapi/internal/repo"
	"contentapi/internal/resolver"
	"contentapi/internal/search"
	"contentapi/internal/tagquery"
)

// Config for the HTTP API handler.
type Config struct {
	Repo     repo.Repo
	Search   *search.Client
	Assets   render.AssetLookup
	Site     render.Site
	Logger   zerolog.Logger
	Registry *prometheus.Registry
}

type requestKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Info   ResponseInfo `json:"_response_info"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string {
	if e.Info.StatusMessage != "" {
		return e.Info.StatusMessage
	}
	return e.Info.Status
}

type server struct {
	repo     repo.Repo
	resolver resolver.Resolver
	tags     tagquery.Resolver
	renderer render.Renderer
	search   *search.Client
	mapper   search.Mapper
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New returns an HTTP handler exposing the content API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	res := resolver.Resolver{Repo: cfg.Repo}
	s := &server{
		repo:     cfg.Repo,
		resolver: res,
		tags:     tagquery.Resolver{Repo: cfg.Repo},
		renderer: render.Renderer{Resolver: res, Assets: cfg.Assets, Site: cfg.Site},
		search:   cfg.Search,
		mapper:   search.Mapper{Resolver: res, Site: cfg.Site},
		metrics:  metrics.New(cfg.Registry),
		logger:   cfg.Logger,
	}

	huma.DefaultArrayNullable = false
	// Override Huma errors to use the _response_info envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, msg)
	}

	router := chi.NewRouter()
	router.Use(s.requestMiddleware)

	hcfg := huma.DefaultConfig("Content API", "1.0.0")
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)

	registerHealth(api)
	registerArtefact(api, s)
	registerWithTag(api, s)
	registerTags(api, s)
	registerSearch(api, s)
	registerBusinessSupport(api, s)
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	return router, nil
}

// requestMiddleware stashes the request for handlers that need the raw
// query string, assigns a request id, and records logs and metrics.
func (s *server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestKey{}, r)
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("request")
	})
}

func requestFrom(ctx context.Context) *http.Request {
	r, _ := ctx.Value(requestKey{}).(*http.Request)
	return r
}

func newAPIError(status int, msg string) huma.StatusError {
	return &apiError{
		status: status,
		Info:   ResponseInfo{Status: statusLabel(status), StatusMessage: msg},
	}
}

// redirectError answers a 302 carrying the canonical location. The body
// still holds the standard envelope.
func redirectError(location string) error {
	return huma.ErrorWithHeaders(
		&apiError{status: http.StatusFound, Info: okInfo()},
		http.Header{"Location": []string{location}},
	)
}

func handleError(err error) huma.StatusError {
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "")
	}
	return newAPIError(http.StatusInternalServerError, "")
}

func statusLabel(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not found"
	case status == http.StatusGone:
		return "gone"
	case status == http.StatusUnprocessableEntity:
		return "unprocessable"
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status < http.StatusBadRequest:
		return "ok"
	default:
		return strings.ToLower(http.StatusText(status))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerArtefact(api huma.API, s *server) {
	type artefactInput struct {
		Slug          string `path:"slug" doc:"Artefact slug"`
		ContentFormat string `query:"content_format" doc:"govspeak for raw markup, anything else for HTML"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-artefact",
		Method:      http.MethodGet,
		Path:        "/{slug}.json",
		Summary:     "Fetch a single artefact",
		Errors:      []int{http.StatusNotFound, http.StatusGone},
	}, func(ctx context.Context, input *artefactInput) (*struct {
		Body ArtefactResponse `json:"body"`
	}, error) {
		res, err := s.resolver.Resolve(ctx, input.Slug)
		if err != nil {
			return nil, handleError(err)
		}
		switch res.Outcome {
		case resolver.Gone:
			return nil, newAPIError(http.StatusGone, "")
		case resolver.NotFound:
			return nil, newAPIError(http.StatusNotFound, "")
		}
		opts := render.Options{RawContent: input.ContentFormat == "govspeak"}
		env := s.renderer.Artefact(ctx, res.Artefact, res.Edition, opts)
		return &struct {
			Body ArtefactResponse `json:"body"`
		}{Body: ArtefactResponse{Info: okInfo(), Envelope: env}}, nil
	})
}

func registerWithTag(api huma.API, s *server) {
	huma.Register(api, huma.Operation{
		OperationID: "with-tag",
		Method:      http.MethodGet,
		Path:        "/with_tag.json",
		Summary:     "List artefacts matching a tag or type filter",
		Errors:      []int{http.StatusFound, http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ArtefactListResponse `json:"body"`
	}, error) {
		rawQuery := ""
		if req := requestFrom(ctx); req != nil {
			rawQuery = req.URL.RawQuery
		}
		dec, err := s.tags.Resolve(ctx, tagquery.ParseQuery(rawQuery))
		if err != nil {
			return nil, handleError(err)
		}

		var artefacts []domain.Artefact
		switch dec.Action {
		case tagquery.NotFound:
			return nil, newAPIError(http.StatusNotFound, "")
		case tagquery.Redirect:
			return nil, redirectError("/with_tag.json?" + dec.Location)
		case tagquery.Execute:
			if dec.Kind != "" {
				n, err := s.repo.CountArtefactsByKind(ctx, dec.Kind)
				if err != nil {
					return nil, handleError(err)
				}
				if n == 0 {
					return nil, newAPIError(http.StatusNotFound, "")
				}
				artefacts, err = s.repo.ArtefactsByKind(ctx, dec.Kind)
				if err != nil {
					return nil, handleError(err)
				}
			} else if dec.Sort == "curated" {
				artefacts, err = s.repo.CuratedArtefactsWithTag(ctx, dec.Tag.TagID)
				if err != nil {
					return nil, handleError(err)
				}
			} else {
				artefacts, err = s.repo.ArtefactsWithTag(ctx, dec.Tag.TagID)
				if err != nil {
					return nil, handleError(err)
				}
			}
		}

		results := make([]render.Envelope, 0, len(artefacts))
		for _, a := range artefacts {
			ed, ok, err := s.resolver.VisibleForListing(ctx, a)
			if err != nil {
				return nil, handleError(err)
			}
			if !ok {
				continue
			}
			results = append(results, s.renderer.ListItem(a, ed))
		}
		if dec.Sort == "alphabetical" {
			sort.SliceStable(results, func(i, j int) bool { return results[i].Title < results[j].Title })
		}
		return &struct {
			Body ArtefactListResponse `json:"body"`
		}{Body: ArtefactListResponse{Info: okInfo(), Total: len(results), Results: results}}, nil
	})
}

func registerTags(api huma.API, s *server) {
	type listInput struct {
		Type string `query:"type" doc:"Restrict to one tag type"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "list-tags",
		Method:      http.MethodGet,
		Path:        "/tags.json",
		Summary:     "List tags",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *listInput) (*struct {
		Body TagListResponse `json:"body"`
	}, error) {
		if input.Type != "" && !domain.IsTagType(input.Type) {
			return nil, newAPIError(http.StatusNotFound, "")
		}
		tags, err := s.repo.ListTags(ctx, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		results := make([]render.TagEnvelope, 0, len(tags))
		for _, t := range tags {
			parent, err := s.tagParent(ctx, t)
			if err != nil {
				return nil, handleError(err)
			}
			results = append(results, s.renderer.Tag(t, parent))
		}
		return &struct {
			Body TagListResponse `json:"body"`
		}{Body: TagListResponse{Info: okInfo(), Total: len(results), Results: results}}, nil
	})

	type tagInput struct {
		TagID string `path:"tag_id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-tag",
		Method:      http.MethodGet,
		Path:        "/tags/{tag_id}.json",
		Summary:     "Fetch a single tag",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *tagInput) (*struct {
		Body TagResponse `json:"body"`
	}, error) {
		matches, err := s.repo.TagsByID(ctx, input.TagID)
		if err != nil {
			return nil, handleError(err)
		}
		if len(matches) == 0 {
			return nil, newAPIError(http.StatusNotFound, "")
		}
		t := matches[0]
		parent, err := s.tagParent(ctx, t)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TagResponse `json:"body"`
		}{Body: TagResponse{Info: okInfo(), TagEnvelope: s.renderer.Tag(t, parent)}}, nil
	})
}

func (s *server) tagParent(ctx context.Context, t domain.Tag) (*domain.Tag, error) {
	if t.ParentID == "" {
		return nil, nil
	}
	parent, err := s.repo.ParentTag(ctx, t)
	if errors.Is(err, repo.ErrNotFound) {
		// Dangling parent pointers render as top level.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

func registerSearch(api huma.API, s *server) {
	type searchInput struct {
		Q string `query:"q" doc:"Search terms"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/search.json",
		Summary:     "Search content",
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *searchInput) (*struct {
		Body SearchResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Q) == "" {
			return nil, newAPIError(http.StatusUnprocessableEntity,
				"Non-empty querystring is required in the 'q' parameter")
		}
		hits, err := s.search.Search(ctx, input.Q)
		if err != nil {
			if errors.Is(err, search.ErrUnavailable) {
				s.metrics.SearchUnavailable.Inc()
				return nil, newAPIError(http.StatusServiceUnavailable, "")
			}
			return nil, handleError(err)
		}
		results := s.mapper.Map(ctx, hits)
		return &struct {
			Body SearchResponse `json:"body"`
		}{Body: SearchResponse{Info: okInfo(), Total: len(results), Results: results}}, nil
	})
}

func registerBusinessSupport(api huma.API, s *server) {
	type schemesInput struct {
		Identifiers string `query:"identifiers" doc:"Comma separated scheme identifiers"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "business-support-schemes",
		Method:      http.MethodGet,
		Path:        "/business_support_schemes.json",
		Summary:     "Fetch business support schemes by identifier",
	}, func(ctx context.Context, input *schemesInput) (*struct {
		Body ArtefactListResponse `json:"body"`
	}, error) {
		var identifiers []string
		for _, id := range strings.Split(input.Identifiers, ",") {
			if id = strings.TrimSpace(id); id != "" {
				identifiers = append(identifiers, id)
			}
		}
		editions, err := s.repo.PublishedEditionsByIdentifiers(ctx, identifiers)
		if err != nil {
			return nil, handleError(err)
		}
		results := make([]render.Envelope, 0, len(editions))
		for _, ed := range editions {
			a, err := s.repo.GetArtefact(ctx, ed.Slug)
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, handleError(err)
			}
			ed := ed
			results = append(results, s.renderer.Artefact(ctx, a, &ed, render.Options{}))
		}
		return &struct {
			Body ArtefactListResponse `json:"body"`
		}{Body: ArtefactListResponse{Info: okInfo(), Total: len(results), Results: results}}, nil
	})
}
