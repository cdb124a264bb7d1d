package render

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"contentapi/internal/assets"
	"contentapi/internal/db"
	"contentapi/internal/domain"
	"contentapi/internal/migrate"
	"contentapi/internal/repo"
	"contentapi/internal/resolver"
)

var testSite = Site{WebURL: "http://www.example.com", APIURL: "http://api.example.com"}

func newTestRenderer(t *testing.T) (Renderer, repo.Repo) {
	t.Helper()
	conn, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "content.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := repo.Repo{DB: conn}
	return Renderer{Resolver: resolver.Resolver{Repo: r}, Site: testSite}, r
}

func artefact(slug, kind string) domain.Artefact {
	return domain.Artefact{
		Slug:      slug,
		Name:      "Name of " + slug,
		Kind:      kind,
		OwningApp: domain.OwningAppPublisher,
		State:     domain.StateLive,
		CreatedAt: "2014-01-01T00:00:00Z",
	}
}

func edition(slug, kind, payload string) *domain.Edition {
	return &domain.Edition{
		ID:          "ed-" + slug,
		Slug:        slug,
		Kind:        kind,
		State:       domain.EditionPublished,
		Title:       "Title of " + slug,
		PayloadJSON: payload,
	}
}

func TestRenderAnswer(t *testing.T) {
	r, _ := newTestRenderer(t)
	env := r.Artefact(context.Background(), artefact("batman", domain.KindAnswer),
		edition("batman", domain.KindAnswer, `{"body":"Important batman information","alternative_title":"Bats"}`),
		Options{})

	if env.ID != "http://api.example.com/batman.json" {
		t.Fatalf("id = %q", env.ID)
	}
	if env.WebURL != "http://www.example.com/batman" {
		t.Fatalf("web_url = %q", env.WebURL)
	}
	if env.Title != "Title of batman" {
		t.Fatalf("title = %q", env.Title)
	}
	if env.Format != domain.KindAnswer {
		t.Fatalf("format = %q", env.Format)
	}
	if got := env.Details["body"]; got != "<p>Important batman information</p>\n" {
		t.Fatalf("body = %q", got)
	}
	if got := env.Details["alternative_title"]; got != "Bats" {
		t.Fatalf("alternative_title = %q", got)
	}
}

func TestRenderAnswerRawContent(t *testing.T) {
	r, _ := newTestRenderer(t)
	env := r.Artefact(context.Background(), artefact("batman", domain.KindAnswer),
		edition("batman", domain.KindAnswer, `{"body":"## Heading"}`),
		Options{RawContent: true})

	if got := env.Details["body"]; got != "## Heading" {
		t.Fatalf("body = %q", got)
	}
}

func TestRenderGuideParts(t *testing.T) {
	r, _ := newTestRenderer(t)
	payload := `{"parts":[
		{"title":"Part two","slug":"part-two","body":"Second","order":2},
		{"title":"Part one","slug":"part-one","body":"First","order":1}
	]}`
	env := r.Artefact(context.Background(), artefact("permits", domain.KindGuide),
		edition("permits", domain.KindGuide, payload), Options{})

	parts, ok := env.Details["parts"].([]map[string]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("parts = %#v", env.Details["parts"])
	}
	if parts[0]["slug"] != "part-one" || parts[1]["slug"] != "part-two" {
		t.Fatalf("parts out of order: %#v", parts)
	}
	if parts[0]["web_url"] != "http://www.example.com/permits/part-one" {
		t.Fatalf("part web_url = %q", parts[0]["web_url"])
	}
	if parts[0]["body"] != "<p>First</p>\n" {
		t.Fatalf("part body = %q", parts[0]["body"])
	}
	if _, present := env.Details["body"]; present {
		t.Fatalf("guides must not carry a top-level body")
	}
}

func TestRenderMismatchedEditionKind(t *testing.T) {
	r, _ := newTestRenderer(t)
	env := r.Artefact(context.Background(), artefact("mixed", domain.KindAnswer),
		edition("mixed", domain.KindArticle, `{"content":"Article text"}`), Options{})

	if got := env.Details["content"]; got != "<p>Article text</p>\n" {
		t.Fatalf("content = %q", got)
	}
	if env.Format != domain.KindAnswer {
		t.Fatalf("format = %q, want artefact kind", env.Format)
	}
}

func TestRenderSmartAnswerGraph(t *testing.T) {
	r, _ := newTestRenderer(t)
	payload := `{"body":"Find out","nodes":[
		{"kind":"outcome","slug":"done","title":"Done","body":"The end","order":2,"options":[]},
		{"kind":"question","slug":"q1","title":"First question","body":"Pick one","order":1,"options":[
			{"label":"Self employed","next_node":"done","order":2},
			{"label":"An employee","next_node":"done","order":1}
		]}
	]}`
	env := r.Artefact(context.Background(), artefact("calc", domain.KindSmartAnswer),
		edition("calc", domain.KindSmartAnswer, payload), Options{})

	wrapper, ok := env.Details["smart_answer_nodes"].(map[string]any)
	if !ok {
		t.Fatalf("smart_answer_nodes = %#v", env.Details["smart_answer_nodes"])
	}
	nodes := wrapper["nodes"].([]map[string]any)
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes", len(nodes))
	}
	if nodes[0]["slug"] != "q1" || nodes[1]["slug"] != "done" {
		t.Fatalf("nodes out of order: %#v", nodes)
	}
	if _, present := nodes[0]["body"]; present {
		t.Fatalf("question nodes must not carry a body, got %#v", nodes[0]["body"])
	}
	if nodes[1]["body"] != "<p>The end</p>\n" {
		t.Fatalf("outcome body = %q", nodes[1]["body"])
	}
	opts := nodes[0]["options"].([]map[string]any)
	if len(opts) != 2 {
		t.Fatalf("got %d options", len(opts))
	}
	if opts[0]["label"] != "An employee" {
		t.Fatalf("options out of order: %#v", opts)
	}
	if opts[0]["slug"] != "an-employee" {
		t.Fatalf("option slug = %q", opts[0]["slug"])
	}
	if opts[0]["next_node"] != "done" {
		t.Fatalf("next_node = %q", opts[0]["next_node"])
	}
}

func TestRenderCreativeWorkArtist(t *testing.T) {
	r, rp := newTestRenderer(t)
	artist := artefact("leonardo", domain.KindPerson)
	artist.OwningApp = "people"
	if err := rp.InsertArtefact(context.Background(), artist); err != nil {
		t.Fatalf("insert artist: %v", err)
	}

	env := r.Artefact(context.Background(), artefact("mona-lisa", domain.KindCreativeWork),
		edition("mona-lisa", domain.KindCreativeWork, `{"description":"A painting","artist":"leonardo"}`),
		Options{})

	got, ok := env.Details["artist"].(map[string]any)
	if !ok {
		t.Fatalf("artist = %#v", env.Details["artist"])
	}
	if got["slug"] != "leonardo" || got["name"] != "Name of leonardo" {
		t.Fatalf("artist = %#v", got)
	}
}

func TestRenderCreativeWorkArtistMissing(t *testing.T) {
	r, _ := newTestRenderer(t)
	env := r.Artefact(context.Background(), artefact("mona-lisa", domain.KindCreativeWork),
		edition("mona-lisa", domain.KindCreativeWork, `{"description":"A painting","artist":"nobody"}`),
		Options{})

	if _, present := env.Details["artist"]; present {
		t.Fatalf("unresolvable artist must be omitted, got %#v", env.Details["artist"])
	}
}

type fakeAssets struct {
	asset assets.Asset
	err   error
}

func (f fakeAssets) Asset(ctx context.Context, id string) (assets.Asset, error) {
	return f.asset, f.err
}

func TestRenderVideoCaptionFile(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.Assets = fakeAssets{asset: assets.Asset{WebURL: "http://assets.example.com/captions.xml", ContentType: "application/xml"}}

	env := r.Artefact(context.Background(), artefact("clip", domain.KindVideo),
		edition("clip", domain.KindVideo, `{"video_url":"http://example.com/v","caption_file_id":"abc"}`),
		Options{})

	caption, ok := env.Details["caption_file"].(assets.Asset)
	if !ok {
		t.Fatalf("caption_file = %#v", env.Details["caption_file"])
	}
	if caption.WebURL != "http://assets.example.com/captions.xml" {
		t.Fatalf("caption web_url = %q", caption.WebURL)
	}
}

func TestRenderVideoCaptionFileOmittedOnError(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.Assets = fakeAssets{err: errors.New("boom")}

	env := r.Artefact(context.Background(), artefact("clip", domain.KindVideo),
		edition("clip", domain.KindVideo, `{"video_url":"http://example.com/v","caption_file_id":"abc"}`),
		Options{})

	if _, present := env.Details["caption_file"]; present {
		t.Fatalf("caption_file must be omitted when the asset store fails")
	}
	if env.Details["video_url"] != "http://example.com/v" {
		t.Fatalf("video_url = %q", env.Details["video_url"])
	}
}

func TestListItemExcerpt(t *testing.T) {
	r, _ := newTestRenderer(t)
	env := r.ListItem(artefact("batman", domain.KindAnswer),
		edition("batman", domain.KindAnswer, `{"body":"First *paragraph*.\n\nSecond paragraph."}`))

	if env.Details["excerpt"] != "First paragraph." {
		t.Fatalf("excerpt = %q", env.Details["excerpt"])
	}
	if _, present := env.Details["body"]; present {
		t.Fatalf("list items must not carry a body")
	}
}

func TestRenderTagParent(t *testing.T) {
	r, _ := newTestRenderer(t)
	child := domain.Tag{TagID: "crime/batman", TagType: "section", Title: "Batman", Description: "All batman"}
	parent := domain.Tag{TagID: "crime", TagType: "section", Title: "Crime"}

	env := r.Tag(child, &parent)
	if env.ID != "http://api.example.com/tags/crime/batman.json" {
		t.Fatalf("id = %q", env.ID)
	}
	p, ok := env.Details["parent"].(map[string]any)
	if !ok {
		t.Fatalf("parent = %#v", env.Details["parent"])
	}
	if p["id"] != "http://api.example.com/tags/crime.json" || p["title"] != "Crime" {
		t.Fatalf("parent = %#v", p)
	}

	top := r.Tag(parent, nil)
	if top.Details["parent"] != nil {
		t.Fatalf("top level parent must be null, got %#v", top.Details["parent"])
	}
}
