// Package render turns stored artefacts, editions and tags into the JSON
// envelopes the API serves. Kind-specific fields come from a closed table of
// render functions keyed on content kind.
package render

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"contentapi/internal/assets"
	"contentapi/internal/domain"
	"contentapi/internal/markdown"
	"contentapi/internal/resolver"
)

// Site carries the public base URLs used to mint ids and web_urls.
type Site struct {
	WebURL string
	APIURL string
}

// Options selects between HTML and raw govspeak in rendered bodies.
type Options struct {
	RawContent bool
}

// Envelope is the common artefact representation, generic fields plus a
// kind-dependent details map.
type Envelope struct {
	ID        string         `json:"id"`
	WebURL    string         `json:"web_url"`
	Title     string         `json:"title"`
	Format    string         `json:"format"`
	TagIDs    []string       `json:"tag_ids"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
	Details   map[string]any `json:"details"`
}

// TagEnvelope is the representation served for a single tag.
type TagEnvelope struct {
	ID      string         `json:"id"`
	WebURL  *string        `json:"web_url"`
	Title   string         `json:"title"`
	Details map[string]any `json:"details"`
}

// AssetLookup fetches attachment metadata from the asset store.
type AssetLookup interface {
	Asset(ctx context.Context, id string) (assets.Asset, error)
}

type Renderer struct {
	Resolver resolver.Resolver
	Assets   AssetLookup
	Site     Site
}

type renderContext struct {
	ctx  context.Context
	r    Renderer
	opts Options
}

// markup renders govspeak to HTML unless the caller asked for raw content.
func (rc *renderContext) markup(src string) string {
	if rc.opts.RawContent {
		return src
	}
	return markdown.Render(src)
}

// resolveRef resolves a cross referenced slug to its visible artefact and
// edition. Anything other than a clean visible hit reports false and the
// referencing field is left out. Depth is a single hop.
func (rc *renderContext) resolveRef(slug string) (domain.Artefact, *domain.Edition, bool) {
	if slug == "" {
		return domain.Artefact{}, nil, false
	}
	res, err := rc.r.Resolver.Resolve(rc.ctx, slug)
	if err != nil || res.Outcome != resolver.Visible {
		return domain.Artefact{}, nil, false
	}
	return res.Artefact, res.Edition, true
}

type renderFunc func(rc *renderContext, ed domain.Edition, d map[string]any)

var kindRenderers = map[string]renderFunc{
	domain.KindAnswer:          renderAnswer,
	domain.KindGuide:           renderGuide,
	domain.KindProgramme:       renderGuide,
	domain.KindPerson:          renderPerson,
	domain.KindTimedItem:       renderTimedItem,
	domain.KindArticle:         renderArticle,
	domain.KindCaseStudy:       renderArticle,
	domain.KindFAQ:             renderFAQ,
	domain.KindJob:             renderJob,
	domain.KindOrganization:    renderOrganization,
	domain.KindCreativeWork:    renderCreativeWork,
	domain.KindCourse:          renderCourse,
	domain.KindCourseInstance:  renderCourseInstance,
	domain.KindEvent:           renderEvent,
	domain.KindNode:            renderNode,
	domain.KindVideo:           renderVideo,
	domain.KindSmartAnswer:     renderSmartAnswer,
	domain.KindBusinessSupport: renderBusinessSupport,
}

// Artefact renders a visible artefact with its published edition, if any,
// into the full envelope.
func (r Renderer) Artefact(ctx context.Context, a domain.Artefact, ed *domain.Edition, opts Options) Envelope {
	env := r.base(a)
	env.Details["description"] = a.Description
	if ed == nil {
		return env
	}
	if ed.Title != "" {
		env.Title = ed.Title
	}

	kind := a.Kind
	if ed.Kind != "" && ed.Kind != a.Kind {
		// Format migration in flight: the edition knows what it actually is.
		kind = ed.Kind
	}
	fn, ok := kindRenderers[kind]
	if !ok {
		if kind != a.Kind {
			// Mismatched edition of a shape we cannot name. Serve the
			// generic fields rather than failing the request.
			return env
		}
		panic(fmt.Sprintf("render: no renderer for kind %q", kind))
	}

	rc := &renderContext{ctx: ctx, r: r, opts: opts}
	fn(rc, *ed, env.Details)
	return env
}

// ListItem renders the abbreviated envelope used in tag query results.
func (r Renderer) ListItem(a domain.Artefact, ed *domain.Edition) Envelope {
	env := r.base(a)
	env.Details["description"] = a.Description
	if ed == nil {
		return env
	}
	if ed.Title != "" {
		env.Title = ed.Title
	}
	p := payload[listItemPayload](*ed)
	text := p.Body
	if text == "" {
		text = p.Content
	}
	if text != "" {
		env.Details["excerpt"] = markdown.Excerpt(text)
	}
	return env
}

// Tag renders a tag with its parent, which is present but null for top
// level tags.
func (r Renderer) Tag(t domain.Tag, parent *domain.Tag) TagEnvelope {
	d := map[string]any{
		"description": t.Description,
		"type":        t.TagType,
	}
	var parentVal any
	if parent != nil {
		parentVal = map[string]any{
			"id":    r.tagURL(parent.TagID),
			"title": parent.Title,
		}
	}
	d["parent"] = parentVal
	return TagEnvelope{
		ID:      r.tagURL(t.TagID),
		Title:   t.Title,
		Details: d,
	}
}

func (r Renderer) base(a domain.Artefact) Envelope {
	tagIDs := a.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}
	return Envelope{
		ID:        r.Site.APIURL + "/" + a.Slug + ".json",
		WebURL:    r.Site.WebURL + "/" + a.Slug,
		Title:     a.Name,
		Format:    a.Kind,
		TagIDs:    tagIDs,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Details:   map[string]any{},
	}
}

func (r Renderer) tagURL(id string) string {
	return r.Site.APIURL + "/tags/" + id + ".json"
}

func renderAnswer(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[answerPayload](ed)
	d["alternative_title"] = p.AlternativeTitle
	d["need_extended_font"] = p.NeedExtendedFont
	d["body"] = rc.markup(p.Body)
}

func renderGuide(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[guidePayload](ed)
	d["alternative_title"] = p.AlternativeTitle
	parts := p.Parts
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].Order < parts[j].Order })
	out := make([]map[string]any, 0, len(parts))
	for _, part := range parts {
		out = append(out, map[string]any{
			"title":   part.Title,
			"slug":    part.Slug,
			"body":    rc.markup(part.Body),
			"web_url": rc.r.Site.WebURL + "/" + ed.Slug + "/" + part.Slug,
		})
	}
	d["parts"] = out
}

func renderPerson(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[personPayload](ed)
	d["honorific_prefix"] = p.HonorificPrefix
	d["honorific_suffix"] = p.HonorificSuffix
	d["affiliation"] = p.Affiliation
	d["description"] = rc.markup(p.Description)
	d["role"] = p.Role
	d["url"] = p.URL
	d["telephone"] = p.Telephone
	d["email"] = p.Email
	d["twitter"] = p.Twitter
	d["linkedin"] = p.LinkedIn
	d["github"] = p.GitHub
}

func renderTimedItem(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[timedItemPayload](ed)
	d["content"] = rc.markup(p.Content)
	d["end_date"] = p.EndDate
}

func renderArticle(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[articlePayload](ed)
	d["content"] = rc.markup(p.Content)
	d["url"] = p.URL
	d["media_enquiries_name"] = p.MediaEnquiriesName
	d["media_enquiries_email"] = p.MediaEnquiriesEmail
	d["media_enquiries_telephone"] = p.MediaEnquiriesTelephone
}

func renderFAQ(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[faqPayload](ed)
	d["content"] = rc.markup(p.Content)
}

func renderJob(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[jobPayload](ed)
	d["location"] = p.Location
	d["salary"] = p.Salary
	d["description"] = rc.markup(p.Description)
	d["closing_date"] = p.ClosingDate
}

func renderOrganization(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[organizationPayload](ed)
	d["description"] = rc.markup(p.Description)
	d["joined_at"] = p.JoinedAt
	d["tagline"] = p.Tagline
	d["involvement"] = p.Involvement
	d["want_to_meet"] = p.WantToMeet
	d["case_study"] = p.CaseStudy
	d["url"] = p.URL
	d["telephone"] = p.Telephone
	d["email"] = p.Email
	d["twitter"] = p.Twitter
	d["linkedin"] = p.LinkedIn
}

func renderCreativeWork(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[creativeWorkPayload](ed)
	d["description"] = rc.markup(p.Description)
	d["date_published"] = p.DatePublished
	if a, _, ok := rc.resolveRef(p.Artist); ok {
		d["artist"] = map[string]any{"name": a.Name, "slug": a.Slug}
	}
}

func renderCourse(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[coursePayload](ed)
	d["description"] = rc.markup(p.Description)
	d["length"] = p.Length
}

func renderCourseInstance(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[courseInstancePayload](ed)
	d["course"] = p.Course
	d["date"] = p.Date
	d["location"] = p.Location
	d["price"] = p.Price
	d["description"] = rc.markup(p.Description)
	trainers := p.Trainers
	if trainers == nil {
		trainers = []string{}
	}
	d["trainers"] = trainers
	if a, _, ok := rc.resolveRef(p.Course); ok {
		d["course_title"] = a.Name
	}
}

func renderEvent(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[eventPayload](ed)
	d["start_date"] = p.StartDate
	d["end_date"] = p.EndDate
	d["location"] = p.Location
	d["description"] = rc.markup(p.Description)
	d["booking_url"] = p.BookingURL
	d["hashtag"] = p.Hashtag
}

func renderNode(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[nodePayload](ed)
	d["level"] = p.Level
	d["beta"] = p.Beta
	d["join_date"] = p.JoinDate
	d["region"] = p.Region
	d["area"] = p.Area
	loc := p.Location
	if loc == nil {
		loc = []float64{}
	}
	d["location"] = loc
	d["description"] = rc.markup(p.Description)
	d["telephone"] = p.Telephone
	d["twitter"] = p.Twitter
	d["linkedin"] = p.LinkedIn
}

func renderVideo(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[videoPayload](ed)
	d["alternative_title"] = p.AlternativeTitle
	d["video_summary"] = p.VideoSummary
	d["video_url"] = p.VideoURL
	d["body"] = rc.markup(p.Body)
	if p.CaptionFileID != "" && rc.r.Assets != nil {
		// Asset store trouble loses the caption_file field, never the
		// whole response.
		if asset, err := rc.r.Assets.Asset(rc.ctx, p.CaptionFileID); err == nil {
			d["caption_file"] = asset
		}
	}
}

func renderSmartAnswer(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[smartAnswerPayload](ed)
	d["body"] = rc.markup(p.Body)

	nodes := p.Nodes
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Order < nodes[j].Order })
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		options := n.Options
		sort.SliceStable(options, func(i, j int) bool { return options[i].Order < options[j].Order })
		opts := make([]map[string]any, 0, len(options))
		for _, o := range options {
			opts = append(opts, map[string]any{
				"label":     o.Label,
				"slug":      slugify(o.Label),
				"next_node": o.NextNode,
			})
		}
		node := map[string]any{
			"kind":    n.Kind,
			"slug":    n.Slug,
			"title":   n.Title,
			"options": opts,
		}
		// Question text lives in the title; only outcomes carry a body.
		if n.Kind == "outcome" {
			node["body"] = rc.markup(n.Body)
		}
		out = append(out, node)
	}
	d["smart_answer_nodes"] = map[string]any{"nodes": out}
}

func renderBusinessSupport(rc *renderContext, ed domain.Edition, d map[string]any) {
	p := payload[businessSupportPayload](ed)
	d["alternative_title"] = p.AlternativeTitle
	d["body"] = rc.markup(p.Body)
	d["short_description"] = rc.markup(p.ShortDescription)
	d["min_value"] = p.MinValue
	d["max_value"] = p.MaxValue
	d["eligibility"] = rc.markup(p.Eligibility)
	d["evaluation"] = rc.markup(p.Evaluation)
	d["additional_information"] = rc.markup(p.AdditionalInformation)
	d["business_support_identifier"] = p.BusinessSupportIdentifier
	d["max_employees"] = p.MaxEmployees
	d["organiser"] = p.Organiser
	d["continuation_link"] = p.ContinuationLink
	d["will_continue_on"] = p.WillContinueOn
	d["contact_details"] = p.ContactDetails
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
