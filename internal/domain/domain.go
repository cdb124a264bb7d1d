package domain

import "fmt"

// Owning apps. Only publisher content carries an edition lifecycle; for
// everything else the artefact record itself is authoritative.
const OwningAppPublisher = "publisher"

// Artefact lifecycle states.
const (
	StateDraft    = "draft"
	StateLive     = "live"
	StateArchived = "archived"
)

// Edition publishing states. Only published editions are ever rendered;
// archived means "was public, now withdrawn".
const (
	EditionDraft     = "draft"
	EditionInReview  = "in_review"
	EditionReady     = "ready"
	EditionPublished = "published"
	EditionArchived  = "archived"
)

type Artefact struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	OwningApp   string   `json:"owning_app"`
	State       string   `json:"state" enum:"draft,live,archived"`
	Description string   `json:"description,omitempty"`
	TagIDs      []string `json:"tag_ids,omitempty"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
	UpdatedAt   string   `json:"updated_at" format:"date-time"`
}

// Edition is one versioned body of content. It belongs to an artefact by
// slug only; there is no foreign key, and the association is re-established
// at read time (see repo.FindPublishedEditionForSlug). Kind-specific fields
// live in PayloadJSON.
type Edition struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Kind        string `json:"kind"`
	State       string `json:"state" enum:"draft,in_review,ready,published,archived"`
	Title       string `json:"title"`
	PayloadJSON string `json:"payload_json,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
	UpdatedAt   string `json:"updated_at" format:"date-time"`
}

// Tag is a typed classification label. The same TagID may exist under more
// than one TagType, which is why untyped tag queries can be ambiguous.
type Tag struct {
	TagID       string `json:"tag_id"`
	TagType     string `json:"tag_type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
}

// TagTypes is the closed set of tag dimensions.
var TagTypes = []string{
	"section", "keyword", "role", "organization", "person", "article", "event", "timed_item",
}

func IsTagType(t string) bool {
	for _, tt := range TagTypes {
		if tt == t {
			return true
		}
	}
	return false
}

// Content kinds. The renderer keeps one render function per kind; an
// unknown kind there is a configuration error, not a runtime case.
const (
	KindAnswer          = "answer"
	KindGuide           = "guide"
	KindProgramme       = "programme"
	KindPerson          = "person"
	KindTimedItem       = "timed_item"
	KindArticle         = "article"
	KindCaseStudy       = "case_study"
	KindFAQ             = "faq"
	KindJob             = "job"
	KindOrganization    = "organization"
	KindCreativeWork    = "creative_work"
	KindCourse          = "course"
	KindCourseInstance  = "course_instance"
	KindEvent           = "event"
	KindNode            = "node"
	KindVideo           = "video"
	KindSmartAnswer     = "smart_answer"
	KindBusinessSupport = "business_support"
)

var Kinds = []string{
	KindAnswer, KindGuide, KindProgramme, KindPerson, KindTimedItem,
	KindArticle, KindCaseStudy, KindFAQ, KindJob, KindOrganization,
	KindCreativeWork, KindCourse, KindCourseInstance, KindEvent, KindNode,
	KindVideo, KindSmartAnswer, KindBusinessSupport,
}

func IsKind(k string) bool {
	for _, kind := range Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// NormalizeKind maps a requested type value onto a known kind, accepting
// simple plurals ("jobs" -> "job"). Returns "" when nothing matches.
func NormalizeKind(v string) string {
	if IsKind(v) {
		return v
	}
	if len(v) > 1 && v[len(v)-1] == 's' {
		if singular := v[:len(v)-1]; IsKind(singular) {
			return singular
		}
	}
	return ""
}

// SmartAnswerNode is one node of a smart-answer decision graph. The graph
// is stored whole in the edition payload, built at save time and immutable
// afterwards. Option targets are string keys into the graph's own slug
// set, never object references.
type SmartAnswerNode struct {
	Kind    string              `json:"kind" enum:"question,outcome"`
	Slug    string              `json:"slug"`
	Title   string              `json:"title"`
	Body    string              `json:"body,omitempty"`
	Order   int                 `json:"order"`
	Options []SmartAnswerOption `json:"options,omitempty"`
}

type SmartAnswerOption struct {
	Label    string `json:"label"`
	NextNode string `json:"next_node"`
	Order    int    `json:"order"`
}

// ValidateSmartAnswerGraph checks that every option points at a node slug
// present in the same graph. Cycles are permitted; outcomes are terminal by
// convention only.
func ValidateSmartAnswerGraph(nodes []SmartAnswerNode) error {
	slugs := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.Slug == "" {
			return fmt.Errorf("smart answer node missing slug")
		}
		if n.Kind != "question" && n.Kind != "outcome" {
			return fmt.Errorf("smart answer node %s has invalid kind %q", n.Slug, n.Kind)
		}
		slugs[n.Slug] = true
	}
	for _, n := range nodes {
		for _, opt := range n.Options {
			if !slugs[opt.NextNode] {
				return fmt.Errorf("smart answer option %q on node %s points at unknown node %q", opt.Label, n.Slug, opt.NextNode)
			}
		}
	}
	return nil
}
