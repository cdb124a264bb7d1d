package render

import (
	"encoding/json"

	"contentapi/internal/domain"
)

// The per-kind payload shapes stored in an edition's payload_json. Each
// render function unmarshals only the shape it owns; unknown or missing
// fields degrade to their zero value rather than failing the render.

type answerPayload struct {
	AlternativeTitle string `json:"alternative_title"`
	Body             string `json:"body"`
	NeedExtendedFont bool   `json:"need_extended_font"`
}

type guidePart struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Body  string `json:"body"`
	Order int    `json:"order"`
}

type guidePayload struct {
	AlternativeTitle string      `json:"alternative_title"`
	Parts            []guidePart `json:"parts"`
}

type personPayload struct {
	HonorificPrefix string `json:"honorific_prefix"`
	HonorificSuffix string `json:"honorific_suffix"`
	Affiliation     string `json:"affiliation"`
	Description     string `json:"description"`
	Role            string `json:"role"`
	URL             string `json:"url"`
	Telephone       string `json:"telephone"`
	Email           string `json:"email"`
	Twitter         string `json:"twitter"`
	LinkedIn        string `json:"linkedin"`
	GitHub          string `json:"github"`
}

type timedItemPayload struct {
	Content string `json:"content"`
	EndDate string `json:"end_date"`
}

type articlePayload struct {
	Content                 string `json:"content"`
	URL                     string `json:"url"`
	MediaEnquiriesName      string `json:"media_enquiries_name"`
	MediaEnquiriesEmail     string `json:"media_enquiries_email"`
	MediaEnquiriesTelephone string `json:"media_enquiries_telephone"`
}

type faqPayload struct {
	Content string `json:"content"`
}

type jobPayload struct {
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	ClosingDate string `json:"closing_date"`
}

type organizationPayload struct {
	Description string `json:"description"`
	JoinedAt    string `json:"joined_at"`
	Tagline     string `json:"tagline"`
	Involvement string `json:"involvement"`
	WantToMeet  string `json:"want_to_meet"`
	CaseStudy   string `json:"case_study"`
	URL         string `json:"url"`
	Telephone   string `json:"telephone"`
	Email       string `json:"email"`
	Twitter     string `json:"twitter"`
	LinkedIn    string `json:"linkedin"`
}

type creativeWorkPayload struct {
	Description   string `json:"description"`
	DatePublished string `json:"date_published"`
	Artist        string `json:"artist"`
}

type coursePayload struct {
	Description string `json:"description"`
	Length      string `json:"length"`
}

type courseInstancePayload struct {
	Course      string   `json:"course"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Trainers    []string `json:"trainers"`
}

type eventPayload struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Location    string `json:"location"`
	Description string `json:"description"`
	BookingURL  string `json:"booking_url"`
	Hashtag     string `json:"hashtag"`
}

type nodePayload struct {
	Level       string    `json:"level"`
	Beta        bool      `json:"beta"`
	JoinDate    string    `json:"join_date"`
	Region      string    `json:"region"`
	Area        string    `json:"area"`
	Location    []float64 `json:"location"`
	Description string    `json:"description"`
	Telephone   string    `json:"telephone"`
	Twitter     string    `json:"twitter"`
	LinkedIn    string    `json:"linkedin"`
}

type videoPayload struct {
	AlternativeTitle string `json:"alternative_title"`
	VideoSummary     string `json:"video_summary"`
	VideoURL         string `json:"video_url"`
	Body             string `json:"body"`
	CaptionFileID    string `json:"caption_file_id"`
}

type smartAnswerPayload struct {
	Body  string                   `json:"body"`
	Nodes []domain.SmartAnswerNode `json:"nodes"`
}

type businessSupportPayload struct {
	AlternativeTitle          string `json:"alternative_title"`
	Body                      string `json:"body"`
	ShortDescription          string `json:"short_description"`
	MinValue                  *int   `json:"min_value"`
	MaxValue                  *int   `json:"max_value"`
	Eligibility               string `json:"eligibility"`
	Evaluation                string `json:"evaluation"`
	AdditionalInformation     string `json:"additional_information"`
	BusinessSupportIdentifier string `json:"business_support_identifier"`
	MaxEmployees              *int   `json:"max_employees"`
	Organiser                 string `json:"organiser"`
	ContinuationLink          string `json:"continuation_link"`
	WillContinueOn            string `json:"will_continue_on"`
	ContactDetails            string `json:"contact_details"`
}

// listItemPayload covers the fields shared widely enough to feed list and
// search enrichment regardless of kind.
type listItemPayload struct {
	Body    string `json:"body"`
	Content string `json:"content"`
}

func payload[T any](ed domain.Edition) T {
	var p T
	if ed.PayloadJSON != "" {
		_ = json.Unmarshal([]byte(ed.PayloadJSON), &p)
	}
	return p
}
