package server

import (
	"contentapi/internal/render"
	"contentapi/internal/search"
)

// ResponseInfo heads every response body, success and failure alike.
type ResponseInfo struct {
	Status        string `json:"status" example:"ok"`
	StatusMessage string `json:"status_message,omitempty"`
}

func okInfo() ResponseInfo {
	return ResponseInfo{Status: "ok"}
}

type ArtefactResponse struct {
	Info ResponseInfo `json:"_response_info"`
	render.Envelope
}

type ArtefactListResponse struct {
	Info    ResponseInfo      `json:"_response_info"`
	Total   int               `json:"total"`
	Results []render.Envelope `json:"results"`
}

type TagResponse struct {
	Info ResponseInfo `json:"_response_info"`
	render.TagEnvelope
}

type TagListResponse struct {
	Info    ResponseInfo         `json:"_response_info"`
	Total   int                  `json:"total"`
	Results []render.TagEnvelope `json:"results"`
}

type SearchResponse struct {
	Info    ResponseInfo    `json:"_response_info"`
	Total   int             `json:"total"`
	Results []search.Result `json:"results"`
}
