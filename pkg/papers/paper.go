// Package papers turns free-text "related papers" answers into structured records.
//
// A model asked for related literature answers with a numbered list where every
// entry carries a Title, Authors, Year, Summary and URL label. Extract recovers
// those entries on a best-effort basis: blocks that miss a label are dropped,
// nothing is validated. Citations come from the grounding metadata the model
// returns alongside a search-augmented answer and are filtered by
// FilterCitations.
package papers

import (
	"net/url"
)

// Paper is one entry of a related-papers answer. All fields are copied verbatim
// (trimmed) from the model output.
type Paper struct {
	Title   string `json:"title" yaml:"title"`
	Authors string `json:"authors" yaml:"authors"`
	Year    string `json:"year" yaml:"year"`
	Summary string `json:"summary" yaml:"summary"`
	URL     string `json:"url" yaml:"url"`
}

// Citation is a web source the model grounded its answer on.
type Citation struct {
	URI   string `json:"uri" yaml:"uri"`
	Title string `json:"title" yaml:"title"`
}

// Hostname returns the host part of the citation URI, or the raw URI if it
// does not parse.
func (c Citation) Hostname() string {
	return hostname(c.URI)
}

// Hostname returns the host part of the paper URL, or the raw URL if it does
// not parse.
func (p Paper) Hostname() string {
	return hostname(p.URL)
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

// WebChunk is the web part of a grounding chunk.
type WebChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingChunk is a provider-neutral copy of one grounding metadata entry.
// Web is nil for chunks that do not point at a web page.
type GroundingChunk struct {
	Web *WebChunk `json:"web,omitempty"`
}
