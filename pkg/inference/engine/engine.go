package engine

import (
	"context"
	"iter"

	"github.com/elmaestro544/scigenius/pkg/papers"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one prior turn of the conversation as sent to the model: role
// and text only.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type InlineData struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
}

// Part is one content part of the new user message. Exactly one of Text and
// InlineData is set.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

func NewTextPart(text string) Part {
	return Part{Text: text}
}

func NewInlineDataPart(data []byte, mimeType string) Part {
	return Part{InlineData: &InlineData{Data: data, MimeType: mimeType}}
}

// GroundedResponse is the complete answer of a search-augmented completion.
type GroundedResponse struct {
	Text            string
	GroundingChunks []papers.GroundingChunk
}

// Engine represents a hosted model that answers conversations.
type Engine interface {
	// StreamChat sends the history followed by a new user message built from
	// parts and yields the answer text incrementally. The sequence ends when
	// the answer is complete or after the first error; it cannot be restarted.
	StreamChat(ctx context.Context, history []Message, parts []Part) iter.Seq2[string, error]

	// GenerateGrounded runs a single, non-streaming completion of prompt with
	// web search grounding enabled.
	GenerateGrounded(ctx context.Context, prompt string) (*GroundedResponse, error)
}
