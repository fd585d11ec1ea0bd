package gemini

import (
	"context"
	"io"
	"iter"
	"net/http"

	"github.com/elmaestro544/scigenius/pkg/inference/engine"
	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/elmaestro544/scigenius/pkg/steps/ai/settings"
	ai_types "github.com/elmaestro544/scigenius/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	genai "google.golang.org/genai"
)

var _ engine.Engine = &GeminiEngine{}

// GeminiEngine implements engine.Engine on top of the Gemini API.
type GeminiEngine struct {
	settings *settings.StepSettings
	client   *genai.Client
	model    string
}

// NewGeminiEngine validates settings and creates the API client. It fails with
// settings.ErrMissingAPIKey when no key is configured.
func NewGeminiEngine(ctx context.Context, s *settings.StepSettings) (*GeminiEngine, error) {
	if s == nil {
		return nil, errors.New("no settings provided")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	client, err := makeClient(ctx, s)
	if err != nil {
		return nil, errors.Wrap(err, "could not create gemini client")
	}
	return &GeminiEngine{
		settings: s,
		client:   client,
		model:    *s.Chat.Engine,
	}, nil
}

func (e *GeminiEngine) Model() string {
	return e.model
}

func makeClient(ctx context.Context, s *settings.StepSettings) (*genai.Client, error) {
	httpOptions := genai.HTTPOptions{
		BaseURL: s.API.BaseURL(ai_types.ApiTypeGemini),
	}
	if s.Client != nil && s.Client.UserAgent != nil {
		httpOptions.Headers = http.Header{"User-Agent": []string{*s.Client.UserAgent}}
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      s.API.APIKey(ai_types.ApiTypeGemini),
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
}

func roleToGeminiRole(r engine.Role) genai.Role {
	if r == engine.RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func partToGeminiPart(p engine.Part) *genai.Part {
	if p.InlineData != nil {
		return genai.NewPartFromBytes(p.InlineData.Data, p.InlineData.MimeType)
	}
	return genai.NewPartFromText(p.Text)
}

// makeContents renders prior turns as single-text-part contents and appends
// the new user message built from parts, in order.
func makeContents(history []engine.Message, parts []engine.Part) []*genai.Content {
	res := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		res = append(res, genai.NewContentFromParts(
			[]*genai.Part{genai.NewPartFromText(m.Text)},
			roleToGeminiRole(m.Role),
		))
	}
	userParts := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		userParts = append(userParts, partToGeminiPart(p))
	}
	return append(res, genai.NewContentFromParts(userParts, genai.RoleUser))
}

func (e *GeminiEngine) StreamChat(ctx context.Context, history []engine.Message, parts []engine.Part) iter.Seq2[string, error] {
	contents := makeContents(history, parts)

	return func(yield func(string, error) bool) {
		log.Debug().
			Str("model", e.model).
			Int("history", len(history)).
			Int("parts", len(parts)).
			Msg("Gemini stream started")

		chunkCount := 0
		for chunk, err := range e.client.Models.GenerateContentStream(ctx, e.model, contents, nil) {
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				log.Error().Err(err).Int("chunks_received", chunkCount).Msg("Gemini stream receive failed")
				yield("", err)
				return
			}
			chunkCount++
			delta := chunk.Text()
			if delta == "" {
				continue
			}
			if !yield(delta, nil) {
				return
			}
		}
		log.Debug().Int("chunks_received", chunkCount).Msg("Gemini stream completed")
	}
}

func (e *GeminiEngine) GenerateGrounded(ctx context.Context, prompt string) (*engine.GroundedResponse, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		log.Error().Err(err).Str("model", e.model).Msg("Gemini grounded generation failed")
		return nil, err
	}

	ret := &engine.GroundedResponse{
		Text:            resp.Text(),
		GroundingChunks: extractGroundingChunks(resp),
	}
	log.Debug().
		Int("text_len", len(ret.Text)).
		Int("grounding_chunks", len(ret.GroundingChunks)).
		Msg("Gemini grounded generation completed")
	return ret, nil
}

// extractGroundingChunks reads the grounding chunks of the first candidate.
// Chunks are returned as-is; filtering is left to the caller.
func extractGroundingChunks(resp *genai.GenerateContentResponse) []papers.GroundingChunk {
	ret := []papers.GroundingChunk{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ret
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return ret
	}
	for _, c := range gm.GroundingChunks {
		if c == nil {
			continue
		}
		chunk := papers.GroundingChunk{}
		if c.Web != nil {
			chunk.Web = &papers.WebChunk{URI: c.Web.URI, Title: c.Web.Title}
		}
		ret = append(ret, chunk)
	}
	return ret
}
