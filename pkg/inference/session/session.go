package session

import (
	"context"
	"strings"
	"sync"

	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/elmaestro544/scigenius/pkg/events"
	"github.com/elmaestro544/scigenius/pkg/i18n"
	"github.com/elmaestro544/scigenius/pkg/inference/engine"
	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNil   = errors.New("session is nil")
	ErrEngineNil    = errors.New("session engine is nil")
	ErrSessionBusy  = errors.New("session already has an active submission")
	ErrEmptyMessage = errors.New("message is empty")
)

// Session is a chat over at most one attached document.
//
// It owns:
// - a stable SessionID
// - the conversation (through a conversation.Manager)
// - the bound attachment
// - the invariant that only one submission is in flight at a time
//
// Observers never see the live conversation. Every mutation is published to
// the event sinks as a deep-copied snapshot.
type Session struct {
	SessionID string

	engine     engine.Engine
	translator *i18n.Translator
	sinks      []events.EventSink
	model      string
	extra      map[string]interface{}

	mu         sync.Mutex
	manager    conversation.Manager
	attachment *conversation.Attachment
	active     *ExecutionHandle
}

type Option func(*Session) error

func WithEventSinks(sinks ...events.EventSink) Option {
	return func(s *Session) error {
		s.sinks = append(s.sinks, sinks...)
		return nil
	}
}

func WithTranslator(t *i18n.Translator) Option {
	return func(s *Session) error {
		if t == nil {
			return errors.New("translator is nil")
		}
		s.translator = t
		return nil
	}
}

func WithManager(m conversation.Manager) Option {
	return func(s *Session) error {
		if m == nil {
			return errors.New("manager is nil")
		}
		s.manager = m
		return nil
	}
}

// WithModel records the model name in event metadata.
func WithModel(model string) Option {
	return func(s *Session) error {
		s.model = model
		return nil
	}
}

// WithMetadata adds values to the Extra map of every published event.
func WithMetadata(key string, value interface{}) Option {
	return func(s *Session) error {
		if s.extra == nil {
			s.extra = map[string]interface{}{}
		}
		s.extra[key] = value
		return nil
	}
}

func WithAttachment(a *conversation.Attachment) Option {
	return func(s *Session) error {
		s.attachment = a
		return nil
	}
}

// NewSession constructs a Session with a generated SessionID, an empty
// conversation and English notices unless configured otherwise.
func NewSession(e engine.Engine, options ...Option) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNil
	}
	ret := &Session{
		SessionID: uuid.NewString(),
		engine:    e,
	}
	for _, o := range options {
		if err := o(ret); err != nil {
			return nil, err
		}
	}
	if ret.manager == nil {
		ret.manager = conversation.NewManager()
	}
	if ret.translator == nil {
		t, err := i18n.NewTranslator(i18n.DefaultLanguage)
		if err != nil {
			return nil, err
		}
		ret.translator = t
	}
	return ret, nil
}

// IsBusy reports whether a submission is in flight.
func (s *Session) IsBusy() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isBusy()
}

func (s *Session) isBusy() bool {
	return s.active != nil && s.active.IsRunning()
}

// Conversation returns a deep copy of the current conversation.
func (s *Session) Conversation() conversation.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.GetConversation().Clone()
}

func (s *Session) Attachment() *conversation.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachment
}

// BindAttachment replaces the bound document and clears the conversation.
func (s *Session) BindAttachment(a *conversation.Attachment) error {
	if a == nil {
		return errors.New("attachment is nil")
	}
	return s.resetWithAttachment(a)
}

// ClearAttachment unbinds the document and clears the conversation.
func (s *Session) ClearAttachment() error {
	return s.resetWithAttachment(nil)
}

func (s *Session) resetWithAttachment(a *conversation.Attachment) error {
	if s == nil {
		return ErrSessionNil
	}
	s.mu.Lock()
	if s.isBusy() {
		s.mu.Unlock()
		return ErrSessionBusy
	}
	s.attachment = a
	s.manager.Reset()
	snapshot := s.manager.GetConversation().Clone()
	s.mu.Unlock()

	name := ""
	if a != nil {
		name = a.Name
	}
	log.Debug().Str("session_id", s.SessionID).Str("attachment", name).Msg("Attachment changed, conversation cleared")

	s.publish(context.Background(), events.NewConversationSnapshotEvent(s.metadata(uuid.Nil, nil), snapshot, false))
	return nil
}

// SaveToFile writes the conversation transcript as JSON.
func (s *Session) SaveToFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.SaveToFile(path)
}

// Submit appends the user message and an empty model turn, then answers it
// in the background. A message that is empty after trimming is rejected with
// ErrEmptyMessage; a submission while another one is in flight is rejected
// with ErrSessionBusy. Neither touches the conversation.
//
// Failures during the answer never reach the caller: the model turn text is
// replaced by the localized error notice instead.
func (s *Session) Submit(ctx context.Context, raw string) (*ExecutionHandle, error) {
	if s == nil {
		return nil, ErrSessionNil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.isBusy() {
		s.mu.Unlock()
		return nil, ErrSessionBusy
	}
	intent := Classify(text, s.manager.GetConversation(), s.attachment)
	user := conversation.NewUserTurn(text)
	placeholder := conversation.NewModelTurn("")
	s.manager.AppendTurns(user, placeholder)
	handle := newExecutionHandle(s.SessionID, placeholder.ID, intent)
	s.active = handle
	snapshot := s.manager.GetConversation().Clone()
	s.mu.Unlock()

	md := s.metadata(placeholder.ID, intent)
	log.Debug().
		Str("session_id", s.SessionID).
		Str("turn_id", placeholder.ID.String()).
		Str("intent", string(intent.Kind())).
		Msg("Submission started")

	s.publish(ctx, events.NewConversationSnapshotEvent(md, snapshot, true))
	s.publish(ctx, events.NewStartEvent(md))

	go func() {
		var cause error
		defer func() {
			s.mu.Lock()
			s.active = nil
			var out *conversation.Turn
			if t, ok := s.manager.GetTurn(placeholder.ID); ok {
				out = conversation.Conversation{t}.Clone()[0]
			}
			snapshot := s.manager.GetConversation().Clone()
			s.mu.Unlock()

			s.publish(ctx, events.NewConversationSnapshotEvent(md, snapshot, false))
			handle.setResult(out, cause)
		}()

		switch i := intent.(type) {
		case *AskIntent:
			cause = s.runAsk(ctx, md, placeholder.ID, i)
		case *FindRelatedIntent:
			cause = s.runFindRelated(ctx, md, placeholder.ID, i)
		default:
			cause = errors.Errorf("unknown intent %T", intent)
		}

		if cause != nil {
			s.fail(ctx, md, placeholder.ID, cause)
		}
	}()

	return handle, nil
}

// SubmitAndWait submits raw and blocks until the answer is complete.
func (s *Session) SubmitAndWait(ctx context.Context, raw string) (*conversation.Turn, error) {
	h, err := s.Submit(ctx, raw)
	if err != nil {
		return nil, err
	}
	return h.Wait()
}

func (s *Session) runAsk(ctx context.Context, md events.EventMetadata, turnID uuid.UUID, intent *AskIntent) error {
	parts := make([]engine.Part, 0, 2)
	if intent.Attachment != nil {
		data, err := intent.Attachment.Read(ctx)
		if err != nil {
			return errors.Wrapf(err, "could not read attachment %s", intent.Attachment.Name)
		}
		parts = append(parts, engine.NewInlineDataPart(data, intent.Attachment.MimeType))
	}
	parts = append(parts, engine.NewTextPart(intent.Text))

	completion := ""
	for delta, err := range s.engine.StreamChat(ctx, intent.History, parts) {
		if err != nil {
			return errors.Wrap(err, "stream failed")
		}
		completion += delta

		s.mu.Lock()
		appendErr := s.manager.AppendText(turnID, delta)
		snapshot := s.manager.GetConversation().Clone()
		s.mu.Unlock()
		if appendErr != nil {
			return appendErr
		}

		s.publish(ctx, events.NewPartialCompletionEvent(md, delta, completion))
		s.publish(ctx, events.NewConversationSnapshotEvent(md, snapshot, true))
	}

	s.publish(ctx, events.NewFinalEvent(md, completion))
	log.Debug().Str("turn_id", turnID.String()).Int("text_len", len(completion)).Msg("Answer streamed")
	return nil
}

func (s *Session) runFindRelated(ctx context.Context, md events.EventMetadata, turnID uuid.UUID, intent *FindRelatedIntent) error {
	prompt, err := papers.RelatedPapersPrompt(intent.Topic)
	if err != nil {
		return err
	}

	resp, err := s.engine.GenerateGrounded(ctx, prompt)
	if err != nil {
		return errors.Wrap(err, "grounded generation failed")
	}
	if resp == nil {
		return errors.New("empty grounded response")
	}

	found := papers.Extract(resp.Text)
	var citations []papers.Citation
	text := s.translator.T(i18n.KeyNoRelatedPapers)
	if len(found) > 0 {
		text = s.translator.T(i18n.KeyRelatedPapers)
		citations = papers.FilterCitations(resp.GroundingChunks)
	} else {
		found = nil
	}

	s.mu.Lock()
	err = s.manager.ReplaceText(turnID, text, found, citations)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	log.Debug().
		Str("turn_id", turnID.String()).
		Int("papers", len(found)).
		Int("citations", len(citations)).
		Msg("Related papers extracted")

	s.publish(ctx, events.NewRelatedPapersEvent(md, text, found, citations))
	s.publish(ctx, events.NewFinalEvent(md, text))
	return nil
}

// fail replaces the model turn text with the error notice.
func (s *Session) fail(ctx context.Context, md events.EventMetadata, turnID uuid.UUID, cause error) {
	log.Error().Err(cause).
		Str("session_id", s.SessionID).
		Str("turn_id", turnID.String()).
		Msg("Submission failed")

	notice := s.translator.T(i18n.KeyErrorNotice)
	s.mu.Lock()
	err := s.manager.ReplaceText(turnID, notice, nil, nil)
	s.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("turn_id", turnID.String()).Msg("Could not set error notice")
	}

	s.publish(ctx, events.NewErrorEvent(md, cause, notice))
}

func (s *Session) metadata(turnID uuid.UUID, intent Intent) events.EventMetadata {
	md := events.EventMetadata{
		ID:        turnID,
		SessionID: s.SessionID,
		Model:     s.model,
		Extra:     s.extra,
	}
	if turnID != uuid.Nil {
		md.TurnID = turnID.String()
	}
	if intent != nil {
		md.Intent = string(intent.Kind())
	}
	return md
}

// publish sends e to the session sinks and to the sinks carried by ctx.
func (s *Session) publish(ctx context.Context, e events.Event) {
	for _, sink := range s.sinks {
		if err := sink.PublishEvent(e); err != nil {
			log.Warn().Err(err).Str("event_type", string(e.Type())).Msg("Failed to publish event to sink")
		}
	}
	events.PublishEventToContext(ctx, e)
}
