package events

import (
	"encoding/json"
	"fmt"

	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventType string

const (
	// EventTypeStart to EventTypeFinal describe a single model answer
	EventTypeStart             EventType = "start"
	EventTypeFinal             EventType = "final"
	EventTypePartialCompletion EventType = "partial"
	EventTypeError             EventType = "error"

	EventTypeRelatedPapers EventType = "related-papers"

	// Published after every mutation of the conversation
	EventTypeConversationSnapshot EventType = "conversation-snapshot"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Error_    error         `json:"error,omitempty"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// store payload if the event was deserialized from JSON (see NewEventFromJson), not further used
	payload []byte
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))

	if e.Error_ != nil {
		ev.Err(e.Error_)
	}

	ev.Object("meta", e.Metadata_)
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Error() error {
	return e.Error_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

var _ Event = &EventImpl{}

type EventPartialCompletionStart struct {
	EventImpl
}

func NewStartEvent(metadata EventMetadata) *EventPartialCompletionStart {
	return &EventPartialCompletionStart{
		EventImpl: EventImpl{
			Type_:     EventTypeStart,
			Metadata_: metadata,
		},
	}
}

var _ Event = &EventPartialCompletionStart{}

type EventFinal struct {
	EventImpl
	Text string `json:"text"`
}

func NewFinalEvent(metadata EventMetadata, text string) *EventFinal {
	return &EventFinal{
		EventImpl: EventImpl{
			Type_:     EventTypeFinal,
			Metadata_: metadata,
		},
		Text: text,
	}
}

var _ Event = &EventFinal{}

// EventError is published when a submission failed. Text is the notice that
// replaced the model turn, ErrorString the underlying cause.
type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
	Text        string `json:"text"`
}

func NewErrorEvent(metadata EventMetadata, err error, text string) *EventError {
	return &EventError{
		EventImpl: EventImpl{
			Type_:     EventTypeError,
			Metadata_: metadata,
		},
		ErrorString: err.Error(),
		Text:        text,
	}
}

var _ Event = &EventError{}

// EventPartialCompletion is the event type for textual partial completion.
type EventPartialCompletion struct {
	EventImpl
	Delta string `json:"delta"`
	// This is the complete completion string so far
	Completion string `json:"completion"`
}

func NewPartialCompletionEvent(metadata EventMetadata, delta string, completion string) *EventPartialCompletion {
	return &EventPartialCompletion{
		EventImpl: EventImpl{
			Type_:     EventTypePartialCompletion,
			Metadata_: metadata,
		},
		Delta:      delta,
		Completion: completion,
	}
}

var _ Event = &EventPartialCompletion{}

type EventRelatedPapers struct {
	EventImpl
	Text      string            `json:"text"`
	Papers    []papers.Paper    `json:"papers"`
	Citations []papers.Citation `json:"citations"`
}

func NewRelatedPapersEvent(metadata EventMetadata, text string, papers_ []papers.Paper, citations []papers.Citation) *EventRelatedPapers {
	return &EventRelatedPapers{
		EventImpl: EventImpl{
			Type_:     EventTypeRelatedPapers,
			Metadata_: metadata,
		},
		Text:      text,
		Papers:    papers_,
		Citations: citations,
	}
}

var _ Event = &EventRelatedPapers{}

// EventConversationSnapshot carries a deep copy of the whole conversation.
// Receivers own the copy.
type EventConversationSnapshot struct {
	EventImpl
	Conversation conversation.Conversation `json:"conversation"`
	Busy         bool                      `json:"busy"`
}

func NewConversationSnapshotEvent(metadata EventMetadata, c conversation.Conversation, busy bool) *EventConversationSnapshot {
	return &EventConversationSnapshot{
		EventImpl: EventImpl{
			Type_:     EventTypeConversationSnapshot,
			Metadata_: metadata,
		},
		Conversation: c,
		Busy:         busy,
	}
}

var _ Event = &EventConversationSnapshot{}

// EventMetadata contains all the information that is passed along with watermill message,
// specific to chat sessions.
type EventMetadata struct {
	ID uuid.UUID `json:"message_id" yaml:"message_id" mapstructure:"message_id"`
	// Correlation identifiers
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty" mapstructure:"session_id"`
	TurnID    string `json:"turn_id,omitempty" yaml:"turn_id,omitempty" mapstructure:"turn_id"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	Intent    string `json:"intent,omitempty" yaml:"intent,omitempty" mapstructure:"intent"`
	// Extra carries engine settings and other context values
	Extra map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty" mapstructure:"extra"`
}

// MetadataSettingsSlug is the key of the engine settings in EventMetadata.Extra
const MetadataSettingsSlug = "settings"

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("message_id", em.ID.String())
	if em.SessionID != "" {
		e.Str("session_id", em.SessionID)
	}
	if em.TurnID != "" {
		e.Str("turn_id", em.TurnID)
	}
	if em.Model != "" {
		e.Str("model", em.Model)
	}
	if em.Intent != "" {
		e.Str("intent", em.Intent)
	}
}

func NewEventFromJson(b []byte) (Event, error) {
	var e *EventImpl
	err := json.Unmarshal(b, &e)
	if err != nil {
		return nil, err
	}

	e.payload = b

	switch e.Type_ {
	case EventTypeStart:
		ret, ok := ToTypedEvent[EventPartialCompletionStart](e)
		if !ok {
			return nil, fmt.Errorf("could not cast event to EventPartialCompletionStart")
		}
		return ret, nil
	case EventTypePartialCompletion:
		ret, ok := ToTypedEvent[EventPartialCompletion](e)
		if !ok {
			return nil, fmt.Errorf("could not cast event to EventPartialCompletion")
		}
		return ret, nil
	case EventTypeFinal:
		ret, ok := ToTypedEvent[EventFinal](e)
		if !ok {
			return nil, fmt.Errorf("could not cast event to EventFinal")
		}
		return ret, nil
	case EventTypeError:
		ret, ok := ToTypedEvent[EventError](e)
		if !ok {
			return nil, fmt.Errorf("could not cast event to EventError")
		}
		return ret, nil
	case EventTypeRelatedPapers:
		ret, ok := ToTypedEvent[EventRelatedPapers](e)
		if !ok {
			return nil, fmt.Errorf("could not cast event to EventRelatedPapers")
		}
		return ret, nil
	case EventTypeConversationSnapshot:
		ret, ok := ToTypedEvent[EventConversationSnapshot](e)
		if !ok {
			return nil, fmt.Errorf("could not cast event to EventConversationSnapshot")
		}
		return ret, nil
	}

	return e, nil
}

func ToTypedEvent[T any](e Event) (*T, bool) {
	var ret *T
	err := json.Unmarshal(e.Payload(), &ret)
	if err != nil {
		return nil, false
	}

	return ret, true
}
