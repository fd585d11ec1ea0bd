package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/google/uuid"
	"github.com/huandu/go-clone"
)

type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerModel Speaker = "model"
)

// Turn is a single message in a conversation, written either by the user or
// by the model.
//
// RelatedPapers and Citations are only set on model turns that answered a
// related-papers request.
type Turn struct {
	ID         uuid.UUID `json:"id"`
	Time       time.Time `json:"time"`
	LastUpdate time.Time `json:"lastUpdate"`

	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`

	RelatedPapers []papers.Paper    `json:"relatedPapers,omitempty"`
	Citations     []papers.Citation `json:"citations,omitempty"`
}

type TurnOption func(*Turn)

func WithTime(time time.Time) TurnOption {
	return func(turn *Turn) {
		turn.Time = time
	}
}

func WithID(id uuid.UUID) TurnOption {
	return func(turn *Turn) {
		turn.ID = id
	}
}

func NewTurn(speaker Speaker, text string, options ...TurnOption) *Turn {
	now := time.Now()
	ret := &Turn{
		ID:         uuid.New(),
		Time:       now,
		LastUpdate: now,
		Speaker:    speaker,
		Text:       text,
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

func NewUserTurn(text string, options ...TurnOption) *Turn {
	return NewTurn(SpeakerUser, text, options...)
}

func NewModelTurn(text string, options ...TurnOption) *Turn {
	return NewTurn(SpeakerModel, text, options...)
}

func (t *Turn) String() string {
	return t.Text
}

func (t *Turn) View() string {
	return fmt.Sprintf("[%s]: %s", t.Speaker, strings.TrimRight(t.Text, "\n"))
}

// HasRelatedPapers reports whether the turn carries a related-papers answer.
func (t *Turn) HasRelatedPapers() bool {
	return len(t.RelatedPapers) > 0
}

// Conversation is an ordered list of turns, oldest first.
type Conversation []*Turn

// Last returns the most recent turn, or nil for an empty conversation.
func (c Conversation) Last() *Turn {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// Clone returns a deep copy that shares no turn with c.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return Conversation{}
	}
	return clone.Clone(c).(Conversation)
}

func (c Conversation) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]*Turn(c))
}
