package conversation

import (
	"time"

	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrTurnNotFound = errors.New("turn not found")

type ManagerImpl struct {
	ConversationID uuid.UUID
	turns          Conversation
	index          map[uuid.UUID]*Turn
	startTime      time.Time
}

var _ Manager = (*ManagerImpl)(nil)

type ManagerOption func(*ManagerImpl)

func WithTurns(turns ...*Turn) ManagerOption {
	return func(m *ManagerImpl) {
		m.AppendTurns(turns...)
	}
}

func WithManagerConversationID(conversationID uuid.UUID) ManagerOption {
	return func(m *ManagerImpl) {
		m.ConversationID = conversationID
	}
}

func NewManager(options ...ManagerOption) *ManagerImpl {
	ret := &ManagerImpl{
		ConversationID: uuid.Nil,
		turns:          Conversation{},
		index:          map[uuid.UUID]*Turn{},
		startTime:      time.Now(),
	}
	for _, option := range options {
		option(ret)
	}

	if ret.ConversationID == uuid.Nil {
		ret.ConversationID = uuid.New()
	}

	return ret
}

// GetConversation returns the live list of turns. Callers that hand it to
// another goroutine must Clone it first.
func (c *ManagerImpl) GetConversation() Conversation {
	return c.turns
}

func (c *ManagerImpl) GetTurn(ID uuid.UUID) (*Turn, bool) {
	t, ok := c.index[ID]
	return t, ok
}

func (c *ManagerImpl) AppendTurns(turns ...*Turn) {
	for _, t := range turns {
		if t == nil {
			continue
		}
		if _, exists := c.index[t.ID]; exists {
			log.Warn().
				Str("conversation_id", c.ConversationID.String()).
				Str("turn_id", t.ID.String()).
				Msg("turn already in conversation, skipping")
			continue
		}
		c.turns = append(c.turns, t)
		c.index[t.ID] = t

		log.Trace().
			Str("conversation_id", c.ConversationID.String()).
			Str("turn_id", t.ID.String()).
			Str("speaker", string(t.Speaker)).
			Int("turn_count", len(c.turns)).
			Msg("appended turn")
	}
}

// AppendText appends a streamed delta to the text of the given turn.
func (c *ManagerImpl) AppendText(ID uuid.UUID, delta string) error {
	t, ok := c.index[ID]
	if !ok {
		return errors.Wrapf(ErrTurnNotFound, "turn %s", ID)
	}
	t.Text += delta
	t.LastUpdate = time.Now()
	return nil
}

// ReplaceText sets the text of the given turn in one step and attaches the
// related papers and citations, if any.
func (c *ManagerImpl) ReplaceText(ID uuid.UUID, text string, papers_ []papers.Paper, citations []papers.Citation) error {
	t, ok := c.index[ID]
	if !ok {
		return errors.Wrapf(ErrTurnNotFound, "turn %s", ID)
	}
	t.Text = text
	t.RelatedPapers = papers_
	t.Citations = citations
	t.LastUpdate = time.Now()
	return nil
}

// Reset drops all turns and starts a new conversation ID.
func (c *ManagerImpl) Reset() {
	log.Debug().
		Str("conversation_id", c.ConversationID.String()).
		Int("turn_count", len(c.turns)).
		Msg("resetting conversation")
	c.turns = Conversation{}
	c.index = map[uuid.UUID]*Turn{}
	c.ConversationID = uuid.New()
	c.startTime = time.Now()
}
