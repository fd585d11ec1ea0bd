package ui

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/elmaestro544/scigenius/pkg/events"
	"github.com/elmaestro544/scigenius/pkg/inference/session"
)

// Backend is what the chat UI drives. Calls may block on event delivery and
// must be made from a tea.Cmd, never from Update.
type Backend interface {
	Submit(text string) error
	// BindFile attaches the document at path and returns its display name.
	BindFile(path string) (string, error)
	ClearAttachment() error
	SaveToFile(path string) error
}

type SessionBackend struct {
	ctx     context.Context
	session *session.Session
}

var _ Backend = &SessionBackend{}

func NewSessionBackend(ctx context.Context, s *session.Session) *SessionBackend {
	return &SessionBackend{
		ctx:     ctx,
		session: s,
	}
}

func (b *SessionBackend) Submit(text string) error {
	_, err := b.session.Submit(b.ctx, text)
	return err
}

func (b *SessionBackend) BindFile(path string) (string, error) {
	a, err := conversation.NewAttachmentFromFile(path)
	if err != nil {
		return "", err
	}
	if err := b.session.BindAttachment(a); err != nil {
		return "", err
	}
	return a.Name, nil
}

func (b *SessionBackend) ClearAttachment() error {
	return b.session.ClearAttachment()
}

func (b *SessionBackend) SaveToFile(path string) error {
	return b.session.SaveToFile(path)
}

// SnapshotMsg carries a published conversation state into the UI.
type SnapshotMsg struct {
	Conversation conversation.Conversation
	Busy         bool
}

type Sender interface {
	Send(msg tea.Msg)
}

// SessionEventForwardFunc turns conversation snapshot events read from the
// router into SnapshotMsgs for the program. Other events are ignored.
func SessionEventForwardFunc(p Sender) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		msg.Ack()

		e, err := events.NewEventFromJson(msg.Payload)
		if err != nil {
			return err
		}

		if s, ok := e.(*events.EventConversationSnapshot); ok {
			p.Send(SnapshotMsg{
				Conversation: s.Conversation,
				Busy:         s.Busy,
			})
		}

		return nil
	}
}
