// Package conversation holds the turns of a document chat session.
//
// A Conversation is a flat, append-only list of turns. The only in-place edits
// are the ones a model answer needs while it is produced: appending streamed
// text to the pending model turn, or replacing its text in one go once a
// related-papers answer has been parsed.
//
// The Manager interface is the entry point for those operations. It is not
// safe for concurrent use; callers that share a Manager across goroutines
// (see the session package) serialize access themselves and hand out Clone()d
// snapshots to readers.
package conversation

import (
	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/google/uuid"
)

// Manager defines the interface for high-level conversation management operations.
type Manager interface {
	GetConversation() Conversation
	AppendTurns(turns ...*Turn)
	GetTurn(ID uuid.UUID) (*Turn, bool)
	AppendText(ID uuid.UUID, delta string) error
	ReplaceText(ID uuid.UUID, text string, papers []papers.Paper, citations []papers.Citation) error
	Reset()
	SaveToFile(filename string) error
}
