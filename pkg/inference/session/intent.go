package session

import (
	"fmt"
	"strings"

	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/elmaestro544/scigenius/pkg/inference/engine"
)

type IntentKind string

const (
	IntentKindAsk         IntentKind = "ask"
	IntentKindFindRelated IntentKind = "find-related"
)

// relatedPapersKeyword routes a message to the related-papers search when it
// appears anywhere in it, in any case.
const relatedPapersKeyword = "related papers"

// Intent is what a submitted message asks the session to do. It is decided
// once per submission. The only implementations are *AskIntent and
// *FindRelatedIntent.
type Intent interface {
	Kind() IntentKind
	isIntent()
}

// AskIntent is a normal question, answered by streaming over the whole
// conversation history.
type AskIntent struct {
	Text string
	// History is the conversation before this message, speaker and text only.
	History []engine.Message
	// Attachment is sent inline before Text, nil if no document is bound.
	Attachment *conversation.Attachment
}

func (*AskIntent) Kind() IntentKind { return IntentKindAsk }
func (*AskIntent) isIntent()        {}

// FindRelatedIntent asks for related papers about Topic through a
// search-grounded completion.
type FindRelatedIntent struct {
	Topic string
}

func (*FindRelatedIntent) Kind() IntentKind { return IntentKindFindRelated }
func (*FindRelatedIntent) isIntent()        {}

// Classify decides the intent of a trimmed message.
func Classify(text string, history conversation.Conversation, attachment *conversation.Attachment) Intent {
	if strings.Contains(strings.ToLower(text), relatedPapersKeyword) {
		return &FindRelatedIntent{Topic: TopicFor(attachment)}
	}
	return &AskIntent{
		Text:       text,
		History:    historyFromConversation(history),
		Attachment: attachment,
	}
}

// TopicFor names the subject of a related-papers search. Without an
// attachment the topic stays vague; it is not inferred from the conversation.
func TopicFor(attachment *conversation.Attachment) string {
	if attachment == nil {
		return "the current conversation topic"
	}
	return fmt.Sprintf(`the topic of the uploaded document "%s"`, attachment.Name)
}

func historyFromConversation(c conversation.Conversation) []engine.Message {
	ret := make([]engine.Message, 0, len(c))
	for _, t := range c {
		role := engine.RoleUser
		if t.Speaker == conversation.SpeakerModel {
			role = engine.RoleModel
		}
		ret = append(ret, engine.Message{Role: role, Text: t.Text})
	}
	return ret
}
