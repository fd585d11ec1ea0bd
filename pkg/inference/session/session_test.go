package session

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/elmaestro544/scigenius/pkg/events"
	"github.com/elmaestro544/scigenius/pkg/i18n"
	"github.com/elmaestro544/scigenius/pkg/inference/engine"
	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	errorNotice     = "Sorry, I encountered an error. Please try again."
	noPapersNotice  = "I couldn't find any related papers at the moment."
	relatedPapersEN = "Related Papers"
)

type fakeEngine struct {
	stream   func(ctx context.Context) iter.Seq2[string, error]
	grounded func(ctx context.Context, prompt string) (*engine.GroundedResponse, error)

	mu        sync.Mutex
	histories [][]engine.Message
	parts     [][]engine.Part
	prompts   []string
}

func (f *fakeEngine) StreamChat(ctx context.Context, history []engine.Message, parts []engine.Part) iter.Seq2[string, error] {
	f.mu.Lock()
	f.histories = append(f.histories, history)
	f.parts = append(f.parts, parts)
	f.mu.Unlock()
	return f.stream(ctx)
}

func (f *fakeEngine) GenerateGrounded(ctx context.Context, prompt string) (*engine.GroundedResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.grounded(ctx, prompt)
}

func streamOf(deltas ...string) func(ctx context.Context) iter.Seq2[string, error] {
	return func(ctx context.Context) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			for _, d := range deltas {
				if !yield(d, nil) {
					return
				}
			}
		}
	}
}

func streamFailingAfter(err error, deltas ...string) func(ctx context.Context) iter.Seq2[string, error] {
	return func(ctx context.Context) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			for _, d := range deltas {
				if !yield(d, nil) {
					return
				}
			}
			yield("", err)
		}
	}
}

func groundedOf(text string, chunks ...papers.GroundingChunk) func(ctx context.Context, prompt string) (*engine.GroundedResponse, error) {
	return func(ctx context.Context, prompt string) (*engine.GroundedResponse, error) {
		return &engine.GroundedResponse{Text: text, GroundingChunks: chunks}, nil
	}
}

func newTestSession(t *testing.T, e engine.Engine, options ...Option) (*Session, *events.ChannelSink) {
	t.Helper()
	sink := events.NewChannelSink(context.Background(), 256)
	s, err := NewSession(e, append([]Option{WithEventSinks(sink)}, options...)...)
	require.NoError(t, err)
	return s, sink
}

func drain(sink *events.ChannelSink) []events.Event {
	var ret []events.Event
	for {
		select {
		case e := <-sink.Events():
			ret = append(ret, e)
		default:
			return ret
		}
	}
}

func snapshots(evts []events.Event) []*events.EventConversationSnapshot {
	var ret []*events.EventConversationSnapshot
	for _, e := range evts {
		if s, ok := e.(*events.EventConversationSnapshot); ok {
			ret = append(ret, s)
		}
	}
	return ret
}

const twoPapers = `Here are some papers:
1. Title: Attention Is All You Need
Authors: Vaswani et al.
Year: 2017
Summary: Introduces the Transformer.
URL: https://arxiv.org/abs/1706.03762
2. Title: BERT
Authors: Devlin, Chang, Lee and Toutanova
Year: 2019
Summary: Bidirectional pretraining.
URL: https://arxiv.org/abs/1810.04805`

func TestSubmitAskStreamsMonotonically(t *testing.T) {
	fe := &fakeEngine{stream: streamOf("Hel", "lo", " world")}
	s, sink := newTestSession(t, fe)

	out, err := s.SubmitAndWait(context.Background(), "  What is this paper about?  ")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Hello world", out.Text)
	assert.False(t, s.IsBusy())

	c := s.Conversation()
	require.Len(t, c, 2)
	assert.Equal(t, conversation.SpeakerUser, c[0].Speaker)
	assert.Equal(t, "What is this paper about?", c[0].Text)
	assert.Equal(t, conversation.SpeakerModel, c[1].Speaker)
	assert.Equal(t, "Hello world", c[1].Text)

	snaps := snapshots(drain(sink))
	require.NotEmpty(t, snaps)
	prev := ""
	for _, snap := range snaps {
		require.Len(t, snap.Conversation, 2)
		last := snap.Conversation.Last()
		assert.Equal(t, conversation.SpeakerModel, last.Speaker)
		assert.True(t, strings.HasPrefix(last.Text, prev), "%q does not extend %q", last.Text, prev)
		prev = last.Text
	}
	assert.Equal(t, "Hello world", prev)
	assert.True(t, snaps[0].Busy)
	assert.False(t, snaps[len(snaps)-1].Busy)
}

func TestSnapshotsAreDeepCopies(t *testing.T) {
	fe := &fakeEngine{stream: streamOf("a", "b")}
	s, sink := newTestSession(t, fe)

	_, err := s.SubmitAndWait(context.Background(), "question")
	require.NoError(t, err)

	snaps := snapshots(drain(sink))
	require.GreaterOrEqual(t, len(snaps), 2)
	assert.Equal(t, "", snaps[0].Conversation.Last().Text)

	c := s.Conversation()
	c[1].Text = "mutated"
	assert.Equal(t, "ab", s.Conversation()[1].Text)
}

func TestSubmitRelatedPapers(t *testing.T) {
	fe := &fakeEngine{grounded: groundedOf(twoPapers,
		papers.GroundingChunk{Web: &papers.WebChunk{URI: "https://a.example", Title: "A"}},
		papers.GroundingChunk{Web: &papers.WebChunk{URI: "", Title: "B"}},
		papers.GroundingChunk{Web: &papers.WebChunk{URI: "https://c.example", Title: ""}},
		papers.GroundingChunk{},
	)}
	s, sink := newTestSession(t, fe)

	out, err := s.SubmitAndWait(context.Background(), "Find RELATED Papers please")
	require.NoError(t, err)
	assert.Equal(t, relatedPapersEN, out.Text)
	require.Len(t, out.RelatedPapers, 2)
	assert.Equal(t, "Attention Is All You Need", out.RelatedPapers[0].Title)
	assert.Equal(t, "BERT", out.RelatedPapers[1].Title)
	assert.Equal(t, []papers.Citation{{URI: "https://a.example", Title: "A"}}, out.Citations)

	require.Len(t, fe.prompts, 1)
	assert.Contains(t, fe.prompts[0], `related to "the current conversation topic"`)
	assert.Empty(t, fe.histories, "streaming endpoint must not be used")

	// text is set exactly once: placeholder empty, then the label
	seen := map[string]bool{}
	for _, snap := range snapshots(drain(sink)) {
		seen[snap.Conversation.Last().Text] = true
	}
	assert.Equal(t, map[string]bool{"": true, relatedPapersEN: true}, seen)
}

func TestSubmitRelatedPapersNoneFound(t *testing.T) {
	fe := &fakeEngine{grounded: groundedOf("Sorry, nothing matched.",
		papers.GroundingChunk{Web: &papers.WebChunk{URI: "https://a.example", Title: "A"}},
	)}
	s, _ := newTestSession(t, fe)

	out, err := s.SubmitAndWait(context.Background(), "related papers")
	require.NoError(t, err)
	assert.Equal(t, noPapersNotice, out.Text)
	assert.Empty(t, out.RelatedPapers)
	assert.Empty(t, out.Citations)
}

func TestSubmitRelatedPapersUsesAttachmentName(t *testing.T) {
	fe := &fakeEngine{grounded: groundedOf("")}
	s, _ := newTestSession(t, fe)
	require.NoError(t, s.BindAttachment(conversation.NewAttachmentFromBytes("paper.pdf", "application/pdf", []byte("%PDF"))))

	_, err := s.SubmitAndWait(context.Background(), "show me related papers")
	require.NoError(t, err)
	require.Len(t, fe.prompts, 1)
	assert.Contains(t, fe.prompts[0], `the topic of the uploaded document "paper.pdf"`)
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fe := &fakeEngine{stream: func(ctx context.Context) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			close(started)
			<-release
			yield("done", nil)
		}
	}}
	s, _ := newTestSession(t, fe)

	h, err := s.Submit(context.Background(), "first")
	require.NoError(t, err)
	<-started
	assert.True(t, s.IsBusy())
	assert.True(t, h.IsRunning())

	_, err = s.Submit(context.Background(), "second")
	require.ErrorIs(t, err, ErrSessionBusy)
	require.ErrorIs(t, s.BindAttachment(conversation.NewAttachmentFromBytes("a.txt", "", []byte("x"))), ErrSessionBusy)
	require.ErrorIs(t, s.ClearAttachment(), ErrSessionBusy)

	c := s.Conversation()
	require.Len(t, c, 2)
	assert.Equal(t, "first", c[0].Text)
	assert.Equal(t, conversation.SpeakerModel, c.Last().Speaker)

	close(release)
	out, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", out.Text)
	assert.False(t, s.IsBusy())
	assert.Len(t, s.Conversation(), 2)
}

func TestSubmitEmptyMessage(t *testing.T) {
	s, sink := newTestSession(t, &fakeEngine{})
	_, err := s.Submit(context.Background(), " \n\t ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, s.Conversation())
	assert.Empty(t, drain(sink))
}

func TestSubmitStreamErrorShowsNotice(t *testing.T) {
	fe := &fakeEngine{stream: streamFailingAfter(errors.New("connection reset"), "partial ")}
	s, sink := newTestSession(t, fe)

	h, err := s.Submit(context.Background(), "hello")
	require.NoError(t, err)
	out, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, errorNotice, out.Text)
	assert.Error(t, h.Cause())
	assert.False(t, s.IsBusy())
	assert.Equal(t, errorNotice, s.Conversation().Last().Text)

	var errEvents []*events.EventError
	for _, e := range drain(sink) {
		if ev, ok := e.(*events.EventError); ok {
			errEvents = append(errEvents, ev)
		}
	}
	require.Len(t, errEvents, 1)
	assert.Equal(t, errorNotice, errEvents[0].Text)
	assert.Contains(t, errEvents[0].ErrorString, "connection reset")

	// the session recovers
	fe.stream = streamOf("ok")
	out, err = s.SubmitAndWait(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Len(t, s.Conversation(), 4)
}

func TestSubmitGroundedErrorShowsNotice(t *testing.T) {
	fe := &fakeEngine{grounded: func(ctx context.Context, prompt string) (*engine.GroundedResponse, error) {
		return nil, errors.New("quota exceeded")
	}}
	s, _ := newTestSession(t, fe)

	out, err := s.SubmitAndWait(context.Background(), "related papers")
	require.NoError(t, err)
	assert.Equal(t, errorNotice, out.Text)
	assert.Empty(t, out.RelatedPapers)
	assert.False(t, s.IsBusy())
}

func TestErrorNoticeIsLocalized(t *testing.T) {
	ar, err := i18n.NewTranslator(i18n.Arabic)
	require.NoError(t, err)
	fe := &fakeEngine{stream: streamFailingAfter(errors.New("boom"))}
	s, _ := newTestSession(t, fe, WithTranslator(ar))

	out, err := s.SubmitAndWait(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, ar.T(i18n.KeyErrorNotice), out.Text)
	assert.NotEqual(t, errorNotice, out.Text)
}

func TestHistoryExcludesNewTurns(t *testing.T) {
	fe := &fakeEngine{stream: streamOf("answer one")}
	s, _ := newTestSession(t, fe)

	_, err := s.SubmitAndWait(context.Background(), "question one")
	require.NoError(t, err)
	_, err = s.SubmitAndWait(context.Background(), "question two")
	require.NoError(t, err)

	require.Len(t, fe.histories, 2)
	assert.Empty(t, fe.histories[0])
	assert.Equal(t, []engine.Message{
		{Role: engine.RoleUser, Text: "question one"},
		{Role: engine.RoleModel, Text: "answer one"},
	}, fe.histories[1])

	require.Len(t, fe.parts[1], 1)
	assert.Equal(t, "question two", fe.parts[1][0].Text)
}

func TestAttachmentPartPrecedesText(t *testing.T) {
	fe := &fakeEngine{stream: streamOf("ok")}
	s, _ := newTestSession(t, fe)
	require.NoError(t, s.BindAttachment(conversation.NewAttachmentFromBytes("figure.png", "", []byte{0x89, 'P', 'N', 'G'})))

	_, err := s.SubmitAndWait(context.Background(), "describe the figure")
	require.NoError(t, err)

	require.Len(t, fe.parts, 1)
	parts := fe.parts[0]
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MimeType)
	assert.Len(t, parts[0].InlineData.Data, 4)
	assert.Nil(t, parts[1].InlineData)
	assert.Equal(t, "describe the figure", parts[1].Text)
}

func TestAttachmentReadFailureShowsNotice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))
	a, err := conversation.NewAttachmentFromFile(path)
	require.NoError(t, err)

	fe := &fakeEngine{stream: streamOf("never")}
	s, _ := newTestSession(t, fe, WithAttachment(a))
	require.NoError(t, os.Remove(path))

	out, err := s.SubmitAndWait(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, errorNotice, out.Text)
	assert.Empty(t, fe.histories, "request must not be sent without the attachment")
	assert.False(t, s.IsBusy())
}

func TestBindAttachmentClearsConversation(t *testing.T) {
	fe := &fakeEngine{stream: streamOf("ok")}
	s, sink := newTestSession(t, fe)

	_, err := s.SubmitAndWait(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, s.Conversation(), 2)
	drain(sink)

	a := conversation.NewAttachmentFromBytes("notes.md", "", []byte("# Notes"))
	require.NoError(t, s.BindAttachment(a))
	assert.Empty(t, s.Conversation())
	assert.Same(t, a, s.Attachment())

	snaps := snapshots(drain(sink))
	require.Len(t, snaps, 1)
	assert.Empty(t, snaps[0].Conversation)

	require.NoError(t, s.ClearAttachment())
	assert.Nil(t, s.Attachment())
	require.Error(t, s.BindAttachment(nil))
}

func TestSaveToFile(t *testing.T) {
	fe := &fakeEngine{stream: streamOf("answer")}
	s, _ := newTestSession(t, fe)
	_, err := s.SubmitAndWait(context.Background(), "question")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "transcript.json")
	require.NoError(t, s.SaveToFile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"answer"`)
}

func TestNewSessionWithoutEngine(t *testing.T) {
	_, err := NewSession(nil)
	require.ErrorIs(t, err, ErrEngineNil)
}

func TestExecutionHandleWaitNil(t *testing.T) {
	var h *ExecutionHandle
	_, err := h.Wait()
	require.ErrorIs(t, err, ErrExecutionHandleNil)
	assert.False(t, h.IsRunning())
}

func TestSubmitPublishesToContextSinks(t *testing.T) {
	fe := &fakeEngine{stream: streamOf("ok")}
	s, sessionSink := newTestSession(t, fe)
	ctxSink := events.NewChannelSink(context.Background(), 256)
	ctx := events.WithEventSinks(context.Background(), ctxSink)

	_, err := s.SubmitAndWait(ctx, "question")
	require.NoError(t, err)

	fromSession := drain(sessionSink)
	fromContext := drain(ctxSink)
	require.NotEmpty(t, fromContext)
	assert.Len(t, fromContext, len(fromSession))

	var types []events.EventType
	for _, e := range fromContext {
		types = append(types, e.Type())
	}
	assert.Contains(t, types, events.EventTypeFinal)
	assert.Contains(t, types, events.EventTypePartialCompletion)
}
