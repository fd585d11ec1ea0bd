package conversation

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/elmaestro544/scigenius/pkg/papers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerAppendAndStream(t *testing.T) {
	m := NewManager()
	user := NewUserTurn("hello")
	model := NewModelTurn("")
	m.AppendTurns(user, model)

	require.NoError(t, m.AppendText(model.ID, "Hel"))
	require.NoError(t, m.AppendText(model.ID, "lo!"))

	c := m.GetConversation()
	require.Len(t, c, 2)
	assert.Equal(t, SpeakerUser, c[0].Speaker)
	assert.Equal(t, "Hello!", c.Last().Text)
}

func TestManagerAppendSkipsDuplicates(t *testing.T) {
	m := NewManager()
	turn := NewUserTurn("once")
	m.AppendTurns(turn, turn, nil)
	assert.Len(t, m.GetConversation(), 1)
}

func TestManagerUnknownTurn(t *testing.T) {
	m := NewManager()
	err := m.AppendText(uuid.New(), "x")
	require.ErrorIs(t, err, ErrTurnNotFound)
	err = m.ReplaceText(uuid.New(), "x", nil, nil)
	require.ErrorIs(t, err, ErrTurnNotFound)
}

func TestManagerReplaceText(t *testing.T) {
	m := NewManager()
	model := NewModelTurn("")
	m.AppendTurns(model)

	ps := []papers.Paper{{Title: "A"}}
	cs := []papers.Citation{{URI: "https://a.example", Title: "A"}}
	require.NoError(t, m.ReplaceText(model.ID, "Related Papers", ps, cs))

	got, ok := m.GetTurn(model.ID)
	require.True(t, ok)
	assert.Equal(t, "Related Papers", got.Text)
	assert.True(t, got.HasRelatedPapers())
	assert.Equal(t, cs, got.Citations)
}

func TestManagerReset(t *testing.T) {
	m := NewManager(WithTurns(NewUserTurn("a"), NewModelTurn("b")))
	id := m.ConversationID
	m.Reset()
	assert.Empty(t, m.GetConversation())
	assert.NotEqual(t, id, m.ConversationID)
}

func TestConversationCloneIsDeep(t *testing.T) {
	m := NewManager()
	model := NewModelTurn("first")
	m.AppendTurns(model)

	snapshot := m.GetConversation().Clone()
	require.NoError(t, m.AppendText(model.ID, " second"))

	assert.Equal(t, "first", snapshot.Last().Text)
	assert.Equal(t, "first second", m.GetConversation().Last().Text)
	assert.Equal(t, model.ID, snapshot.Last().ID)
}

func TestSaveToFile(t *testing.T) {
	m := NewManager(WithTurns(NewUserTurn("question"), NewModelTurn("answer")))
	path := filepath.Join(t.TempDir(), "nested", "conversation.json")

	require.NoError(t, m.SaveToFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved struct {
		ConversationID string `json:"conversationID"`
		Turns          []Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(b, &saved))
	assert.Equal(t, m.ConversationID.String(), saved.ConversationID)
	require.Len(t, saved.Turns, 2)
	assert.Equal(t, SpeakerModel, saved.Turns[1].Speaker)
	assert.Equal(t, "answer", saved.Turns[1].Text)
}

func TestLoadFromFileContinuesConversation(t *testing.T) {
	answer := NewModelTurn("Related Papers")
	answer.RelatedPapers = []papers.Paper{{Title: "T", Authors: "A", Year: "2020", Summary: "S", URL: "https://example.org/t"}}
	m := NewManager(WithTurns(NewUserTurn("find related papers"), answer))
	path := filepath.Join(t.TempDir(), "conversation.json")
	require.NoError(t, m.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.ConversationID, loaded.ConversationID)

	c := loaded.GetConversation()
	require.Len(t, c, 2)
	assert.Equal(t, answer.ID, c[1].ID)
	assert.True(t, c[1].HasRelatedPapers())

	require.NoError(t, loaded.AppendText(answer.ID, "!"))
	assert.Equal(t, "Related Papers!", loaded.GetConversation()[1].Text)
}

func TestLoadFromFileRejectsUnknownSpeaker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"turns":[{"speaker":"system","text":"x"}]}`), 0o600))

	_, err := LoadFromFile(path)
	assert.Error(t, err)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadFromFileAssignsMissingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-ids.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"turns":[{"speaker":"user","text":"q"},{"speaker":"model","text":"a"}]}`), 0o600))

	m, err := LoadFromFile(path)
	require.NoError(t, err)
	c := m.GetConversation()
	require.Len(t, c, 2)
	assert.Equal(t, "q", c[0].Text)
	assert.Equal(t, "a", c[1].Text)
	assert.NotEqual(t, uuid.Nil, c[0].ID)
	assert.NotEqual(t, uuid.Nil, c[1].ID)
	assert.NotEqual(t, c[0].ID, c[1].ID)
}

func TestLoadFromFileRejectsDuplicateIDs(t *testing.T) {
	id := uuid.New().String()
	path := filepath.Join(t.TempDir(), "dup.json")
	body := `{"turns":[{"id":"` + id + `","speaker":"user","text":"q"},{"id":"` + id + `","speaker":"model","text":"a"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share id")
}

func TestAttachmentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes"), 0644))

	a, err := NewAttachmentFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.md", a.Name)
	assert.Equal(t, "text/markdown", a.MimeType)

	// content is read lazily
	require.NoError(t, os.WriteFile(path, []byte("# Updated"), 0644))
	b, err := a.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# Updated", string(b))
}

func TestAttachmentFromFileSniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.data")
	require.NoError(t, os.WriteFile(path, []byte("plain text content\n"), 0644))

	a, err := NewAttachmentFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", a.MimeType)
}

func TestAttachmentFromMissingFile(t *testing.T) {
	_, err := NewAttachmentFromFile(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestAttachmentReadFailsAfterRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))
	a, err := NewAttachmentFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", a.MimeType)

	require.NoError(t, os.Remove(path))
	_, err = a.Read(context.Background())
	require.Error(t, err)
}

func TestAttachmentFromBytes(t *testing.T) {
	a := NewAttachmentFromBytes("figure.png", "", []byte{0x89, 'P', 'N', 'G'})
	assert.Equal(t, "image/png", a.MimeType)

	b, err := a.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, b, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
