package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// transcript is the file format written by SaveToFile.
type transcript struct {
	ConversationID uuid.UUID    `json:"conversationID"`
	StartTime      time.Time    `json:"startTime"`
	Turns          Conversation `json:"turns"`
}

// SaveToFile writes the conversation as indented JSON, creating parent
// directories as needed.
func (c *ManagerImpl) SaveToFile(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "could not create directory %s", dir)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", filename)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(transcript{
		ConversationID: c.ConversationID,
		StartTime:      c.startTime,
		Turns:          c.turns,
	})
	if err != nil {
		return errors.Wrap(err, "could not encode conversation")
	}

	return nil
}

// LoadFromFile restores a manager from a file written by SaveToFile, so a
// conversation can be continued. Turns keep their IDs; turns without one
// get a fresh ID and a repeated ID is an error.
func LoadFromFile(filename string) (*ManagerImpl, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", filename)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	var t transcript
	if err := json.NewDecoder(f).Decode(&t); err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", filename)
	}

	seen := map[uuid.UUID]int{}
	for i, turn := range t.Turns {
		if turn == nil {
			return nil, errors.Errorf("turn %d in %s is empty", i, filename)
		}
		if turn.Speaker != SpeakerUser && turn.Speaker != SpeakerModel {
			return nil, errors.Errorf("turn %d in %s has unknown speaker %q", i, filename, turn.Speaker)
		}
		if turn.ID == uuid.Nil {
			turn.ID = uuid.New()
		}
		if j, ok := seen[turn.ID]; ok {
			return nil, errors.Errorf("turns %d and %d in %s share id %s", j, i, filename, turn.ID)
		}
		seen[turn.ID] = i
	}

	m := NewManager(
		WithManagerConversationID(t.ConversationID),
		WithTurns(t.Turns...),
	)
	if !t.StartTime.IsZero() {
		m.startTime = t.StartTime
	}
	return m, nil
}
