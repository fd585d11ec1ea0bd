package settings

import (
	"io"

	"github.com/elmaestro544/scigenius/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when no credential is configured for the
// selected provider. Without it no model request can succeed.
var ErrMissingAPIKey = errors.New("missing API key")

type factoryConfigFileWrapper struct {
	Factories *StepSettings
}

type StepSettings struct {
	API    *APISettings    `yaml:"api,omitempty"`
	Chat   *ChatSettings   `yaml:"chat,omitempty"`
	Client *ClientSettings `yaml:"client,omitempty"`
}

func NewStepSettings() *StepSettings {
	return &StepSettings{
		API:    NewAPISettings(),
		Chat:   NewChatSettings(),
		Client: NewClientSettings(),
	}
}

func NewStepSettingsFromYAML(s io.Reader) (*StepSettings, error) {
	settings_ := factoryConfigFileWrapper{
		Factories: NewStepSettings(),
	}
	if err := yaml.NewDecoder(s).Decode(&settings_); err != nil {
		return nil, errors.Wrap(err, "could not decode step settings")
	}

	return settings_.Factories, nil
}

// Validate checks that an engine and a credential for its provider are set.
func (ss *StepSettings) Validate() error {
	if ss.Chat == nil || ss.Chat.Engine == nil || *ss.Chat.Engine == "" {
		return errors.New("no engine specified")
	}
	apiType := ss.Chat.Provider()
	if apiType != types.ApiTypeGemini {
		return errors.Errorf("unsupported api type %s", apiType)
	}
	if ss.API.APIKey(apiType) == "" {
		return errors.Wrapf(ErrMissingAPIKey, "no API key for %s", apiType)
	}
	return nil
}

func (ss *StepSettings) GetMetadata() map[string]interface{} {
	metadata := make(map[string]interface{})

	if ss.Chat != nil {
		if ss.Chat.Engine != nil {
			metadata["ai-engine"] = *ss.Chat.Engine
		}
		if ss.Chat.ApiType != nil {
			metadata["ai-api-type"] = string(*ss.Chat.ApiType)
		}
	}

	if ss.API != nil {
		if u := ss.API.BaseURL(types.ApiTypeGemini); u != "" {
			metadata["gemini-base-url"] = u
		}
	}

	if ss.Client != nil && ss.Client.UserAgent != nil {
		metadata["user-agent"] = *ss.Client.UserAgent
	}

	return metadata
}

func (s *StepSettings) Clone() *StepSettings {
	return &StepSettings{
		API:    s.API.Clone(),
		Chat:   s.Chat.Clone(),
		Client: s.Client.Clone(),
	}
}
