package settings

import (
	"strings"

	"github.com/elmaestro544/scigenius/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
)

const DefaultGeminiEngine = "gemini-2.5-flash"

type ChatSettings struct {
	Engine  *string        `yaml:"engine,omitempty" mapstructure:"engine"`
	ApiType *types.ApiType `yaml:"api_type,omitempty" mapstructure:"api_type"`
}

func NewChatSettings() *ChatSettings {
	engine := DefaultGeminiEngine
	apiType := types.ApiTypeGemini
	return &ChatSettings{
		Engine:  &engine,
		ApiType: &apiType,
	}
}

func (s *ChatSettings) Clone() *ChatSettings {
	return clone.Clone(s).(*ChatSettings)
}

// Provider returns the configured api type lowercased, or gemini when unset.
func (s *ChatSettings) Provider() types.ApiType {
	if s == nil || s.ApiType == nil || strings.TrimSpace(string(*s.ApiType)) == "" {
		return types.ApiTypeGemini
	}
	return types.ApiType(strings.ToLower(strings.TrimSpace(string(*s.ApiType))))
}
