package settings

import (
	"fmt"

	"github.com/elmaestro544/scigenius/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
)

// APISettings holds credentials and endpoints keyed by "<api-type>-api-key"
// and "<api-type>-base-url".
type APISettings struct {
	APIKeys  map[string]string `yaml:"api_keys,omitempty" mapstructure:"api_keys"`
	BaseUrls map[string]string `yaml:"base_urls,omitempty" mapstructure:"base_urls"`
}

func NewAPISettings() *APISettings {
	return &APISettings{
		APIKeys:  map[string]string{},
		BaseUrls: map[string]string{},
	}
}

func APIKeyName(apiType types.ApiType) string {
	return fmt.Sprintf("%s-api-key", apiType)
}

func BaseURLName(apiType types.ApiType) string {
	return fmt.Sprintf("%s-base-url", apiType)
}

// APIKey returns the API key for apiType, or "" if none is configured.
func (a *APISettings) APIKey(apiType types.ApiType) string {
	if a == nil {
		return ""
	}
	return a.APIKeys[APIKeyName(apiType)]
}

// BaseURL returns the base URL override for apiType, or "" for the default.
func (a *APISettings) BaseURL(apiType types.ApiType) string {
	if a == nil {
		return ""
	}
	return a.BaseUrls[BaseURLName(apiType)]
}

func (a *APISettings) SetAPIKey(apiType types.ApiType, key string) {
	if a.APIKeys == nil {
		a.APIKeys = map[string]string{}
	}
	a.APIKeys[APIKeyName(apiType)] = key
}

func (a *APISettings) SetBaseURL(apiType types.ApiType, url string) {
	if a.BaseUrls == nil {
		a.BaseUrls = map[string]string{}
	}
	a.BaseUrls[BaseURLName(apiType)] = url
}

func (a *APISettings) Clone() *APISettings {
	return clone.Clone(a).(*APISettings)
}

// ClientSettings configures the HTTP client used to reach the provider.
// There is deliberately no timeout: requests end when the provider answers
// or the network layer fails.
type ClientSettings struct {
	UserAgent *string `yaml:"user_agent,omitempty" mapstructure:"user_agent"`
}

func NewClientSettings() *ClientSettings {
	return &ClientSettings{}
}

func (cs *ClientSettings) Clone() *ClientSettings {
	return clone.Clone(cs).(*ClientSettings)
}
