package factory

import (
	"context"
	"strings"

	"github.com/elmaestro544/scigenius/pkg/inference/engine"
	"github.com/elmaestro544/scigenius/pkg/steps/ai/gemini"
	"github.com/elmaestro544/scigenius/pkg/steps/ai/settings"
	"github.com/elmaestro544/scigenius/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EngineFactory creates inference engines from step settings. The provider
// is chosen by settings.Chat.ApiType.
type EngineFactory interface {
	CreateEngine(ctx context.Context, settings *settings.StepSettings) (engine.Engine, error)

	// SupportedProviders returns the ApiType values CreateEngine accepts.
	SupportedProviders() []string

	// DefaultProvider is what settings.Chat.Provider falls back to.
	DefaultProvider() string
}

type StandardEngineFactory struct{}

func NewStandardEngineFactory() *StandardEngineFactory {
	return &StandardEngineFactory{}
}

// CreateEngine validates settings and builds the engine for their provider.
// A missing credential surfaces as settings.ErrMissingAPIKey.
func (f *StandardEngineFactory) CreateEngine(ctx context.Context, settings *settings.StepSettings) (engine.Engine, error) {
	if settings == nil {
		return nil, errors.New("settings cannot be nil")
	}
	if settings.Chat == nil {
		return nil, errors.New("chat settings cannot be nil")
	}
	if settings.API == nil {
		return nil, errors.New("API settings cannot be nil")
	}

	provider := string(settings.Chat.Provider())

	switch provider {
	case string(types.ApiTypeGemini):
		if settings.Chat.Engine != nil && !gemini.IsGeminiEngine(*settings.Chat.Engine) {
			log.Warn().Str("model", *settings.Chat.Engine).Msg("Model name does not look like a Gemini model")
		}
		e, err := gemini.NewGeminiEngine(ctx, settings)
		if err != nil {
			return nil, err
		}
		return e, nil

	default:
		supported := strings.Join(f.SupportedProviders(), ", ")
		return nil, errors.Errorf("unsupported provider %s. Supported providers: %s", provider, supported)
	}
}

func (f *StandardEngineFactory) SupportedProviders() []string {
	return []string{
		string(types.ApiTypeGemini),
	}
}

func (f *StandardEngineFactory) DefaultProvider() string {
	return string(types.ApiTypeGemini)
}

// NewEngineFromStepSettings creates an engine with the standard factory.
func NewEngineFromStepSettings(ctx context.Context, stepSettings *settings.StepSettings) (engine.Engine, error) {
	return NewStandardEngineFactory().CreateEngine(ctx, stepSettings)
}

var _ EngineFactory = (*StandardEngineFactory)(nil)
