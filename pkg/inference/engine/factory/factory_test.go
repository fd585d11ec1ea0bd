package factory

import (
	"context"
	"testing"

	"github.com/elmaestro544/scigenius/pkg/steps/ai/settings"
	"github.com/elmaestro544/scigenius/pkg/steps/ai/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEngineMissingAPIKey(t *testing.T) {
	_, err := NewEngineFromStepSettings(context.Background(), settings.NewStepSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, settings.ErrMissingAPIKey)
}

func TestCreateEngineGemini(t *testing.T) {
	s := settings.NewStepSettings()
	s.API.SetAPIKey(types.ApiTypeGemini, "test-key")
	s.API.SetBaseURL(types.ApiTypeGemini, "http://127.0.0.1:1/")

	e, err := NewEngineFromStepSettings(context.Background(), s)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestCreateEngineMixedCaseProvider(t *testing.T) {
	s := settings.NewStepSettings()
	mixed := types.ApiType("Gemini")
	s.Chat.ApiType = &mixed
	s.API.SetAPIKey(types.ApiTypeGemini, "test-key")
	s.API.SetBaseURL(types.ApiTypeGemini, "http://127.0.0.1:1/")

	e, err := NewEngineFromStepSettings(context.Background(), s)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestCreateEngineUnsupportedProvider(t *testing.T) {
	s := settings.NewStepSettings()
	openai := types.ApiType("openai")
	s.Chat.ApiType = &openai
	s.API.SetAPIKey(types.ApiTypeGemini, "test-key")

	_, err := NewEngineFromStepSettings(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider openai")
}

func TestCreateEngineNilSettings(t *testing.T) {
	_, err := NewStandardEngineFactory().CreateEngine(context.Background(), nil)
	assert.Error(t, err)
}

func TestProviders(t *testing.T) {
	f := NewStandardEngineFactory()
	assert.Equal(t, "gemini", f.DefaultProvider())
	assert.Equal(t, []string{"gemini"}, f.SupportedProviders())
}
