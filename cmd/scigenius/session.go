package main

import (
	"context"
	"os"

	"github.com/elmaestro544/scigenius/pkg/conversation"
	"github.com/elmaestro544/scigenius/pkg/events"
	"github.com/elmaestro544/scigenius/pkg/helpers"
	"github.com/elmaestro544/scigenius/pkg/i18n"
	"github.com/elmaestro544/scigenius/pkg/inference/engine"
	"github.com/elmaestro544/scigenius/pkg/inference/engine/factory"
	"github.com/elmaestro544/scigenius/pkg/inference/session"
	"github.com/elmaestro544/scigenius/pkg/steps/ai/settings"
	ai_types "github.com/elmaestro544/scigenius/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// stepSettingsFromViper layers --ai-settings, then the individual keys, over
// the defaults.
func stepSettingsFromViper() (*settings.StepSettings, error) {
	s := settings.NewStepSettings()

	if path := viper.GetString("ai-settings"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open %s", path)
		}
		defer func() {
			_ = f.Close()
		}()
		s, err = settings.NewStepSettingsFromYAML(f)
		if err != nil {
			return nil, err
		}
	}

	if s.Chat == nil {
		s.Chat = settings.NewChatSettings()
	}
	if s.API == nil {
		s.API = settings.NewAPISettings()
	}
	if model := viper.GetString("model"); model != "" {
		s.Chat.Engine = &model
	}
	if key := viper.GetString("api-key"); key != "" {
		s.API.SetAPIKey(ai_types.ApiTypeGemini, key)
	}
	if baseURL := viper.GetString("base-url"); baseURL != "" {
		s.API.SetBaseURL(ai_types.ApiTypeGemini, baseURL)
	}
	if s.Client == nil {
		s.Client = settings.NewClientSettings()
	}
	if s.Client.UserAgent == nil {
		s.Client.UserAgent = helpers.StringPointer("scigenius/" + version)
	}

	return s, nil
}

func newEngine(ctx context.Context, s *settings.StepSettings) (engine.Engine, error) {
	e, err := factory.NewEngineFromStepSettings(ctx, s)
	if errors.Is(err, settings.ErrMissingAPIKey) {
		return nil, errors.Wrap(err, "set SCIGENIUS_API_KEY, GEMINI_API_KEY or --api-key")
	}
	return e, err
}

func newTranslator() (*i18n.Translator, error) {
	lang, err := i18n.ParseLanguage(viper.GetString("language"))
	if err != nil {
		return nil, err
	}
	return i18n.NewTranslator(lang)
}

// newSession builds a session publishing to sink. filePath is bound and
// loadPath restored when they are not empty.
func newSession(ctx context.Context, sink events.EventSink, tr *i18n.Translator, filePath string, loadPath string) (*session.Session, error) {
	s, err := stepSettingsFromViper()
	if err != nil {
		return nil, err
	}
	e, err := newEngine(ctx, s)
	if err != nil {
		return nil, err
	}

	options := []session.Option{
		session.WithEventSinks(sink),
		session.WithTranslator(tr),
		session.WithModel(*s.Chat.Engine),
		session.WithMetadata(events.MetadataSettingsSlug, s.GetMetadata()),
	}
	if filePath != "" {
		a, err := conversation.NewAttachmentFromFile(filePath)
		if err != nil {
			return nil, err
		}
		options = append(options, session.WithAttachment(a))
	}
	if loadPath != "" {
		m, err := conversation.LoadFromFile(loadPath)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", loadPath).Int("turns", len(m.GetConversation())).Msg("Loaded conversation")
		options = append(options, session.WithManager(m))
	}

	return session.NewSession(e, options...)
}
