// Package i18n provides the fixed user-visible strings of scigenius in English
// and Arabic.
package i18n

import (
	"bytes"
	_ "embed"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

const DefaultLanguage = English

const (
	KeyAppName         = "appName"
	KeyHeroTitle       = "heroTitle"
	KeyHeroSubtitle    = "heroSubtitle"
	KeyUploadCTA       = "uploadCTA"
	KeyFileUploaded    = "fileUploaded"
	KeyChangeFile      = "changeFile"
	KeyAskAnything     = "askAnything"
	KeyPlaceholder     = "placeholder"
	KeySuggestion1     = "suggestion1"
	KeySuggestion2     = "suggestion2"
	KeySuggestion3     = "suggestion3"
	KeyThinking        = "thinking"
	KeyRelatedPapers   = "relatedPapers"
	KeySources         = "sources"
	KeyViewSource      = "viewSource"
	KeyFooterText      = "footerText"
	KeyNoRelatedPapers = "noRelatedPapers"
	KeyErrorNotice     = "errorNotice"
	KeyYou             = "you"
	KeyModel           = "model"
)

//go:embed translations.yaml
var translationsYAML []byte

type table map[string]map[Language]string

var (
	loadOnce sync.Once
	loaded   table
	loadErr  error
)

func loadTable() (table, error) {
	loadOnce.Do(func() {
		var t table
		if err := yaml.Unmarshal(translationsYAML, &t); err != nil {
			loadErr = errors.Wrap(err, "could not parse translations")
			return
		}
		loaded = t
	})
	return loaded, loadErr
}

// ParseLanguage accepts "en" or "ar" in any case.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case English:
		return English, nil
	case Arabic:
		return Arabic, nil
	default:
		return "", errors.Errorf("unsupported language %q", s)
	}
}

// IsRTL reports whether text in l is written right to left.
func (l Language) IsRTL() bool {
	return l == Arabic
}

// Translator looks up display strings for one language.
type Translator struct {
	language Language
	table    table
}

func NewTranslator(language Language) (*Translator, error) {
	t, err := loadTable()
	if err != nil {
		return nil, err
	}
	if language != English && language != Arabic {
		log.Warn().Str("language", string(language)).Msg("Unknown language, falling back to English")
		language = DefaultLanguage
	}
	return &Translator{language: language, table: t}, nil
}

func (t *Translator) Language() Language {
	return t.language
}

// T returns the string for key in the translator's language, falling back to
// English and then to the key itself.
func (t *Translator) T(key string) string {
	entry, ok := t.table[key]
	if !ok {
		return key
	}
	s, ok := entry[t.language]
	if !ok || s == "" {
		s, ok = entry[DefaultLanguage]
		if !ok {
			return key
		}
	}
	if !strings.Contains(s, "{{") {
		return s
	}
	return render(key, s)
}

func render(key string, s string) string {
	tmpl, err := template.New(key).Funcs(sprig.TxtFuncMap()).Parse(s)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Could not parse translation")
		return s
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Could not render translation")
		return s
	}
	return buf.String()
}
