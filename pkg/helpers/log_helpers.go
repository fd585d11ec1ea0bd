package helpers

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillZerologAdapter routes watermill logs through zerolog.
type WatermillZerologAdapter struct {
	logger zerolog.Logger
}

func (w *WatermillZerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Error().Fields(toMap(fields)).Err(err).Caller(1).Msg(msg)
}

func (w *WatermillZerologAdapter) Info(msg string, fields watermill.LogFields) {
	// map INFO to DEBUG because watermill is chatty
	w.logger.Debug().Fields(toMap(fields)).Caller(1).Msg(msg)
}

func (w *WatermillZerologAdapter) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug().Fields(toMap(fields)).Caller(1).Msg(msg)
}

func (w *WatermillZerologAdapter) Trace(msg string, fields watermill.LogFields) {
	w.logger.Trace().Fields(toMap(fields)).Caller(1).Msg(msg)
}

func (w *WatermillZerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	l := w.logger.With().Fields(toMap(fields)).Logger()
	return &WatermillZerologAdapter{logger: l}
}

// zerolog only accepts plain maps, not watermill.LogFields
func toMap(fields watermill.LogFields) map[string]interface{} {
	return map[string]interface{}(fields)
}

func NewWatermill(logger zerolog.Logger) *WatermillZerologAdapter {
	return &WatermillZerologAdapter{logger: logger}
}

var _ watermill.LoggerAdapter = &WatermillZerologAdapter{}
