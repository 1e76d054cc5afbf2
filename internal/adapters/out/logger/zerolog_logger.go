package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/serenityspa/medsoft-availability-generator/internal/core/ports/out"
)

// ZerologLogger - структурированный JSON-лог для прод-окружений,
// строки собирает агрегатор. Интерфейс порта тот же, что у консольного.
type ZerologLogger struct {
	logger zerolog.Logger
	module string
}

func NewZerologLogger(version string) *ZerologLogger {
	zl := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("version", version).
		Logger()

	return &ZerologLogger{logger: zl}
}

func (l *ZerologLogger) WithFields(fields out.LogFields) out.LoggerPort {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}

	return &ZerologLogger{
		logger: ctx.Logger(),
		module: l.module,
	}
}

func (l *ZerologLogger) WithModule(module string) out.LoggerPort {
	return &ZerologLogger{
		logger: l.logger,
		module: module,
	}
}

func (l *ZerologLogger) Debug(event string, fields out.LogFields) {
	l.log(l.logger.Debug(), event, fields)
}

func (l *ZerologLogger) Info(event string, fields out.LogFields) {
	l.log(l.logger.Info(), event, fields)
}

func (l *ZerologLogger) Warn(event string, fields out.LogFields) {
	l.log(l.logger.Warn(), event, fields)
}

func (l *ZerologLogger) Error(event string, fields out.LogFields) {
	l.log(l.logger.Error(), event, fields)
}

func (l *ZerologLogger) log(e *zerolog.Event, event string, fields out.LogFields) {
	module := l.module
	if module == "" {
		module = "unknown"
	}

	e = e.Str("module", module)
	for k, v := range fields {
		e = e.Interface(k, v)
	}

	e.Msg(event)
}
