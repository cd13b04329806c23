// File: internal/services/logger.go
package services

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines common logging interface for all services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ProductionLogger adapts the key/value Logger interface to zerolog.
type ProductionLogger struct {
	logger zerolog.Logger
}

// NewProductionLogger creates a JSON logger tagged with the service name.
func NewProductionLogger(service string) *ProductionLogger {
	return NewProductionLoggerWithWriter(service, os.Stdout, zerolog.InfoLevel)
}

// NewProductionLoggerWithWriter creates a logger writing to w at level.
func NewProductionLoggerWithWriter(service string, w io.Writer, level zerolog.Level) *ProductionLogger {
	return &ProductionLogger{
		logger: zerolog.New(w).Level(level).With().Timestamp().Str("service", service).Logger(),
	}
}

// SetLevel updates the logging level
func (p *ProductionLogger) SetLevel(level zerolog.Level) {
	p.logger = p.logger.Level(level)
}

// Zerolog exposes the underlying logger.
func (p *ProductionLogger) Zerolog() zerolog.Logger {
	return p.logger
}

func (p *ProductionLogger) Info(msg string, keysAndValues ...interface{}) {
	p.log(p.logger.Info(), msg, keysAndValues)
}

func (p *ProductionLogger) Error(msg string, keysAndValues ...interface{}) {
	p.log(p.logger.Error(), msg, keysAndValues)
}

func (p *ProductionLogger) Debug(msg string, keysAndValues ...interface{}) {
	p.log(p.logger.Debug(), msg, keysAndValues)
}

func (p *ProductionLogger) Warn(msg string, keysAndValues ...interface{}) {
	p.log(p.logger.Warn(), msg, keysAndValues)
}

// log attaches key/value pairs as fields. A trailing key without a value is dropped.
func (p *ProductionLogger) log(event *zerolog.Event, msg string, keysAndValues []interface{}) {
	if event == nil {
		return
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, keysAndValues[i+1])
	}
	event.Msg(msg)
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// ParseLevel maps LOG_LEVEL values to zerolog levels, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ConfigureGlobal sets up the package-level zerolog logger used by
// repositories and middleware: JSON in production, console output otherwise.
func ConfigureGlobal(env, level string) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = os.Stdout
	if env != "production" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// NewLogger builds a service logger from GO_ENV and LOG_LEVEL.
func NewLogger(service string) Logger {
	env := os.Getenv("GO_ENV")
	if env == "test" {
		return &NoOpLogger{}
	}

	var w io.Writer = os.Stdout
	if env != "production" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewProductionLoggerWithWriter(service, w, ParseLevel(os.Getenv("LOG_LEVEL")))
}
