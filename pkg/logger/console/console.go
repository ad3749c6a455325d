package console

import (
	"os"

	"github.com/charmbracelet/log"
)

// Backend writes structured log lines to stderr using charmbracelet/log.
type Backend struct {
	logger *log.Logger
}

// NewBackendParams configures a console backend. Debug lowers the level
// threshold to DEBUG.
type NewBackendParams struct {
	Debug bool
}

func NewBackend(params NewBackendParams) *Backend {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	return &Backend{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		}),
	}
}

func (b *Backend) Debug(message string, keyvals ...any) {
	b.logger.Debug(message, keyvals...)
}

func (b *Backend) Info(message string, keyvals ...any) {
	b.logger.Info(message, keyvals...)
}

func (b *Backend) Warn(message string, keyvals ...any) {
	b.logger.Warn(message, keyvals...)
}

func (b *Backend) Error(message string, keyvals ...any) {
	b.logger.Error(message, keyvals...)
}

func (b *Backend) Fatal(message string, keyvals ...any) {
	b.logger.Fatal(message, keyvals...)
}
