package odinmcp

import (
	"go.uber.org/zap"
)

// Logger defines the interface for logging operations
type Logger interface {
	// Debugf logs a debug message with formatting
	Debugf(format string, args ...interface{})
	// Infof logs an informational message with formatting
	Infof(format string, args ...interface{})
	// Errorf logs an error message with formatting
	Errorf(format string, args ...interface{})
}

// ZapLogger adapts a zap sugared logger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// Debugf implements Logger.Debugf
func (l *ZapLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Infof implements Logger.Infof
func (l *ZapLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Errorf implements Logger.Errorf
func (l *ZapLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// NewZapLogger creates a Logger backed by the supplied zap logger.
// If logger is nil, a production zap logger is used.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

// DefaultLogger is the logger used by components that were not given one.
var DefaultLogger Logger = NewZapLogger(nil)
