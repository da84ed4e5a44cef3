package logging

import "github.com/Antigravity-finder/tabbycat/types"

// NopLogger discards all log output.
type NopLogger struct{}

var _ types.Logger = (*NopLogger)(nil)

// NewNop returns a logger that discards everything. Used as the default when
// no logger is injected.
func NewNop() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (*NopLogger) Debug(string, ...any) {}

// Info discards the message.
func (*NopLogger) Info(string, ...any) {}

// Warn discards the message.
func (*NopLogger) Warn(string, ...any) {}

// Error discards the message.
func (*NopLogger) Error(string, ...any) {}

// Fatal discards the message and does not exit.
func (*NopLogger) Fatal(string, ...any) {}
