package engine

// Logger is the logging capability an Engine is configured with, mirroring
// coreengine/agents.Logger in the teacher repo: a small hand-rolled
// interface rather than a concrete zap/zerolog/logrus dependency, so
// callers can plug in whatever backend their process already uses.
type Logger interface {
	Info(msg string, fields ...any)
	Debug(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Bind(fields ...any) Logger
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (n noopLogger) Bind(...any) Logger { return n }
