package publishers

import "github.com/samvad-hq/replies-relay/pkg/replies"

// Logger is the replies client's logging surface, so one logger value
// serves the client and every sink.
type Logger = replies.Logger

// noopLogger discards sink diagnostics when no logger is configured.
type noopLogger struct{}

func (noopLogger) InfoObj(string, string, any)  {}
func (noopLogger) DebugObj(string, string, any) {}
func (noopLogger) WarnObj(string, string, any)  {}
func (noopLogger) ErrorObj(string, string, any) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
