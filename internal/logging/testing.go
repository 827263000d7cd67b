package logging

import (
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger whose entries are kept in memory for assertions.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

// NewTestLogger records every entry at debug and above.
func NewTestLogger() *TestLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogger{Logger: &Logger{zap: zap.New(core)}, logs: logs}
}

// All returns the recorded entries.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.logs.All()
}

// FilterMessage returns entries whose message contains snippet.
func (t *TestLogger) FilterMessage(snippet string) *observer.ObservedLogs {
	return t.logs.FilterMessageSnippet(snippet)
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if t.logs.FilterLevelExact(level).FilterMessageSnippet(msg).Len() == 0 {
		tb.Errorf("no %s entry containing %q; got %d entries", level, msg, t.logs.Len())
	}
}

// AssertField fails tb unless an entry containing msg has key set to want.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want interface{}) {
	tb.Helper()
	for _, e := range t.logs.FilterMessageSnippet(msg).All() {
		if got, ok := e.ContextMap()[key]; ok && got == want {
			return
		}
	}
	tb.Errorf("no entry containing %q with %s=%v", msg, key, want)
}

var secretShapes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+\S+`),
	regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.`),
	regexp.MustCompile(`\$2[aby]\$\d{2}\$`),
}

// AssertNoSecrets fails tb if a bearer token, JWT or bcrypt hash appears in
// any message or string field.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	for _, e := range t.logs.All() {
		values := []string{e.Message}
		for _, f := range e.Context {
			if f.Type == zapcore.StringType {
				values = append(values, f.String)
			}
		}
		for _, v := range values {
			for _, re := range secretShapes {
				if re.MatchString(v) {
					tb.Errorf("secret-shaped value logged in %q: %s", e.Message, strings.TrimSpace(v))
				}
			}
		}
	}
}
