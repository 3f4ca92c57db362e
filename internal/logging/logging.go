// Package logging provides topic-scoped slog loggers that are silent unless
// the topic is listed in DEBUG_TOPICS (comma separated, or "all").
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger logs under a fixed topic. A disabled logger costs a single bool check.
type Logger struct {
	topic   string
	enabled bool
}

var (
	mu            sync.RWMutex
	enabledTopics = map[string]bool{}
)

func init() {
	Configure(os.Getenv("DEBUG_TOPICS"))
}

// Configure (re)parses a DEBUG_TOPICS style list. Loggers created before the
// call keep their previous state; the CLI calls this after loading .env.
func Configure(topics string) {
	mu.Lock()
	defer mu.Unlock()

	enabledTopics = map[string]bool{}
	topics = strings.TrimSpace(topics)
	if topics == "" {
		return
	}
	if topics == "all" {
		enabledTopics["*"] = true
	} else {
		for _, topic := range strings.Split(topics, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				enabledTopics[topic] = true
			}
		}
	}
	if len(enabledTopics) > 0 {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		slog.SetDefault(slog.New(handler))
	}
}

// New creates a topic logger, e.g. var log = logging.New("sim").
func New(topic string) *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &Logger{
		topic:   topic,
		enabled: enabledTopics["*"] || enabledTopics[topic],
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if !l.enabled {
		return
	}
	slog.Debug(msg, l.with(args)...)
}

func (l *Logger) Info(msg string, args ...any) {
	if !l.enabled {
		return
	}
	slog.Info(msg, l.with(args)...)
}

// Warn is always emitted; warnings are not topic-gated.
func (l *Logger) Warn(msg string, args ...any) {
	slog.Warn(msg, l.with(args)...)
}

func (l *Logger) Enabled() bool {
	return l.enabled
}

func (l *Logger) with(args []any) []any {
	return append([]any{"topic", l.topic}, args...)
}
