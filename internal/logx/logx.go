// Package logx implements the process-wide leveled logger described in
// spec.md §4.6: an atomic log level shared by every invocation, and an
// append-only buffer that a Session drains into a TransformOutput/
// GetPlaceholderOutput's logs slice.
package logx

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Level mirrors the four-value LogLevel enum from the Rust original
// (log.rs): None < Error < Info < Verbose. A message is emitted only
// when its level is <= the current global level.
type Level uint32

const (
	LevelNone Level = iota
	LevelError
	LevelInfo
	LevelVerbose
)

var globalLevel atomic.Uint32

func init() {
	globalLevel.Store(uint32(LevelInfo))
}

// SetLevel sets the process-wide log level.
func SetLevel(l Level) {
	globalLevel.Store(uint32(l))
}

// GetLevel returns the process-wide log level.
func GetLevel() Level {
	return Level(globalLevel.Load())
}

// Entry is one buffered log line, shaped to match the logs field of
// TransformOutput/GetPlaceholderOutput in spec.md §6.
type Entry struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	default:
		return "none"
	}
}

// Session is a per-invocation log collector. The transform and
// get_placeholder entry points each open one Session so their returned
// logs don't bleed across concurrent invocations any further than the
// shared global Level already implies (see spec.md §9's open question).
type Session struct {
	id     string
	mu     sync.Mutex
	buf    []Entry
	logger zerolog.Logger
}

// NewSession opens a log collector whose zerolog console writer is
// styled after the Rust original's " nocojs "/" error " badges
// (log.rs style_error/style_info); badgeWriter discards what it renders.
func NewSession() *Session {
	s := &Session{id: uuid.NewString()}
	s.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        badgeWriter{},
		NoColor:    false,
		PartsOrder: []string{"message"},
	}).With().Str("session", s.id).Logger()
	return s
}

// badgeWriter discards everything the console writer produces. A Session
// prints nothing itself; its entries reach the user only through Drain
// (the CLI writes the drained entries to stderr).
type badgeWriter struct{}

func (badgeWriter) Write(p []byte) (int, error) { return len(p), nil }

// Log records a message at the given level in the session buffer if the
// global level permits it. The styled line is also passed to the zerolog
// logger, whose writer discards it.
func (s *Session) Log(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if level <= GetLevel() {
		s.mu.Lock()
		s.buf = append(s.buf, Entry{Message: msg, Level: level.String()})
		s.mu.Unlock()
		s.print(level, msg)
	}
}

func (s *Session) print(level Level, msg string) {
	badge := styleBadge(level)
	switch level {
	case LevelError:
		s.logger.Error().Msg(badge + msg)
	case LevelVerbose:
		s.logger.Debug().Msg(badge + msg)
	default:
		s.logger.Info().Msg(badge + msg)
	}
}

func styleBadge(level Level) string {
	switch level {
	case LevelError:
		return styleError("") + " "
	default:
		return styleInfo("") + " "
	}
}

// styleError mirrors log.rs's style_error: a red " error " badge.
func styleError(message string) string {
	return fmt.Sprintf("\x1b[41;37m error \x1b[0m \x1b[31m%s\x1b[0m", message)
}

// styleInfo mirrors log.rs's style_info: a cyan " nocojs " badge.
func styleInfo(message string) string {
	return fmt.Sprintf("\x1b[46;37m nocojs \x1b[0m %s", message)
}

// Drain returns the buffered entries collected so far and clears the
// buffer, matching "flushed per-invocation into the returned logs".
func (s *Session) Drain() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buf
	s.buf = nil
	return out
}
