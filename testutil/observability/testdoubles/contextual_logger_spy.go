package testdoubles

import (
	"context"
	"sync"

	"github.com/shelfwise/circulation/eventstore"
)

// SpyLogRecord represents a recorded log call.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
}

// ContextualLoggerSpy captures contextual logging calls for testing.
type ContextualLoggerSpy struct {
	records []SpyLogRecord
	mu      sync.Mutex
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{records: make([]SpyLogRecord, 0)}
}

func (s *ContextualLoggerSpy) DebugContext(_ context.Context, msg string, args ...any) {
	s.record("debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(_ context.Context, msg string, args ...any) {
	s.record("info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(_ context.Context, msg string, args ...any) {
	s.record("warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(_ context.Context, msg string, args ...any) {
	s.record("error", msg, args)
}

func (s *ContextualLoggerSpy) record(level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyLogRecord{Level: level, Message: msg, Args: append([]any(nil), args...)})
}

// Records returns a copy of all captured log calls.
func (s *ContextualLoggerSpy) Records() []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyLogRecord(nil), s.records...)
}

// HasRecord reports whether a call with this level and message was captured.
func (s *ContextualLoggerSpy) HasRecord(level string, msg string) bool {
	for _, r := range s.Records() {
		if r.Level == level && r.Message == msg {
			return true
		}
	}

	return false
}

// ArgValue returns the value following key in the args of the first record with msg.
func (s *ContextualLoggerSpy) ArgValue(msg string, key string) (any, bool) {
	for _, r := range s.Records() {
		if r.Message != msg {
			continue
		}

		for i := 0; i+1 < len(r.Args); i += 2 {
			if r.Args[i] == key {
				return r.Args[i+1], true
			}
		}
	}

	return nil, false
}

var _ eventstore.ContextualLogger = (*ContextualLoggerSpy)(nil)
