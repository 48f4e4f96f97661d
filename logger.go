package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// EventLogger writes timestamped events to a file or stream.  It is safe for
// concurrent use, and a nil *EventLogger discards everything.
type EventLogger struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewEventLogger creates a logger appending to filePath, creating the file if
// needed.  An empty path logs to standard error.
func NewEventLogger(filePath string) (*EventLogger, error) {
	if filePath == "" {
		return NewEventLoggerTo(os.Stderr), nil
	}
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return NewEventLoggerTo(f), nil
}

// NewEventLoggerTo creates a logger writing to w.
func NewEventLoggerTo(w io.Writer) *EventLogger {
	return &EventLogger{out: w, now: time.Now}
}

// Log writes a single event with timestamp.  Write errors are reported on
// standard error and otherwise ignored.
func (el *EventLogger) Log(format string, args ...any) {
	if el == nil {
		return
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	ts := el.now().Format(time.RFC3339)
	if _, err := fmt.Fprintf(el.out, "%s - %s\n", ts, msg); err != nil {
		fmt.Fprintf(os.Stderr, "log write error: %v\n", err)
	}
}
