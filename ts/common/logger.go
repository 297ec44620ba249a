package common

import (
	"fmt"
	"log"
	"sync"
)

// Logger is a log utility to log to. Entries are kept so they can be shown
// back to the user.
type Logger struct {
	mu      sync.Mutex
	Entries []*LogEntry
}

// Dbg prints an informational message
func (l *Logger) Dbg(format string, v ...interface{}) {
	log.Printf("%s\n", fmt.Sprintf(format, v...))
}

// Msg logs an informational message
func (l *Logger) Msg(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Println(msg)
	l.append(&LogEntry{false, msg})
}

// Err logs an error message
func (l *Logger) Err(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Printf("%s\n", fmt.Sprintf("Error: %s", msg))
	l.append(&LogEntry{true, msg})
}

// Fatal calls log.Fatalf
func (l *Logger) Fatal(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

// Snapshot returns a copy of the entries logged so far
func (l *Logger) Snapshot() []*LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]*LogEntry, len(l.Entries))
	copy(entries, l.Entries)
	return entries
}

func (l *Logger) append(entry *LogEntry) {
	l.mu.Lock()
	l.Entries = append(l.Entries, entry)
	l.mu.Unlock()
}

// NewLog creates a new logger
func NewLog() *Logger {
	return new(Logger)
}

// LogEntry contains the message and metadata
type LogEntry struct {
	IsError bool
	Msg     string
}
