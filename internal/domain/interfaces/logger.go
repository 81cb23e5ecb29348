// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import (
	"fmt"
	"io"
	"os"
)

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields ...Field)

	// Info logs informational messages
	Info(msg string, fields ...Field)

	// Warn logs warning messages
	Warn(msg string, fields ...Field)

	// Error logs error messages
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// WriterLogger logs plain "LEVEL: msg key=value" lines to a writer.
// Debug lines are dropped unless Verbose is set.
type WriterLogger struct {
	Out     io.Writer
	Verbose bool
}

// NewStderrLogger creates a WriterLogger writing to standard error.
func NewStderrLogger(verbose bool) *WriterLogger {
	return &WriterLogger{Out: os.Stderr, Verbose: verbose}
}

// Debug logs debug-level messages when Verbose is set
func (l *WriterLogger) Debug(msg string, fields ...Field) {
	if l.Verbose {
		l.log("DEBUG", msg, fields)
	}
}

// Info logs informational messages
func (l *WriterLogger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields)
}

// Warn logs warning messages
func (l *WriterLogger) Warn(msg string, fields ...Field) {
	l.log("WARN", msg, fields)
}

func (l *WriterLogger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields)
}

func (l *WriterLogger) log(level, msg string, fields []Field) {
	out := l.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "%s: %s", level, msg)
	for _, f := range fields {
		fmt.Fprintf(out, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(out)
}
