package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		writer: writer,
		level:  &levelBox{level: level},
		mu:     &sync.Mutex{},
	}
}

// NewStderrLogger creates a logger writing to stderr at the level named by
// the given string (see ParseLevel).
func NewStderrLogger(level string) *JSONLogger {
	return NewJSONLogger(os.Stderr, ParseLevel(level))
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	if level < l.GetLevel() {
		return
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}

	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		fmt.Fprintf(l.writer, "[ERROR] failed to marshal log entry %q: %v\n", msg, err)
		return
	}
	l.writer.Write(append(data, '\n'))
}

// Debug logs a debug-level message
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

// Info logs an info-level message
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

// Warn logs a warning-level message
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

// Error logs an error-level message
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// With creates a child logger with the given fields pre-set. The child
// shares the writer, its lock and the level of the parent.
func (l *JSONLogger) With(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &JSONLogger{
		writer: l.writer,
		level:  l.level,
		fields: newFields,
		mu:     l.mu,
	}
}

// SetLevel sets the minimum log level
func (l *JSONLogger) SetLevel(level Level) {
	l.level.mu.Lock()
	defer l.level.mu.Unlock()
	l.level.level = level
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	l.level.mu.RLock()
	defer l.level.mu.RUnlock()
	return l.level.level
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the timer started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at info level with its duration
func (t *TimedOperation) End(extra ...Field) {
	t.logger.Info(t.msg, t.with(extra)...)
}

// EndDebug logs the operation at debug level with its duration
func (t *TimedOperation) EndDebug(extra ...Field) {
	t.logger.Debug(t.msg, t.with(extra)...)
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error, extra ...Field) {
	t.logger.Error(t.msg, append(t.with(extra), Error(err))...)
}

func (t *TimedOperation) with(extra []Field) []Field {
	fields := make([]Field, 0, len(t.fields)+len(extra)+1)
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	return append(fields, Latency(time.Since(t.start)))
}
