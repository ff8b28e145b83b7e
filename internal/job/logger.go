package job

import (
	"io"
	"log"
	"os"
)

// Logger is the logging surface the pipeline and service write to.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// logLevel orders severities for threshold filtering.
type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(level string) logLevel {
	switch level {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	}
	return levelInfo
}

// stdLogger writes leveled, printf-style lines through the standard log
// package. Messages below the configured threshold are dropped.
type stdLogger struct {
	min logLevel
	out *log.Logger
}

// NewLogger builds a logger writing to w at the given threshold ("debug",
// "info", "warn" or "error"; anything else means info). A nil w logs to
// stderr.
func NewLogger(level string, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &stdLogger{
		min: parseLevel(level),
		out: log.New(w, "", log.LstdFlags),
	}
}

// NewDefaultLogger returns an info-level logger on stderr.
func NewDefaultLogger() Logger {
	return NewLogger("info", nil)
}

func (l *stdLogger) emit(lv logLevel, tag, msg string, fields []interface{}) {
	if lv < l.min {
		return
	}
	l.out.Printf(tag+" "+msg, fields...)
}

func (l *stdLogger) Debug(msg string, fields ...interface{}) {
	l.emit(levelDebug, "[DEBUG]", msg, fields)
}

func (l *stdLogger) Info(msg string, fields ...interface{}) {
	l.emit(levelInfo, "[INFO]", msg, fields)
}

func (l *stdLogger) Warn(msg string, fields ...interface{}) {
	l.emit(levelWarn, "[WARN]", msg, fields)
}

func (l *stdLogger) Error(msg string, fields ...interface{}) {
	l.emit(levelError, "[ERROR]", msg, fields)
}
