package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// WriterLogger emits key=value formatted log lines to a writer. It is safe
// for concurrent use.
type WriterLogger struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterLogger constructs a logger writing to out.
func NewWriterLogger(out io.Writer) *WriterLogger {
	return &WriterLogger{out: out}
}

// Debug logs at debug level.
func (l *WriterLogger) Debug(msg string, fields ...Field) { l.emit("DEBUG", msg, fields) }

// Info logs at info level.
func (l *WriterLogger) Info(msg string, fields ...Field) { l.emit("INFO", msg, fields) }

// Error logs at error level.
func (l *WriterLogger) Error(msg string, fields ...Field) { l.emit("ERROR", msg, fields) }

func (l *WriterLogger) emit(level, msg string, fields []Field) {
	var b strings.Builder
	b.WriteString(time.Now().UTC().Format(time.RFC3339))
	b.WriteString(" level=")
	b.WriteString(level)
	b.WriteString(" msg=")
	b.WriteString(strconv.Quote(msg))
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(fmt.Sprint(f.Value)))
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}
