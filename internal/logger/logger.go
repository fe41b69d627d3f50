package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log" // Timestamped sink for the append-only log file
	"github.com/fatih/color"            // Colored console output
)

// timeFormat matches the "<asctime> - <message>" layout setup logs have always used.
const timeFormat = "2006-01-02 15:04:05"

// Options configures a Logger.
//   - Debug: print debug lines to the console as well as to the log file.
//   - FilePath: append-only log file; empty disables the file sink.
//   - Stdout/Stderr: console writers, default os.Stdout and os.Stderr.
type Options struct {
	Debug    bool
	FilePath string
	Stdout   io.Writer
	Stderr   io.Writer
}

// Logger prints leveled, colorized lines to the console and mirrors every line,
// debug included, into a timestamped log file.
//
// Info is green, Warn bright magenta, Error red (on stderr) and Debug cyan.
// A Logger is built once by the command layer and handed to the components that
// need it; nothing in the module logs through package state.
type Logger struct {
	debug  bool
	stdout io.Writer
	stderr io.Writer

	info   func(w io.Writer, format string, a ...any)
	warn   func(w io.Writer, format string, a ...any)
	errorf func(w io.Writer, format string, a ...any)
	debugf func(w io.Writer, format string, a ...any)

	file *clog.Logger
	out  io.Closer
}

// New builds a Logger. When opts.FilePath is set, the file is created if needed and
// opened in append mode.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		debug:  opts.Debug,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		info:   color.New(color.FgGreen).FprintfFunc(),
		warn:   color.New(color.FgHiMagenta).FprintfFunc(),
		errorf: color.New(color.FgRed).FprintfFunc(),
		debugf: color.New(color.FgCyan).FprintfFunc(),
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if l.stderr == nil {
		l.stderr = os.Stderr
	}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.FilePath, err)
		}
		l.out = f
		l.file = newFileLogger(f)
	}

	return l, nil
}

// NewWriter builds a Logger whose file sink writes to w. Console output is discarded.
func NewWriter(w io.Writer, debug bool) *Logger {
	l, _ := New(Options{Debug: debug, Stdout: io.Discard, Stderr: io.Discard})
	l.file = newFileLogger(w)
	return l
}

// Nop returns a Logger that drops everything.
func Nop() *Logger {
	l, _ := New(Options{Stdout: io.Discard, Stderr: io.Discard})
	return l
}

func newFileLogger(w io.Writer) *clog.Logger {
	return clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           clog.DebugLevel,
		Formatter:       clog.TextFormatter,
	})
}

// Info logs an informational line.
func (l *Logger) Info(format string, a ...any) {
	msg := line(format, a...)
	l.info(l.stdout, "[INFO] %s\n", msg)
	if l.file != nil {
		l.file.Info(msg)
	}
}

// Warn logs a warning.
func (l *Logger) Warn(format string, a ...any) {
	msg := line(format, a...)
	l.warn(l.stdout, "[WARN] %s\n", msg)
	if l.file != nil {
		l.file.Warn(msg)
	}
}

// Error logs an error. Errors go to stderr so the operator sees them even when
// stdout is redirected.
func (l *Logger) Error(format string, a ...any) {
	msg := line(format, a...)
	l.errorf(l.stderr, "[ERROR] %s\n", msg)
	if l.file != nil {
		l.file.Error(msg)
	}
}

// Debug logs a debug line. The console only shows it when debug is enabled; the
// log file always records it.
func (l *Logger) Debug(format string, a ...any) {
	msg := line(format, a...)
	if l.debug {
		l.debugf(l.stdout, "[DEBUG] %s\n", msg)
	}
	if l.file != nil {
		l.file.Debug(msg)
	}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	l.file = nil
	return err
}

func line(format string, a ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, a...), "\n")
}
