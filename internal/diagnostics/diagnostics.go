package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level represents the level of diagnostic output
type Level int

const (
	Silent Level = iota
	Error
	Warn
	Info
	Verbose
	Debug
)

// String returns the lowercase name of the level
func (l Level) String() string {
	switch l {
	case Silent:
		return "silent"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	case Verbose:
		return "verbose"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a level name into a Level
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "silent", "off":
		return Silent, nil
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warn, nil
	case "info":
		return Info, nil
	case "verbose":
		return Verbose, nil
	case "debug", "trace":
		return Debug, nil
	default:
		return Silent, fmt.Errorf("unknown log level: %s", name)
	}
}

// System provides structured, user-friendly output. A nil *System is valid
// and discards everything, which is what library callers get by default.
type System struct {
	level     Level
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
	indent    int
	mu        sync.Mutex
}

// New creates a new diagnostic system writing to stdout and stderr
func New(level Level) *System {
	return &System{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= Verbose,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// NewWithWriter creates a diagnostic system that writes everything to w
func NewWithWriter(level Level, w io.Writer) *System {
	d := New(level)
	d.output = w
	d.errorOut = w
	d.useColors = false
	d.showTime = false
	return d
}

// Level returns the configured level
func (d *System) Level() Level {
	if d == nil {
		return Silent
	}
	return d.level
}

// Enabled reports whether messages at level would be written
func (d *System) Enabled(level Level) bool {
	return d != nil && d.level >= level
}

// Error outputs error messages (always shown unless silent)
func (d *System) Error(format string, args ...interface{}) {
	if d.Enabled(Error) {
		d.writeMessage(d.errorOut, "ERROR", color.FgRed, format, args...)
	}
}

// Warn outputs warning messages
func (d *System) Warn(format string, args ...interface{}) {
	if d.Enabled(Warn) {
		d.writeMessage(d.output, "WARN", color.FgYellow, format, args...)
	}
}

// Info outputs informational messages
func (d *System) Info(format string, args ...interface{}) {
	if d.Enabled(Info) {
		d.writeMessage(d.output, "INFO", color.FgBlue, format, args...)
	}
}

// Verbose outputs detailed messages (verbose mode only)
func (d *System) Verbose(format string, args ...interface{}) {
	if d.Enabled(Verbose) {
		d.writeMessage(d.output, "VERBOSE", color.FgHiBlack, format, args...)
	}
}

// Debug outputs debug messages (highest verbosity)
func (d *System) Debug(format string, args ...interface{}) {
	if d.Enabled(Debug) {
		d.writeMessage(d.output, "DEBUG", color.FgMagenta, format, args...)
	}
}

// Indent increases the indentation level
func (d *System) Indent() {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.indent++
	d.mu.Unlock()
}

// Unindent decreases the indentation level
func (d *System) Unindent() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.indent > 0 {
		d.indent--
	}
	d.mu.Unlock()
}

// writeMessage is the internal message writing function
func (d *System) writeMessage(writer io.Writer, level string, attr color.Attribute, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	d.mu.Lock()
	defer d.mu.Unlock()

	var output strings.Builder
	output.WriteString(strings.Repeat("  ", d.indent))

	if d.showTime {
		output.WriteString(time.Now().Format("15:04:05 "))
	}

	tag := fmt.Sprintf("[%s]", level)
	if d.useColors {
		tag = color.New(attr).Sprint(tag)
	}
	output.WriteString(tag)
	output.WriteString(" ")
	output.WriteString(message)
	output.WriteString("\n")

	fmt.Fprint(writer, output.String())
}

// shouldUseColors determines if colors should be used
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
