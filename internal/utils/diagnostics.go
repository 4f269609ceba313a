package utils

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DiagnosticLevel represents the level of diagnostic output
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// String returns the tag printed in front of messages of this level
func (l DiagnosticLevel) String() string {
	switch l {
	case DiagnosticError:
		return "ERROR"
	case DiagnosticWarn:
		return "WARN"
	case DiagnosticInfo:
		return "INFO"
	case DiagnosticVerbose:
		return "VERBOSE"
	case DiagnosticDebug:
		return "DEBUG"
	default:
		return "SILENT"
	}
}

var levelColors = map[DiagnosticLevel]*color.Color{
	DiagnosticError:   color.New(color.FgRed, color.Bold),
	DiagnosticWarn:    color.New(color.FgYellow),
	DiagnosticInfo:    color.New(color.FgBlue),
	DiagnosticVerbose: color.New(color.FgHiBlack),
	DiagnosticDebug:   color.New(color.FgMagenta),
}

// DiagnosticSystem writes the generator's progress and problems to the terminal
type DiagnosticSystem struct {
	level    DiagnosticLevel
	showTime bool
	output   io.Writer
	errorOut io.Writer
	indent   int
	started  map[string]time.Time
	now      func() time.Time
}

// NewDiagnosticSystem creates a new diagnostic system
func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:    level,
		showTime: level >= DiagnosticVerbose,
		output:   color.Output,
		errorOut: color.Error,
		started:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// NewQuietDiagnostics creates a diagnostic system that only shows errors
func NewQuietDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticError)
}

// NewVerboseDiagnostics creates a diagnostic system with full output
func NewVerboseDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticVerbose)
}

// SetOutput redirects both streams, mostly for tests
func (d *DiagnosticSystem) SetOutput(out, errOut io.Writer) {
	d.output = out
	d.errorOut = errOut
}

// Level returns the configured verbosity
func (d *DiagnosticSystem) Level() DiagnosticLevel {
	return d.level
}

// Enabled reports whether messages of the given level are printed
func (d *DiagnosticSystem) Enabled(level DiagnosticLevel) bool {
	return d.level >= level
}

func (d *DiagnosticSystem) Error(format string, args ...interface{}) {
	d.write(d.errorOut, DiagnosticError, format, args...)
}

func (d *DiagnosticSystem) Warn(format string, args ...interface{}) {
	d.write(d.output, DiagnosticWarn, format, args...)
}

func (d *DiagnosticSystem) Info(format string, args ...interface{}) {
	d.write(d.output, DiagnosticInfo, format, args...)
}

func (d *DiagnosticSystem) Verbose(format string, args ...interface{}) {
	d.write(d.output, DiagnosticVerbose, format, args...)
}

func (d *DiagnosticSystem) Debug(format string, args ...interface{}) {
	d.write(d.output, DiagnosticDebug, format, args...)
}

// Success prints a green check mark line
func (d *DiagnosticSystem) Success(format string, args ...interface{}) {
	if !d.Enabled(DiagnosticInfo) {
		return
	}
	fmt.Fprintf(d.output, "%s%s %s\n", d.prefix(), color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// RayHeader prints the banner shown once per run
func (d *DiagnosticSystem) RayHeader(message string) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintln(d.output, color.CyanString("Ray: %s", message))
	}
}

// Section creates a prominent section header
func (d *DiagnosticSystem) Section(title string) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintln(d.output, color.New(color.Bold).Sprint(title))
	}
}

// Subsection creates a subsection header
func (d *DiagnosticSystem) Subsection(title string) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintf(d.output, "\n%s\n", color.BlueString("%s:", title))
	}
}

// List outputs a bulleted list item
func (d *DiagnosticSystem) List(format string, args ...interface{}) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintf(d.output, "%s- %s\n", d.prefix(), fmt.Sprintf(format, args...))
	}
}

func (d *DiagnosticSystem) Indent() {
	d.indent++
}

func (d *DiagnosticSystem) Unindent() {
	if d.indent > 0 {
		d.indent--
	}
}

// StartProgress remembers when a named step began
func (d *DiagnosticSystem) StartProgress(step string) {
	d.started[step] = d.now()
	d.Verbose("%s...", step)
}

// EndProgress reports a named step as done, with its duration in verbose mode
func (d *DiagnosticSystem) EndProgress(step string) {
	start, ok := d.started[step]
	delete(d.started, step)
	if !ok || !d.Enabled(DiagnosticVerbose) {
		d.Success("%s", step)
		return
	}
	d.Success("%s (%s)", step, d.now().Sub(start).Round(time.Millisecond))
}

// Summary outputs statistics sorted by key so runs compare line by line
func (d *DiagnosticSystem) Summary(title string, stats map[string]interface{}) {
	if !d.Enabled(DiagnosticInfo) {
		return
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(d.output, "\n%s\n", color.GreenString(title))
	for _, key := range keys {
		fmt.Fprintf(d.output, "   %s: %v\n", key, stats[key])
	}
}

func (d *DiagnosticSystem) write(w io.Writer, level DiagnosticLevel, format string, args ...interface{}) {
	if !d.Enabled(level) {
		return
	}

	var line strings.Builder
	line.WriteString(d.prefix())
	if d.showTime {
		line.WriteString(d.now().Format("15:04:05 "))
	}
	line.WriteString(levelColors[level].Sprintf("[%s]", level))
	line.WriteByte(' ')
	line.WriteString(fmt.Sprintf(format, args...))
	line.WriteByte('\n')

	fmt.Fprint(w, line.String())
}

func (d *DiagnosticSystem) prefix() string {
	return strings.Repeat("  ", d.indent)
}

// DisableColors turns off ANSI escapes for the whole process. NO_COLOR and
// non-terminal outputs are already detected by fatih/color.
func DisableColors() {
	color.NoColor = true
}
