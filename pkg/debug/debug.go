// Package debug builds the zerolog logger used by the command line.
package debug

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const TimeFormat = "15:04:05.0000"

// TimeHook stamps every event with the wall clock in Format.
type TimeHook struct {
	Format string
}

func (t TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = TimeFormat
	}
	e.Str("time", time.Now().Format(format))
}

// CallerHook adds the package, file and line of the logging call.
type CallerHook struct {
	WithColor bool
	// Skip is the number of frames between Run and the logging call.
	Skip int
}

func (c CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	skip := c.Skip
	if skip == 0 {
		skip = 4
	}
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	pkg, _ := SplitFuncName(fn.Name())
	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// SplitFuncName splits a fully qualified function name into its package path
// and the function, with any receiver kept on the function side.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}
	firstDot := strings.IndexByte(name[lastSlash:], '.') + lastSlash
	if firstDot < lastSlash {
		return name, ""
	}

	pkg = name[:firstDot]
	function = name[firstDot+1:]
	if strings.Contains(pkg, ".(") {
		parts := strings.SplitN(pkg, ".(", 2)
		pkg = parts[0]
		function = "(" + parts[1] + "." + function
	}
	return pkg, function
}

func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		file = path[i+1:]
	}
	pkg = strings.TrimPrefix(pkg, "github.com/walteh/propexpr/")
	if colorize {
		sep := color.New(color.Faint).Sprint(":")
		return fmt.Sprintf("%s%s%s%s%s", pkg, sep,
			color.New(color.Bold).Sprint(file), sep,
			color.New(color.FgHiRed, color.Bold).Sprintf("%d", line))
	}
	return fmt.Sprintf("%s:%s:%d", pkg, file, line)
}

// NewLogger writes human readable events to w. Debug adds caller information
// and lowers the level to debug; trace lowers it further.
func NewLogger(w io.Writer, debug, trace, colorize bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case trace:
		level = zerolog.TraceLevel
	case debug:
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: w, NoColor: !colorize, TimeFormat: TimeFormat}
	l := zerolog.New(out).Level(level).Hook(TimeHook{})
	if debug || trace {
		l = l.Hook(CallerHook{WithColor: colorize})
	}
	return l
}
