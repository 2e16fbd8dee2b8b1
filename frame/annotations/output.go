package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) && !color.NoColor
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
	}
}

// NewPlainFormatter creates a formatter that never emits color codes.
func NewPlainFormatter(w io.Writer) *OutputFormatter {
	return &OutputFormatter{writer: w}
}

// Handle implements the Handler interface - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case LookupInvoked:
		return fmt.Sprintf("%s Lookup: %s against %s on %s=%s",
			latency,
			f.colorizeCount("Values", intData(event, "values.size")),
			f.colorizeCount("Rows", intData(event, "table.size")),
			event.Data["key.left"],
			event.Data["key.right"])

	case LookupIndexed:
		return fmt.Sprintf("%s Indexed %s into %d distinct keys",
			latency,
			f.colorizeCount("Rows", intData(event, "table.size")),
			intData(event, "keys.distinct"))

	case JoinLeftHash:
		return fmt.Sprintf("%s LeftJoin(%s) %s matched, %s missing, fan-out %d",
			latency,
			f.colorizeCount("Rows", intData(event, "result.size")),
			f.colorize(fmt.Sprint(intData(event, "matched")), color.FgGreen),
			f.colorize(fmt.Sprint(intData(event, "unmatched")), color.FgYellow),
			intData(event, "fanout"))

	case LookupChunked:
		return fmt.Sprintf("%s Split %s into %d chunks across %d workers",
			latency,
			f.colorizeCount("Values", intData(event, "values.size")),
			intData(event, "chunks"),
			intData(event, "workers"))

	case LookupReindexed:
		return fmt.Sprintf("%s Reindexed result (%s)", latency, event.Data["policy"])

	case LookupComplete:
		if success, ok := event.Data["success"].(bool); ok && !success {
			return fmt.Sprintf("%s %s Lookup failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				event.Data["error"])
		}
		return fmt.Sprintf("%s %s Lookup done with %s x %d columns.",
			latency,
			f.colorize("===", color.FgGreen),
			f.colorizeCount("Rows", intData(event, "result.size")),
			intData(event, "result.width"))

	case StoragePut, StorageGet:
		return fmt.Sprintf("%s %s %q (%s)",
			latency,
			event.Name,
			event.Data["table"],
			f.colorizeCount("Rows", intData(event, "rows")))

	case ErrorLookup, ErrorBackend:
		return fmt.Sprintf("%s %s %v", latency, f.colorize(event.Name, color.FgRed), event.Data["error"])

	default:
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

func intData(event Event, key string) int {
	n, _ := event.Data[key].(int)
	return n
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)

	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorizeCount formats a count with a label, using color based on the label type.
func (f *OutputFormatter) colorizeCount(label string, count int) string {
	text := fmt.Sprintf("%d %s", count, label)

	if !f.useColor {
		return text
	}

	switch strings.ToLower(label) {
	case "rows":
		return color.MagentaString(text)
	case "values":
		return color.CyanString(text)
	default:
		return text
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// ConsoleHandler creates a handler that prints formatted events to stderr.
func ConsoleHandler() Handler {
	return NewOutputFormatter(os.Stderr).Handle
}
