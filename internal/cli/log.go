// Package cli implements the tagresolver command-line interface.
//
// The CLI is built with cobra and logs through charmbracelet/log. Commands
// share one [CLI] value holding the logger and the loaded configuration.
//
// # Commands
//
//   - serve: run the HTTP resolver
//   - resolve: resolve one OWNER/REPO VERSION through the configured cache
//   - cache clear: drop one cached resolution
//   - cache path: print the file cache directory
//   - config: print the effective configuration as TOML
//
// # Logging
//
// The level and format come from the [log] section of the config file.
// --verbose (-v) forces debug level. Loggers are also attached to
// context.Context for code that only receives a context.
//
// # Example
//
//	import "github.com/matzehuels/tagresolver/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tagresolver/pkg/config"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Text timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45");
// json and logfmt output use RFC 3339 so log shippers can parse them.
func newLogger(w io.Writer, level log.Level, format string) *log.Logger {
	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Formatter:       formatter(format),
	}
	if opts.Formatter != log.TextFormatter {
		opts.TimeFormat = time.RFC3339
	}
	return log.NewWithOptions(w, opts)
}

// formatter maps a config log format to a charmbracelet formatter.
// Unknown formats fall back to text.
func formatter(format string) log.Formatter {
	switch format {
	case config.FormatJSON:
		return log.JSONFormatter
	case config.FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Resolved cli/cli 2.1 (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// withLogger returns a new context with the given logger attached.
// It uses charmbracelet/log's context key, so library code that looks for
// a request logger (the resolution service) finds this one too.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return log.WithContext(ctx, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(log.ContextKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
