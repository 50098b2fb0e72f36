// Package output holds the CLI's logger and plain stdout writes, so
// command code never mixes the two streams.
package output

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger writes styled diagnostics to stderr. Commands print their
// actual results with Println so stdout stays pipeable.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

// SetupLogging rebuilds the logger for the requested verbosity. Verbose
// mode enables debug lines plus timestamps and caller locations.
func SetupLogging(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
		ReportCaller:    verbose,
	})
}

func Debug(msg string, keyvals ...any) {
	Logger.Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...any) {
	Logger.Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...any) {
	Logger.Warn(msg, keyvals...)
}

// Println writes a result line to stdout.
func Println(msg string) {
	os.Stdout.WriteString(msg + "\n")
}
