// Package logger provides verbose logging for riskmatch.
// When verbose mode is enabled via the --verbose flag, diagnostic
// messages are written to stderr so users can follow how a phrase was
// classified, which knowledge base was rebuilt, and why a provider
// call degraded.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

var (
	debugTag = color.New(color.Faint).Sprint("[DEBUG]")
	infoTag  = color.New(color.FgCyan).Sprint("[INFO]")
	warnTag  = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, tag+" "+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(debugTag, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(infoTag, format, args...)
}

// Warn prints a warning if verbose mode is enabled. Callers that must
// surface a degradation to the user regardless of verbosity return it
// as well.
func Warn(format string, args ...any) {
	write(warnTag, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs how long an operation took. Use as
//
//	defer logger.Timed("embed %s", d)()
func Timed(format string, args ...any) func() {
	start := time.Now()
	label := fmt.Sprintf(format, args...)
	return func() {
		write(debugTag, "%s took %s", label, time.Since(start).Round(time.Millisecond))
	}
}
