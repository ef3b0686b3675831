package logger

import (
	"fmt"

	"github.com/fatih/color" // Import the fatih/color package for colored console output
)

// Define colorized printing functions for different log levels using fatih/color.
// These are package-level variables holding functions that behave like fmt.Printf,
// but with text colored appropriately for the log level.

// Info logs informational messages in green color.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warning messages in bright magenta color.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red color.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It is reassigned by Init; until then it discards everything.
var Debug = func(format string, a ...any) {}

// Styles used for the numbered installation console lines.
var (
	stepStyle      = color.New(color.FgWhite, color.BgMagenta)
	successStyle   = color.New(color.FgWhite, color.BgGreen)
	importantStyle = color.New(color.FgWhite, color.BgHiRed)
	highlightStyle = color.New(color.FgWhite, color.BgBlue)
)

// Init initializes the logger package, specifically enabling or disabling debug logging.
// When enabled, Debug prints cyan-colored messages; otherwise it stays a no-op.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// Step renders a step ordinal label, e.g. "3." in the step style.
func Step(text string) string {
	return stepStyle.Sprint(text)
}

// Success renders text in the success style.
func Success(text string) string {
	return successStyle.Sprint(text)
}

// Important renders text that the operator must not miss.
func Important(text string) string {
	return importantStyle.Sprint(text)
}

// Highlight renders inline emphasis such as commands or URLs.
func Highlight(text string) string {
	return highlightStyle.Sprint(text)
}

// Println writes a plain line to the color output, bypassing level coloring.
func Println(a ...any) {
	_, _ = fmt.Fprintln(color.Output, a...)
}
