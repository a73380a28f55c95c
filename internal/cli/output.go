package cli

import (
	"fmt"
	"strings"
)

// printError prints an error message to stderr
func printError(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
}

// printSuccess prints a success message
func printSuccess(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "✅ "+format+"\n", args...)
}

// printWarning prints a warning message
func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "⚠️  "+format+"\n", args...)
}

// printInfo prints an info message
func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format+"\n", args...)
}

// printHeader prints a section header
func printHeader(title string) {
	fmt.Fprintln(stdout, title)
	fmt.Fprintln(stdout, strings.Repeat("=", len([]rune(title))))
}

// printDivider prints a visual divider
func printDivider() {
	fmt.Fprintln(stdout, strings.Repeat("-", 60))
}
