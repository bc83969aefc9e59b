// Package ui renders user-facing terminal output: status messages, the
// framed insecure-package warning, and interactive confirmation prompts.
// Rich output degrades to plain text when stdout is piped or NO_COLOR is
// set.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

var warningFrame = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("11")).
	Padding(0, 2)

// Info prints an informational message.
func Info(format string, args ...interface{}) {
	pterm.Info.Printfln(format, args...)
}

// Success prints a success message.
func Success(format string, args ...interface{}) {
	pterm.Success.Printfln(format, args...)
}

// Warning prints a warning message.
func Warning(format string, args ...interface{}) {
	pterm.Warning.Printfln(format, args...)
}

// Plain prints without decoration.
func Plain(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// InsecureWarning prints the framed warning shown before installing a
// package that disables verification. Extra lines come from the recipe's
// own warnings list.
func InsecureWarning(packageName string, warnings []string) {
	lines := []string{
		fmt.Sprintf("Package %q disables integrity verification.", packageName),
		"Its contents cannot be checked against a published checksum.",
	}
	for _, w := range warnings {
		lines = append(lines, w)
	}
	lines = append(lines, "", "Pass --allow-insecure to proceed anyway.")

	body := strings.Join(lines, "\n")
	if DetectFormat(os.Stdout) == FormatText {
		fmt.Println(body)
		return
	}
	fmt.Println(warningFrame.Render(body))
}

// Confirm shows a prompt and reads a y/yes answer from in. Returns false
// without error when in is not a terminal, so non-interactive runs skip
// rather than hang.
func Confirm(prompt string, in *os.File) (bool, error) {
	if !isatty.IsTerminal(in.Fd()) && !isatty.IsCygwinTerminal(in.Fd()) {
		return false, nil
	}
	fmt.Printf("%s [y/N]: ", prompt)
	return readYes(in)
}

func readYes(in io.Reader) (bool, error) {
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
