package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrSelectionCancelled is returned when the user cancels a selection.
var ErrSelectionCancelled = errors.New("selection cancelled")

// PromptYesNo asks a yes/no question until it gets an answer. EOF counts as "no".
func PromptYesNo(prompt string, reader io.Reader, writer io.Writer) bool {
	scanner := bufio.NewScanner(reader)

	for {
		_, _ = fmt.Fprintf(writer, "%s (y/n): ", prompt)
		if !scanner.Scan() {
			return false
		}

		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}
