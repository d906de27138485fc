package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// CLIHandler handles CLI commands for credential management
type CLIHandler struct {
	manager *Manager
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// NewCLIHandler creates a new CLI handler for credential commands
func NewCLIHandler(manager *Manager, stdin io.Reader, stdout, stderr io.Writer) *CLIHandler {
	return &CLIHandler{
		manager: manager,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// Set stores a token in the keyring, prompting for it when token is empty.
func (h *CLIHandler) Set(ctx context.Context, backend, token string) error {
	if token == "" {
		var err error
		token, err = PromptToken(h.stdin, h.stdout, backend)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	if err := h.manager.Set(ctx, backend, token); err != nil {
		if errors.Is(err, ErrKeyringNotAvailable) {
			return h.keyringNotAvailableError(backend)
		}
		return fmt.Errorf("failed to store token: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "Token stored in system keyring\n")
	return nil
}

// keyringNotAvailableError returns a helpful error message when keyring is not available
func (h *CLIHandler) keyringNotAvailableError(backend string) error {
	return fmt.Errorf(`%w.

Alternative: set the token in the environment instead:
  export %s="secret_..."

or add it to the config file under notion.token.
Run 'notionat auth status' to verify the token is detected.`, ErrKeyringNotAvailable, EnvVar(backend))
}

// Status reports where the token would be read from.
func (h *CLIHandler) Status(ctx context.Context, backend, configToken string, jsonOutput bool) error {
	info, err := h.manager.Get(ctx, backend, configToken)
	if err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}

	if jsonOutput {
		jsonBytes, err := info.JSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(h.stdout, string(jsonBytes))
		return nil
	}

	if !info.Found {
		_, _ = fmt.Fprintf(h.stdout, "No token found for %s\n", info.Backend)
		_, _ = fmt.Fprintf(h.stdout, "Searched:\n")
		_, _ = fmt.Fprintf(h.stdout, "  - System keyring: Not found\n")
		_, _ = fmt.Fprintf(h.stdout, "  - Environment (%s): Not set\n", EnvVar(info.Backend))
		_, _ = fmt.Fprintf(h.stdout, "  - Config file: Not set\n")
		_, _ = fmt.Fprintf(h.stdout, "\nSuggestion: Run 'notionat auth set'\n")
		return nil
	}

	_, _ = fmt.Fprintf(h.stdout, "Backend: %s\n", info.Backend)
	_, _ = fmt.Fprintf(h.stdout, "Source: %s\n", info.Source)
	_, _ = fmt.Fprintf(h.stdout, "Token: ******** (hidden)\n")
	_, _ = fmt.Fprintf(h.stdout, "Status: Available\n")
	return nil
}

// Delete removes the token from the keyring
func (h *CLIHandler) Delete(ctx context.Context, backend string) error {
	if err := h.manager.Delete(ctx, backend); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "Token removed from system keyring\n")
	return nil
}
