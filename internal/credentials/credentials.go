// Package credentials provides secure storage and retrieval of API tokens
// using the OS-native keyring, with fallback to environment variables and
// the config file.
package credentials

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// DefaultBackend is the only remote the tool talks to.
const DefaultBackend = "notion"

// Source indicates where credentials were retrieved from
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceConfig      Source = "config"
	SourceNone        Source = "none"
)

// ErrNoInput is returned when a prompt reads nothing.
var ErrNoInput = errors.New("no input received")

// CredentialInfo contains credential information returned by Get()
type CredentialInfo struct {
	Source  Source // Where the token came from
	Backend string // Backend name (e.g., "notion")
	Token   string // API token (never printed)
	Found   bool   // Whether a token was found
}

// JSON serializes the credential info to JSON (token excluded)
func (c *CredentialInfo) JSON() ([]byte, error) {
	output := struct {
		Backend string `json:"backend"`
		Source  string `json:"source"`
		Found   bool   `json:"found"`
	}{
		Backend: c.Backend,
		Source:  string(c.Source),
		Found:   c.Found,
	}
	return json.Marshal(output)
}

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, password string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// Manager handles credential operations
type Manager struct {
	keyring Keyring
	getenv  func(string) string
}

// ManagerOption is a functional option for Manager
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// WithGetenv replaces the environment lookup.
func WithGetenv(getenv func(string) string) ManagerOption {
	return func(m *Manager) {
		m.getenv = getenv
	}
}

// NewManager creates a new credential manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring: &systemKeyring{},
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// normalizeBackend normalizes backend names to lowercase
func normalizeBackend(backend string) string {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		return DefaultBackend
	}
	return backend
}

// serviceName returns the keyring service name for a backend
func serviceName(backend string) string {
	return fmt.Sprintf("notionat-%s", normalizeBackend(backend))
}

// accountName is the keyring account the token is stored under.
const accountName = "token"

// EnvVar returns the environment variable holding the backend token,
// e.g. NOTIONAT_NOTION_TOKEN.
func EnvVar(backend string) string {
	return fmt.Sprintf("NOTIONAT_%s_TOKEN", strings.ToUpper(normalizeBackend(backend)))
}

// Set stores a token in the keyring
func (m *Manager) Set(ctx context.Context, backend, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	return m.keyring.Set(serviceName(backend), accountName, token)
}

// Get resolves the token: keyring first, then environment, then the
// token from the config file.
func (m *Manager) Get(ctx context.Context, backend, configToken string) (*CredentialInfo, error) {
	backend = normalizeBackend(backend)

	// Priority 1: keyring
	token, err := m.keyring.Get(serviceName(backend), accountName)
	if err == nil && token != "" {
		return &CredentialInfo{Source: SourceKeyring, Backend: backend, Token: token, Found: true}, nil
	}

	// Priority 2: environment
	if token := strings.TrimSpace(m.getenv(EnvVar(backend))); token != "" {
		return &CredentialInfo{Source: SourceEnvironment, Backend: backend, Token: token, Found: true}, nil
	}

	// Priority 3: config file
	if token := strings.TrimSpace(configToken); token != "" {
		return &CredentialInfo{Source: SourceConfig, Backend: backend, Token: token, Found: true}, nil
	}

	return &CredentialInfo{Source: SourceNone, Backend: backend}, nil
}

// Delete removes the token from the keyring
func (m *Manager) Delete(ctx context.Context, backend string) error {
	err := m.keyring.Delete(serviceName(backend), accountName)
	// Idempotent: return nil if not found
	if err != nil && (errors.Is(err, ErrNotFound) || strings.Contains(err.Error(), "not found")) {
		return nil
	}
	return err
}

// PromptToken asks for a token. Input is hidden when reader is a terminal.
func PromptToken(reader io.Reader, writer io.Writer, backend string) (string, error) {
	_, _ = fmt.Fprintf(writer, "Enter %s integration token: ", normalizeBackend(backend))

	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(writer)
		if err != nil {
			return "", err
		}
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, nil
		}
		return "", ErrNoInput
	}

	// Non-TTY input (pipes, tests): read a line
	scanner := bufio.NewScanner(reader)
	if scanner.Scan() {
		if token := strings.TrimSpace(scanner.Text()); token != "" {
			return token, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrNoInput
}
