package credentials

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// ErrKeyringNotAvailable is returned when the OS keyring cannot be reached
// (no Secret Service on headless Linux, for example).
var ErrKeyringNotAvailable = errors.New("system keyring not available")

// ErrNotFound is returned when no secret is stored for a service/account.
var ErrNotFound = errors.New("credential not found")

// MockKeyring is a test implementation of the Keyring interface
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> password
	err   error
}

// NewMockKeyring creates a new mock keyring for testing
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// FailWith makes every subsequent call return err.
func (m *MockKeyring) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Set stores a password in the mock keyring
func (m *MockKeyring) Set(service, account, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = password
	return nil
}

// Get retrieves a password from the mock keyring
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return "", m.err
	}
	if accounts, ok := m.store[service]; ok {
		if password, ok := accounts[account]; ok {
			return password, nil
		}
	}
	return "", fmt.Errorf("%s/%s: %w", service, account, ErrNotFound)
}

// Delete removes a password from the mock keyring
func (m *MockKeyring) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if accounts, ok := m.store[service]; ok {
		if _, ok := accounts[account]; ok {
			delete(accounts, account)
			return nil
		}
	}
	return fmt.Errorf("%s/%s: %w", service, account, ErrNotFound)
}

// systemKeyring is the real keyring implementation using the OS keyring
type systemKeyring struct{}

func wrapKeyringErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, keyring.ErrUnsupportedPlatform):
		return ErrKeyringNotAvailable
	default:
		// go-keyring surfaces D-Bus failures as plain errors.
		return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
	}
}

// Set stores a password in the system keyring
func (s *systemKeyring) Set(service, account, password string) error {
	return wrapKeyringErr(keyring.Set(service, account, password))
}

// Get retrieves a password from the system keyring
func (s *systemKeyring) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	return secret, wrapKeyringErr(err)
}

// Delete removes a password from the system keyring
func (s *systemKeyring) Delete(service, account string) error {
	return wrapKeyringErr(keyring.Delete(service, account))
}
