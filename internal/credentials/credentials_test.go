package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestManager(k *MockKeyring, env map[string]string) *Manager {
	return NewManager(
		WithKeyring(k),
		WithGetenv(func(key string) string { return env[key] }),
	)
}

// TestGetPriority verifies keyring beats environment beats config
func TestGetPriority(t *testing.T) {
	ctx := context.Background()
	k := NewMockKeyring()
	env := map[string]string{"NOTIONAT_NOTION_TOKEN": "from-env"}
	m := newTestManager(k, env)

	info, err := m.Get(ctx, "notion", "from-config")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if info.Source != SourceEnvironment || info.Token != "from-env" {
		t.Errorf("expected environment token, got %+v", info)
	}

	if err := m.Set(ctx, "notion", "from-keyring"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	info, _ = m.Get(ctx, "notion", "from-config")
	if info.Source != SourceKeyring || info.Token != "from-keyring" {
		t.Errorf("expected keyring token, got %+v", info)
	}

	delete(env, "NOTIONAT_NOTION_TOKEN")
	_ = m.Delete(ctx, "notion")
	info, _ = m.Get(ctx, "notion", "from-config")
	if info.Source != SourceConfig || info.Token != "from-config" {
		t.Errorf("expected config token, got %+v", info)
	}

	info, _ = m.Get(ctx, "notion", "")
	if info.Found || info.Source != SourceNone {
		t.Errorf("expected nothing found, got %+v", info)
	}
}

func TestGetFallsBackWhenKeyringUnavailable(t *testing.T) {
	k := NewMockKeyring()
	k.FailWith(ErrKeyringNotAvailable)
	m := newTestManager(k, map[string]string{"NOTIONAT_NOTION_TOKEN": "env"})

	info, err := m.Get(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if info.Backend != DefaultBackend || info.Source != SourceEnvironment {
		t.Errorf("got %+v", info)
	}
}

func TestSetRejectsEmptyToken(t *testing.T) {
	m := newTestManager(NewMockKeyring(), nil)
	if err := m.Set(context.Background(), "notion", "   "); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	m := newTestManager(NewMockKeyring(), nil)
	if err := m.Delete(context.Background(), "notion"); err != nil {
		t.Errorf("Delete() on missing token = %v", err)
	}
}

func TestBackendNormalization(t *testing.T) {
	if got := serviceName("  Notion "); got != "notionat-notion" {
		t.Errorf("serviceName = %q", got)
	}
	if got := EnvVar("Notion"); got != "NOTIONAT_NOTION_TOKEN" {
		t.Errorf("EnvVar = %q", got)
	}
}

func TestCredentialInfoJSONOmitsToken(t *testing.T) {
	info := &CredentialInfo{Source: SourceKeyring, Backend: "notion", Token: "secret_x", Found: true}
	data, err := info.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if strings.Contains(string(data), "secret_x") {
		t.Error("JSON leaked the token")
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out["source"] != "keyring" || out["found"] != true {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestPromptToken(t *testing.T) {
	var out bytes.Buffer
	token, err := PromptToken(strings.NewReader("  secret_abc \n"), &out, "notion")
	if err != nil {
		t.Fatalf("PromptToken() error = %v", err)
	}
	if token != "secret_abc" {
		t.Errorf("token = %q", token)
	}
	if !strings.Contains(out.String(), "notion integration token") {
		t.Errorf("prompt = %q", out.String())
	}

	if _, err := PromptToken(strings.NewReader(""), &out, "notion"); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}
