package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestPromptYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  n  \n", false},
		{"maybe\nyes\n", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got := PromptYesNo("Delete token?", strings.NewReader(tt.input), &out)
			if got != tt.want {
				t.Errorf("PromptYesNo(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "Delete token? (y/n): ") {
				t.Errorf("prompt not written: %q", out.String())
			}
		})
	}
}
