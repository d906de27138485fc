package tui

import (
	"errors"
	"fmt"
	"testing"

	"notionat/internal/cache"
)

func TestRefreshErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "empty result", err: cache.ErrEmptyResult, want: ""},
		{name: "superseded", err: cache.ErrSuperseded, want: ""},
		{name: "wrapped superseded", err: fmt.Errorf("pages: %w", cache.ErrSuperseded), want: ""},
		{name: "fetch failure", err: errors.New("connection refused"), want: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Model{}
			m.Update(databasesMsg{err: tt.err})
			if m.status != tt.want {
				t.Errorf("status = %q, want %q", m.status, tt.want)
			}
		})
	}
}
