package views

import (
	"encoding/json"
	"errors"
	"testing"

	"notionat/backend"
	"notionat/internal/utils"
)

func patchJSON(t *testing.T, p backend.PropertyPatch) string {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal patch: %v", err)
	}
	return string(data)
}

func TestBuildPatchCheckbox(t *testing.T) {
	prop := backend.DatabaseProperty{ID: "done", Name: "Done", Type: backend.PropertyCheckbox}
	page := backend.Page{Properties: backend.Properties{"done": backend.CheckboxValue{ID: "done", Checked: true}}}

	tests := []struct {
		input string
		want  string
	}{
		{"", `{"done":{"checkbox":false}}`},
		{"yes", `{"done":{"checkbox":true}}`},
		{"off", `{"done":{"checkbox":false}}`},
	}
	for _, tt := range tests {
		p, err := BuildPatch(prop, page, tt.input, nil, now)
		if err != nil {
			t.Fatalf("BuildPatch(%q) error: %v", tt.input, err)
		}
		if got := patchJSON(t, p); got != tt.want {
			t.Errorf("BuildPatch(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if _, err := BuildPatch(prop, page, "maybe", nil, now); err == nil {
		t.Error("invalid checkbox input should fail")
	}
}

func TestBuildPatchSelect(t *testing.T) {
	prop := statusProperty("Todo", "Done")

	p, err := BuildPatch(prop, backend.Page{}, "done", nil, now)
	if err != nil {
		t.Fatalf("BuildPatch error: %v", err)
	}
	if got := patchJSON(t, p); got != `{"status":{"select":{"id":"id-Done"}}}` {
		t.Errorf("select patch = %s", got)
	}

	p, err = BuildPatch(prop, backend.Page{}, "none", nil, now)
	if err != nil {
		t.Fatalf("BuildPatch error: %v", err)
	}
	if got := patchJSON(t, p); got != `{"status":{"select":null}}` {
		t.Errorf("clear patch = %s", got)
	}

	_, err = BuildPatch(prop, backend.Page{}, "Blocked", nil, now)
	var ews *utils.ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Fatalf("err = %v, want *ErrorWithSuggestion", err)
	}
	if ews.Suggestion != "Valid options: Todo, Done" {
		t.Errorf("suggestion = %q", ews.Suggestion)
	}
}

func TestBuildPatchMultiSelectToggles(t *testing.T) {
	prop := backend.DatabaseProperty{ID: "tags", Type: backend.PropertyMultiSelect, Options: []backend.SelectOption{
		{ID: "go", Name: "Go"}, {ID: "cli", Name: "CLI"}, {ID: "web", Name: "Web"},
	}}
	page := backend.Page{Properties: backend.Properties{
		"tags": backend.MultiSelectValue{ID: "tags", Options: []backend.SelectOption{{ID: "go", Name: "Go"}, {ID: "web", Name: "Web"}}},
	}}

	p, err := BuildPatch(prop, page, "+cli, -web, go", nil, now)
	if err != nil {
		t.Fatalf("BuildPatch error: %v", err)
	}
	if got := patchJSON(t, p); got != `{"tags":{"multi_select":[{"id":"cli"}]}}` {
		t.Errorf("multi_select patch = %s", got)
	}
}

func TestBuildPatchPeople(t *testing.T) {
	prop := backend.DatabaseProperty{ID: "owner", Type: backend.PropertyPeople}
	users := []backend.User{{ID: "u1", Name: "Ada"}, {ID: "u2", Name: "Linus"}}

	p, err := BuildPatch(prop, backend.Page{}, "ada,u2", users, now)
	if err != nil {
		t.Fatalf("BuildPatch error: %v", err)
	}
	if got := patchJSON(t, p); got != `{"owner":{"people":[{"id":"u1"},{"id":"u2"}]}}` {
		t.Errorf("people patch = %s", got)
	}

	if _, err := BuildPatch(prop, backend.Page{}, "Grace", users, now); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestBuildPatchDate(t *testing.T) {
	prop := backend.DatabaseProperty{ID: "due", Type: backend.PropertyDate}

	tests := []struct {
		input string
		want  string
	}{
		{"2026-04-01", `{"due":{"date":{"start":"2026-04-01"}}}`},
		{"+2d", `{"due":{"date":{"start":"2026-03-12"}}}`},
		{"today..+1w", `{"due":{"date":{"start":"2026-03-10","end":"2026-03-17"}}}`},
		{"now", `{"due":{"date":{"start":"2026-03-10T12:00:00Z"}}}`},
		{"", `{"due":{"date":null}}`},
	}
	for _, tt := range tests {
		p, err := BuildPatch(prop, backend.Page{}, tt.input, nil, now)
		if err != nil {
			t.Fatalf("BuildPatch(%q) error: %v", tt.input, err)
		}
		if got := patchJSON(t, p); got != tt.want {
			t.Errorf("BuildPatch(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestBuildPatchUnsupported(t *testing.T) {
	prop := backend.DatabaseProperty{ID: "n", Name: "Estimate", Type: backend.PropertyNumber}
	if IsEditable(prop) {
		t.Error("number should not be editable")
	}
	if _, err := BuildPatch(prop, backend.Page{}, "3", nil, now); err == nil {
		t.Error("number property should fail")
	}
}
