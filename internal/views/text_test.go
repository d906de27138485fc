package views

import (
	"strings"
	"testing"
	"time"

	"notionat/backend"
)

func ptr[T any](v T) *T { return &v }

func TestPropertyText(t *testing.T) {
	page := backend.Page{Properties: backend.Properties{
		"title":     backend.TitleValue{ID: "title"},
		"text":      backend.RichTextValue{ID: "text", Text: []backend.RichText{{PlainText: "first"}, {PlainText: "second"}}},
		"num":       backend.NumberValue{ID: "num", Number: ptr(1234567.0)},
		"small":     backend.NumberValue{ID: "small", Number: ptr(3.0)},
		"nonum":     backend.NumberValue{ID: "nonum"},
		"done":      backend.CheckboxValue{ID: "done", Checked: true},
		"todo":      backend.CheckboxValue{ID: "todo"},
		"status":    backend.SelectValue{ID: "status", Option: &backend.SelectOption{ID: "o1", Name: "Doing"}},
		"nostatus":  backend.SelectValue{ID: "nostatus"},
		"tags":      backend.MultiSelectValue{ID: "tags", Options: []backend.SelectOption{{Name: "go"}, {Name: "cli"}}},
		"owners":    backend.PeopleValue{ID: "owners", People: []backend.User{{Name: "Ada"}, {Name: "Linus"}}},
		"due":       backend.DateValue{ID: "due", Date: &backend.DateRange{Start: "2026-03-07"}},
		"link":      backend.URLValue{ID: "link", URL: "https://example.com"},
		"mail":      backend.EmailValue{ID: "mail", Email: "a@example.com"},
		"phone":     backend.PhoneNumberValue{ID: "phone", PhoneNumber: "+1 555"},
		"fstring":   backend.FormulaValue{ID: "fstring", Result: backend.FormulaResult{Type: "string", String: ptr("computed")}},
		"fbool":     backend.FormulaValue{ID: "fbool", Result: backend.FormulaResult{Type: "boolean", Boolean: ptr(true)}},
		"fnumber":   backend.FormulaValue{ID: "fnumber", Result: backend.FormulaResult{Type: "number", Number: ptr(2500.0)}},
		"relation":  backend.UnsupportedValue{ID: "relation", Type: "relation"},
	}}

	tests := []struct {
		id   string
		want string
	}{
		{"title", "Untitled"},
		{"text", "first"},
		{"num", "1,234,567"},
		{"small", "3"},
		{"nonum", ""},
		{"done", "☑"},
		{"todo", "☐"},
		{"status", "Doing"},
		{"nostatus", ""},
		{"tags", "go, cli"},
		{"owners", "Ada, Linus"},
		{"due", "3 days ago"},
		{"link", "https://example.com"},
		{"mail", "a@example.com"},
		{"phone", "+1 555"},
		{"fstring", "computed"},
		{"fbool", "☑"},
		{"fnumber", "2,500"},
		{"relation", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := PropertyText(page, tt.id, now); got != tt.want {
				t.Errorf("PropertyText(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestAccessoryText(t *testing.T) {
	page := backend.Page{
		LastEditedTime: now.Add(-3 * time.Minute),
		Properties: backend.Properties{
			"status": backend.SelectValue{ID: "status", Option: &backend.SelectOption{Name: "Doing"}},
			"done":   backend.CheckboxValue{ID: "done", Checked: true},
			"empty":  backend.RichTextValue{ID: "empty"},
		},
	}

	view := DatabaseView{VisibleProperties: []string{"done", "empty", "status"}}
	if got := AccessoryText(page, view, now); got != "☑  |  Doing" {
		t.Errorf("AccessoryText = %q", got)
	}
	if got := Keywords(page, view, now); strings.Join(got, ",") != "☑,Doing" {
		t.Errorf("Keywords = %v", got)
	}

	if got := AccessoryText(page, DatabaseView{}, now); got != "3 minutes ago" {
		t.Errorf("fallback AccessoryText = %q", got)
	}
}

func TestPageTitle(t *testing.T) {
	if got := PageTitle(backend.Page{Title: "Notes", IconEmoji: "📓"}); got != "📓 Notes" {
		t.Errorf("PageTitle = %q", got)
	}
	if got := PageTitle(backend.Page{Title: "  "}); got != "Untitled" {
		t.Errorf("PageTitle = %q", got)
	}
}

func TestSupportedAndGroupableProperties(t *testing.T) {
	props := []backend.DatabaseProperty{
		{ID: "t", Type: backend.PropertyTitle},
		{ID: "s", Type: backend.PropertySelect},
		{ID: "m", Type: backend.PropertyMultiSelect},
		{ID: "p", Type: backend.PropertyPeople},
		{ID: "r", Type: "relation"},
	}

	ids := func(ps []backend.DatabaseProperty) string {
		var out []string
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return strings.Join(out, ",")
	}
	if got := ids(SupportedProperties(props)); got != "s,m,p" {
		t.Errorf("SupportedProperties = %s", got)
	}
	if got := ids(GroupableProperties(props)); got != "s" {
		t.Errorf("GroupableProperties = %s", got)
	}
	if got := ids(SelectProperties(props)); got != "s" {
		t.Errorf("SelectProperties = %s", got)
	}
}
