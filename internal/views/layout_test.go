package views

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"notionat/backend"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func selectPage(id, title, optionID, optionName string) backend.Page {
	p := backend.Page{
		ID:     id,
		Object: backend.ObjectPage,
		Title:  title,
		Properties: backend.Properties{
			"title": backend.TitleValue{ID: "title", Text: []backend.RichText{{PlainText: title}}},
		},
	}
	if optionID != "" {
		p.Properties["status"] = backend.SelectValue{ID: "status", Option: &backend.SelectOption{ID: optionID, Name: optionName}}
	} else {
		p.Properties["status"] = backend.SelectValue{ID: "status"}
	}
	return p
}

func pageIDs(pages []backend.Page) []string {
	var ids []string
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestGroupPagesWithoutGroupBy(t *testing.T) {
	pages := []backend.Page{selectPage("1", "A", "o1", "Todo"), selectPage("2", "B", "", "")}
	sections := GroupPages(pages, DatabaseView{}, now)
	if len(sections) != 1 || sections[0].Name != RecentSection || len(sections[0].Pages) != 2 {
		t.Errorf("sections = %+v", sections)
	}
}

func TestGroupPagesOrderOfFirstAppearance(t *testing.T) {
	pages := []backend.Page{
		selectPage("1", "A", "o2", "Doing"),
		selectPage("2", "B", "", ""),
		selectPage("3", "C", "o1", "Todo"),
		selectPage("4", "D", "o2", "Doing"),
	}
	sections := GroupPages(pages, DatabaseView{GroupBy: "status"}, now)

	var names []string
	for _, s := range sections {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "Doing,Recent,Todo" {
		t.Errorf("section order = %v", names)
	}
	if got := pageIDs(sections[0].Pages); strings.Join(got, ",") != "1,4" {
		t.Errorf("Doing pages = %v", got)
	}
}

func TestKanbanLanes(t *testing.T) {
	view := DatabaseView{
		Type: TypeKanban,
		Kanban: &KanbanConfig{StatusPropertyID: "status", Lanes: map[Lane][]string{
			LaneBacklog:    {backend.NullOptionID},
			LaneNotStarted: {"todo"},
			LaneCompleted:  {"done"},
		}},
	}
	pages := []backend.Page{
		selectPage("1", "A", "todo", "Todo"),
		selectPage("2", "B", "", ""),
		selectPage("3", "C", "done", "Done"),
		selectPage("4", "D", "archived", "Archived"),
		{ID: "5", Title: "no status property"},
	}

	lanes, err := KanbanLanes(pages, view)
	if err != nil {
		t.Fatalf("KanbanLanes error: %v", err)
	}
	if len(lanes) != len(Lanes) {
		t.Fatalf("got %d lanes, want %d", len(lanes), len(Lanes))
	}
	want := map[Lane]string{
		LaneBacklog:    "2,5",
		LaneNotStarted: "1",
		LaneStarted:    "",
		LaneCompleted:  "3",
		LaneCanceled:   "",
	}
	for i, l := range lanes {
		if l.Lane != Lanes[i] {
			t.Errorf("lane %d = %q, want %q", i, l.Lane, Lanes[i])
		}
		if got := strings.Join(pageIDs(l.Pages), ","); got != want[l.Lane] {
			t.Errorf("lane %s pages = %q, want %q", l.Lane, got, want[l.Lane])
		}
	}
}

func TestKanbanLanesRequiresConfig(t *testing.T) {
	_, err := KanbanLanes(nil, DatabaseView{Type: TypeKanban})
	if !errors.Is(err, ErrNoKanbanConfig) {
		t.Errorf("err = %v, want ErrNoKanbanConfig", err)
	}
}

func TestFilterPages(t *testing.T) {
	pages := []backend.Page{
		selectPage("1", "Write report", "o1", "Todo"),
		selectPage("2", "Plan sprint", "o2", "Doing"),
	}
	view := DatabaseView{VisibleProperties: []string{"status"}}

	if got := pageIDs(FilterPages(pages, view, "REPORT", now)); strings.Join(got, ",") != "1" {
		t.Errorf("title match = %v", got)
	}
	if got := pageIDs(FilterPages(pages, view, "doing", now)); strings.Join(got, ",") != "2" {
		t.Errorf("property match = %v", got)
	}
	if got := FilterPages(pages, view, "", now); len(got) != 2 {
		t.Errorf("empty query kept %d pages", len(got))
	}
}

func TestRendererList(t *testing.T) {
	pages := []backend.Page{
		selectPage("1", "Alpha", "o1", "Todo"),
		selectPage("2", "Beta", "", ""),
	}
	pages[1].IconEmoji = "📝"
	pages[1].LastEditedTime = now.Add(-2 * time.Hour)

	var buf bytes.Buffer
	err := RenderPages(pages, DatabaseView{VisibleProperties: []string{"status"}}, &buf, now)
	if err != nil {
		t.Fatalf("RenderPages error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Recent (2)", "Alpha", "Todo", "📝 Beta", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRendererKanban(t *testing.T) {
	view := DatabaseView{
		Type: TypeKanban,
		Kanban: &KanbanConfig{StatusPropertyID: "status", Lanes: map[Lane][]string{
			LaneNotStarted: {"o1"},
		}},
	}
	pages := []backend.Page{selectPage("1", "Alpha", "o1", "Todo"), selectPage("2", "Beta", "o1", "Todo")}

	var buf bytes.Buffer
	if err := RenderPages(pages, view, &buf, now); err != nil {
		t.Fatalf("RenderPages error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Backlog (0)", "To Do (2)", "├─ Alpha", "└─ Beta", "Canceled (0)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
