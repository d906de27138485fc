package tui_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"notionat/backend"
	"notionat/internal/cache"
	"notionat/internal/store"
	"notionat/internal/testutil"
	"notionat/internal/tui"
	"notionat/internal/workspace"
)

const dbID = "db1"

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// sendKeyAndWait sends a key message and waits briefly for processing.
func sendKeyAndWait(tm *teatest.TestModel, key tea.KeyMsg) {
	tm.Send(key)
	time.Sleep(30 * time.Millisecond)
}

// sendRunesAndWait sends a rune key message and waits briefly for processing.
func sendRunesAndWait(tm *teatest.TestModel, runes []rune) {
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: runes})
}

func typeText(tm *teatest.TestModel, text string) {
	for _, r := range text {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	time.Sleep(30 * time.Millisecond)
}

// readAll reads all output from a reader and returns as bytes
func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return out
}

func newWorkspace(t *testing.T) (*workspace.Service, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI()
	api.Databases = []backend.Page{{ID: dbID, Object: backend.ObjectDatabase, Title: "Tasks"}}
	api.Pages[dbID] = []backend.Page{
		{
			ID: "p1", Object: backend.ObjectPage, Title: "Write report", ParentDatabaseID: dbID,
			Properties: backend.Properties{
				"done": backend.CheckboxValue{ID: "done", Checked: false},
			},
		},
		{
			ID: "p2", Object: backend.ObjectPage, Title: "Ship release", ParentDatabaseID: dbID,
			Properties: backend.Properties{
				"done": backend.CheckboxValue{ID: "done", Checked: true},
			},
		},
	}
	api.Properties[dbID] = []backend.DatabaseProperty{
		{ID: "done", Name: "Done", Type: backend.PropertyCheckbox},
	}
	api.Content["p1"] = "Quarterly numbers"
	api.SearchHits = []backend.Page{{ID: "p9", Object: backend.ObjectPage, Title: "Found by search"}}

	mem := store.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })
	c := cache.New(mem, cache.WithClock(func() time.Time { return now }))
	return workspace.New(api, c), api
}

func startTUI(t *testing.T, ws tui.Workspace) *teatest.TestModel {
	t.Helper()
	model := tui.New(ws, tui.WithClock(func() time.Time { return now }))
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 24))
	time.Sleep(100 * time.Millisecond)
	return tm
}

// TestTUILaunch verifies the databases pane lists the fetched databases.
func TestTUILaunch(t *testing.T) {
	ws, _ := newWorkspace(t)
	tm := startTUI(t, ws)

	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Recent")) {
		t.Error("expected 'Recent' source")
	}
	if !bytes.Contains(out, []byte("Tasks")) {
		t.Error("expected 'Tasks' database")
	}
}

// TestTUIDatabasePages verifies selecting a database shows its pages.
func TestTUIDatabasePages(t *testing.T) {
	ws, _ := newWorkspace(t)
	tm := startTUI(t, ws)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyDown})
	time.Sleep(100 * time.Millisecond)
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Write report")) {
		t.Error("expected 'Write report' page")
	}
	if !bytes.Contains(out, []byte("Ship release")) {
		t.Error("expected 'Ship release' page")
	}
}

// TestTUIPropertyToggle verifies 1 toggles the first property and persists the view.
func TestTUIPropertyToggle(t *testing.T) {
	ws, _ := newWorkspace(t)
	tm := startTUI(t, ws)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyDown})
	time.Sleep(100 * time.Millisecond)
	sendRunesAndWait(tm, []rune{'1'})
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("☑")) {
		t.Error("expected checked checkbox to be rendered once Done is visible")
	}
	if v := ws.View(context.Background(), dbID); !v.IsVisible("done") {
		t.Errorf("expected Done visible in stored view, got %+v", v)
	}
}

// TestTUIGroupBy verifies g groups pages by the first groupable property.
func TestTUIGroupBy(t *testing.T) {
	ws, _ := newWorkspace(t)
	tm := startTUI(t, ws)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyDown})
	time.Sleep(100 * time.Millisecond)
	sendRunesAndWait(tm, []rune{'g'})
	sendRunesAndWait(tm, []rune{'q'})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))

	if v := ws.View(context.Background(), dbID); v.GroupBy != "done" {
		t.Errorf("expected group by done, got %+v", v)
	}
}

// TestTUIOpenPagePreview verifies Enter shows the page content and records it as recent.
func TestTUIOpenPagePreview(t *testing.T) {
	ws, _ := newWorkspace(t)
	tm := startTUI(t, ws)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyDown})
	time.Sleep(100 * time.Millisecond)
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyTab})
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEsc})
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Quarterly numbers")) {
		t.Error("expected page content in preview")
	}
	recent, err := ws.RecentlyOpened(context.Background(), "")
	if err != nil || len(recent) != 1 || recent[0].Page.ID != "p1" {
		t.Errorf("recent = %+v, %v", recent, err)
	}
}

// TestTUISearch verifies searching from Recent shows API results in a Search section.
func TestTUISearch(t *testing.T) {
	ws, api := newWorkspace(t)
	tm := startTUI(t, ws)

	sendRunesAndWait(tm, []rune{'/'})
	typeText(tm, "found")
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Found by search")) {
		t.Error("expected search hit")
	}
	if !bytes.Contains(out, []byte("Search (1)")) {
		t.Error("expected Search section header")
	}
	if api.CallCount("SearchPages") != 1 {
		t.Errorf("expected one search call, got %d", api.CallCount("SearchPages"))
	}
}

// TestTUISetProperty verifies e applies Property=value to the selected page.
func TestTUISetProperty(t *testing.T) {
	ws, api := newWorkspace(t)
	tm := startTUI(t, ws)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyDown})
	time.Sleep(100 * time.Millisecond)
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyTab})
	sendRunesAndWait(tm, []rune{'e'})
	typeText(tm, "Done=yes")
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Updated Write report")) {
		t.Error("expected update confirmation in status bar")
	}
	if len(api.Patches) != 1 || api.Patches[0].PageID != "p1" {
		t.Errorf("patches = %+v", api.Patches)
	}
}

// TestTUIHelp verifies ? shows the key bindings.
func TestTUIHelp(t *testing.T) {
	ws, _ := newWorkspace(t)
	tm := startTUI(t, ws)

	sendRunesAndWait(tm, []rune{'?'})
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEsc})
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Toggle property visibility")) {
		t.Error("expected help text")
	}
}
