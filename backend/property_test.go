package backend

import (
	"encoding/json"
	"testing"
	"time"
)

const samplePageJSON = `{
	"id": "p1",
	"object": "page",
	"url": "https://www.notion.so/p1",
	"title": "Ship it",
	"last_edited_time": "2026-01-02T03:04:05Z",
	"properties": {
		"title": {"id": "title", "type": "title", "title": [{"plain_text": "Ship it"}]},
		"st": {"id": "st", "type": "select", "select": {"id": "o1", "name": "Doing", "color": "blue"}},
		"tg": {"id": "tg", "type": "multi_select", "multi_select": [{"id": "a", "name": "A"}, {"id": "b", "name": "B"}]},
		"dn": {"id": "dn", "type": "checkbox", "checkbox": true},
		"est": {"id": "est", "type": "number", "number": 1250.5},
		"due": {"id": "due", "type": "date", "date": {"start": "2026-01-10"}},
		"own": {"id": "own", "type": "people", "people": [{"id": "u1", "name": "Sam"}]},
		"lnk": {"id": "lnk", "type": "url", "url": null},
		"fx": {"id": "fx", "type": "formula", "formula": {"type": "number", "number": 3}},
		"rel": {"id": "rel", "type": "relation", "relation": [{"id": "x"}]}
	}
}`

func decodeSamplePage(t *testing.T) Page {
	t.Helper()
	var p Page
	if err := json.Unmarshal([]byte(samplePageJSON), &p); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	return p
}

// TestDecodeTaggedVariants verifies each known property type decodes to its concrete value.
func TestDecodeTaggedVariants(t *testing.T) {
	p := decodeSamplePage(t)

	if len(p.Properties) != 10 {
		t.Fatalf("decoded %d properties, want 10", len(p.Properties))
	}

	sel, ok := p.Properties["st"].(SelectValue)
	if !ok || sel.Option == nil || sel.Option.Name != "Doing" {
		t.Errorf("st = %#v, want SelectValue Doing", p.Properties["st"])
	}
	ms, ok := p.Properties["tg"].(MultiSelectValue)
	if !ok || len(ms.Options) != 2 {
		t.Errorf("tg = %#v, want 2 options", p.Properties["tg"])
	}
	if cb, ok := p.Properties["dn"].(CheckboxValue); !ok || !cb.Checked {
		t.Errorf("dn = %#v, want checked", p.Properties["dn"])
	}
	if n, ok := p.Properties["est"].(NumberValue); !ok || n.Number == nil || *n.Number != 1250.5 {
		t.Errorf("est = %#v", p.Properties["est"])
	}
	if u, ok := p.Properties["lnk"].(URLValue); !ok || u.URL != "" {
		t.Errorf("lnk = %#v, want empty URLValue", p.Properties["lnk"])
	}
	if f, ok := p.Properties["fx"].(FormulaValue); !ok || f.Result.Type != "number" || *f.Result.Number != 3 {
		t.Errorf("fx = %#v", p.Properties["fx"])
	}
	un, ok := p.Properties["rel"].(UnsupportedValue)
	if !ok {
		t.Fatalf("rel = %#v, want UnsupportedValue", p.Properties["rel"])
	}
	if un.PropertyType() != "relation" || len(un.Raw) == 0 {
		t.Errorf("unsupported value lost its type or raw payload: %#v", un)
	}
}

// TestPageCacheRoundTrip verifies a page survives being serialized into the cache.
func TestPageCacheRoundTrip(t *testing.T) {
	p := decodeSamplePage(t)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var back Page
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if back.ID != p.ID || !back.LastEditedTime.Equal(p.LastEditedTime) {
		t.Errorf("page header changed: %+v", back)
	}
	if len(back.Properties) != len(p.Properties) {
		t.Fatalf("round trip has %d properties, want %d", len(back.Properties), len(p.Properties))
	}
	for id, v := range p.Properties {
		if back.Properties[id].PropertyType() != v.PropertyType() {
			t.Errorf("property %s type = %s, want %s", id, back.Properties[id].PropertyType(), v.PropertyType())
		}
	}
	if _, ok := back.Properties["rel"].(UnsupportedValue); !ok {
		t.Error("unsupported property did not survive round trip")
	}
}

func TestDateRangeStartTime(t *testing.T) {
	d := DateRange{Start: "2026-01-10"}
	got, ok := d.StartTime()
	if !ok || !got.Equal(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartTime = %v, %v", got, ok)
	}
	if _, ok := (DateRange{Start: "soon"}).StartTime(); ok {
		t.Error("StartTime accepted an invalid date")
	}
}

func TestSelectPatchClearsWithNullOption(t *testing.T) {
	p := SelectPatch("st", NullOptionID)
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"st":{"select":null}}` {
		t.Errorf("SelectPatch = %s", data)
	}

	data, _ = json.Marshal(MultiSelectPatch("tg", []string{"a"}).Merge(CheckboxPatch("dn", false)))
	if string(data) != `{"dn":{"checkbox":false},"tg":{"multi_select":[{"id":"a"}]}}` {
		t.Errorf("merged patch = %s", data)
	}
}

func TestFindProperty(t *testing.T) {
	props := []DatabaseProperty{{ID: "st", Name: "Status"}, {ID: "tg", Name: "Tags"}}
	if p := FindProperty(props, "tg"); p == nil || p.Name != "Tags" {
		t.Errorf("FindProperty by id = %v", p)
	}
	if p := FindProperty(props, "status"); p == nil || p.ID != "st" {
		t.Errorf("FindProperty by name = %v", p)
	}
	if p := FindProperty(props, "missing"); p != nil {
		t.Errorf("FindProperty(missing) = %v", p)
	}
}
