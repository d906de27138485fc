package notion

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"notionat/backend"
	"notionat/internal/markdown"
)

type rawURL struct {
	URL string `json:"url"`
}

type rawIcon struct {
	Type     string  `json:"type"`
	Emoji    string  `json:"emoji"`
	File     *rawURL `json:"file"`
	External *rawURL `json:"external"`
}

type rawParent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id"`
}

type rawObject struct {
	Object         string                     `json:"object"`
	ID             string                     `json:"id"`
	URL            string                     `json:"url"`
	LastEditedTime time.Time                  `json:"last_edited_time"`
	Icon           *rawIcon                   `json:"icon"`
	Title          []backend.RichText         `json:"title"`
	Parent         rawParent                  `json:"parent"`
	Properties     map[string]json.RawMessage `json:"properties"`
}

func joinPlainText(text []backend.RichText) string {
	var sb strings.Builder
	for _, t := range text {
		sb.WriteString(t.PlainText)
	}
	return sb.String()
}

// decodePage converts a page or database object. Page properties are keyed by
// property id; database objects carry a schema instead, which is not kept here.
func decodePage(data []byte) (backend.Page, error) {
	var raw rawObject
	if err := json.Unmarshal(data, &raw); err != nil {
		return backend.Page{}, fmt.Errorf("decoding notion object: %w", err)
	}

	page := backend.Page{
		ID:               raw.ID,
		Object:           raw.Object,
		URL:              raw.URL,
		LastEditedTime:   raw.LastEditedTime,
		ParentDatabaseID: raw.Parent.DatabaseID,
	}
	if raw.Icon != nil {
		switch raw.Icon.Type {
		case "emoji":
			page.IconEmoji = raw.Icon.Emoji
		case "file":
			if raw.Icon.File != nil {
				page.IconFile = raw.Icon.File.URL
			}
		case "external":
			if raw.Icon.External != nil {
				page.IconExternal = raw.Icon.External.URL
			}
		}
	}

	if raw.Object == backend.ObjectDatabase {
		page.Title = joinPlainText(raw.Title)
		return page, nil
	}

	page.Properties = make(backend.Properties, len(raw.Properties))
	for name, r := range raw.Properties {
		v, err := backend.DecodePropertyValue(r)
		if err != nil {
			return backend.Page{}, fmt.Errorf("page %s property %q: %w", raw.ID, name, err)
		}
		page.Properties[v.PropertyID()] = v
		if t, ok := v.(backend.TitleValue); ok {
			page.Title = joinPlainText(t.Text)
		}
	}
	return page, nil
}

func decodePages(results []json.RawMessage) ([]backend.Page, error) {
	pages := make([]backend.Page, 0, len(results))
	for _, r := range results {
		p, err := decodePage(r)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

type rawOptions struct {
	Options []backend.SelectOption `json:"options"`
}

type rawSchemaProperty struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Type        backend.PropertyType `json:"type"`
	Select      *rawOptions          `json:"select"`
	MultiSelect *rawOptions          `json:"multi_select"`
}

type rawDatabase struct {
	Properties map[string]rawSchemaProperty `json:"properties"`
}

func (db rawDatabase) schema() []backend.DatabaseProperty {
	props := make([]backend.DatabaseProperty, 0, len(db.Properties))
	for name, p := range db.Properties {
		prop := backend.DatabaseProperty{ID: p.ID, Name: p.Name, Type: p.Type}
		if prop.Name == "" {
			prop.Name = name
		}
		switch p.Type {
		case backend.PropertySelect:
			prop.Options = []backend.SelectOption{backend.NullOption}
			if p.Select != nil {
				prop.Options = append(prop.Options, p.Select.Options...)
			}
		case backend.PropertyMultiSelect:
			if p.MultiSelect != nil {
				prop.Options = p.MultiSelect.Options
			}
		}
		props = append(props, prop)
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	return props
}

type rawRichText struct {
	PlainText   string `json:"plain_text"`
	Href        string `json:"href"`
	Annotations struct {
		Bold          bool `json:"bold"`
		Italic        bool `json:"italic"`
		Strikethrough bool `json:"strikethrough"`
		Code          bool `json:"code"`
	} `json:"annotations"`
}

type rawBlockBody struct {
	RichText []rawRichText `json:"rich_text"`
	Checked  bool          `json:"checked"`
	Language string        `json:"language"`
	Icon     *rawIcon      `json:"icon"`
}

// rawBlock is a block object; the body sits under a key named after its type.
type rawBlock struct {
	Type string
	Body rawBlockBody
}

func (b *rawBlock) UnmarshalJSON(data []byte) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if err := json.Unmarshal(env["type"], &b.Type); err != nil {
		return fmt.Errorf("decoding block type: %w", err)
	}
	if body, ok := env[b.Type]; ok && len(body) > 0 {
		// Unknown block types may have bodies of any shape.
		_ = json.Unmarshal(body, &b.Body)
	}
	return nil
}

func renderBlocks(raw []rawBlock) string {
	blocks := make([]markdown.Block, 0, len(raw))
	for _, r := range raw {
		b := markdown.Block{
			Type:     r.Type,
			Checked:  r.Body.Checked,
			Language: r.Body.Language,
		}
		if r.Body.Icon != nil && r.Body.Icon.Type == "emoji" {
			b.Icon = r.Body.Icon.Emoji
		}
		for _, t := range r.Body.RichText {
			b.Spans = append(b.Spans, markdown.Span{
				Text:   t.PlainText,
				Href:   t.Href,
				Bold:   t.Annotations.Bold,
				Italic: t.Annotations.Italic,
				Strike: t.Annotations.Strikethrough,
				Code:   t.Annotations.Code,
			})
		}
		blocks = append(blocks, b)
	}
	return markdown.Render(blocks)
}
