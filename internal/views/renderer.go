package views

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"notionat/backend"
)

// Renderer writes database pages as plain text using a database view.
type Renderer struct {
	view   DatabaseView
	writer io.Writer
	now    time.Time
}

// NewRenderer creates a new view renderer
func NewRenderer(view DatabaseView, writer io.Writer, now time.Time) *Renderer {
	return &Renderer{view: view, writer: writer, now: now}
}

// Render writes pages grouped into sections, or as lanes for a kanban view.
func (r *Renderer) Render(pages []backend.Page) error {
	if r.view.EffectiveType() == TypeKanban {
		lanes, err := KanbanLanes(pages, r.view)
		if err != nil {
			return err
		}
		r.renderLanes(lanes)
		return nil
	}
	r.renderSections(GroupPages(pages, r.view, r.now))
	return nil
}

func (r *Renderer) renderSections(sections []Section) {
	for i, s := range sections {
		if i > 0 {
			_, _ = fmt.Fprintln(r.writer)
		}
		_, _ = fmt.Fprintf(r.writer, "%s (%d)\n", s.Name, len(s.Pages))
		width := titleWidth(s.Pages)
		for _, p := range s.Pages {
			r.renderRow(p, "  ", width)
		}
	}
}

func (r *Renderer) renderLanes(lanes []LaneSection) {
	for i, l := range lanes {
		if i > 0 {
			_, _ = fmt.Fprintln(r.writer)
		}
		_, _ = fmt.Fprintf(r.writer, "%s (%d)\n", l.Lane.Title(), len(l.Pages))
		width := titleWidth(l.Pages)
		for j, p := range l.Pages {
			treeChar := "├─ "
			if j == len(l.Pages)-1 {
				treeChar = "└─ "
			}
			r.renderRow(p, treeChar, width)
		}
	}
}

func (r *Renderer) renderRow(p backend.Page, prefix string, width int) {
	title := PageTitle(p)
	accessory := AccessoryText(p, r.view, r.now)
	if accessory == "" {
		_, _ = fmt.Fprintf(r.writer, "%s%s\n", prefix, title)
		return
	}
	pad := width - lipgloss.Width(title)
	_, _ = fmt.Fprintf(r.writer, "%s%s%s   %s\n", prefix, title, strings.Repeat(" ", pad), accessory)
}

// titleWidth is the display width of the widest title, so accessories line up.
func titleWidth(pages []backend.Page) int {
	w := 0
	for _, p := range pages {
		w = max(w, lipgloss.Width(PageTitle(p)))
	}
	return w
}

// RenderPages is a convenience function for rendering pages with a view
func RenderPages(pages []backend.Page, view DatabaseView, writer io.Writer, now time.Time) error {
	return NewRenderer(view, writer, now).Render(pages)
}
