package views

import (
	"errors"
	"time"

	"notionat/backend"
)

// ErrNoKanbanConfig is returned when a kanban layout is requested for a view without lanes.
var ErrNoKanbanConfig = errors.New("view has no kanban configuration")

// Section is a named run of pages in a list layout.
type Section struct {
	Name  string
	Pages []backend.Page
}

// GroupPages splits pages into sections by the text of the group-by property.
// Pages without a value land in the "Recent" section. Sections appear in the
// order their first page appears; pages keep their input order.
func GroupPages(pages []backend.Page, view DatabaseView, now time.Time) []Section {
	if view.GroupBy == "" {
		return []Section{{Name: RecentSection, Pages: pages}}
	}

	var sections []Section
	index := make(map[string]int)
	for _, p := range pages {
		name := PropertyText(p, view.GroupBy, now)
		if name == "" {
			name = RecentSection
		}
		i, ok := index[name]
		if !ok {
			i = len(sections)
			index[name] = i
			sections = append(sections, Section{Name: name})
		}
		sections[i].Pages = append(sections[i].Pages, p)
	}
	return sections
}

// LaneSection is the pages of one kanban lane.
type LaneSection struct {
	Lane  Lane
	Pages []backend.Page
}

// StatusOptionID returns the id of the page's status option, or NullOptionID when unset.
func StatusOptionID(page backend.Page, statusPropertyID string) string {
	if v, ok := page.Properties[statusPropertyID].(backend.SelectValue); ok && v.Option != nil {
		return v.Option.ID
	}
	return backend.NullOptionID
}

// KanbanLanes places pages in the five lanes by their status option. Pages whose
// option is assigned to no lane are left out.
func KanbanLanes(pages []backend.Page, view DatabaseView) ([]LaneSection, error) {
	if view.Kanban == nil || view.Kanban.StatusPropertyID == "" {
		return nil, ErrNoKanbanConfig
	}

	out := make([]LaneSection, len(Lanes))
	pos := make(map[Lane]int, len(Lanes))
	for i, l := range Lanes {
		out[i].Lane = l
		pos[l] = i
	}

	for _, p := range pages {
		lane, ok := view.Kanban.LaneOf(StatusOptionID(p, view.Kanban.StatusPropertyID))
		if !ok {
			continue
		}
		out[pos[lane]].Pages = append(out[pos[lane]].Pages, p)
	}
	return out, nil
}

// FilterPages keeps pages whose title or visible property text contains query,
// ignoring case. An empty query keeps everything.
func FilterPages(pages []backend.Page, view DatabaseView, query string, now time.Time) []backend.Page {
	if query == "" {
		return pages
	}
	var out []backend.Page
	for _, p := range pages {
		if containsFold(p.DisplayTitle(), query) {
			out = append(out, p)
			continue
		}
		for _, kw := range Keywords(p, view, now) {
			if containsFold(kw, query) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
