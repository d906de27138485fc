// Package views holds per-database view preferences and the logic that turns
// database pages into list sections, kanban lanes and display text.
package views

import (
	"slices"

	"notionat/backend"
)

// ViewType selects how database pages are laid out.
type ViewType string

const (
	TypeList   ViewType = "list"
	TypeKanban ViewType = "kanban"
)

// Lane is one of the five fixed kanban lanes.
type Lane string

const (
	LaneBacklog    Lane = "backlog"
	LaneNotStarted Lane = "not_started"
	LaneStarted    Lane = "started"
	LaneCompleted  Lane = "completed"
	LaneCanceled   Lane = "canceled"
)

// Lanes lists the kanban lanes in board order.
var Lanes = []Lane{LaneBacklog, LaneNotStarted, LaneStarted, LaneCompleted, LaneCanceled}

// Title returns the board heading for the lane.
func (l Lane) Title() string {
	switch l {
	case LaneBacklog:
		return "Backlog"
	case LaneNotStarted:
		return "To Do"
	case LaneStarted:
		return "In Progress"
	case LaneCompleted:
		return "Completed"
	case LaneCanceled:
		return "Canceled"
	}
	return string(l)
}

// ParseLane validates a lane name.
func ParseLane(s string) (Lane, bool) {
	for _, l := range Lanes {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// KanbanConfig maps status select options onto lanes.
type KanbanConfig struct {
	StatusPropertyID string            `json:"property_id"`
	Lanes            map[Lane][]string `json:"lanes"`
}

// LaneOf returns the lane holding optionID.
func (k *KanbanConfig) LaneOf(optionID string) (Lane, bool) {
	for _, l := range Lanes {
		if slices.Contains(k.Lanes[l], optionID) {
			return l, true
		}
	}
	return "", false
}

func (k *KanbanConfig) clone() *KanbanConfig {
	if k == nil {
		return nil
	}
	out := &KanbanConfig{StatusPropertyID: k.StatusPropertyID, Lanes: make(map[Lane][]string, len(k.Lanes))}
	for l, ids := range k.Lanes {
		out.Lanes[l] = slices.Clone(ids)
	}
	return out
}

// DatabaseView is the stored display preference for one database.
// The zero value is the default view: list layout, nothing visible, no grouping.
type DatabaseView struct {
	Name              string        `json:"name,omitempty"`
	Type              ViewType      `json:"type,omitempty"`
	VisibleProperties []string      `json:"properties,omitempty"`
	GroupBy           string        `json:"group_by,omitempty"`
	Kanban            *KanbanConfig `json:"kanban,omitempty"`
}

// EffectiveType returns the layout, defaulting to list.
func (v DatabaseView) EffectiveType() ViewType {
	if v.Type == "" {
		return TypeList
	}
	return v.Type
}

// IsVisible reports whether the property is shown.
func (v DatabaseView) IsVisible(propertyID string) bool {
	return slices.Contains(v.VisibleProperties, propertyID)
}

// Clone returns a deep copy sharing no slices or maps with v.
func (v DatabaseView) Clone() DatabaseView {
	out := v
	out.VisibleProperties = slices.Clone(v.VisibleProperties)
	out.Kanban = v.Kanban.clone()
	return out
}

// Mutator derives a new view from the previous one. Mutators never modify their argument.
type Mutator func(DatabaseView) DatabaseView

// ToggleProperty shows a hidden property or hides a visible one.
// Visible properties keep the order in which they were shown.
func ToggleProperty(propertyID string) Mutator {
	return func(prev DatabaseView) DatabaseView {
		next := prev.Clone()
		if i := slices.Index(next.VisibleProperties, propertyID); i >= 0 {
			next.VisibleProperties = slices.Delete(next.VisibleProperties, i, i+1)
		} else {
			next.VisibleProperties = append(next.VisibleProperties, propertyID)
		}
		if len(next.VisibleProperties) == 0 {
			next.VisibleProperties = nil
		}
		return next
	}
}

// ToggleGroupBy groups by the property, or removes grouping when it is already the group-by.
func ToggleGroupBy(propertyID string) Mutator {
	return func(prev DatabaseView) DatabaseView {
		next := prev.Clone()
		if next.GroupBy == propertyID {
			next.GroupBy = ""
		} else {
			next.GroupBy = propertyID
		}
		return next
	}
}

// SetKanban replaces the kanban configuration wholesale and switches to the kanban layout.
// A nil config clears it and falls back to the list layout.
func SetKanban(cfg *KanbanConfig) Mutator {
	return func(prev DatabaseView) DatabaseView {
		next := prev.Clone()
		next.Kanban = cfg.clone()
		if cfg == nil {
			next.Type = TypeList
		} else {
			next.Type = TypeKanban
		}
		return next
	}
}

// SetType changes the layout without touching the kanban configuration.
func SetType(t ViewType) Mutator {
	return func(prev DatabaseView) DatabaseView {
		next := prev.Clone()
		next.Type = t
		return next
	}
}

// Rename sets the view name.
func Rename(name string) Mutator {
	return func(prev DatabaseView) DatabaseView {
		next := prev.Clone()
		next.Name = name
		return next
	}
}

// Chain applies mutators left to right.
func Chain(ms ...Mutator) Mutator {
	return func(prev DatabaseView) DatabaseView {
		next := prev.Clone()
		for _, m := range ms {
			next = m(next)
		}
		return next
	}
}

// DefaultKanbanConfig proposes lanes for a select property: the empty value goes to
// backlog, the last option is completed, the first option is not started (unless it
// is also the last) and every other option is started. Canceled starts empty.
func DefaultKanbanConfig(status backend.DatabaseProperty) *KanbanConfig {
	var options []string
	for _, o := range status.Options {
		if o.ID != backend.NullOptionID {
			options = append(options, o.ID)
		}
	}

	lanes := map[Lane][]string{
		LaneBacklog:    {backend.NullOptionID},
		LaneNotStarted: {},
		LaneStarted:    {},
		LaneCompleted:  {},
		LaneCanceled:   {},
	}
	if len(options) > 0 {
		last := options[len(options)-1]
		lanes[LaneCompleted] = []string{last}
		if options[0] != last {
			lanes[LaneNotStarted] = []string{options[0]}
		}
		for _, id := range options {
			if id != last && id != options[0] {
				lanes[LaneStarted] = append(lanes[LaneStarted], id)
			}
		}
	}
	return &KanbanConfig{StatusPropertyID: status.ID, Lanes: lanes}
}

// MoveOption returns a copy of cfg with optionID assigned to lane only.
func MoveOption(cfg *KanbanConfig, optionID string, lane Lane) *KanbanConfig {
	out := cfg.clone()
	if out == nil {
		out = &KanbanConfig{}
	}
	if out.Lanes == nil {
		out.Lanes = make(map[Lane][]string, len(Lanes))
	}
	for l, ids := range out.Lanes {
		out.Lanes[l] = slices.DeleteFunc(ids, func(id string) bool { return id == optionID })
	}
	out.Lanes[lane] = append(out.Lanes[lane], optionID)
	return out
}
