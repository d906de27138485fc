package views

import (
	"slices"
	"strings"
	"time"

	"notionat/backend"
	"notionat/internal/utils"
)

// EditableTypes are the property types BuildPatch can write.
var EditableTypes = []backend.PropertyType{
	backend.PropertyCheckbox,
	backend.PropertySelect,
	backend.PropertyMultiSelect,
	backend.PropertyDate,
	backend.PropertyPeople,
}

// IsEditable reports whether BuildPatch supports the property.
func IsEditable(prop backend.DatabaseProperty) bool {
	return slices.Contains(EditableTypes, prop.Type)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// BuildPatch turns user input into a property patch for page.
//
//	checkbox      "" toggles; true/false, yes/no, on/off set it
//	select        option name or id; "" or "none" clears
//	multi_select  comma list of names; "+x" adds, "-x" removes, bare "x" toggles
//	people        like multi_select, matched against users by name or id
//	date          YYYY-MM-DD, today, +7d, "now", or "start..end"; "" clears
func BuildPatch(prop backend.DatabaseProperty, page backend.Page, input string, users []backend.User, now time.Time) (backend.PropertyPatch, error) {
	input = strings.TrimSpace(input)
	current := page.Properties[prop.ID]

	switch prop.Type {
	case backend.PropertyCheckbox:
		cur, _ := current.(backend.CheckboxValue)
		checked, err := parseCheckbox(input, cur.Checked)
		if err != nil {
			return nil, err
		}
		return backend.CheckboxPatch(prop.ID, checked), nil

	case backend.PropertySelect:
		if input == "" || strings.EqualFold(input, "none") {
			return backend.SelectPatch(prop.ID, backend.NullOptionID), nil
		}
		opt, err := findOption(prop.Options, input)
		if err != nil {
			return nil, err
		}
		return backend.SelectPatch(prop.ID, opt.ID), nil

	case backend.PropertyMultiSelect:
		cur, _ := current.(backend.MultiSelectValue)
		ids := make([]string, 0, len(cur.Options))
		for _, o := range cur.Options {
			ids = append(ids, o.ID)
		}
		ids, err := applyToggles(ids, input, func(name string) (string, error) {
			opt, err := findOption(prop.Options, name)
			if err != nil {
				return "", err
			}
			return opt.ID, nil
		})
		if err != nil {
			return nil, err
		}
		return backend.MultiSelectPatch(prop.ID, ids), nil

	case backend.PropertyPeople:
		cur, _ := current.(backend.PeopleValue)
		ids := make([]string, 0, len(cur.People))
		for _, u := range cur.People {
			ids = append(ids, u.ID)
		}
		ids, err := applyToggles(ids, input, func(name string) (string, error) {
			return findUser(users, name)
		})
		if err != nil {
			return nil, err
		}
		return backend.PeoplePatch(prop.ID, ids), nil

	case backend.PropertyDate:
		return datePatch(prop.ID, input, now)
	}

	return nil, utils.ErrUnsupportedProperty(prop.DisplayName(), string(prop.Type))
}

func parseCheckbox(input string, current bool) (bool, error) {
	switch strings.ToLower(input) {
	case "":
		return !current, nil
	case "true", "yes", "on", "1", "x":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, utils.ErrInvalidOption(input, []string{"true", "false"})
}

// SelectableOptions returns the options of a select property, without the null option.
func SelectableOptions(prop backend.DatabaseProperty) []backend.SelectOption {
	return slices.DeleteFunc(slices.Clone(prop.Options), func(o backend.SelectOption) bool {
		return o.ID == backend.NullOptionID
	})
}

func findOption(options []backend.SelectOption, nameOrID string) (backend.SelectOption, error) {
	for _, o := range options {
		if o.ID == nameOrID || strings.EqualFold(o.Name, nameOrID) {
			return o, nil
		}
	}
	names := make([]string, 0, len(options))
	for _, o := range options {
		if o.ID != backend.NullOptionID {
			names = append(names, o.Name)
		}
	}
	return backend.SelectOption{}, utils.ErrInvalidOption(nameOrID, names)
}

func findUser(users []backend.User, nameOrID string) (string, error) {
	for _, u := range users {
		if u.ID == nameOrID || strings.EqualFold(u.Name, nameOrID) {
			return u.ID, nil
		}
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return "", utils.ErrInvalidOption(nameOrID, names)
}

// applyToggles edits ids with a comma separated list of "+name", "-name" or "name" (toggle).
func applyToggles(ids []string, input string, resolve func(string) (string, error)) ([]string, error) {
	out := slices.Clone(ids)
	if input == "" {
		return out, nil
	}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op := byte(0)
		if part[0] == '+' || part[0] == '-' {
			op, part = part[0], strings.TrimSpace(part[1:])
		}
		id, err := resolve(part)
		if err != nil {
			return nil, err
		}
		present := slices.Contains(out, id)
		switch {
		case op == '+' && !present, op == 0 && !present:
			out = append(out, id)
		case op == '-' && present, op == 0 && present:
			out = slices.DeleteFunc(out, func(s string) bool { return s == id })
		}
	}
	return out, nil
}

func datePatch(propertyID, input string, now time.Time) (backend.PropertyPatch, error) {
	if input == "" {
		return backend.ClearDatePatch(propertyID), nil
	}
	if strings.EqualFold(input, "now") {
		return backend.DatePatch(propertyID, backend.DateRange{Start: now.Format(time.RFC3339)}), nil
	}

	start, end, err := utils.ParseDateRange(input, now)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return backend.ClearDatePatch(propertyID), nil
	}
	date := backend.DateRange{Start: start.Format(utils.DateLayout)}
	if end != nil {
		date.End = end.Format(utils.DateLayout)
	}
	return backend.DatePatch(propertyID, date), nil
}
