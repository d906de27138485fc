package views

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"notionat/backend"
)

// AccessorySeparator joins visible property texts on a list row.
const AccessorySeparator = "  |  "

// RecentSection is the section name for pages without a group-by value.
const RecentSection = "Recent"

var supportedTypes = []backend.PropertyType{
	backend.PropertyNumber,
	backend.PropertyRichText,
	backend.PropertyURL,
	backend.PropertyEmail,
	backend.PropertyPhoneNumber,
	backend.PropertyDate,
	backend.PropertyCheckbox,
	backend.PropertySelect,
	backend.PropertyMultiSelect,
	backend.PropertyFormula,
	backend.PropertyPeople,
}

var groupableTypes = []backend.PropertyType{
	backend.PropertyRichText,
	backend.PropertyURL,
	backend.PropertyEmail,
	backend.PropertyPhoneNumber,
	backend.PropertyDate,
	backend.PropertyCheckbox,
	backend.PropertySelect,
	backend.PropertyFormula,
}

// SupportedProperties keeps the properties that can be shown on a row, in schema order.
func SupportedProperties(props []backend.DatabaseProperty) []backend.DatabaseProperty {
	return filterTypes(props, supportedTypes)
}

// GroupableProperties keeps the properties that can be used as a group-by.
func GroupableProperties(props []backend.DatabaseProperty) []backend.DatabaseProperty {
	return filterTypes(props, groupableTypes)
}

// SelectProperties keeps the select properties, the candidates for a kanban status.
func SelectProperties(props []backend.DatabaseProperty) []backend.DatabaseProperty {
	return filterTypes(props, []backend.PropertyType{backend.PropertySelect})
}

func filterTypes(props []backend.DatabaseProperty, types []backend.PropertyType) []backend.DatabaseProperty {
	out := make([]backend.DatabaseProperty, 0, len(props))
	for _, p := range props {
		if slices.Contains(types, p.Type) {
			out = append(out, p)
		}
	}
	return out
}

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber renders a number with thousands separators.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return numberPrinter.Sprintf("%v", number.Decimal(int64(n)))
	}
	return numberPrinter.Sprintf("%v", number.Decimal(n))
}

// RelativeTime renders t relative to now, e.g. "3 days ago".
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func checkboxText(checked bool) string {
	if checked {
		return "☑"
	}
	return "☐"
}

func firstPlainText(text []backend.RichText) string {
	if len(text) == 0 {
		return ""
	}
	return text[0].PlainText
}

func dateText(d *backend.DateRange, now time.Time) string {
	if d == nil {
		return ""
	}
	t, ok := d.StartTime()
	if !ok {
		return d.Start
	}
	return RelativeTime(t, now)
}

// PropertyText returns the display text of a page property, or "" when the page
// has no value for it.
func PropertyText(page backend.Page, propertyID string, now time.Time) string {
	value, ok := page.Properties[propertyID]
	if !ok {
		return ""
	}

	switch v := value.(type) {
	case backend.TitleValue:
		if t := firstPlainText(v.Text); t != "" {
			return t
		}
		return backend.UntitledTitle
	case backend.RichTextValue:
		return firstPlainText(v.Text)
	case backend.NumberValue:
		if v.Number == nil {
			return ""
		}
		return FormatNumber(*v.Number)
	case backend.CheckboxValue:
		return checkboxText(v.Checked)
	case backend.SelectValue:
		if v.Option == nil {
			return ""
		}
		return v.Option.Name
	case backend.MultiSelectValue:
		names := make([]string, 0, len(v.Options))
		for _, o := range v.Options {
			names = append(names, o.Name)
		}
		return strings.Join(names, ", ")
	case backend.PeopleValue:
		names := make([]string, 0, len(v.People))
		for _, u := range v.People {
			names = append(names, u.Name)
		}
		return strings.Join(names, ", ")
	case backend.DateValue:
		return dateText(v.Date, now)
	case backend.URLValue:
		return v.URL
	case backend.EmailValue:
		return v.Email
	case backend.PhoneNumberValue:
		return v.PhoneNumber
	case backend.FormulaValue:
		return formulaText(v.Result, now)
	}
	return ""
}

func formulaText(r backend.FormulaResult, now time.Time) string {
	switch r.Type {
	case "string":
		if r.String != nil {
			return *r.String
		}
	case "number":
		if r.Number != nil {
			return FormatNumber(*r.Number)
		}
	case "boolean":
		if r.Boolean != nil {
			return checkboxText(*r.Boolean)
		}
	case "date":
		return dateText(r.Date, now)
	}
	return ""
}

// Keywords returns the non-empty texts of the visible properties, in view order.
func Keywords(page backend.Page, view DatabaseView, now time.Time) []string {
	var out []string
	for _, id := range view.VisibleProperties {
		if t := PropertyText(page, id, now); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// AccessoryText is the right-hand text of a list row: the visible property texts,
// or how long ago the page was edited when none are set.
func AccessoryText(page backend.Page, view DatabaseView, now time.Time) string {
	if kw := Keywords(page, view, now); len(kw) > 0 {
		return strings.Join(kw, AccessorySeparator)
	}
	if page.LastEditedTime.IsZero() {
		return ""
	}
	return RelativeTime(page.LastEditedTime, now)
}

// PageTitle is the row title: the emoji icon, when set, followed by the title.
func PageTitle(page backend.Page) string {
	if page.IconEmoji != "" {
		return page.IconEmoji + " " + page.DisplayTitle()
	}
	return page.DisplayTitle()
}
