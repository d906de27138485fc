package backend

import (
	"encoding/json"
	"fmt"
	"time"
)

// PropertyType is the Notion property type tag.
type PropertyType string

const (
	PropertyTitle       PropertyType = "title"
	PropertyRichText    PropertyType = "rich_text"
	PropertyNumber      PropertyType = "number"
	PropertyCheckbox    PropertyType = "checkbox"
	PropertySelect      PropertyType = "select"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyDate        PropertyType = "date"
	PropertyPeople      PropertyType = "people"
	PropertyURL         PropertyType = "url"
	PropertyEmail       PropertyType = "email"
	PropertyPhoneNumber PropertyType = "phone_number"
	PropertyFormula     PropertyType = "formula"
)

// NullOptionID is the synthetic select option that clears a select property.
const NullOptionID = "_select_null_"

// NullOption is prepended to select options so a value can be cleared.
var NullOption = SelectOption{ID: NullOptionID, Name: "No Selection"}

// SelectOption is one choice of a select or multi_select property.
type SelectOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// RichText is a single run of text.
type RichText struct {
	PlainText string `json:"plain_text"`
	Href      string `json:"href,omitempty"`
}

// DateRange holds Notion date strings (date-only or RFC 3339).
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// StartTime parses Start.
func (d DateRange) StartTime() (time.Time, bool) {
	return parseNotionDate(d.Start)
}

func parseNotionDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// PropertyValue is a typed page property. Concrete types are the *Value
// structs in this file; UnsupportedValue carries anything else.
type PropertyValue interface {
	PropertyID() string
	PropertyType() PropertyType
}

type TitleValue struct {
	ID   string
	Text []RichText
}

type RichTextValue struct {
	ID   string
	Text []RichText
}

type NumberValue struct {
	ID     string
	Number *float64
}

type CheckboxValue struct {
	ID      string
	Checked bool
}

type SelectValue struct {
	ID     string
	Option *SelectOption
}

type MultiSelectValue struct {
	ID      string
	Options []SelectOption
}

type DateValue struct {
	ID   string
	Date *DateRange
}

type PeopleValue struct {
	ID     string
	People []User
}

type URLValue struct {
	ID  string
	URL string
}

type EmailValue struct {
	ID    string
	Email string
}

type PhoneNumberValue struct {
	ID          string
	PhoneNumber string
}

// FormulaResult is the computed value of a formula; Type names the set field.
type FormulaResult struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateRange `json:"date,omitempty"`
}

type FormulaValue struct {
	ID     string
	Result FormulaResult
}

// UnsupportedValue keeps the raw JSON of property types this package does not model.
type UnsupportedValue struct {
	ID   string
	Type PropertyType
	Raw  json.RawMessage
}

func (v TitleValue) PropertyID() string       { return v.ID }
func (v RichTextValue) PropertyID() string    { return v.ID }
func (v NumberValue) PropertyID() string      { return v.ID }
func (v CheckboxValue) PropertyID() string    { return v.ID }
func (v SelectValue) PropertyID() string      { return v.ID }
func (v MultiSelectValue) PropertyID() string { return v.ID }
func (v DateValue) PropertyID() string        { return v.ID }
func (v PeopleValue) PropertyID() string      { return v.ID }
func (v URLValue) PropertyID() string         { return v.ID }
func (v EmailValue) PropertyID() string       { return v.ID }
func (v PhoneNumberValue) PropertyID() string { return v.ID }
func (v FormulaValue) PropertyID() string     { return v.ID }
func (v UnsupportedValue) PropertyID() string { return v.ID }

func (TitleValue) PropertyType() PropertyType         { return PropertyTitle }
func (RichTextValue) PropertyType() PropertyType      { return PropertyRichText }
func (NumberValue) PropertyType() PropertyType        { return PropertyNumber }
func (CheckboxValue) PropertyType() PropertyType      { return PropertyCheckbox }
func (SelectValue) PropertyType() PropertyType        { return PropertySelect }
func (MultiSelectValue) PropertyType() PropertyType   { return PropertyMultiSelect }
func (DateValue) PropertyType() PropertyType          { return PropertyDate }
func (PeopleValue) PropertyType() PropertyType        { return PropertyPeople }
func (URLValue) PropertyType() PropertyType           { return PropertyURL }
func (EmailValue) PropertyType() PropertyType         { return PropertyEmail }
func (PhoneNumberValue) PropertyType() PropertyType   { return PropertyPhoneNumber }
func (FormulaValue) PropertyType() PropertyType       { return PropertyFormula }
func (v UnsupportedValue) PropertyType() PropertyType { return v.Type }

// marshalProperty writes the Notion wire shape {"id", "type", "<type>": payload}.
func marshalProperty(id string, t PropertyType, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":      id,
		"type":    t,
		string(t): payload,
	})
}

// nullable maps "" to JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (v TitleValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyTitle, nonNilText(v.Text))
}

func (v RichTextValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyRichText, nonNilText(v.Text))
}

func (v NumberValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyNumber, v.Number)
}

func (v CheckboxValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyCheckbox, v.Checked)
}

func (v SelectValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertySelect, v.Option)
}

func (v MultiSelectValue) MarshalJSON() ([]byte, error) {
	opts := v.Options
	if opts == nil {
		opts = []SelectOption{}
	}
	return marshalProperty(v.ID, PropertyMultiSelect, opts)
}

func (v DateValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyDate, v.Date)
}

func (v PeopleValue) MarshalJSON() ([]byte, error) {
	people := v.People
	if people == nil {
		people = []User{}
	}
	return marshalProperty(v.ID, PropertyPeople, people)
}

func (v URLValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyURL, nullable(v.URL))
}

func (v EmailValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyEmail, nullable(v.Email))
}

func (v PhoneNumberValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyPhoneNumber, nullable(v.PhoneNumber))
}

func (v FormulaValue) MarshalJSON() ([]byte, error) {
	return marshalProperty(v.ID, PropertyFormula, v.Result)
}

func (v UnsupportedValue) MarshalJSON() ([]byte, error) {
	if len(v.Raw) > 0 {
		return v.Raw, nil
	}
	return marshalProperty(v.ID, v.Type, nil)
}

func nonNilText(t []RichText) []RichText {
	if t == nil {
		return []RichText{}
	}
	return t
}

// DecodePropertyValue decodes one property in the Notion wire shape.
func DecodePropertyValue(data []byte) (PropertyValue, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding property: %w", err)
	}

	var id string
	var typ PropertyType
	if raw, ok := env["id"]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("decoding property id: %w", err)
		}
	}
	if raw, ok := env["type"]; ok {
		if err := json.Unmarshal(raw, &typ); err != nil {
			return nil, fmt.Errorf("decoding property type: %w", err)
		}
	}
	payload := env[string(typ)]

	decode := func(dst any) error {
		if len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, dst); err != nil {
			return fmt.Errorf("decoding %s property %s: %w", typ, id, err)
		}
		return nil
	}

	switch typ {
	case PropertyTitle:
		v := TitleValue{ID: id}
		err := decode(&v.Text)
		return v, err
	case PropertyRichText:
		v := RichTextValue{ID: id}
		err := decode(&v.Text)
		return v, err
	case PropertyNumber:
		v := NumberValue{ID: id}
		err := decode(&v.Number)
		return v, err
	case PropertyCheckbox:
		v := CheckboxValue{ID: id}
		err := decode(&v.Checked)
		return v, err
	case PropertySelect:
		v := SelectValue{ID: id}
		err := decode(&v.Option)
		return v, err
	case PropertyMultiSelect:
		v := MultiSelectValue{ID: id}
		err := decode(&v.Options)
		return v, err
	case PropertyDate:
		v := DateValue{ID: id}
		err := decode(&v.Date)
		return v, err
	case PropertyPeople:
		v := PeopleValue{ID: id}
		err := decode(&v.People)
		return v, err
	case PropertyURL:
		v := URLValue{ID: id}
		err := decode(&v.URL)
		return v, err
	case PropertyEmail:
		v := EmailValue{ID: id}
		err := decode(&v.Email)
		return v, err
	case PropertyPhoneNumber:
		v := PhoneNumberValue{ID: id}
		err := decode(&v.PhoneNumber)
		return v, err
	case PropertyFormula:
		v := FormulaValue{ID: id}
		err := decode(&v.Result)
		return v, err
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return UnsupportedValue{ID: id, Type: typ, Raw: raw}, nil
	}
}

// Properties maps property id to value.
type Properties map[string]PropertyValue

// UnmarshalJSON decodes each entry through DecodePropertyValue.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}
	out := make(Properties, len(raw))
	for key, r := range raw {
		v, err := DecodePropertyValue(r)
		if err != nil {
			return err
		}
		out[key] = v
	}
	*p = out
	return nil
}
