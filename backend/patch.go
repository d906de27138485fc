package backend

// PropertyPatch is the body of a page property update: {propertyID: {type: value}}.
type PropertyPatch map[string]map[string]any

// Merge returns a patch containing the entries of p and other; other wins on conflicts.
func (p PropertyPatch) Merge(other PropertyPatch) PropertyPatch {
	out := make(PropertyPatch, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// CheckboxPatch sets a checkbox property.
func CheckboxPatch(propertyID string, checked bool) PropertyPatch {
	return PropertyPatch{propertyID: {string(PropertyCheckbox): checked}}
}

// SelectPatch sets a select property. NullOptionID clears it.
func SelectPatch(propertyID, optionID string) PropertyPatch {
	var value any
	if optionID != "" && optionID != NullOptionID {
		value = map[string]string{"id": optionID}
	}
	return PropertyPatch{propertyID: {string(PropertySelect): value}}
}

// MultiSelectPatch replaces the options of a multi_select property.
func MultiSelectPatch(propertyID string, optionIDs []string) PropertyPatch {
	return PropertyPatch{propertyID: {string(PropertyMultiSelect): idRefs(optionIDs)}}
}

// PeoplePatch replaces the users of a people property.
func PeoplePatch(propertyID string, userIDs []string) PropertyPatch {
	return PropertyPatch{propertyID: {string(PropertyPeople): idRefs(userIDs)}}
}

// DatePatch sets a date property.
func DatePatch(propertyID string, date DateRange) PropertyPatch {
	return PropertyPatch{propertyID: {string(PropertyDate): date}}
}

func idRefs(ids []string) []map[string]string {
	refs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, map[string]string{"id": id})
	}
	return refs
}

// ClearDatePatch empties a date property.
func ClearDatePatch(propertyID string) PropertyPatch {
	return PropertyPatch{propertyID: {string(PropertyDate): nil}}
}
