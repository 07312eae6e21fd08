package project

import "strings"

// Field-name sniffing is a deliberate soft-schema convention carried over
// from the original product: users author field names freely, and two names
// are recognized by convention rather than by a typed schema slot.

// DescriptionField returns the custom field rendered as a multi-line text
// block below the regular rows, or nil. Matched case-insensitively on the
// Dutch names the product shipped with.
func DescriptionField(fields []CustomField) *CustomField {
	for i := range fields {
		name := strings.ToLower(fields[i].Name)
		if name == "omschrijving" || name == "acties" {
			return &fields[i]
		}
	}
	return nil
}

// ImageField returns the custom field whose value is treated as an image URL
// in list and detail views, or nil.
func ImageField(fields []CustomField) *CustomField {
	for i := range fields {
		name := strings.ToLower(fields[i].Name)
		if strings.Contains(name, "image") || strings.Contains(name, "afbeelding") {
			return &fields[i]
		}
	}
	return nil
}

// ImageURL returns the location's image URL under the document's image
// field, or "".
func (d *Document) ImageURL(loc *Location) string {
	field := ImageField(d.CustomFields)
	if field == nil || loc.CustomData == nil {
		return ""
	}
	return loc.CustomData[field.ID]
}

// PopulatedFields returns the document's custom fields that carry a
// non-empty trimmed value on the location, split into regular rows and the
// description block. Order follows the document's field order; the
// description is always rendered last.
func PopulatedFields(fields []CustomField, loc *Location) (regular []CustomField, description *CustomField) {
	descField := DescriptionField(fields)
	for _, field := range fields {
		value := ""
		if loc.CustomData != nil {
			value = loc.CustomData[field.ID]
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		if descField != nil && field.ID == descField.ID {
			f := field
			description = &f
			continue
		}
		regular = append(regular, field)
	}
	return regular, description
}
