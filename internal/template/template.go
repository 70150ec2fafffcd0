// Package template defines the closed set of profile page layouts.
// The server only persists and passes through the chosen template;
// the presentation layer owns the actual rendering.
package template

// Type identifies a profile page layout
type Type string

// Template constants for the available layouts
const (
	Classic  Type = "classic"
	Column   Type = "column"
	Business Type = "business"
)

// Default is the layout used when none is supplied
const Default = Classic

// Descriptor describes a layout for template pickers
type Descriptor struct {
	ID          Type   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// descriptors lists every available layout in display order
var descriptors = []Descriptor{
	{
		ID:          Classic,
		Name:        "Classic",
		Description: "Clean and professional layout with centered content",
	},
	{
		ID:          Column,
		Name:        "Column",
		Description: "Modern two-column layout with profile on the left",
	},
	{
		ID:          Business,
		Name:        "Business",
		Description: "Corporate style with emphasis on professional information",
	},
}

// Valid reports whether t is one of the known layouts
func Valid(t Type) bool {
	switch t {
	case Classic, Column, Business:
		return true
	}
	return false
}

// Normalize returns t if valid, otherwise the default layout
func Normalize(t Type) Type {
	if Valid(t) {
		return t
	}
	return Default
}

// All returns the descriptors for every available layout
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}
