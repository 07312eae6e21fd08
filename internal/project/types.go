// Package project defines the persisted map project document and the
// mutations the editing surfaces apply to it.
package project

import "encoding/json"

type LocationType string

const (
	TypeDetailed LocationType = "DETAILED"
	TypeSimple   LocationType = "SIMPLE"
)

type MarkerShape string

const (
	ShapeCircle MarkerShape = "CIRCLE"
	ShapeSquare MarkerShape = "SQUARE"
)

type MarkerIcon string

const (
	IconBuilding MarkerIcon = "BUILDING"
	IconFlag     MarkerIcon = "FLAG"
	IconNone     MarkerIcon = "NONE"
)

type MapTheme string

const (
	ThemeLight     MapTheme = "light"
	ThemeDark      MapTheme = "dark"
	ThemeSatellite MapTheme = "satellite"
	ThemeStreets   MapTheme = "streets"
)

// CustomField is a user-authored attribute schema entry. Field names are
// free-form; two conventional names carry special roles (see fields.go).
type CustomField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LocationStyle struct {
	Color string      `json:"color"`
	Shape MarkerShape `json:"shape"`
	Icon  MarkerIcon  `json:"icon"`
}

// LabelOffset is the absolute pixel position, in map-container coordinate
// space, of a manually dragged tooltip's top-left corner.
type LabelOffset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Location struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        LocationType      `json:"type"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	CustomData  map[string]string `json:"customData"`
	Style       LocationStyle     `json:"style"`
	LabelOffset *LabelOffset      `json:"labelOffset,omitempty"`
}

// Connection is a directed edge between two locations. Dangling references
// are tolerated at render time and skipped silently; deletion of a location
// cascade-deletes its connections.
type Connection struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Document is the full persisted project state, stored as one jsonb blob per
// user. Location order is meaningful (list display order).
type Document struct {
	CustomFields []CustomField `json:"customFields"`
	Locations    []Location    `json:"locations"`
	Connections  []Connection  `json:"connections"`
	MapTheme     MapTheme      `json:"mapTheme"`
	MapCenter    [2]float64    `json:"mapCenter"`
	MapZoom      float64       `json:"mapZoom"`
}

// Default returns the document created for a user with no persisted project.
func Default() *Document {
	return &Document{
		CustomFields: []CustomField{
			{ID: "1", Name: "Status"},
			{ID: "2", Name: "Capacity"},
			{ID: "3", Name: "Omschrijving"},
		},
		Locations:   []Location{},
		Connections: []Connection{},
		MapTheme:    ThemeLight,
		MapCenter:   [2]float64{52.0907, 5.1214}, // Utrecht, NL
		MapZoom:     8,
	}
}

// Decode parses a persisted document blob.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Locations == nil {
		doc.Locations = []Location{}
	}
	if doc.Connections == nil {
		doc.Connections = []Connection{}
	}
	if doc.CustomFields == nil {
		doc.CustomFields = []CustomField{}
	}
	return &doc, nil
}

// Encode serializes the document to its persisted form.
func (d *Document) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Clone returns a deep copy, used to hand snapshots to exporters and
// indexers without exposing session-owned state.
func (d *Document) Clone() *Document {
	out := &Document{
		CustomFields: make([]CustomField, len(d.CustomFields)),
		Locations:    make([]Location, len(d.Locations)),
		Connections:  make([]Connection, len(d.Connections)),
		MapTheme:     d.MapTheme,
		MapCenter:    d.MapCenter,
		MapZoom:      d.MapZoom,
	}
	copy(out.CustomFields, d.CustomFields)
	copy(out.Connections, d.Connections)
	for i, loc := range d.Locations {
		cp := loc
		if loc.CustomData != nil {
			cp.CustomData = make(map[string]string, len(loc.CustomData))
			for k, v := range loc.CustomData {
				cp.CustomData[k] = v
			}
		}
		if loc.LabelOffset != nil {
			offset := *loc.LabelOffset
			cp.LabelOffset = &offset
		}
		out.Locations[i] = cp
	}
	return out
}

// FindLocation returns the location with the given id, or nil.
func (d *Document) FindLocation(id string) *Location {
	for i := range d.Locations {
		if d.Locations[i].ID == id {
			return &d.Locations[i]
		}
	}
	return nil
}
