package project

import (
	"errors"
	"strconv"
	"strings"

	"mapcreator/api/internal/util"
)

var (
	ErrNameRequired      = errors.New("location name is required")
	ErrCoordsRequired    = errors.New("location coordinates are required")
	ErrUnknownLocation   = errors.New("unknown location")
	ErrUnknownField      = errors.New("unknown custom field")
	ErrUnknownTheme      = errors.New("unknown map theme")
	ErrEmptyFieldName    = errors.New("field name is required")
	ErrSelfConnection    = errors.New("connection endpoints must differ")
	ErrUnknownEndpoint   = errors.New("connection endpoint does not exist")
	ErrUnknownConnection = errors.New("unknown connection")
)

// NewLocationInput carries the add-location form values. Latitude and
// Longitude arrive as text because the form accepts free-typed coordinates.
type NewLocationInput struct {
	Name       string            `json:"name"`
	Type       LocationType      `json:"type"`
	Latitude   string            `json:"latitude"`
	Longitude  string            `json:"longitude"`
	Color      string            `json:"color"`
	Shape      MarkerShape       `json:"shape"`
	Icon       MarkerIcon        `json:"icon"`
	CustomData map[string]string `json:"customData"`
}

// ParseCoords parses a combined "lat, lng" text input into a coordinate
// pair. Any failure (wrong number of parts, unparseable float) returns
// ok=false, and callers clear the pending pair entirely rather than keeping
// the last valid value.
func ParseCoords(input string) (lat, lng float64, ok bool) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// AddLocation validates the form input and appends a new location. SIMPLE
// labels carry no style or custom data.
func (d *Document) AddLocation(input NewLocationInput) (*Location, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(input.Latitude), 64)
	if err != nil {
		return nil, ErrCoordsRequired
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(input.Longitude), 64)
	if err != nil {
		return nil, ErrCoordsRequired
	}

	locType := input.Type
	if locType != TypeSimple {
		locType = TypeDetailed
	}

	loc := Location{
		ID:         util.NewID(),
		Name:       input.Name,
		Type:       locType,
		Latitude:   lat,
		Longitude:  lng,
		CustomData: map[string]string{},
	}
	if locType == TypeDetailed {
		if input.CustomData != nil {
			loc.CustomData = input.CustomData
		}
		loc.Style = LocationStyle{Color: input.Color, Shape: input.Shape, Icon: input.Icon}
		if loc.Style.Color == "" {
			loc.Style.Color = "#3b82f6"
		}
		if loc.Style.Shape == "" {
			loc.Style.Shape = ShapeCircle
		}
		if loc.Style.Icon == "" {
			loc.Style.Icon = IconNone
		}
	}

	d.Locations = append(d.Locations, loc)
	return &d.Locations[len(d.Locations)-1], nil
}

// RemoveLocation deletes the location and cascade-deletes every connection
// referencing it. The cascade is a hard invariant, not best-effort.
func (d *Document) RemoveLocation(id string) error {
	index := -1
	for i := range d.Locations {
		if d.Locations[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrUnknownLocation
	}
	d.Locations = append(d.Locations[:index], d.Locations[index+1:]...)

	kept := d.Connections[:0]
	for _, conn := range d.Connections {
		if conn.From == id || conn.To == id {
			continue
		}
		kept = append(kept, conn)
	}
	d.Connections = kept
	return nil
}

// MoveLocation reorders the list: the dragged location is removed and
// reinserted at the position of the location it was dropped on.
func (d *Document) MoveLocation(draggedID, dropTargetID string) error {
	from, to := -1, -1
	for i := range d.Locations {
		switch d.Locations[i].ID {
		case draggedID:
			from = i
		case dropTargetID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return ErrUnknownLocation
	}
	if from == to {
		return nil
	}
	moved := d.Locations[from]
	d.Locations = append(d.Locations[:from], d.Locations[from+1:]...)
	if to > from {
		to--
	}
	d.Locations = append(d.Locations[:to], append([]Location{moved}, d.Locations[to:]...)...)
	return nil
}

// SetCustomValue sets a custom field value on a location. An empty trimmed
// value removes the key; absence means "no value".
func (d *Document) SetCustomValue(locationID, fieldID, value string) error {
	loc := d.FindLocation(locationID)
	if loc == nil {
		return ErrUnknownLocation
	}
	known := false
	for _, field := range d.CustomFields {
		if field.ID == fieldID {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownField
	}
	if loc.CustomData == nil {
		loc.CustomData = map[string]string{}
	}
	if strings.TrimSpace(value) == "" {
		delete(loc.CustomData, fieldID)
		return nil
	}
	loc.CustomData[fieldID] = value
	return nil
}

// SetLabelOffset records the tooltip's dragged absolute pixel position.
func (d *Document) SetLabelOffset(locationID string, x, y float64) error {
	loc := d.FindLocation(locationID)
	if loc == nil {
		return ErrUnknownLocation
	}
	loc.LabelOffset = &LabelOffset{X: x, Y: y}
	return nil
}

// AddCustomField appends a field with a fresh id. Name uniqueness is not
// enforced.
func (d *Document) AddCustomField(name string) (*CustomField, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyFieldName
	}
	d.CustomFields = append(d.CustomFields, CustomField{ID: util.NewID(), Name: name})
	return &d.CustomFields[len(d.CustomFields)-1], nil
}

// RemoveCustomField deletes the field and strips its values from every
// location.
func (d *Document) RemoveCustomField(id string) error {
	index := -1
	for i := range d.CustomFields {
		if d.CustomFields[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrUnknownField
	}
	d.CustomFields = append(d.CustomFields[:index], d.CustomFields[index+1:]...)
	for i := range d.Locations {
		delete(d.Locations[i].CustomData, id)
	}
	return nil
}

// AddConnection creates a directed edge. Endpoints must resolve at creation
// time; later deletions are handled by the cascade in RemoveLocation.
func (d *Document) AddConnection(from, to string) (*Connection, error) {
	if from == to {
		return nil, ErrSelfConnection
	}
	if d.FindLocation(from) == nil || d.FindLocation(to) == nil {
		return nil, ErrUnknownEndpoint
	}
	d.Connections = append(d.Connections, Connection{ID: util.NewID(), From: from, To: to})
	return &d.Connections[len(d.Connections)-1], nil
}

// RemoveConnection deletes a single connection by id.
func (d *Document) RemoveConnection(id string) error {
	for i := range d.Connections {
		if d.Connections[i].ID == id {
			d.Connections = append(d.Connections[:i], d.Connections[i+1:]...)
			return nil
		}
	}
	return ErrUnknownConnection
}

// SetView stores the map camera after a pan or zoom.
func (d *Document) SetView(center [2]float64, zoom float64) {
	d.MapCenter = center
	d.MapZoom = zoom
}

// SetTheme switches the base tile theme.
func (d *Document) SetTheme(theme MapTheme) error {
	if !ValidTheme(theme) {
		return ErrUnknownTheme
	}
	d.MapTheme = theme
	return nil
}
