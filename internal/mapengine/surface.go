package mapengine

import (
	proj "mapcreator/api/internal/project"
)

// The surface is the retained-mode rendering state: one persistent tile
// layer plus disposable overlay handles recreated on every reconcile pass,
// keyed by location id. The only cross-pass output that survives is the
// label offset, and that lives in the document, not here.

type TileLayer struct {
	URL         string
	Attribution string
}

// TooltipRow is one label/value line in a tooltip body.
type TooltipRow struct {
	Label string
	Value string
}

// Tooltip is the permanent floating label attached to a DETAILED marker.
// Pos is the absolute container-space position of its top-left corner;
// Size is only valid once Measured is set (layout must happen before any
// pixel math against the element).
type Tooltip struct {
	Name        string
	Rows        []TooltipRow
	Description string
	Pos         Point
	Size        Point
	Measured    bool
	Draggable   bool
}

// LeftEdgeMidpoint returns the container point connector lines anchor to.
func (t *Tooltip) LeftEdgeMidpoint() Point {
	return t.Pos.Add(Point{0, t.Size.Y / 2})
}

// Marker is a rendered location handle.
type Marker struct {
	LocationID  string
	At          LatLng
	Type        proj.LocationType
	Label       string // SIMPLE pill text
	Style       proj.LocationStyle
	Interactive bool
	Tooltip     *Tooltip
}

// Polyline is a straight line overlay. Decorated lines carry a single
// arrowhead at the destination end (100% offset, no repeat).
type Polyline struct {
	From      LatLng
	To        LatLng
	Color     string
	Weight    float64
	DashArray string
	Decorated bool
}

// Surface holds the retained scene for one mounted map panel. It is created
// once and mutated in place; tearing it down per document change is
// explicitly disallowed.
type Surface struct {
	view    View
	tile    TileLayer
	cursor  string
	scale   float64
	markers map[string]*Marker
	order   []string
	// connectors is the dashed marker-to-label layer group; connections the
	// decorated location-to-location lines.
	connectors  []Polyline
	connections []Polyline
}

// NewSurface creates the surface with the document's initial camera.
func NewSurface(center LatLng, zoom float64, size Point, tile TileLayer) *Surface {
	return &Surface{
		view:    View{Center: center, Zoom: zoom, Size: size},
		tile:    tile,
		scale:   ScaleForZoom(zoom),
		markers: map[string]*Marker{},
	}
}

func (s *Surface) View() View { return s.view }

func (s *Surface) Tile() TileLayer { return s.tile }

func (s *Surface) Cursor() string { return s.cursor }

func (s *Surface) Scale() float64 { return s.scale }

func (s *Surface) MarkerCount() int { return len(s.markers) }

func (s *Surface) Connectors() []Polyline { return s.connectors }

func (s *Surface) Connections() []Polyline { return s.connections }

// Marker returns the handle for a location id, or nil.
func (s *Surface) Marker(locationID string) *Marker {
	return s.markers[locationID]
}

// MarkersInOrder returns the handles in document order.
func (s *Surface) MarkersInOrder() []*Marker {
	out := make([]*Marker, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.markers[id])
	}
	return out
}

// SetView moves the camera (pan/zoom read-back or fly-to target).
func (s *Surface) SetView(center LatLng, zoom float64) {
	s.view.Center = center
	s.view.Zoom = zoom
}

// SetTileSource swaps the tile URL and attribution on the persistent layer.
func (s *Surface) SetTileSource(tile TileLayer) {
	s.tile = tile
}

func (s *Surface) setCursor(cursor string) {
	s.cursor = cursor
}

func (s *Surface) setScale(scale float64) {
	s.scale = scale
}

// clearOverlays removes every marker, connector line and connection line
// from the previous pass; drag handles die with their tooltips.
func (s *Surface) clearOverlays() {
	s.markers = map[string]*Marker{}
	s.order = nil
	s.connectors = nil
	s.connections = nil
}

func (s *Surface) addMarker(m *Marker) {
	s.markers[m.LocationID] = m
	s.order = append(s.order, m.LocationID)
}

// MeasureTooltips assigns pixel boxes to tooltip elements, the equivalent of
// waiting for layout before computing connector geometry. Sizes are derived
// deterministically from content so repeated passes over the same document
// measure identically.
func (s *Surface) MeasureTooltips() {
	for _, id := range s.order {
		m := s.markers[id]
		if m.Tooltip == nil || m.Tooltip.Measured {
			continue
		}
		m.Tooltip.Size = measureTooltip(m.Tooltip)
		m.Tooltip.Measured = true
	}
}

// Layout constants mirroring the client tooltip CSS (12px padding, 16px
// header, 20px rows, 18px description lines, 220px min width, 8px divider
// gaps).
const (
	tooltipMinWidth   = 220.0
	tooltipPadding    = 12.0
	tooltipHeaderH    = 22.0
	tooltipRowH       = 20.0
	tooltipDescLineH  = 18.0
	tooltipDividerGap = 17.0
)

func measureTooltip(t *Tooltip) Point {
	height := 2*tooltipPadding + tooltipHeaderH
	if len(t.Rows) > 0 {
		height += tooltipDividerGap + float64(len(t.Rows))*tooltipRowH
	}
	if t.Description != "" {
		lines := 1
		for _, r := range t.Description {
			if r == '\n' {
				lines++
			}
		}
		height += tooltipDividerGap + float64(lines)*tooltipDescLineH
	}
	return Point{X: tooltipMinWidth, Y: height}
}
