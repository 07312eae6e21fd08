package mapengine

import (
	proj "mapcreator/api/internal/project"
)

// DocumentSetter applies a mutation through the owning session's
// reducer-style setter, which schedules the debounced save. Every write the
// engine makes (label offsets, view state) goes through this path.
type DocumentSetter func(mutate func(*proj.Document))

// Hooks are the engine's upward callbacks.
type Hooks struct {
	// PlaceCoordinate receives the clicked coordinate while placement mode
	// is active (one-shot).
	PlaceCoordinate func(lat, lng float64)
	// SelectLocation is fired on marker click.
	SelectLocation func(locationID string)
}

// Engine owns exactly one surface per mounted panel. The surface is created
// once with the document's initial camera and never recreated; document
// changes run a full overlay diff-and-redraw pass instead.
type Engine struct {
	surface  *Surface
	setDoc   DocumentSetter
	hooks    Hooks
	placing  bool
	selected string
}

// Default tooltip anchoring: to the right of the marker with a 16px gap,
// vertically centered, as the client's permanent tooltip placement.
const tooltipAnchorGap = 16.0

// New mounts the engine over a fresh surface sized to the container.
func New(doc *proj.Document, size Point, setDoc DocumentSetter, hooks Hooks) *Engine {
	tile := proj.Themes[doc.MapTheme]
	surface := NewSurface(
		LatLng{Lat: doc.MapCenter[0], Lng: doc.MapCenter[1]},
		doc.MapZoom,
		size,
		TileLayer{URL: tile.URL, Attribution: tile.Attribution},
	)
	return &Engine{surface: surface, setDoc: setDoc, hooks: hooks}
}

// Surface exposes the retained scene (read-only use by callers).
func (e *Engine) Surface() *Surface { return e.surface }

// Selected returns the externally tracked selected location id.
func (e *Engine) Selected() string { return e.selected }

// Placing reports whether placement mode is active.
func (e *Engine) Placing() bool { return e.placing }

// Reconcile runs the full redraw pass: clear every overlay from the
// previous pass, derive markers and tooltips from the document in order,
// then connector lines, then connection polylines.
func (e *Engine) Reconcile(doc *proj.Document) {
	s := e.surface
	s.clearOverlays()

	// Pass 1: markers and tooltips.
	for i := range doc.Locations {
		loc := &doc.Locations[i]
		at := LatLng{Lat: loc.Latitude, Lng: loc.Longitude}

		if loc.Type == proj.TypeSimple {
			s.addMarker(&Marker{
				LocationID: loc.ID,
				At:         at,
				Type:       proj.TypeSimple,
				Label:      loc.Name,
			})
			continue
		}

		marker := &Marker{
			LocationID:  loc.ID,
			At:          at,
			Type:        proj.TypeDetailed,
			Style:       loc.Style,
			Interactive: true,
			Tooltip:     buildTooltip(doc, loc),
		}
		s.addMarker(marker)
	}

	// Layout before pixel math: tooltip boxes must exist before default
	// anchoring and connector endpoints are computed.
	s.MeasureTooltips()

	for _, id := range s.order {
		m := s.markers[id]
		if m.Tooltip == nil {
			continue
		}
		loc := doc.FindLocation(id)
		if loc != nil && loc.LabelOffset != nil {
			m.Tooltip.Pos = Point{X: loc.LabelOffset.X, Y: loc.LabelOffset.Y}
		} else {
			markerPt := s.view.LatLngToContainerPoint(m.At)
			m.Tooltip.Pos = markerPt.Add(Point{tooltipAnchorGap, -m.Tooltip.Size.Y / 2})
		}
	}

	// Pass 2: dashed connector lines from marker to the relocated label's
	// left-edge midpoint. The endpoint is recomputed through the
	// pixel-to-geographic conversion so it stays put across pans and zooms.
	for i := range doc.Locations {
		loc := &doc.Locations[i]
		if loc.Type != proj.TypeDetailed || loc.LabelOffset == nil {
			continue
		}
		if loc.LabelOffset.X == 0 && loc.LabelOffset.Y == 0 {
			continue
		}
		marker := s.markers[loc.ID]
		if marker == nil || marker.Tooltip == nil || !marker.Tooltip.Measured {
			// Tooltip element not available: skip this location's
			// connector, never the whole pass.
			continue
		}
		end := s.view.ContainerPointToLatLng(marker.Tooltip.LeftEdgeMidpoint())
		s.connectors = append(s.connectors, Polyline{
			From:      marker.At,
			To:        end,
			Color:     "#64748b",
			Weight:    1,
			DashArray: "4, 4",
		})
	}

	// Pass 3: connection polylines with a destination arrowhead. Dangling
	// references are skipped silently.
	for _, conn := range doc.Connections {
		from := doc.FindLocation(conn.From)
		to := doc.FindLocation(conn.To)
		if from == nil || to == nil {
			continue
		}
		s.connections = append(s.connections, Polyline{
			From:      LatLng{Lat: from.Latitude, Lng: from.Longitude},
			To:        LatLng{Lat: to.Latitude, Lng: to.Longitude},
			Color:     "#3b82f6",
			Weight:    3,
			Decorated: true,
		})
	}
}

func buildTooltip(doc *proj.Document, loc *proj.Location) *Tooltip {
	regular, descField := proj.PopulatedFields(doc.CustomFields, loc)
	tooltip := &Tooltip{Name: loc.Name, Draggable: true}
	for _, field := range regular {
		tooltip.Rows = append(tooltip.Rows, TooltipRow{Label: field.Name, Value: loc.CustomData[field.ID]})
	}
	if descField != nil {
		tooltip.Description = loc.CustomData[descField.ID]
	}
	return tooltip
}

// HandleMoveEnd reads the camera back into the document after a user pan or
// zoom; the write rides the normal debounced save path.
func (e *Engine) HandleMoveEnd(center LatLng, zoom float64) {
	e.surface.SetView(center, zoom)
	e.setDoc(func(doc *proj.Document) {
		doc.SetView([2]float64{center.Lat, center.Lng}, zoom)
	})
}

// HandleZoomEnd updates the cosmetic marker/label scale. Not persisted.
func (e *Engine) HandleZoomEnd(zoom float64) {
	e.surface.setScale(ScaleForZoom(zoom))
}

// SetPlacing toggles placement mode: crosshair cursor and a single active
// click handler while on.
func (e *Engine) SetPlacing(placing bool) {
	e.placing = placing
	if placing {
		e.surface.setCursor("crosshair")
	} else {
		e.surface.setCursor("")
	}
}

// HandleClick consumes a base-surface click. In placement mode the clicked
// coordinate is reported upward and the mode deactivates (one-shot);
// otherwise base clicks are ignored.
func (e *Engine) HandleClick(lat, lng float64) {
	if !e.placing {
		return
	}
	e.SetPlacing(false)
	if e.hooks.PlaceCoordinate != nil {
		e.hooks.PlaceCoordinate(lat, lng)
	}
}

// HandleMarkerClick selects a DETAILED location.
func (e *Engine) HandleMarkerClick(locationID string) {
	marker := e.surface.Marker(locationID)
	if marker == nil || !marker.Interactive {
		return
	}
	if e.hooks.SelectLocation != nil {
		e.hooks.SelectLocation(locationID)
	}
}

// Fly-to target zoom when a location is selected.
const selectZoom = 15

// Select reacts to a selection change by animating the camera onto the
// location. One-way: the camera never drives selection.
func (e *Engine) Select(doc *proj.Document, locationID string) {
	e.selected = locationID
	if locationID == "" {
		return
	}
	loc := doc.FindLocation(locationID)
	if loc == nil {
		return
	}
	e.surface.SetView(LatLng{Lat: loc.Latitude, Lng: loc.Longitude}, selectZoom)
}

// HandleLabelDragEnd persists the tooltip's dragged absolute position into
// the document and moves the element immediately.
func (e *Engine) HandleLabelDragEnd(locationID string, x, y float64) {
	if marker := e.surface.Marker(locationID); marker != nil && marker.Tooltip != nil {
		marker.Tooltip.Pos = Point{X: x, Y: y}
	}
	e.setDoc(func(doc *proj.Document) {
		_ = doc.SetLabelOffset(locationID, x, y)
	})
}

// SetTheme swaps the tile source in place; the surface survives.
func (e *Engine) SetTheme(theme proj.MapTheme) {
	details, ok := proj.Themes[theme]
	if !ok {
		return
	}
	e.surface.SetTileSource(TileLayer{URL: details.URL, Attribution: details.Attribution})
}
