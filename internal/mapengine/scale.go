package mapengine

// ScaleForZoom maps the zoom level to the cosmetic size factor applied to
// markers and tooltips: full size from zoom 13 up, 0.3 at zoom 9 and below,
// linear in between. Not part of persisted state.
func ScaleForZoom(zoom float64) float64 {
	switch {
	case zoom >= 13:
		return 1.0
	case zoom <= 9:
		return 0.3
	default:
		return 0.3 + (zoom-9)*(1.0-0.3)/(13-9)
	}
}
