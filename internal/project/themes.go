package project

// ThemeDetails describes a base tile layer.
type ThemeDetails struct {
	URL         string
	Attribution string
}

// Themes maps each map theme to its tile source. Switching themes swaps the
// URL and attribution on the existing tile layer; the map surface itself is
// never torn down.
var Themes = map[MapTheme]ThemeDetails{
	ThemeLight: {
		URL:         "https://{s}.basemaps.cartocdn.com/light_nolabels/{z}/{x}/{y}{r}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	ThemeDark: {
		URL:         "https://{s}.basemaps.cartocdn.com/dark_nolabels/{z}/{x}/{y}{r}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	ThemeSatellite: {
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, i-cubed, USDA, USGS, AEX, GeoEye, Getmapping, Aerogrid, IGN, IGP, UPR-EGP, and the GIS User Community",
	},
	ThemeStreets: {
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	},
}

// ValidTheme reports whether the given value names a known theme.
func ValidTheme(theme MapTheme) bool {
	_, ok := Themes[theme]
	return ok
}
