// Package mapengine keeps a retained map surface consistent with a project
// document and translates surface gestures back into document mutations.
package mapengine

import "math"

// Point is a pixel position in map-container coordinate space.
type Point struct {
	X float64
	Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

const (
	earthRadius = 6378137
	maxLatitude = 85.0511287798
	tileSize    = 256
)

// zoomScale is the world pixel extent at a zoom level. Fractional zoom is
// supported (the client uses 0.25 steps).
func zoomScale(zoom float64) float64 {
	return tileSize * math.Exp2(zoom)
}

// project converts a coordinate to absolute world pixels at the given zoom,
// using the spherical Mercator transform the tile CRS uses. Latitudes are
// clamped to the projection's valid range.
func project(ll LatLng, zoom float64) Point {
	lat := math.Max(math.Min(ll.Lat, maxLatitude), -maxLatitude)
	d := math.Pi / 180
	sin := math.Sin(lat * d)

	x := earthRadius * ll.Lng * d
	y := earthRadius / 2 * math.Log((1+sin)/(1-sin))

	scale := zoomScale(zoom)
	t := 0.5 / (math.Pi * earthRadius)
	return Point{
		X: scale * (t*x + 0.5),
		Y: scale * (-t*y + 0.5),
	}
}

// unproject is the inverse of project.
func unproject(p Point, zoom float64) LatLng {
	scale := zoomScale(zoom)
	t := 0.5 / (math.Pi * earthRadius)

	x := (p.X/scale - 0.5) / t
	y := (p.Y/scale - 0.5) / -t

	d := 180 / math.Pi
	return LatLng{
		Lat: (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * d,
		Lng: x * d / earthRadius,
	}
}

// View is a camera over the map container: center coordinate, zoom, and the
// container's pixel size.
type View struct {
	Center LatLng
	Zoom   float64
	Size   Point
}

// LatLngToContainerPoint converts a coordinate to a pixel position relative
// to the container's top-left corner under this view.
func (v View) LatLngToContainerPoint(ll LatLng) Point {
	origin := project(v.Center, v.Zoom).Sub(Point{v.Size.X / 2, v.Size.Y / 2})
	return project(ll, v.Zoom).Sub(origin)
}

// ContainerPointToLatLng converts a container pixel position back to a
// coordinate under this view.
func (v View) ContainerPointToLatLng(p Point) LatLng {
	origin := project(v.Center, v.Zoom).Sub(Point{v.Size.X / 2, v.Size.Y / 2})
	return unproject(p.Add(origin), v.Zoom)
}
