// Package geo evaluates great-circle distances between WGS84 coordinates.
//
// Distances use the haversine formula on a sphere with the IUGG mean Earth
// radius, which is what PostGIS ST_Distance(geography, geography, false)
// computes. Keeping both sides on the same model means the rows the store
// filters by radius are the rows this package would accept.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the spherical model.
const EarthRadiusKm = 6371.0088

var ErrInvalidCoordinates = errors.New("invalid_coordinates")

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid reports whether the point lies inside the WGS84 ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// FromNullable builds a point from optional stored coordinates. Both values
// must be present.
func FromNullable(lat, lon *float64) (Point, bool) {
	if lat == nil || lon == nil {
		return Point{}, false
	}
	return Point{Lat: *lat, Lon: *lon}, true
}

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Within reports whether b lies within radiusKm of a. The comparison is done
// on the unrounded distance.
func Within(a, b Point, radiusKm float64) bool {
	return Distance(a, b) <= radiusKm
}

// RoundKm rounds a distance to two decimals for display.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

// Box is an axis-aligned latitude/longitude rectangle.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
	// WrapsLon is set when the box crosses the antimeridian; in that case a
	// longitude matches when it is >= MinLon or <= MaxLon.
	WrapsLon bool
}

// BoundingBox returns a rectangle that contains every point within radiusKm
// of center. It is only a prefilter: callers still apply Within.
func BoundingBox(center Point, radiusKm float64) Box {
	dLat := degrees(radiusKm / EarthRadiusKm)
	box := Box{
		MinLat: center.Lat - dLat,
		MaxLat: center.Lat + dLat,
		MinLon: -180,
		MaxLon: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.MinLat = math.Max(box.MinLat, -90)
		box.MaxLat = math.Min(box.MaxLat, 90)
		return box
	}

	// Widest longitude span is reached at the latitude furthest from the equator.
	maxAbsLat := math.Max(math.Abs(box.MinLat), math.Abs(box.MaxLat))
	cosLat := math.Cos(radians(maxAbsLat))
	if cosLat <= 0 {
		return box
	}
	dLon := degrees(radiusKm / (EarthRadiusKm * cosLat))
	if dLon >= 180 {
		return box
	}

	box.MinLon = center.Lon - dLon
	box.MaxLon = center.Lon + dLon
	if box.MinLon < -180 {
		box.MinLon += 360
		box.WrapsLon = true
	}
	if box.MaxLon > 180 {
		box.MaxLon -= 360
		box.WrapsLon = true
	}
	return box
}

// ContainsLon reports whether lon falls inside the box longitude span.
func (b Box) ContainsLon(lon float64) bool {
	if b.WrapsLon {
		return lon >= b.MinLon || lon <= b.MaxLon
	}
	return lon >= b.MinLon && lon <= b.MaxLon
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Predicate renders the box as a SQL condition over the given columns.
func (b Box) Predicate(latCol, lonCol string) (string, []any) {
	cond := latCol + " BETWEEN ? AND ?"
	args := []any{b.MinLat, b.MaxLat}
	if b.WrapsLon {
		cond += " AND (" + lonCol + " >= ? OR " + lonCol + " <= ?)"
		args = append(args, b.MinLon, b.MaxLon)
		return cond, args
	}
	if b.MinLon > -180 || b.MaxLon < 180 {
		cond += " AND " + lonCol + " BETWEEN ? AND ?"
		args = append(args, b.MinLon, b.MaxLon)
	}
	return cond, args
}
