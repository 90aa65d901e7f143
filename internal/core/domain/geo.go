package domain

import (
	"math"
	"strconv"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// ValidCoordinates reports whether lat/lon are finite and within WGS 84 range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Valid reports whether the record's coordinates pass ValidCoordinates.
// Invalid records are dropped before reaching the presentation layer, never
// silently corrected to a default.
func (l LocationRecord) Valid() bool {
	return ValidCoordinates(l.Latitude, l.Longitude)
}

// CoerceNumeric converts a raw JSON value to a float64, accepting both
// number-typed and string-typed numerics ("43.7"). The upstream workflow
// emits either interchangeably.
func CoerceNumeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
