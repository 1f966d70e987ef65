package geodict

import (
	"fmt"
	"math"
	"strconv"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// s2CellLevel is the S2 level of the cell token stored on located
// entities. Level 10 cells are roughly 10km across.
const s2CellLevel = 10

// geohashPrecision is the number of geohash characters kept (~1.2km).
const geohashPrecision = 6

// Location is an optional point attached to an entity.
type Location struct {
	Latitude  float64
	Longitude float64
}

// parseLocation parses decimal degree strings. Both must be present.
func parseLocation(lat, lng string) (*Location, error) {
	if lat == "" || lng == "" {
		return nil, fmt.Errorf("lat and lng must be given together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, fmt.Errorf("lng: %w", err)
	}
	if math.IsNaN(la) || la < -90 || la > 90 {
		return nil, fmt.Errorf("lat %v out of range", la)
	}
	if math.IsNaN(ln) || ln < -180 || ln > 180 {
		return nil, fmt.Errorf("lng %v out of range", ln)
	}
	return &Location{Latitude: la, Longitude: ln}, nil
}

// CellToken returns the token of the S2 cell containing the location.
func (l *Location) CellToken() string {
	ll := s2.LatLngFromDegrees(l.Latitude, l.Longitude)
	return s2.CellIDFromLatLng(ll).Parent(s2CellLevel).ToToken()
}

// Geohash returns the location's geohash truncated to geohashPrecision.
func (l *Location) Geohash() string {
	h := geohash.Encode(l.Latitude, l.Longitude)
	if len(h) > geohashPrecision {
		h = h[:geohashPrecision]
	}
	return h
}
