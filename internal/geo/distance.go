package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// InvalidCoordinateError is returned for missing or malformed coordinates.
type InvalidCoordinateError struct {
	Field  string
	Reason string
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %s: %s", e.Field, e.Reason)
}

type Point struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// NewPoint accepts float or string input, as it arrives from query strings.
func NewPoint(lat, long any) (Point, error) {
	la, err := parse(lat, "lat", 90)
	if err != nil {
		return Point{}, err
	}
	lo, err := parse(long, "long", 180)
	if err != nil {
		return Point{}, err
	}
	return Point{Lat: la, Long: lo}, nil
}

func parse(v any, field string, bound float64) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, &InvalidCoordinateError{Field: field, Reason: "missing"}
	case float64:
		f = x
	case *float64:
		if x == nil {
			return 0, &InvalidCoordinateError{Field: field, Reason: "missing"}
		}
		f = *x
	case string:
		if x == "" {
			return 0, &InvalidCoordinateError{Field: field, Reason: "missing"}
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, &InvalidCoordinateError{Field: field, Reason: "not a number"}
		}
		f = p
	default:
		return 0, &InvalidCoordinateError{Field: field, Reason: "not a number"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < -bound || f > bound {
		return 0, &InvalidCoordinateError{Field: field, Reason: fmt.Sprintf("must be within [-%g, %g]", bound, bound)}
	}
	return f, nil
}

// DistanceMeters is the haversine great-circle distance, rounded to whole meters.
func DistanceMeters(a, b Point) int {
	d := orbgeo.DistanceHaversine(orb.Point{a.Long, a.Lat}, orb.Point{b.Long, b.Lat})
	return int(math.Round(d))
}
