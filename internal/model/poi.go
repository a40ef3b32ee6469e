package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Point is a POI location in display space. The walking engine emits WGS84,
// so X is longitude and Y is latitude there.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Orb converts the point for geometry helpers.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// PointFromOrb is the inverse of Point.Orb.
func PointFromOrb(p orb.Point) Point {
	return Point{X: p.X(), Y: p.Y()}
}

// TimeSample is one person's travel time to a POI. It is encoded as the
// two-element array ["name", minutes].
type TimeSample struct {
	Person  string
	Minutes float64
}

// MarshalJSON implements json.Marshaler.
func (s TimeSample) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{s.Person, s.Minutes})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *TimeSample) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("time sample: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("time sample: want [name, minutes], got %d elements", len(pair))
	}
	var decoded TimeSample
	if err := json.Unmarshal(pair[0], &decoded.Person); err != nil {
		return fmt.Errorf("time sample name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &decoded.Minutes); err != nil {
		return fmt.Errorf("time sample minutes: %w", err)
	}
	*s = decoded
	return nil
}

// POI is a place everyone in a query can reach, as produced by the engine.
//
// TimesPerPerson names must match the Person slice the POI was computed
// for. That cross-reference is the producer's contract and is not checked
// here.
type POI struct {
	OSMURL         string       `json:"osm_url"`
	Point          Point        `json:"point"`
	Kind           string       `json:"kind"`
	Name           *string      `json:"name"`
	TimesPerPerson []TimeSample `json:"times_per_person"`
}

// TimeFor returns the named person's minutes, if present.
func (p POI) TimeFor(person string) (float64, bool) {
	for _, s := range p.TimesPerPerson {
		if s.Person == person {
			return s.Minutes, true
		}
	}
	return 0, false
}

// AverageTime is the arithmetic mean of the POI's per-person minutes.
// It returns NaN when there are no samples; callers treat that as "no data".
func AverageTime(poi POI) float64 {
	if len(poi.TimesPerPerson) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, s := range poi.TimesPerPerson {
		sum += s.Minutes
	}
	return sum / float64(len(poi.TimesPerPerson))
}

// SortByAverageTime returns a copy of pois ordered by ascending average time.
// POIs without samples sort last; ties keep their input order.
func SortByAverageTime(pois []POI) []POI {
	type ranked struct {
		poi POI
		avg float64
	}
	rows := make([]ranked, len(pois))
	for i, poi := range pois {
		rows[i] = ranked{poi: poi, avg: AverageTime(poi)}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		x, y := rows[a].avg, rows[b].avg
		switch {
		case math.IsNaN(x):
			return false
		case math.IsNaN(y):
			return true
		default:
			return x < y
		}
	})
	out := make([]POI, len(rows))
	for i, row := range rows {
		out[i] = row.poi
	}
	return out
}

// StringPtr is a helper for building POIs with optional names.
func StringPtr(s string) *string {
	return &s
}
