package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/kingrea/meetpoint/internal/model"
)

// DefaultWalkingSpeedKmh is a typical adult walking pace.
const DefaultWalkingSpeedKmh = 5.0

// WalkingOption customizes a Walking engine.
type WalkingOption func(*Walking)

// WithSpeedKmh overrides the walking speed. Non-positive values are ignored.
func WithSpeedKmh(kmh float64) WalkingOption {
	return func(w *Walking) {
		if kmh > 0 && !math.IsInf(kmh, 0) {
			w.speedKmh = kmh
		}
	}
}

// Walking estimates travel time as great-circle distance at a constant
// walking speed. It ignores the street network.
type Walking struct {
	catalog  *Catalog
	speedKmh float64
}

// NewWalking builds an engine over catalog.
func NewWalking(catalog *Catalog, opts ...WalkingOption) (*Walking, error) {
	if catalog == nil || len(catalog.Amenities) == 0 {
		return nil, ErrEmptyCatalog
	}
	w := &Walking{catalog: catalog, speedKmh: DefaultWalkingSpeedKmh}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// SpeedKmh reports the configured walking speed.
func (w *Walking) SpeedKmh() float64 {
	return w.speedKmh
}

// Bounds implements Engine.
func (w *Walking) Bounds() orb.Bound {
	return w.catalog.Bound
}

// Minutes returns the walking time between two WGS84 points, truncated to
// whole seconds.
func (w *Walking) Minutes(from, to orb.Point) float64 {
	meters := geo.DistanceHaversine(from, to)
	seconds := math.Floor(meters / (w.speedKmh * 1000 / 3600))
	return seconds / 60
}

// FindPOIs returns the amenities every person reaches within their own
// budget. Samples follow the order of people; POIs are ordered by OSMURL.
// With no people every amenity qualifies and carries no samples.
func (w *Walking) FindPOIs(ctx context.Context, people []model.Person) ([]model.POI, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	samples := make([][]model.TimeSample, len(w.catalog.Amenities))
	reached := make([]int, len(w.catalog.Amenities))
	for _, person := range people {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("engine: find pois: %w", err)
		}
		for i, amenity := range w.catalog.Amenities {
			minutes := w.Minutes(person.Home, amenity.Point)
			if minutes > person.MaxTimeMinutes {
				continue
			}
			samples[i] = append(samples[i], model.TimeSample{Person: person.Name, Minutes: minutes})
			reached[i]++
		}
	}

	pois := []model.POI{}
	for i, amenity := range w.catalog.Amenities {
		if reached[i] != len(people) {
			continue
		}
		times := samples[i]
		if times == nil {
			times = []model.TimeSample{}
		}
		pois = append(pois, model.POI{
			OSMURL:         amenity.OSMURL,
			Point:          model.PointFromOrb(amenity.Point),
			Kind:           amenity.Kind,
			Name:           amenity.Name,
			TimesPerPerson: times,
		})
	}
	return pois, nil
}

// RoutesTo draws each person's walk as a straight line from home to the
// destination, matching how Minutes measures it.
func (w *Walking) RoutesTo(ctx context.Context, people []model.Person, to orb.Point) ([]orb.LineString, error) {
	return straightRoutes(ctx, people, to)
}
