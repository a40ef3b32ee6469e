// internal/engine/engine.go
//
// The engine turns a set of people into the POIs all of them can reach,
// and draws each person's way to a chosen one. The session only depends on
// the Engine interface; Walking is the bundled straight-line implementation.

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/kingrea/meetpoint/internal/model"
)

// ErrNilFunc is returned by a nil Func.
var ErrNilFunc = errors.New("engine: nil func")

// Engine computes reachable POIs for a query.
//
// Every returned POI must carry one TimeSample per person, keyed by
// Person.Name.
type Engine interface {
	FindPOIs(ctx context.Context, people []model.Person) ([]model.POI, error)
	// RoutesTo returns one route per person, in input order, from their
	// home to the destination.
	RoutesTo(ctx context.Context, people []model.Person, to orb.Point) ([]orb.LineString, error)
	// Bounds is the WGS84 area the engine has data for.
	Bounds() orb.Bound
}

// Func adapts a search function into an Engine with an empty bound and
// straight-line routes.
type Func func(ctx context.Context, people []model.Person) ([]model.POI, error)

// FindPOIs executes f.
func (f Func) FindPOIs(ctx context.Context, people []model.Person) ([]model.POI, error) {
	if f == nil {
		return nil, ErrNilFunc
	}
	return f(ctx, people)
}

// RoutesTo implements Engine.
func (f Func) RoutesTo(ctx context.Context, people []model.Person, to orb.Point) ([]orb.LineString, error) {
	return straightRoutes(ctx, people, to)
}

// Bounds implements Engine.
func (f Func) Bounds() orb.Bound {
	return orb.Bound{}
}

// world is the whole WGS84 extent, wound like the outer ring of a polygon.
var world = orb.Ring{{180, 90}, {-180, 90}, {-180, -90}, {180, -90}, {180, 90}}

// InvertedBoundary returns a polygon covering the world with a hole for b:
// the area an engine has no data for. Renderers shade it.
func InvertedBoundary(b orb.Bound) orb.Polygon {
	return orb.Polygon{append(orb.Ring{}, world...), b.ToRing()}
}

func straightRoutes(ctx context.Context, people []model.Person, to orb.Point) ([]orb.LineString, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	routes := make([]orb.LineString, 0, len(people))
	for _, p := range people {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("engine: routes to: %w", err)
		}
		routes = append(routes, orb.LineString{p.Home, to})
	}
	return routes, nil
}
