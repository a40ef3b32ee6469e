// internal/session/session.go
//
// A Session owns every piece of state for one run of the tool. Nothing is
// global: two sessions in one process never share cells.

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/kingrea/meetpoint/internal/engine"
	"github.com/kingrea/meetpoint/internal/mode"
	"github.com/kingrea/meetpoint/internal/model"
	"github.com/kingrea/meetpoint/internal/store"
)

var (
	// ErrNotEditing is returned by Submit outside of Input.
	ErrNotEditing = errors.New("session: submit requires input mode")
	// ErrNoEngine is returned by Submit before an engine is loaded.
	ErrNoEngine = errors.New("session: no engine loaded")
	// ErrNoPeople is returned by Submit when the query is empty.
	ErrNoPeople = errors.New("session: add at least one person")
)

// Logger records session activity. It matches logbook.Logbook.Info.
type Logger interface {
	Info(format string, args ...any)
}

// Viewport is what the map shows: the area in view, an optional focus and
// the routes to it.
type Viewport struct {
	Bound  orb.Bound
	Focus  *orb.Point
	Routes []Route
}

// Route is one person's way from home to the focused POI.
type Route struct {
	Person string
	Line   orb.LineString
}

// Panel is a mount point assigned by the renderer: the space it has for
// the sidebar or the map.
type Panel struct {
	Width  int
	Height int
}

// Mounted reports whether the renderer has given the panel any space.
func (p Panel) Mounted() bool {
	return p.Width > 0 && p.Height > 0
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger logs each Mode transition.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithEngine preloads the engine cell.
func WithEngine(e engine.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.Engine.Set(e)
		}
	}
}

// WithAPIKey sets the tile-service key handed to the map renderer.
func WithAPIKey(key string) Option {
	return func(s *Session) {
		s.APIKey = key
	}
}

// Session is the state for one interactive run.
type Session struct {
	ID     string
	APIKey string

	Mode      *mode.Machine
	Engine    *store.Cell[engine.Engine]
	Map       *store.Cell[Viewport]
	ShowAbout *store.Cell[bool]
	Sidebar   *store.Cell[Panel]
	MapPanel  *store.Cell[Panel]

	logger      Logger
	unsubscribe []store.Unsubscribe
}

// New creates a session in Title with the about panel showing.
func New(opts ...Option) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Mode:      mode.NewMachine(),
		Engine:    store.New[engine.Engine](nil),
		Map:       store.New(Viewport{}),
		ShowAbout: store.New(true),
		Sidebar:   store.New(Panel{}),
		MapPanel:  store.New(Panel{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.unsubscribe = append(s.unsubscribe,
		s.Engine.Subscribe(s.fitEngine),
		s.Mode.Subscribe(s.logTransition),
	)
	return s
}

// Close drops the session's own subscriptions.
func (s *Session) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
}

// Submit runs the engine for the people being edited and moves to Results.
// On failure the Mode is left unchanged.
func (s *Session) Submit(ctx context.Context) error {
	in, ok := s.Mode.Current().(mode.Input)
	if !ok {
		return ErrNotEditing
	}
	pois, err := s.Query(ctx, in.People)
	if err != nil {
		return err
	}
	s.ApplyResults(in.People, pois)
	return nil
}

// Query runs the engine without touching the Mode, so renderers can call it
// off the UI goroutine and apply the outcome with ApplyResults.
func (s *Session) Query(ctx context.Context, people []model.Person) ([]model.POI, error) {
	e := s.Engine.Get()
	if e == nil {
		return nil, ErrNoEngine
	}
	if len(people) == 0 {
		return nil, ErrNoPeople
	}
	pois, err := e.FindPOIs(ctx, people)
	if err != nil {
		return nil, fmt.Errorf("session: find pois: %w", err)
	}
	return pois, nil
}

// ApplyResults moves to Results for people and frames them on the map.
func (s *Session) ApplyResults(people []model.Person, pois []model.POI) {
	res := mode.Input{People: people}.Submit(pois)
	if bound, ok := resultBound(res); ok {
		s.Map.Set(Viewport{Bound: bound})
	}
	s.Mode.Set(res)
}

// Focus marks a POI on the map, without changing the framed area, and
// asks the engine for every carried person's route to it. The focus is set
// even when routing fails; the routes are then left empty.
func (s *Session) Focus(ctx context.Context, poi model.POI) error {
	pt := poi.Point.Orb()
	var routes []Route
	var err error
	if e, people := s.Engine.Get(), s.Mode.People(); e != nil && len(people) > 0 {
		routes, err = s.routesTo(ctx, e, people, pt)
	}
	s.Map.Update(func(v Viewport) Viewport {
		v.Focus = &pt
		v.Routes = routes
		return v
	})
	return err
}

func (s *Session) routesTo(ctx context.Context, e engine.Engine, people []model.Person, to orb.Point) ([]Route, error) {
	lines, err := e.RoutesTo(ctx, people, to)
	if err != nil {
		return nil, fmt.Errorf("session: routes to: %w", err)
	}
	if len(lines) != len(people) {
		return nil, fmt.Errorf("session: routes to: engine returned %d routes for %d people", len(lines), len(people))
	}
	routes := make([]Route, len(lines))
	for i, line := range lines {
		routes[i] = Route{Person: people[i].Name, Line: line}
	}
	return routes, nil
}

// OutsideArea returns the region the loaded engine has no data for, or
// false when no engine with a known area is loaded.
func (s *Session) OutsideArea() (orb.Polygon, bool) {
	e := s.Engine.Get()
	if e == nil {
		return nil, false
	}
	b := e.Bounds()
	if b == (orb.Bound{}) {
		return nil, false
	}
	return engine.InvertedBoundary(b), true
}

func (s *Session) fitEngine(e engine.Engine) {
	if e == nil {
		return
	}
	if b := e.Bounds(); b != (orb.Bound{}) {
		s.Map.Set(Viewport{Bound: b})
	}
}

func (s *Session) logTransition(m mode.Mode) {
	if s.logger == nil {
		return
	}
	switch cur := m.(type) {
	case mode.Input:
		s.logger.Info("session %s · mode input · %d people", s.ID, len(cur.People))
	case mode.Results:
		s.logger.Info("session %s · mode results · %d pois for %d people", s.ID, len(cur.POIs), len(cur.People))
	default:
		s.logger.Info("session %s · mode %s", s.ID, m.Kind())
	}
}

// resultBound covers every home and POI with a little padding.
func resultBound(res mode.Results) (orb.Bound, bool) {
	var points []orb.Point
	for _, p := range res.People {
		points = append(points, p.Home)
	}
	for _, poi := range res.POIs {
		points = append(points, poi.Point.Orb())
	}
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	bound := points[0].Bound()
	for _, pt := range points[1:] {
		bound = bound.Extend(pt)
	}
	return bound.Pad(0.001), true
}
