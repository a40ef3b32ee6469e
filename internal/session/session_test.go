package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/meetpoint/internal/engine"
	"github.com/kingrea/meetpoint/internal/mode"
	"github.com/kingrea/meetpoint/internal/model"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Info(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func stubEngine(pois []model.POI) engine.Func {
	return func(_ context.Context, people []model.Person) ([]model.POI, error) {
		return pois, nil
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s := New(WithAPIKey("key"))
	defer s.Close()

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "key", s.APIKey)
	assert.Equal(t, mode.KindTitle, s.Mode.Current().Kind())
	assert.True(t, s.ShowAbout.Get())
	assert.Nil(t, s.Engine.Get())
	assert.False(t, s.Sidebar.Get().Mounted())
	assert.False(t, s.MapPanel.Get().Mounted())
}

func TestSessionsDoNotShareState(t *testing.T) {
	a, b := New(), New()
	defer a.Close()
	defer b.Close()

	a.Mode.Begin()
	a.ShowAbout.Set(false)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, mode.KindTitle, b.Mode.Current().Kind())
	assert.True(t, b.ShowAbout.Get())
}

func TestEndToEndScenario(t *testing.T) {
	pois := []model.POI{{
		OSMURL:         "https://www.openstreetmap.org/node/1",
		Point:          model.Point{X: 1.001, Y: 2},
		Kind:           "cafe",
		TimesPerPerson: []model.TimeSample{{Person: "A", Minutes: 12}},
	}}
	s := New(WithEngine(stubEngine(pois)))
	defer s.Close()

	require.Equal(t, mode.KindTitle, s.Mode.Current().Kind())
	s.Mode.Begin()
	in, ok := s.Mode.Current().(mode.Input)
	require.True(t, ok)
	require.Empty(t, in.People)

	personA := model.Person{Name: "A", Home: orb.Point{1, 2}, MaxTimeMinutes: 15}
	s.Mode.Set(in.With(personA))
	require.NoError(t, s.Submit(context.Background()))

	res, ok := s.Mode.Current().(mode.Results)
	require.True(t, ok)
	require.Len(t, res.POIs, 1)
	assert.Equal(t, 12.0, model.AverageTime(res.POIs[0]))
	assert.Equal(t, model.Palette[0], model.ColorOf(0))
	color, ok := res.ColorOf("A")
	require.True(t, ok)
	assert.Equal(t, model.Palette[0], color)

	view := s.Map.Get()
	assert.True(t, view.Bound.Contains(orb.Point{1, 2}))
	assert.True(t, view.Bound.Contains(orb.Point{1.001, 2}))
}

func TestSubmitErrorsLeaveModeUnchanged(t *testing.T) {
	s := New()
	defer s.Close()

	assert.True(t, errors.Is(s.Submit(context.Background()), ErrNotEditing))

	s.Mode.Begin()
	assert.True(t, errors.Is(s.Submit(context.Background()), ErrNoEngine))

	s.Engine.Set(stubEngine(nil))
	assert.True(t, errors.Is(s.Submit(context.Background()), ErrNoPeople))

	boom := errors.New("boom")
	s.Engine.Set(engine.Func(func(context.Context, []model.Person) ([]model.POI, error) {
		return nil, boom
	}))
	s.Mode.Edit([]model.Person{{Name: "A", MaxTimeMinutes: 5}})
	err := s.Submit(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, mode.KindInput, s.Mode.Current().Kind())
}

func TestLoggerRecordsTransitionsUntilClose(t *testing.T) {
	logger := &recordingLogger{}
	s := New(WithLogger(logger), WithEngine(stubEngine([]model.POI{{OSMURL: "node/1"}})))

	s.Mode.Begin()
	s.Mode.Edit([]model.Person{{Name: "A", MaxTimeMinutes: 5}})
	require.NoError(t, s.Submit(context.Background()))
	s.Close()
	s.Mode.Reset()

	require.Len(t, logger.lines, 4)
	assert.True(t, strings.HasSuffix(logger.lines[0], "mode title"))
	assert.Contains(t, logger.lines[1], "0 people")
	assert.Contains(t, logger.lines[2], "1 people")
	assert.Contains(t, logger.lines[3], "1 pois for 1 people")
	assert.Zero(t, s.Mode.Subscribers())
}

func TestEngineBoundsFrameTheMap(t *testing.T) {
	catalog, err := engine.ParseCatalog([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[10,20]},"properties":{"amenity":"cafe"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[11,21]},"properties":{"amenity":"pub"}}]}`))
	require.NoError(t, err)
	walking, err := engine.NewWalking(catalog)
	require.NoError(t, err)

	s := New(WithEngine(walking))
	defer s.Close()
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{11, 21}}, s.Map.Get().Bound)

	require.NoError(t, s.Focus(context.Background(), model.POI{Point: model.Point{X: 10.5, Y: 20.5}}))
	require.NotNil(t, s.Map.Get().Focus)
	assert.Equal(t, orb.Point{10.5, 20.5}, *s.Map.Get().Focus)
	assert.Empty(t, s.Map.Get().Routes, "no people, no routes")
	assert.Equal(t, catalog.Bound, s.Map.Get().Bound)

	mask, ok := s.OutsideArea()
	require.True(t, ok)
	assert.Equal(t, engine.InvertedBoundary(catalog.Bound), mask)
}

func TestFocusStoresRoutesPerPerson(t *testing.T) {
	poi := model.POI{OSMURL: "node/1", Point: model.Point{X: 0.01, Y: 0.01}}
	s := New(WithEngine(stubEngine([]model.POI{poi})))
	defer s.Close()
	a := model.Person{Name: "A", Home: orb.Point{0, 0}, MaxTimeMinutes: 15}
	b := model.Person{Name: "B", Home: orb.Point{0.02, 0}, MaxTimeMinutes: 15}
	s.Mode.Edit([]model.Person{a, b})
	require.NoError(t, s.Submit(context.Background()))

	require.NoError(t, s.Focus(context.Background(), poi))
	routes := s.Map.Get().Routes
	require.Len(t, routes, 2)
	assert.Equal(t, Route{Person: "A", Line: orb.LineString{{0, 0}, {0.01, 0.01}}}, routes[0])
	assert.Equal(t, Route{Person: "B", Line: orb.LineString{{0.02, 0}, {0.01, 0.01}}}, routes[1])

	_, ok := s.OutsideArea()
	assert.False(t, ok, "a stub engine has no data area")

	s.Mode.Reset()
	require.NoError(t, s.Focus(context.Background(), poi))
	assert.Empty(t, s.Map.Get().Routes, "routes are dropped once the people are gone")
}

type brokenRouter struct{ engine.Func }

func (brokenRouter) RoutesTo(context.Context, []model.Person, orb.Point) ([]orb.LineString, error) {
	return nil, errors.New("no path")
}

func TestFocusKeepsMarkerWhenRoutingFails(t *testing.T) {
	s := New(WithEngine(brokenRouter{stubEngine(nil)}))
	defer s.Close()
	s.Mode.Edit([]model.Person{{Name: "A", Home: orb.Point{0, 0}, MaxTimeMinutes: 15}})

	err := s.Focus(context.Background(), model.POI{Point: model.Point{X: 1, Y: 1}})
	assert.ErrorContains(t, err, "no path")
	require.NotNil(t, s.Map.Get().Focus)
	assert.Equal(t, orb.Point{1, 1}, *s.Map.Get().Focus)
	assert.Empty(t, s.Map.Get().Routes)
}
