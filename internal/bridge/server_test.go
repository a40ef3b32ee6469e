package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/meetpoint/internal/config"
	"github.com/kingrea/meetpoint/internal/engine"
	"github.com/kingrea/meetpoint/internal/mode"
	"github.com/kingrea/meetpoint/internal/model"
	"github.com/kingrea/meetpoint/internal/session"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestDisabledServerDoesNotStart(t *testing.T) {
	srv := NewServer(config.BridgeConfig{Host: "127.0.0.1", Port: 8766}, nil)
	assert.ErrorIs(t, srv.Start(context.Background()), ErrDisabled)
	assert.Equal(t, "http://127.0.0.1:8766", srv.BaseURL())
	assert.Equal(t, StatusStarting, srv.Status())
}

func TestStateTracksSessionMode(t *testing.T) {
	pois := []model.POI{
		{OSMURL: "node/1", TimesPerPerson: []model.TimeSample{{Person: "A", Minutes: 12}}},
		{OSMURL: "node/2"},
	}
	sess := session.New(session.WithEngine(engine.Func(func(context.Context, []model.Person) ([]model.POI, error) {
		return pois, nil
	})))
	defer sess.Close()
	state := NewState()
	stop := state.Track(sess)

	assert.JSONEq(t, `{"kind":"title"}`, string(state.Snapshot().Mode))
	sess.Mode.Edit([]model.Person{{Name: "A", Home: orb.Point{1, 2}, MaxTimeMinutes: 15}})
	require.NoError(t, sess.Submit(context.Background()))

	snap := state.Snapshot()
	assert.Equal(t, sess.ID, snap.SessionID)
	assert.Empty(t, snap.Error)
	decoded, err := mode.Decode(snap.Mode)
	require.NoError(t, err)
	assert.Equal(t, mode.KindResults, decoded.Kind())
	require.NotNil(t, snap.Averages["node/1"])
	assert.Equal(t, 12.0, *snap.Averages["node/1"])
	avg, ok := snap.Averages["node/2"]
	assert.True(t, ok)
	assert.Nil(t, avg, "no samples means a null average")

	stop()
	sess.Mode.Reset()
	after := state.Snapshot()
	assert.Equal(t, sess.ID, after.SessionID)
	assert.NotNil(t, after.Averages, "untracked changes must not reach the snapshot")
}

func TestStateRecordsModesThatCannotEncode(t *testing.T) {
	logger := &recordingLogger{}
	state := NewState(WithStateLogger(logger))
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ticks := 0
	state.clock = func() time.Time {
		ticks++
		return start.Add(time.Duration(ticks) * time.Minute)
	}
	sess := session.New()
	defer sess.Close()
	defer state.Track(sess)()

	sess.Mode.Begin()
	first := state.Snapshot()
	assert.Empty(t, first.Error)

	sess.Mode.Edit([]model.Person{{Name: "A", Home: orb.Point{1, 2}, MaxTimeMinutes: math.Inf(1)}})
	snap := state.Snapshot()
	assert.NotEmpty(t, snap.Error)
	assert.JSONEq(t, `{"kind":"input"}`, string(snap.Mode))
	assert.Equal(t, sess.ID, snap.SessionID)
	assert.True(t, snap.UpdatedAt.After(first.UpdatedAt))
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "input")

	sess.Mode.Edit([]model.Person{{Name: "A", Home: orb.Point{1, 2}, MaxTimeMinutes: 15}})
	assert.Empty(t, state.Snapshot().Error, "a later good mode clears the error")
}

func TestHandlerServesHealthAndState(t *testing.T) {
	state := NewState()
	sess := session.New()
	defer sess.Close()
	defer state.Track(sess)()
	sess.Mode.Begin()

	srv := httptest.NewServer(NewServer(config.BridgeConfig{}, state).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	got, err := mode.Decode(snap.Mode)
	require.NoError(t, err)
	assert.Equal(t, mode.KindInput, got.Kind())

	post, err := http.Post(srv.URL+"/state", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
	assert.Equal(t, "GET, HEAD", post.Header.Get("Allow"))
}

func TestServerStartAndShutdown(t *testing.T) {
	logger := &recordingLogger{}
	srv := NewServer(config.BridgeConfig{Enabled: true, Host: "127.0.0.1", Port: 0}, NewState(), WithLogger(logger))
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	assert.Error(t, srv.Start(context.Background()), "second start must fail")
	require.NotEmpty(t, logger.lines)
	assert.Contains(t, logger.lines[0], "listening on")

	resp, err := http.Get(srv.BaseURL() + "/health")
	require.NoError(t, err)
	var health healthResponse
	err = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, string(StatusReady), health.Status)
	assert.Equal(t, ProtocolVersion, health.Version)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, StatusDraining, srv.Status())
}
