package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kingrea/meetpoint/internal/mode"
	"github.com/kingrea/meetpoint/internal/model"
	"github.com/kingrea/meetpoint/internal/session"
	"github.com/kingrea/meetpoint/internal/store"
)

// Snapshot is the JSON body served at /state.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Mode      json.RawMessage `json:"mode"`
	// Averages maps osm_url to average minutes; null means no samples.
	Averages map[string]*float64 `json:"averages,omitempty"`
	// Error is set when the Mode could not be encoded; Mode then only
	// carries its kind.
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State keeps the latest Snapshot of a session for HTTP readers. Track
// writes it from the session's goroutine; the server reads it from its own.
type State struct {
	mu     sync.RWMutex
	snap   Snapshot
	clock  func() time.Time
	logger Logger
}

// StateOption customizes a State.
type StateOption func(*State)

// WithStateLogger reports snapshots that could not be encoded.
func WithStateLogger(l Logger) StateOption {
	return func(st *State) {
		if l != nil {
			st.logger = l
		}
	}
}

// NewState returns an empty state.
func NewState(opts ...StateOption) *State {
	st := &State{
		snap:   Snapshot{Mode: json.RawMessage(`{"kind":"title"}`)},
		clock:  func() time.Time { return time.Now().UTC() },
		logger: nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(st)
		}
	}
	return st
}

// Track mirrors the session's Mode into the state until the returned
// handle is called.
func (st *State) Track(s *session.Session) store.Unsubscribe {
	return s.Mode.Subscribe(func(m mode.Mode) {
		st.record(s.ID, m)
	})
}

// Snapshot returns a copy of the latest snapshot.
func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	snap := st.snap
	if snap.Averages != nil {
		snap.Averages = make(map[string]*float64, len(st.snap.Averages))
		for k, v := range st.snap.Averages {
			snap.Averages[k] = v
		}
	}
	return snap
}

func (st *State) record(sessionID string, m mode.Mode) {
	var encodeErr string
	encoded, err := mode.Encode(m)
	if err != nil {
		encodeErr = err.Error()
		encoded = json.RawMessage(fmt.Sprintf(`{"kind":%q}`, m.Kind()))
		st.logger.Printf("bridge: session %s: snapshot %s mode: %v", sessionID, m.Kind(), err)
	}
	var averages map[string]*float64
	if res, ok := m.(mode.Results); ok {
		averages = make(map[string]*float64, len(res.POIs))
		for _, poi := range res.POIs {
			avg := model.AverageTime(poi)
			if math.IsNaN(avg) {
				averages[poi.OSMURL] = nil
				continue
			}
			averages[poi.OSMURL] = &avg
		}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snap = Snapshot{
		SessionID: sessionID,
		Mode:      encoded,
		Averages:  averages,
		Error:     encodeErr,
		UpdatedAt: st.clock(),
	}
}
