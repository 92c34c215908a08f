package apiserver

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MatchSummary is the externally-visible state of one running or
// finished match, the way a lobby used to describe one pending
// multiplayer session — here there is no pre-game handshake, only a
// match's id, the level it was built from, its squads, and whether it
// has finished.
type MatchSummary struct {
	ID          string `json:"id"`
	Level       string `json:"level"`
	BlueSquad   string `json:"blue_squad"`
	RedSquad    string `json:"red_squad"`
	Tick        uint64 `json:"tick"`
	Finished    bool   `json:"finished"`
	Winner      string `json:"winner,omitempty"`
}

// Registry tracks every match the server has started, for the listing
// endpoint and for routing a websocket subscriber to the right event
// stream.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*MatchSummary
	log     []string
}

// NewRegistry returns an empty match registry.
func NewRegistry() *Registry {
	return &Registry{matches: make(map[string]*MatchSummary)}
}

// Start registers a new match and returns its summary.
func (r *Registry) Start(id, level, blueSquad, redSquad string) *MatchSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &MatchSummary{ID: id, Level: level, BlueSquad: blueSquad, RedSquad: redSquad}
	r.matches[id] = m
	r.note(fmt.Sprintf("match %s started: %s vs %s on %s", id, blueSquad, redSquad, level))
	return m
}

// UpdateTick records the current tick of a running match.
func (r *Registry) UpdateTick(id string, tick uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		m.Tick = tick
	}
}

// Finish marks a match as complete with the given winner ("Blue",
// "Red", or "" for a draw).
func (r *Registry) Finish(id, winner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		m.Finished = true
		m.Winner = winner
		r.note(fmt.Sprintf("match %s finished: winner=%s", id, winner))
	}
}

// List returns a snapshot of every tracked match.
func (r *Registry) List() []MatchSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MatchSummary, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, *m)
	}
	return out
}

// Get returns one match's summary.
func (r *Registry) Get(id string) (MatchSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return MatchSummary{}, false
	}
	return *m, true
}

func (r *Registry) note(msg string) {
	r.log = append(r.log, msg)
}

// MarshalJSON renders the full registry listing, used by the /matches
// endpoint.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.List())
}
