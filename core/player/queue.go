package player

import (
	"sync"

	"mixvault/model"
)

// State is an immutable snapshot of the playback queue: what is playing now,
// what is queued next, and whether the player/queue panels are open. It only
// decides what should be playing; transport controls (play/pause/seek/volume)
// live with the rendering layer and are not represented here.
type State struct {
	CurrentMix   *model.Mix
	Queue        []model.Mix
	IsPlayerOpen bool
	IsQueueOpen  bool
}

// clone copies the snapshot so transitions never alias a caller's slice.
func (s State) clone() State {
	out := s
	out.Queue = make([]model.Mix, len(s.Queue))
	copy(out.Queue, s.Queue)
	return out
}

// PlayMix replaces the current mix unconditionally and opens the player. The
// queue is untouched.
func PlayMix(s State, m model.Mix) State {
	next := s.clone()
	next.CurrentMix = &m
	next.IsPlayerOpen = true
	return next
}

// AddToQueue appends m unless a queue entry already has its ID; the existing
// entry keeps its data. The player opens either way: queuing implies intent
// to listen.
func AddToQueue(s State, m model.Mix) State {
	next := s.clone()
	next.IsPlayerOpen = true
	for _, q := range next.Queue {
		if q.ID == m.ID {
			return next
		}
	}
	next.Queue = append(next.Queue, m)
	return next
}

// RemoveFromQueue removes the entry at index i. Out-of-range indices are a
// no-op.
func RemoveFromQueue(s State, i int) State {
	if i < 0 || i >= len(s.Queue) {
		return s.clone()
	}
	next := s.clone()
	next.Queue = append(next.Queue[:i], next.Queue[i+1:]...)
	return next
}

// PlayNext pops the queue head into the current slot. An empty queue is the
// sole terminal transition: it fully resets the player.
func PlayNext(s State) State {
	if len(s.Queue) == 0 {
		return ClosePlayer(s)
	}
	next := s.clone()
	head := next.Queue[0]
	next.CurrentMix = &head
	next.Queue = next.Queue[1:]
	next.IsPlayerOpen = true
	return next
}

// ReorderQueue moves the entry at from to position to, remove-then-reinsert.
// Invalid indices are a no-op; from == to is stable.
func ReorderQueue(s State, from, to int) State {
	next := s.clone()
	if from < 0 || from >= len(next.Queue) || to < 0 || to >= len(next.Queue) || from == to {
		return next
	}
	item := next.Queue[from]
	rest := append(next.Queue[:from], next.Queue[from+1:]...)
	queue := make([]model.Mix, 0, len(rest)+1)
	queue = append(queue, rest[:to]...)
	queue = append(queue, item)
	queue = append(queue, rest[to:]...)
	next.Queue = queue
	return next
}

// ClearQueue empties the queue only. Current playback and panel visibility
// are untouched; clearing the queue must never interrupt what is playing.
func ClearQueue(s State) State {
	next := s.clone()
	next.Queue = nil
	return next
}

// ClosePlayer is the explicit full reset: no current mix, empty queue, both
// panels closed.
func ClosePlayer(State) State {
	return State{}
}

// ToggleQueuePanel flips the queue panel visibility.
func ToggleQueuePanel(s State) State {
	next := s.clone()
	next.IsQueueOpen = !next.IsQueueOpen
	return next
}

// Store owns a queue State across navigation. All transitions are synchronous
// and atomic from the caller's perspective.
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore creates an empty player store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the current state.
func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.clone()
}

// Apply runs a transition against the current state and stores the result.
func (st *Store) Apply(fn func(State) State) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = fn(st.state)
	return st.state.clone()
}
