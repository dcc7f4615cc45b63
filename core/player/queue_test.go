package player

import (
	"testing"

	"mixvault/model"
)

func mix(id int64, title string) model.Mix {
	return model.Mix{ID: id, Title: title}
}

func queueIDs(s State) []int64 {
	ids := make([]int64, len(s.Queue))
	for i, m := range s.Queue {
		ids[i] = m.ID
	}
	return ids
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPlayMix(t *testing.T) {
	s := AddToQueue(State{}, mix(1, "a"))
	s = PlayMix(s, mix(2, "b"))

	if s.CurrentMix == nil || s.CurrentMix.ID != 2 {
		t.Fatal("current mix should be replaced unconditionally")
	}
	if !s.IsPlayerOpen {
		t.Error("player should open")
	}
	if !sameIDs(queueIDs(s), []int64{1}) {
		t.Error("queue must be untouched by playMix")
	}
}

func TestAddToQueueIdempotentByIdentity(t *testing.T) {
	s := AddToQueue(State{}, mix(1, "original"))
	s = AddToQueue(s, mix(2, "b"))
	s = AddToQueue(s, mix(1, "replacement attempt"))

	if len(s.Queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(s.Queue))
	}
	if s.Queue[0].Title != "original" {
		t.Error("existing entry's data must not be replaced")
	}
}

func TestAddToQueueOpensPlayer(t *testing.T) {
	s := AddToQueue(State{}, mix(1, "a"))
	if !s.IsPlayerOpen {
		t.Error("queuing with nothing playing still opens the player")
	}
	if s.CurrentMix != nil {
		t.Error("queuing must not start playback by itself")
	}
}

func TestPlayNext(t *testing.T) {
	t.Run("pops head into current", func(t *testing.T) {
		s := AddToQueue(State{}, mix(1, "a"))
		s = AddToQueue(s, mix(2, "b"))
		s = PlayNext(s)
		if s.CurrentMix == nil || s.CurrentMix.ID != 1 {
			t.Fatal("head should become current")
		}
		if !sameIDs(queueIDs(s), []int64{2}) {
			t.Error("rest of queue should shift up")
		}
	})

	t.Run("empty queue is terminal reset", func(t *testing.T) {
		s := PlayMix(State{}, mix(9, "playing"))
		s = ToggleQueuePanel(s)
		s = PlayNext(s)
		if s.CurrentMix != nil || len(s.Queue) != 0 || s.IsPlayerOpen || s.IsQueueOpen {
			t.Errorf("expected full reset, got %+v", s)
		}
	})
}

func TestRemoveFromQueue(t *testing.T) {
	s := AddToQueue(State{}, mix(1, "a"))
	s = AddToQueue(s, mix(2, "b"))
	s = AddToQueue(s, mix(3, "c"))

	s = RemoveFromQueue(s, 1)
	if !sameIDs(queueIDs(s), []int64{1, 3}) {
		t.Errorf("queue = %v", queueIDs(s))
	}

	// Out-of-range indices are a no-op, never a panic.
	s = RemoveFromQueue(s, -1)
	s = RemoveFromQueue(s, 99)
	if !sameIDs(queueIDs(s), []int64{1, 3}) {
		t.Errorf("queue = %v after out-of-range removes", queueIDs(s))
	}
}

func TestReorderQueue(t *testing.T) {
	build := func() State {
		var s State
		for i := int64(1); i <= 4; i++ {
			s = AddToQueue(s, mix(i, ""))
		}
		return s
	}

	t.Run("moves forward", func(t *testing.T) {
		s := ReorderQueue(build(), 0, 2)
		if !sameIDs(queueIDs(s), []int64{2, 3, 1, 4}) {
			t.Errorf("queue = %v", queueIDs(s))
		}
	})

	t.Run("moves backward", func(t *testing.T) {
		s := ReorderQueue(build(), 3, 0)
		if !sameIDs(queueIDs(s), []int64{4, 1, 2, 3}) {
			t.Errorf("queue = %v", queueIDs(s))
		}
	})

	t.Run("no-op swap is stable", func(t *testing.T) {
		s := ReorderQueue(build(), 2, 2)
		if !sameIDs(queueIDs(s), []int64{1, 2, 3, 4}) {
			t.Errorf("queue = %v", queueIDs(s))
		}
	})

	t.Run("preserves membership multiset", func(t *testing.T) {
		for from := 0; from < 4; from++ {
			for to := 0; to < 4; to++ {
				s := ReorderQueue(build(), from, to)
				seen := make(map[int64]int)
				for _, id := range queueIDs(s) {
					seen[id]++
				}
				if len(s.Queue) != 4 {
					t.Fatalf("reorder(%d,%d) changed length to %d", from, to, len(s.Queue))
				}
				for id := int64(1); id <= 4; id++ {
					if seen[id] != 1 {
						t.Fatalf("reorder(%d,%d): member %d count = %d", from, to, id, seen[id])
					}
				}
			}
		}
	})
}

func TestClearQueueKeepsPlayback(t *testing.T) {
	s := PlayMix(State{}, mix(5, "keep playing"))
	s = AddToQueue(s, mix(6, ""))
	s = ClearQueue(s)

	if len(s.Queue) != 0 {
		t.Error("queue should be empty")
	}
	if s.CurrentMix == nil || s.CurrentMix.ID != 5 {
		t.Error("clearing the queue must never interrupt current playback")
	}
	if !s.IsPlayerOpen {
		t.Error("player visibility must be untouched")
	}
}

func TestClosePlayerEqualsEmptyPlayNext(t *testing.T) {
	s := PlayMix(State{}, mix(1, ""))
	viaClose := ClosePlayer(s)
	viaNext := PlayNext(PlayMix(State{}, mix(1, "")))

	if viaClose.CurrentMix != nil || viaNext.CurrentMix != nil {
		t.Error("both paths must clear current mix")
	}
	if viaClose.IsPlayerOpen != viaNext.IsPlayerOpen || viaClose.IsQueueOpen != viaNext.IsQueueOpen {
		t.Error("both paths must produce the same visibility state")
	}
}

func TestStoreTransitionsAreAtomic(t *testing.T) {
	st := NewStore()
	st.Apply(func(s State) State { return AddToQueue(s, mix(1, "")) })
	st.Apply(func(s State) State { return AddToQueue(s, mix(2, "")) })

	snap := st.Snapshot()
	if !sameIDs(queueIDs(snap), []int64{1, 2}) {
		t.Errorf("queue = %v", queueIDs(snap))
	}

	// Mutating a snapshot must not leak into the store.
	snap.Queue[0] = mix(99, "")
	if st.Snapshot().Queue[0].ID != 1 {
		t.Error("snapshot aliasing leaked into store state")
	}
}
