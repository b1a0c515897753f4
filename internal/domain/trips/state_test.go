package trips

import "testing"

func TestStateChain(t *testing.T) {
	want := []State{StateInit, StatePlanning, StatePlanned, StateActive, StateReview, StateDone}

	s := StateInit
	for i := 1; i < len(want); i++ {
		next, ok := s.Next()
		if !ok {
			t.Fatalf("Next() from %q: no transition, want %q", s, want[i])
		}
		if next != want[i] {
			t.Fatalf("Next() from %q = %q, want %q", s, next, want[i])
		}
		s = next
	}

	for i := len(want) - 2; i >= 0; i-- {
		prev, ok := s.Prev()
		if !ok {
			t.Fatalf("Prev() from %q: no transition, want %q", s, want[i])
		}
		if prev != want[i] {
			t.Fatalf("Prev() from %q = %q, want %q", s, prev, want[i])
		}
		s = prev
	}
}

func TestStateBoundaries(t *testing.T) {
	if _, ok := StateInit.Prev(); ok {
		t.Error("Prev() from init should have no transition")
	}
	if _, ok := StateDone.Next(); ok {
		t.Error("Next() from done should have no transition")
	}
}

func TestParseState(t *testing.T) {
	for _, s := range stateOrder {
		got, err := ParseState(string(s))
		if err != nil {
			t.Errorf("ParseState(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("ParseState(%q) = %q", s, got)
		}
	}
	if _, err := ParseState("archived"); err == nil {
		t.Error("ParseState should reject unknown states")
	}
}
