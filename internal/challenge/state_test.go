package challenge

import (
	"testing"
	"time"
)

func TestDaySet_AddIsIdempotent(t *testing.T) {
	s := NewDaySet("2026-03-09")
	s.Add("2026-03-09")
	s.Add("2026-03-09")

	if len(s) != 1 {
		t.Fatalf("len = %d, want 1", len(s))
	}
	if got := s.Sorted(); len(got) != 1 || got[0] != "2026-03-09" {
		t.Fatalf("Sorted = %v", got)
	}
}

func TestDaySet_SortedOrder(t *testing.T) {
	s := NewDaySet("2026-03-10", "2026-02-28", "2026-03-01")

	got := s.Sorted()
	want := []string{"2026-02-28", "2026-03-01", "2026-03-10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sorted = %v, want %v", got, want)
		}
	}
}

// Display completion is the union of the explicit flag and the event-count
// threshold: each set may contain days the other does not.
func TestState_DisplayCompleteIsUnion(t *testing.T) {
	base := time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC)
	h := append(eventsOn("2026-03-09", Target, base), eventsOn("2026-03-08", 12, base.Add(-24*time.Hour))...)

	st := State{CompletedDays: NewDaySet("2026-03-08")}

	if !st.DisplayComplete("2026-03-08", h) {
		t.Error("explicitly flagged day (12 events) must display complete")
	}
	if !st.DisplayComplete("2026-03-09", h) {
		t.Error("day with 100 events must display complete without the flag")
	}
	if st.DisplayComplete("2026-03-07", h) {
		t.Error("unflagged day with no events must not display complete")
	}
}
