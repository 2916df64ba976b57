package challenge

import "sort"

// DaySet is a set of calendar-day keys.
type DaySet map[string]struct{}

func NewDaySet(days ...string) DaySet {
	s := make(DaySet, len(days))
	for _, d := range days {
		s[d] = struct{}{}
	}
	return s
}

// Add inserts a day; inserting an already-present day is a no-op.
func (s DaySet) Add(day string) {
	s[day] = struct{}{}
}

func (s DaySet) Contains(day string) bool {
	_, ok := s[day]
	return ok
}

// Sorted returns the days in ascending calendar order.
func (s DaySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s DaySet) Clone() DaySet {
	out := make(DaySet, len(s))
	for d := range s {
		out[d] = struct{}{}
	}
	return out
}

// State is the per-user challenge progress. Counters are always derived
// from the history; State never carries an independent repetition count.
type State struct {
	// StartDate is empty until the user picks one.
	StartDate string
	// CurrentDay is how many days the user has advanced in the 30-day cycle.
	CurrentDay int
	// CompletedDays are days explicitly marked complete, whether by reaching
	// the target naturally, by backfill, or by override.
	CompletedDays DaySet
	// LastActiveDate is the last calendar day the server observed activity;
	// empty before first contact. Used to detect day-boundary crossings.
	LastActiveDate string
}

// Started reports whether the user has picked a start date.
func (st State) Started() bool {
	return st.StartDate != ""
}

// DisplayComplete reports whether a day shows as complete: either explicitly
// flagged or carrying at least Target events in the history. The two sets may
// each contain days the other does not.
func (st State) DisplayComplete(day string, h History) bool {
	return st.CompletedDays.Contains(day) || h.CountOn(day) >= Target
}

// Clone returns a deep copy of the state.
func (st State) Clone() State {
	out := st
	out.CompletedDays = st.CompletedDays.Clone()
	return out
}
