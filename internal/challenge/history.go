package challenge

import (
	"encoding/json"
	"sort"
	"time"
)

// DayFormat is the calendar-day key used everywhere: local wall-clock date,
// not a rolling 24h window.
const DayFormat = "2006-01-02"

// Target is the number of repetitions that completes a day.
const Target = 100

// ChallengeLength is the length of the challenge in days.
const ChallengeLength = 30

// Day returns the calendar-day key for t.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}

// RepetitionEvent is one recorded repetition. Immutable once created.
type RepetitionEvent struct {
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the ordered repetition log, the single source of truth all
// counters are derived from. Append-only except for LIFO removal of
// same-day events.
type History []RepetitionEvent

// CountOn returns the number of events recorded on the given day.
func (h History) CountOn(day string) int {
	n := 0
	for _, ev := range h {
		if ev.Date == day {
			n++
		}
	}
	return n
}

// Total returns the total number of recorded repetitions.
func (h History) Total() int {
	return len(h)
}

// ApplyDelta returns the history with delta applied at now. Positive deltas
// append events dated Day(now). Negative deltas remove the most recently
// appended events of that day only, clamped to what exists; events on prior
// days are never touched. delta == 0 is a no-op.
func (h History) ApplyDelta(delta int, now time.Time) History {
	if delta == 0 {
		return h
	}
	today := Day(now)

	if delta > 0 {
		out := make(History, len(h), len(h)+delta)
		copy(out, h)
		for i := 0; i < delta; i++ {
			out = append(out, RepetitionEvent{Date: today, Timestamp: now})
		}
		return out
	}

	remove := -delta
	if c := h.CountOn(today); remove > c {
		remove = c
	}
	if remove == 0 {
		return h
	}

	out := make(History, len(h))
	copy(out, h)
	for i := len(out) - 1; i >= 0 && remove > 0; i-- {
		if out[i].Date == today {
			out = append(out[:i], out[i+1:]...)
			remove--
		}
	}
	return out
}

// Merge unions two histories, deduplicating by (date, timestamp) and
// ordering by timestamp. This is the explicit conflict-resolution policy for
// the same user syncing from more than one device: no device's events are
// lost to a blind full-history overwrite.
func Merge(a, b History) History {
	type key struct {
		date string
		ts   int64
	}
	seen := make(map[key]struct{}, len(a)+len(b))
	out := make(History, 0, len(a)+len(b))

	add := func(evs History) {
		for _, ev := range evs {
			k := key{ev.Date, ev.Timestamp.UnixNano()}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, ev)
		}
	}
	add(a)
	add(b)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Encode serializes the history to JSON. An empty history encodes as "[]"
// rather than "null" so the stored blob is always a valid array.
func (h History) Encode() []byte {
	if len(h) == 0 {
		return []byte("[]")
	}
	b, err := json.Marshal(h)
	if err != nil {
		return []byte("[]")
	}
	return b
}

// DecodeHistory parses a stored history blob. Malformed input yields an
// empty history: losing an unparseable blob is preferred over blocking the
// user.
func DecodeHistory(b []byte) History {
	if len(b) == 0 {
		return History{}
	}
	var h History
	if err := json.Unmarshal(b, &h); err != nil {
		return History{}
	}
	return h
}
