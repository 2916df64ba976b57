package challenge

import (
	"testing"
	"time"
)

func eventsOn(day string, n int, base time.Time) History {
	h := make(History, 0, n)
	for i := 0; i < n; i++ {
		h = append(h, RepetitionEvent{Date: day, Timestamp: base.Add(time.Duration(i) * time.Second)})
	}
	return h
}

func TestApplyDelta_PositiveAppendsToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	h := History{}.ApplyDelta(3, now)

	if got := h.CountOn("2026-03-10"); got != 3 {
		t.Fatalf("CountOn today = %d, want 3", got)
	}
	if got := h.Total(); got != 3 {
		t.Fatalf("Total = %d, want 3", got)
	}
}

func TestApplyDelta_NegativeClampsToToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := eventsOn("2026-03-09", 5, now.Add(-24*time.Hour))

	h := append(History{}, yesterday...)
	h = h.ApplyDelta(2, now)
	h = h.ApplyDelta(-10, now)

	if got := h.CountOn("2026-03-10"); got != 0 {
		t.Errorf("today count = %d, want 0", got)
	}
	if got := h.CountOn("2026-03-09"); got != 5 {
		t.Errorf("yesterday count = %d, want 5 (prior days must not be touched)", got)
	}
}

func TestApplyDelta_NegativeOnEmptyIsNoop(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	h := History{}.ApplyDelta(-4, now)

	if got := h.Total(); got != 0 {
		t.Fatalf("Total = %d, want 0", got)
	}
}

// Deltas compose as a running clamped sum: decrements never drive the
// count below zero.
func TestApplyDelta_Composition(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		deltas []int
		want   int
	}{
		{"inc_inc_dec", []int{1, 1, -1}, 1},
		{"clamped_then_recovers", []int{2, -5, 3}, 3},
		{"all_removed", []int{4, -4}, 0},
		{"alternating", []int{1, -1, 1, -1, 1}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := History{}
			for i, d := range tc.deltas {
				h = h.ApplyDelta(d, now.Add(time.Duration(i)*time.Second))
			}
			if got := h.CountOn("2026-03-10"); got != tc.want {
				t.Errorf("count = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestApplyDelta_RemovesMostRecentFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	h := History{}
	h = h.ApplyDelta(1, now)
	h = h.ApplyDelta(1, now.Add(time.Minute))
	h = h.ApplyDelta(-1, now.Add(2*time.Minute))

	if got := len(h); got != 1 {
		t.Fatalf("len = %d, want 1", got)
	}
	if !h[0].Timestamp.Equal(now) {
		t.Errorf("remaining event timestamp = %v, want the earliest (%v)", h[0].Timestamp, now)
	}
}

func TestDecodeHistory_MalformedYieldsEmpty(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"oops":1}`, "[{", "null"} {
		h := DecodeHistory([]byte(raw))
		if h.Total() != 0 {
			t.Errorf("DecodeHistory(%q) total = %d, want 0", raw, h.Total())
		}
	}
}

func TestHistory_EncodeDecodeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	h := eventsOn("2026-03-10", 3, now)

	got := DecodeHistory(h.Encode())

	if got.Total() != 3 || got.CountOn("2026-03-10") != 3 {
		t.Fatalf("round trip lost events: total=%d", got.Total())
	}
}

func TestMerge_UnionDedupesByDateAndTimestamp(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a := eventsOn("2026-03-10", 5, base)
	b := append(eventsOn("2026-03-10", 5, base), eventsOn("2026-03-10", 2, base.Add(time.Hour))...)

	m := Merge(a, b)

	if got := m.CountOn("2026-03-10"); got != 7 {
		t.Fatalf("merged count = %d, want 7 (5 shared + 2 device-b only)", got)
	}
	for i := 1; i < len(m); i++ {
		if m[i].Timestamp.Before(m[i-1].Timestamp) {
			t.Fatalf("merge result not ordered by timestamp at %d", i)
		}
	}
}

func TestMerge_KeepsBothDevicesWork(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	phone := eventsOn("2026-03-10", 30, base)
	laptop := eventsOn("2026-03-10", 40, base.Add(2*time.Hour))

	m := Merge(phone, laptop)

	if got := m.CountOn("2026-03-10"); got != 70 {
		t.Fatalf("merged count = %d, want 70 (no device overwritten)", got)
	}
}
