package challenge

import (
	"errors"
	"testing"
)

func TestStartChallenge_BackfillsElapsedDays(t *testing.T) {
	res, err := StartChallenge("2026-03-05", "2026-03-10")
	if err != nil {
		t.Fatalf("StartChallenge: %v", err)
	}

	if got := res.History.Total(); got != 5*Target {
		t.Errorf("total events = %d, want %d", got, 5*Target)
	}
	if res.CurrentDay != 5 {
		t.Errorf("currentDay = %d, want 5", res.CurrentDay)
	}

	for _, day := range []string{"2026-03-05", "2026-03-06", "2026-03-07", "2026-03-08", "2026-03-09"} {
		if !res.CompletedDays.Contains(day) {
			t.Errorf("day %s missing from completed set", day)
		}
		if got := res.History.CountOn(day); got != Target {
			t.Errorf("day %s count = %d, want %d", day, got, Target)
		}
	}

	// Today is never backfilled.
	if got := res.History.CountOn("2026-03-10"); got != 0 {
		t.Errorf("today count = %d, want 0", got)
	}
	if res.CompletedDays.Contains("2026-03-10") {
		t.Error("today must not be marked complete")
	}
}

func TestStartChallenge_TodayStartsEmpty(t *testing.T) {
	res, err := StartChallenge("2026-03-10", "2026-03-10")
	if err != nil {
		t.Fatalf("StartChallenge: %v", err)
	}
	if res.History.Total() != 0 || res.CurrentDay != 0 || len(res.CompletedDays) != 0 {
		t.Fatalf("same-day start must be empty, got total=%d currentDay=%d completed=%d",
			res.History.Total(), res.CurrentDay, len(res.CompletedDays))
	}
}

func TestStartChallenge_RejectsFutureDate(t *testing.T) {
	_, err := StartChallenge("2026-03-11", "2026-03-10")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
}

func TestStartChallenge_RejectsMalformedDate(t *testing.T) {
	_, err := StartChallenge("03/10/2026", "2026-03-10")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
}

// Elapsed time past the 30-day cycle clamps: the backfill never synthesizes
// more than the challenge length.
func TestStartChallenge_ClampsAtChallengeLength(t *testing.T) {
	res, err := StartChallenge("2026-01-01", "2026-03-10")
	if err != nil {
		t.Fatalf("StartChallenge: %v", err)
	}
	if res.CurrentDay != ChallengeLength {
		t.Errorf("currentDay = %d, want %d", res.CurrentDay, ChallengeLength)
	}
	if got := res.History.Total(); got != ChallengeLength*Target {
		t.Errorf("total events = %d, want %d", got, ChallengeLength*Target)
	}
	if got := len(res.CompletedDays); got != ChallengeLength {
		t.Errorf("completed days = %d, want %d", got, ChallengeLength)
	}
}

func TestStartChallenge_SynthesizedTimestampsDistinct(t *testing.T) {
	res, err := StartChallenge("2026-03-09", "2026-03-10")
	if err != nil {
		t.Fatalf("StartChallenge: %v", err)
	}
	// Merging the backfill with itself must not collapse any events.
	if got := Merge(res.History, res.History).Total(); got != Target {
		t.Fatalf("self-merge total = %d, want %d", got, Target)
	}
}
