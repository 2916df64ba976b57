package challenge

import (
	"testing"
	"time"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/user"
)

func syncUser(start string, completed []string, h History) user.User {
	return user.User{
		ID:                 1,
		Username:           "ana",
		ChallengeStartDate: start,
		RepetitionHistory:  h.Encode(),
		CompletedDays:      completed,
	}
}

// Restarting the challenge replaces the history wholesale; completed days
// from the previous challenge must not survive into the new one.
func TestApplySync_RestartDiscardsPreviousChallenge(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	u := syncUser("2026-01-01",
		[]string{"2026-01-01", "2026-01-02"},
		eventsOn("2026-01-02", Target, base))

	res, err := StartChallenge("2026-03-01", "2026-03-03")
	if err != nil {
		t.Fatalf("StartChallenge: %v", err)
	}
	start := "2026-03-01"
	cur := res.CurrentDay
	applySync(&u, UserUpdate{
		ChallengeStartDate: &start,
		RepetitionHistory:  res.History.Encode(),
		CompletedDays:      res.CompletedDays.Sorted(),
		CurrentDay:         &cur,
	}, "2026-03-03")

	if u.ChallengeStartDate != "2026-03-01" {
		t.Fatalf("start date = %q", u.ChallengeStartDate)
	}
	for _, d := range u.CompletedDays {
		if d < "2026-03-01" {
			t.Fatalf("completed day %s from the previous challenge survived the restart", d)
		}
	}
	if got := len(u.CompletedDays); got != 2 {
		t.Fatalf("completed days = %v, want the two backfilled days only", u.CompletedDays)
	}
	if u.TotalRepetitions != 2*Target {
		t.Fatalf("total = %d, want %d (old history replaced, not merged)", u.TotalRepetitions, 2*Target)
	}
}

func TestApplySync_ResetClearsChallenge(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	u := syncUser("2026-03-01", []string{"2026-03-01"}, eventsOn("2026-03-01", Target, base))

	empty := ""
	zero := 0
	applySync(&u, UserUpdate{
		ChallengeStartDate: &empty,
		RepetitionHistory:  []byte("[]"),
		CompletedDays:      []string{},
		CurrentDay:         &zero,
	}, "2026-03-05")

	if u.ChallengeStartDate != "" || u.TotalRepetitions != 0 || len(u.CompletedDays) != 0 {
		t.Fatalf("reset left state behind: start=%q total=%d completed=%v",
			u.ChallengeStartDate, u.TotalRepetitions, u.CompletedDays)
	}
}

// An ordinary sync unions the incoming history with the stored one, so a
// save from one device never erases another's work.
func TestApplySync_OrdinarySaveMerges(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	stored := eventsOn("2026-03-10", 40, base)
	u := syncUser("2026-03-01", []string{"2026-03-09"}, stored)

	incoming := Merge(stored, eventsOn("2026-03-10", 20, base.Add(time.Hour)))
	applySync(&u, UserUpdate{RepetitionHistory: incoming.Encode()}, "2026-03-10")

	if u.TodayRepetitions != 60 {
		t.Fatalf("today = %d, want 60", u.TodayRepetitions)
	}
	if got := []string(u.CompletedDays); len(got) != 1 || got[0] != "2026-03-09" {
		t.Fatalf("completed days = %v, want the stored day kept", got)
	}
}

func TestApplySync_TargetReachedReportsCompletionOnce(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	u := syncUser("2026-03-01", nil, eventsOn("2026-03-10", Target-1, base))

	full := eventsOn("2026-03-10", Target, base)
	if !applySync(&u, UserUpdate{RepetitionHistory: full.Encode()}, "2026-03-10") {
		t.Fatal("reaching the target must report completion")
	}
	if got := []string(u.CompletedDays); len(got) != 1 || got[0] != "2026-03-10" {
		t.Fatalf("completed days = %v, want today flagged", got)
	}
	if applySync(&u, UserUpdate{RepetitionHistory: full.Encode()}, "2026-03-10") {
		t.Fatal("an already-complete day must not report completion again")
	}
}
