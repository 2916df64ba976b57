package challenge

import (
	"context"
	"log"
	"time"
)

// Reconcile merges the server's view of the user with any locally cached
// unsynced work and rolls the challenge day forward if a calendar boundary
// was crossed since the server last saw activity. It runs once per session
// start and is idempotent: a second call with no intervening delta returns
// identical state.
func (t *Tracker) Reconcile(ctx context.Context) (State, error) {
	rec, err := t.Server.GetUser(ctx, t.UserID)
	if err != nil {
		return State{}, err
	}

	t.mu.Lock()

	now := t.now()
	today := Day(now)

	merged := DecodeHistory(rec.RepetitionHistory)

	// Recover unconfirmed local work. The cached history carries the
	// actual events, so the union merge reproduces the exact pre-reload
	// count; the pending-delta marker only matters when the cached
	// history itself was lost.
	if raw, ok, cerr := t.Cache.Get(historyKey(t.UserID)); cerr == nil && ok {
		merged = Merge(merged, DecodeHistory([]byte(raw)))
	} else if pd := readPendingDelta(t.Cache, t.UserID, today); pd != 0 {
		merged = merged.ApplyDelta(pd, now)
	}

	st := State{
		StartDate:      rec.ChallengeStartDate,
		CurrentDay:     rec.CurrentDay,
		CompletedDays:  NewDaySet(rec.CompletedDays...),
		LastActiveDate: rec.LastDate,
	}

	// Suppress a stale server read that would make today's visible count
	// go backwards right after a local increment.
	if t.displayed > 0 && now.Sub(t.lastLocalBump) < MonotonicGraceWindow &&
		merged.CountOn(today) < t.displayed {
		merged = Merge(merged, t.history)
	}

	t.rolloverLocked(&st, merged, today)

	t.history = merged
	t.state = st
	t.displayed = merged.CountOn(today)
	t.writeCacheLocked(today, 0)

	upd := t.updateLocked(today, t.displayed)
	out := st.Clone()
	t.mu.Unlock()

	if err := t.Server.UpdateUser(ctx, t.UserID, upd); err != nil {
		return out, err
	}

	// The save above covers everything the markers recorded, including a
	// marker left behind on an earlier day.
	if err := t.Cache.Delete(pendingKey(t.UserID, today)); err != nil {
		log.Printf("challenge: cache pending clear failed: %v", err)
	}
	if rec.LastDate != "" && rec.LastDate != today {
		_ = t.Cache.Delete(pendingKey(t.UserID, rec.LastDate))
	}
	return out, nil
}

// rolloverLocked advances the challenge across a crossed day boundary.
//
// The last day the server saw activity is threshold-checked: it advances
// the cycle only if it reached the target. Days between that day and today,
// which the user never opened the app on, are assumed complete: absence is
// treated as catch-up, not penalized. A missed target never resets the
// cycle; resets are an explicit user action.
func (t *Tracker) rolloverLocked(st *State, h History, today string) {
	last := st.LastActiveDate
	if last == "" || last == today {
		return
	}
	// Guard against double-processing when the user already acted today
	// from this client before reconciliation ran.
	if h.CountOn(today) > 0 {
		return
	}

	if h.CountOn(last) >= Target {
		st.CompletedDays.Add(last)
		t.advanceLocked(st)
	}

	lt, err := time.Parse(DayFormat, last)
	if err != nil {
		st.LastActiveDate = today
		return
	}
	for d := lt.AddDate(0, 0, 1); Day(d) < today; d = d.AddDate(0, 0, 1) {
		st.CompletedDays.Add(Day(d))
		t.advanceLocked(st)
	}

	st.LastActiveDate = today
}

func (t *Tracker) advanceLocked(st *State) {
	if st.CurrentDay < ChallengeLength {
		st.CurrentDay++
	}
}

// Start begins (or restarts) the challenge at startDate, backfilling every
// elapsed day as complete, and persists the result synchronously. Today is
// never backfilled, so today's count starts at zero.
func (t *Tracker) Start(ctx context.Context, startDate string) (State, error) {
	t.mu.Lock()
	now := t.now()
	today := Day(now)

	res, err := StartChallenge(startDate, today)
	if err != nil {
		t.mu.Unlock()
		return State{}, err
	}

	t.history = res.History
	t.state = State{
		StartDate:      startDate,
		CurrentDay:     res.CurrentDay,
		CompletedDays:  res.CompletedDays,
		LastActiveDate: today,
	}
	t.displayed = 0
	t.writeCacheLocked(today, 0)

	upd := t.updateLocked(today, 0)
	t.mu.Unlock()

	if err := t.Server.UpdateUser(ctx, t.UserID, upd); err != nil {
		return t.State(), err
	}
	return t.State(), nil
}

// Reset abandons the challenge: empty history, no start date, day zero.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	now := t.now()
	today := Day(now)

	t.history = History{}
	t.state = State{CompletedDays: NewDaySet()}
	t.displayed = 0
	_ = t.Cache.Delete(historyKey(t.UserID))
	_ = t.Cache.Delete(pendingKey(t.UserID, today))

	zero := 0
	empty := ""
	upd := UserUpdate{
		RepetitionHistory:  []byte("[]"),
		CompletedDays:      []string{},
		CurrentDay:         &zero,
		TodayRepetitions:   &zero,
		TotalRepetitions:   &zero,
		LastDate:           &today,
		ChallengeStartDate: &empty,
	}
	t.mu.Unlock()

	return t.Server.UpdateUser(ctx, t.UserID, upd)
}
