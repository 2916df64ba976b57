package challenge

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"
)

// MonotonicGraceWindow is how long after a local increment a lower
// server-derived count is suppressed, so a stale read racing a sync never
// makes the visible counter go backwards.
const MonotonicGraceWindow = 15 * time.Second

// Tracker is one user's client-side challenge session: it owns the
// in-memory history and state, applies deltas synchronously, mirrors them
// to the durable cache, and pushes to the server through a collapsing sync
// queue.
type Tracker struct {
	UserID   uint64
	Username string
	Server   Server
	Cache    Cache

	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	history History
	state   State

	// displayed is today's count as last shown to the user; the
	// monotonicity guard never lets reconciliation drop below it inside
	// the grace window.
	displayed     int
	lastLocalBump time.Time

	inFlight bool
	dirty    bool
}

func NewTracker(userID uint64, username string, srv Server, cache Cache) *Tracker {
	return &Tracker{
		UserID:   userID,
		Username: username,
		Server:   srv,
		Cache:    cache,
		Now:      time.Now,
		state:    State{CompletedDays: NewDaySet()},
	}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// ApplyDelta applies a signed repetition change to the in-memory history
// and mirrors it to the cache. The new today-count is returned immediately;
// no network round-trip is involved. Negative deltas only remove today's
// events and clamp to what exists.
func (t *Tracker) ApplyDelta(delta int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	today := Day(now)

	before := t.history.Total()
	t.history = t.history.ApplyDelta(delta, now)
	applied := t.history.Total() - before

	t.displayed = t.history.CountOn(today)
	if applied > 0 {
		t.lastLocalBump = now
	}

	t.writeCacheLocked(today, applied)
	return t.displayed
}

// writeCacheLocked mirrors the current history and the accumulated pending
// delta for day to the durable cache. Cache failures are logged and
// swallowed: the cache is a recovery aid, not a dependency.
func (t *Tracker) writeCacheLocked(day string, applied int) {
	if err := t.Cache.Put(historyKey(t.UserID), string(t.history.Encode())); err != nil {
		log.Printf("challenge: cache history write failed: %v", err)
	}
	if applied == 0 {
		return
	}
	pending := readPendingDelta(t.Cache, t.UserID, day) + applied
	if err := t.Cache.Put(pendingKey(t.UserID, day), strconv.Itoa(pending)); err != nil {
		log.Printf("challenge: cache pending write failed: %v", err)
	}
}

// TodayRepetitions returns today's count derived from the history.
func (t *Tracker) TodayRepetitions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.CountOn(Day(t.now()))
}

// TotalRepetitions returns the all-time count derived from the history.
func (t *Tracker) TotalRepetitions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.Total()
}

// State returns a copy of the current challenge state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// History returns a copy of the current history.
func (t *Tracker) History() History {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(History, len(t.history))
	copy(out, t.history)
	return out
}

// Sync requests a push of the current state to the server. At most one push
// is in flight; a request arriving mid-flight marks the queue dirty, and
// the follow-up push re-reads the latest history, so no request is lost and
// no backlog of deltas is kept.
func (t *Tracker) Sync(ctx context.Context) {
	t.mu.Lock()
	if t.inFlight {
		t.dirty = true
		t.mu.Unlock()
		return
	}
	t.inFlight = true
	t.mu.Unlock()

	go t.syncLoop(ctx)
}

func (t *Tracker) syncLoop(ctx context.Context) {
	for {
		err := t.push(ctx)

		t.mu.Lock()
		if err != nil {
			// The pending marker stays in the cache; the next Sync
			// retries with whatever the history looks like then.
			log.Printf("challenge: sync failed, will retry: %v", err)
			t.inFlight = false
			t.dirty = false
			t.mu.Unlock()
			return
		}
		if t.dirty {
			t.dirty = false
			t.mu.Unlock()
			continue
		}
		t.inFlight = false
		t.mu.Unlock()
		return
	}
}

// push saves the current history and derived counters. On success it clears
// today's pending marker and, on the transition to the target, records the
// day complete and emits a day-completed activity.
func (t *Tracker) push(ctx context.Context) error {
	t.mu.Lock()
	now := t.now()
	today := Day(now)
	count := t.history.CountOn(today)

	completedNow := count >= Target && !t.state.CompletedDays.Contains(today)
	if completedNow {
		t.state.CompletedDays.Add(today)
	}

	upd := t.updateLocked(today, count)
	t.mu.Unlock()

	if err := t.Server.UpdateUser(ctx, t.UserID, upd); err != nil {
		return err
	}

	if err := t.Cache.Delete(pendingKey(t.UserID, today)); err != nil {
		log.Printf("challenge: cache pending clear failed: %v", err)
	}

	if completedNow {
		a := Activity{
			Username:    t.Username,
			Type:        ActivityDayCompleted,
			Description: "completed " + strconv.Itoa(Target) + " repetitions",
		}
		if err := t.Server.CreateActivity(ctx, a); err != nil {
			log.Printf("challenge: activity emit failed: %v", err)
		}
	}
	return nil
}

func (t *Tracker) updateLocked(today string, count int) UserUpdate {
	total := t.history.Total()
	cur := t.state.CurrentDay
	upd := UserUpdate{
		RepetitionHistory: t.history.Encode(),
		CompletedDays:     t.state.CompletedDays.Sorted(),
		CurrentDay:        &cur,
		TodayRepetitions:  &count,
		TotalRepetitions:  &total,
		LastDate:          &today,
	}
	if t.state.StartDate != "" {
		sd := t.state.StartDate
		upd.ChallengeStartDate = &sd
	}
	return upd
}
