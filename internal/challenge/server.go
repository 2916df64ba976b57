package challenge

import "context"

// ActivityDayCompleted is emitted when a day first reaches the target.
const ActivityDayCompleted = "day_completed"

// Activity is a fire-and-forget feed notification. Failing to record one
// must never fail the repetition update that produced it.
type Activity struct {
	Username    string
	Type        string
	Description string
}

// UserRecord is the slice of the server's user row the tracker consumes.
type UserRecord struct {
	ID                      uint64
	Username                string
	RepetitionHistory       []byte
	CompletedDays           []string
	CurrentDay              int
	LastDate                string
	ChallengeStartDate      string
	CongratulationsSeenDate string
}

// UserUpdate carries the fields a sync persists. Nil pointers and nil
// slices are left untouched on the server. TodayRepetitions and
// TotalRepetitions are advisory: whenever a history is included the server
// recomputes both from the merge result, which may exceed the client's
// view when another device contributed events.
type UserUpdate struct {
	RepetitionHistory  []byte
	CompletedDays      []string
	CurrentDay         *int
	TodayRepetitions   *int
	TotalRepetitions   *int
	LastDate           *string
	ChallengeStartDate *string
}

// Server is the persistence collaborator behind the tracker. The HTTP API
// client implements it in production; tests use an in-memory fake.
type Server interface {
	GetUser(ctx context.Context, id uint64) (UserRecord, error)
	UpdateUser(ctx context.Context, id uint64, upd UserUpdate) error
	CreateActivity(ctx context.Context, a Activity) error
}
