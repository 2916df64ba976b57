package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/activity"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/jobs"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/user"
)

var ErrUserNotFound = errors.New("user not found")

// Service is the server side of the challenge: it persists histories with
// the union-merge conflict policy and keeps the derived counters on the
// user row consistent with the stored history. It implements Server, so the
// tracker can run against it directly.
type Service struct {
	DB         *gorm.DB
	Jobs       *jobs.Repo
	Activities *activity.Service

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) GetUser(ctx context.Context, id uint64) (UserRecord, error) {
	var u user.User
	if err := s.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, err
	}
	return UserRecord{
		ID:                      u.ID,
		Username:                u.Username,
		RepetitionHistory:       []byte(u.RepetitionHistory),
		CompletedDays:           []string(u.CompletedDays),
		CurrentDay:              u.CurrentDay,
		LastDate:                u.LastDate,
		ChallengeStartDate:      u.ChallengeStartDate,
		CongratulationsSeenDate: u.CongratulationsSeenDate,
	}, nil
}

// UpdateUser applies a sync. An incoming history is unioned with the stored
// one, deduplicated by (date, timestamp), and the counters are recomputed
// from the merge result; a concurrent save from another device therefore
// loses nothing. The one exception is a changed start date: starting or
// resetting a challenge replaces the history wholesale.
//
// When the merged history first reaches the target for the current day, the
// day is recorded complete and a feed notification job is enqueued in the
// same transaction.
func (s *Service) UpdateUser(ctx context.Context, id uint64, upd UserUpdate) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u user.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		today := Day(s.now())
		if applySync(&u, upd, today) {
			if err := s.enqueueCompletion(tx, u, today, len(u.CompletedDays)); err != nil {
				return err
			}
		}
		u.UpdatedAt = time.Now()

		return tx.Save(&u).Error
	})
}

// applySync folds an incoming sync into the stored user row and reports
// whether today first reached the target. A changed start date means the
// user started or reset the challenge: the history is replaced instead of
// merged, and completed days from the previous challenge are discarded
// rather than unioned in.
func applySync(u *user.User, upd UserUpdate, today string) bool {
	completed := NewDaySet(u.CompletedDays...)
	for _, d := range upd.CompletedDays {
		completed.Add(d)
	}

	startChanged := upd.ChallengeStartDate != nil && *upd.ChallengeStartDate != u.ChallengeStartDate
	if startChanged {
		u.ChallengeStartDate = *upd.ChallengeStartDate
		completed = NewDaySet(upd.CompletedDays...)
	}

	completedNow := false
	if upd.RepetitionHistory != nil {
		incoming := DecodeHistory(upd.RepetitionHistory)
		merged := incoming
		if !startChanged {
			merged = Merge(DecodeHistory([]byte(u.RepetitionHistory)), incoming)
		}
		u.RepetitionHistory = merged.Encode()
		u.TodayRepetitions = merged.CountOn(today)
		u.TotalRepetitions = merged.Total()

		if u.TodayRepetitions >= Target && !completed.Contains(today) {
			completed.Add(today)
			completedNow = true
		}
	}

	if upd.CurrentDay != nil {
		u.CurrentDay = *upd.CurrentDay
	}
	if upd.LastDate != nil {
		u.LastDate = *upd.LastDate
	}
	u.CompletedDays = completed.Sorted()
	return completedNow
}

func (s *Service) enqueueCompletion(tx *gorm.DB, u user.User, today string, completedCount int) error {
	err := s.Jobs.EnqueueActivity(tx, u.ID, jobs.ActivityPayload{
		Username:       u.Username,
		ActivityType:   activity.TypeDayCompleted,
		Description:    fmt.Sprintf("completed %d repetitions", Target),
		IdempotencyKey: fmt.Sprintf("day:%s:%s", u.Username, today),
	})
	if err != nil {
		return err
	}
	if completedCount > 0 && completedCount%10 == 0 {
		return s.Jobs.EnqueueActivity(tx, u.ID, jobs.ActivityPayload{
			Username:       u.Username,
			ActivityType:   activity.TypeMilestone,
			Description:    fmt.Sprintf("reached %d completed days", completedCount),
			IdempotencyKey: fmt.Sprintf("milestone:%s:%d", u.Username, completedCount),
		})
	}
	return nil
}

// CreateActivity records a feed entry directly. Callers treat it as
// fire-and-forget; failures are theirs to ignore.
func (s *Service) CreateActivity(ctx context.Context, a Activity) error {
	return s.Activities.Create(ctx, activity.CreateInput{
		Username:     a.Username,
		ActivityType: a.Type,
		Description:  a.Description,
	})
}

// Start begins the challenge at startDate, backfilling elapsed days, and
// returns the updated user row.
func (s *Service) Start(ctx context.Context, id uint64, startDate string) (user.User, error) {
	today := Day(s.now())
	res, err := StartChallenge(startDate, today)
	if err != nil {
		return user.User{}, err
	}

	var u user.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		u.ChallengeStartDate = startDate
		u.RepetitionHistory = res.History.Encode()
		u.CompletedDays = res.CompletedDays.Sorted()
		u.CurrentDay = res.CurrentDay
		u.TodayRepetitions = 0
		u.TotalRepetitions = res.History.Total()
		u.LastDate = today
		u.CongratulationsSeenDate = ""
		u.UpdatedAt = time.Now()

		if err := s.Jobs.EnqueueActivity(tx, u.ID, jobs.ActivityPayload{
			Username:       u.Username,
			ActivityType:   activity.TypeChallengeStarted,
			Description:    "started the 100-day affirmation challenge",
			IdempotencyKey: fmt.Sprintf("start:%s:%s", u.Username, startDate),
		}); err != nil {
			return err
		}

		return tx.Save(&u).Error
	})
	return u, err
}

// Reset abandons the challenge entirely: empty history, no start date.
func (s *Service) Reset(ctx context.Context, id uint64) (user.User, error) {
	var u user.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		u.ChallengeStartDate = ""
		u.RepetitionHistory = []byte("[]")
		u.CompletedDays = []string{}
		u.CurrentDay = 0
		u.TodayRepetitions = 0
		u.TotalRepetitions = 0
		u.LastDate = Day(s.now())
		u.CongratulationsSeenDate = ""
		u.UpdatedAt = time.Now()

		if err := s.Jobs.EnqueueActivity(tx, u.ID, jobs.ActivityPayload{
			Username:       u.Username,
			ActivityType:   activity.TypeChallengeReset,
			Description:    "reset the challenge",
			IdempotencyKey: fmt.Sprintf("reset:%s:%s", u.Username, u.LastDate),
		}); err != nil {
			return err
		}

		return tx.Save(&u).Error
	})
	return u, err
}

// MarkCongratulationsSeen records that the user saw the completion screen
// today, so the client does not replay it on every load.
func (s *Service) MarkCongratulationsSeen(ctx context.Context, id uint64) error {
	res := s.DB.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", id).
		Update("congratulations_seen_date", Day(s.now()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
