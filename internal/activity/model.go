package activity

import "time"

// Feed activity types.
const (
	TypeDayCompleted     = "day_completed"
	TypeMilestone        = "milestone"
	TypeChallengeStarted = "challenge_started"
	TypeChallengeReset   = "challenge_reset"
	TypeGroupJoined      = "group_joined"
)

// Activity is one entry in the shared feed. IdempotencyKey prevents
// duplicates when the dispatch job is retried.
type Activity struct {
	ID             uint64    `gorm:"primaryKey"`
	Username       string    `gorm:"index;not null"`
	ActivityType   string    `gorm:"not null"`
	Description    string    `gorm:"type:text;not null;default:''"`
	IdempotencyKey *string   `gorm:"index"`
	CreatedAt      time.Time `gorm:"not null;default:now()"`
}
