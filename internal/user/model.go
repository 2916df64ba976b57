package user

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// User is the account row. Challenge counters are projections of the
// repetition history blob; the history is what they are recomputed from on
// every save.
type User struct {
	ID       uint64 `gorm:"primaryKey"`
	Username string `gorm:"uniqueIndex;not null"`
	PinHash  string `gorm:"not null"`

	FirstName string `gorm:"type:text;not null;default:''"`
	LastName  string `gorm:"type:text;not null;default:''"`
	// Photo is a base64 data URL uploaded from the client.
	Photo string `gorm:"type:text;not null;default:''"`

	RepetitionHistory json.RawMessage `gorm:"type:jsonb;not null;default:'[]'::jsonb"`
	CompletedDays     pq.StringArray  `gorm:"type:text[];not null;default:'{}'"`
	CurrentDay        int             `gorm:"not null;default:0"`
	TodayRepetitions  int             `gorm:"not null;default:0"`
	TotalRepetitions  int             `gorm:"not null;default:0"`

	// Calendar-day strings, YYYY-MM-DD, empty when unset.
	LastDate                string `gorm:"type:text;not null;default:''"`
	ChallengeStartDate      string `gorm:"type:text;not null;default:''"`
	CongratulationsSeenDate string `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
