package group

import "time"

// Group is a shared challenge circle. Members join with the invite code.
type Group struct {
	ID         uint64    `gorm:"primaryKey"`
	Name       string    `gorm:"not null"`
	InviteCode string    `gorm:"uniqueIndex;not null"`
	CreatedBy  uint64    `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"not null;default:now()"`
}

func (Group) TableName() string { return "groups" }

type Member struct {
	GroupID  uint64    `gorm:"primaryKey"`
	UserID   uint64    `gorm:"primaryKey"`
	JoinedAt time.Time `gorm:"not null;default:now()"`
}

func (Member) TableName() string { return "group_members" }

// Message is one group chat entry. Clients poll for messages after their
// last seen id.
type Message struct {
	ID        uint64    `gorm:"primaryKey"`
	GroupID   uint64    `gorm:"index;not null"`
	UserID    uint64    `gorm:"index;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Message) TableName() string { return "group_messages" }
