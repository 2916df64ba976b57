package group

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("group not found")
	ErrNotMember = errors.New("not a group member")
)

type Service struct {
	DB *gorm.DB
}

// Create makes a new group with a fresh invite code and the creator as its
// first member.
func (s *Service) Create(ctx context.Context, userID uint64, name string) (Group, error) {
	g := Group{
		Name:       name,
		InviteCode: uuid.NewString(),
		CreatedBy:  userID,
		CreatedAt:  time.Now(),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&g).Error; err != nil {
			return err
		}
		return tx.Create(&Member{GroupID: g.ID, UserID: userID, JoinedAt: time.Now()}).Error
	})
	return g, err
}

// Join adds the user to the group with the given invite code. Joining a
// group the user is already in is a no-op.
func (s *Service) Join(ctx context.Context, userID uint64, inviteCode string) (Group, error) {
	inviteCode = strings.TrimSpace(inviteCode)

	var g Group
	if err := s.DB.WithContext(ctx).Where("invite_code = ?", inviteCode).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Group{}, ErrNotFound
		}
		return Group{}, err
	}

	m := Member{GroupID: g.ID, UserID: userID, JoinedAt: time.Now()}
	if err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&m).Error; err != nil {
		return Group{}, err
	}
	return g, nil
}

func (s *Service) Leave(ctx context.Context, userID, groupID uint64) error {
	res := s.DB.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&Member{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotMember
	}
	return nil
}

// ForUser lists the groups the user belongs to.
func (s *Service) ForUser(ctx context.Context, userID uint64) ([]Group, error) {
	var out []Group
	err := s.DB.WithContext(ctx).Raw(`
select g.*
from groups g
join group_members m on m.group_id = g.id
where m.user_id = ?
order by g.created_at asc`, userID).Scan(&out).Error
	return out, err
}

// MemberInfo is a group roster entry with display fields from the user row.
type MemberInfo struct {
	UserID     uint64    `json:"user_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	CurrentDay int       `json:"current_day"`
	JoinedAt   time.Time `json:"joined_at"`
}

func (s *Service) Members(ctx context.Context, groupID uint64) ([]MemberInfo, error) {
	var out []MemberInfo
	err := s.DB.WithContext(ctx).Raw(`
select u.id as user_id, u.username, u.first_name, u.current_day, m.joined_at
from group_members m
join users u on u.id = m.user_id
where m.group_id = ?
order by m.joined_at asc`, groupID).Scan(&out).Error
	return out, err
}

func (s *Service) isMember(ctx context.Context, groupID, userID uint64) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&Member{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, err
}

// Post appends a chat message; only members may post.
func (s *Service) Post(ctx context.Context, groupID, userID uint64, body string) (Message, error) {
	ok, err := s.isMember(ctx, groupID, userID)
	if err != nil {
		return Message{}, err
	}
	if !ok {
		return Message{}, ErrNotMember
	}

	msg := Message{GroupID: groupID, UserID: userID, Body: body, CreatedAt: time.Now()}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return Message{}, err
	}
	return msg, nil
}

// MessageInfo carries a message with its author's username for display.
type MessageInfo struct {
	ID        uint64    `json:"id"`
	GroupID   uint64    `json:"group_id"`
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessagesSince returns messages with id greater than sinceID, oldest
// first, for the polling chat client. Only members may read.
func (s *Service) MessagesSince(ctx context.Context, groupID, userID, sinceID uint64, limit int) ([]MessageInfo, error) {
	ok, err := s.isMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var out []MessageInfo
	err = s.DB.WithContext(ctx).Raw(`
select msg.id, msg.group_id, msg.user_id, u.username, msg.body, msg.created_at
from group_messages msg
join users u on u.id = msg.user_id
where msg.group_id = ? and msg.id > ?
order by msg.id asc
limit ?`, groupID, sinceID, limit).Scan(&out).Error
	return out, err
}
