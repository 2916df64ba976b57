package activity

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Username       string
	ActivityType   string
	Description    string
	IdempotencyKey *string
}

// Create inserts a feed entry. Duplicate idempotency keys are silently
// dropped so retried dispatch jobs never double-post.
func (s *Service) Create(ctx context.Context, in CreateInput) error {
	a := Activity{
		Username:       in.Username,
		ActivityType:   in.ActivityType,
		Description:    in.Description,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&a).Error
}

// CreateBestEffort records an activity and swallows failures: feed entries
// must never fail the update that produced them.
func (s *Service) CreateBestEffort(ctx context.Context, in CreateInput) {
	if err := s.Create(ctx, in); err != nil {
		log.Printf("activity create failed (ignored): %v", err)
	}
}

// Recent returns the newest feed entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []Activity
	err := s.DB.WithContext(ctx).
		Order("id desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
