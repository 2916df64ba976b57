package activity

import (
	"context"

	"gorm.io/gorm"
)

// LeaderboardRow ranks a user by challenge progress, then by lifetime
// repetitions as the tiebreaker.
type LeaderboardRow struct {
	UserID           uint64 `json:"user_id"`
	Username         string `json:"username"`
	FirstName        string `json:"first_name"`
	CurrentDay       int    `json:"current_day"`
	TodayRepetitions int    `json:"today_repetitions"`
	TotalRepetitions int    `json:"total_repetitions"`
	CompletedDays    int    `json:"completed_days"`
}

// Leaderboard returns the global ranking.
func Leaderboard(ctx context.Context, db *gorm.DB, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []LeaderboardRow
	err := db.WithContext(ctx).Raw(`
select id as user_id,
       username,
       first_name,
       current_day,
       today_repetitions,
       total_repetitions,
       coalesce(array_length(completed_days, 1), 0) as completed_days
from users
order by current_day desc, total_repetitions desc, username asc
limit ?`, limit).Scan(&rows).Error
	return rows, err
}

// GroupLeaderboard returns the ranking restricted to one group's members.
func GroupLeaderboard(ctx context.Context, db *gorm.DB, groupID uint64, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []LeaderboardRow
	err := db.WithContext(ctx).Raw(`
select u.id as user_id,
       u.username,
       u.first_name,
       u.current_day,
       u.today_repetitions,
       u.total_repetitions,
       coalesce(array_length(u.completed_days, 1), 0) as completed_days
from users u
join group_members m on m.user_id = u.id
where m.group_id = ?
order by u.current_day desc, u.total_repetitions desc, u.username asc
limit ?`, groupID, limit).Scan(&rows).Error
	return rows, err
}
