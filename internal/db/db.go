package db

import (
	"fmt"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/activity"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/group"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/jobs"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/user"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&user.User{},
		&group.Group{},
		&group.Member{},
		&group.Message{},
		&activity.Activity{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Activity idempotency: unique where the key is present, so a retried
	// dispatch job can never double-post.
	if err := gdb.Exec(`
create unique index if not exists uq_activities_idem
on activities(idempotency_key)
where idempotency_key is not null;
`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_users_leaderboard on users(current_day desc, total_repetitions desc);`,
		`create index if not exists idx_members_user on group_members(user_id);`,
		`create index if not exists idx_messages_group_id on group_messages(group_id, id);`,
		`create index if not exists idx_activities_created on activities(id desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
