package jobs

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/activity"
)

// Worker drains the job queue and writes feed activities. Delivery is
// asynchronous on purpose: the repetition save that triggered a
// notification has already committed, and a feed failure must never
// surface there.
type Worker struct {
	ID         string
	Repo       *Repo
	Activities *activity.Service
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				log.Printf("worker claim error: %v\n", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeActivityDispatch:
		w.handleActivity(ctx, job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleActivity(ctx context.Context, job *Job) {
	var p ActivityPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	in := activity.CreateInput{
		Username:     p.Username,
		ActivityType: p.ActivityType,
		Description:  p.Description,
	}
	if p.IdempotencyKey != "" {
		in.IdempotencyKey = &p.IdempotencyKey
	}

	if err := w.Activities.Create(ctx, in); err != nil {
		w.retry(job, "activity insert error")
		return
	}

	log.Printf("[ACTIVITY] user=%s type=%s %s\n", p.Username, p.ActivityType, p.Description)
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
