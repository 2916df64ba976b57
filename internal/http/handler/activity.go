package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/activity"

	"gorm.io/gorm"
)

type ActivityHandler struct {
	Svc *activity.Service
	DB  *gorm.DB
}

type activityDTO struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

func limitParam(r *http.Request) int {
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return 50
}

func (h *ActivityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.Recent(r.Context(), limitParam(r))
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]activityDTO, 0, len(rows))
	for _, a := range rows {
		out = append(out, activityDTO{
			ID:           a.ID,
			Username:     a.Username,
			ActivityType: a.ActivityType,
			Description:  a.Description,
			CreatedAt:    a.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *ActivityHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := activity.Leaderboard(r.Context(), h.DB, limitParam(r))
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []activity.LeaderboardRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func (h *ActivityHandler) GroupLeaderboard(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimSpace(r.URL.Query().Get("group_id"))
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid group_id", http.StatusBadRequest)
		return
	}

	rows, err := activity.GroupLeaderboard(r.Context(), h.DB, id, limitParam(r))
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []activity.LeaderboardRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}
