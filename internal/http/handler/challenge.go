package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/auth"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/challenge"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/user"

	"gorm.io/gorm"
)

type ChallengeHandler struct {
	Svc *challenge.Service
	DB  *gorm.DB
}

type challengeDTO struct {
	ChallengeStartDate      string                      `json:"challenge_start_date,omitempty"`
	CurrentDay              int                         `json:"current_day"`
	TodayRepetitions        int                         `json:"today_repetitions"`
	TotalRepetitions        int                         `json:"total_repetitions"`
	CompletedDays           []string                    `json:"completed_days"`
	LastDate                string                      `json:"last_date,omitempty"`
	CongratulationsSeenDate string                      `json:"congratulations_seen_date,omitempty"`
	RepetitionHistory       []challenge.RepetitionEvent `json:"repetition_history"`
}

func toChallengeDTO(u user.User) challengeDTO {
	return challengeDTO{
		ChallengeStartDate:      u.ChallengeStartDate,
		CurrentDay:              u.CurrentDay,
		TodayRepetitions:        u.TodayRepetitions,
		TotalRepetitions:        u.TotalRepetitions,
		CompletedDays:           []string(u.CompletedDays),
		LastDate:                u.LastDate,
		CongratulationsSeenDate: u.CongratulationsSeenDate,
		RepetitionHistory:       challenge.DecodeHistory(u.RepetitionHistory),
	}
}

// Get returns the full challenge state the client reconciles against on
// load.
func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u user.User
	if err := h.DB.First(&u, uid).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toChallengeDTO(u))
}

type saveHistoryReq struct {
	RepetitionHistory []challenge.RepetitionEvent `json:"repetition_history"`
	CompletedDays     []string                    `json:"completed_days"`
	CurrentDay        *int                        `json:"current_day"`
	LastDate          *string                     `json:"last_date"`
}

// SaveHistory is the sync target: the client pushes its full history and
// the server merges it in. The response carries the merged counters so the
// client can verify its view.
func (h *ChallengeHandler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req saveHistoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	upd := challenge.UserUpdate{
		RepetitionHistory: challenge.History(req.RepetitionHistory).Encode(),
		CompletedDays:     req.CompletedDays,
		CurrentDay:        req.CurrentDay,
		LastDate:          req.LastDate,
	}

	if err := h.Svc.UpdateUser(r.Context(), uid, upd); err != nil {
		if errors.Is(err, challenge.ErrUserNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	var u user.User
	if err := h.DB.First(&u, uid).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toChallengeDTO(u))
}

type startChallengeReq struct {
	StartDate string `json:"start_date"`
}

func (h *ChallengeHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req startChallengeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.StartDate = strings.TrimSpace(req.StartDate)

	u, err := h.Svc.Start(r.Context(), uid, req.StartDate)
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrInvalidDate):
			http.Error(w, "invalid start date", http.StatusBadRequest)
		case errors.Is(err, challenge.ErrUserNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toChallengeDTO(u))
}

func (h *ChallengeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	u, err := h.Svc.Reset(r.Context(), uid)
	if err != nil {
		if errors.Is(err, challenge.ErrUserNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toChallengeDTO(u))
}

func (h *ChallengeHandler) CongratulationsSeen(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	if err := h.Svc.MarkCongratulationsSeen(r.Context(), uid); err != nil {
		if errors.Is(err, challenge.ErrUserNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
