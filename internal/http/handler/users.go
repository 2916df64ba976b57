package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/auth"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/user"

	"gorm.io/gorm"
)

// maxPhotoBytes caps the base64 avatar payload.
const maxPhotoBytes = 2 << 20

type UserHandler struct {
	DB *gorm.DB
}

type profileDTO struct {
	UserID                  uint64 `json:"user_id"`
	Username                string `json:"username"`
	FirstName               string `json:"first_name"`
	LastName                string `json:"last_name"`
	Photo                   string `json:"photo,omitempty"`
	CurrentDay              int    `json:"current_day"`
	TodayRepetitions        int    `json:"today_repetitions"`
	TotalRepetitions        int    `json:"total_repetitions"`
	ChallengeStartDate      string `json:"challenge_start_date,omitempty"`
	CongratulationsSeenDate string `json:"congratulations_seen_date,omitempty"`
}

func toProfileDTO(u user.User) profileDTO {
	return profileDTO{
		UserID:                  u.ID,
		Username:                u.Username,
		FirstName:               u.FirstName,
		LastName:                u.LastName,
		Photo:                   u.Photo,
		CurrentDay:              u.CurrentDay,
		TodayRepetitions:        u.TodayRepetitions,
		TotalRepetitions:        u.TotalRepetitions,
		ChallengeStartDate:      u.ChallengeStartDate,
		CongratulationsSeenDate: u.CongratulationsSeenDate,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u user.User
	if err := h.DB.First(&u, uid).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toProfileDTO(u))
}

type updateProfileReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req updateProfileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	fields := map[string]any{}
	if req.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if len(fields) == 0 {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	if err := h.DB.Model(&user.User{}).Where("id = ?", uid).Updates(fields).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type uploadPhotoReq struct {
	// Photo is a base64 data URL produced by the client's file reader.
	Photo string `json:"photo"`
}

func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req uploadPhotoReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Photo == "" || len(req.Photo) > maxPhotoBytes {
		http.Error(w, "photo missing or too large", http.StatusBadRequest)
		return
	}

	if err := h.DB.Model(&user.User{}).Where("id = ?", uid).Update("photo", req.Photo).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
