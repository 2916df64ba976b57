package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/auth"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/user"

	"gorm.io/gorm"
)

type AuthHandler struct {
	DB  *gorm.DB
	JWT *auth.JWT
}

type registerReq struct {
	Username  string `json:"username"`
	Pin       string `json:"pin"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || len(req.Username) > 40 {
		http.Error(w, "invalid username", http.StatusBadRequest)
		return
	}
	if !auth.ValidPIN(req.Pin) {
		http.Error(w, "pin must be 4-8 digits", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPIN(req.Pin)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	u := user.User{
		Username:          req.Username,
		PinHash:           hash,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		RepetitionHistory: []byte("[]"),
		CompletedDays:     []string{},
	}
	if err := h.DB.Create(&u).Error; err != nil {
		http.Error(w, "username already taken", http.StatusConflict)
		return
	}

	token, err := h.JWT.Sign(u.ID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":   token,
		"user_id": u.ID,
	})
}

type loginReq struct {
	Username string `json:"username"`
	Pin      string `json:"pin"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || req.Pin == "" {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	var u user.User
	if err := h.DB.Where("username = ?", req.Username).First(&u).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.ComparePIN(u.PinHash, req.Pin) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.JWT.Sign(u.ID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":   token,
		"user_id": u.ID,
	})
}
