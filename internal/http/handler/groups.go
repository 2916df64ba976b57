package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/activity"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/auth"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/group"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/user"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type GroupHandler struct {
	Svc        *group.Service
	Activities *activity.Service
	DB         *gorm.DB
}

type groupDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
	CreatedBy  uint64 `json:"created_by"`
}

func toGroupDTO(g group.Group) groupDTO {
	return groupDTO{ID: g.ID, Name: g.Name, InviteCode: g.InviteCode, CreatedBy: g.CreatedBy}
}

func groupIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

type createGroupReq struct {
	Name string `json:"name"`
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createGroupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 80 {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	g, err := h.Svc.Create(r.Context(), uid, req.Name)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toGroupDTO(g))
}

type joinGroupReq struct {
	InviteCode string `json:"invite_code"`
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req joinGroupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	g, err := h.Svc.Join(r.Context(), uid, req.InviteCode)
	if err != nil {
		if errors.Is(err, group.ErrNotFound) {
			http.Error(w, "invalid invite code", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	// The idempotency key covers the Join no-op case: rejoining a group
	// never posts the feed entry twice.
	var u user.User
	if err := h.DB.First(&u, uid).Error; err == nil {
		key := fmt.Sprintf("join:%s:%d", u.Username, g.ID)
		h.Activities.CreateBestEffort(r.Context(), activity.CreateInput{
			Username:       u.Username,
			ActivityType:   activity.TypeGroupJoined,
			Description:    fmt.Sprintf("joined %s", g.Name),
			IdempotencyKey: &key,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toGroupDTO(g))
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.Leave(r.Context(), uid, id); err != nil {
		if errors.Is(err, group.ErrNotMember) {
			http.Error(w, "not a member", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	groups, err := h.Svc.ForUser(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupDTO(g))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	members, err := h.Svc.Members(r.Context(), id)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(members)
}

type postMessageReq struct {
	Body string `json:"body"`
}

func (h *GroupHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req postMessageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" || len(req.Body) > 2000 {
		http.Error(w, "body required", http.StatusBadRequest)
		return
	}

	msg, err := h.Svc.Post(r.Context(), id, uid, req.Body)
	if err != nil {
		if errors.Is(err, group.ErrNotMember) {
			http.Error(w, "not a member", http.StatusForbidden)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": msg.ID})
}

// Messages serves the polling chat client: ?since=<last seen id>.
func (h *GroupHandler) Messages(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var since uint64
	if v := strings.TrimSpace(r.URL.Query().Get("since")); v != "" {
		since, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
	}

	limit := 100
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	msgs, err := h.Svc.MessagesSince(r.Context(), id, uid, since, limit)
	if err != nil {
		if errors.Is(err, group.ErrNotMember) {
			http.Error(w, "not a member", http.StatusForbidden)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []group.MessageInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msgs)
}
