package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/driftchat/driftchat/pkg/auth"
	"github.com/driftchat/driftchat/pkg/errs"
	"github.com/driftchat/driftchat/pkg/store"
)

type UserHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewUserHandler(store *store.Store, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

// GetCurrentUser godoc
// @Summary Get the authenticated user's profile
// @Produce json
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /api/users/me [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		h.logger.Warn("GetCurrentUser: lookup failed", "error", err, "user_id", userID)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// GetUser godoc
// @Summary Get a user by id
// @Produce json
// @Param id path int true "user id"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, errs.Validation("user id must be a positive integer"))
		return
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// SearchUsers godoc
// @Summary Search users by name
// @Produce json
// @Param q query string true "name fragment"
// @Success 200 {array} models.User
// @Security BearerAuth
// @Router /api/users/search [get]
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, errs.Validation("query parameter q is required"))
		return
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	users, err := h.store.SearchUsersByName(query, limit)
	if err != nil {
		h.logger.Error("SearchUsers: search failed", "error", err, "query", query)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// GetOnlineUsers godoc
// @Summary List user ids with a live presence binding
// @Produce json
// @Success 200 {array} int
// @Security BearerAuth
// @Router /api/users/online [get]
func (h *UserHandler) GetOnlineUsers(w http.ResponseWriter, r *http.Request) {
	userIDs, err := h.store.GetOnlineUsers()
	if err != nil {
		h.logger.Error("GetOnlineUsers: redis scan failed", "error", err)
		respondError(w, err)
		return
	}
	if userIDs == nil {
		userIDs = []int64{}
	}

	respondJSON(w, http.StatusOK, userIDs)
}
