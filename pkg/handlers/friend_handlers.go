package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/driftchat/driftchat/pkg/auth"
	"github.com/driftchat/driftchat/pkg/errs"
	"github.com/driftchat/driftchat/pkg/models"
	"github.com/driftchat/driftchat/pkg/store"
)

type FriendHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewFriendHandler(store *store.Store, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{store: store, logger: logger}
}

// CreateRequest godoc
// @Summary Send a friend request
// @Accept json
// @Produce json
// @Param request body models.CreateFriendRequestInput true "target user"
// @Success 201 {object} models.FriendRequest
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/friends/requests [post]
func (h *FriendHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	requesterID := auth.GetUserID(r.Context())

	var input models.CreateFriendRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	if input.ToUserID <= 0 {
		respondError(w, errs.Validation("to_user_id must be a positive integer"))
		return
	}
	if input.ToUserID == requesterID {
		respondError(w, errs.Validation("cannot send a friend request to yourself"))
		return
	}

	req, err := h.store.CreateFriendRequest(requesterID, input.ToUserID)
	if err != nil {
		h.logger.Warn("CreateRequest: failed",
			"error", err, "requester_id", requesterID, "target_id", input.ToUserID)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, req)
}

// ListPending godoc
// @Summary List friend requests awaiting the caller's decision
// @Produce json
// @Success 200 {array} models.FriendRequest
// @Security BearerAuth
// @Router /api/friends/requests [get]
func (h *FriendHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	requests, err := h.store.ListPendingRequests(userID)
	if err != nil {
		h.logger.Error("ListPending: failed", "error", err, "user_id", userID)
		respondError(w, err)
		return
	}
	if requests == nil {
		requests = []models.FriendRequest{}
	}

	respondJSON(w, http.StatusOK, requests)
}

// AcceptRequest godoc
// @Summary Accept a friend request
// @Produce json
// @Param id path int true "request id"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /api/friends/requests/{id}/accept [post]
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	requestID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || requestID <= 0 {
		respondError(w, errs.Validation("request id must be a positive integer"))
		return
	}

	// Only the target may accept. A nonexistent request still reports
	// success below, matching the idempotent accept contract, but a real
	// request aimed at someone else is rejected.
	if req, err := h.store.GetFriendRequest(requestID); err == nil && req.TargetID != userID {
		respondError(w, errs.NotFound("friend request not found"))
		return
	}

	if err := h.store.AcceptFriendRequest(requestID); err != nil {
		h.logger.Error("AcceptRequest: failed", "error", err, "request_id", requestID)
		respondError(w, err)
		return
	}

	h.logger.Info("Friend request accepted", "request_id", requestID, "user_id", userID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// ListFriends godoc
// @Summary List accepted friends
// @Produce json
// @Success 200 {array} models.User
// @Security BearerAuth
// @Router /api/friends [get]
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	friends, err := h.store.ListFriends(userID)
	if err != nil {
		h.logger.Error("ListFriends: failed", "error", err, "user_id", userID)
		respondError(w, err)
		return
	}
	if friends == nil {
		friends = []models.User{}
	}

	respondJSON(w, http.StatusOK, friends)
}
