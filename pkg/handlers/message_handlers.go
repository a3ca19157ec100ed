package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/driftchat/driftchat/pkg/auth"
	"github.com/driftchat/driftchat/pkg/errs"
	"github.com/driftchat/driftchat/pkg/hub"
	"github.com/driftchat/driftchat/pkg/models"
	"github.com/driftchat/driftchat/pkg/store"
)

type MessageHandler struct {
	store      *store.Store
	dispatcher *hub.Dispatcher
	logger     *slog.Logger
}

func NewMessageHandler(store *store.Store, dispatcher *hub.Dispatcher, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{store: store, dispatcher: dispatcher, logger: logger}
}

// GetMessages godoc
// @Summary Conversation history with a peer, ascending by creation time
// @Produce json
// @Param peer_id query int true "peer user id"
// @Success 200 {array} models.Message
// @Security BearerAuth
// @Router /api/messages [get]
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	peerID, err := strconv.ParseInt(r.URL.Query().Get("peer_id"), 10, 64)
	if err != nil || peerID <= 0 {
		respondError(w, errs.Validation("peer_id must be a positive integer"))
		return
	}

	messages, err := h.store.ListMessages(userID, peerID)
	if err != nil {
		h.logger.Error("GetMessages: failed",
			"error", err, "user_id", userID, "peer_id", peerID)
		respondError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	respondJSON(w, http.StatusOK, messages)
}

// SendMessage godoc
// @Summary Persist a message and push it live if the recipient is connected
// @Accept json
// @Produce json
// @Param request body models.SendMessageRequest true "message"
// @Success 200 {object} models.SendMessageResponse
// @Security BearerAuth
// @Router /api/messages [post]
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errs.Validation("invalid request body"))
		return
	}

	result, err := h.dispatcher.Dispatch(userID, req.ToUserID, req.Text)
	if err != nil {
		h.logger.Warn("SendMessage: dispatch failed",
			"error", err, "sender_id", userID, "receiver_id", req.ToUserID)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.SendMessageResponse{
		Message:   result.Message,
		Persisted: result.Persisted,
		Delivered: result.Delivered,
	})
}
