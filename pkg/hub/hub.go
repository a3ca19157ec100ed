package hub

import (
	"log/slog"
	"time"

	"github.com/driftchat/driftchat/config"
	"github.com/driftchat/driftchat/pkg/errs"
)

// Directory is the slice of the durable store the connection lifecycle needs.
type Directory interface {
	UserExists(userID int64) (bool, error)
	UpdateUserLastSeen(userID int64, lastSeen time.Time) error
}

// PresenceCache mirrors live bindings into shared storage so peer instances
// and the online-users endpoint can observe them. Failures are absorbed by
// the implementation; the cache never gates a bind.
type PresenceCache interface {
	MarkPresence(userID int64)
	ClearPresence(userID int64)
}

type InboundEvent struct {
	Client *Client
	Event  Event
}

// Hub is the connection lifecycle manager. A single Run loop services
// register, unregister and inbound connection events, so each handler body
// runs to completion without observable partial state.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	Inbound    chan InboundEvent

	directory  Directory
	cache      PresenceCache
	presence   *Presence
	dispatcher *Dispatcher
	cfg        config.WebSocketConfig
	logger     *slog.Logger
}

func NewHub(directory Directory, cache PresenceCache, presence *Presence, dispatcher *Dispatcher, cfg config.WebSocketConfig, logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan InboundEvent),
		directory:  directory,
		cache:      cache,
		presence:   presence,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Presence exposes the registry to read-only callers (online-users endpoint).
func (h *Hub) Presence() *Presence { return h.presence }

// Dispatcher exposes the engine so the REST send path drives the same
// persist-then-push flow as the socket path.
func (h *Hub) Dispatcher() *Dispatcher { return h.dispatcher }

func (h *Hub) Run() {
	h.logger.Info("Hub started")
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)

		case client := <-h.Unregister:
			h.handleUnregister(client)

		case inbound := <-h.Inbound:
			h.handleInbound(inbound)
		}
	}
}

// handleRegister admits a new connection in the anonymous state. No registry
// mutation happens until a login event supplies a user id.
func (h *Hub) handleRegister(client *Client) {
	h.logger.Info("Client connected", "session", client.SessionID)
}

// handleUnregister moves the connection to its terminal state. The binding is
// removed only if the registry still points at this exact handle, so a stale
// disconnect cannot evict a newer login's binding.
func (h *Hub) handleUnregister(client *Client) {
	client.Close()

	userID := client.UserID()
	if userID == 0 {
		h.logger.Info("Anonymous client disconnected", "session", client.SessionID)
		return
	}

	if h.presence.UnbindIfMatches(userID, client) {
		h.cache.ClearPresence(userID)
		if err := h.directory.UpdateUserLastSeen(userID, time.Now()); err != nil {
			h.logger.Warn("Failed to update last seen on disconnect",
				"error", err, "user_id", userID)
		}
	}

	h.logger.Info("Client disconnected", "user_id", userID, "session", client.SessionID)
}

func (h *Hub) handleInbound(inbound InboundEvent) {
	switch inbound.Event.Type {
	case EventLogin:
		h.handleLogin(inbound.Client, inbound.Event)
	case EventSendMessage:
		h.handleSendMessage(inbound.Client, inbound.Event)
	default:
		h.logger.Warn("Unknown event type", "type", inbound.Event.Type, "session", inbound.Client.SessionID)
		h.reply(inbound.Client, errorEvent(errs.Validation("unknown event type")))
	}
}

// handleLogin binds the connection to a user id. A later login for the same
// id on another connection supersedes this binding; rebinding this connection
// to a different id leaves the previous id's entry in place until its own
// disconnect or a future login overwrites it.
func (h *Hub) handleLogin(client *Client, event Event) {
	payload, err := parseLogin(event.Payload)
	if err != nil {
		h.logger.Warn("Login rejected", "error", err, "session", client.SessionID)
		h.reply(client, errorEvent(err))
		return
	}

	userID := int64(payload.UserID)
	exists, err := h.directory.UserExists(userID)
	if err != nil {
		h.logger.Error("Login: user lookup failed", "error", err, "user_id", userID)
		h.reply(client, errorEvent(err))
		return
	}
	if !exists {
		h.reply(client, errorEvent(errs.NotFound("user not found")))
		return
	}

	h.presence.Bind(userID, client)
	client.setUserID(userID)
	h.cache.MarkPresence(userID)
	if err := h.directory.UpdateUserLastSeen(userID, time.Now()); err != nil {
		h.logger.Warn("Failed to update last seen on login", "error", err, "user_id", userID)
	}

	h.logger.Info("Client bound", "user_id", userID, "session", client.SessionID)
	h.reply(client, marshalEvent(EventLoginOK, LoginOKPayload{UserID: userID}))
}

func (h *Hub) handleSendMessage(client *Client, event Event) {
	payload, err := parseSendMessage(event.Payload)
	if err != nil {
		h.logger.Warn("Send rejected", "error", err, "session", client.SessionID)
		h.reply(client, errorEvent(err))
		return
	}

	result, err := h.dispatcher.Dispatch(int64(payload.FromUserID), int64(payload.ToUserID), payload.Text)
	if err != nil {
		h.reply(client, errorEvent(err))
		return
	}

	ack := SendAckPayload{
		Persisted: result.Persisted,
		Delivered: result.Delivered,
	}
	if result.Message != nil {
		ack.MessageID = result.Message.ID
	}
	h.reply(client, marshalEvent(EventSendAck, ack))
}

// reply pushes a server event back to the originating connection. A dead
// connection is not an error here; the disconnect path will clean it up.
func (h *Hub) reply(client *Client, data []byte) {
	if err := client.Enqueue(data); err != nil {
		h.logger.Debug("Reply dropped", "error", err, "session", client.SessionID)
	}
}
