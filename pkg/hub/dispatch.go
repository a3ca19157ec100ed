package hub

import (
	"encoding/json"
	"log/slog"

	"github.com/driftchat/driftchat/pkg/errs"
	"github.com/driftchat/driftchat/pkg/models"
)

// MessageStore is the slice of the durable store the dispatch engine writes
// through. Insertion assigns the creation timestamp server-side.
type MessageStore interface {
	InsertMessage(senderID, receiverID int64, text string) (*models.Message, error)
}

// SyncPublisher fans undeliverable messages out to peer instances.
type SyncPublisher interface {
	PublishDispatchSync(payload []byte) error
}

// DispatchResult reports persistence and live delivery as two independent
// outcomes. Stored-but-undelivered is the expected case when the recipient is
// offline, not an error.
type DispatchResult struct {
	Persisted bool
	Delivered bool
	Message   *models.Message
}

// Dispatcher routes each message to durable storage first and then, if the
// recipient has a live binding, pushes it to that connection. Push is
// best-effort and at-most-once: no retry, no acknowledgment tracked.
type Dispatcher struct {
	store       MessageStore
	presence    *Presence
	sync        SyncPublisher
	rejectEmpty bool
	logger      *slog.Logger
}

func NewDispatcher(store MessageStore, presence *Presence, sync SyncPublisher, rejectEmpty bool, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:       store,
		presence:    presence,
		sync:        sync,
		rejectEmpty: rejectEmpty,
		logger:      logger,
	}
}

type syncEnvelope struct {
	ReceiverID int64  `json:"receiver_id"`
	From       int64  `json:"from"`
	Text       string `json:"text"`
}

// Dispatch validates, persists, then conditionally pushes. Persistence must
// succeed before any push is attempted; if it fails the dispatch fails
// entirely. A push failure is swallowed because the message is already
// durable.
func (d *Dispatcher) Dispatch(senderID, receiverID int64, text string) (DispatchResult, error) {
	var result DispatchResult

	if senderID <= 0 {
		return result, errs.Validation("sender id must be a positive integer")
	}
	if receiverID <= 0 {
		return result, errs.Validation("receiver id must be a positive integer")
	}
	if d.rejectEmpty && text == "" {
		return result, errs.Validation("message text must not be empty")
	}

	msg, err := d.store.InsertMessage(senderID, receiverID, text)
	if err != nil {
		d.logger.Error("Dispatch: persistence failed",
			"error", err, "sender_id", senderID, "receiver_id", receiverID)
		return result, err
	}
	result.Persisted = true
	result.Message = msg

	payload := marshalEvent(EventReceiveMessage, ReceiveMessagePayload{
		From: senderID,
		Text: text,
	})

	recipient, online := d.presence.Lookup(receiverID)
	if !online {
		d.logger.Debug("Dispatch: recipient offline locally",
			"message_id", msg.ID, "receiver_id", receiverID)
		d.publishSync(senderID, receiverID, text)
		return result, nil
	}

	if err := recipient.Enqueue(payload); err != nil {
		// Already durable; a dead or saturated connection is not the
		// sender's problem.
		d.logger.Warn("Dispatch: live push failed",
			"error", err, "message_id", msg.ID, "receiver_id", receiverID)
		return result, nil
	}

	result.Delivered = true
	d.logger.Debug("Dispatch: delivered live",
		"message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)
	return result, nil
}

// publishSync offers the message to peer instances whose registry may hold
// the recipient. Best-effort; never affects the dispatch outcome.
func (d *Dispatcher) publishSync(senderID, receiverID int64, text string) {
	if d.sync == nil {
		return
	}
	payload, err := json.Marshal(syncEnvelope{
		ReceiverID: receiverID,
		From:       senderID,
		Text:       text,
	})
	if err != nil {
		return
	}
	if err := d.sync.PublishDispatchSync(payload); err != nil {
		d.logger.Warn("Dispatch: sync publish failed",
			"error", err, "receiver_id", receiverID)
	}
}
