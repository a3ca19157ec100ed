package hub

import (
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// ListenToDispatchSync consumes messages other instances could not deliver
// locally and attempts delivery against this instance's registry. The message
// is already durable on the publishing side, so failures here are logged and
// dropped.
func (h *Hub) ListenToDispatchSync(pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	h.logger.Info("Listening for dispatch sync messages")

	for msg := range ch {
		var envelope syncEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Malformed sync payload", "error", err)
			continue
		}

		recipient, online := h.presence.Lookup(envelope.ReceiverID)
		if !online {
			continue
		}

		payload := marshalEvent(EventReceiveMessage, ReceiveMessagePayload{
			From: envelope.From,
			Text: envelope.Text,
		})
		if err := recipient.Enqueue(payload); err != nil {
			h.logger.Warn("Sync delivery failed",
				"error", err, "receiver_id", envelope.ReceiverID)
		}
	}
}
