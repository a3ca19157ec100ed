package hub

import (
	"encoding/json"
	"strconv"

	"github.com/driftchat/driftchat/pkg/errs"
)

// Wire events. Payloads are typed and validated before any side effect;
// a malformed payload is rejected with a validation error.
const (
	EventLogin          = "login"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventLoginOK        = "login_ok"
	EventSendAck        = "send_ack"
	EventError          = "error"
)

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// userID accepts both a JSON number and a quoted decimal string, since
// clients historically sent ids either way.
type userID int64

func (u *userID) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*u = userID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = userID(n)
	return nil
}

type LoginPayload struct {
	UserID userID `json:"user_id"`
}

type SendMessagePayload struct {
	ToUserID   userID `json:"to_user_id"`
	FromUserID userID `json:"from_user_id"`
	Text       string `json:"text"`
}

type ReceiveMessagePayload struct {
	From int64  `json:"from"`
	Text string `json:"text"`
}

type LoginOKPayload struct {
	UserID int64 `json:"user_id"`
}

type SendAckPayload struct {
	MessageID int64 `json:"message_id"`
	Persisted bool  `json:"persisted"`
	Delivered bool  `json:"delivered"`
}

type ErrorPayload struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func parseLogin(raw json.RawMessage) (LoginPayload, error) {
	var p LoginPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, errs.Validation("malformed login payload")
	}
	if p.UserID <= 0 {
		return p, errs.Validation("login requires a positive user_id")
	}
	return p, nil
}

func parseSendMessage(raw json.RawMessage) (SendMessagePayload, error) {
	var p SendMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, errs.Validation("malformed send_message payload")
	}
	if p.FromUserID <= 0 {
		return p, errs.Validation("send_message requires a positive from_user_id")
	}
	if p.ToUserID <= 0 {
		return p, errs.Validation("send_message requires a positive to_user_id")
	}
	return p, nil
}

// Helper functions
func marshalEvent(eventType string, payload interface{}) []byte {
	raw, _ := json.Marshal(payload)
	data, _ := json.Marshal(Event{Type: eventType, Payload: raw})
	return data
}

func errorEvent(err error) []byte {
	kind := "internal"
	reason := "internal error"
	if k, ok := errs.KindOf(err); ok {
		kind = k.String()
		reason = errs.Reason(err)
		if k == errs.KindStoreUnavailable {
			// Store details never reach clients.
			reason = "failed to process request"
		}
	}
	return marshalEvent(EventError, ErrorPayload{Kind: kind, Reason: reason})
}
