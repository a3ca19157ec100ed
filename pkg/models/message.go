package models

import (
	"time"
)

// Message is immutable once inserted. CreatedAt is server-assigned and
// monotonically non-decreasing per insertion, so conversation read-back order
// matches send order as observed by the dispatcher.
type Message struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	Text       string    `json:"text" db:"text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type SendMessageRequest struct {
	ToUserID int64  `json:"to_user_id"`
	Text     string `json:"text"`
}

// SendMessageResponse reports persistence and live delivery independently.
// A stored but undelivered message (recipient offline) is the common case,
// not an error, so there is deliberately no combined success flag.
type SendMessageResponse struct {
	Message   *Message `json:"message,omitempty"`
	Persisted bool     `json:"persisted"`
	Delivered bool     `json:"delivered"`
}
